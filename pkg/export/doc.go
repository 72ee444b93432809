// Package export renders the dashboard's filtered view as a downloadable
// document and loads such documents back.
//
// # CSV layout
//
// UTF-8, comma-delimited, one header row followed by one row per record:
//
//	Date,Revenue,Users,Conversions
//	2025-01-01,1000,200,20
//	2025-02-01,1500,250,30
//
// Dates use the 2006-01-02 layout. An empty view exports the header only.
// ParseCSV reads this layout back, so exports round-trip.
//
// # HTTP API
//
// Export endpoint: GET /v1/export?format=csv|json
//
//	curl -OJ "http://localhost:8080/v1/export"
//
// Import endpoint: POST /v1/import (Content-Type: text/csv)
//
//	curl -X POST -H "Content-Type: text/csv" --data-binary @dashboard_export.csv \
//	  http://localhost:8080/v1/import
//
// Imports skip invalid rows (unparseable dates, non-integer or negative
// values) and report them in the response.
package export
