package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/nicktill/insights/pkg/records"
)

// Filename is the conventional download name for a CSV export.
const Filename = "dashboard_export.csv"

// Header is the CSV header row; columns are always in this order.
var Header = []string{"Date", "Revenue", "Users", "Conversions"}

// Payload is the result of one export request: the filtered view and its
// CSV rendering, both taken from the same filter state.
type Payload struct {
	Range      records.DateRange
	Records    []records.Record
	CSV        []byte
	ExportedAt time.Time
}

// WriteCSV writes the header and one row per record to w.
func WriteCSV(w io.Writer, recs []records.Record) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(Header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, rec := range recs {
		row := []string{
			rec.Date.Format(records.DateLayout),
			strconv.FormatInt(rec.Revenue, 10),
			strconv.FormatInt(rec.Users, 10),
			strconv.FormatInt(rec.Conversions, 10),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// ToCSV renders recs as CSV text. An empty slice yields the header line only.
func ToCSV(recs []records.Record) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, recs); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// jsonExport is the JSON download shape: metadata plus the rows.
type jsonExport struct {
	Metadata struct {
		ExportedAt  time.Time `json:"exported_at"`
		StartDate   string    `json:"start_date"`
		EndDate     string    `json:"end_date"`
		RecordCount int       `json:"record_count"`
		Format      string    `json:"format"`
		Version     string    `json:"version"`
	} `json:"metadata"`
	Records []records.Record `json:"records"`
}

// WriteJSON writes the payload's records with export metadata.
func WriteJSON(w io.Writer, p Payload) error {
	var out jsonExport
	out.Metadata.ExportedAt = p.ExportedAt
	out.Metadata.StartDate = p.Range.Start.Format(records.DateLayout)
	out.Metadata.EndDate = p.Range.End.Format(records.DateLayout)
	out.Metadata.RecordCount = len(p.Records)
	out.Metadata.Format = "json"
	out.Metadata.Version = "1.0"
	out.Records = p.Records
	if out.Records == nil {
		out.Records = []records.Record{}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(out); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
