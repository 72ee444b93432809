/*
Package storage provides the pluggable data source behind the dashboard.

The dashboard core only reads: it asks a Source for the full record table on
every recompute, so a backend that gains rows between ticks is picked up on the
next tick without any extra wiring.

Two backends implement Store:
  - memory: a sorted slice, used by default and in tests
  - badger: BadgerDB, for a table that survives restarts and can be filled
    by cmd/seed or POST /v1/import

Usage:

	store, err := badger.New(badger.Config{Path: "./data/insights"})
	if err != nil {
	    log.Fatal(err)
	}
	defer store.Close()

	recs, err := store.Records(ctx)
*/
package storage
