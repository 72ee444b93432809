package export

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicktill/insights/pkg/records"
	"github.com/nicktill/insights/pkg/storage"
	"github.com/nicktill/insights/pkg/storage/badger"
	"github.com/nicktill/insights/pkg/storage/memory"
)

func sample() []records.Record {
	return []records.Record{
		{Date: records.Month(2025, time.January), Revenue: 1000, Users: 200, Conversions: 20},
		{Date: records.Month(2025, time.February), Revenue: 1500, Users: 250, Conversions: 30},
		{Date: records.Month(2025, time.March), Revenue: 1200, Users: 180, Conversions: 25},
	}
}

func TestToCSV_EmptyIsHeaderOnly(t *testing.T) {
	out, err := ToCSV(nil)
	require.NoError(t, err)
	assert.Equal(t, "Date,Revenue,Users,Conversions\n", string(out))
}

func TestToCSV_Rows(t *testing.T) {
	out, err := ToCSV(sample())
	require.NoError(t, err)

	want := "Date,Revenue,Users,Conversions\n" +
		"2025-01-01,1000,200,20\n" +
		"2025-02-01,1500,250,30\n" +
		"2025-03-01,1200,180,25\n"
	assert.Equal(t, want, string(out))
}

func TestToCSV_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		recs := make([]records.Record, rng.Intn(12))
		for j := range recs {
			recs[j] = records.Record{
				Date:        records.Month(2020+rng.Intn(6), time.Month(1+rng.Intn(12))),
				Revenue:     rng.Int63n(1_000_000),
				Users:       rng.Int63n(10_000),
				Conversions: rng.Int63n(1_000),
			}
		}

		out, err := ToCSV(recs)
		require.NoError(t, err)
		parsed, err := ParseCSV(bytes.NewReader(out))
		require.NoError(t, err)

		require.Len(t, parsed, len(recs))
		for j := range recs {
			assert.True(t, recs[j].Date.Equal(parsed[j].Date), "row %d date", j)
			assert.Equal(t, recs[j].Revenue, parsed[j].Revenue)
			assert.Equal(t, recs[j].Users, parsed[j].Users)
			assert.Equal(t, recs[j].Conversions, parsed[j].Conversions)
		}
	}
}

func TestParseCSV_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "empty document", doc: ""},
		{name: "wrong header", doc: "When,Revenue,Users,Conversions\n"},
		{name: "bad date", doc: "Date,Revenue,Users,Conversions\nJan 2025,1,2,3\n"},
		{name: "negative value", doc: "Date,Revenue,Users,Conversions\n2025-01-01,-1,2,3\n"},
		{name: "not a number", doc: "Date,Revenue,Users,Conversions\n2025-01-01,1.5,2,3\n"},
		{name: "short row", doc: "Date,Revenue,Users,Conversions\n2025-01-01,1,2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCSV(strings.NewReader(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestWriteJSON(t *testing.T) {
	payload := Payload{
		Range:      records.DateRange{Start: records.Month(2025, time.January), End: records.Month(2025, time.February)},
		Records:    sample()[:2],
		ExportedAt: time.Date(2025, time.September, 1, 12, 0, 0, 0, time.UTC),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, payload))

	var out jsonExport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, 2, out.Metadata.RecordCount)
	assert.Equal(t, "2025-01-01", out.Metadata.StartDate)
	assert.Equal(t, "2025-02-01", out.Metadata.EndDate)
	assert.Equal(t, "json", out.Metadata.Format)
	assert.Len(t, out.Records, 2)
}

func TestImportCSV(t *testing.T) {
	store := memory.New()
	doc := "Date,Revenue,Users,Conversions\n" +
		"2025-01-01,1000,200,20\n" +
		"2025-02-01,oops,250,30\n" +
		"2025-03-01,1200,180\n" +
		"2025-04-01,900,170,15\n"

	result, err := NewImporter(store).ImportCSV(context.Background(), strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, 2, result.RecordsImported)
	assert.Equal(t, 1, result.BatchesWritten)
	assert.Len(t, result.Errors, 2)
	assert.Equal(t, "2025-01-01 to 2025-04-01", result.TimeRange)

	recs, err := store.Records(context.Background())
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestImportCSV_ReimportIsIdempotent(t *testing.T) {
	doc, err := ToCSV(sample()[:2])
	require.NoError(t, err)

	db, err := badger.New(badger.Config{InMemory: true})
	require.NoError(t, err)
	defer db.Close()

	backends := map[string]storage.Store{
		"memory": memory.New(),
		"badger": db,
	}

	for name, store := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			importer := NewImporter(store)
			for i := 0; i < 2; i++ {
				result, err := importer.ImportCSV(ctx, bytes.NewReader(doc))
				require.NoError(t, err)
				assert.Equal(t, 2, result.RecordsImported)
			}

			recs, err := store.Records(ctx)
			require.NoError(t, err)
			require.Len(t, recs, 2)
			assert.Equal(t, int64(2500), records.Summarize(recs).Revenue)
		})
	}
}

func TestImportCSV_BadHeader(t *testing.T) {
	_, err := NewImporter(memory.New()).ImportCSV(context.Background(), strings.NewReader("a,b,c,d\n"))
	assert.ErrorIs(t, err, ErrBadHeader)
}

func TestImportCSV_NothingValid(t *testing.T) {
	result, err := NewImporter(memory.New()).ImportCSV(context.Background(), strings.NewReader("Date,Revenue,Users,Conversions\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, result.RecordsImported)
	assert.Equal(t, "empty", result.TimeRange)
}
