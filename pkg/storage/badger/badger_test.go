package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicktill/insights/pkg/records"
)

func newTestStore(t *testing.T) *Storage {
	t.Helper()
	store, err := New(Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBadgerStorage_WriteAndRead(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.Write(ctx, []records.Record{
		{Date: records.Month(2025, time.March), Revenue: 1200, Users: 180, Conversions: 25},
		{Date: records.Month(2025, time.January), Revenue: 1000, Users: 200, Conversions: 20},
		{Date: records.Month(2025, time.February), Revenue: 1500, Users: 250, Conversions: 30},
	})
	require.NoError(t, err)

	recs, err := store.Records(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.True(t, recs[0].Date.Equal(records.Month(2025, time.January)))
	assert.True(t, recs[1].Date.Equal(records.Month(2025, time.February)))
	assert.True(t, recs[2].Date.Equal(records.Month(2025, time.March)))
	assert.Equal(t, int64(1500), recs[1].Revenue)
}

func TestBadgerStorage_IdenticalWriteIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	rec := records.Record{Date: records.Month(2025, time.January), Revenue: 1000}

	require.NoError(t, store.Write(ctx, []records.Record{rec}))
	require.NoError(t, store.Write(ctx, []records.Record{rec}))

	recs, err := store.Records(ctx)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestBadgerStorage_SameMonthDistinctRecords(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	jan := records.Month(2025, time.January)

	require.NoError(t, store.Write(ctx, []records.Record{
		{Date: jan, Revenue: 1000},
		{Date: jan, Revenue: 2000},
	}))

	recs, err := store.Records(ctx)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestBadgerStorage_Persistence(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	{
		store, err := New(Config{Path: dir})
		require.NoError(t, err)
		require.NoError(t, store.Write(ctx, []records.Record{{Date: records.Month(2025, time.May), Users: 42}}))
		require.NoError(t, store.Close())
	}

	store, err := New(Config{Path: dir})
	require.NoError(t, err)
	defer store.Close()

	recs, err := store.Records(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, int64(42), recs[0].Users)
}

func TestBadgerStorage_Stats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, []records.Record{
		{Date: records.Month(2025, time.April)},
		{Date: records.Month(2025, time.August)},
	}))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), stats.TotalRecords)
	assert.True(t, stats.Oldest.Equal(records.Month(2025, time.April)))
	assert.True(t, stats.Newest.Equal(records.Month(2025, time.August)))
}

func TestKeyOrdering(t *testing.T) {
	before := makeKey(time.Date(1969, time.December, 1, 0, 0, 0, 0, time.UTC), []byte("a"))
	after := makeKey(records.Month(1970, time.February), []byte("a"))

	assert.True(t, string(before[:8]) < string(after[:8]))
	assert.True(t, parseKey(after).Equal(records.Month(1970, time.February)))
}
