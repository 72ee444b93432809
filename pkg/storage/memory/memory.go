package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/nicktill/insights/pkg/records"
	"github.com/nicktill/insights/pkg/storage"
)

// Storage stores records in memory. Data is lost on restart.
type Storage struct {
	recs []records.Record
	seen map[recordKey]struct{}
	mu   sync.RWMutex
}

// recordKey identifies a record by content, like the badger backend's
// date + value hash keys.
type recordKey struct {
	date        int64
	revenue     int64
	users       int64
	conversions int64
}

func keyOf(rec records.Record) recordKey {
	return recordKey{
		date:        rec.Date.UnixNano(),
		revenue:     rec.Revenue,
		users:       rec.Users,
		conversions: rec.Conversions,
	}
}

// New creates an in-memory storage backend, optionally pre-filled.
func New(initial ...records.Record) *Storage {
	s := &Storage{
		recs: make([]records.Record, 0, len(initial)),
		seen: make(map[recordKey]struct{}, len(initial)),
	}
	s.insert(initial)
	return s
}

// Write adds records, keeping the table ordered by date. Distinct records
// with equal dates keep their write order; a record identical to one
// already stored is skipped.
func (s *Storage) Write(ctx context.Context, recs []records.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insert(recs)
	return nil
}

func (s *Storage) insert(recs []records.Record) {
	for _, rec := range recs {
		k := keyOf(rec)
		if _, dup := s.seen[k]; dup {
			continue
		}
		s.seen[k] = struct{}{}
		s.recs = append(s.recs, rec)
	}
	sort.SliceStable(s.recs, func(i, j int) bool {
		return s.recs[i].Date.Before(s.recs[j].Date)
	})
}

// Records returns a copy of the table.
func (s *Storage) Records(ctx context.Context) ([]records.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]records.Record, len(s.recs))
	copy(out, s.recs)
	return out, nil
}

// Close is a no-op for memory storage
func (s *Storage) Close() error {
	return nil
}

// Stats returns storage statistics
func (s *Storage) Stats(ctx context.Context) (*storage.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &storage.Stats{
		TotalRecords: uint64(len(s.recs)),
		// Rough size estimate (each record ~64 bytes)
		SizeBytes: uint64(len(s.recs)) * 64,
	}
	if r, ok := records.Bounds(s.recs); ok {
		stats.Oldest = r.Start
		stats.Newest = r.End
	}
	return stats, nil
}
