package storage

import (
	"context"
	"time"

	"github.com/nicktill/insights/pkg/records"
)

// Source is the read side the dashboard core depends on. Records must come
// back ordered by Date ascending.
type Source interface {
	Records(ctx context.Context) ([]records.Record, error)
}

// Writer loads records into a backend (seeding and CSV import).
type Writer interface {
	Write(ctx context.Context, recs []records.Record) error
}

// Store is a complete storage backend.
// Implementations: memory (default, tests), badger (on-disk).
type Store interface {
	Source
	Writer

	// Stats returns storage statistics
	Stats(ctx context.Context) (*Stats, error)

	// Close cleanly shuts down the storage
	Close() error
}

// Stats provides storage health and usage info
type Stats struct {
	// Total records stored
	TotalRecords uint64 `json:"total_records"`

	// Storage size in bytes
	SizeBytes uint64 `json:"size_bytes"`

	// Oldest record date
	Oldest time.Time `json:"oldest"`

	// Newest record date
	Newest time.Time `json:"newest"`
}
