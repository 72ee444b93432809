package badger

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/nicktill/insights/pkg/records"
	"github.com/nicktill/insights/pkg/storage"
)

// Storage implements storage.Store using BadgerDB (LSM tree).
//
// Keys are [date (8 bytes)][content hash (8 bytes)], so iteration order is
// date order and rewriting an identical record is idempotent while distinct
// records for the same month coexist.
type Storage struct {
	db *badger.DB
}

// Config holds BadgerDB configuration
type Config struct {
	// Path to store database files
	Path string

	// InMemory mode (for testing)
	InMemory bool

	// MaxMemoryMB limits BadgerDB memory usage in MB (0 = 16 MB memtable default)
	MaxMemoryMB int64
}

// New creates a BadgerDB storage backend
func New(cfg Config) (*Storage, error) {
	opts := badger.DefaultOptions(cfg.Path).WithLogger(nil)

	if cfg.InMemory {
		opts = opts.WithDir("").WithValueDir("").WithInMemory(true)
	}

	memTableSize := int64(16 * 1024 * 1024)
	if cfg.MaxMemoryMB > 0 {
		memTableSize = cfg.MaxMemoryMB * 1024 * 1024 / 3 // ~33% for memtable
	}

	// The table is tiny; keep Badger's caches and file sizes small.
	opts = opts.
		WithCompression(options.Snappy).
		WithNumVersionsToKeep(1).
		WithMemTableSize(memTableSize).
		WithNumMemtables(2).
		WithBlockCacheSize(memTableSize / 2).
		WithIndexCacheSize(memTableSize / 4).
		WithMaxLevels(4).
		WithNumCompactors(2).
		WithValueLogFileSize(16 << 20)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}

	return &Storage{db: db}, nil
}

// Write stores records in a single transaction.
func (s *Storage) Write(ctx context.Context, recs []records.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- s.db.Update(func(txn *badger.Txn) error {
			for _, rec := range recs {
				value, err := encodeRecord(rec)
				if err != nil {
					return fmt.Errorf("failed to encode record: %w", err)
				}
				if err := txn.Set(makeKey(rec.Date, value), value); err != nil {
					return fmt.Errorf("failed to write record: %w", err)
				}
			}
			return nil
		})
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("write operation cancelled: %w", ctx.Err())
	}
}

// Records returns the whole table in date order.
func (s *Storage) Records(ctx context.Context) ([]records.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type result struct {
		recs []records.Record
		err  error
	}
	done := make(chan result, 1)

	go func() {
		var res result
		res.err = s.db.View(func(txn *badger.Txn) error {
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()

			for it.Rewind(); it.Valid(); it.Next() {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				err := it.Item().Value(func(val []byte) error {
					rec, err := decodeRecord(val)
					if err != nil {
						return err
					}
					res.recs = append(res.recs, rec)
					return nil
				})
				if err != nil {
					return err
				}
			}
			return nil
		})
		done <- res
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("failed to read records: %w", res.err)
		}
		return res.recs, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("read operation cancelled: %w", ctx.Err())
	}
}

// Close shuts down BadgerDB cleanly
func (s *Storage) Close() error {
	return s.db.Close()
}

// RunGC runs BadgerDB's value log garbage collection.
// Returns badger.ErrNoRewrite when there was nothing to reclaim.
func (s *Storage) RunGC(discardRatio float64) error {
	return s.db.RunValueLogGC(discardRatio)
}

// Stats returns storage statistics
func (s *Storage) Stats(ctx context.Context) (*storage.Stats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stats := &storage.Stats{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			ts := parseKey(it.Item().Key())
			if stats.TotalRecords == 0 {
				stats.Oldest = ts
			}
			stats.Newest = ts
			stats.TotalRecords++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	lsmSize, vlogSize := s.db.Size()
	stats.SizeBytes = uint64(lsmSize + vlogSize)
	return stats, nil
}

// makeKey creates a sortable key: date + xxhash of the encoded value.
// The sign bit is flipped so pre-1970 dates still sort first.
func makeKey(date time.Time, value []byte) []byte {
	key := make([]byte, 16)
	binary.BigEndian.PutUint64(key[0:8], uint64(date.UnixNano())^(1<<63))
	binary.BigEndian.PutUint64(key[8:16], xxhash.Sum64(value))
	return key
}

// parseKey extracts the record date from a storage key
func parseKey(key []byte) time.Time {
	n := int64(binary.BigEndian.Uint64(key[0:8]) ^ (1 << 63))
	return time.Unix(0, n).UTC()
}

func encodeRecord(rec records.Record) ([]byte, error) {
	return json.Marshal(rec)
}

func decodeRecord(data []byte) (records.Record, error) {
	var rec records.Record
	err := json.Unmarshal(data, &rec)
	return rec, err
}
