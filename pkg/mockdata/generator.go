// Package mockdata synthesizes the demo metric table.
package mockdata

import (
	"math/rand"
	"time"

	"github.com/nicktill/insights/pkg/records"
)

// Bounds is an inclusive integer range for one generated metric.
type Bounds struct {
	Min, Max int64
}

func (b Bounds) draw(rng *rand.Rand) int64 {
	if b.Max <= b.Min {
		return b.Min
	}
	return b.Min + rng.Int63n(b.Max-b.Min+1)
}

// Config describes the table to generate.
type Config struct {
	// First month of the table
	Start time.Time

	// Number of consecutive months
	Months int

	Revenue     Bounds
	Users       Bounds
	Conversions Bounds

	// Seed for the random source; equal seeds give equal tables
	Seed int64
}

// DefaultConfig matches the demo dataset: Jan..Aug 2025.
func DefaultConfig() Config {
	return Config{
		Start:       records.Month(2025, time.January),
		Months:      8,
		Revenue:     Bounds{Min: 800, Max: 2000},
		Users:       Bounds{Min: 150, Max: 300},
		Conversions: Bounds{Min: 10, Max: 50},
		Seed:        time.Now().UnixNano(),
	}
}

// Generate returns one record per month starting at cfg.Start, keyed on the
// first day of each month.
func Generate(cfg Config) []records.Record {
	if cfg.Months <= 0 {
		return []records.Record{}
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	start := records.Month(cfg.Start.Year(), cfg.Start.Month())

	recs := make([]records.Record, cfg.Months)
	for i := range recs {
		recs[i] = records.Record{
			Date:        start.AddDate(0, i, 0),
			Revenue:     cfg.Revenue.draw(rng),
			Users:       cfg.Users.draw(rng),
			Conversions: cfg.Conversions.draw(rng),
		}
	}
	return recs
}
