// Command seed fills a BadgerDB data directory with a demo dataset or the
// rows of an exported CSV file, so the server can start on the badger backend
// with known data.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/nicktill/insights/pkg/config"
	"github.com/nicktill/insights/pkg/export"
	"github.com/nicktill/insights/pkg/logging"
	"github.com/nicktill/insights/pkg/mockdata"
	"github.com/nicktill/insights/pkg/records"
	"github.com/nicktill/insights/pkg/storage/badger"
)

const reportTemplate = `Seeded %s
	Records written: %d
	Range:           %s
	Records stored:  %d
	Took:            %s
`

type options struct {
	dataDir     string
	maxMemoryMB int64
	csvPath     string
	start       string
	months      int
	seed        int64
}

func parseFlags(args []string) (options, error) {
	var opts options
	flags := pflag.NewFlagSet("seed", pflag.ContinueOnError)
	flags.StringVar(&opts.dataDir, "data-dir", config.DefaultDataDir, "BadgerDB directory to write to")
	flags.Int64Var(&opts.maxMemoryMB, "max-memory-mb", config.DefaultMaxMemoryMB, "BadgerDB memory budget in MB")
	flags.StringVar(&opts.csvPath, "csv", "", "import rows from this CSV export instead of generating them")
	flags.StringVar(&opts.start, "start", "2025-01", "first generated month (YYYY-MM)")
	flags.IntVar(&opts.months, "months", mockdata.DefaultConfig().Months, "number of generated months")
	flags.Int64Var(&opts.seed, "seed", 0, "random seed, 0 for time-based")
	if err := flags.Parse(args); err != nil {
		return options{}, err
	}
	if opts.months <= 0 && opts.csvPath == "" {
		return options{}, fmt.Errorf("--months must be positive, got %d", opts.months)
	}
	return opts, nil
}

// loadRecords generates the dataset or reads it from the CSV file.
func loadRecords(opts options) ([]records.Record, error) {
	if opts.csvPath != "" {
		f, err := os.Open(opts.csvPath)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return export.ParseCSV(f)
	}

	start, err := records.ParseDate(opts.start)
	if err != nil {
		return nil, err
	}
	gen := mockdata.DefaultConfig()
	gen.Start = start
	gen.Months = opts.months
	if opts.seed != 0 {
		gen.Seed = opts.seed
	}
	return mockdata.Generate(gen), nil
}

func run(ctx context.Context, args []string, out io.Writer, logger zerolog.Logger) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	begin := time.Now()
	recs, err := loadRecords(opts)
	if err != nil {
		return fmt.Errorf("failed to load records: %w", err)
	}

	if err := os.MkdirAll(opts.dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	store, err := badger.New(badger.Config{Path: opts.dataDir, MaxMemoryMB: opts.maxMemoryMB})
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Write(ctx, recs); err != nil {
		return fmt.Errorf("failed to write records: %w", err)
	}
	stats, err := store.Stats(ctx)
	if err != nil {
		return err
	}

	rng := "empty"
	if bounds, ok := records.Bounds(recs); ok {
		rng = bounds.String()
	}
	logger.Debug().Str("dir", opts.dataDir).Int("records", len(recs)).Msg("seed written")

	_, err = fmt.Fprintf(out, reportTemplate, opts.dataDir, len(recs), rng, stats.TotalRecords, time.Since(begin).Round(time.Millisecond))
	return err
}

func main() {
	logger := logging.New(os.Getenv("INSIGHTS_ENV"))
	log.Logger = logger

	if err := run(context.Background(), os.Args[1:], os.Stdout, logger); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		logger.Fatal().Err(err).Msg("seed failed")
	}
}
