package server

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/nicktill/insights/pkg/config"
	"github.com/nicktill/insights/pkg/controller"
	"github.com/nicktill/insights/pkg/dashboard"
	"github.com/nicktill/insights/pkg/export"
	"github.com/nicktill/insights/pkg/hub"
	"github.com/nicktill/insights/pkg/mockdata"
	"github.com/nicktill/insights/pkg/server/monitor"
	"github.com/nicktill/insights/pkg/storage"
	"github.com/nicktill/insights/pkg/storage/badger"
	"github.com/nicktill/insights/pkg/storage/memory"
	"github.com/nicktill/insights/pkg/views"
)

// Storage backends
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
)

// Config holds server configuration.
type Config struct {
	Port         string
	Env          string
	Backend      string
	DataDir      string
	MaxMemoryMB  int64
	TickInterval time.Duration
	Format       views.Format

	// Seed for the demo dataset; 0 picks a time-based seed
	Seed int64
}

// LoadConfig loads configuration from the environment, after merging in
// .env and .env.local when present.
func LoadConfig() (Config, error) {
	_ = godotenv.Load(".env", ".env.local")

	maxMemoryMB, err := getEnvInt64("INSIGHTS_MAX_MEMORY_MB", config.DefaultMaxMemoryMB)
	if err != nil {
		return Config{}, err
	}
	tickMs, err := getEnvInt64("INSIGHTS_TICK_INTERVAL_MS", config.DefaultTickInterval.Milliseconds())
	if err != nil {
		return Config{}, err
	}
	seed, err := getEnvInt64("INSIGHTS_SEED", 0)
	if err != nil {
		return Config{}, err
	}
	format, err := views.ParseFormat(
		getEnv("INSIGHTS_LOCALE", config.DefaultLocale),
		getEnv("INSIGHTS_CURRENCY", config.DefaultCurrency),
	)
	if err != nil {
		return Config{}, fmt.Errorf("invalid INSIGHTS_LOCALE: %w", err)
	}

	cfg := Config{
		Port:         getEnv("PORT", config.DefaultPort),
		Env:          getEnv("INSIGHTS_ENV", config.DefaultEnv),
		Backend:      strings.ToLower(getEnv("INSIGHTS_BACKEND", config.DefaultBackend)),
		DataDir:      getEnv("INSIGHTS_DATA_DIR", config.DefaultDataDir),
		MaxMemoryMB:  maxMemoryMB,
		TickInterval: time.Duration(tickMs) * time.Millisecond,
		Format:       format,
		Seed:         seed,
	}
	return cfg, cfg.Validate()
}

// Validate checks the values LoadConfig and command-line overrides produce.
func (c Config) Validate() error {
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be a positive number of milliseconds, got %v", c.TickInterval)
	}
	if c.Backend != BackendMemory && c.Backend != BackendBadger {
		return fmt.Errorf("unknown storage backend %q (want %q or %q)", c.Backend, BackendMemory, BackendBadger)
	}
	if c.Port == "" {
		return fmt.Errorf("port must not be empty")
	}
	return nil
}

// InitializeStorage opens the configured backend and seeds it with the demo
// dataset when it holds no records.
func InitializeStorage(ctx context.Context, cfg Config, logger zerolog.Logger) (storage.Store, error) {
	var store storage.Store
	switch cfg.Backend {
	case BackendBadger:
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		logger.Info().Str("dir", cfg.DataDir).Int64("max_memory_mb", cfg.MaxMemoryMB).Msg("opening BadgerDB storage")
		db, err := badger.New(badger.Config{
			Path:        cfg.DataDir,
			MaxMemoryMB: cfg.MaxMemoryMB,
		})
		if err != nil {
			return nil, err
		}
		store = db
	default:
		logger.Info().Msg("using in-memory storage")
		store = memory.New()
	}

	if err := SeedIfEmpty(ctx, store, cfg.Seed, logger); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

// SeedIfEmpty writes the demo dataset into an empty store.
func SeedIfEmpty(ctx context.Context, store storage.Store, seed int64, logger zerolog.Logger) error {
	stats, err := store.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to read storage stats: %w", err)
	}
	if stats.TotalRecords > 0 {
		logger.Info().Uint64("records", stats.TotalRecords).Msg("storage already holds data, skipping seed")
		return nil
	}

	gen := mockdata.DefaultConfig()
	if seed != 0 {
		gen.Seed = seed
	}
	recs := mockdata.Generate(gen)
	if err := store.Write(ctx, recs); err != nil {
		return fmt.Errorf("failed to seed storage: %w", err)
	}
	logger.Info().Int("records", len(recs)).Int64("seed", gen.Seed).Msg("seeded demo dataset")
	return nil
}

// InitializeController creates the dashboard controller publishing to the hub
// and the monitor tracking its refresh loop.
func InitializeController(store storage.Store, h *hub.Hub, cfg Config, logger zerolog.Logger) (*controller.Controller, *monitor.RefreshMonitor) {
	ctrl := controller.New(controller.Config{
		Source:    store,
		Builder:   views.NewBuilder(cfg.Format),
		Publisher: h,
		Logger:    logger.With().Str("component", "controller").Logger(),
	})
	return ctrl, monitor.NewRefreshMonitor(cfg.TickInterval)
}

// InitializeHandlers creates the HTTP handlers.
func InitializeHandlers(
	ctrl *controller.Controller,
	store storage.Store,
	logger zerolog.Logger,
) (*dashboard.Handler, *export.Handler) {
	dashboardHandler := dashboard.NewHandler(ctrl, store, store, logger.With().Str("component", "dashboard").Logger())
	exportHandler := export.NewHandler(ctrl, store, ctrl, logger.With().Str("component", "export").Logger())
	return dashboardHandler, exportHandler
}

func getEnv(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

// getEnvInt64 gets an int64 from environment variable or returns default.
func getEnvInt64(key string, defaultValue int64) (int64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q", key, val)
	}
	return parsed, nil
}
