package server

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicktill/insights/pkg/config"
	"github.com/nicktill/insights/pkg/records"
	"github.com/nicktill/insights/pkg/storage/memory"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "INSIGHTS_ENV", "INSIGHTS_BACKEND", "INSIGHTS_DATA_DIR", "INSIGHTS_MAX_MEMORY_MB",
		"INSIGHTS_TICK_INTERVAL_MS", "INSIGHTS_LOCALE", "INSIGHTS_CURRENCY", "INSIGHTS_SEED",
	} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, config.DefaultPort, cfg.Port)
	assert.Equal(t, BackendMemory, cfg.Backend)
	assert.Equal(t, 60*time.Second, cfg.TickInterval)
	assert.Equal(t, "$", cfg.Format.CurrencySymbol)
	assert.Equal(t, int64(config.DefaultMaxMemoryMB), cfg.MaxMemoryMB)
	assert.Zero(t, cfg.Seed)
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("INSIGHTS_BACKEND", "Badger")
	t.Setenv("INSIGHTS_TICK_INTERVAL_MS", "1500")
	t.Setenv("INSIGHTS_CURRENCY", "€")
	t.Setenv("INSIGHTS_SEED", "42")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, BackendBadger, cfg.Backend)
	assert.Equal(t, 1500*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, "€", cfg.Format.CurrencySymbol)
	assert.Equal(t, int64(42), cfg.Seed)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"non-numeric tick", "INSIGHTS_TICK_INTERVAL_MS", "soon"},
		{"zero tick", "INSIGHTS_TICK_INTERVAL_MS", "0"},
		{"negative tick", "INSIGHTS_TICK_INTERVAL_MS", "-100"},
		{"unknown backend", "INSIGHTS_BACKEND", "postgres"},
		{"bad memory limit", "INSIGHTS_MAX_MEMORY_MB", "lots"},
		{"bad locale", "INSIGHTS_LOCALE", "!!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestInitializeStorage_MemorySeeds(t *testing.T) {
	cfg := Config{Backend: BackendMemory, Seed: 7}

	store, err := InitializeStorage(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer store.Close()

	recs, err := store.Records(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 8)
	assert.Equal(t, records.Month(2025, time.January), recs[0].Date)
	assert.Equal(t, records.Month(2025, time.August), recs[7].Date)
}

func TestInitializeStorage_BadgerSeedsOnce(t *testing.T) {
	ctx := context.Background()
	cfg := Config{Backend: BackendBadger, DataDir: t.TempDir(), MaxMemoryMB: 16, Seed: 7}

	store, err := InitializeStorage(ctx, cfg, zerolog.Nop())
	require.NoError(t, err)
	first, err := store.Records(ctx)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	cfg.Seed = 8
	store, err = InitializeStorage(ctx, cfg, zerolog.Nop())
	require.NoError(t, err)
	defer store.Close()

	second, err := store.Records(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSeedIfEmpty_KeepsExistingData(t *testing.T) {
	existing := records.Record{Date: records.Month(2024, time.December), Revenue: 1, Users: 1, Conversions: 1}
	store := memory.New(existing)

	require.NoError(t, SeedIfEmpty(context.Background(), store, 1, zerolog.Nop()))

	recs, err := store.Records(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []records.Record{existing}, recs)
}
