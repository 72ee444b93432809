package server

import (
	"context"
	"errors"
	"sync"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/nicktill/insights/pkg/controller"
	"github.com/nicktill/insights/pkg/server/monitor"
	"github.com/nicktill/insights/pkg/storage"
)

// gcDiscardRatio reclaims a value log file once half of it is garbage.
const gcDiscardRatio = 0.5

// valueLogCollector is implemented by stores with a value log to reclaim.
type valueLogCollector interface {
	RunGC(discardRatio float64) error
}

// RunRefresh drives the controller's periodic tick and reports each
// outcome to the monitor.
func RunRefresh(ctx context.Context, ctrl *controller.Controller, interval time.Duration, refreshMonitor *monitor.RefreshMonitor, wg *sync.WaitGroup) {
	defer wg.Done()
	ctrl.Run(ctx, interval, refreshMonitor)
}

// RunBadgerGC runs BadgerDB garbage collection periodically to reclaim disk
// space. Imports rewrite records, which leaves stale entries in the value log.
func RunBadgerGC(ctx context.Context, store storage.Store, interval time.Duration, logger zerolog.Logger, wg *sync.WaitGroup) {
	defer wg.Done()

	collector, ok := store.(valueLogCollector)
	if !ok {
		logger.Debug().Msg("storage has no value log, skipping GC")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info().Dur("interval", interval).Msg("BadgerDB GC scheduler started")

	for {
		select {
		case <-ticker.C:
			collectGarbage(collector, logger)
		case <-ctx.Done():
			logger.Info().Msg("stopping BadgerDB GC scheduler")
			return
		}
	}
}

// collectGarbage rewrites value log files until nothing is left to reclaim.
func collectGarbage(collector valueLogCollector, logger zerolog.Logger) {
	start := time.Now()
	rewrites := 0
	for {
		err := collector.RunGC(gcDiscardRatio)
		if errors.Is(err, badgerdb.ErrNoRewrite) || errors.Is(err, badgerdb.ErrRejected) {
			break
		}
		if err != nil {
			logger.Warn().Err(err).Msg("BadgerDB GC failed")
			return
		}
		rewrites++
	}
	logger.Debug().
		Int("rewrites", rewrites).
		Dur("duration", time.Since(start).Round(time.Millisecond)).
		Msg("BadgerDB GC completed")
}
