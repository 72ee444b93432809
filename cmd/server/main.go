package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/nicktill/insights/pkg/config"
	"github.com/nicktill/insights/pkg/controller"
	"github.com/nicktill/insights/pkg/hub"
	"github.com/nicktill/insights/pkg/logging"
	"github.com/nicktill/insights/pkg/server"
	"github.com/nicktill/insights/pkg/server/monitor"
	"github.com/nicktill/insights/pkg/storage"
)

// app is the fully wired service, minus the listener.
type app struct {
	cfg            server.Config
	store          storage.Store
	hub            *hub.Hub
	ctrl           *controller.Controller
	refreshMonitor *monitor.RefreshMonitor
	router         *mux.Router
}

// newApp opens storage, performs the initial load and mounts the routes.
func newApp(ctx context.Context, cfg server.Config, logger zerolog.Logger) (*app, error) {
	store, err := server.InitializeStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	h := hub.New(logger.With().Str("component", "hub").Logger())
	ctrl, refreshMonitor := server.InitializeController(store, h, cfg, logger)

	snap, err := ctrl.Load(ctx)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	refreshMonitor.RecordSuccess()
	logger.Info().
		Str("range", snap.Range.String()).
		Str("revenue", snap.Views.Cards.Revenue).
		Msg("initial dashboard loaded")

	dashboardHandler, exportHandler := server.InitializeHandlers(ctrl, store, logger)

	var disk *monitor.DiskMonitor
	if cfg.Backend == server.BackendBadger {
		disk = monitor.NewDiskMonitor(cfg.DataDir)
	}

	router := mux.NewRouter()
	server.SetupRoutes(router, server.Routes{
		Dashboard:      dashboardHandler,
		Export:         exportHandler,
		Hub:            h,
		Store:          store,
		Backend:        cfg.Backend,
		RefreshMonitor: refreshMonitor,
		DiskMonitor:    disk,
	}, logger.With().Str("component", "http").Logger(), cfg.Port)

	return &app{
		cfg:            cfg,
		store:          store,
		hub:            h,
		ctrl:           ctrl,
		refreshMonitor: refreshMonitor,
		router:         router,
	}, nil
}

// start launches the hub, the refresh ticker and badger GC.
func (a *app) start(ctx context.Context, logger zerolog.Logger, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.hub.Run(ctx)
	}()

	wg.Add(1)
	go server.RunRefresh(ctx, a.ctrl, a.cfg.TickInterval, a.refreshMonitor, wg)

	wg.Add(1)
	go server.RunBadgerGC(ctx, a.store, config.BadgerGCInterval, logger.With().Str("component", "gc").Logger(), wg)
}

// applyFlags overrides environment configuration with explicitly set flags.
func applyFlags(cfg server.Config, flags *pflag.FlagSet) (server.Config, error) {
	if flags.Changed("port") {
		cfg.Port, _ = flags.GetString("port")
	}
	if flags.Changed("env") {
		cfg.Env, _ = flags.GetString("env")
	}
	if flags.Changed("backend") {
		cfg.Backend, _ = flags.GetString("backend")
	}
	if flags.Changed("data-dir") {
		cfg.DataDir, _ = flags.GetString("data-dir")
	}
	if flags.Changed("tick-interval-ms") {
		ms, _ := flags.GetInt64("tick-interval-ms")
		cfg.TickInterval = time.Duration(ms) * time.Millisecond
	}
	if flags.Changed("seed") {
		cfg.Seed, _ = flags.GetInt64("seed")
	}
	return cfg, cfg.Validate()
}

func newFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("insights", pflag.ContinueOnError)
	flags.String("port", config.DefaultPort, "HTTP listen port (env PORT)")
	flags.String("env", config.DefaultEnv, "runtime environment, \"development\" enables debug logs (env INSIGHTS_ENV)")
	flags.String("backend", config.DefaultBackend, "storage backend: memory or badger (env INSIGHTS_BACKEND)")
	flags.String("data-dir", config.DefaultDataDir, "BadgerDB directory (env INSIGHTS_DATA_DIR)")
	flags.Int64("tick-interval-ms", config.DefaultTickInterval.Milliseconds(), "dashboard refresh interval in milliseconds (env INSIGHTS_TICK_INTERVAL_MS)")
	flags.Int64("seed", 0, "seed for the demo dataset, 0 for time-based (env INSIGHTS_SEED)")
	return flags
}

func main() {
	cfg, err := server.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	flags := newFlagSet()
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatal().Err(err).Msg("invalid flags")
	}
	cfg, err = applyFlags(cfg, flags)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	logger := logging.New(cfg.Env)
	log.Logger = logger

	logger.Info().
		Str("backend", cfg.Backend).
		Str("port", cfg.Port).
		Dur("tick_interval", cfg.TickInterval).
		Str("locale", cfg.Format.Language.String()).
		Msg("starting insights server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize")
	}
	defer a.store.Close()

	var wg sync.WaitGroup
	a.start(ctx, logger, &wg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      a.router,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
	}

	go func() {
		logger.Info().Str("addr", "http://localhost:"+cfg.Port).Msg("server ready to accept requests")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")

	// Cancel first so the hub and tickers exit before wg.Wait
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("server shutdown warning")
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info().Msg("all background tasks stopped cleanly")
	case <-time.After(5 * time.Second):
		logger.Warn().Msg("some background tasks did not stop in time")
	}

	logger.Info().Uint64("last_sequence", a.ctrl.Current().Sequence).Msg("insights server exited")
}
