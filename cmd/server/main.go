package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/skelgen/internal/api"
	"github.com/dgallion1/skelgen/internal/config"
	"github.com/dgallion1/skelgen/internal/logging"
	"github.com/dgallion1/skelgen/internal/metrics"
	"github.com/dgallion1/skelgen/internal/pipeline"
	"github.com/dgallion1/skelgen/internal/skeleton"
	"github.com/dgallion1/skelgen/internal/store"
)

func main() {
	cfg := config.Load()

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	log := logging.New(os.Stdout, level, cfg.LogFormat)
	if err != nil {
		log.Warn("invalid LOG_LEVEL, using info", "value", cfg.LogLevel)
	}

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Result store: Redis when configured, otherwise in-process.
	var st store.Store
	if cfg.RedisAddr != "" {
		rs := store.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		err := rs.Ping(pingCtx)
		pingCancel()
		if err != nil {
			log.Error("redis unreachable", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		log.Info("using redis result store", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
		st = rs
	} else {
		st = store.NewMemoryStore()
	}

	rec := metrics.NewRecorder(time.Hour)

	opts, err := cfg.SkeletonOptions()
	if err != nil {
		log.Error("invalid style table", "path", cfg.StyleTablePath, "error", err)
		os.Exit(1)
	}
	opts = append(opts, skeleton.WithLogger(log), skeleton.WithObserver(rec))
	t := skeleton.New(opts...)

	orch := pipeline.NewOrchestrator(cfg, t, st, rec, log)
	orch.Start(ctx)

	srv := api.NewServer(orch, rec, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("starting skelgen", "port", cfg.Port, "workers", cfg.WorkerCount, "center_marker", t.CenterMarker())
	if err := serve(ctx, httpServer, log, orch.Stop, func() { st.Close() }); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

// serve runs srv until ctx is done, then shuts it down and runs cleanup in
// order. It returns only after cleanup has finished.
func serve(ctx context.Context, srv *http.Server, log *slog.Logger, cleanup ...func()) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("http shutdown", "error", err)
		}
		for _, fn := range cleanup {
			fn()
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	return nil
}
