package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "time/tzdata"

	"licences/internal/platform/config"
	"licences/internal/platform/logger"
	"licences/pkg/requestcontext"
)

const shutdownTimeout = 20 * time.Second

// main wires dependencies, serves the ops API and runs the lifecycle jobs
// until SIGINT or SIGTERM. Business logic lives in internal services.
func main() {
	cfg, err := config.FromEnv()
	log := logger.New(cfg.Server.LogLevel)
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if loc, err := time.LoadLocation(cfg.Server.Timezone); err == nil {
		requestcontext.Location = loc
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("initializing licences service",
		"addr", cfg.Server.Addr,
		"environment", cfg.Server.Environment,
		"jobs_enabled", cfg.Jobs.Enabled,
	)

	a, err := build(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      a.writeTimeout(),
		IdleTimeout:       120 * time.Second,
	}

	a.outbox.Start()
	jobsDone := make(chan struct{})
	go func() {
		defer close(jobsDone)
		if cfg.Jobs.Enabled {
			_ = a.runner.Start(ctx)
		}
	}()

	go func() {
		log.Info("starting http server", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "error", err)
	}
	<-jobsDone
	if err := a.close(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
