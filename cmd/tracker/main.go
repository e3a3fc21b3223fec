package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"
	_ "time/tzdata"

	"tracker/internal/cli"
	"tracker/internal/config"
	apphttp "tracker/internal/http"
	"tracker/internal/log"
	"tracker/internal/services"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentApp)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	be := cli.InitBackend(ctx, logger, cfg, true)
	defer func() {
		if err := be.Close(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()

	orch := services.New(be.Store,
		services.WithLogger(logger),
		services.WithOptions(viewOptions(cfg)),
	)
	// The server still starts when the first load fails; every read retries it.
	if _, err := orch.LoadAll(ctx); err != nil {
		logger.Warn("Initial load failed", log.FieldError, err)
	}

	srv := apphttp.NewServer(":"+cfg.Port, orch,
		apphttp.WithLogger(logger),
		apphttp.WithReadiness(be.Ready),
	)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	}()

	logger.Info("Starting tracker server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func viewOptions(cfg *config.Config) services.Options {
	opts := services.DefaultOptions()
	opts.EventsAscending = cfg.EventsAscending()
	opts.Location = cfg.Location()
	return opts
}
