// Package cli holds the start-up steps shared by cmd/tracker and
// cmd/tracker-worker.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tracker/internal/backend"
	"tracker/internal/config"
	"tracker/internal/log"
)

// Bootstrap loads .env (optional), reads the configuration, installs the
// default logger and exits the process when any validator fails.
func Bootstrap(component string, validators ...func(*config.Config) error) (*config.Config, *log.Logger) {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := log.New(cfg.LogConfig(component))
	log.SetDefault(logger)

	validators = append([]func(*config.Config) error{(*config.Config).Validate}, validators...)
	for _, validate := range validators {
		if err := validate(cfg); err != nil {
			logger.Error("Configuration validation failed", log.FieldError, err)
			os.Exit(1)
		}
	}
	if cfg.CalendarTimezone != "" {
		// Zone-less dates outside the derived views (ledger rows, sorting of
		// raw records) follow the calendar zone too.
		time.Local = cfg.Location()
		logger.Info("Calendar time zone applied", "timezone", cfg.CalendarTimezone)
	}
	return cfg, logger
}

// InitBackend builds the configured record store or exits. With notify
// false the AMQP settings are ignored so the store never publishes.
func InitBackend(ctx context.Context, logger *log.Logger, cfg *config.Config, notify bool) *backend.Result {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	if !notify {
		bcfg.AMQPURL = ""
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", bcfg.Type)
		os.Exit(1)
	}
	return res
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
