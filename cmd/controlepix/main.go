package main

import (
	"os"

	"controlepix/internal/cli"
	apphttp "controlepix/internal/http"
	applog "controlepix/internal/log"
	"controlepix/internal/metrics"
	"controlepix/internal/services"
	"controlepix/internal/storage"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg)

	store := cli.InitStore(logger, cfg.SQLiteDBPath)
	defer store.Close()

	opts := []services.Option{
		services.WithLogger(logger),
		services.WithSchemaCheck(func() error { return storage.EnsureSchema(cfg.SQLiteDBPath) }),
	}
	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
		opts = append(opts, services.WithRecorder(m))
	}
	dashboard := services.NewDashboard(store, opts...)

	srv, err := apphttp.NewServer(cfg.Addr(), dashboard, store, apphttp.Options{
		Logger:             logger,
		Metrics:            m,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})
	if err != nil {
		logger.Error("Failed to build HTTP server", applog.FieldError, err)
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext()
	defer stop()

	logger.Info("Starting controlepix server",
		applog.FieldOperation, applog.OpStartup,
		"addr", cfg.Addr(),
		"db_path", cfg.SQLiteDBPath,
		"metrics", cfg.MetricsEnabled)

	if err := cli.Serve(ctx, logger, srv, cfg.ShutdownTimeout); err != nil {
		logger.Error("Server error", applog.FieldError, err)
		store.Close()
		os.Exit(1)
	}
}
