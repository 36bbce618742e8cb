package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/02loveslollipop/Shizuku-airquality-viewer/services/api/catalog"
	"github.com/02loveslollipop/Shizuku-airquality-viewer/services/api/config"
	"github.com/02loveslollipop/Shizuku-airquality-viewer/services/api/db"
	httpserver "github.com/02loveslollipop/Shizuku-airquality-viewer/services/api/http"
	"github.com/02loveslollipop/Shizuku-airquality-viewer/services/api/timeseries"
)

func main() {
	if err := run(); err != nil {
		slog.Error("api failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cat := catalog.Default()
	if cfg.CatalogPath != "" {
		if cat, err = catalog.Load(cfg.CatalogPath); err != nil {
			return err
		}
	}

	source, err := db.Open(ctx, cfg.DatabaseURL, cfg.SQLitePath)
	if err != nil {
		return err
	}
	if source != nil {
		defer source.Close()
	} else {
		logger.Warn("no DATABASE_URL or SQLITE_PATH set, station endpoints disabled")
	}

	pipeline := timeseries.NewPipeline(cat,
		timeseries.WithLogger(logger),
		timeseries.WithLocation(cfg.DisplayTZ),
		timeseries.WithMaxBuckets(cfg.MaxGapBuckets),
	)

	srv := httpserver.New(cfg, source, pipeline, logger)
	logger.Info("REST API listening", "addr", cfg.ListenAddr(), "display_tz", cfg.DisplayTZ.String())

	return srv.Run(ctx)
}
