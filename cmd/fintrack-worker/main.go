package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/cli"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
	gsheet "fintrack/internal/sheets/google"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(cli.SetupLogger(applog.ComponentWorker, false).Logger)
	logger := cli.SetupLogger(applog.ComponentWorker, cfg.LogJSON)

	logger.Info("Starting fintrack-worker")

	ctx, stop := cli.SignalContext(logger.Logger)
	defer stop()

	res := cli.OpenBackend(ctx, logger.Logger, cfg, cfg.ExportEnabled() && cfg.EventsEnabled())
	defer func() {
		if err := res.Close(); err != nil {
			logger.Error("Backend cleanup failed", "error", err)
		}
	}()
	svc := cli.BuildServices(ctx, logger.Logger, cfg, res)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return worker.NewTicker("rate-update", cfg.RateUpdateInterval, func(ctx context.Context) error {
			n, err := svc.Rates.UpdateAll(ctx)
			if err == nil && n > 0 {
				logger.InfoContext(ctx, "Exchange rates refreshed", "updated", n)
			}
			return err
		}).Run(gctx)
	})

	g.Go(func() error {
		return worker.NewTicker("insight-cleanup", cfg.RateUpdateInterval, func(ctx context.Context) error {
			_, err := svc.Insights.Cleanup(ctx, services.DefaultInsightRetention)
			return err
		}).Run(gctx)
	})

	if cfg.ExportEnabled() {
		exporter, err := gsheet.New(gctx, gsheet.Config{
			SpreadsheetID:      cfg.GoogleSpreadsheetID,
			SheetName:          cfg.GoogleSheetName,
			ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
			ServiceAccountFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets exporter", "error", err)
			os.Exit(1)
		}
		export := worker.NewExportWorker(exporter, res.Store, cfg.ExportBatchSize)

		// without a broker the reconcile ticker alone keeps the sheet in step
		if res.Events != nil {
			g.Go(func() error {
				return res.Events.ConsumeTransactionEvents(gctx, export.HandleEvent)
			})
		}
		g.Go(func() error {
			return worker.NewTicker("sheet-reconcile", cfg.ExportInterval, func(ctx context.Context) error {
				_, err := export.Reconcile(ctx)
				return err
			}).Run(gctx)
		})
		logger.Info("Spreadsheet export enabled",
			"spreadsheet_id", cfg.GoogleSpreadsheetID,
			"sheet", cfg.GoogleSheetName)
	} else {
		logger.Info("Spreadsheet export disabled")
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
