package main

import (
	"context"
	"os"
	"time"

	"fintrack/internal/cli"
	apphttp "fintrack/internal/http"
	applog "fintrack/internal/log"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(cli.SetupLogger(applog.ComponentApp, false).Logger)
	logger := cli.SetupLogger(applog.ComponentApp, cfg.LogJSON)

	ctx, stop := cli.SignalContext(logger.Logger)
	defer stop()

	res := cli.OpenBackend(ctx, logger.Logger, cfg, false)
	defer func() {
		if err := res.Close(); err != nil {
			logger.Error("Backend cleanup failed", "error", err)
		}
	}()

	svc := cli.BuildServices(ctx, logger.Logger, cfg, res)
	if err := svc.Chat.EnsureWelcome(ctx); err != nil {
		logger.Warn("Failed to seed welcome message", "error", err)
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Services{
		Chat:         svc.Chat,
		Transactions: svc.Transactions,
		Budgets:      svc.Budgets,
		Analytics:    svc.Analytics,
		Goals:        svc.Goals,
		Insights:     svc.Insights,
		Notifier:     res.Store,
		Ready:        res.Ready,
	}, apphttp.WithLogger(logger.WithComponent(applog.ComponentHTTP)))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(ctx)
	}()

	logger.Info("Starting fintrack server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"events", res.Events != nil)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("Server error", "error", err, "port", cfg.Port)
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}
	logger.Info("Server stopped gracefully")
}
