// Package cli provides common CLI initialization utilities shared by
// cmd/fintrack, cmd/fintrack-worker and cmd/fintrack-chat.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"fintrack/internal/backend"
	"fintrack/internal/config"
	"fintrack/internal/currency"
	"fintrack/internal/llm"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
)

// SetupLogger initializes structured logging for component and installs it
// as the default logger.
func SetupLogger(component string, json bool) *applog.Logger {
	cfg := applog.DefaultConfig()
	cfg.Component = component
	cfg.JSON = json
	logger := applog.New(cfg)
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *slog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// OpenBackend opens the configured store and, when set, the AMQP client.
// Exits the process on failure.
func OpenBackend(ctx context.Context, logger *slog.Logger, cfg *config.Config, requireEvents bool) *backend.Backend {
	opts, err := backend.OptionsFrom(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	opts.RequireEvents = requireEvents
	b, err := backend.NewOpener(logger).Open(ctx, opts)
	if err != nil {
		logger.Error("Failed to open backend", "error", err, "backend", string(opts.Kind))
		os.Exit(1)
	}
	return b
}

// NewCompleter returns the Gemini completer wrapped with timeout and retry,
// or llm.Disabled when no API key is configured.
func NewCompleter(ctx context.Context, logger *slog.Logger, cfg *config.Config) llm.Completer {
	if cfg.GeminiAPIKey == "" {
		logger.Info("Gemini API key not set, AI features disabled")
		return llm.Disabled{}
	}
	g, err := llm.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		logger.Warn("Failed to initialize Gemini client, AI features disabled", "error", err)
		return llm.Disabled{}
	}
	logger.Info("Gemini client initialized", "model", cfg.GeminiModel)
	return llm.NewClient(g, llm.WithTimeout(cfg.LLMTimeout))
}

// NewConverter builds the currency converter. Without an exchange-rate key
// only the offline rate table is used.
func NewConverter(logger *slog.Logger, cfg *config.Config) *currency.Converter {
	client, err := currency.NewClient(currency.ClientConfig{
		APIKey:  cfg.ExchangeRateAPIKey,
		BaseURL: cfg.ExchangeRateBaseURL,
	})
	if err != nil {
		logger.Info("Exchange rate API unavailable, using offline rates", "reason", err)
		return currency.NewConverter(nil)
	}
	return currency.NewConverter(client)
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		logger.Info("Shutdown signal received")
	}()
	return ctx, stop
}

// Services bundles the application services built over one backend.
type Services struct {
	Transactions *services.TransactionService
	Budgets      *services.BudgetService
	Chat         *services.ChatService
	Analytics    *services.AnalyticsService
	Goals        *services.GoalService
	Insights     *services.InsightService
	Rates        *services.RateUpdater
}

// BuildServices wires every service to the backend store and publisher.
func BuildServices(ctx context.Context, logger *slog.Logger, cfg *config.Config, res *backend.Backend) Services {
	completer := NewCompleter(ctx, logger, cfg)
	converter := NewConverter(logger, cfg)

	txs := services.NewTransactionService(res.Store, res.Publisher)
	budgets := services.NewBudgetService(res.Store, res.Store)
	return Services{
		Transactions: txs,
		Budgets:      budgets,
		Chat: services.NewChatService(res.Store, txs, budgets, completer,
			services.WithRetention(services.Retention{
				MaxMessages: cfg.ChatRetentionMaxMessages,
				MaxAge:      cfg.ChatRetentionMaxAge,
			}),
			services.WithConverter(converter)),
		Analytics: services.NewAnalyticsService(res.Store),
		Goals:     services.NewGoalService(res.Store),
		Insights:  services.NewInsightService(res.Store, res.Store, res.Store, completer),
		Rates:     services.NewRateUpdater(txs, converter),
	}
}
