// Package http serves the JSON API over the chat, transaction, budget,
// analytics, goal and insight services.
package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/events"
	applog "fintrack/internal/log"
	"fintrack/internal/ports"
	"fintrack/internal/services"
)

const (
	dashboardCacheSize = 32
	dashboardCacheTTL  = 5 * time.Minute
	cacheSweepInterval = 10 * time.Minute
	readHeaderTimeout  = 5 * time.Second
	writeTimeout       = 30 * time.Second
)

// Services are the application services routed by the server. Notifier and
// Ready may be nil.
type Services struct {
	Chat         *services.ChatService
	Transactions *services.TransactionService
	Budgets      *services.BudgetService
	Analytics    *services.AnalyticsService
	Goals        *services.GoalService
	Insights     *services.InsightService
	Notifier     ports.Notifier
	Ready        func(ctx context.Context) error
}

type Server struct {
	http.Server
	svc         Services
	logger      *applog.Logger
	rateLimiter *rateLimiter
	metrics     *securityMetrics
	now         func() time.Time

	dashboards *cache.LRUCache[services.Dashboard]
	caches     *cache.Manager

	stop         context.CancelFunc
	shutdownOnce sync.Once
}

type Option func(*Server)

// WithRateLimit sets the mutating requests allowed per client IP per minute.
func WithRateLimit(perMinute int) Option {
	return func(s *Server) { s.rateLimiter = newRateLimiter(perMinute) }
}

func WithLogger(l *applog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// NewServer wires routes and middleware. Call Start to launch the
// background sweeps; Shutdown stops them.
func NewServer(addr string, svc Services, opts ...Option) *Server {
	s := &Server{
		svc:         svc,
		logger:      applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentHTTP),
		rateLimiter: newRateLimiter(defaultRateLimit),
		metrics:     &securityMetrics{},
		now:         time.Now,
		dashboards:  cache.NewLRUCache[services.Dashboard](dashboardCacheSize, dashboardCacheTTL),
		caches:      cache.NewManager(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.caches.Register(s.dashboards)
	s.caches.Register(s.rateLimiter)
	if svc.Transactions != nil {
		s.caches.Register(svc.Transactions.TotalsCache())
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /api/messages", s.handleMessages)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("GET /api/transactions/{uid}", s.handleGetTransaction)
	mux.HandleFunc("DELETE /api/transactions/recent", s.handleDeleteRecent)
	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/trends", s.handleTrends)

	mux.HandleFunc("GET /api/budgets", s.handleListBudgets)
	mux.HandleFunc("PUT /api/budgets", s.handleSetBudget)
	mux.HandleFunc("GET /api/budgets/{year}/{month}", s.handleBudgetStatus)
	mux.HandleFunc("DELETE /api/budgets/{year}/{month}", s.handleDeleteBudget)

	mux.HandleFunc("GET /api/analytics/daily", s.handleDaily)
	mux.HandleFunc("GET /api/analytics/monthly", s.handleMonthly)
	mux.HandleFunc("GET /api/analytics/categories", s.handleCategories)
	mux.HandleFunc("GET /api/analytics/dashboard", s.handleDashboard)

	mux.HandleFunc("GET /api/goals", s.handleListGoals)
	mux.HandleFunc("POST /api/goals", s.handleCreateGoal)
	mux.HandleFunc("GET /api/goals/progress", s.handleGoalProgress)
	mux.HandleFunc("PUT /api/goals/{id}", s.handleUpdateGoal)
	mux.HandleFunc("DELETE /api/goals/{id}", s.handleDeleteGoal)
	mux.HandleFunc("POST /api/goals/{id}/contributions", s.handleAddToGoal)

	mux.HandleFunc("GET /api/insights", s.handleListInsights)
	mux.HandleFunc("POST /api/insights", s.handleGenerateInsight)
	mux.HandleFunc("POST /api/insights/monthly", s.handleMonthlySummary)
	mux.HandleFunc("GET /api/insights/analysis/{kind}", s.handleAnalysis)
	mux.HandleFunc("POST /api/insights/{id}/read", s.handleMarkInsightRead)
	mux.HandleFunc("POST /api/insights/{id}/action", s.handleMarkInsightAction)

	if svc.Notifier != nil {
		mux.HandleFunc("GET /api/events", s.handleEvents)
	}

	var handler http.Handler = mux
	handler = s.withSecurity(handler)
	handler = applog.AccessLog(extractClientIP)(handler)
	handler = applog.RequestIDMiddleware(s.logger)(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
	}
	return s
}

// Start launches the cache and rate-limiter sweeps and, when a notifier
// is configured, dashboard invalidation on transaction changes.
func (s *Server) Start(ctx context.Context) {
	ctx, s.stop = context.WithCancel(ctx)
	s.caches.Start(ctx, cacheSweepInterval)
	if s.svc.Notifier != nil {
		changes, cancel := s.svc.Notifier.Subscribe()
		go func() {
			defer cancel()
			for {
				select {
				case c := <-changes:
					if c.Entity == events.EntityTransaction {
						s.dashboards.Purge()
					}
				case <-ctx.Done():
					return
				}
			}
		}()
	}
}

// ListenAndServe starts the background routines and serves until Shutdown.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.Start(ctx)
	s.logger.InfoContext(ctx, "HTTP server listening", "addr", s.Addr)
	if err := s.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the background routines and drains in-flight requests. It
// is safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		if s.stop != nil {
			s.stop()
			s.caches.Wait()
		}
		err = s.Server.Shutdown(ctx)
		s.logger.InfoContext(ctx, "HTTP server stopped", "security", s.metrics.snapshot())
	})
	return err
}

func (s *Server) SecurityStats() SecurityStats { return s.metrics.snapshot() }

// withSecurity rejects probing requests, rate limits mutating methods per
// client IP and sets the security headers.
func (s *Server) withSecurity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setSecurityHeaders(w.Header())
		clientIP := extractClientIP(r)

		if reason := suspiciousReason(r); reason != "" {
			atomic.AddInt64(&s.metrics.suspiciousRequests, 1)
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request rejected",
				applog.FieldClientIP, clientIP, applog.FieldPath, r.URL.Path, "reason", reason)
			writeJSON(w, http.StatusNotFound, errorDTO{Error: http.StatusText(http.StatusNotFound)})
			return
		}

		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			if ok, wait := s.rateLimiter.allow(clientIP); !ok {
				atomic.AddInt64(&s.metrics.rateLimitHits, 1)
				applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
					applog.FieldClientIP, clientIP, applog.FieldMethod, r.Method, applog.FieldPath, r.URL.Path)
				w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(wait)))
				writeJSON(w, http.StatusTooManyRequests, errorDTO{Error: "rate limit exceeded, try again later"})
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.svc.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.svc.Ready(ctx); err != nil {
			slog.WarnContext(r.Context(), "Readiness check failed", "error", err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
