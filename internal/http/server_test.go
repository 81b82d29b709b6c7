package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/llm"
	"fintrack/internal/services"
	"fintrack/internal/storage/memory"
)

type apiFixture struct {
	store *memory.Store
	txs   *services.TransactionService
	srv   *Server
}

func newAPI(t *testing.T, opts ...Option) *apiFixture {
	t.Helper()
	store := memory.New()
	completer := llm.Disabled{}
	txs := services.NewTransactionService(store, nil)
	budgets := services.NewBudgetService(store, store)
	svc := Services{
		Chat:         services.NewChatService(store, txs, budgets, completer),
		Transactions: txs,
		Budgets:      budgets,
		Analytics:    services.NewAnalyticsService(store),
		Goals:        services.NewGoalService(store),
		Insights:     services.NewInsightService(store, store, store, completer),
	}
	srv := NewServer(":0", svc, opts...)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &apiFixture{store: store, txs: txs, srv: srv}
}

func (f *apiFixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rr := httptest.NewRecorder()
	f.srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func (f *apiFixture) seed(t *testing.T, rupees int64, income bool, category string, at time.Time) core.Transaction {
	t.Helper()
	tx, err := f.txs.Create(context.Background(), core.Transaction{
		Amount:      core.MustMoney(rupees),
		Category:    category,
		Description: "seeded " + category,
		Date:        at,
		IsIncome:    income,
	})
	require.NoError(t, err)
	return tx
}

func TestHealthAndReady(t *testing.T) {
	f := newAPI(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := f.do(t, http.MethodGet, path, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}
	if rr := f.do(t, http.MethodGet, "/healthz", ""); rr.Header().Get("X-Request-ID") == "" {
		t.Fatal("missing request id header")
	}

	store := memory.New()
	srv := NewServer(":0", Services{Ready: func(context.Context) error { return errors.New("db down") }, Notifier: store})
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}

func TestChatRecordsTransaction(t *testing.T) {
	f := newAPI(t)

	rr := f.do(t, http.MethodPost, "/api/chat", `{"text":"I earned 5000 salary"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	resp := decode[chatResponse](t, rr)
	assert.False(t, resp.Reply.IsUser)
	assert.Equal(t, string(core.MessageAI), resp.Reply.Type)

	var meta struct {
		UniqueID string `json:"unique_id"`
		IsIncome bool   `json:"is_income"`
	}
	require.NoError(t, json.Unmarshal(resp.Reply.Metadata, &meta))
	assert.True(t, meta.IsIncome)
	assert.True(t, core.ValidUniqueID(meta.UniqueID))

	rr = f.do(t, http.MethodGet, "/api/transactions", "")
	require.Equal(t, http.StatusOK, rr.Code)
	txs := decode[[]transactionDTO](t, rr)
	require.Len(t, txs, 1)
	assert.Equal(t, int64(500000), txs[0].Amount.Cents)
	assert.Equal(t, meta.UniqueID, txs[0].UniqueID)

	rr = f.do(t, http.MethodGet, "/api/transactions/"+strings.ToLower(meta.UniqueID), "")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = f.do(t, http.MethodGet, "/api/transactions?q="+meta.UniqueID[:2], "")
	require.Len(t, decode[[]transactionDTO](t, rr), 1)

	rr = f.do(t, http.MethodGet, "/api/summary", "")
	sum := decode[summaryDTO](t, rr)
	assert.Equal(t, int64(500000), sum.Totals.Income.Cents)
	assert.Equal(t, int64(500000), sum.Totals.Balance.Cents)

	rr = f.do(t, http.MethodGet, "/api/messages", "")
	msgs := decode[[]messageDTO](t, rr)
	require.Len(t, msgs, 2)
	assert.True(t, msgs[0].IsUser)
}

func TestChatValidation(t *testing.T) {
	f := newAPI(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"empty text", `{"text":"   "}`, http.StatusUnprocessableEntity},
		{"unknown field", `{"message":"hi"}`, http.StatusBadRequest},
		{"not json", `hello`, http.StatusBadRequest},
		{"trailing data", `{"text":"hi"}{"text":"again"}`, http.StatusBadRequest},
		{"too long", `{"text":"` + strings.Repeat("a", maxChatTextLength+1) + `"}`, http.StatusBadRequest},
		{"oversized body", `{"text":"` + strings.Repeat("a", maxBodyBytes) + `"}`, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := f.do(t, http.MethodPost, "/api/chat", tt.body)
			if rr.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, rr.Code, rr.Body.String())
			}
			body := decode[errorDTO](t, rr)
			assert.NotEmpty(t, body.Error)
			assert.NotEmpty(t, body.RequestID)
		})
	}
}

func TestMessagesSeedsWelcome(t *testing.T) {
	f := newAPI(t)
	rr := f.do(t, http.MethodGet, "/api/messages?limit=5", "")
	require.Equal(t, http.StatusOK, rr.Code)
	msgs := decode[[]messageDTO](t, rr)
	require.Len(t, msgs, 1)
	assert.False(t, msgs[0].IsUser)

	rr = f.do(t, http.MethodGet, "/api/messages?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestTransactionLookupErrors(t *testing.T) {
	f := newAPI(t)
	assert.Equal(t, http.StatusUnprocessableEntity, f.do(t, http.MethodGet, "/api/transactions/ab", "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/transactions/ZZZZZ", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/transactions?from=14-10-2026", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/transactions?from=2026-10-14&to=2026-10-01", "").Code)
}

func TestTransactionFiltersAndDeleteRecent(t *testing.T) {
	f := newAPI(t)
	now := time.Now()
	f.seed(t, 100, false, "Groceries", now.AddDate(0, 0, -10))
	f.seed(t, 200, false, "Transportation", now.AddDate(0, 0, -1))
	f.seed(t, 300, true, "Salary", now)

	rr := f.do(t, http.MethodGet, "/api/transactions?category=Groceries", "")
	require.Len(t, decode[[]transactionDTO](t, rr), 1)

	from := now.AddDate(0, 0, -2).Format(dateLayout)
	rr = f.do(t, http.MethodGet, "/api/transactions?from="+from, "")
	require.Len(t, decode[[]transactionDTO](t, rr), 2)

	rr = f.do(t, http.MethodDelete, "/api/transactions/recent", "")
	require.Equal(t, http.StatusOK, rr.Code)
	resp := decode[deleteRecentResponse](t, rr)
	assert.Len(t, resp.Removed, 3)
	assert.Equal(t, 0, resp.Remaining.Count)
}

func TestBudgetEndpoints(t *testing.T) {
	f := newAPI(t)
	f.seed(t, 1300, false, "Shopping", time.Date(2026, 10, 5, 10, 0, 0, 0, time.Local))

	rr := f.do(t, http.MethodPut, "/api/budgets", `{"amount":"1000","month":10,"year":2026}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, int64(100000), decode[budgetDTO](t, rr).Amount.Cents)

	rr = f.do(t, http.MethodPut, "/api/budgets", `{"amount":"2000","month":10,"year":2026}`)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = f.do(t, http.MethodGet, "/api/budgets", "")
	budgets := decode[[]budgetDTO](t, rr)
	require.Len(t, budgets, 1)
	assert.Equal(t, int64(200000), budgets[0].Amount.Cents)

	rr = f.do(t, http.MethodGet, "/api/budgets/2026/10", "")
	require.Equal(t, http.StatusOK, rr.Code)
	status := decode[budgetStatusDTO](t, rr)
	assert.Equal(t, int64(130000), status.Spent.Cents)
	assert.False(t, status.OverBudget)

	assert.Equal(t, http.StatusUnprocessableEntity, f.do(t, http.MethodGet, "/api/budgets/2026/13", "").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, f.do(t, http.MethodPut, "/api/budgets", `{"amount":"-5"}`).Code)
	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, "/api/budgets/2026/10", "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/budgets/2026/10", "").Code)
}

func TestAnalyticsAndDashboardCache(t *testing.T) {
	f := newAPI(t)
	f.seed(t, 500, false, "Food & Dining", time.Now())
	today := time.Now().Format(dateLayout)

	rr := f.do(t, http.MethodGet, "/api/analytics/daily?date="+today, "")
	require.Equal(t, http.StatusOK, rr.Code)
	days := decode[[]dayDTO](t, rr)
	require.Len(t, days, services.DailyWindow)
	assert.Equal(t, today, days[len(days)-1].Date)
	assert.Equal(t, int64(50000), days[len(days)-1].Expenses.Cents)

	rr = f.do(t, http.MethodGet, "/api/analytics/monthly", "")
	require.Len(t, decode[[]monthDTO](t, rr), services.MonthlyWindow)

	rr = f.do(t, http.MethodGet, "/api/analytics/categories", "")
	cats := decode[[]categoryDTO](t, rr)
	require.Len(t, cats, 1)
	assert.InDelta(t, 100, cats[0].Percent, 0.001)

	path := "/api/analytics/dashboard?date=" + today
	rr = f.do(t, http.MethodGet, path, "")
	assert.Equal(t, "MISS", rr.Header().Get("X-Cache"))
	rr = f.do(t, http.MethodGet, path, "")
	assert.Equal(t, "HIT", rr.Header().Get("X-Cache"))

	f.do(t, http.MethodPost, "/api/chat", `{"text":"Paid 50 for uber"}`)
	rr = f.do(t, http.MethodGet, path, "")
	assert.Equal(t, "MISS", rr.Header().Get("X-Cache"))
	dash := decode[dashboardDTO](t, rr)
	assert.Equal(t, int64(55000), dash.Daily[len(dash.Daily)-1].Expenses.Cents)
}

func TestGoalEndpoints(t *testing.T) {
	f := newAPI(t)

	rr := f.do(t, http.MethodPost, "/api/goals", `{"title":"Laptop","target":"50000","target_date":"2027-01-31"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	g := decode[goalDTO](t, rr)
	assert.Equal(t, 2, g.Priority)
	require.NotNil(t, g.TargetDate)

	rr = f.do(t, http.MethodPut, "/api/goals/"+itoa(g.ID), `{"priority":1}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, decode[goalDTO](t, rr).Priority)

	rr = f.do(t, http.MethodGet, "/api/goals/progress", "")
	assert.Equal(t, int64(5000000), decode[goalProgressDTO](t, rr).Remaining.Cents)

	rr = f.do(t, http.MethodPost, "/api/goals/"+itoa(g.ID)+"/contributions", `{"amount":"50000"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, decode[goalDTO](t, rr).Completed)

	rr = f.do(t, http.MethodGet, "/api/goals?status=completed", "")
	assert.Len(t, decode[[]goalDTO](t, rr), 1)
	rr = f.do(t, http.MethodGet, "/api/goals?status=active", "")
	assert.Len(t, decode[[]goalDTO](t, rr), 0)

	assert.Equal(t, http.StatusUnprocessableEntity, f.do(t, http.MethodPost, "/api/goals", `{"target":"10"}`).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, f.do(t, http.MethodPost, "/api/goals", `{"title":"x","target":"10","priority":7}`).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPut, "/api/goals/999", `{"priority":1}`).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodDelete, "/api/goals/abc", "").Code)
	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, "/api/goals/"+itoa(g.ID), "").Code)
}

func TestInsightEndpoints(t *testing.T) {
	f := newAPI(t)

	// no completion backend configured
	assert.Equal(t, http.StatusBadGateway, f.do(t, http.MethodPost, "/api/insights", "").Code)

	rr := f.do(t, http.MethodGet, "/api/insights/analysis/spending", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, decode[analysisResponse](t, rr).Text)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/insights/analysis/horoscope", "").Code)

	in, err := f.store.CreateInsight(context.Background(), core.FinancialInsight{
		Title:       "Dining up",
		Description: "You spent more on dining.",
		Type:        core.InsightSpendingPattern,
		Priority:    core.PriorityHigh,
		Confidence:  0.8,
	})
	require.NoError(t, err)

	rr = f.do(t, http.MethodGet, "/api/insights?unread=true", "")
	require.Len(t, decode[[]insightDTO](t, rr), 1)

	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodPost, "/api/insights/"+itoa(in.ID)+"/read", "").Code)
	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodPost, "/api/insights/"+itoa(in.ID)+"/action", "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPost, "/api/insights/999/read", "").Code)

	rr = f.do(t, http.MethodGet, "/api/insights?unread=true", "")
	assert.Len(t, decode[[]insightDTO](t, rr), 0)
	rr = f.do(t, http.MethodGet, "/api/insights", "")
	all := decode[[]insightDTO](t, rr)
	require.Len(t, all, 1)
	assert.True(t, all[0].ActionTaken)
}

func TestRateLimitOnMutatingRequests(t *testing.T) {
	f := newAPI(t, WithRateLimit(2))

	for i := 0; i < 2; i++ {
		if rr := f.do(t, http.MethodPost, "/api/chat", `{"text":"hello"}`); rr.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rr.Code)
		}
	}
	rr := f.do(t, http.MethodPost, "/api/chat", `{"text":"hello"}`)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatal("missing Retry-After")
	}
	// reads are not limited
	if rr := f.do(t, http.MethodGet, "/api/summary", ""); rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for GET, got %d", rr.Code)
	}
	if got := f.srv.SecurityStats().RateLimitHits; got != 1 {
		t.Fatalf("rate limit hits = %d, want 1", got)
	}
}

func TestRateLimiterWindow(t *testing.T) {
	rl := newRateLimiter(1)
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	ok, _ := rl.allow("1.2.3.4")
	require.True(t, ok)
	ok, wait := rl.allow("1.2.3.4")
	require.False(t, ok, "second request in the window")
	assert.Equal(t, time.Minute, wait)
	assert.Equal(t, 60, retryAfterSeconds(wait))
	assert.Equal(t, 1, retryAfterSeconds(200*time.Millisecond))

	ok, _ = rl.allow("5.6.7.8")
	assert.True(t, ok, "clients are limited independently")

	now = now.Add(time.Minute)
	ok, _ = rl.allow("1.2.3.4")
	assert.True(t, ok, "window should have reset")

	now = now.Add(11 * time.Minute)
	assert.Equal(t, 2, rl.CleanExpired())
}

func TestSuspiciousRequestsRejected(t *testing.T) {
	f := newAPI(t)
	for _, path := range []string{"/.env", "/api/transactions?q=../../etc/passwd"} {
		if rr := f.do(t, http.MethodGet, path, ""); rr.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", path, rr.Code)
		}
	}
	req := httptest.NewRequest(http.MethodGet, "/api/summary", nil)
	req.Header.Set("User-Agent", "sqlmap/1.7")
	rr := httptest.NewRecorder()
	f.srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for scanner agent, got %d", rr.Code)
	}
	if got := f.srv.SecurityStats().SuspiciousRequests; got != 3 {
		t.Fatalf("suspicious requests = %d, want 3", got)
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("security headers missing")
	}
}

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		xri        string
		want       string
	}{
		{"direct", "203.0.113.7:5000", "", "", "203.0.113.7"},
		{"untrusted proxy ignored", "203.0.113.7:5000", "198.51.100.1", "", "203.0.113.7"},
		{"trusted proxy xff", "10.0.0.2:5000", "198.51.100.1, 10.0.0.2", "", "198.51.100.1"},
		{"trusted proxy real ip", "127.0.0.1:5000", "", "198.51.100.9", "198.51.100.9"},
		{"trusted proxy bad header", "192.168.1.1:5000", "garbage", "", "192.168.1.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			if got := extractClientIP(req); got != tt.want {
				t.Errorf("extractClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEventsStream(t *testing.T) {
	f := newAPI(t)
	srv := NewServer(":0", Services{Notifier: f.store, Transactions: f.txs})
	ts := httptest.NewServer(srv.Handler)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/events", nil)
	require.NoError(t, err)
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	f.seed(t, 10, false, "Other", time.Now())

	buf := make([]byte, 512)
	var got bytes.Buffer
	for !strings.Contains(got.String(), "\n\n") {
		n, err := resp.Body.Read(buf)
		require.NoError(t, err)
		got.Write(buf[:n])
	}
	assert.Contains(t, got.String(), "event: transaction")
	assert.Contains(t, got.String(), `"op":"created"`)
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

func TestSuspiciousReason(t *testing.T) {
	long := "/api/summary?q=" + strings.Repeat("a", maxURLLength)
	cases := map[string]struct {
		method, target, agent string
	}{
		"method":     {"TRACE", "/api/summary", ""},
		"url_length": {http.MethodGet, long, ""},
		"path":       {http.MethodGet, "/wp-admin/setup.php", ""},
		"user_agent": {http.MethodGet, "/api/summary", "Nikto/2.5"},
		"":           {http.MethodPost, "/api/chat", "curl/8.5"},
	}
	for want, c := range cases {
		req := httptest.NewRequest(c.method, c.target, nil)
		req.Header.Set("User-Agent", c.agent)
		if got := suspiciousReason(req); got != want {
			t.Errorf("suspiciousReason(%s %s) = %q, want %q", c.method, c.target, got, want)
		}
	}
}
