package http

import (
	"fmt"
	"net/http"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

type deleteRecentResponse struct {
	Removed   []transactionDTO `json:"removed"`
	Remaining totalsDTO        `json:"remaining"`
}

// handleListTransactions filters by exactly one of: unique-id prefix (q),
// category, or date range; no filter lists everything, newest first.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	rng, err := parseRange(r, s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}

	var txs []core.Transaction
	switch prefix, category := strings.TrimSpace(q.Get("q")), sanitizeInput(q.Get("category")); {
	case prefix != "":
		txs, err = s.svc.Transactions.SearchByPrefix(ctx, strings.ToUpper(prefix))
	case category != "":
		txs, err = s.svc.Transactions.ByCategory(ctx, category)
	case rng != nil:
		txs, err = s.svc.Transactions.InRange(ctx, *rng)
	default:
		txs, err = s.svc.Transactions.List(ctx)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactions(txs))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	uid := strings.ToUpper(r.PathValue("uid"))
	if !core.ValidUniqueID(uid) {
		writeError(w, r, core.ErrInvalidUniqueID)
		return
	}
	tx, err := s.svc.Transactions.GetByUniqueID(r.Context(), uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransaction(tx))
}

func (s *Server) handleDeleteRecent(w http.ResponseWriter, r *http.Request) {
	removed, remaining, err := s.svc.Transactions.DeleteRecent(r.Context(), services.RecentDeleteCount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.dashboards.Purge()
	writeJSON(w, http.StatusOK, deleteRecentResponse{Removed: toTransactions(removed), Remaining: toTotals(remaining)})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.svc.Transactions.Summary(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summaryDTO{Totals: toTotals(sum.Totals), ByCategory: toCategories(sum.ByCategory)})
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	cats, err := s.svc.Transactions.SpendingTrends(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategories(cats))
}

type budgetRequest struct {
	Amount      string `json:"amount"`
	Month       int    `json:"month"`
	Year        int    `json:"year"`
	Description string `json:"description"`
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.svc.Budgets.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]budgetDTO, len(budgets))
	for i, b := range budgets {
		out[i] = toBudget(b)
	}
	writeJSON(w, http.StatusOK, out)
}

// handleSetBudget replaces the budget of the given month; month and year
// default to the current ones.
func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, r, fmt.Errorf("amount %q: %w", req.Amount, err))
		return
	}
	now := s.now()
	b := core.Budget{
		Amount:      amount,
		Month:       req.Month,
		Year:        req.Year,
		Description: sanitizeInput(req.Description),
	}
	if b.Month == 0 {
		b.Month = int(now.Month())
	}
	if b.Year == 0 {
		b.Year = now.Year()
	}
	saved, err := s.svc.Budgets.Set(r.Context(), b)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudget(saved))
}

func (s *Server) handleBudgetStatus(w http.ResponseWriter, r *http.Request) {
	month, year, err := parseMonthPath(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	status, err := s.svc.Budgets.Status(r.Context(), month, year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetStatus(status))
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	month, year, err := parseMonthPath(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Budgets.Delete(r.Context(), month, year); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
