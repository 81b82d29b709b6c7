package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/llm"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
)

type (
	moneyDTO struct {
		Cents  int64  `json:"cents"`
		Amount string `json:"amount"`
	}

	originalDTO struct {
		Currency  string    `json:"currency"`
		Amount    moneyDTO  `json:"amount"`
		Rate      float64   `json:"rate"`
		UpdatedAt time.Time `json:"updated_at"`
	}

	transactionDTO struct {
		ID          int64        `json:"id"`
		UniqueID    string       `json:"unique_id"`
		Amount      moneyDTO     `json:"amount"`
		Category    string       `json:"category"`
		Description string       `json:"description"`
		Date        time.Time    `json:"date"`
		IsIncome    bool         `json:"is_income"`
		Original    *originalDTO `json:"original,omitempty"`
	}

	messageDTO struct {
		ID        int64           `json:"id"`
		Text      string          `json:"text"`
		IsUser    bool            `json:"is_user"`
		Timestamp time.Time       `json:"timestamp"`
		Type      string          `json:"type"`
		Metadata  json.RawMessage `json:"metadata,omitempty"`
	}

	categoryDTO struct {
		Name    string   `json:"name"`
		Amount  moneyDTO `json:"amount"`
		Percent float64  `json:"percent"`
	}

	totalsDTO struct {
		Income   moneyDTO `json:"income"`
		Expenses moneyDTO `json:"expenses"`
		Balance  moneyDTO `json:"balance"`
		Count    int      `json:"count"`
	}

	summaryDTO struct {
		Totals     totalsDTO     `json:"totals"`
		ByCategory []categoryDTO `json:"by_category"`
	}

	budgetDTO struct {
		ID          int64     `json:"id"`
		Amount      moneyDTO  `json:"amount"`
		Month       int       `json:"month"`
		Year        int       `json:"year"`
		Description string    `json:"description,omitempty"`
		CreatedAt   time.Time `json:"created_at"`
	}

	budgetStatusDTO struct {
		Budget     budgetDTO `json:"budget"`
		Spent      moneyDTO  `json:"spent"`
		Remaining  moneyDTO  `json:"remaining"`
		Percent    float64   `json:"percent"`
		OverBudget bool      `json:"over_budget"`
	}

	dayDTO struct {
		Date     string   `json:"date"`
		Income   moneyDTO `json:"income"`
		Expenses moneyDTO `json:"expenses"`
	}

	monthDTO struct {
		Year     int      `json:"year"`
		Month    int      `json:"month"`
		Income   moneyDTO `json:"income"`
		Expenses moneyDTO `json:"expenses"`
	}

	dashboardDTO struct {
		Daily      []dayDTO      `json:"daily"`
		Monthly    []monthDTO    `json:"monthly"`
		Categories []categoryDTO `json:"categories"`
	}

	goalDTO struct {
		ID          int64      `json:"id"`
		Title       string     `json:"title"`
		Target      moneyDTO   `json:"target"`
		Current     moneyDTO   `json:"current"`
		Remaining   moneyDTO   `json:"remaining"`
		Percent     float64    `json:"percent"`
		TargetDate  *time.Time `json:"target_date,omitempty"`
		CreatedAt   time.Time  `json:"created_at"`
		Category    string     `json:"category,omitempty"`
		Completed   bool       `json:"completed"`
		Description string     `json:"description,omitempty"`
		Priority    int        `json:"priority"`
	}

	goalProgressDTO struct {
		TotalTarget moneyDTO `json:"total_target"`
		TotalSaved  moneyDTO `json:"total_saved"`
		Remaining   moneyDTO `json:"remaining"`
		Percent     float64  `json:"percent"`
	}

	insightDTO struct {
		ID           int64           `json:"id"`
		Title        string          `json:"title"`
		Description  string          `json:"description"`
		Type         string          `json:"type"`
		Priority     string          `json:"priority"`
		Confidence   float64         `json:"confidence"`
		RelevantData json.RawMessage `json:"relevant_data,omitempty"`
		GeneratedAt  time.Time       `json:"generated_at"`
		Read         bool            `json:"read"`
		ActionTaken  bool            `json:"action_taken"`
	}

	errorDTO struct {
		Error     string `json:"error"`
		RequestID string `json:"request_id,omitempty"`
	}
)

func toMoney(m core.Money) moneyDTO {
	return moneyDTO{Cents: m.Cents, Amount: m.String()}
}

func toTransaction(tx core.Transaction) transactionDTO {
	out := transactionDTO{
		ID:          tx.ID,
		UniqueID:    tx.UniqueID,
		Amount:      toMoney(tx.Amount),
		Category:    tx.Category,
		Description: tx.Description,
		Date:        tx.Date,
		IsIncome:    tx.IsIncome,
	}
	if o := tx.Original; o != nil {
		out.Original = &originalDTO{Currency: o.Currency, Amount: toMoney(o.Amount), Rate: o.Rate, UpdatedAt: o.UpdatedAt}
	}
	return out
}

func toTransactions(txs []core.Transaction) []transactionDTO {
	out := make([]transactionDTO, len(txs))
	for i, tx := range txs {
		out[i] = toTransaction(tx)
	}
	return out
}

func toMessage(m core.ChatMessage) messageDTO {
	out := messageDTO{ID: m.ID, Text: m.Text, IsUser: m.IsUser, Timestamp: m.Timestamp, Type: string(m.Type)}
	if m.Metadata != "" && json.Valid([]byte(m.Metadata)) {
		out.Metadata = json.RawMessage(m.Metadata)
	}
	return out
}

func toCategories(cats []core.CategoryAmount) []categoryDTO {
	out := make([]categoryDTO, len(cats))
	for i, c := range cats {
		out[i] = categoryDTO{Name: c.Name, Amount: toMoney(c.Amount), Percent: c.Percent}
	}
	return out
}

func toTotals(t core.Totals) totalsDTO {
	return totalsDTO{Income: toMoney(t.Income), Expenses: toMoney(t.Expenses), Balance: toMoney(t.Balance()), Count: t.Count}
}

func toBudget(b core.Budget) budgetDTO {
	return budgetDTO{ID: b.ID, Amount: toMoney(b.Amount), Month: b.Month, Year: b.Year, Description: b.Description, CreatedAt: b.CreatedAt}
}

func toBudgetStatus(s services.BudgetStatus) budgetStatusDTO {
	return budgetStatusDTO{
		Budget:     toBudget(s.Budget),
		Spent:      toMoney(s.Spent),
		Remaining:  toMoney(s.Remaining),
		Percent:    s.Percent,
		OverBudget: s.OverBudget(),
	}
}

func toDays(days []core.DayTotal) []dayDTO {
	out := make([]dayDTO, len(days))
	for i, d := range days {
		out[i] = dayDTO{Date: d.Date.Format(dateLayout), Income: toMoney(d.Income), Expenses: toMoney(d.Expenses)}
	}
	return out
}

func toMonths(months []core.MonthTotal) []monthDTO {
	out := make([]monthDTO, len(months))
	for i, m := range months {
		out[i] = monthDTO{Year: m.Year, Month: m.Month, Income: toMoney(m.Income), Expenses: toMoney(m.Expenses)}
	}
	return out
}

func toDashboard(d services.Dashboard) dashboardDTO {
	return dashboardDTO{Daily: toDays(d.Daily), Monthly: toMonths(d.Monthly), Categories: toCategories(d.Categories)}
}

func toGoal(g core.SavingsGoal) goalDTO {
	out := goalDTO{
		ID:          g.ID,
		Title:       g.Title,
		Target:      toMoney(g.Target),
		Current:     toMoney(g.Current),
		Remaining:   toMoney(g.Remaining()),
		Percent:     g.ProgressPercent(),
		CreatedAt:   g.CreatedAt,
		Category:    g.Category,
		Completed:   g.Completed,
		Description: g.Description,
		Priority:    g.Priority,
	}
	if !g.TargetDate.IsZero() {
		td := g.TargetDate
		out.TargetDate = &td
	}
	return out
}

func toGoals(goals []core.SavingsGoal) []goalDTO {
	out := make([]goalDTO, len(goals))
	for i, g := range goals {
		out[i] = toGoal(g)
	}
	return out
}

func toInsight(in core.FinancialInsight) insightDTO {
	out := insightDTO{
		ID:          in.ID,
		Title:       in.Title,
		Description: in.Description,
		Type:        string(in.Type),
		Priority:    string(in.Priority),
		Confidence:  in.Confidence,
		GeneratedAt: in.GeneratedAt,
		Read:        in.Read,
		ActionTaken: in.ActionTaken,
	}
	if in.RelevantData != "" && json.Valid([]byte(in.RelevantData)) {
		out.RelevantData = json.RawMessage(in.RelevantData)
	}
	return out
}

func toInsights(ins []core.FinancialInsight) []insightDTO {
	out := make([]insightDTO, len(ins))
	for i, in := range ins {
		out[i] = toInsight(in)
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

var validationErrors = []error{
	core.ErrInvalidAmount,
	core.ErrInvalidMonth,
	core.ErrInvalidYear,
	core.ErrInvalidUniqueID,
	core.ErrInvalidDate,
	core.ErrEmptyDescription,
	core.ErrEmptyCategory,
	core.ErrEmptyTitle,
	core.ErrInvalidPriority,
	core.ErrInvalidMessageType,
	services.ErrEmptyMessage,
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBodyTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	}
	var llmErr *llm.Error
	if errors.As(err, &llmErr) {
		return http.StatusBadGateway
	}
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return http.StatusUnprocessableEntity
		}
	}
	return http.StatusInternalServerError
}

// writeError logs server-side failures and hides their detail from clients.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			"error", err, "method", r.Method, "path", r.URL.Path)
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorDTO{Error: msg, RequestID: applog.RequestID(r.Context())})
}
