package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"fintrack/internal/core"
)

type goalRequest struct {
	Title       string `json:"title"`
	Target      string `json:"target"`
	Current     string `json:"current"`
	TargetDate  string `json:"target_date"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Priority    int    `json:"priority"`
}

type contributionRequest struct {
	Amount string `json:"amount"`
}

// apply copies the non-empty request fields onto g.
func (req goalRequest) apply(g *core.SavingsGoal, loc *time.Location) error {
	if t := sanitizeInput(req.Title); t != "" {
		g.Title = t
	}
	if req.Target != "" {
		m, err := parseAmount(req.Target)
		if err != nil {
			return fmt.Errorf("target %q: %w", req.Target, err)
		}
		g.Target = m
	}
	if c := strings.TrimSpace(req.Current); c != "" && c != "0" {
		m, err := parseAmount(c)
		if err != nil {
			return fmt.Errorf("current %q: %w", req.Current, err)
		}
		g.Current = m
	}
	if req.TargetDate != "" {
		d, err := time.ParseInLocation(dateLayout, req.TargetDate, loc)
		if err != nil {
			return fmt.Errorf("target_date must be YYYY-MM-DD: %w", core.ErrInvalidDate)
		}
		g.TargetDate = d
	}
	if c := sanitizeInput(req.Category); c != "" {
		g.Category = c
	}
	if d := sanitizeInput(req.Description); d != "" {
		g.Description = d
	}
	if req.Priority != 0 {
		g.Priority = req.Priority
	}
	return nil
}

// handleListGoals accepts status=active|completed; anything else lists all.
func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	var (
		goals []core.SavingsGoal
		err   error
	)
	switch r.URL.Query().Get("status") {
	case "active":
		goals, err = s.svc.Goals.Active(r.Context())
	case "completed":
		goals, err = s.svc.Goals.Completed(r.Context())
	default:
		goals, err = s.svc.Goals.List(r.Context())
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toGoals(goals))
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	var g core.SavingsGoal
	if err := req.apply(&g, s.now().Location()); err != nil {
		writeError(w, r, err)
		return
	}
	saved, err := s.svc.Goals.Create(r.Context(), g)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGoal(saved))
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req goalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	g, err := s.svc.Goals.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := req.apply(&g, s.now().Location()); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Goals.Update(r.Context(), g); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toGoal(g))
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Goals.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddToGoal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req contributionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, r, fmt.Errorf("amount %q: %w", req.Amount, err))
		return
	}
	g, err := s.svc.Goals.AddTo(r.Context(), id, amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toGoal(g))
}

func (s *Server) handleGoalProgress(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Goals.Progress(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, goalProgressDTO{
		TotalTarget: toMoney(p.TotalTarget),
		TotalSaved:  toMoney(p.TotalSaved),
		Remaining:   toMoney(p.Remaining),
		Percent:     p.Percent,
	})
}
