package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
)

type analysisResponse struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

func (s *Server) handleListInsights(w http.ResponseWriter, r *http.Request) {
	unread, _ := strconv.ParseBool(r.URL.Query().Get("unread"))
	list := s.svc.Insights.List
	if unread {
		list = s.svc.Insights.Unread
	}
	ins, err := list(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toInsights(ins))
}

func (s *Server) handleGenerateInsight(w http.ResponseWriter, r *http.Request) {
	in, err := s.svc.Insights.Generate(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toInsight(in))
}

func (s *Server) handleMonthlySummary(w http.ResponseWriter, r *http.Request) {
	in, err := s.svc.Insights.MonthlySummary(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toInsight(in))
}

// handleAnalysis answers spending, savings or earnings questions in free text.
func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	kind := r.PathValue("kind")
	var query func(context.Context) string
	switch kind {
	case "spending":
		query = s.svc.Insights.SpendingAnalysis
	case "savings":
		query = s.svc.Insights.SavingsAdvice
	case "earnings":
		query = s.svc.Insights.EarningsTrends
	default:
		writeError(w, r, fmt.Errorf("%w: unknown analysis %q", errBadRequest, kind))
		return
	}
	writeJSON(w, http.StatusOK, analysisResponse{Kind: kind, Text: query(r.Context())})
}

func (s *Server) handleMarkInsightRead(w http.ResponseWriter, r *http.Request) {
	s.markInsight(w, r, s.svc.Insights.MarkRead)
}

func (s *Server) handleMarkInsightAction(w http.ResponseWriter, r *http.Request) {
	s.markInsight(w, r, s.svc.Insights.MarkActionTaken)
}

func (s *Server) markInsight(w http.ResponseWriter, r *http.Request, mark func(context.Context, int64) error) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := mark(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
