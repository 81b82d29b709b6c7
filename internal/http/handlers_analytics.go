package http

import (
	"net/http"
)

func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	day, err := parseDate(r, "date", s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	days, err := s.svc.Analytics.Daily(r.Context(), day)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDays(days))
}

func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	day, err := parseDate(r, "date", s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	months, err := s.svc.Analytics.Monthly(r.Context(), day)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMonths(months))
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r, s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	cats, err := s.svc.Analytics.Categories(r.Context(), rng)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategories(cats))
}

// handleDashboard serves the combined view, cached per selected day until a
// transaction changes.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	day, err := parseDate(r, "date", s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	key := day.Format(dateLayout)
	if d, ok := s.dashboards.Get(key); ok {
		w.Header().Set("X-Cache", "HIT")
		writeJSON(w, http.StatusOK, toDashboard(d))
		return
	}
	d, err := s.svc.Analytics.Dashboard(r.Context(), day)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.dashboards.Set(key, d)
	w.Header().Set("X-Cache", "MISS")
	writeJSON(w, http.StatusOK, toDashboard(d))
}
