package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"fintrack/internal/services"
)

const (
	maxHistoryLimit   = 500
	sseKeepAlive      = 25 * time.Second
	maxChatTextLength = 2000
)

type chatRequest struct {
	Text string `json:"text"`
}

type chatResponse struct {
	Reply messageDTO `json:"reply"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	text := sanitizeInput(req.Text)
	if len([]rune(text)) > maxChatTextLength {
		writeError(w, r, fmt.Errorf("%w: message longer than %d characters", errBadRequest, maxChatTextLength))
		return
	}

	reply, err := s.svc.Chat.Send(r.Context(), text)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.dashboards.Purge()
	writeJSON(w, http.StatusOK, chatResponse{Reply: toMessage(reply)})
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r, "limit", services.DefaultHistoryLimit, maxHistoryLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Chat.EnsureWelcome(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	msgs, err := s.svc.Chat.History(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]messageDTO, len(msgs))
	for i, m := range msgs {
		out[i] = toMessage(m)
	}
	writeJSON(w, http.StatusOK, out)
}

// handleEvents streams store changes as server-sent events until the client goes away.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		writeError(w, r, err)
		return
	}

	changes, cancel := s.svc.Notifier.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	_ = rc.Flush()

	keepAlive := time.NewTicker(sseKeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
		case c, ok := <-changes:
			if !ok {
				return
			}
			data, err := json.Marshal(c)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", c.Entity, data); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
