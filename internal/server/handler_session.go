package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/bengalcodingacademy-dev/admin/pkg/model"
)

// signedOut is reported to callers without a dashboard session.
var signedOut = model.SessionState{Status: model.StatusUnauthenticated}

// handleSession returns the snapshot of the caller's dashboard session.
// GET /session
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	state := signedOut
	if ctrl := s.ui.ControllerFromRequest(r); ctrl != nil {
		state = ctrl.Snapshot()
	}
	respondOK(w, RequestIDFromContext(r.Context()), state)
}

// handleSessionEvents streams the caller's session changes via Server-Sent
// Events.
// GET /session/events
func (s *Server) handleSessionEvents(w http.ResponseWriter, r *http.Request) {
	ctrl := s.ui.ControllerFromRequest(r)
	if ctrl == nil {
		respondError(w, RequestIDFromContext(r.Context()), http.StatusUnauthorized,
			&model.APIError{Code: model.ErrUnauthorized, Message: "no dashboard session"})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, RequestIDFromContext(r.Context()), http.StatusInternalServerError,
			&model.APIError{Code: model.ErrInternal, Message: "streaming not supported"})
		return
	}

	updates, cancel := ctrl.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	if err := sendSSEEvent(w, flusher, "init", ctrl.Snapshot()); err != nil {
		s.logger.Debug("sse client disconnected", "error", err)
		return
	}

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case state, ok := <-updates:
			if !ok {
				return
			}
			if err := sendSSEEvent(w, flusher, "update", state); err != nil {
				s.logger.Debug("sse client disconnected", "error", err)
				return
			}
		case <-ticker.C:
			fmt.Fprintf(w, ": heartbeat\n\n")
			flusher.Flush()
		}
	}
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, jsonData); err != nil {
		return err
	}

	flusher.Flush()
	return nil
}
