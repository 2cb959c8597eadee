package api

import (
	"encoding/json"
	"net/http"

	"github.com/VitthalGund/freelancer/pkg/event"
)

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.events.List(r.Context(), queryUser(r), queryLimit(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if events == nil {
		events = []event.Event{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "events": events})
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var e event.Event
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if e.StartTime.IsZero() || e.EndTime.IsZero() {
		writeError(w, http.StatusBadRequest, "start_time and end_time are required")
		return
	}
	if !e.EndTime.After(e.StartTime) {
		writeError(w, http.StatusBadRequest, "end_time must be after start_time")
		return
	}
	if e.UserID == "" {
		e.UserID = "default"
	}
	created, err := s.events.Create(r.Context(), &e)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "event": created})
}
