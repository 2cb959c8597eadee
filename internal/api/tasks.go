package api

import (
	"encoding/json"
	"net/http"

	"github.com/VitthalGund/freelancer/pkg/task"
)

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.tasks.List(r.Context(), queryUser(r), queryLimit(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "tasks": tasks})
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var t task.Task
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if t.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if t.UserID == "" {
		t.UserID = "default"
	}
	created, err := s.tasks.Create(r.Context(), &t)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "task": created})
}

type setPriorityRequest struct {
	Priority string `json:"priority"`
}

func (s *Server) handleSetTaskPriority(w http.ResponseWriter, r *http.Request) {
	var req setPriorityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	switch req.Priority {
	case task.PriorityHigh, task.PriorityMedium, task.PriorityLow:
	default:
		writeError(w, http.StatusBadRequest, "priority must be High, Medium or Low")
		return
	}

	updated, err := s.tasks.SetPriority(r.Context(), r.PathValue("id"), req.Priority)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "task": updated})
}

func (s *Server) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	updated, err := s.tasks.Complete(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "task": updated})
}
