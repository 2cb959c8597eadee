package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/VitthalGund/freelancer/pkg/agent"
)

// handleAgentsRun performs one full pass and returns every proposed action
// with the pass narration.
func (s *Server) handleAgentsRun(w http.ResponseWriter, r *http.Request) {
	proposals, logs := s.runner.Run(r.Context(), queryUser(r))
	if proposals == nil {
		proposals = []agent.Proposal{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"actions": proposals,
		"logs":    logs,
		"count":   len(proposals),
	})
}

type executeRequest struct {
	UserID string          `json:"user_id"`
	Type   string          `json:"type"`
	Action json.RawMessage `json:"action"`
}

// handleAgentsExecute runs one approved action. Only the productivity agent
// has an auto-execution path; everything else is reported as unsupported.
func (s *Server) handleAgentsExecute(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Type == "" {
		writeError(w, http.StatusBadRequest, "type is required")
		return
	}

	act, err := decodeAction(req.Type, req.Action)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	userID := req.UserID
	if userID == "" {
		userID = "default"
	}
	res := s.productivity.Execute(r.Context(), userID, act)
	writeJSON(w, http.StatusOK, res)
}

// decodeAction maps an action kind tag onto its concrete payload type.
func decodeAction(kind string, raw json.RawMessage) (agent.Action, error) {
	if raw == nil {
		raw = json.RawMessage("{}")
	}
	// Actions travel as values, so each payload is decoded into its concrete
	// type and returned unboxed.
	switch kind {
	case "send_message":
		var a agent.SendMessage
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, fmt.Errorf("invalid %s payload: %w", kind, err)
		}
		return a, nil
	case "escalate_to_legal":
		var a agent.EscalateToLegal
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, fmt.Errorf("invalid %s payload: %w", kind, err)
		}
		return a, nil
	case "block_new_jobs":
		var a agent.BlockNewJobs
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, fmt.Errorf("invalid %s payload: %w", kind, err)
		}
		return a, nil
	case "create_deep_work_block":
		var a agent.CreateDeepWorkBlock
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, fmt.Errorf("invalid %s payload: %w", kind, err)
		}
		return a, nil
	case "reschedule_task":
		var a agent.RescheduleTask
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, fmt.Errorf("invalid %s payload: %w", kind, err)
		}
		return a, nil
	case "suggest_reprioritize":
		var a agent.SuggestReprioritize
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, fmt.Errorf("invalid %s payload: %w", kind, err)
		}
		return a, nil
	case "categorization":
		var a agent.Categorization
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, fmt.Errorf("invalid %s payload: %w", kind, err)
		}
		return a, nil
	}
	return nil, fmt.Errorf("unknown action type %q", kind)
}
