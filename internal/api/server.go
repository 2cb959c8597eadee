// Package api exposes the agent engine over HTTP: a command-center run
// endpoint, an execute endpoint for approved actions, and CRUD surfaces for
// invoices, transactions, tasks and events.
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/VitthalGund/freelancer/internal/runner"
	"github.com/VitthalGund/freelancer/pkg/agent/productivity"
	"github.com/VitthalGund/freelancer/pkg/agent/tax"
	"github.com/VitthalGund/freelancer/pkg/event"
	"github.com/VitthalGund/freelancer/pkg/invoice"
	"github.com/VitthalGund/freelancer/pkg/task"
	"github.com/VitthalGund/freelancer/pkg/transaction"
)

const defaultListLimit = 100

// Server holds the HTTP handlers and their dependencies.
type Server struct {
	runner       *runner.Runner
	productivity *productivity.Agent
	tax          *tax.Agent

	invoices invoice.Store
	txns     transaction.Store
	tasks    task.Store
	events   event.Store

	mux *http.ServeMux
}

// New creates the server and registers all routes.
func New(r *runner.Runner, p *productivity.Agent, t *tax.Agent,
	invoices invoice.Store, txns transaction.Store, tasks task.Store, events event.Store) *Server {

	s := &Server{
		runner:       r,
		productivity: p,
		tax:          t,
		invoices:     invoices,
		txns:         txns,
		tasks:        tasks,
		events:       events,
		mux:          http.NewServeMux(),
	}

	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/status", s.handleStatus)

	s.mux.HandleFunc("GET /api/agents/run", s.handleAgentsRun)
	s.mux.HandleFunc("POST /api/agents/execute", s.handleAgentsExecute)

	s.mux.HandleFunc("GET /api/invoices", s.handleListInvoices)
	s.mux.HandleFunc("POST /api/invoices", s.handleCreateInvoice)
	s.mux.HandleFunc("GET /api/invoices/{id}", s.handleGetInvoice)
	s.mux.HandleFunc("POST /api/invoices/{id}/nudge", s.handleNudgeStatus)

	s.mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	s.mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	s.mux.HandleFunc("GET /api/transactions/needs-review", s.handleNeedsReview)
	s.mux.HandleFunc("GET /api/transactions/summary", s.handleMonthlySummary)

	s.mux.HandleFunc("GET /api/tasks", s.handleListTasks)
	s.mux.HandleFunc("POST /api/tasks", s.handleCreateTask)
	s.mux.HandleFunc("POST /api/tasks/{id}/priority", s.handleSetTaskPriority)
	s.mux.HandleFunc("POST /api/tasks/{id}/complete", s.handleCompleteTask)

	s.mux.HandleFunc("GET /api/events", s.handleListEvents)
	s.mux.HandleFunc("POST /api/events", s.handleCreateEvent)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"agents": []string{"Collections", "Productivity", "Tax"},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

// queryUser returns the user_id query parameter, defaulting to "default".
func queryUser(r *http.Request) string {
	if u := r.URL.Query().Get("user_id"); u != "" {
		return u
	}
	return "default"
}

// queryLimit parses the limit query parameter with a sane default.
func queryLimit(r *http.Request) int {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	return defaultListLimit
}
