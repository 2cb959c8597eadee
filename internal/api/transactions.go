package api

import (
	"encoding/json"
	"net/http"

	"github.com/VitthalGund/freelancer/pkg/agent/tax"
	"github.com/VitthalGund/freelancer/pkg/transaction"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txns, err := s.txns.ByUser(r.Context(), queryUser(r), queryLimit(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if txns == nil {
		txns = []transaction.Transaction{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "transactions": txns})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var txn transaction.Transaction
	if err := json.NewDecoder(r.Body).Decode(&txn); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if txn.TransactionID == "" {
		writeError(w, http.StatusBadRequest, "transaction_id is required")
		return
	}
	created, err := s.txns.Create(r.Context(), &txn)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Classify on ingest when the tax agent recognizes the transaction.
	// The annotation is persisted by the agent itself.
	if s.tax.ShouldAct(created, r.URL.Query().Get("trigger")) {
		cat := s.tax.Categorize(r.Context(), created)
		writeJSON(w, http.StatusCreated, map[string]any{
			"success":        true,
			"transaction":    created,
			"categorization": cat,
		})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "transaction": created})
}

func (s *Server) handleNeedsReview(w http.ResponseWriter, r *http.Request) {
	txns, err := s.tax.FindDeductionOpportunities(r.Context(), queryUser(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if txns == nil {
		txns = []transaction.Transaction{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "transactions": txns})
}

func (s *Server) handleMonthlySummary(w http.ResponseWriter, r *http.Request) {
	txns, err := s.txns.ByUser(r.Context(), queryUser(r), queryLimit(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"summary": tax.SummarizeMonthly(txns),
	})
}
