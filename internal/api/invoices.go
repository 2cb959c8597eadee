package api

import (
	"encoding/json"
	"net/http"

	"github.com/VitthalGund/freelancer/pkg/invoice"
)

func (s *Server) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	status := invoice.Status(r.URL.Query().Get("status"))
	invoices, err := s.invoices.List(r.Context(), status, queryLimit(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if invoices == nil {
		invoices = []invoice.Invoice{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "invoices": invoices})
}

func (s *Server) handleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	var inv invoice.Invoice
	if err := json.NewDecoder(r.Body).Decode(&inv); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if inv.InvoiceID == "" {
		writeError(w, http.StatusBadRequest, "invoice_id is required")
		return
	}
	created, err := s.invoices.Create(r.Context(), &inv)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "invoice": created})
}

func (s *Server) handleGetInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := s.invoices.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "invoice not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "invoice": inv})
}

type nudgeStatusRequest struct {
	Status string `json:"status"`
}

// handleNudgeStatus moves an invoice's draft nudge through the approval flow:
// waiting_approval -> approved/rejected -> sent.
func (s *Server) handleNudgeStatus(w http.ResponseWriter, r *http.Request) {
	var req nudgeStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	switch req.Status {
	case invoice.NudgeApproved, invoice.NudgeRejected, invoice.NudgeSent:
	default:
		writeError(w, http.StatusBadRequest, "status must be approved, rejected or sent")
		return
	}

	inv, err := s.invoices.SetNudgeStatus(r.Context(), r.PathValue("id"), req.Status)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "invoice": inv})
}
