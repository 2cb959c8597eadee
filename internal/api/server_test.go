package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/VitthalGund/freelancer/internal/runner"
	"github.com/VitthalGund/freelancer/pkg/agent/collections"
	"github.com/VitthalGund/freelancer/pkg/agent/productivity"
	"github.com/VitthalGund/freelancer/pkg/agent/tax"
	"github.com/VitthalGund/freelancer/pkg/event"
	"github.com/VitthalGund/freelancer/pkg/invoice"
	"github.com/VitthalGund/freelancer/pkg/task"
	"github.com/VitthalGund/freelancer/pkg/transaction"
)

type memInvoiceStore struct {
	byID map[string]*invoice.Invoice
}

func newMemInvoiceStore() *memInvoiceStore {
	return &memInvoiceStore{byID: make(map[string]*invoice.Invoice)}
}

func (m *memInvoiceStore) Create(_ context.Context, inv *invoice.Invoice) (*invoice.Invoice, error) {
	m.byID[inv.InvoiceID] = inv
	return inv, nil
}
func (m *memInvoiceStore) Get(_ context.Context, id string) (*invoice.Invoice, error) {
	if inv, ok := m.byID[id]; ok {
		return inv, nil
	}
	return nil, errors.New("not found")
}
func (m *memInvoiceStore) List(_ context.Context, status invoice.Status, _ int) ([]invoice.Invoice, error) {
	var out []invoice.Invoice
	for _, inv := range m.byID {
		if status == "" || inv.Status == status {
			out = append(out, *inv)
		}
	}
	return out, nil
}
func (m *memInvoiceStore) SaveDraftNudge(_ context.Context, id string, n *invoice.DraftNudge) error {
	inv, ok := m.byID[id]
	if !ok {
		return errors.New("not found")
	}
	inv.DraftNudge = n
	return nil
}
func (m *memInvoiceStore) SetNudgeStatus(_ context.Context, id, status string) (*invoice.Invoice, error) {
	inv, ok := m.byID[id]
	if !ok || inv.DraftNudge == nil {
		return nil, errors.New("no draft nudge")
	}
	inv.DraftNudge.Status = status
	return inv, nil
}
func (m *memInvoiceStore) EnsureTable(_ context.Context) error { return nil }

type memTxnStore struct{}

func (memTxnStore) Create(_ context.Context, t *transaction.Transaction) (*transaction.Transaction, error) {
	return t, nil
}
func (memTxnStore) Get(_ context.Context, _ string) (*transaction.Transaction, error) {
	return nil, errors.New("not found")
}
func (memTxnStore) ByUser(_ context.Context, _ string, _ int) ([]transaction.Transaction, error) {
	return nil, nil
}
func (memTxnStore) Unclassified(_ context.Context, _ int) ([]transaction.Transaction, error) {
	return nil, nil
}
func (memTxnStore) NeedsReview(_ context.Context, _ string) ([]transaction.Transaction, error) {
	return nil, nil
}
func (memTxnStore) SaveClassification(_ context.Context, _ string, _ transaction.Classification) error {
	return nil
}
func (memTxnStore) DistinctUsers(_ context.Context) ([]string, error) { return nil, nil }
func (memTxnStore) EnsureTable(_ context.Context) error               { return nil }

type memTaskStore struct{}

func (memTaskStore) Create(_ context.Context, t *task.Task) (*task.Task, error) { return t, nil }
func (memTaskStore) Get(_ context.Context, _ string) (*task.Task, error) {
	return nil, errors.New("not found")
}
func (memTaskStore) Upcoming(_ context.Context, _ string, _, _ time.Time) ([]task.Task, error) {
	return nil, nil
}
func (memTaskStore) List(_ context.Context, _ string, _ int) ([]task.Task, error) { return nil, nil }
func (memTaskStore) SetPriority(_ context.Context, _, _ string) (*task.Task, error) {
	return nil, errors.New("not found")
}
func (memTaskStore) Complete(_ context.Context, _ string) (*task.Task, error) {
	return nil, errors.New("not found")
}
func (memTaskStore) EnsureTable(_ context.Context) error { return nil }

type memEventStore struct{ created int }

func (m *memEventStore) Create(_ context.Context, e *event.Event) (*event.Event, error) {
	m.created++
	e.EventID = "evt-1"
	return e, nil
}
func (m *memEventStore) InWindow(_ context.Context, _ string, _, _ time.Time) ([]event.Event, error) {
	return nil, nil
}
func (m *memEventStore) List(_ context.Context, _ string, _ int) ([]event.Event, error) {
	return nil, nil
}
func (m *memEventStore) EnsureTable(_ context.Context) error { return nil }

type stubDrafter struct{}

func (stubDrafter) Generate(_ context.Context, _ string, _ int) (string, error) {
	return "Subject line\n\nBody text.", nil
}

func newTestServer(invoices *memInvoiceStore, events *memEventStore) *Server {
	drafter := stubDrafter{}
	txns := memTxnStore{}
	tasks := memTaskStore{}
	c := collections.New(invoices, drafter, collections.DefaultConfig())
	p := productivity.New(tasks, events, drafter, nil, productivity.DefaultConfig())
	t := tax.New(txns, drafter)
	r := runner.New(c, p, t, invoices, txns, runner.DefaultConfig())
	return New(r, p, t, invoices, txns, tasks, events)
}

func TestAgentsRunRoute(t *testing.T) {
	invoices := newMemInvoiceStore()
	invoices.byID["INV-1"] = &invoice.Invoice{InvoiceID: "INV-1", ClientID: "c1", Status: invoice.StatusOverdue, DaysOverdue: 12}
	srv := newTestServer(invoices, &memEventStore{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/agents/run?user_id=u1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Success bool `json:"success"`
		Count   int  `json:"count"`
		Actions []struct {
			Agent string `json:"agent"`
			Type  string `json:"type"`
		} `json:"actions"`
		Logs []string `json:"logs"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success || resp.Count != len(resp.Actions) {
		t.Errorf("envelope mismatch: %+v", resp)
	}
	found := false
	for _, a := range resp.Actions {
		if a.Agent == "Collections" && a.Type == "send_message" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a Collections send_message proposal, got %+v", resp.Actions)
	}
	if len(resp.Logs) == 0 {
		t.Error("expected narration logs")
	}
}

func TestAgentsExecuteRoute(t *testing.T) {
	events := &memEventStore{}
	srv := newTestServer(newMemInvoiceStore(), events)

	body := `{"user_id":"u1","type":"create_deep_work_block","action":{"start":"2025-06-03T09:00:00Z","end":"2025-06-03T11:00:00Z","title":"Deep Work - Focus Block"}}`
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/agents/execute", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d, body %s", rec.Code, rec.Body.String())
	}
	var res struct {
		OK bool `json:"success"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if !res.OK {
		t.Errorf("execute failed: %s", rec.Body.String())
	}
	if events.created != 1 {
		t.Errorf("events created: want 1, got %d", events.created)
	}
}

func TestAgentsExecuteUnknownType(t *testing.T) {
	srv := newTestServer(newMemInvoiceStore(), &memEventStore{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/agents/execute", strings.NewReader(`{"type":"launch_rocket"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: want 400, got %d", rec.Code)
	}
}

func TestNudgeApprovalRoute(t *testing.T) {
	invoices := newMemInvoiceStore()
	invoices.byID["INV-1"] = &invoice.Invoice{
		InvoiceID:  "INV-1",
		Status:     invoice.StatusOverdue,
		DraftNudge: &invoice.DraftNudge{Subject: "s", Body: "b", Status: invoice.NudgeWaitingApproval},
	}
	srv := newTestServer(invoices, &memEventStore{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/invoices/INV-1/nudge", strings.NewReader(`{"status":"approved"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d, body %s", rec.Code, rec.Body.String())
	}
	if got := invoices.byID["INV-1"].DraftNudge.Status; got != invoice.NudgeApproved {
		t.Errorf("nudge status: want approved, got %q", got)
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/invoices/INV-1/nudge", strings.NewReader(`{"status":"bogus"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bogus status: want 400, got %d", rec.Code)
	}
}

func TestCreateEventValidation(t *testing.T) {
	srv := newTestServer(newMemInvoiceStore(), &memEventStore{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/events", strings.NewReader(`{"title":"standup"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing times: want 400, got %d", rec.Code)
	}
}
