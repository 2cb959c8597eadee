// Package agent defines the action-proposal contract shared by the
// collections, productivity and tax agents. A proposal describes a suggested
// side effect for a human operator to approve, execute or dismiss; it is
// never persisted itself — only the side effects it causes are.
package agent

import "time"

// Action is one member of the closed set of proposal shapes. Kind returns
// the type tag the operator surface dispatches on.
type Action interface {
	Kind() string
}

// SendMessage proposes delivering a drafted nudge to a client.
type SendMessage struct {
	Channel            string     `json:"channel"` // "whatsapp" or "email"
	To                 string     `json:"to"`
	Subject            string     `json:"subject"`
	Body               string     `json:"body"`
	InvoiceID          string     `json:"invoice_id"`
	ScheduleFollowupAt *time.Time `json:"schedule_followup_at,omitempty"`
}

func (SendMessage) Kind() string { return "send_message" }

// EscalateToLegal proposes handing an invoice to legal follow-up.
type EscalateToLegal struct {
	InvoiceID string         `json:"invoice_id"`
	Reason    string         `json:"reason"`
	Payload   map[string]any `json:"payload,omitempty"`
}

func (EscalateToLegal) Kind() string { return "escalate_to_legal" }

// BlockNewJobs proposes pausing job intake while utilization is high.
type BlockNewJobs struct {
	Reason string `json:"reason"`
}

func (BlockNewJobs) Kind() string { return "block_new_jobs" }

// CreateDeepWorkBlock proposes a focused schedule block. This is the only
// action kind the productivity agent executes itself.
type CreateDeepWorkBlock struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Title string    `json:"title"`
}

func (CreateDeepWorkBlock) Kind() string { return "create_deep_work_block" }

// RescheduleTask proposes moving a task's due date.
type RescheduleTask struct {
	TaskID  string    `json:"taskId"`
	NewDate time.Time `json:"newDate"`
}

func (RescheduleTask) Kind() string { return "reschedule_task" }

// PrioritySuggestion is one entry in a reprioritization proposal.
type PrioritySuggestion struct {
	TaskID            string `json:"taskId"`
	SuggestedPriority string `json:"suggestedPriority"`
}

// SuggestReprioritize proposes priority changes for upcoming tasks.
type SuggestReprioritize struct {
	Suggestions []PrioritySuggestion `json:"suggestions"`
	Message     string               `json:"message,omitempty"`
}

func (SuggestReprioritize) Kind() string { return "suggest_reprioritize" }

// Categorization is the tax agent's classification result for one
// transaction.
type Categorization struct {
	TransactionID string `json:"transaction_id"`
	Category      string `json:"category"`
	Deductible    bool   `json:"deductible"`
	Notes         string `json:"notes,omitempty"`
}

func (Categorization) Kind() string { return "categorization" }

// Proposal wraps an action with the agent that produced it, enough to render
// an operator-facing card.
type Proposal struct {
	Agent  string `json:"agent"`
	Type   string `json:"type"`
	Action Action `json:"action"`
}

// NewProposal tags an action with its producing agent.
func NewProposal(agentName string, a Action) Proposal {
	return Proposal{Agent: agentName, Type: a.Kind(), Action: a}
}
