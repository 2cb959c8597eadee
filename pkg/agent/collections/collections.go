// Package collections implements the invoice escalation agent. It decides
// whether an aging invoice warrants a nudge, picks an escalation level from
// overdue-day thresholds, drafts the message (model-assisted with a
// templated fallback), persists the draft onto the invoice for human
// approval, and returns the action proposal.
package collections

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/VitthalGund/freelancer/pkg/agent"
	"github.com/VitthalGund/freelancer/pkg/drafting"
	"github.com/VitthalGund/freelancer/pkg/invoice"
)

// Level is the escalation severity tier.
type Level string

const (
	LevelPolite Level = "polite"
	LevelFirm   Level = "firm"
	LevelLegal  Level = "legal"
)

const nudgeMaxTokens = 250

// Config holds the escalation policy knobs.
type Config struct {
	PoliteDays int
	FirmDays   int
	LegalDays  int

	// RiskThreshold bumps a polite escalation to firm when the invoice's
	// risk score exceeds it. The bump never raises firm to legal.
	RiskThreshold int

	PoliteFollowupDays int
	FirmFollowupDays   int
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		PoliteDays:         3,
		FirmDays:           10,
		LegalDays:          30,
		RiskThreshold:      80,
		PoliteFollowupDays: 4,
		FirmFollowupDays:   7,
	}
}

// Agent is the collections agent.
type Agent struct {
	invoices invoice.Store
	drafts   drafting.Service
	cfg      Config
	now      func() time.Time
}

// New creates a collections agent.
func New(invoices invoice.Store, drafts drafting.Service, cfg Config) *Agent {
	return &Agent{invoices: invoices, drafts: drafts, cfg: cfg, now: time.Now}
}

// ShouldAct reports whether the agent should act on the invoice at all.
// Paid invoices are terminal.
func (a *Agent) ShouldAct(inv *invoice.Invoice) bool {
	if inv == nil || inv.Status == invoice.StatusPaid {
		return false
	}
	if inv.DaysOverdue >= a.cfg.PoliteDays {
		return true
	}
	return inv.Status == invoice.StatusPartial
}

// OnAging evaluates one invoice and returns the proposed action, or nil when
// no action is warranted. Drafting failures degrade to a templated reminder;
// a failed draft persist is logged but does not abort the proposal.
func (a *Agent) OnAging(ctx context.Context, inv *invoice.Invoice) agent.Action {
	if inv == nil || inv.Status == invoice.StatusPaid {
		return nil
	}

	level := a.escalationLevel(inv)
	if level == "" {
		// Below every threshold and not partial: correctly nothing to do.
		return nil
	}

	// High client risk escalates sooner, but only from polite to firm.
	if level == LevelPolite && inv.RiskScore > a.cfg.RiskThreshold {
		level = LevelFirm
	}

	// A draft a human already approved or sent is never replaced.
	if n := inv.DraftNudge; n != nil && (n.Status == invoice.NudgeApproved || n.Status == invoice.NudgeSent) {
		return nil
	}

	subject, body := a.draftNudge(ctx, inv, level)

	nudge := &invoice.DraftNudge{
		Subject:     subject,
		Body:        body,
		Status:      invoice.NudgeWaitingApproval,
		GeneratedAt: a.now(),
	}
	if err := a.invoices.SaveDraftNudge(ctx, inv.InvoiceID, nudge); err != nil {
		// Best effort: the proposal is still valid without the side
		// channel, and a retried pass will attempt the write again.
		log.Printf("collections: save draft nudge for %s: %v", inv.InvoiceID, err)
	}

	if level == LevelLegal {
		return agent.EscalateToLegal{
			InvoiceID: inv.InvoiceID,
			Reason:    fmt.Sprintf("Overdue %d days / risk %d", inv.DaysOverdue, inv.RiskScore),
			Payload:   map[string]any{"subject": subject, "body": body},
		}
	}

	channel := "email"
	if level == LevelPolite {
		channel = "whatsapp"
	}

	act := agent.SendMessage{
		Channel:   channel,
		To:        recipient(inv),
		Subject:   subject,
		Body:      body,
		InvoiceID: inv.InvoiceID,
	}
	if days := a.followupDays(level); days > 0 {
		at := a.now().Add(time.Duration(days) * 24 * time.Hour)
		act.ScheduleFollowupAt = &at
	}
	return act
}

// escalationLevel maps days overdue to a level, highest threshold met wins.
// A partial payment below every threshold still gets a polite nudge.
func (a *Agent) escalationLevel(inv *invoice.Invoice) Level {
	switch {
	case inv.DaysOverdue >= a.cfg.LegalDays:
		return LevelLegal
	case inv.DaysOverdue >= a.cfg.FirmDays:
		return LevelFirm
	case inv.DaysOverdue >= a.cfg.PoliteDays:
		return LevelPolite
	case inv.Status == invoice.StatusPartial:
		return LevelPolite
	}
	return ""
}

func (a *Agent) followupDays(level Level) int {
	switch level {
	case LevelPolite:
		return a.cfg.PoliteFollowupDays
	case LevelFirm:
		return a.cfg.FirmFollowupDays
	}
	return 0
}

func recipient(inv *invoice.Invoice) string {
	if inv.ClientID != "" {
		return inv.ClientID
	}
	if inv.CompanyID != "" {
		return inv.CompanyID
	}
	return "unknown"
}

// draftNudge asks the drafting service for the message; a failed or empty
// reply degrades to the templated reminder.
func (a *Agent) draftNudge(ctx context.Context, inv *invoice.Invoice, level Level) (subject, body string) {
	text, err := a.drafts.Generate(ctx, buildNudgePrompt(inv, level), nudgeMaxTokens)
	if err != nil {
		log.Printf("collections: draft nudge for %s: %v", inv.InvoiceID, err)
		text = ""
	}
	return parseNudge(text, inv.InvoiceID)
}

func toneFor(level Level) string {
	switch level {
	case LevelFirm:
		return "firm and professional"
	case LevelLegal:
		return "formal legal language referencing contract terms and next steps"
	}
	return "polite and friendly"
}

func buildNudgePrompt(inv *invoice.Invoice, level Level) string {
	currency := inv.Currency
	if currency == "" {
		currency = "INR"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are an accounts receivable assistant. Compose a %s message for invoice %s (amount: %.2f %s, days overdue: %d).\n",
		toneFor(level), inv.InvoiceID, inv.AmountDue, currency, inv.DaysOverdue)
	sb.WriteString("Include:\n")
	sb.WriteString("- short opening reminding of invoice\n")
	sb.WriteString("- clear ask (date by when payment will be made)\n")
	sb.WriteString("- consequences if not paid (for firm/legal only)\n")
	sb.WriteString("- proposed payment options (UPI/NEFT/CARD)\n")
	sb.WriteString("Return subject (one line) and body separated by a blank line.")
	return sb.String()
}

// parseNudge splits a free-text reply on the first blank line into subject
// and body. An empty reply yields the templated default reminder.
func parseNudge(text, invoiceID string) (subject, body string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Sprintf("Payment reminder: invoice %s", invoiceID),
			fmt.Sprintf("Reminder for invoice %s. Please arrange payment at the earliest.", invoiceID)
	}

	subject = text
	body = text
	if idx := strings.Index(text, "\n\n"); idx >= 0 {
		subject = text[:idx]
		if rest := strings.TrimSpace(text[idx:]); rest != "" {
			body = rest
		}
	}
	subject = strings.TrimSpace(strings.TrimPrefix(subject, "Subject:"))
	return subject, body
}
