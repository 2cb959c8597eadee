package notify

import (
	"testing"
	"time"

	"github.com/VitthalGund/freelancer/pkg/agent"
)

func TestDescribe(t *testing.T) {
	start := time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC)
	cases := []struct {
		action agent.Action
		want   string
	}{
		{agent.SendMessage{Channel: "email", InvoiceID: "INV-1", Subject: "Reminder"}, "send email nudge for invoice INV-1: Reminder"},
		{agent.EscalateToLegal{InvoiceID: "INV-2", Reason: "Overdue 35 days / risk 0"}, "escalate invoice INV-2 to legal (Overdue 35 days / risk 0)"},
		{agent.BlockNewJobs{Reason: "High utilization 90%"}, "block new jobs: High utilization 90%"},
		{agent.CreateDeepWorkBlock{Start: start, End: start.Add(2 * time.Hour)}, "deep work block Jun 3 09:00 - 11:00"},
		{agent.SuggestReprioritize{Suggestions: make([]agent.PrioritySuggestion, 2)}, "reprioritize 2 task(s)"},
		{agent.Categorization{TransactionID: "tx1", Category: "Utilities"}, "categorize transaction tx1 as Utilities"},
		{agent.RescheduleTask{TaskID: "t1"}, "reschedule_task"},
	}
	for _, c := range cases {
		if got := describe(c.action); got != c.want {
			t.Errorf("%s: want %q, got %q", c.action.Kind(), c.want, got)
		}
	}
}

func TestNotifyProposalsEmptyIsNoop(t *testing.T) {
	tg := &Telegram{}
	if err := tg.NotifyProposals(nil); err != nil {
		t.Errorf("empty digest must be a no-op, got %v", err)
	}
	if err := tg.NotifyProposals([]agent.Proposal{}); err != nil {
		t.Errorf("empty digest must be a no-op, got %v", err)
	}
}
