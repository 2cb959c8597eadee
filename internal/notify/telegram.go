// Package notify delivers agent proposals to the operator over Telegram.
package notify

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/VitthalGund/freelancer/pkg/agent"
)

// Telegram sends proposal digests to a fixed operator chat.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegram authenticates the bot.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	return &Telegram{bot: bot, chatID: chatID}, nil
}

// NotifyProposals sends one digest message for a sweep's proposals. An empty
// slice sends nothing.
func (t *Telegram) NotifyProposals(proposals []agent.Proposal) error {
	if len(proposals) == 0 {
		return nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d proposal(s) awaiting review:\n", len(proposals))
	for _, p := range proposals {
		fmt.Fprintf(&sb, "- [%s] %s\n", p.Agent, describe(p.Action))
	}

	msg := tgbotapi.NewMessage(t.chatID, sb.String())
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

func describe(a agent.Action) string {
	switch act := a.(type) {
	case agent.SendMessage:
		return fmt.Sprintf("send %s nudge for invoice %s: %s", act.Channel, act.InvoiceID, act.Subject)
	case agent.EscalateToLegal:
		return fmt.Sprintf("escalate invoice %s to legal (%s)", act.InvoiceID, act.Reason)
	case agent.BlockNewJobs:
		return fmt.Sprintf("block new jobs: %s", act.Reason)
	case agent.CreateDeepWorkBlock:
		return fmt.Sprintf("deep work block %s - %s", act.Start.Format("Jan 2 15:04"), act.End.Format("15:04"))
	case agent.SuggestReprioritize:
		return fmt.Sprintf("reprioritize %d task(s)", len(act.Suggestions))
	case agent.Categorization:
		return fmt.Sprintf("categorize transaction %s as %s", act.TransactionID, act.Category)
	}
	return a.Kind()
}
