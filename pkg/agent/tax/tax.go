// Package tax implements the expense classification agent. An ordered table
// of narration rules is evaluated first-match-wins; transactions no rule
// covers go to the drafting service, whose strict-JSON reply is parsed
// defensively with a hard fallback to Other/non-deductible.
package tax

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/VitthalGund/freelancer/pkg/agent"
	"github.com/VitthalGund/freelancer/pkg/drafting"
	"github.com/VitthalGund/freelancer/pkg/transaction"
)

// Trigger kinds recognized by ShouldAct.
const (
	TriggerIngested = "txn_ingested"
	TriggerMonthEnd = "month_end"
)

// Confidence ladder: exact rule match, accepted model reply, hard fallback.
// autoVerifyAbove is the cut between auto_verified and needs_review.
const (
	ruleConfidence     = 100
	modelConfidence    = 85
	fallbackConfidence = 0
	autoVerifyAbove    = 80
)

const categoryMaxTokens = 180

// rule is one entry in the ordered narration-matching table.
type rule struct {
	pattern    *regexp.Regexp
	category   string
	deductible bool
}

var rules = []rule{
	{regexp.MustCompile(`(?i)fuel|petrol|diesel|petrol pump`), "Transport", false},
	{regexp.MustCompile(`(?i)amazon|flipkart|myntra|croma`), "Supplies", false},
	{regexp.MustCompile(`(?i)office|software|github|figma|adobe|paypal|google cloud|aws|azure`), "Software/Tools", true},
	{regexp.MustCompile(`(?i)electricity|internet|broadband|wifi`), "Utilities", true},
}

// Agent is the tax agent.
type Agent struct {
	txns   transaction.Store
	drafts drafting.Service
}

// New creates a tax agent.
func New(txns transaction.Store, drafts drafting.Service) *Agent {
	return &Agent{txns: txns, drafts: drafts}
}

// ShouldAct reports whether the transaction warrants a classification pass.
// Ingestion acts only on positive amounts; the periodic batch pass acts
// unconditionally.
func (a *Agent) ShouldAct(txn *transaction.Transaction, eventType string) bool {
	if txn == nil {
		return false
	}
	if eventType == TriggerIngested || eventType == "" {
		return txn.Amount > 0
	}
	return true
}

// Categorize classifies one transaction and persists the annotation fields.
// It always yields a result; drafting failures degrade to the rule-free
// fallback and a failed persist is logged, not fatal.
func (a *Agent) Categorize(ctx context.Context, txn *transaction.Transaction) agent.Categorization {
	result := agent.Categorization{
		TransactionID: txn.TransactionID,
		Category:      "Other",
		Deductible:    false,
		Notes:         "fallback",
	}
	confidence := fallbackConfidence

	matched := false
	for _, r := range rules {
		if r.pattern.MatchString(txn.Narration) {
			result.Category = r.category
			result.Deductible = r.deductible
			result.Notes = "rule-match"
			confidence = ruleConfidence
			matched = true
			break
		}
	}

	if !matched {
		if reply, ok := a.draftCategory(ctx, txn); ok {
			result.Category = reply.Category
			result.Deductible = reply.Deductible
			result.Notes = reply.Reason
			confidence = modelConfidence
		}
	}

	status := transaction.DeductionNeedsReview
	if confidence > autoVerifyAbove {
		status = transaction.DeductionAutoVerified
	}
	err := a.txns.SaveClassification(ctx, txn.TransactionID, transaction.Classification{
		Category:   result.Category,
		Deductible: result.Deductible,
		Confidence: confidence,
		Status:     status,
	})
	if err != nil {
		// Best effort: a later pass will retry the write.
		log.Printf("tax: save classification for %s: %v", txn.TransactionID, err)
	}

	return result
}

type modelReply struct {
	Category   string `json:"category"`
	Deductible bool   `json:"deductible"`
	Reason     string `json:"reason"`
}

// draftCategory asks the drafting service for a strict-JSON categorization.
// ok=false on any failure or malformed reply.
func (a *Agent) draftCategory(ctx context.Context, txn *transaction.Transaction) (modelReply, bool) {
	text, err := a.drafts.Generate(ctx, buildCategoryPrompt(txn), categoryMaxTokens)
	if err != nil {
		log.Printf("tax: draft category for %s: %v", txn.TransactionID, err)
		return modelReply{}, false
	}
	return parseCategory(text)
}

func parseCategory(text string) (modelReply, bool) {
	var reply modelReply
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &reply); err != nil {
		return modelReply{}, false
	}
	if reply.Category == "" {
		reply.Category = "Other"
	}
	if reply.Reason == "" {
		reply.Reason = "LLM"
	}
	return reply, true
}

func buildCategoryPrompt(txn *transaction.Transaction) string {
	narration := strings.ReplaceAll(txn.Narration, "\n", " ")
	return fmt.Sprintf(`Classify this expense into one of: "Office/Software", "Travel", "Meals", "Supplies", "Utilities", "Medical", "Other".
Also say whether it is typically tax-deductible for a freelance sole proprietor in India (yes/no) with a one-line reason.
Return JSON: {"category":"...","deductible":true,"reason":"..."}.
NARRATION: %q
AMOUNT: %v`, narration, txn.Amount)
}

// FindDeductionOpportunities lists the user's transactions awaiting manual
// deduction review.
func (a *Agent) FindDeductionOpportunities(ctx context.Context, userID string) ([]transaction.Transaction, error) {
	return a.txns.NeedsReview(ctx, userID)
}

// MonthlySummary aggregates one calendar month of transactions.
type MonthlySummary struct {
	Count           int     `json:"counts"`
	Total           float64 `json:"total"`
	DeductibleTotal float64 `json:"deductible_total"`
}

// deductibleHintRe is a coarse narration heuristic for the monthly rollup,
// deliberately independent of the persisted per-transaction classification.
var deductibleHintRe = regexp.MustCompile(`(?i)software|office|utilities|aws|figma|adobe|github`)

// SummarizeMonthly groups transactions by calendar month (YYYY-MM of the
// transaction date, "now" when missing), accumulating count, total and a
// keyword-based deductible subtotal.
func SummarizeMonthly(txns []transaction.Transaction) map[string]MonthlySummary {
	out := make(map[string]MonthlySummary)
	for _, t := range txns {
		date := t.Date
		if date.IsZero() {
			date = time.Now()
		}
		key := date.Format("2006-01")

		s := out[key]
		s.Count++
		s.Total += t.Amount
		if deductibleHintRe.MatchString(t.Narration) {
			s.DeductibleTotal += t.Amount
		}
		out[key] = s
	}
	return out
}
