// Package runner drives one evaluation pass over all three agents and
// collects the resulting action proposals. Nothing in a pass is fatal:
// per-agent failures become log lines in the result and the pass continues.
package runner

import (
	"context"
	"fmt"

	"github.com/VitthalGund/freelancer/pkg/agent"
	"github.com/VitthalGund/freelancer/pkg/agent/collections"
	"github.com/VitthalGund/freelancer/pkg/agent/productivity"
	"github.com/VitthalGund/freelancer/pkg/agent/tax"
	"github.com/VitthalGund/freelancer/pkg/invoice"
	"github.com/VitthalGund/freelancer/pkg/transaction"
)

// Config bounds how many records one pass scans.
type Config struct {
	InvoiceScanLimit int
	TxnScanLimit     int
}

// DefaultConfig returns the standard scan bounds.
func DefaultConfig() Config {
	return Config{InvoiceScanLimit: 200, TxnScanLimit: 200}
}

// Runner evaluates the agents against current store state.
type Runner struct {
	collections  *collections.Agent
	productivity *productivity.Agent
	tax          *tax.Agent

	invoices invoice.Store
	txns     transaction.Store
	cfg      Config
}

// New creates a runner.
func New(c *collections.Agent, p *productivity.Agent, t *tax.Agent, invoices invoice.Store, txns transaction.Store, cfg Config) *Runner {
	if cfg.InvoiceScanLimit <= 0 {
		cfg.InvoiceScanLimit = DefaultConfig().InvoiceScanLimit
	}
	if cfg.TxnScanLimit <= 0 {
		cfg.TxnScanLimit = DefaultConfig().TxnScanLimit
	}
	return &Runner{collections: c, productivity: p, tax: t, invoices: invoices, txns: txns, cfg: cfg}
}

// Run performs a full pass for one user: every aging invoice, the user's
// schedule, and all unclassified transactions. The log lines narrate the
// pass for the operator surface.
func (r *Runner) Run(ctx context.Context, userID string) ([]agent.Proposal, []string) {
	var proposals []agent.Proposal
	var logs []string

	p, l := r.RunCollections(ctx)
	proposals, logs = append(proposals, p...), append(logs, l...)

	p, l = r.RunProductivity(ctx, userID)
	proposals, logs = append(proposals, p...), append(logs, l...)

	p, l = r.RunTax(ctx)
	proposals, logs = append(proposals, p...), append(logs, l...)

	logs = append(logs, fmt.Sprintf("Run complete: %d proposal(s)", len(proposals)))
	return proposals, logs
}

// RunCollections scans aging invoices and collects escalation proposals.
func (r *Runner) RunCollections(ctx context.Context) ([]agent.Proposal, []string) {
	var proposals []agent.Proposal
	var logs []string

	invoices, err := r.invoices.List(ctx, "", r.cfg.InvoiceScanLimit)
	if err != nil {
		return nil, []string{fmt.Sprintf("Collections: list invoices failed: %v", err)}
	}
	for i := range invoices {
		inv := &invoices[i]
		if !r.collections.ShouldAct(inv) {
			continue
		}
		act := r.collections.OnAging(ctx, inv)
		if act == nil {
			continue
		}
		proposals = append(proposals, agent.NewProposal("Collections", act))
		logs = append(logs, fmt.Sprintf("Collections: invoice %s (%d days overdue) -> %s", inv.InvoiceID, inv.DaysOverdue, act.Kind()))
	}
	return proposals, logs
}

// RunProductivity evaluates one user's schedule.
func (r *Runner) RunProductivity(ctx context.Context, userID string) ([]agent.Proposal, []string) {
	eval, err := r.productivity.Evaluate(ctx, userID)
	if err != nil {
		return nil, []string{fmt.Sprintf("Productivity: evaluate %s failed: %v", userID, err)}
	}

	var proposals []agent.Proposal
	for _, act := range eval.Actions {
		proposals = append(proposals, agent.NewProposal("Productivity", act))
	}
	logs := []string{fmt.Sprintf("Productivity: user %s at %d%% utilization, %d action(s)", userID, int(eval.Utilization*100), len(eval.Actions))}
	return proposals, logs
}

// RunTax classifies pending transactions. This is the batch pass, so every
// unclassified transaction is eligible regardless of amount or direction; a
// skipped record would stay unclassified and clog the oldest-first scan
// window on every subsequent pass.
func (r *Runner) RunTax(ctx context.Context) ([]agent.Proposal, []string) {
	var proposals []agent.Proposal
	var logs []string

	txns, err := r.txns.Unclassified(ctx, r.cfg.TxnScanLimit)
	if err != nil {
		return nil, []string{fmt.Sprintf("Tax: list unclassified failed: %v", err)}
	}
	for i := range txns {
		t := &txns[i]
		if !r.tax.ShouldAct(t, tax.TriggerMonthEnd) {
			continue
		}
		cat := r.tax.Categorize(ctx, t)
		proposals = append(proposals, agent.NewProposal("Tax", cat))
		logs = append(logs, fmt.Sprintf("Tax: transaction %s -> %s", t.TransactionID, cat.Category))
	}
	return proposals, logs
}
