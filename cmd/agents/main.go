// Command agents runs the periodic agent sweep: every interval it evaluates
// aging invoices, pending transactions and each known user's schedule, and
// pushes the resulting proposals to the operator over Telegram.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/VitthalGund/freelancer/internal/config"
	"github.com/VitthalGund/freelancer/internal/db"
	"github.com/VitthalGund/freelancer/internal/notify"
	"github.com/VitthalGund/freelancer/internal/runner"
	"github.com/VitthalGund/freelancer/pkg/agent"
	"github.com/VitthalGund/freelancer/pkg/agent/collections"
	"github.com/VitthalGund/freelancer/pkg/agent/productivity"
	"github.com/VitthalGund/freelancer/pkg/agent/tax"
	"github.com/VitthalGund/freelancer/pkg/drafting"
	"github.com/VitthalGund/freelancer/pkg/event"
	"github.com/VitthalGund/freelancer/pkg/gcal"
	"github.com/VitthalGund/freelancer/pkg/invoice"
	"github.com/VitthalGund/freelancer/pkg/task"
	"github.com/VitthalGund/freelancer/pkg/transaction"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmsgprefix)
	log.SetPrefix("agents: ")

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer pool.Close()

	invoices := invoice.NewPgStore(pool)
	txns := transaction.NewPgStore(pool)
	tasks := task.NewPgStore(pool)
	events := event.NewPgStore(pool)
	for name, ensure := range map[string]func(context.Context) error{
		"invoices":     invoices.EnsureTable,
		"transactions": txns.EnsureTable,
		"tasks":        tasks.EnsureTable,
		"events":       events.EnsureTable,
	} {
		if err := ensure(ctx); err != nil {
			log.Fatalf("ensure %s table: %v", name, err)
		}
	}

	drafts := drafting.NewGemini(cfg.Drafting.APIKey, cfg.Drafting.Model)

	var mirror productivity.EventMirror
	if cfg.Calendar.CredentialsFile != "" {
		c, err := gcal.New(ctx, cfg.Calendar.CredentialsFile, cfg.Calendar.TokenFile, cfg.Calendar.CalendarID)
		if err != nil {
			log.Printf("calendar mirror disabled: %v", err)
		} else {
			mirror = c
		}
	}

	var notifier *notify.Telegram
	if cfg.Telegram.Token != "" {
		notifier, err = notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID)
		if err != nil {
			log.Printf("telegram notifications disabled: %v", err)
			notifier = nil
		}
	}

	collectionsAgent := collections.New(invoices, drafts, collections.Config{
		PoliteDays:         cfg.Collections.PoliteDays,
		FirmDays:           cfg.Collections.FirmDays,
		LegalDays:          cfg.Collections.LegalDays,
		RiskThreshold:      cfg.Collections.RiskThreshold,
		PoliteFollowupDays: cfg.Collections.PoliteFollowupDays,
		FirmFollowupDays:   cfg.Collections.FirmFollowupDays,
	})
	productivityAgent := productivity.New(tasks, events, drafts, mirror, productivity.Config{
		WeeklyCapacityHours:  cfg.Productivity.WeeklyCapacityHours,
		UtilizationThreshold: cfg.Productivity.UtilizationThreshold,
		DeepWorkStartHour:    cfg.Productivity.DeepWorkStartHour,
		DeepWorkHours:        cfg.Productivity.DeepWorkHours,
	})
	taxAgent := tax.New(txns, drafts)
	run := runner.New(collectionsAgent, productivityAgent, taxAgent, invoices, txns, runner.Config{
		InvoiceScanLimit: cfg.SweepInvoiceLimit,
		TxnScanLimit:     cfg.SweepTxnLimit,
	})

	interval := time.Duration(cfg.SweepIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = time.Hour
	}
	log.Printf("sweeping every %s", interval)

	sweep(ctx, run, txns, notifier)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Print("shutting down")
			return
		case <-ticker.C:
			sweep(ctx, run, txns, notifier)
		}
	}
}

// sweep runs collections and tax once, then evaluates every known user's
// schedule, and sends the combined digest.
func sweep(ctx context.Context, run *runner.Runner, txns transaction.Store, notifier *notify.Telegram) {
	var proposals []agent.Proposal

	p, logs := run.RunCollections(ctx)
	proposals = append(proposals, p...)
	logLines(logs)

	p, logs = run.RunTax(ctx)
	proposals = append(proposals, p...)
	logLines(logs)

	users, err := txns.DistinctUsers(ctx)
	if err != nil {
		log.Printf("list users: %v", err)
	}
	for _, userID := range users {
		p, logs = run.RunProductivity(ctx, userID)
		proposals = append(proposals, p...)
		logLines(logs)
	}

	log.Printf("sweep complete: %d proposal(s)", len(proposals))
	if notifier != nil {
		if err := notifier.NotifyProposals(proposals); err != nil {
			log.Printf("notify: %v", err)
		}
	}
}

func logLines(lines []string) {
	for _, line := range lines {
		log.Print(line)
	}
}
