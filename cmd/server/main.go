// Command server runs the agent engine's HTTP API.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/VitthalGund/freelancer/internal/api"
	"github.com/VitthalGund/freelancer/internal/config"
	"github.com/VitthalGund/freelancer/internal/db"
	"github.com/VitthalGund/freelancer/internal/runner"
	"github.com/VitthalGund/freelancer/pkg/agent/collections"
	"github.com/VitthalGund/freelancer/pkg/agent/productivity"
	"github.com/VitthalGund/freelancer/pkg/agent/tax"
	"github.com/VitthalGund/freelancer/pkg/drafting"
	"github.com/VitthalGund/freelancer/pkg/event"
	"github.com/VitthalGund/freelancer/pkg/invoice"
	"github.com/VitthalGund/freelancer/pkg/task"
	"github.com/VitthalGund/freelancer/pkg/transaction"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmsgprefix)
	log.SetPrefix("server: ")

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx := context.Background()
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

	collectionsAgent := collections.New(invoices, drafts, collections.Config{
		PoliteDays:         cfg.Collections.PoliteDays,
		FirmDays:           cfg.Collections.FirmDays,
		LegalDays:          cfg.Collections.LegalDays,
		RiskThreshold:      cfg.Collections.RiskThreshold,
		PoliteFollowupDays: cfg.Collections.PoliteFollowupDays,
		FirmFollowupDays:   cfg.Collections.FirmFollowupDays,
	})
	productivityAgent := productivity.New(tasks, events, drafts, nil, productivity.Config{
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
	srv := api.New(run, productivityAgent, taxAgent, invoices, txns, tasks, events)

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Printf("listening on %s", addr)
	if err := http.ListenAndServe(addr, srv); err != nil {
		log.Fatalf("serve: %v", err)
	}
}
