// Package productivity implements the schedule balancing agent. It computes
// 7-day utilization against a weekly capacity, proposes blocking new job
// intake when overloaded, offers a conflict-free deep-work block, and asks
// the drafting service for reprioritization suggestions with an
// earliest-due-date fallback.
package productivity

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/VitthalGund/freelancer/pkg/agent"
	"github.com/VitthalGund/freelancer/pkg/drafting"
	"github.com/VitthalGund/freelancer/pkg/event"
	"github.com/VitthalGund/freelancer/pkg/task"
)

// Trigger kinds recognized by ShouldEvaluate.
const (
	TriggerTaskCreated         = "task_created"
	TriggerDeadlineApproaching = "deadline_approaching"
	TriggerCalendarUpdated     = "calendar_updated"
	TriggerJobAcceptAttempt    = "job_accept_attempt"
)

const (
	deepWorkTitle         = "Deep Work - Focus Block"
	reprioritizeMaxTokens = 200
	maxPromptTasks        = 20
	maxFallbackPicks      = 3
	maxSuggestions        = 10
)

// Config holds the evaluator's capacity model.
type Config struct {
	WeeklyCapacityHours  float64
	UtilizationThreshold float64
	DeepWorkStartHour    int
	DeepWorkHours        int
}

// DefaultConfig returns the standard capacity model: 5 days of 6 billable
// hours, overload at 75%, a 2-hour focus block at 09:00.
func DefaultConfig() Config {
	return Config{
		WeeklyCapacityHours:  30,
		UtilizationThreshold: 0.75,
		DeepWorkStartHour:    9,
		DeepWorkHours:        2,
	}
}

// EventMirror pushes an executed schedule block to an external calendar.
// Mirroring is best effort; failures never fail the execution.
type EventMirror interface {
	Mirror(ctx context.Context, ev *event.Event) error
}

// Agent is the productivity agent. mirror may be nil.
type Agent struct {
	tasks  task.Store
	events event.Store
	drafts drafting.Service
	mirror EventMirror
	cfg    Config
	now    func() time.Time
}

// New creates a productivity agent. mirror may be nil when no external
// calendar is configured.
func New(tasks task.Store, events event.Store, drafts drafting.Service, mirror EventMirror, cfg Config) *Agent {
	return &Agent{tasks: tasks, events: events, drafts: drafts, mirror: mirror, cfg: cfg, now: time.Now}
}

// ShouldEvaluate reports whether the trigger warrants a schedule evaluation.
// With no prior schedule data the agent always evaluates.
func (a *Agent) ShouldEvaluate(eventType string, hasSchedule bool) bool {
	if !hasSchedule {
		return true
	}
	switch eventType {
	case TriggerTaskCreated, TriggerDeadlineApproaching, TriggerCalendarUpdated, TriggerJobAcceptAttempt:
		return true
	}
	return false
}

// Evaluation is the result of one schedule pass.
type Evaluation struct {
	Utilization float64        `json:"utilization"`
	Actions     []agent.Action `json:"actions"`
}

// Evaluate computes utilization over the next 7 days and collects the
// proposed actions.
func (a *Agent) Evaluate(ctx context.Context, userID string) (*Evaluation, error) {
	now := a.now()
	horizon := now.Add(7 * 24 * time.Hour)

	tasks, err := a.tasks.Upcoming(ctx, userID, now, horizon)
	if err != nil {
		return nil, fmt.Errorf("upcoming tasks: %w", err)
	}
	events, err := a.events.InWindow(ctx, userID, now, horizon)
	if err != nil {
		return nil, fmt.Errorf("events in window: %w", err)
	}

	var hours float64
	for _, t := range tasks {
		h := t.EstHours
		if h <= 0 {
			h = 1
		}
		hours += h
	}
	capacity := math.Max(1, a.cfg.WeeklyCapacityHours)

	eval := &Evaluation{Utilization: hours / capacity}

	if eval.Utilization >= a.cfg.UtilizationThreshold {
		eval.Actions = append(eval.Actions, agent.BlockNewJobs{
			Reason: fmt.Sprintf("High utilization %d%%", int(math.Round(eval.Utilization*100))),
		})
	}

	start, end := a.deepWorkWindow(now)
	if !overlapsAny(events, start, end) {
		eval.Actions = append(eval.Actions, agent.CreateDeepWorkBlock{Start: start, End: end, Title: deepWorkTitle})
	}

	if len(tasks) > 0 {
		if suggestions := a.suggestReprioritize(ctx, tasks); len(suggestions) > 0 {
			eval.Actions = append(eval.Actions, agent.SuggestReprioritize{
				Suggestions: suggestions,
				Message:     "Auto-prioritized by the productivity agent.",
			})
		}
	}

	return eval, nil
}

// deepWorkWindow returns tomorrow's candidate focus block.
func (a *Agent) deepWorkWindow(now time.Time) (time.Time, time.Time) {
	tomorrow := now.AddDate(0, 0, 1)
	start := time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), a.cfg.DeepWorkStartHour, 0, 0, 0, now.Location())
	return start, start.Add(time.Duration(a.cfg.DeepWorkHours) * time.Hour)
}

// overlapsAny applies the half-open interval test against every event.
func overlapsAny(events []event.Event, start, end time.Time) bool {
	for _, e := range events {
		if start.Before(e.EndTime) && end.After(e.StartTime) {
			return true
		}
	}
	return false
}

// suggestReprioritize asks the drafting service which tasks to bump to High
// priority. A failed or malformed reply falls back to the earliest due dates.
func (a *Agent) suggestReprioritize(ctx context.Context, tasks []task.Task) []agent.PrioritySuggestion {
	prompt := buildReprioritizePrompt(tasks)
	text, err := a.drafts.Generate(ctx, prompt, reprioritizeMaxTokens)
	if err != nil {
		log.Printf("productivity: reprioritize draft: %v", err)
		return fallbackSuggestions(tasks)
	}
	suggestions, ok := parseSuggestions(text)
	if !ok {
		return fallbackSuggestions(tasks)
	}
	return suggestions
}

func buildReprioritizePrompt(tasks []task.Task) string {
	if len(tasks) > maxPromptTasks {
		tasks = tasks[:maxPromptTasks]
	}
	type promptTask struct {
		ID       string  `json:"id"`
		DueDate  string  `json:"dueDate"`
		EstHours float64 `json:"est_hours"`
	}
	list := make([]promptTask, 0, len(tasks))
	for _, t := range tasks {
		list = append(list, promptTask{ID: t.ID, DueDate: t.DueDate.Format(time.RFC3339), EstHours: t.EstHours})
	}
	listJSON, _ := json.Marshal(list)
	return fmt.Sprintf(`You are a productivity assistant. Given tasks (id, est_hours, dueDate), propose three tasks to mark HIGH priority to avoid missed deadlines. Return JSON array: [{"taskId":"..","suggestedPriority":"High"}].
Tasks: %s`, listJSON)
}

// parseSuggestions decodes the expected JSON array; ok=false means the
// deterministic fallback should be used instead.
func parseSuggestions(text string) ([]agent.PrioritySuggestion, bool) {
	var parsed []agent.PrioritySuggestion
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &parsed); err != nil {
		return nil, false
	}
	valid := parsed[:0]
	for _, s := range parsed {
		if s.TaskID == "" {
			continue
		}
		if s.SuggestedPriority == "" {
			s.SuggestedPriority = task.PriorityHigh
		}
		valid = append(valid, s)
	}
	if len(valid) > maxSuggestions {
		valid = valid[:maxSuggestions]
	}
	return valid, true
}

// fallbackSuggestions marks the earliest-due tasks High priority.
func fallbackSuggestions(tasks []task.Task) []agent.PrioritySuggestion {
	sorted := make([]task.Task, len(tasks))
	copy(sorted, tasks)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].DueDate.Before(sorted[j].DueDate) })

	n := maxFallbackPicks
	if len(sorted) < n {
		n = len(sorted)
	}
	suggestions := make([]agent.PrioritySuggestion, 0, n)
	for _, t := range sorted[:n] {
		suggestions = append(suggestions, agent.PrioritySuggestion{TaskID: t.ID, SuggestedPriority: task.PriorityHigh})
	}
	return suggestions
}

// Result is the structured outcome of Execute. An unsupported kind is an
// expected caller-side routing miss, not an error.
type Result struct {
	OK      bool   `json:"success"`
	Message string `json:"message"`
}

// Execute performs an auto-executable action. Only create_deep_work_block is
// supported; everything else must go through a human path.
func (a *Agent) Execute(ctx context.Context, userID string, act agent.Action) Result {
	block, ok := act.(agent.CreateDeepWorkBlock)
	if !ok {
		return Result{Message: "Action not supported for auto-execution."}
	}

	created, err := a.events.Create(ctx, &event.Event{
		UserID:      userID,
		Title:       block.Title,
		StartTime:   block.Start,
		EndTime:     block.End,
		EventType:   "deep_work",
		Description: "Focused work block created by the productivity agent",
	})
	if err != nil {
		log.Printf("productivity: create deep work block: %v", err)
		return Result{Message: "Failed to create event."}
	}

	if a.mirror != nil {
		if err := a.mirror.Mirror(ctx, created); err != nil {
			log.Printf("productivity: mirror event %s: %v", created.EventID, err)
		}
	}

	return Result{OK: true, Message: "Deep work block created."}
}
