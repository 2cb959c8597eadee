package productivity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/VitthalGund/freelancer/pkg/agent"
	"github.com/VitthalGund/freelancer/pkg/event"
	"github.com/VitthalGund/freelancer/pkg/task"
)

// --- Mock stores ---

type mockTaskStore struct {
	upcoming []task.Task
	err      error
}

func (m *mockTaskStore) Create(_ context.Context, t *task.Task) (*task.Task, error) { return t, nil }
func (m *mockTaskStore) Get(_ context.Context, _ string) (*task.Task, error) {
	return nil, errors.New("not found")
}
func (m *mockTaskStore) Upcoming(_ context.Context, _ string, _, _ time.Time) ([]task.Task, error) {
	return m.upcoming, m.err
}
func (m *mockTaskStore) List(_ context.Context, _ string, _ int) ([]task.Task, error) {
	return m.upcoming, nil
}
func (m *mockTaskStore) SetPriority(_ context.Context, _, _ string) (*task.Task, error) {
	return nil, nil
}
func (m *mockTaskStore) Complete(_ context.Context, _ string) (*task.Task, error) { return nil, nil }
func (m *mockTaskStore) EnsureTable(_ context.Context) error                      { return nil }

type mockEventStore struct {
	inWindow []event.Event
	created  []*event.Event
}

func (m *mockEventStore) Create(_ context.Context, e *event.Event) (*event.Event, error) {
	e.EventID = "evt-1"
	m.created = append(m.created, e)
	return e, nil
}
func (m *mockEventStore) InWindow(_ context.Context, _ string, _, _ time.Time) ([]event.Event, error) {
	return m.inWindow, nil
}
func (m *mockEventStore) List(_ context.Context, _ string, _ int) ([]event.Event, error) {
	return m.inWindow, nil
}
func (m *mockEventStore) EnsureTable(_ context.Context) error { return nil }

type stubDrafter struct {
	text  string
	err   error
	calls int
}

func (s *stubDrafter) Generate(_ context.Context, _ string, _ int) (string, error) {
	s.calls++
	return s.text, s.err
}

type recordingMirror struct {
	mirrored []*event.Event
	err      error
}

func (m *recordingMirror) Mirror(_ context.Context, ev *event.Event) error {
	m.mirrored = append(m.mirrored, ev)
	return m.err
}

// --- Helpers ---

var testNow = time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

func newTestAgent(tasks *mockTaskStore, events *mockEventStore, drafter *stubDrafter, mirror EventMirror) *Agent {
	a := New(tasks, events, drafter, mirror, DefaultConfig())
	a.now = func() time.Time { return testNow }
	return a
}

func taskDue(id string, days int, hours float64) task.Task {
	return task.Task{ID: id, UserID: "u1", DueDate: testNow.Add(time.Duration(days) * 24 * time.Hour), EstHours: hours}
}

func findAction(actions []agent.Action, kind string) agent.Action {
	for _, a := range actions {
		if a.Kind() == kind {
			return a
		}
	}
	return nil
}

// --- Tests ---

func TestEvaluateHighUtilizationBlocksJobs(t *testing.T) {
	tasks := &mockTaskStore{upcoming: []task.Task{
		taskDue("t1", 1, 10), taskDue("t2", 2, 10), taskDue("t3", 3, 5),
	}}
	a := newTestAgent(tasks, &mockEventStore{}, &stubDrafter{text: "not json"}, nil)

	eval, err := a.Evaluate(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := eval.Utilization, 25.0/30.0; got != want {
		t.Errorf("utilization: want %v, got %v", want, got)
	}
	block := findAction(eval.Actions, "block_new_jobs")
	if block == nil {
		t.Fatal("expected block_new_jobs at 83% utilization")
	}
	if reason := block.(agent.BlockNewJobs).Reason; reason != "High utilization 83%" {
		t.Errorf("reason: got %q", reason)
	}
}

func TestEvaluateLowUtilizationNoBlock(t *testing.T) {
	tasks := &mockTaskStore{upcoming: []task.Task{taskDue("t1", 1, 10)}}
	a := newTestAgent(tasks, &mockEventStore{}, &stubDrafter{text: "not json"}, nil)

	eval, err := a.Evaluate(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	if findAction(eval.Actions, "block_new_jobs") != nil {
		t.Error("block_new_jobs must not fire at 33% utilization")
	}
	if findAction(eval.Actions, "create_deep_work_block") == nil {
		t.Error("expected a deep-work block with a free calendar")
	}
}

func TestEvaluateZeroEstimateCountsAsOneHour(t *testing.T) {
	tasks := &mockTaskStore{upcoming: []task.Task{taskDue("t1", 1, 0), taskDue("t2", 2, -2)}}
	a := newTestAgent(tasks, &mockEventStore{}, &stubDrafter{text: "not json"}, nil)

	eval, err := a.Evaluate(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := eval.Utilization, 2.0/30.0; got != want {
		t.Errorf("utilization: want %v, got %v", want, got)
	}
}

func TestEvaluateDeepWorkSuppressedByOverlap(t *testing.T) {
	// Tomorrow 09:00-11:00 is the candidate window; a 10:00-10:30 meeting
	// overlaps it.
	busyStart := time.Date(2025, 6, 3, 10, 0, 0, 0, time.UTC)
	events := &mockEventStore{inWindow: []event.Event{
		{EventID: "e1", UserID: "u1", StartTime: busyStart, EndTime: busyStart.Add(30 * time.Minute)},
	}}
	a := newTestAgent(&mockTaskStore{}, events, &stubDrafter{}, nil)

	eval, err := a.Evaluate(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	if findAction(eval.Actions, "create_deep_work_block") != nil {
		t.Error("deep-work block must be suppressed by an overlapping event")
	}
}

func TestEvaluateDeepWorkAllowsAdjacentEvent(t *testing.T) {
	// An event ending exactly at 09:00 does not overlap the half-open window.
	busyStart := time.Date(2025, 6, 3, 8, 0, 0, 0, time.UTC)
	events := &mockEventStore{inWindow: []event.Event{
		{EventID: "e1", UserID: "u1", StartTime: busyStart, EndTime: busyStart.Add(time.Hour)},
	}}
	a := newTestAgent(&mockTaskStore{}, events, &stubDrafter{}, nil)

	eval, err := a.Evaluate(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	block := findAction(eval.Actions, "create_deep_work_block")
	if block == nil {
		t.Fatal("adjacent event must not suppress the deep-work block")
	}
	dw := block.(agent.CreateDeepWorkBlock)
	wantStart := time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC)
	if !dw.Start.Equal(wantStart) || !dw.End.Equal(wantStart.Add(2*time.Hour)) {
		t.Errorf("window: got %v - %v", dw.Start, dw.End)
	}
	if dw.Title != "Deep Work - Focus Block" {
		t.Errorf("title: got %q", dw.Title)
	}
}

func TestEvaluateReprioritizeFallback(t *testing.T) {
	tasks := &mockTaskStore{upcoming: []task.Task{
		taskDue("later", 6, 1), taskDue("soon", 1, 1), taskDue("mid", 3, 1), taskDue("last", 7, 1),
	}}
	a := newTestAgent(tasks, &mockEventStore{}, &stubDrafter{text: "I think you should..."}, nil)

	eval, err := a.Evaluate(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	act := findAction(eval.Actions, "suggest_reprioritize")
	if act == nil {
		t.Fatal("expected a reprioritize suggestion")
	}
	sugg := act.(agent.SuggestReprioritize).Suggestions
	if len(sugg) != 3 {
		t.Fatalf("fallback picks: want 3, got %d", len(sugg))
	}
	if sugg[0].TaskID != "soon" || sugg[1].TaskID != "mid" || sugg[2].TaskID != "later" {
		t.Errorf("fallback order: got %v", sugg)
	}
	for _, s := range sugg {
		if s.SuggestedPriority != task.PriorityHigh {
			t.Errorf("fallback priority for %s: got %q", s.TaskID, s.SuggestedPriority)
		}
	}
}

func TestEvaluateReprioritizeParsesModelReply(t *testing.T) {
	tasks := &mockTaskStore{upcoming: []task.Task{taskDue("t1", 1, 1)}}
	drafter := &stubDrafter{text: `[{"taskId":"t1","suggestedPriority":"High"},{"taskId":"","suggestedPriority":"Low"}]`}
	a := newTestAgent(tasks, &mockEventStore{}, drafter, nil)

	eval, err := a.Evaluate(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	act := findAction(eval.Actions, "suggest_reprioritize")
	if act == nil {
		t.Fatal("expected a reprioritize suggestion")
	}
	sugg := act.(agent.SuggestReprioritize).Suggestions
	if len(sugg) != 1 || sugg[0].TaskID != "t1" {
		t.Errorf("suggestions: got %v", sugg)
	}
}

func TestEvaluateNoTasksNoSuggestion(t *testing.T) {
	drafter := &stubDrafter{text: `[]`}
	a := newTestAgent(&mockTaskStore{}, &mockEventStore{}, drafter, nil)

	eval, err := a.Evaluate(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	if findAction(eval.Actions, "suggest_reprioritize") != nil {
		t.Error("no tasks must mean no reprioritize suggestion")
	}
	if drafter.calls != 0 {
		t.Error("drafting must not be called with an empty task list")
	}
}

func TestExecuteCreatesDeepWorkBlock(t *testing.T) {
	events := &mockEventStore{}
	mirror := &recordingMirror{}
	a := newTestAgent(&mockTaskStore{}, events, &stubDrafter{}, mirror)

	start := time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC)
	res := a.Execute(context.Background(), "u1", agent.CreateDeepWorkBlock{
		Start: start, End: start.Add(2 * time.Hour), Title: "Deep Work - Focus Block",
	})
	if !res.OK {
		t.Fatalf("execute failed: %s", res.Message)
	}
	if len(events.created) != 1 {
		t.Fatalf("events created: want 1, got %d", len(events.created))
	}
	if got := events.created[0].EventType; got != "deep_work" {
		t.Errorf("event type: got %q", got)
	}
	if len(mirror.mirrored) != 1 {
		t.Error("executed block must be mirrored to the external calendar")
	}
}

func TestExecuteMirrorFailureStillSucceeds(t *testing.T) {
	mirror := &recordingMirror{err: errors.New("calendar unreachable")}
	a := newTestAgent(&mockTaskStore{}, &mockEventStore{}, &stubDrafter{}, mirror)

	start := time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC)
	res := a.Execute(context.Background(), "u1", agent.CreateDeepWorkBlock{Start: start, End: start.Add(time.Hour)})
	if !res.OK {
		t.Error("mirror failure must not fail the execution")
	}
}

func TestExecuteUnsupportedAction(t *testing.T) {
	events := &mockEventStore{}
	a := newTestAgent(&mockTaskStore{}, events, &stubDrafter{}, nil)

	res := a.Execute(context.Background(), "u1", agent.BlockNewJobs{Reason: "x"})
	if res.OK {
		t.Error("block_new_jobs must not auto-execute")
	}
	if res.Message != "Action not supported for auto-execution." {
		t.Errorf("message: got %q", res.Message)
	}
	if len(events.created) != 0 {
		t.Error("no event may be created for an unsupported action")
	}
}

func TestShouldEvaluate(t *testing.T) {
	a := newTestAgent(&mockTaskStore{}, &mockEventStore{}, &stubDrafter{}, nil)

	if !a.ShouldEvaluate("anything", false) {
		t.Error("no schedule data must always evaluate")
	}
	for _, trigger := range []string{TriggerTaskCreated, TriggerDeadlineApproaching, TriggerCalendarUpdated, TriggerJobAcceptAttempt} {
		if !a.ShouldEvaluate(trigger, true) {
			t.Errorf("trigger %q must evaluate", trigger)
		}
	}
	if a.ShouldEvaluate("unrelated", true) {
		t.Error("unrelated trigger with schedule data must not evaluate")
	}
}
