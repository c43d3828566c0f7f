package store

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"

	"taskflow-api/domain"
)

type stubPersistence struct {
	tasks         map[string][]domain.Task
	notifications map[string][]domain.Notification
	taskSaves     int
	notifSaves    int
}

func newStubPersistence() *stubPersistence {
	return &stubPersistence{
		tasks:         make(map[string][]domain.Task),
		notifications: make(map[string][]domain.Notification),
	}
}

func (p *stubPersistence) LoadTasks(ctx context.Context, userID string) ([]domain.Task, bool) {
	tasks, ok := p.tasks[userID]
	return tasks, ok
}

func (p *stubPersistence) SaveTasks(ctx context.Context, userID string, tasks []domain.Task) {
	p.taskSaves++
	p.tasks[userID] = append([]domain.Task(nil), tasks...)
}

func (p *stubPersistence) LoadNotifications(ctx context.Context, userID string) ([]domain.Notification, bool) {
	ns, ok := p.notifications[userID]
	return ns, ok
}

func (p *stubPersistence) SaveNotifications(ctx context.Context, userID string, ns []domain.Notification) {
	p.notifSaves++
	p.notifications[userID] = append([]domain.Notification(nil), ns...)
}

func newTestManager(t *testing.T) (*Manager, *stubPersistence) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	persist := newStubPersistence()
	return NewManager(persist, logger), persist
}

func newTestSession(t *testing.T) (*Session, *stubPersistence) {
	t.Helper()
	m, persist := newTestManager(t)
	// Start empty rather than with the seed board.
	persist.tasks["u1"] = nil
	return m.Session(context.Background(), "u1"), persist
}

func latestMessage(t *testing.T, s *Session) string {
	t.Helper()
	ns := s.Notifications()
	if len(ns) == 0 {
		t.Fatal("expected at least one notification")
	}
	return ns[0].Message
}

func TestSessionSeededForNewUser(t *testing.T) {
	m, persist := newTestManager(t)
	s := m.Session(context.Background(), "fresh")

	tasks := s.Tasks()
	if len(tasks) != 5 {
		t.Fatalf("expected seed board of 5 tasks, got %d", len(tasks))
	}
	if len(persist.tasks["fresh"]) != 5 {
		t.Fatal("seed board should be persisted immediately")
	}
	if len(s.Notifications()) != 0 {
		t.Fatal("new user should start with an empty feed")
	}
}

func TestSessionLoadsExistingState(t *testing.T) {
	m, persist := newTestManager(t)
	persist.tasks["u1"] = []domain.Task{{ID: "t1", Title: "existing", Subtasks: []domain.Subtask{}}}
	persist.notifications["u1"] = []domain.Notification{{ID: "n1", Message: "old", Read: true}}

	s := m.Session(context.Background(), "u1")
	if got := s.Tasks(); len(got) != 1 || got[0].ID != "t1" {
		t.Fatalf("unexpected tasks: %+v", got)
	}
	if got := s.Notifications(); len(got) != 1 || got[0].ID != "n1" {
		t.Fatalf("unexpected notifications: %+v", got)
	}
}

func TestSessionReusedUntilDeactivated(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	first := m.Session(ctx, "u1")
	first.CreateTask(ctx, domain.TaskDraft{Title: "keep me", Priority: domain.PriorityLow})

	if second := m.Session(ctx, "u1"); second != first {
		t.Fatal("expected the same session while active")
	}

	m.Deactivate("u1")
	third := m.Session(ctx, "u1")
	if third == first {
		t.Fatal("expected a fresh session after deactivation")
	}
	// State survives deactivation through persistence.
	if got := third.Tasks(); len(got) == 0 || got[0].Title != "keep me" {
		t.Fatalf("expected reloaded state, got %+v", got)
	}
}

func TestCreateTaskAssignsDistinctIDs(t *testing.T) {
	s, _ := newTestSession(t)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		task := s.CreateTask(ctx, domain.TaskDraft{Title: "t", Priority: domain.PriorityMedium})
		if task.ID == "" || seen[task.ID] {
			t.Fatalf("duplicate or empty id %q at iteration %d", task.ID, i)
		}
		seen[task.ID] = true
		if task.Status != domain.StatusToDo {
			t.Fatalf("new task should start in To Do, got %q", task.Status)
		}
	}
}

func TestCreateTaskPrependsAndNotifies(t *testing.T) {
	s, persist := newTestSession(t)
	ctx := context.Background()

	s.CreateTask(ctx, domain.TaskDraft{Title: "first", Priority: domain.PriorityLow})
	s.CreateTask(ctx, domain.TaskDraft{Title: "second", Priority: domain.PriorityLow})

	tasks := s.Tasks()
	if tasks[0].Title != "second" || tasks[1].Title != "first" {
		t.Fatalf("expected newest-first ordering, got %+v", tasks)
	}
	if got := latestMessage(t, s); got != `New task added: "second"` {
		t.Fatalf("unexpected message %q", got)
	}
	if persist.taskSaves == 0 || persist.notifSaves == 0 {
		t.Fatal("mutations must write through to persistence")
	}
}

func TestUpdateTaskUnknownIDIsSilentNoOp(t *testing.T) {
	s, _ := newTestSession(t)
	ctx := context.Background()

	title := "ghost"
	if s.UpdateTask(ctx, "missing", domain.TaskPatch{Title: &title}) {
		t.Fatal("expected update of unknown id to report not found")
	}
	if len(s.Notifications()) != 0 {
		t.Fatal("no-op update must not emit a notification")
	}
}

func TestUpdateTaskDoneTransitionMessage(t *testing.T) {
	s, _ := newTestSession(t)
	ctx := context.Background()
	task := s.CreateTask(ctx, domain.TaskDraft{Title: "Ship it", Priority: domain.PriorityHigh})

	done := domain.StatusDone
	s.UpdateTask(ctx, task.ID, domain.TaskPatch{Status: &done})
	if got := latestMessage(t, s); got != `Task completed: "Ship it"` {
		t.Fatalf("expected completed message, got %q", got)
	}

	// Already done: repeating the same patch changes nothing and stays quiet.
	before := len(s.Notifications())
	s.UpdateTask(ctx, task.ID, domain.TaskPatch{Status: &done})
	if len(s.Notifications()) != before {
		t.Fatal("no-change patch must not emit a notification")
	}

	// Already done with another changed field: generic updated message.
	desc := "now with docs"
	s.UpdateTask(ctx, task.ID, domain.TaskPatch{Status: &done, Description: &desc})
	if got := latestMessage(t, s); got != `Task updated: "Ship it"` {
		t.Fatalf("expected updated message, got %q", got)
	}
}

func TestUpdateTaskIdempotentPatch(t *testing.T) {
	s, _ := newTestSession(t)
	ctx := context.Background()
	task := s.CreateTask(ctx, domain.TaskDraft{Title: "t", Priority: domain.PriorityLow})

	pri := domain.PriorityHigh
	patch := domain.TaskPatch{Priority: &pri}

	s.UpdateTask(ctx, task.ID, patch)
	afterFirst := s.Tasks()[0]
	notifsAfterFirst := len(s.Notifications())

	s.UpdateTask(ctx, task.ID, patch)
	afterSecond := s.Tasks()[0]

	if afterFirst.Priority != afterSecond.Priority || afterSecond.Priority != domain.PriorityHigh {
		t.Fatalf("repeated patch changed state: %+v vs %+v", afterFirst, afterSecond)
	}
	if len(s.Notifications()) != notifsAfterFirst {
		t.Fatal("identical patch must notify once, not per call")
	}
}

func TestUpdateTasksBatch(t *testing.T) {
	s, _ := newTestSession(t)
	ctx := context.Background()

	if s.UpdateTasks(ctx, nil) != 0 {
		t.Fatal("empty batch should be a no-op")
	}
	if len(s.Notifications()) != 0 {
		t.Fatal("empty batch must not emit a notification")
	}

	a := s.CreateTask(ctx, domain.TaskDraft{Title: "a", Priority: domain.PriorityLow})
	b := s.CreateTask(ctx, domain.TaskDraft{Title: "b", Priority: domain.PriorityLow})
	feedBefore := len(s.Notifications())

	high := domain.PriorityHigh
	medium := domain.PriorityMedium
	applied := s.UpdateTasks(ctx, []TaskUpdate{
		{ID: a.ID, Patch: domain.TaskPatch{Priority: &high}},
		{ID: b.ID, Patch: domain.TaskPatch{Priority: &medium}},
	})
	if applied != 2 {
		t.Fatalf("expected 2 applied updates, got %d", applied)
	}
	if got := len(s.Notifications()); got != feedBefore+1 {
		t.Fatalf("batch must emit exactly one notification, feed grew by %d", got-feedBefore)
	}
	if got := latestMessage(t, s); got != "AI has re-prioritized 2 tasks." {
		t.Fatalf("unexpected batch message %q", got)
	}

	tasks := s.Tasks()
	if tasks[0].Priority != domain.PriorityMedium || tasks[1].Priority != domain.PriorityHigh {
		t.Fatalf("batch not applied: %+v", tasks)
	}
}

func TestDeleteTask(t *testing.T) {
	s, _ := newTestSession(t)
	ctx := context.Background()
	task := s.CreateTask(ctx, domain.TaskDraft{Title: "doomed", Priority: domain.PriorityLow})

	if !s.DeleteTask(ctx, task.ID) {
		t.Fatal("expected delete to find the task")
	}
	if got := latestMessage(t, s); got != `Task deleted: "doomed"` {
		t.Fatalf("unexpected message %q", got)
	}
	if len(s.Tasks()) != 0 {
		t.Fatal("task not removed")
	}

	before := len(s.Notifications())
	if s.DeleteTask(ctx, task.ID) {
		t.Fatal("second delete should be a no-op")
	}
	if len(s.Notifications()) != before {
		t.Fatal("no-op delete must not emit a notification")
	}
}

func TestMoveTask(t *testing.T) {
	s, _ := newTestSession(t)
	ctx := context.Background()
	task := s.CreateTask(ctx, domain.TaskDraft{Title: "t", Priority: domain.PriorityLow})

	if !s.MoveTask(ctx, task.ID, domain.StatusInProgress) {
		t.Fatal("expected move to succeed")
	}
	if got := s.Tasks()[0].Status; got != domain.StatusInProgress {
		t.Fatalf("unexpected status %q", got)
	}
	if got := latestMessage(t, s); got != `Task updated: "t"` {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestNotificationCapEvictsOldest(t *testing.T) {
	s, _ := newTestSession(t)
	ctx := context.Background()

	for i := 0; i < domain.MaxNotifications+10; i++ {
		s.CreateTask(ctx, domain.TaskDraft{Title: "task " + strings.Repeat("x", i%3), Priority: domain.PriorityLow})
	}

	ns := s.Notifications()
	if len(ns) != domain.MaxNotifications {
		t.Fatalf("expected feed capped at %d, got %d", domain.MaxNotifications, len(ns))
	}
	// Newest first: entries must be in non-increasing timestamp order and the
	// oldest appends must be gone.
	for i := 1; i < len(ns); i++ {
		if ns[i].Timestamp.After(ns[i-1].Timestamp) {
			t.Fatal("feed not ordered newest first")
		}
	}
}

func TestMarkAllReadAndUnreadCount(t *testing.T) {
	s, persist := newTestSession(t)
	ctx := context.Background()

	s.CreateTask(ctx, domain.TaskDraft{Title: "a", Priority: domain.PriorityLow})
	s.CreateTask(ctx, domain.TaskDraft{Title: "b", Priority: domain.PriorityLow})
	if got := s.UnreadCount(); got != 2 {
		t.Fatalf("expected 2 unread, got %d", got)
	}

	s.MarkAllRead(ctx)
	if got := s.UnreadCount(); got != 0 {
		t.Fatalf("expected 0 unread, got %d", got)
	}

	saves := persist.notifSaves
	s.MarkAllRead(ctx)
	if persist.notifSaves != saves {
		t.Fatal("idempotent mark-all-read should not rewrite storage")
	}
}

func TestTasksReturnsCopies(t *testing.T) {
	s, _ := newTestSession(t)
	ctx := context.Background()
	due := time.Date(2024, 6, 7, 0, 0, 0, 0, time.UTC)
	s.CreateTask(ctx, domain.TaskDraft{
		Title:    "t",
		Priority: domain.PriorityLow,
		DueDate:  &due,
		Subtasks: []domain.Subtask{{ID: "s1", Text: "x"}},
	})

	leaked := s.Tasks()
	leaked[0].Title = "mutated"
	leaked[0].Subtasks[0].Text = "mutated"
	*leaked[0].DueDate = time.Time{}

	clean := s.Tasks()[0]
	if clean.Title != "t" || clean.Subtasks[0].Text != "x" || !clean.DueDate.Equal(due) {
		t.Fatalf("internal state mutated through returned copy: %+v", clean)
	}
}
