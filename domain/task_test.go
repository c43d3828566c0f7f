package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
)

func strPtr(s string) *string { return &s }

func priPtr(p Priority) *Priority { return &p }

func statPtr(s Status) *Status { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func TestTaskMarshalUsesWireFieldNames(t *testing.T) {
	due := time.Date(2024, 6, 7, 0, 0, 0, 0, time.UTC)
	task := Task{
		ID:       "t1",
		Title:    "Title",
		Priority: PriorityHigh,
		Status:   StatusToDo,
		DueDate:  &due,
		Subtasks: []Subtask{},
	}

	payload, err := sonic.Marshal(task)
	if err != nil {
		t.Fatalf("marshal task: %v", err)
	}

	for _, want := range []string{`"dueDate":"2024-06-07T00:00:00Z"`, `"status":"To Do"`, `"subtasks":[]`} {
		if !strings.Contains(string(payload), want) {
			t.Fatalf("expected payload to contain %s, got %s", want, payload)
		}
	}
	if strings.Contains(string(payload), "imageUrl") {
		t.Fatalf("expected empty image url to be omitted, got %s", payload)
	}
}

func TestPatchApplyReportsChange(t *testing.T) {
	task := Task{ID: "t1", Title: "Old", Priority: PriorityLow, Status: StatusToDo}

	patch := TaskPatch{Title: strPtr("New"), Priority: priPtr(PriorityHigh)}
	if !patch.Apply(&task) {
		t.Fatal("expected patch to report a change")
	}
	if task.Title != "New" || task.Priority != PriorityHigh {
		t.Fatalf("patch not applied: %+v", task)
	}
	if task.Status != StatusToDo {
		t.Fatalf("untouched field changed: %+v", task)
	}
}

func TestPatchApplyIsIdempotent(t *testing.T) {
	task := Task{ID: "t1", Title: "Old", Status: StatusToDo}
	patch := TaskPatch{Title: strPtr("New"), Status: statPtr(StatusDone)}

	if !patch.Apply(&task) {
		t.Fatal("first application should change the task")
	}
	first := task.Clone()
	if patch.Apply(&task) {
		t.Fatal("second identical application should be a no-op")
	}
	if task.Title != first.Title || task.Status != first.Status {
		t.Fatalf("task drifted on repeat application: %+v vs %+v", task, first)
	}
}

func TestPatchApplyNoOpValues(t *testing.T) {
	due := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	task := Task{
		ID:       "t1",
		Title:    "Same",
		Priority: PriorityMedium,
		Status:   StatusInProgress,
		DueDate:  &due,
		Subtasks: []Subtask{{ID: "s1", Text: "a"}},
	}
	patch := TaskPatch{
		Title:    strPtr("Same"),
		Priority: priPtr(PriorityMedium),
		DueDate:  timePtr(due),
		Subtasks: []Subtask{{ID: "s1", Text: "a"}},
	}
	if patch.Apply(&task) {
		t.Fatal("patch with identical values should not report a change")
	}
}

func TestPatchApplySubtasksReplacesOrder(t *testing.T) {
	task := Task{ID: "t1", Subtasks: []Subtask{{ID: "s1", Text: "a"}, {ID: "s2", Text: "b"}}}
	patch := TaskPatch{Subtasks: []Subtask{{ID: "s2", Text: "b"}, {ID: "s1", Text: "a"}}}
	if !patch.Apply(&task) {
		t.Fatal("reorder should count as a change")
	}
	if task.Subtasks[0].ID != "s2" {
		t.Fatalf("unexpected subtask order: %+v", task.Subtasks)
	}
}

func TestPriorityAndStatusValidity(t *testing.T) {
	for _, p := range []Priority{PriorityLow, PriorityMedium, PriorityHigh} {
		if !p.Valid() {
			t.Fatalf("priority %q should be valid", p)
		}
	}
	if Priority("Urgent").Valid() {
		t.Fatal("unknown priority should be invalid")
	}
	for _, s := range []Status{StatusToDo, StatusInProgress, StatusDone} {
		if !s.Valid() {
			t.Fatalf("status %q should be valid", s)
		}
	}
	if Status("Archived").Valid() {
		t.Fatal("unknown status should be invalid")
	}
}
