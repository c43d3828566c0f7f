package domain

import "time"

// Priority ranks how urgent a task is.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Status places a task in a board column.
type Status string

const (
	StatusToDo       Status = "To Do"
	StatusInProgress Status = "In Progress"
	StatusDone       Status = "Done"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusToDo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Subtask is a single checklist line inside a task. Its ID is unique only
// within the parent task.
type Subtask struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// Task represents a single unit of work on the board.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    Priority   `json:"priority"`
	Status      Status     `json:"status"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Subtasks    []Subtask  `json:"subtasks"`
	ImageURL    string     `json:"imageUrl,omitempty"`
}

// TaskDraft carries the caller-supplied fields for a new task. The store
// assigns the ID and initial status.
type TaskDraft struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    Priority   `json:"priority"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Subtasks    []Subtask  `json:"subtasks,omitempty"`
	ImageURL    string     `json:"imageUrl,omitempty"`
}

// TaskPatch is a partial task update. Nil fields leave the corresponding
// task field unchanged.
type TaskPatch struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Priority    *Priority  `json:"priority,omitempty"`
	Status      *Status    `json:"status,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Subtasks    []Subtask  `json:"subtasks,omitempty"`
	ImageURL    *string    `json:"imageUrl,omitempty"`
}

// Apply merges the patch onto t and reports whether any field value
// actually changed. Setting a field to its current value does not count
// as a change.
func (p TaskPatch) Apply(t *Task) bool {
	changed := false
	if p.Title != nil && *p.Title != t.Title {
		t.Title = *p.Title
		changed = true
	}
	if p.Description != nil && *p.Description != t.Description {
		t.Description = *p.Description
		changed = true
	}
	if p.Priority != nil && *p.Priority != t.Priority {
		t.Priority = *p.Priority
		changed = true
	}
	if p.Status != nil && *p.Status != t.Status {
		t.Status = *p.Status
		changed = true
	}
	if p.DueDate != nil && !equalTimePtr(t.DueDate, p.DueDate) {
		due := *p.DueDate
		t.DueDate = &due
		changed = true
	}
	if p.Subtasks != nil && !EqualSubtasks(t.Subtasks, p.Subtasks) {
		t.Subtasks = append([]Subtask(nil), p.Subtasks...)
		changed = true
	}
	if p.ImageURL != nil && *p.ImageURL != t.ImageURL {
		t.ImageURL = *p.ImageURL
		changed = true
	}
	return changed
}

// EqualSubtasks compares two subtask lists field by field, order included.
func EqualSubtasks(a, b []Subtask) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// Clone returns a deep copy of the task.
func (t Task) Clone() Task {
	out := t
	if t.DueDate != nil {
		due := *t.DueDate
		out.DueDate = &due
	}
	out.Subtasks = append([]Subtask(nil), t.Subtasks...)
	return out
}
