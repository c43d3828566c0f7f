// Package store owns the in-memory task and notification collections for
// each signed-in user. A Session is created when a user's identity first
// appears, loaded (or seeded) from persistence, mutated during the session
// and written through after every change. Sign-out drops the session from
// memory; stored records are never deleted.
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"taskflow-api/domain"
)

type persistence interface {
	LoadTasks(ctx context.Context, userID string) ([]domain.Task, bool)
	SaveTasks(ctx context.Context, userID string, tasks []domain.Task)
	LoadNotifications(ctx context.Context, userID string) ([]domain.Notification, bool)
	SaveNotifications(ctx context.Context, userID string, notifications []domain.Notification)
}

// Manager hands out one Session per user and tears sessions down on
// sign-out.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	persist  persistence
	logger   *log.Logger
	now      func() time.Time
}

// NewManager creates a session manager over the given persistence layer.
func NewManager(persist persistence, logger *log.Logger) *Manager {
	if persist == nil {
		panic("store.NewManager: persistence is nil")
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Manager{
		sessions: make(map[string]*Session),
		persist:  persist,
		logger:   logger,
		now:      time.Now,
	}
}

// Session returns the user's active session, activating it from persistence
// on first use. A user with no stored tasks starts with the seed board.
func (m *Manager) Session(ctx context.Context, userID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[userID]; ok {
		return s
	}

	s := &Session{
		userID:  userID,
		persist: m.persist,
		logger:  m.logger,
		now:     m.now,
	}
	tasks, ok := m.persist.LoadTasks(ctx, userID)
	if !ok {
		tasks = domain.SeedTasks(m.now())
		m.persist.SaveTasks(ctx, userID, tasks)
	}
	s.tasks = tasks
	if notifications, ok := m.persist.LoadNotifications(ctx, userID); ok {
		s.notifications = notifications
	}

	m.sessions[userID] = s
	m.logger.WithField("user", userID).Debug("session activated")
	return s
}

// Deactivate clears the user's in-memory state. Stored records remain.
func (m *Manager) Deactivate(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[userID]; ok {
		delete(m.sessions, userID)
		m.logger.WithField("user", userID).Debug("session deactivated")
	}
}

// Session is the authoritative state for one user. All mutations run under
// a single mutex, so each operation is one atomic state transition, and
// every mutation writes through to persistence and appends its activity
// record before returning.
type Session struct {
	mu            sync.Mutex
	userID        string
	tasks         []domain.Task
	notifications []domain.Notification
	persist       persistence
	logger        *log.Logger
	now           func() time.Time
}

// TaskUpdate pairs a task id with the patch to apply, for batch updates.
type TaskUpdate struct {
	ID    string           `json:"id"`
	Patch domain.TaskPatch `json:"patch"`
}

// Tasks returns a copy of the task collection, newest first.
func (s *Session) Tasks() []domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Task, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = t.Clone()
	}
	return out
}

// CreateTask adds a new task at the front of the collection with a fresh
// id and an initial To Do status.
func (s *Session) CreateTask(ctx context.Context, draft domain.TaskDraft) domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	task := domain.Task{
		ID:          "task-" + uuid.NewString(),
		Title:       draft.Title,
		Description: draft.Description,
		Priority:    draft.Priority,
		Status:      domain.StatusToDo,
		Subtasks:    append([]domain.Subtask{}, draft.Subtasks...),
		ImageURL:    draft.ImageURL,
	}
	if draft.DueDate != nil {
		due := *draft.DueDate
		task.DueDate = &due
	}
	s.tasks = append([]domain.Task{task}, s.tasks...)
	s.appendNotificationLocked(ctx, fmt.Sprintf(`New task added: "%s"`, task.Title))
	s.persist.SaveTasks(ctx, s.userID, s.tasks)
	return task.Clone()
}

// UpdateTask merges the patch onto the task with the given id. An unknown
// id is a silent no-op, which also covers flow results arriving after the
// task was deleted. A notification fires only when at least one field
// value actually changed; completing a task gets its own message.
func (s *Session) UpdateTask(ctx context.Context, id string, patch domain.TaskPatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return false
	}
	task := &s.tasks[idx]
	priorStatus := task.Status
	changed := patch.Apply(task)

	switch {
	case patch.Status != nil && *patch.Status == domain.StatusDone && priorStatus != domain.StatusDone:
		s.appendNotificationLocked(ctx, fmt.Sprintf(`Task completed: "%s"`, task.Title))
	case changed:
		s.appendNotificationLocked(ctx, fmt.Sprintf(`Task updated: "%s"`, task.Title))
	}
	if changed {
		s.persist.SaveTasks(ctx, s.userID, s.tasks)
	}
	return true
}

// UpdateTasks applies a batch of patches as one state transition and emits
// a single re-prioritization notification. An empty batch is a no-op.
func (s *Session) UpdateTasks(ctx context.Context, updates []TaskUpdate) int {
	if len(updates) == 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	applied := 0
	for _, u := range updates {
		if idx := s.indexLocked(u.ID); idx >= 0 {
			u.Patch.Apply(&s.tasks[idx])
			applied++
		}
	}
	s.appendNotificationLocked(ctx, fmt.Sprintf("AI has re-prioritized %d tasks.", len(updates)))
	s.persist.SaveTasks(ctx, s.userID, s.tasks)
	return applied
}

// DeleteTask removes the task with the given id. Unknown ids are a silent
// no-op.
func (s *Session) DeleteTask(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return false
	}
	title := s.tasks[idx].Title
	s.tasks = append(s.tasks[:idx], s.tasks[idx+1:]...)
	s.appendNotificationLocked(ctx, fmt.Sprintf(`Task deleted: "%s"`, title))
	s.persist.SaveTasks(ctx, s.userID, s.tasks)
	return true
}

// MoveTask changes only the task's status, as drag-and-drop does.
func (s *Session) MoveTask(ctx context.Context, id string, status domain.Status) bool {
	return s.UpdateTask(ctx, id, domain.TaskPatch{Status: &status})
}

// Notifications returns a copy of the activity feed, newest first.
func (s *Session) Notifications() []domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Notification(nil), s.notifications...)
}

// MarkAllRead flags every notification as read. Idempotent.
func (s *Session) MarkAllRead(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	for i := range s.notifications {
		if !s.notifications[i].Read {
			s.notifications[i].Read = true
			changed = true
		}
	}
	if changed {
		s.persist.SaveNotifications(ctx, s.userID, s.notifications)
	}
}

// UnreadCount returns the number of unread notifications.
func (s *Session) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, n := range s.notifications {
		if !n.Read {
			count++
		}
	}
	return count
}

func (s *Session) appendNotificationLocked(ctx context.Context, message string) {
	n := domain.Notification{
		ID:        "notif-" + uuid.NewString(),
		Message:   message,
		Timestamp: s.now().UTC(),
	}
	s.notifications = append([]domain.Notification{n}, s.notifications...)
	if len(s.notifications) > domain.MaxNotifications {
		s.notifications = s.notifications[:domain.MaxNotifications]
	}
	s.persist.SaveNotifications(ctx, s.userID, s.notifications)
}

func (s *Session) indexLocked(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

