package storage

import (
	"context"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"

	"taskflow-api/domain"
)

// Store persists each user's task and notification collections through the
// KV port. Records are JSON documents with RFC 3339 date fields, so a
// save/load round trip reconstructs due dates and timestamps as real times.
//
// Persistence is deliberately forgiving: a record that is missing or fails
// to parse yields an empty result so the caller can fall back to a seed
// state, and write failures are logged without interrupting the session.
// The in-memory collections stay authoritative either way.
type Store struct {
	kv     KV
	logger *log.Logger
}

// New creates a Store over the given key-value backend.
func New(kv KV, logger *log.Logger) *Store {
	if kv == nil {
		panic("storage.New: kv backend is nil")
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Store{kv: kv, logger: logger}
}

// LoadTasks returns the stored task collection for the user. The second
// return value is false when no usable record exists.
func (s *Store) LoadTasks(ctx context.Context, userID string) ([]domain.Task, bool) {
	raw, ok, err := s.kv.Get(ctx, tasksKey(userID))
	if err != nil {
		s.logger.WithError(err).WithField("user", userID).Error("load tasks failed")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var tasks []domain.Task
	if err := sonic.UnmarshalString(raw, &tasks); err != nil {
		s.logger.WithError(err).WithField("user", userID).Error("tasks record corrupted, discarding")
		return nil, false
	}
	for i := range tasks {
		if tasks[i].Subtasks == nil {
			tasks[i].Subtasks = []domain.Subtask{}
		}
	}
	return tasks, true
}

// SaveTasks writes the task collection. Failures are logged only; the
// in-memory state remains the source of truth.
func (s *Store) SaveTasks(ctx context.Context, userID string, tasks []domain.Task) {
	s.save(ctx, userID, tasksKey(userID), "tasks", tasks)
}

// LoadNotifications returns the stored notification feed for the user.
func (s *Store) LoadNotifications(ctx context.Context, userID string) ([]domain.Notification, bool) {
	raw, ok, err := s.kv.Get(ctx, notificationsKey(userID))
	if err != nil {
		s.logger.WithError(err).WithField("user", userID).Error("load notifications failed")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var notifications []domain.Notification
	if err := sonic.UnmarshalString(raw, &notifications); err != nil {
		s.logger.WithError(err).WithField("user", userID).Error("notifications record corrupted, discarding")
		return nil, false
	}
	if len(notifications) > domain.MaxNotifications {
		notifications = notifications[:domain.MaxNotifications]
	}
	return notifications, true
}

// SaveNotifications writes the notification feed. Failures are logged only.
func (s *Store) SaveNotifications(ctx context.Context, userID string, notifications []domain.Notification) {
	s.save(ctx, userID, notificationsKey(userID), "notifications", notifications)
}

func (s *Store) save(ctx context.Context, userID, key, kind string, collection any) {
	raw, err := sonic.MarshalString(collection)
	if err != nil {
		s.logger.WithError(err).WithFields(log.Fields{"user": userID, "kind": kind}).Error("encode failed")
		return
	}
	if err := s.kv.Set(ctx, key, raw); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{"user": userID, "kind": kind}).Error("save failed")
	}
}
