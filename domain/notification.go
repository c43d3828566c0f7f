package domain

import "time"

// MaxNotifications caps the activity feed. Appending beyond the cap
// evicts the oldest entries.
const MaxNotifications = 100

// Notification is one historical activity record. It stores only the
// rendered message, so it outlives the task that triggered it.
type Notification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read"`
}
