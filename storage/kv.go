package storage

import "context"

// KV is the minimal key-value port the persistence layer is built on. Any
// durable string store can back it.
type KV interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set writes the value, replacing any previous one.
	Set(ctx context.Context, key string, value string) error
}

const keyPrefix = "taskflow"

func tasksKey(userID string) string {
	return keyPrefix + ":tasks:" + userID
}

func notificationsKey(userID string) string {
	return keyPrefix + ":notifications:" + userID
}
