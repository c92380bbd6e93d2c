package domain

import "context"

// KeyValueStore is the persistent string-keyed, string-valued store the
// ledger and chat logs are flushed to. Get returns ErrKeyNotFound when the key
// is absent; callers treat that as the empty state.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Storage keys
const (
	WorkoutsKey = "workouts"
	ChatLogsKey = "chatLogs"
)
