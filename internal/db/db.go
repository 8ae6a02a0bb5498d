package db

import (
	"context"
	"time"
)

// Store is the key-value facade backing the response cache and the analytics
// sink. Consumers depend on the narrow sub-interfaces, not on Store.
type Store interface {
	Pinger
	KVStore
	ListStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks store connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	IncrBy(ctx context.Context, key string, val int64) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// ListStore provides capped-list operations for recent-event tracking.
type ListStore interface {
	LPush(ctx context.Context, key string, values ...[]byte) error
	LTrim(ctx context.Context, key string, start, stop int64) error
}
