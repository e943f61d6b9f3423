package ratelimit

import (
	"context"
	"time"
)

// Record is the persisted usage window for one key (a client IP).
type Record struct {
	Key  string
	Uses []time.Time
}

// Store persists usage records by key. Implementations must treat an absent
// key as "no prior uses", not as an error.
type Store interface {
	Get(ctx context.Context, key string) (Record, bool, error)
	Put(ctx context.Context, record Record) error
}
