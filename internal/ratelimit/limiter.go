package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// retentionMargin is how many timestamps beyond the allowance are kept per
// key, for diagnostics, before the record is trimmed.
const retentionMargin = 15

// ErrInvalidConfig marks a malformed limiter configuration. The gate fails
// closed on it: a misconfigured deployment denies rather than admitting
// everyone.
var ErrInvalidConfig = errors.New("ratelimit: invalid configuration")

// Config describes one sliding-window allowance: AllowedUses events per
// trailing Window·Unit.
type Config struct {
	AllowedUses int
	Window      int
	Unit        Unit
}

// Validate reports whether the configuration describes a usable window.
func (c Config) Validate() error {
	if c.AllowedUses <= 0 {
		return fmt.Errorf("%w: allowed uses must be positive, got %d", ErrInvalidConfig, c.AllowedUses)
	}
	if _, err := Cutoff(time.Unix(0, 0), c.Window, c.Unit); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Limiter is a sliding-window admission gate over a keyed store.
//
// Admit and RecordUse are two separate store operations: concurrent requests
// from the same key can both observe an under-threshold count, both be
// admitted and both record, briefly exceeding the allowance. The bound is
// best-effort, not exact.
type Limiter struct {
	store Store
	cfg   Config
	now   func() time.Time
}

// Option configures Limiter behavior.
type Option func(*Limiter)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(l *Limiter) {
		if fn != nil {
			l.now = fn
		}
	}
}

// New constructs a limiter. An invalid config is not rejected here; every
// Admit call re-checks it and denies, so a bad deployment stays closed
// instead of crashing registration entirely.
func New(store Store, cfg Config, opts ...Option) *Limiter {
	l := &Limiter{store: store, cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Admit reports whether the key may perform another use right now. A missing
// record admits. A store failure or invalid config denies.
func (l *Limiter) Admit(ctx context.Context, key string) (bool, error) {
	if err := l.cfg.Validate(); err != nil {
		return false, err
	}
	record, found, err := l.store.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("load rate window for %q: %w", key, err)
	}
	if !found {
		return true, nil
	}
	cutoff, err := Cutoff(l.now(), l.cfg.Window, l.cfg.Unit)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return CountWithin(record.Uses, cutoff) < l.cfg.AllowedUses, nil
}

// RecordUse appends the current instant to the key's window. Call it only
// after the admitted side effect succeeded; denials must not record. The
// stored sequence is trimmed to the most recent AllowedUses plus the
// retention margin.
func (l *Limiter) RecordUse(ctx context.Context, key string) error {
	record, _, err := l.store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("load rate window for %q: %w", key, err)
	}
	record.Key = key
	record.Uses = Trim(append(record.Uses, l.now()), l.cfg.AllowedUses+retentionMargin)
	if err := l.store.Put(ctx, record); err != nil {
		return fmt.Errorf("store rate window for %q: %w", key, err)
	}
	return nil
}
