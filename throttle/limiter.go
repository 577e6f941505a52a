package throttle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrThrottled matches any ThrottledError via errors.Is.
	ErrThrottled = errors.New("throttle: too many attempts")
	// ErrStoreUnavailable indicates the throttle backend is
	// unreachable.
	ErrStoreUnavailable = errors.New("throttle: store unavailable")
)

// ThrottledError reports an active lockout and how long the caller must
// wait before the next attempt is accepted.
type ThrottledError struct {
	RetryAfter time.Duration
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("too many attempts, retry in %s", e.RetryAfter)
}

// Is makes errors.Is(err, ErrThrottled) hold for any ThrottledError.
func (e *ThrottledError) Is(target error) bool {
	return target == ErrThrottled
}

// Entry is the tracked state for one key.
type Entry struct {
	Count       int64
	WindowStart time.Time
	LockUntil   time.Time
}

// Locked reports whether the entry is under lockout at the given time.
func (e Entry) Locked(now time.Time) bool {
	return !e.LockUntil.IsZero() && now.Before(e.LockUntil)
}

// Store persists attempt state. Implementations must apply Fail
// atomically per key so concurrent failures never lose counts.
type Store interface {
	// Fail records one failed attempt and returns the updated entry.
	// A fresh window starts when the key is absent, the previous
	// window has elapsed, or a previous lockout has expired. Reaching
	// maxAttempts within a window sets the lock. Failures during an
	// active lockout leave the entry unchanged.
	Fail(ctx context.Context, key string, now time.Time, window, lockout time.Duration, maxAttempts int64) (Entry, error)

	// Get returns the entry constraining attempts at the given time,
	// if any. Implementations may drop state that has stopped
	// mattering.
	Get(ctx context.Context, key string, now time.Time) (Entry, bool, error)

	// Reset deletes the key. Resetting an absent key is a no-op.
	Reset(ctx context.Context, key string) error
}

// Config holds the lockout policy parameters.
type Config struct {
	// MaxAttempts is the failure budget per window. Zero selects 5.
	MaxAttempts int64
	// Window is the sliding window length. Zero selects 15 minutes.
	Window time.Duration
	// Lockout is how long a key stays locked. Zero selects 15 minutes.
	Lockout time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.Window <= 0 {
		c.Window = 15 * time.Minute
	}
	if c.Lockout <= 0 {
		c.Lockout = 15 * time.Minute
	}
	return c
}

// Limiter applies the lockout policy on top of a Store. Safe for
// concurrent use when the store is.
type Limiter struct {
	store  Store
	config Config
	now    func() time.Time
}

// New creates a Limiter over the given store.
func New(store Store, cfg Config) *Limiter {
	return &Limiter{
		store:  store,
		config: cfg.withDefaults(),
		now:    time.Now,
	}
}

// Key builds the tracked key for a scope, client IP, and email. The
// email is normalized the same way the credential store normalizes it,
// so a throttled address cannot dodge the counter by changing case.
func Key(scope, ip, email string) string {
	return scope + ":" + ip + ":" + strings.ToLower(strings.TrimSpace(email))
}

// Check returns a ThrottledError when the key is locked, nil otherwise.
func (l *Limiter) Check(ctx context.Context, scope, ip, email string) error {
	now := l.now()
	entry, ok, err := l.store.Get(ctx, Key(scope, ip, email), now)
	if err != nil {
		return err
	}
	if ok && entry.Locked(now) {
		return &ThrottledError{RetryAfter: retryAfter(entry.LockUntil, now)}
	}
	return nil
}

// RecordFailure registers a failed attempt. When the failure triggers
// or coincides with a lockout, the returned error is a ThrottledError;
// the attempt itself is still counted.
func (l *Limiter) RecordFailure(ctx context.Context, scope, ip, email string) error {
	now := l.now()
	entry, err := l.store.Fail(ctx, Key(scope, ip, email), now, l.config.Window, l.config.Lockout, l.config.MaxAttempts)
	if err != nil {
		return err
	}
	if entry.Locked(now) {
		return &ThrottledError{RetryAfter: retryAfter(entry.LockUntil, now)}
	}
	return nil
}

// RecordSuccess clears all tracked state for the key.
func (l *Limiter) RecordSuccess(ctx context.Context, scope, ip, email string) error {
	return l.store.Reset(ctx, Key(scope, ip, email))
}

// retryAfter rounds up to whole seconds so a caller-facing Retry-After
// never understates the wait.
func retryAfter(lockUntil, now time.Time) time.Duration {
	d := lockUntil.Sub(now)
	if rem := d % time.Second; rem != 0 {
		d += time.Second - rem
	}
	if d < time.Second {
		d = time.Second
	}
	return d
}
