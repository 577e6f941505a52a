package throttle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client)
}

func TestRedisFailLocksAtBudget(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	var entry Entry
	var err error
	for i := 0; i < 5; i++ {
		entry, err = store.Fail(ctx, "login:1.2.3.4:a@b.com", base.Add(time.Duration(i)*time.Second), 15*time.Minute, 15*time.Minute, 5)
		if err != nil {
			t.Fatalf("Fail: %v", err)
		}
	}

	if entry.Count != 5 {
		t.Fatalf("expected count 5, got %d", entry.Count)
	}
	lockedAt := base.Add(4 * time.Second)
	if !entry.Locked(lockedAt) {
		t.Fatal("expected lock after 5 failures")
	}
	if want := lockedAt.Add(15 * time.Minute); !entry.LockUntil.Equal(want) {
		t.Fatalf("expected lock until %v, got %v", want, entry.LockUntil)
	}
}

func TestRedisFailDuringLockLeavesEntryUnchanged(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		if _, err := store.Fail(ctx, "k", base, 15*time.Minute, 15*time.Minute, 5); err != nil {
			t.Fatalf("Fail: %v", err)
		}
	}

	entry, err := store.Fail(ctx, "k", base.Add(10*time.Minute), 15*time.Minute, 15*time.Minute, 5)
	if err != nil {
		t.Fatalf("Fail: %v", err)
	}
	if entry.Count != 5 {
		t.Fatalf("lockout failure changed count to %d", entry.Count)
	}
	if want := base.Add(15 * time.Minute); !entry.LockUntil.Equal(want) {
		t.Fatalf("lockout was extended to %v", entry.LockUntil)
	}
}

func TestRedisFailAfterWindowStartsFresh(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		if _, err := store.Fail(ctx, "k", base, 15*time.Minute, 15*time.Minute, 5); err != nil {
			t.Fatalf("Fail: %v", err)
		}
	}

	entry, err := store.Fail(ctx, "k", base.Add(15*time.Minute), 15*time.Minute, 15*time.Minute, 5)
	if err != nil {
		t.Fatalf("Fail: %v", err)
	}
	if entry.Count != 1 {
		t.Fatalf("expected fresh window count 1, got %d", entry.Count)
	}
	if !entry.LockUntil.IsZero() {
		t.Fatalf("unexpected lock %v", entry.LockUntil)
	}
}

func TestRedisFailAfterExpiredLockStartsFresh(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		if _, err := store.Fail(ctx, "k", base, 15*time.Minute, 15*time.Minute, 5); err != nil {
			t.Fatalf("Fail: %v", err)
		}
	}

	entry, err := store.Fail(ctx, "k", base.Add(16*time.Minute), 15*time.Minute, 15*time.Minute, 5)
	if err != nil {
		t.Fatalf("Fail: %v", err)
	}
	if entry.Count != 1 || !entry.LockUntil.IsZero() {
		t.Fatalf("expected fresh entry after expired lock, got %+v", entry)
	}
}

func TestRedisGetAndReset(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	if _, ok, err := store.Get(ctx, "k", base); err != nil || ok {
		t.Fatalf("expected absent key, got ok=%v err=%v", ok, err)
	}

	if _, err := store.Fail(ctx, "k", base, 15*time.Minute, 15*time.Minute, 5); err != nil {
		t.Fatalf("Fail: %v", err)
	}

	entry, ok, err := store.Get(ctx, "k", base)
	if err != nil || !ok {
		t.Fatalf("expected present key, got ok=%v err=%v", ok, err)
	}
	if entry.Count != 1 || !entry.WindowStart.Equal(base) {
		t.Fatalf("unexpected entry %+v", entry)
	}

	if err := store.Reset(ctx, "k"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if _, ok, err := store.Get(ctx, "k", base); err != nil || ok {
		t.Fatalf("expected key gone after reset, got ok=%v err=%v", ok, err)
	}

	// Resetting an absent key is a no-op.
	if err := store.Reset(ctx, "k"); err != nil {
		t.Fatalf("Reset absent: %v", err)
	}
}

func TestRedisBackedLimiter(t *testing.T) {
	store := newTestRedisStore(t)
	l := New(store, Config{})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		l.RecordFailure(ctx, "login", "1.2.3.4", "a@b.com")
	}
	if err := l.Check(ctx, "login", "1.2.3.4", "a@b.com"); !errors.Is(err, ErrThrottled) {
		t.Fatalf("expected throttle, got %v", err)
	}

	if err := l.RecordSuccess(ctx, "login", "1.2.3.4", "a@b.com"); err != nil {
		t.Fatalf("RecordSuccess: %v", err)
	}
	if err := l.Check(ctx, "login", "1.2.3.4", "a@b.com"); err != nil {
		t.Fatalf("expected cleared state, got %v", err)
	}
}
