package throttle

import (
	"context"
	"sync"
	"time"
)

// sweepThreshold is the map size past which Fail drops every entry
// that has stopped mattering. Adversarial key churn, distinct
// (IP, email) pairs failing once each, must not grow the map without
// bound.
const sweepThreshold = 1024

// memoryEntry pairs the tracked state with the instant it stops
// constraining attempts, whichever of the window or the lock ends
// last.
type memoryEntry struct {
	Entry
	expires time.Time
}

// MemoryStore is an in-process Store. Entries are dropped once they no
// longer constrain attempts: lazily on Get, and in bulk when the map
// grows past sweepThreshold. State is lost on restart, which only
// shortens a lockout, never extends one.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

// Fail implements Store.
func (s *MemoryStore) Fail(_ context.Context, key string, now time.Time, window, lockout time.Duration, maxAttempts int64) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.entries[key]
	entry := stored.Entry
	if ok && entry.Locked(now) {
		return entry, nil
	}

	if !ok || expired(entry, now, window) {
		entry = Entry{Count: 1, WindowStart: now}
	} else {
		entry.Count++
	}
	if entry.Count >= maxAttempts {
		entry.LockUntil = now.Add(lockout)
	}

	expires := entry.WindowStart.Add(window)
	if entry.LockUntil.After(expires) {
		expires = entry.LockUntil
	}
	s.entries[key] = memoryEntry{Entry: entry, expires: expires}

	if len(s.entries) > sweepThreshold {
		for k, e := range s.entries {
			if !now.Before(e.expires) {
				delete(s.entries, k)
			}
		}
	}
	return entry, nil
}

// Get implements Store. An entry whose window lapsed with no active
// lock, or whose lock has passed, is deleted rather than returned.
func (s *MemoryStore) Get(_ context.Context, key string, now time.Time) (Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.entries[key]
	if !ok {
		return Entry{}, false, nil
	}
	if !now.Before(stored.expires) {
		delete(s.entries, key)
		return Entry{}, false, nil
	}
	return stored.Entry, true, nil
}

// Reset implements Store.
func (s *MemoryStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

// expired reports whether the entry no longer constrains attempts: its
// window elapsed without a lock, or its lock has passed.
func expired(entry Entry, now time.Time, window time.Duration) bool {
	if !entry.LockUntil.IsZero() {
		return !now.Before(entry.LockUntil)
	}
	return now.Sub(entry.WindowStart) >= window
}
