package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter keeps event timestamps per key inside the process.
type MemoryLimiter struct {
	rule Rule
	now  func() time.Time

	mu     sync.Mutex
	events map[string][]time.Time
}

func NewMemoryLimiter(rule Rule) *MemoryLimiter {
	return &MemoryLimiter{
		rule:   rule,
		now:    time.Now,
		events: make(map[string][]time.Time),
	}
}

// WithClock replaces the time source.
func (l *MemoryLimiter) WithClock(now func() time.Time) *MemoryLimiter {
	l.now = now
	return l
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.rule.Window)

	kept := l.events[key][:0]
	for _, at := range l.events[key] {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}

	if len(kept) >= l.rule.Limit {
		l.events[key] = kept
		retryAfter := time.Duration(0)
		if len(kept) > 0 {
			retryAfter = kept[0].Add(l.rule.Window).Sub(now)
		}
		return Decision{Allowed: false, Remaining: 0, RetryAfter: retryAfter}, nil
	}

	kept = append(kept, now)
	l.events[key] = kept
	return Decision{Allowed: true, Remaining: l.rule.Limit - len(kept)}, nil
}

// Cleanup drops keys with no events inside the window.
func (l *MemoryLimiter) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.rule.Window)
	for key, events := range l.events {
		if len(events) == 0 || !events[len(events)-1].After(cutoff) {
			delete(l.events, key)
		}
	}
}
