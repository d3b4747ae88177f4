package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Entries idle for this many windows are dropped on the next sweep.
const idleWindows = 2

type memoryEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type memoryLimiter struct {
	mu          sync.Mutex
	entries     map[string]*memoryEntry
	maxAttempts int64
	window      time.Duration
	now         func() time.Time
	lastSweep   time.Time
}

// NewMemoryLimiter creates an in-process limiter. Each key gets a token
// bucket holding maxAttempts tokens that refills completely over window;
// every failure spends one token and Allow fails once the bucket is empty.
func NewMemoryLimiter(maxAttempts int64, window time.Duration, logger *slog.Logger) LoginLimiter {
	logger.Info("✅ [RateLimiter] Using in-memory login limiter",
		"max_attempts", maxAttempts,
		"window", window,
	)
	return newMemoryLimiter(maxAttempts, window, time.Now)
}

func newMemoryLimiter(maxAttempts int64, window time.Duration, now func() time.Time) *memoryLimiter {
	return &memoryLimiter{
		entries:     make(map[string]*memoryEntry),
		maxAttempts: maxAttempts,
		window:      window,
		now:         now,
		lastSweep:   now(),
	}
}

func (m *memoryLimiter) Allow(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return true, nil
	}
	return entry.limiter.TokensAt(m.now()) >= 1, nil
}

func (m *memoryLimiter) RecordFailure(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweep(now)

	entry, ok := m.entries[key]
	if !ok {
		every := m.window / time.Duration(m.maxAttempts)
		entry = &memoryEntry{limiter: rate.NewLimiter(rate.Every(every), int(m.maxAttempts))}
		m.entries[key] = entry
	}
	entry.limiter.AllowN(now, 1)
	entry.lastSeen = now
	return nil
}

func (m *memoryLimiter) Reset(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
	return nil
}

func (m *memoryLimiter) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[string]*memoryEntry)
	return nil
}

// sweep drops long-idle keys; callers hold mu.
func (m *memoryLimiter) sweep(now time.Time) {
	if now.Sub(m.lastSweep) < m.window {
		return
	}
	m.lastSweep = now
	for key, entry := range m.entries {
		if now.Sub(entry.lastSeen) > idleWindows*m.window {
			delete(m.entries, key)
		}
	}
}
