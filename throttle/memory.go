// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package throttle

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps a sliding log of hit times per key in process memory.
// Budgets are per process; use RedisStore when several instances share them.
type MemoryStore struct {
	mu   sync.Mutex
	keys map[string]*hitLog
}

type hitLog struct {
	hits   []time.Time
	window time.Duration
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{keys: make(map[string]*hitLog)}
}

func (m *MemoryStore) Take(_ context.Context, key string, b Budget, now time.Time) (Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	hl, ok := m.keys[key]
	if !ok {
		hl = &hitLog{}
		m.keys[key] = hl
	}
	hl.window = b.Window
	hl.prune(now)

	if len(hl.hits) >= b.Limit {
		retry := hl.hits[0].Add(b.Window).Sub(now)
		if retry <= 0 {
			retry = time.Millisecond
		}
		return Decision{Allowed: false, RetryAfter: retry}, nil
	}

	hl.hits = append(hl.hits, now)
	return Decision{Allowed: true, Remaining: b.Limit - len(hl.hits)}, nil
}

// Sweep drops hits that fell out of their window and forgets idle keys.
func (m *MemoryStore) Sweep(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, hl := range m.keys {
		hl.prune(now)
		if len(hl.hits) == 0 {
			delete(m.keys, key)
		}
	}
}

// Run sweeps every interval until ctx is done.
func (m *MemoryStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.Sweep(now)
		}
	}
}

func (m *MemoryStore) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.keys)
}

// prune removes hits at or before now-window.
func (l *hitLog) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.hits) && !l.hits[i].After(cutoff) {
		i++
	}
	l.hits = l.hits[i:]
}
