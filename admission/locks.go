// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package admission

import "sync"

// pollLocks hands out one mutex per poll id. Entries are dropped once no
// caller holds or waits on them.
type pollLocks struct {
	mu    sync.Mutex
	polls map[string]*pollLock
}

type pollLock struct {
	sync.Mutex
	refs int
}

func newPollLocks() *pollLocks {
	return &pollLocks{polls: make(map[string]*pollLock)}
}

func (l *pollLocks) lock(pollID string) (unlock func()) {
	l.mu.Lock()
	pl, ok := l.polls[pollID]
	if !ok {
		pl = &pollLock{}
		l.polls[pollID] = pl
	}
	pl.refs++
	l.mu.Unlock()

	pl.Lock()

	return func() {
		pl.Unlock()

		l.mu.Lock()
		pl.refs--
		if pl.refs == 0 {
			delete(l.polls, pollID)
		}
		l.mu.Unlock()
	}
}

func (l *pollLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.polls)
}
