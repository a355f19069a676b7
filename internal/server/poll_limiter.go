package server

import (
	"sync"
	"time"
)

const pollLimitWindow = 1 * time.Second

// pollLimiter throttles status polling to one hit per caller+session per
// window. Stale entries are pruned on the fly so the map stays bounded by
// recent pollers.
type pollLimiter struct {
	mu        sync.Mutex
	lastHit   map[string]time.Time
	now       func() time.Time
	window    time.Duration
	lastPrune time.Time
}

func newPollLimiter(window time.Duration, now func() time.Time) *pollLimiter {
	if now == nil {
		now = time.Now
	}
	if window <= 0 {
		window = pollLimitWindow
	}
	return &pollLimiter{
		lastHit: make(map[string]time.Time),
		now:     now,
		window:  window,
	}
}

func (l *pollLimiter) Allow(callerID, sessionID string) bool {
	if l == nil {
		return true
	}
	key := callerID + "|" + sessionID
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(now)
	if last, ok := l.lastHit[key]; ok {
		if now.Sub(last) < l.window {
			return false
		}
	}
	l.lastHit[key] = now
	return true
}

// prune drops entries older than the window. Runs at most once per window
// so hot polling does not rescan the map on every hit.
func (l *pollLimiter) prune(now time.Time) {
	if now.Sub(l.lastPrune) < l.window {
		return
	}
	l.lastPrune = now
	for key, last := range l.lastHit {
		if now.Sub(last) >= l.window {
			delete(l.lastHit, key)
		}
	}
}

func (l *pollLimiter) RetryAfterSeconds() int {
	if l == nil {
		return int(pollLimitWindow.Seconds())
	}
	return int(l.window.Seconds())
}
