// Package ratelimit caps how many fare searches one client may start per period.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter counts calls per key in fixed periods.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	period  time.Duration
	now     func() time.Time
	stop    chan struct{}
}

// window is one key's current period.
type window struct {
	opened time.Time
	used   int
}

// New allows limit calls per key every period. A limit of zero or less refuses everything.
func New(limit int, period time.Duration) *Limiter {
	l := &Limiter{
		windows: make(map[string]*window),
		limit:   limit,
		period:  period,
		now:     time.Now,
		stop:    make(chan struct{}),
	}

	go l.evictLoop(5 * time.Minute)

	return l
}

// Close stops evicting idle keys.
func (l *Limiter) Close() {
	close(l.stop)
}

// Allow records a call for key. A refused call also gets the time left
// until the key's period rolls over, suitable for a Retry-After header.
func (l *Limiter) Allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w := l.windows[key]
	if w == nil || now.Sub(w.opened) >= l.period {
		w = &window{opened: now}
		l.windows[key] = w
	}

	if w.used >= l.limit {
		return false, w.opened.Add(l.period).Sub(now)
	}
	w.used++
	return true, 0
}

// evict drops keys whose period ended more than one period before now.
func (l *Limiter) evict(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, w := range l.windows {
		if now.Sub(w.opened) > 2*l.period {
			delete(l.windows, key)
		}
	}
}

func (l *Limiter) evictLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.evict(l.now())
		case <-l.stop:
			return
		}
	}
}
