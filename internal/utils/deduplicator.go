package utils

import (
	"sync"
	"time"
)

// Deduplicator remembers message ids for a time window so that a client
// resending the same chat message does not trigger a second search
type Deduplicator struct {
	window time.Duration
	limit  int

	mu   sync.Mutex
	seen map[string]time.Time
	now  func() time.Time
}

// NewDeduplicator creates a deduplicator remembering ids for window
func NewDeduplicator(window time.Duration) *Deduplicator {
	return &Deduplicator{
		window: window,
		limit:  10000,
		seen:   make(map[string]time.Time),
		now:    time.Now,
	}
}

// IsDuplicate checks if a message ID has been processed within the window.
// Returns true if the message is a duplicate and should be ignored
func (d *Deduplicator) IsDuplicate(msgID string) bool {
	if msgID == "" {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if ts, ok := d.seen[msgID]; ok && now.Sub(ts) < d.window {
		return true
	}
	d.seen[msgID] = now

	// Cleanup old entries if map gets too big
	if len(d.seen) > d.limit {
		for k, v := range d.seen {
			if now.Sub(v) > 2*d.window {
				delete(d.seen, k)
			}
		}
	}
	return false
}

// Forget drops msgID so that the next sighting is processed again
func (d *Deduplicator) Forget(msgID string) {
	d.mu.Lock()
	delete(d.seen, msgID)
	d.mu.Unlock()
}
