package chat

import (
	"sync"
	"time"
)

// Defaults sized for a classroom: nobody types 30 messages a minute
// by hand.
const (
	defaultLimit  = 30
	defaultWindow = time.Minute
)

// rateLimiter caps messages per sender over a fixed window.
type rateLimiter struct {
	mu      sync.Mutex
	senders map[string]*senderWindow
	limit   int
	window  time.Duration
}

type senderWindow struct {
	count       int
	windowStart time.Time
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		senders: make(map[string]*senderWindow),
		limit:   limit,
		window:  window,
	}
}

// allow reports whether senderID may send another message.
func (rl *rateLimiter) allow(senderID string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()

	w, exists := rl.senders[senderID]
	if !exists {
		rl.senders[senderID] = &senderWindow{count: 1, windowStart: now}
		return true
	}

	if now.Sub(w.windowStart) >= rl.window {
		w.count = 1
		w.windowStart = now
		return true
	}

	if w.count >= rl.limit {
		return false
	}

	w.count++
	return true
}

// forget drops tracking state for a disconnected sender.
func (rl *rateLimiter) forget(senderID string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.senders, senderID)
}
