package ratelimiter

import (
	"sync"
	"time"
)

// counter tracks request count within the current window for one client
type counter struct {
	count     int
	resetTime time.Time
}

// RateLimiter implements fixed-window, per-IP rate limiting in memory
type RateLimiter struct {
	clients map[string]*counter
	mutex   sync.RWMutex
	limit   int
	window  time.Duration
}

// New creates a RateLimiter allowing limit requests per window
func New(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*counter),
		limit:   limit,
		window:  window,
	}
}

// Allow reports whether the client may make a request now
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := time.Now()

	c, exists := rl.clients[ip]
	if !exists || now.After(c.resetTime) {
		rl.clients[ip] = &counter{count: 1, resetTime: now.Add(rl.window)}
		return true
	}

	if c.count >= rl.limit {
		return false
	}

	c.count++
	return true
}

// Info returns the current count and window reset time for a client
func (rl *RateLimiter) Info(ip string) (count int, resetTime time.Time) {
	rl.mutex.RLock()
	defer rl.mutex.RUnlock()

	c, exists := rl.clients[ip]
	if !exists || time.Now().After(c.resetTime) {
		return 0, time.Now().Add(rl.window)
	}
	return c.count, c.resetTime
}

// Limit returns the configured per-window request limit
func (rl *RateLimiter) Limit() int {
	return rl.limit
}

// Cleanup removes expired entries to bound memory
func (rl *RateLimiter) Cleanup() {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := time.Now()
	for ip, c := range rl.clients {
		if now.After(c.resetTime) {
			delete(rl.clients, ip)
		}
	}
}
