package http

import "time"

// rateLimiter caps inbound chat messages per connection per minute.
// It is only touched from the connection's read loop, so no locking.
type rateLimiter struct {
	limit       int
	counter     int
	windowStart time.Time
}

func newRateLimiter(limit int) *rateLimiter {
	return &rateLimiter{limit: limit, windowStart: time.Now()}
}

func (r *rateLimiter) allow() bool {
	if r == nil || r.limit <= 0 {
		return true
	}
	if time.Since(r.windowStart) >= time.Minute {
		r.counter = 0
		r.windowStart = time.Now()
	}
	r.counter++
	return r.counter <= r.limit
}
