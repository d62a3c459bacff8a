package http

import (
	"time"

	"golang.org/x/time/rate"
)

// rateLimiter caps how many frames one session may submit per minute.
// A nil limiter allows everything.
type rateLimiter struct {
	lim *rate.Limiter
	now func() time.Time
}

func newRateLimiter(limit int) *rateLimiter {
	if limit <= 0 {
		return nil
	}
	return &rateLimiter{
		lim: rate.NewLimiter(rate.Every(time.Minute/time.Duration(limit)), limit),
		now: time.Now,
	}
}

func (r *rateLimiter) allow() bool {
	if r == nil {
		return true
	}
	return r.lim.AllowN(r.now(), 1)
}
