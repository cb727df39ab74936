package api

import (
	"time"

	"golang.org/x/time/rate"
)

// newLimiter builds a token bucket allowing burst requests per window,
// refilling continuously at burst/window per second.
func newLimiter(burst int, window time.Duration) *rate.Limiter {
	perSecond := float64(burst) / window.Seconds()
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}
