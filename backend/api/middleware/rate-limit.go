package middleware

import (
	"net/http"
	"sync"
	"time"

	"tuneful/backend/common"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipRateLimiter keeps one token bucket per client IP and forgets clients
// that stay quiet for a full window.
type ipRateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter
	limit   rate.Limit
	burst   int
	window  time.Duration
	now     func() time.Time
}

func newIPRateLimiter(maxRequests int, window time.Duration) *ipRateLimiter {
	return &ipRateLimiter{
		clients: make(map[string]*clientLimiter),
		limit:   rate.Limit(float64(maxRequests) / window.Seconds()),
		burst:   maxRequests,
		window:  window,
		now:     time.Now,
	}
}

func (l *ipRateLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	client, ok := l.clients[key]
	if !ok {
		client = &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = client
	}
	client.lastSeen = now
	l.cleanupLocked(now)
	return client.limiter.AllowN(now, 1)
}

func (l *ipRateLimiter) cleanupLocked(now time.Time) {
	cutoff := now.Add(-l.window)
	for key, client := range l.clients {
		if client.lastSeen.Before(cutoff) {
			delete(l.clients, key)
		}
	}
}

func rateLimitFactory(maxRequests int, window time.Duration, mark string) gin.HandlerFunc {
	if maxRequests <= 0 || window <= 0 {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	limiter := newIPRateLimiter(maxRequests, window)
	return func(c *gin.Context) {
		if !limiter.allow(mark + c.ClientIP()) {
			common.RespAbort(c, http.StatusTooManyRequests, "Too many requests")
			return
		}
		c.Next()
	}
}

// GlobalAPIRateLimit limits each client IP across the whole /api group.
func GlobalAPIRateLimit() gin.HandlerFunc {
	return rateLimitFactory(common.GlobalApiRateLimitNum, time.Duration(common.GlobalApiRateLimitDuration)*time.Second, "GA")
}
