package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const minLimiterIdle = 10 * time.Minute

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ClientLimiter keeps one token bucket per client IP. Buckets idle long
// enough to have refilled are dropped.
type ClientLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*clientBucket
	limit     rate.Limit
	burst     int
	idle      time.Duration
	nextSweep time.Time
	now       func() time.Time
}

// NewClientLimiter allows perMinute requests per client with the given
// burst. A non-positive perMinute disables limiting.
func NewClientLimiter(perMinute, burst int) *ClientLimiter {
	limit := rate.Inf
	idle := minLimiterIdle
	if perMinute > 0 {
		interval := time.Minute / time.Duration(perMinute)
		limit = rate.Every(interval)
		if refill := interval * time.Duration(burst); refill > idle {
			idle = refill
		}
	}
	return &ClientLimiter{
		limiters: make(map[string]*clientBucket),
		limit:    limit,
		burst:    burst,
		idle:     idle,
		now:      time.Now,
	}
}

func (l *ClientLimiter) Allow(client string) bool {
	now := l.now()

	l.mu.Lock()
	if now.After(l.nextSweep) {
		for key, b := range l.limiters {
			if now.Sub(b.lastSeen) >= l.idle {
				delete(l.limiters, key)
			}
		}
		l.nextSweep = now.Add(l.idle)
	}
	b, ok := l.limiters[client]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[client] = b
	}
	b.lastSeen = now
	l.mu.Unlock()

	return b.limiter.AllowN(now, 1)
}

// RateLimit rejects clients that exceed the limiter with 429. Only
// state-changing requests are counted.
func RateLimit(l *ClientLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			c.Next()
			return
		}
		if !l.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}
		c.Next()
	}
}
