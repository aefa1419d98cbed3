package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"lens-backend/internal/shared/server/respond"
)

// maxTrackedClients bounds the limiter map; idle entries are swept past it.
const maxTrackedClients = 10000

// RateLimiter hands out one token bucket per client key.
type RateLimiter struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	mu      sync.Mutex
	clients map[string]*clientLimiter
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows perMinute requests per client with the given burst.
// A non-positive perMinute or burst yields a limiter that admits everything.
func NewRateLimiter(perMinute, burst int, now func() time.Time) *RateLimiter {
	if now == nil {
		now = time.Now
	}
	l := &RateLimiter{now: now, clients: make(map[string]*clientLimiter)}
	if perMinute > 0 && burst > 0 {
		l.limit = rate.Limit(float64(perMinute) / 60.0)
		l.burst = burst
	}
	return l
}

// Allow reports whether key may proceed and, if not, how long to wait.
func (l *RateLimiter) Allow(key string) (bool, time.Duration) {
	if l == nil || l.burst == 0 {
		return true, 0
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.clients[key]
	if !ok {
		if len(l.clients) >= maxTrackedClients {
			l.sweep(now)
		}
		c = &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = c
	}
	c.lastSeen = now

	r := c.limiter.ReserveN(now, 1)
	delay := r.DelayFrom(now)
	if delay == 0 {
		return true, 0
	}
	r.CancelAt(now)
	return false, delay
}

// sweep drops clients whose bucket has had time to refill completely.
func (l *RateLimiter) sweep(now time.Time) {
	idle := time.Duration(float64(l.burst) / float64(l.limit) * float64(time.Second))
	for key, c := range l.clients {
		if now.Sub(c.lastSeen) > idle {
			delete(l.clients, key)
		}
	}
}

// RateLimit rejects a client that has exhausted its bucket with 429 and a
// Retry-After header. Clients are keyed by IP.
func RateLimit(l *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, wait := l.Allow(c.ClientIP())
		if ok {
			c.Next()
			return
		}
		seconds := int(math.Ceil(wait.Seconds()))
		if seconds < 1 {
			seconds = 1
		}
		c.Header("Retry-After", strconv.Itoa(seconds))
		respond.Failure(c, http.StatusTooManyRequests, "rate_limited", "too many requests, retry later")
	}
}

// Chain returns h, preceded by pre when pre is set.
func Chain(pre gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	if pre == nil {
		return []gin.HandlerFunc{h}
	}
	return []gin.HandlerFunc{pre, h}
}
