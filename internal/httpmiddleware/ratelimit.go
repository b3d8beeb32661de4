package httpmiddleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter is an in-memory per-client token bucket. State lives in
// process memory, so limits apply per instance rather than globally.
type RateLimiter struct {
	capacity float64
	perSec   float64

	mu      sync.Mutex
	buckets map[string]*clientBucket
	swept   time.Time
}

type clientBucket struct {
	tokens float64
	seen   time.Time
}

// NewRateLimiter allows perMinute requests per client IP, with bursts up
// to the same amount.
func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 60
	}
	return &RateLimiter{
		capacity: float64(perMinute),
		perSec:   float64(perMinute) / 60,
		buckets:  make(map[string]*clientBucket),
		swept:    time.Now(),
	}
}

// Middleware rejects over-limit requests with 429.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if key == "" {
			key = "unknown"
		}
		if !l.allow(key, time.Now()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

func (l *RateLimiter) allow(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.swept) > 10*time.Minute {
		for k, b := range l.buckets {
			if now.Sub(b.seen) > 10*time.Minute {
				delete(l.buckets, k)
			}
		}
		l.swept = now
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &clientBucket{tokens: l.capacity}
		l.buckets[key] = b
	}
	b.tokens += now.Sub(b.seen).Seconds() * l.perSec
	if !ok || b.tokens > l.capacity {
		b.tokens = l.capacity
	}
	b.seen = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}
