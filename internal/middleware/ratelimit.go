package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// maxTrackedClients caps the limiter map. Client IPs are an unbounded
// key space, so past the cap the whole map is reset — throttled clients
// get fresh buckets rather than the process leaking memory.
const maxTrackedClients = 4096

// RateLimit returns per-client-IP rate limiting middleware using token
// buckets. Each client gets a bucket that fills at `rps` tokens/sec up to
// `burst`; an empty bucket means 429.
//
// The shared limiter map is protected by a mutex — a shared map with
// simple read/write is cleaner with a lock than with channels.
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	var mu sync.Mutex
	limiters := make(map[string]*rate.Limiter)

	return func(c *gin.Context) {
		clientIP := c.ClientIP()

		mu.Lock()
		limiter, exists := limiters[clientIP]
		if !exists {
			if len(limiters) >= maxTrackedClients {
				limiters = make(map[string]*rate.Limiter)
			}
			limiter = rate.NewLimiter(rate.Limit(rps), burst)
			limiters[clientIP] = limiter
		}
		mu.Unlock()

		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}

		c.Next()
	}
}
