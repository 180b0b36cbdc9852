package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type visitor struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

type visitorTable struct {
	mu sync.Mutex
	m  map[string]*visitor
	r  rate.Limit
	b  int
}

func (vt *visitorTable) allow(ip string) bool {
	vt.mu.Lock()
	v, ok := vt.m[ip]
	if !ok {
		v = &visitor{bucket: rate.NewLimiter(vt.r, vt.b)}
		vt.m[ip] = v
	}
	v.lastSeen = time.Now()
	vt.mu.Unlock()
	return v.bucket.Allow()
}

func (vt *visitorTable) prune(idle time.Duration) {
	cutoff := time.Now().Add(-idle)
	vt.mu.Lock()
	for ip, v := range vt.m {
		if v.lastSeen.Before(cutoff) {
			delete(vt.m, ip)
		}
	}
	vt.mu.Unlock()
}

// RateLimit throttles each client IP with a token bucket refilled at r
// per second up to a burst of b. Buckets idle for ten minutes are
// discarded.
func RateLimit(r rate.Limit, b int) gin.HandlerFunc {
	vt := &visitorTable{m: make(map[string]*visitor), r: r, b: b}

	go func() {
		for range time.Tick(5 * time.Minute) {
			vt.prune(10 * time.Minute)
		}
	}()

	return func(c *gin.Context) {
		if !vt.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
