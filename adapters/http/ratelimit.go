package http

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	limiterIdleTTL    = 10 * time.Minute
	limiterSweepAfter = 10000
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipLimiters keeps one token bucket per client IP.
type ipLimiters struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	clients map[string]*clientLimiter
	now     func() time.Time
}

func newIPLimiters(perSecond float64, burst int) *ipLimiters {
	return &ipLimiters{
		limit:   rate.Limit(perSecond),
		burst:   burst,
		clients: make(map[string]*clientLimiter),
		now:     time.Now,
	}
}

func (l *ipLimiters) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if c, ok := l.clients[ip]; ok {
		c.lastSeen = now
		return c.limiter
	}

	if len(l.clients) >= limiterSweepAfter {
		for key, c := range l.clients {
			if now.Sub(c.lastSeen) > limiterIdleTTL {
				delete(l.clients, key)
			}
		}
	}

	c := &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst), lastSeen: now}
	l.clients[ip] = c
	return c.limiter
}

// RateLimit throttles requests per client IP. A non-positive rate disables it.
func RateLimit(perSecond float64, burst int) gin.HandlerFunc {
	if perSecond <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if burst < 1 {
		burst = 1
	}
	limiters := newIPLimiters(perSecond, burst)

	return func(c *gin.Context) {
		lim := limiters.get(c.ClientIP())
		if !lim.Allow() {
			retry := int(math.Ceil(1 / perSecond))
			c.Header("Retry-After", strconv.Itoa(retry))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "too many requests",
				"message": "Too many attempts, slow down",
			})
			return
		}
		c.Next()
	}
}
