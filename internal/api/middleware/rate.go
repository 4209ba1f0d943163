package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int
	Burst             int
	// IdleTTL is how long an idle client keeps its bucket; zero means
	// DefaultIdleTTL
	IdleTTL time.Duration
}

// DefaultIdleTTL bounds the per-client table of RateLimit
const DefaultIdleTTL = 10 * time.Minute

// DefaultRateLimitConfig returns production-ready rate limit configuration.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 100,
		Burst:             200,
		IdleTTL:           DefaultIdleTTL,
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// visitors holds one token bucket per client and forgets idle ones
type visitors struct {
	cfg RateLimitConfig
	now func() time.Time

	mu        sync.Mutex
	clients   map[string]*visitor
	lastSweep time.Time
}

func newVisitors(cfg RateLimitConfig) *visitors {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultIdleTTL
	}
	return &visitors{
		cfg:       cfg,
		now:       time.Now,
		clients:   make(map[string]*visitor),
		lastSweep: time.Now(),
	}
}

func (v *visitors) allow(key string) bool {
	now := v.now()

	v.mu.Lock()
	if now.Sub(v.lastSweep) >= v.cfg.IdleTTL {
		v.sweep(now)
	}
	c, ok := v.clients[key]
	if !ok {
		c = &visitor{limiter: rate.NewLimiter(rate.Limit(v.cfg.RequestsPerSecond), v.cfg.Burst)}
		v.clients[key] = c
	}
	c.lastSeen = now
	v.mu.Unlock()

	return c.limiter.AllowN(now, 1)
}

// sweep must be called with mu held
func (v *visitors) sweep(now time.Time) {
	for key, c := range v.clients {
		if now.Sub(c.lastSeen) >= v.cfg.IdleTTL {
			delete(v.clients, key)
		}
	}
	v.lastSweep = now
}

func (v *visitors) len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.clients)
}

// RateLimit creates a per-IP rate limiting middleware.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	return limitBy(newVisitors(cfg))
}

func limitBy(v *visitors) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !v.allow(c.ClientIP()) {
			tooMany(c)
			return
		}
		c.Next()
	}
}

// GlobalRateLimit creates a global rate limiting middleware.
func GlobalRateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			tooMany(c)
			return
		}
		c.Next()
	}
}

func tooMany(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"error": "rate limit exceeded",
	})
}
