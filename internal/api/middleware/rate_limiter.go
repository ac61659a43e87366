package middleware

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

// RateLimiterConfig holds configuration for rate limiting
type RateLimiterConfig struct {
	// Max requests per window
	Max int
	// Window duration
	Window time.Duration
	// KeyGenerator identifies the caller; an empty key is never limited
	KeyGenerator func(c *fiber.Ctx) string
}

// DefaultRateLimiterConfig returns default configuration
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		Max:    60,
		Window: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}
}

// window is the fixed counting window of one caller
type window struct {
	count    int
	resetAt  time.Time
	lastSeen time.Time
}

// quota is the outcome of counting one request.
type quota struct {
	allowed   bool
	remaining int
	resetAt   time.Time
}

// RateLimiter implements fixed-window rate limiting per caller
type RateLimiter struct {
	config   RateLimiterConfig
	windows  map[string]*window
	mu       sync.Mutex
	done     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	defaults := DefaultRateLimiterConfig()
	if config.Max <= 0 {
		config.Max = defaults.Max
	}
	if config.Window <= 0 {
		config.Window = defaults.Window
	}
	if config.KeyGenerator == nil {
		config.KeyGenerator = defaults.KeyGenerator
	}

	rl := &RateLimiter{
		config:  config,
		windows: make(map[string]*window),
		done:    make(chan struct{}),
	}

	go rl.evictLoop()

	return rl
}

// Stop ends the eviction goroutine. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

// Handler returns the Fiber middleware handler
func (rl *RateLimiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := rl.config.KeyGenerator(c)
		if key == "" {
			return c.Next()
		}

		q := rl.take(key, time.Now())

		c.Set("X-RateLimit-Limit", strconv.Itoa(rl.config.Max))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(q.remaining))
		c.Set("X-RateLimit-Reset", q.resetAt.Format(time.RFC3339))

		if !q.allowed {
			retry := int(math.Ceil(time.Until(q.resetAt).Seconds()))
			c.Set("Retry-After", strconv.Itoa(max(retry, 1)))
			return domain.ErrRateLimitExceeded
		}

		return c.Next()
	}
}

// take counts one request for key at now.
func (rl *RateLimiter) take(key string, now time.Time) quota {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(rl.config.Window)}
		rl.windows[key] = w
	}
	w.count++
	w.lastSeen = now

	return quota{
		allowed:   w.count <= rl.config.Max,
		remaining: max(rl.config.Max-w.count, 0),
		resetAt:   w.resetAt,
	}
}

// evictLoop drops callers idle for two windows.
func (rl *RateLimiter) evictLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case now := <-ticker.C:
			rl.evict(now)
		}
	}
}

func (rl *RateLimiter) evict(now time.Time) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	for key, w := range rl.windows {
		if now.Sub(w.lastSeen) > 2*rl.config.Window {
			delete(rl.windows, key)
			removed++
		}
	}
	return removed
}
