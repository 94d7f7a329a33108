package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"dulceriapos/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Limiter counts hits per key inside fixed windows.
type Limiter interface {
	// Allow records a hit and reports whether key is still under the limit,
	// plus when the current window ends.
	Allow(ctx context.Context, key string) (bool, time.Time)
}

// ── Redis limiter ─────────────────────────────────────────────────────────────

// redisLimiter shares the counters between every API replica:
// INCR ratelimit:{prefix}:{key}:{window} with an expiry of one window.
type redisLimiter struct {
	rdb      *redis.Client
	prefix   string
	limit    int
	window   time.Duration
	fallback *memLimiter
}

// NewLimiter returns a Redis backed limiter; with a nil client, or whenever
// Redis fails, counting falls back to process memory.
func NewLimiter(rdb *redis.Client, prefix string, limit int, window time.Duration) Limiter {
	mem := newMemLimiter(limit, window)
	if rdb == nil {
		return mem
	}
	return &redisLimiter{rdb: rdb, prefix: prefix, limit: limit, window: window, fallback: mem}
}

func (l *redisLimiter) Allow(ctx context.Context, key string) (bool, time.Time) {
	now := time.Now()
	slot := now.Truncate(l.window)
	end := slot.Add(l.window)
	k := fmt.Sprintf("ratelimit:%s:%s:%d", l.prefix, key, slot.Unix())

	pipe := l.rdb.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Warn().Err(err).Str("limiter", l.prefix).Msg("rate limiter: redis unavailable, counting in memory")
		return l.fallback.Allow(ctx, key)
	}
	return incr.Val() <= int64(l.limit), end
}

// ── In-memory limiter ─────────────────────────────────────────────────────────

type memEntry struct {
	count     int
	windowEnd time.Time
}

type memLimiter struct {
	limit  int
	window time.Duration

	mu        sync.Mutex
	entries   map[string]*memEntry
	nextPurge time.Time
}

const purgeInterval = 5 * time.Minute

func newMemLimiter(limit int, window time.Duration) *memLimiter {
	return &memLimiter{limit: limit, window: window, entries: map[string]*memEntry{}}
}

func (l *memLimiter) Allow(_ context.Context, key string) (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.After(l.nextPurge) {
		l.purge(now)
		l.nextPurge = now.Add(purgeInterval)
	}

	e, ok := l.entries[key]
	if !ok || now.After(e.windowEnd) {
		e = &memEntry{windowEnd: now.Add(l.window)}
		l.entries[key] = e
	}
	e.count++
	return e.count <= l.limit, e.windowEnd
}

// purge drops expired windows so IPs that never return do not accumulate.
func (l *memLimiter) purge(now time.Time) {
	purged := 0
	for k, e := range l.entries {
		if now.After(e.windowEnd) {
			delete(l.entries, k)
			purged++
		}
	}
	if purged > 0 {
		log.Debug().Int("purged", purged).Int("remaining", len(l.entries)).Msg("rate limiter entries purged")
	}
}

// ── Middleware ────────────────────────────────────────────────────────────────

// RateLimit rejects a client IP once it exceeds the limiter's budget.
func RateLimit(l Limiter, msg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, end := l.Allow(c.Request.Context(), c.ClientIP())
		if !ok {
			secs := int(time.Until(end).Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(secs))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(msg))
			return
		}
		c.Next()
	}
}

// LoginRateLimiter limits login attempts to 20 per minute per IP.
func LoginRateLimiter(rdb *redis.Client) gin.HandlerFunc {
	return RateLimit(NewLimiter(rdb, "login", 20, time.Minute),
		"Demasiados intentos de login. Intente en 1 minuto.")
}

// RateLimiter is the general API limiter.
func RateLimiter(rdb *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	return RateLimit(NewLimiter(rdb, "api", limit, window),
		"Demasiadas solicitudes. Intente nuevamente en un momento.")
}

// FormRateLimiter protects the public lead form: 10 submissions per hour per IP.
func FormRateLimiter(rdb *redis.Client) gin.HandlerFunc {
	return RateLimit(NewLimiter(rdb, "form", 10, time.Hour),
		"Demasiadas solicitudes. Intente mas tarde.")
}
