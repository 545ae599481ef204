package middleware

import (
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fastygo/taskapi/internal/config"
)

// rateLimiter holds one token bucket per client key.
type rateLimiter struct {
	limiters    sync.Map // map[string]*rate.Limiter
	rate        rate.Limit
	burst       int
	mu          sync.Mutex
	lastCleanup time.Time
}

func (rl *rateLimiter) getLimiter(key string) *rate.Limiter {
	if limiter, ok := rl.limiters.Load(key); ok {
		return limiter.(*rate.Limiter)
	}
	limiter := rate.NewLimiter(rl.rate, rl.burst)
	actual, _ := rl.limiters.LoadOrStore(key, limiter)
	rl.maybeCleanup()
	return actual.(*rate.Limiter)
}

// maybeCleanup drops limiters whose bucket has refilled, at most every 5 minutes.
func (rl *rateLimiter) maybeCleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if time.Since(rl.lastCleanup) < 5*time.Minute {
		return
	}
	rl.lastCleanup = time.Now()
	rl.limiters.Range(func(key, value any) bool {
		if value.(*rate.Limiter).Tokens() >= float64(rl.burst) {
			rl.limiters.Delete(key)
		}
		return true
	})
}

// RateLimitByIP limits requests per client IP. A disabled config yields a
// pass-through middleware.
func RateLimitByIP(cfg config.RateLimitConfig, log *zap.Logger) Middleware {
	if !cfg.Enabled || cfg.RequestsPerWindow <= 0 || cfg.Window <= 0 {
		return func(next fasthttp.RequestHandler) fasthttp.RequestHandler { return next }
	}
	if log == nil {
		log = zap.NewNop()
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = cfg.RequestsPerWindow
	}
	rl := &rateLimiter{
		rate:        rate.Limit(float64(cfg.RequestsPerWindow) / cfg.Window.Seconds()),
		burst:       burst,
		lastCleanup: time.Now(),
	}

	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			key := clientIP(ctx, cfg.TrustProxy)
			limiter := rl.getLimiter(key)
			if !limiter.Allow() {
				reservation := limiter.Reserve()
				delay := reservation.Delay()
				reservation.Cancel()

				retryAfter := max(int(delay.Seconds()), 1)
				ctx.Response.Header.Set("Retry-After", strconv.Itoa(retryAfter))
				ctx.Response.Header.Set("X-RateLimit-Limit", strconv.Itoa(cfg.RequestsPerWindow))
				ctx.Response.Header.Set("X-RateLimit-Window", cfg.Window.String())

				log.Warn("rate limit exceeded",
					zap.String("key", key),
					zap.String("path", string(ctx.Path())),
					zap.Int("retry_after", retryAfter),
				)
				writeMessage(ctx, fasthttp.StatusTooManyRequests, "Too many requests. Please try again later.")
				return
			}
			next(ctx)
		}
	}
}

// clientIP returns the socket address, or the proxy-reported client when
// trustProxy is set.
func clientIP(ctx *fasthttp.RequestCtx, trustProxy bool) string {
	if trustProxy {
		if ip := forwardedIP(ctx); ip != "" {
			return ip
		}
	}
	addr := ctx.RemoteAddr()
	if addr == nil {
		return "unknown"
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}

func forwardedIP(ctx *fasthttp.RequestCtx) string {
	if xff := string(ctx.Request.Header.Peek("X-Forwarded-For")); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	return strings.TrimSpace(string(ctx.Request.Header.Peek("X-Real-IP")))
}
