package middleware

import (
	"context"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/iudanet/gophsync/internal/server/handlers"
)

// RateLimiter ограничивает частоту запросов клиента к одной коллекции.
// Токены пополняются непрерывно: rate токенов за window.
type RateLimiter struct {
	buckets map[string]*bucket
	logger  *slog.Logger
	now     func() time.Time
	perSec  float64
	burst   float64
	window  time.Duration
	mu      sync.Mutex
}

type bucket struct {
	updated time.Time
	tokens  float64
}

// NewRateLimiter создает limiter: rate запросов за window, не больше rate подряд.
// Неактивные buckets удаляет Run.
func NewRateLimiter(rate int, window time.Duration, logger *slog.Logger) *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*bucket),
		logger:  logger,
		now:     time.Now,
		perSec:  float64(rate) / window.Seconds(),
		burst:   float64(rate),
		window:  window,
	}
}

// Run периодически удаляет полностью пополненные buckets до отмены ctx
func (rl *RateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := rl.prune(); n > 0 {
				rl.logger.Debug("Rate limit buckets pruned", "count", n)
			}
		}
	}
}

// prune удаляет buckets, которые успели пополниться до burst
func (rl *RateLimiter) prune() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	pruned := 0
	for key, b := range rl.buckets {
		if rl.refill(b, now) >= rl.burst {
			delete(rl.buckets, key)
			pruned++
		}
	}
	return pruned
}

func (rl *RateLimiter) refill(b *bucket, now time.Time) float64 {
	if elapsed := now.Sub(b.updated).Seconds(); elapsed > 0 {
		b.tokens = math.Min(rl.burst, b.tokens+elapsed*rl.perSec)
		b.updated = now
	}
	return b.tokens
}

// Take забирает токен для key. Если токенов нет, возвращает время до следующего.
func (rl *RateLimiter) Take(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{tokens: rl.burst, updated: now}
		rl.buckets[key] = b
	}

	if rl.refill(b, now) >= 1 {
		b.tokens--
		return true, 0
	}
	missing := (1 - b.tokens) / rl.perSec
	return false, time.Duration(missing * float64(time.Second))
}

// RateLimitMiddleware отклоняет запросы сверх лимита с 429 и Retry-After.
// Ключ: subject токена и коллекция из пути, поэтому middleware ставится после AuthMiddleware.
func RateLimitMiddleware(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientKey(r)

			allowed, wait := limiter.Take(key)
			if !allowed {
				limiter.logger.Warn("Rate limit exceeded",
					"client", key,
					"method", r.Method,
					"path", r.URL.Path,
					"retry_after", wait,
				)

				retryAfter := math.Ceil(wait.Round(time.Millisecond).Seconds())
				w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter)))
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientKey subject токена (или IP) и коллекция запроса
func clientKey(r *http.Request) string {
	client := "ip:" + getClientIP(r)
	if claims, ok := handlers.GetClaims(r.Context()); ok && claims.Subject != "" {
		client = "sub:" + claims.Subject
	}
	if collection := r.PathValue("collection"); collection != "" {
		return client + "/" + collection
	}
	return client
}

// getClientIP адрес клиента с учетом X-Forwarded-For и X-Real-IP
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	// у одного клиента порт меняется от соединения к соединению
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
