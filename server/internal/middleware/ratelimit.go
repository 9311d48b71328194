package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/logging"
)

// idleLimiterTTL - через сколько простоя лимитер вызывающего удаляется.
const idleLimiterTTL = 10 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter ограничивает частоту запросов на вызывающего (адрес из токена
// или, для анонимных запросов, адрес клиента).
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	rate     rate.Limit
	burst    int
	now      func() time.Time
}

// NewRateLimiter создает ограничитель: rps запросов в секунду, всплеск до burst.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		rate:     rate.Limit(rps),
		burst:    burst,
		now:      time.Now,
	}
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	e, ok := rl.limiters[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[key] = e
	}
	e.lastSeen = rl.now()
	return e.limiter
}

// Handler возвращает middleware ограничения частоты.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key, ok := CallerFromContext(r.Context())
		if !ok {
			key = clientIP(r)
		}

		if !rl.getLimiter(key).Allow() {
			logging.Warnf("[RateLimit] Превышен лимит для '%s': %s %s", key, r.Method, r.URL.Path)
			w.Header().Set("Retry-After", "1")
			http.Error(w, "Слишком много запросов", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Cleanup удаляет лимитеры, не использовавшиеся дольше idleLimiterTTL.
func (rl *RateLimiter) Cleanup() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-idleLimiterTTL)
	removed := 0
	for k, e := range rl.limiters {
		if e.lastSeen.Before(cutoff) {
			delete(rl.limiters, k)
			removed++
		}
	}
	return removed
}

// StartCleanup периодически вызывает Cleanup до закрытия stop.
func (rl *RateLimiter) StartCleanup(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := rl.Cleanup(); n > 0 {
					logging.Debugf("[RateLimit] Удалено %d простаивающих лимитеров", n)
				}
			case <-stop:
				return
			}
		}
	}()
}

// clientIP возвращает адрес клиента. chi middleware.RealIP уже подставил
// X-Forwarded-For в RemoteAddr, если сервер стоит за прокси.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
