package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	nativecommon "synthpool/native/common"
	"synthpool/observability"
)

// RateLimiter enforces the per-client request quota from the pool
// configuration. Counters roll over per epoch; identification follows the
// usual proxy headers before falling back to the remote address.
type RateLimiter struct {
	logger   *slog.Logger
	quota    nativecommon.Quota
	mu       sync.Mutex
	visitors map[string]nativecommon.QuotaNow
	clockNow func() time.Time
}

func NewRateLimiter(quota nativecommon.Quota, logger *slog.Logger) *RateLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &RateLimiter{
		logger:   logger,
		quota:    quota,
		visitors: make(map[string]nativecommon.QuotaNow),
		clockNow: time.Now,
	}
}

func (r *RateLimiter) Middleware(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if r.quota.MaxRequestsPerMin == 0 {
				next.ServeHTTP(w, req)
				return
			}
			identifier := clientID(req)
			if !r.allow(identifier) {
				observability.ModuleMetrics().Throttle(key, "requests")
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

func (r *RateLimiter) allow(id string) bool {
	epochSeconds := int64(r.quota.EpochSeconds)
	if epochSeconds <= 0 {
		epochSeconds = 60
	}
	epoch := uint64(r.clockNow().Unix() / epochSeconds)

	r.mu.Lock()
	defer r.mu.Unlock()
	next, err := nativecommon.CheckQuota(r.quota, epoch, r.visitors[id], 1, 0)
	if err != nil {
		return false
	}
	r.visitors[id] = next
	return true
}

func clientID(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		if parsed := net.ParseIP(ip); parsed != nil {
			return parsed.String()
		}
		if comma := strings.IndexByte(ip, ','); comma > 0 {
			trimmed := strings.TrimSpace(ip[:comma])
			if parsed := net.ParseIP(trimmed); parsed != nil {
				return parsed.String()
			}
		}
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
