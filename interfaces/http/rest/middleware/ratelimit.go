package middleware

import (
	"net"
	"net/http"

	"go.uber.org/zap"

	"github.com/sakettamrakar/eatclub/pkg/common"
	"github.com/sakettamrakar/eatclub/pkg/ratelimit"
)

// RateLimit creates an IP-keyed rate limiting middleware. Limiter errors
// fail open; only an explicit limit verdict rejects the request.
func RateLimit(limiter ratelimit.Limiter, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil {
				next.ServeHTTP(w, r)
				return
			}

			key := clientIP(r)
			allowed, err := limiter.Allow(r.Context(), key)
			if err != nil {
				logger.Warn("rate limiter error",
					zap.String("client", key),
					zap.Error(err),
				)
			}
			if !allowed {
				common.RespondError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
