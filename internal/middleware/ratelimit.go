package middleware

import (
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimit returns a middleware that admits at most rps requests per
// second across all clients, with bursts up to burst. A burst below one
// is raised to max(1, rps).
func RateLimit(rps float64, burst int, logger *zap.Logger) Middleware {
	if burst < 1 {
		burst = int(rps)
		if burst < 1 {
			burst = 1
		}
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				httpRequestsThrottled.Inc()
				logger.Debug("request throttled",
					zap.String("path", r.URL.Path),
					zap.String("request_id", getRequestID(r)),
				)
				w.Header().Set("Retry-After", "1")
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
