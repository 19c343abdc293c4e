package ratelimit

import (
	"net/http"
	"strconv"
)

// DefaultRetryAfterSeconds is the Retry-After header value when a rate
// limit is exceeded.
const DefaultRetryAfterSeconds = 1

// Middleware enforces per-namespace rate limits on the board API.
// getNamespace extracts the storage namespace from the request; requests
// without one are passed through untouched. Rejected requests get a 429
// with Retry-After and X-RateLimit-Remaining headers.
func Middleware(limiter *Limiter, getNamespace func(r *http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			namespace := getNamespace(r)
			if namespace == "" {
				next.ServeHTTP(w, r)
				return
			}

			entry := limiter.Get(namespace)
			if !entry.Allow() {
				w.Header().Set("Retry-After", strconv.Itoa(DefaultRetryAfterSeconds))
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("Content-Type", "text/plain; charset=utf-8")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte("Too Many Requests"))
				return
			}

			remaining := int(entry.Tokens())
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

			next.ServeHTTP(w, r)
		})
	}
}
