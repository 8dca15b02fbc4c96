package httphandler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/cors"
	"golang.org/x/time/rate"
)

// MiddlewareOptions configures ApplyMiddleware.
type MiddlewareOptions struct {
	// RateLimitRPS and RateLimitBurst bound request throughput across all
	// clients. Zero disables rate limiting.
	RateLimitRPS   int
	RateLimitBurst int

	// CORSOrigins lists origins allowed to call /api/v1. Empty disables CORS.
	CORSOrigins []string
}

// ApplyMiddleware wraps handler with recovery, rate limiting, CORS and
// request logging, in that order from the inside out.
func ApplyMiddleware(handler http.Handler, logger *slog.Logger, opts MiddlewareOptions) http.Handler {
	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, handler)

	if opts.RateLimitRPS > 0 {
		limiter := rate.NewLimiter(rate.Limit(opts.RateLimitRPS), max(opts.RateLimitBurst, 1))
		wrapped = rateLimitMiddleware(limiter, wrapped)
	}

	if len(opts.CORSOrigins) > 0 {
		c := cors.New(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         600,
		})
		wrapped = c.Handler(wrapped)
	}

	return loggingMiddleware(logger, wrapped)
}

// statusWriter wraps http.ResponseWriter to capture the response status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

// WriteHeader captures the status code and delegates to the embedded writer.
func (sw *statusWriter) WriteHeader(status int) {
	sw.status = status
	sw.ResponseWriter.WriteHeader(status)
}

// loggingMiddleware logs each HTTP request with method, path, status, and duration.
func loggingMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration", time.Since(start).Round(time.Microsecond),
		)
	})
}

// recoveryMiddleware recovers from panics in HTTP handlers, logs the error,
// and returns a 500 response.
func recoveryMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				logger.Error("panic recovered",
					"panic", v,
					"path", r.URL.Path,
				)
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// rateLimitMiddleware rejects requests with 429 once limiter is exhausted.
func rateLimitMiddleware(limiter *rate.Limiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
