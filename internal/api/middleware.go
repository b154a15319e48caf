// internal/api/middleware.go
package api

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"movie-reviews/internal/access"
	"movie-reviews/internal/metrics"
)

// statusRecorder captures the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// IdentityMiddleware resolves the caller once per request and stores the
// identity in the request context. It never rejects a request.
func IdentityMiddleware(resolver *access.Resolver) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := resolver.Resolve(r)
			next.ServeHTTP(w, r.WithContext(access.WithIdentity(r.Context(), id)))
		})
	}
}

// DataSourceMiddleware labels every response with the data source in use.
func DataSourceMiddleware(source string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(DataSourceHeader, source)
			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger logs one line per request.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.InfoContext(r.Context(), "HTTP request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.status),
				slog.Duration("duration", time.Since(start)))
		})
	}
}

// MetricsMiddleware records request counts and latency per route template.
func MetricsMiddleware(m *metrics.Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			route := r.URL.Path
			if cur := mux.CurrentRoute(r); cur != nil {
				if tmpl, err := cur.GetPathTemplate(); err == nil {
					route = tmpl
				}
			}
			m.RecordHTTPRequest(r.Method, route, rec.status, time.Since(start))
		})
	}
}

// RateLimiter limits write requests per client address. Reads are never limited.
type RateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*rateLimiterEntry
	rate      rate.Limit
	burst     int
	logger    *slog.Logger
	metrics   *metrics.Metrics
	stopClean chan struct{}
	stopOnce  sync.Once
}

type rateLimiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// NewRateLimiter starts a limiter allowing rps writes per second with the
// given burst. Call Stop to end its cleanup goroutine. m may be nil.
func NewRateLimiter(rps float64, burst int, logger *slog.Logger, m *metrics.Metrics) *RateLimiter {
	rl := &RateLimiter{
		limiters:  make(map[string]*rateLimiterEntry),
		rate:      rate.Limit(rps),
		burst:     burst,
		logger:    logger,
		metrics:   m,
		stopClean: make(chan struct{}),
	}
	go rl.startCleanup(10 * time.Minute)
	return rl
}

// Allow reports whether client may perform another write now.
func (rl *RateLimiter) Allow(client string) bool {
	rl.mu.Lock()
	entry, ok := rl.limiters[client]
	if !ok {
		entry = &rateLimiterEntry{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[client] = entry
	}
	entry.lastAccess = time.Now()
	limiter := entry.limiter
	rl.mu.Unlock()

	return limiter.Allow()
}

// Middleware rejects writes over the limit with 429.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isRead(r.Method) {
			next.ServeHTTP(w, r)
			return
		}
		client := clientAddr(r)
		if !rl.Allow(client) {
			rl.logger.WarnContext(r.Context(), "Write rate limit exceeded", slog.String("client", client), slog.String("path", r.URL.Path))
			if rl.metrics != nil {
				rl.metrics.RateLimitedTotal.Inc()
			}
			w.Header().Set("Retry-After", "1")
			respondError(w, r, rl.logger, http.StatusTooManyRequests, "Too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) startCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup(time.Now().Add(-time.Hour))
		case <-rl.stopClean:
			return
		}
	}
}

// cleanup drops limiters not used since threshold.
func (rl *RateLimiter) cleanup(threshold time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for client, entry := range rl.limiters {
		if entry.lastAccess.Before(threshold) {
			delete(rl.limiters, client)
		}
	}
}

// Stop ends the cleanup goroutine.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopClean) })
}

func isRead(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
