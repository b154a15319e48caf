// internal/api/router.go
package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"movie-reviews/internal/access"
	"movie-reviews/internal/metrics"
)

// RouterDeps are the collaborators of NewRouter. Metrics, RateLimiter and
// Sessions are optional.
type RouterDeps struct {
	Handler     *Handler
	Resolver    *access.Resolver
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
	RateLimiter *RateLimiter
	Sessions    *SessionHandler
}

// NewRouter wires the HTTP API.
func NewRouter(deps RouterDeps) http.Handler {
	h := deps.Handler
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.respondError(w, r, http.StatusNotFound, "Not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.respondError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
	})

	if deps.Metrics != nil {
		router.Use(MetricsMiddleware(deps.Metrics))
	}
	if deps.RateLimiter != nil {
		router.Use(deps.RateLimiter.Middleware)
	}
	router.Use(IdentityMiddleware(deps.Resolver))

	router.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	if deps.Metrics != nil {
		router.Handle("/metrics", deps.Metrics.Handler()).Methods(http.MethodGet)
	}

	apiRouter := router.PathPrefix("/api").Subrouter()

	// Routes stay one subrouter deep so method mismatches reach MethodNotAllowedHandler.
	apiRouter.HandleFunc("/movies", h.ListMovies).Methods(http.MethodGet)
	apiRouter.HandleFunc("/movies", h.CreateMovie).Methods(http.MethodPost)
	apiRouter.HandleFunc("/movies/{movieId}", h.GetMovie).Methods(http.MethodGet)
	apiRouter.HandleFunc("/movies/{movieId}/reviews", h.ListReviews).Methods(http.MethodGet)
	apiRouter.HandleFunc("/movies/{movieId}/reviews", h.CreateReview).Methods(http.MethodPost)

	apiRouter.HandleFunc("/reviews/{reviewId}", h.GetReview).Methods(http.MethodGet)
	apiRouter.HandleFunc("/reviews/{reviewId}", h.DeleteReview).Methods(http.MethodDelete)

	apiRouter.HandleFunc("/admin/reviews", h.AdminListReviews).Methods(http.MethodGet)

	if deps.Sessions != nil {
		apiRouter.HandleFunc("/auth/dev-session", deps.Sessions.CreateDevSession).Methods(http.MethodPost)
	}

	return DataSourceMiddleware(h.dataSource())(RequestLogger(deps.Logger)(router))
}
