// internal/api/movie_handlers.go
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/lib/pq"

	"movie-reviews/internal/access"
	"movie-reviews/internal/domain"
	"movie-reviews/internal/store"
)

// ListMovies returns every movie, newest first.
func (h *Handler) ListMovies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := h.authorize(w, r, access.ReadMovie); !ok {
		return
	}

	movies, err := h.store.ListMovies(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list movies from store", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to retrieve movies")
		return
	}

	h.logger.DebugContext(ctx, "Movies retrieved successfully", slog.Int("count", len(movies)))
	h.respondJSON(w, r, http.StatusOK, map[string]interface{}{"movies": movies})
}

// GetMovie returns a movie together with its reviews.
func (h *Handler) GetMovie(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	movieID := mux.Vars(r)["movieId"]
	if _, ok := h.authorize(w, r, access.ReadMovie); !ok {
		return
	}
	if !h.validID(w, r, movieID, "movie") {
		return
	}

	movie, err := h.store.GetMovie(ctx, movieID)
	if err != nil {
		if errors.Is(err, store.ErrMovieNotFound) {
			h.respondError(w, r, http.StatusNotFound, "Movie not found")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to get movie from store", slog.String("movieID", movieID), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to retrieve movie")
		return
	}

	reviews, err := h.store.ListReviews(ctx, movieID)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list reviews for movie", slog.String("movieID", movieID), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to retrieve reviews")
		return
	}

	h.respondJSON(w, r, http.StatusOK, map[string]interface{}{
		"movie":   movie,
		"reviews": reviews,
	})
}

// CreateMovie adds a movie. Admin only.
func (h *Handler) CreateMovie(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.authorize(w, r, access.CreateMovie)
	if !ok {
		return
	}

	var req domain.CreateMovieRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	movie := &domain.Movie{
		Title:    req.Title,
		Year:     req.Year,
		Director: req.Director,
		Actors:   pq.StringArray(req.Actors),
		ImageURL: req.ImageURL,
	}
	if movie.Actors == nil {
		movie.Actors = pq.StringArray{}
	}

	res, err := h.store.CreateMovie(ctx, movie)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to create movie in store", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to create movie")
		return
	}
	h.recordWrite("movie", res)

	h.logger.InfoContext(ctx, "Movie created",
		slog.String("movieID", res.ID),
		slog.String("title", movie.Title),
		slog.String("by", id.Email),
		slog.Bool("persisted", res.Persisted))
	h.respondJSON(w, r, http.StatusCreated, newWriteResponse(res, "Movie created successfully"))
}
