// internal/api/review_handlers.go
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"sort"

	"github.com/gorilla/mux"

	"movie-reviews/internal/access"
	"movie-reviews/internal/domain"
	"movie-reviews/internal/store"
)

// ListReviews returns the reviews of one movie, newest first.
func (h *Handler) ListReviews(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	movieID := mux.Vars(r)["movieId"]
	if _, ok := h.authorize(w, r, access.ReadReview); !ok {
		return
	}
	if !h.validID(w, r, movieID, "movie") {
		return
	}

	reviews, err := h.store.ListReviews(ctx, movieID)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list reviews by movieID from store", slog.String("movieID", movieID), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to retrieve reviews")
		return
	}

	h.logger.DebugContext(ctx, "Reviews for movie retrieved successfully", slog.String("movieID", movieID), slog.Int("count", len(reviews)))
	h.respondJSON(w, r, http.StatusOK, map[string]interface{}{"reviews": reviews})
}

// CreateReview adds a review by the calling user to a movie.
func (h *Handler) CreateReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	movieID := mux.Vars(r)["movieId"]
	id, ok := h.authorize(w, r, access.CreateReview)
	if !ok {
		return
	}
	if !h.validID(w, r, movieID, "movie") {
		return
	}

	var req domain.CreateReviewRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	if _, err := h.store.GetMovie(ctx, movieID); err != nil {
		if errors.Is(err, store.ErrMovieNotFound) {
			h.logger.WarnContext(ctx, "Attempt to create review for non-existent movie", slog.String("movieID", movieID))
			h.respondError(w, r, http.StatusNotFound, "Movie not found")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to check movie existence", slog.String("movieID", movieID), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Could not verify movie existence")
		return
	}

	review := &domain.Review{
		MovieID: movieID,
		UserID:  id.UserID,
		Text:    req.Text,
		Grade:   domain.Grade(req.Grade),
	}
	res, err := h.store.CreateReview(ctx, review)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to create review in store", slog.String("movieID", movieID), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to create review")
		return
	}
	h.recordWrite("review", res)

	h.logger.InfoContext(ctx, "Review created",
		slog.String("reviewID", res.ID),
		slog.String("movieID", movieID),
		slog.String("userID", id.UserID),
		slog.Bool("persisted", res.Persisted))
	h.respondJSON(w, r, http.StatusCreated, newWriteResponse(res, "Review created successfully"))
}

// GetReview returns a single review.
func (h *Handler) GetReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reviewID := mux.Vars(r)["reviewId"]
	if _, ok := h.authorize(w, r, access.ReadReview); !ok {
		return
	}
	if !h.validID(w, r, reviewID, "review") {
		return
	}

	review, err := h.store.GetReview(ctx, reviewID)
	if err != nil {
		if errors.Is(err, store.ErrReviewNotFound) {
			h.respondError(w, r, http.StatusNotFound, "Review not found")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to get review from store", slog.String("reviewID", reviewID), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to retrieve review")
		return
	}
	h.respondJSON(w, r, http.StatusOK, map[string]interface{}{"review": review})
}

// DeleteReview removes a review. Admin only.
func (h *Handler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reviewID := mux.Vars(r)["reviewId"]
	id, ok := h.authorize(w, r, access.DeleteReview)
	if !ok {
		return
	}
	if !h.validID(w, r, reviewID, "review") {
		return
	}

	res, err := h.store.DeleteReview(ctx, reviewID)
	if err != nil {
		if errors.Is(err, store.ErrReviewNotFound) {
			h.respondError(w, r, http.StatusNotFound, "Review not found")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to delete review from store", slog.String("reviewID", reviewID), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to delete review")
		return
	}
	h.recordWrite("review", res)

	h.logger.InfoContext(ctx, "Review deleted",
		slog.String("reviewID", reviewID),
		slog.String("by", id.Email),
		slog.Bool("persisted", res.Persisted))
	w.WriteHeader(http.StatusNoContent)
}

// AdminListReviews returns every review annotated with its movie title,
// newest first. Admin only.
func (h *Handler) AdminListReviews(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := h.authorize(w, r, access.ListAllReviews); !ok {
		return
	}

	reviews, err := h.store.ListAllReviews(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list all reviews from store", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to retrieve reviews")
		return
	}
	movies, err := h.store.ListMovies(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list movies for review titles", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to retrieve reviews")
		return
	}

	titles := make(map[string]string, len(movies))
	for _, m := range movies {
		titles[m.ID] = m.Title
	}

	annotated := make([]domain.AdminReview, 0, len(reviews))
	for _, rev := range reviews {
		title, ok := titles[rev.MovieID]
		if !ok {
			title = domain.UnknownMovieTitle
		}
		annotated = append(annotated, domain.AdminReview{Review: *rev, MovieTitle: title})
	}
	sort.SliceStable(annotated, func(i, j int) bool {
		return annotated[i].CreatedAt.After(annotated[j].CreatedAt)
	})

	h.logger.DebugContext(ctx, "Admin review list retrieved", slog.Int("count", len(annotated)))
	h.respondJSON(w, r, http.StatusOK, map[string]interface{}{"reviews": annotated})
}
