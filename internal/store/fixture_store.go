// internal/store/fixture_store.go
package store

import (
	"context"
	"log/slog"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"movie-reviews/internal/domain"
)

// FixtureStore serves a static fixture for local development. It never changes
// after construction: writes are acknowledged with a synthesized id and dropped.
// A fixture that fails validation is served as an empty data set.
type FixtureStore struct {
	logger     *slog.Logger
	fixture    *Fixture
	invalidErr error
	movies     map[string]*domain.Movie
	reviews    map[string]*domain.Review
}

// NewFixtureStore validates raw once and keeps the parsed result for the
// lifetime of the process.
func NewFixtureStore(raw []byte, v *validator.Validate, logger *slog.Logger) *FixtureStore {
	s := &FixtureStore{
		logger:  logger,
		movies:  make(map[string]*domain.Movie),
		reviews: make(map[string]*domain.Review),
	}

	fx, err := ValidateFixture(raw, v)
	if err != nil {
		s.invalidErr = err
		logger.Error("Fixture failed validation, reads will return empty results", slog.String("error", err.Error()))
		return s
	}

	s.fixture = fx
	for _, m := range fx.Movies {
		s.movies[m.ID] = m
	}
	for _, list := range fx.Reviews {
		sortNewestFirst(list)
		for _, r := range list {
			s.reviews[r.ID] = r
		}
	}
	stats := fx.Stats()
	logger.Info("Fixture loaded",
		slog.Int("movies", stats.Movies),
		slog.Int("reviews", stats.Reviews),
		slog.Int("avg_reviews_per_movie", stats.AvgReviewsPerMovie))
	return s
}

// Valid reports whether the fixture passed validation.
func (s *FixtureStore) Valid() bool {
	return s.invalidErr == nil
}

func (s *FixtureStore) Live() bool { return false }

func (s *FixtureStore) Close() error { return nil }

func (s *FixtureStore) usable(ctx context.Context) bool {
	if s.invalidErr != nil {
		s.logger.WarnContext(ctx, "Fixture is invalid, serving empty result", slog.String("error", s.invalidErr.Error()))
		return false
	}
	return true
}

func (s *FixtureStore) ListMovies(ctx context.Context) ([]*domain.Movie, error) {
	if !s.usable(ctx) {
		return []*domain.Movie{}, nil
	}
	movies := make([]*domain.Movie, len(s.fixture.Movies))
	for i, m := range s.fixture.Movies {
		movies[i] = copyMovie(m)
	}
	s.logger.DebugContext(ctx, "Listed movies from fixture", slog.Int("count", len(movies)))
	return movies, nil
}

func (s *FixtureStore) GetMovie(ctx context.Context, id string) (*domain.Movie, error) {
	if !s.usable(ctx) {
		return nil, ErrMovieNotFound
	}
	m, ok := s.movies[id]
	if !ok {
		s.logger.DebugContext(ctx, "Movie not found in fixture", slog.String("movieID", id))
		return nil, ErrMovieNotFound
	}
	return copyMovie(m), nil
}

func (s *FixtureStore) CreateMovie(ctx context.Context, movie *domain.Movie) (WriteResult, error) {
	movie.ID = "mock-movie-" + uuid.NewString()
	s.logger.WarnContext(ctx, "Movie submitted in fixture mode, not persisted",
		slog.String("movieID", movie.ID), slog.String("title", movie.Title))
	return WriteResult{ID: movie.ID, Persisted: false}, nil
}

func (s *FixtureStore) ListReviews(ctx context.Context, movieID string) ([]*domain.Review, error) {
	if !s.usable(ctx) {
		return []*domain.Review{}, nil
	}
	src := s.fixture.Reviews[movieID]
	reviews := make([]*domain.Review, len(src))
	for i, r := range src {
		c := *r
		reviews[i] = &c
	}
	s.logger.DebugContext(ctx, "Listed reviews from fixture", slog.String("movieID", movieID), slog.Int("count", len(reviews)))
	return reviews, nil
}

func (s *FixtureStore) ListAllReviews(ctx context.Context) ([]*domain.Review, error) {
	if !s.usable(ctx) {
		return []*domain.Review{}, nil
	}
	reviews := make([]*domain.Review, 0, len(s.reviews))
	for _, r := range s.reviews {
		c := *r
		reviews = append(reviews, &c)
	}
	sortNewestFirst(reviews)
	return reviews, nil
}

func (s *FixtureStore) GetReview(ctx context.Context, id string) (*domain.Review, error) {
	if !s.usable(ctx) {
		return nil, ErrReviewNotFound
	}
	r, ok := s.reviews[id]
	if !ok {
		s.logger.DebugContext(ctx, "Review not found in fixture", slog.String("reviewID", id))
		return nil, ErrReviewNotFound
	}
	c := *r
	return &c, nil
}

func (s *FixtureStore) CreateReview(ctx context.Context, review *domain.Review) (WriteResult, error) {
	review.ID = "mock-review-" + uuid.NewString()
	s.logger.WarnContext(ctx, "Review submitted in fixture mode, not persisted",
		slog.String("reviewID", review.ID), slog.String("movieID", review.MovieID))
	return WriteResult{ID: review.ID, Persisted: false}, nil
}

func (s *FixtureStore) DeleteReview(ctx context.Context, id string) (WriteResult, error) {
	s.logger.WarnContext(ctx, "Review deletion in fixture mode, not persisted", slog.String("reviewID", id))
	return WriteResult{ID: id, Persisted: false}, nil
}

// sortNewestFirst orders reviews by creation time, newest first, breaking ties by id.
func sortNewestFirst(reviews []*domain.Review) {
	sort.Slice(reviews, func(i, j int) bool {
		if !reviews[i].CreatedAt.Equal(reviews[j].CreatedAt) {
			return reviews[i].CreatedAt.After(reviews[j].CreatedAt)
		}
		return reviews[i].ID < reviews[j].ID
	})
}

func copyMovie(m *domain.Movie) *domain.Movie {
	c := *m
	c.Actors = append(c.Actors[:0:0], m.Actors...)
	return &c
}
