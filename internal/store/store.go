// internal/store/store.go
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"movie-reviews/internal/domain"
)

var (
	ErrMovieNotFound  = errors.New("movie not found")
	ErrReviewNotFound = errors.New("review not found")
)

// WriteResult describes the outcome of a write. Persisted is false when the
// write was acknowledged by the fixture without changing anything.
type WriteResult struct {
	ID        string
	Persisted bool
}

// Store is the data source every handler talks to. The live and fixture
// implementations return the same shapes; only Live and WriteResult.Persisted
// tell them apart.
type Store interface {
	Live() bool

	ListMovies(ctx context.Context) ([]*domain.Movie, error)
	GetMovie(ctx context.Context, id string) (*domain.Movie, error)
	CreateMovie(ctx context.Context, movie *domain.Movie) (WriteResult, error)

	ListReviews(ctx context.Context, movieID string) ([]*domain.Review, error)
	ListAllReviews(ctx context.Context) ([]*domain.Review, error)
	GetReview(ctx context.Context, id string) (*domain.Review, error)
	CreateReview(ctx context.Context, review *domain.Review) (WriteResult, error)
	DeleteReview(ctx context.Context, id string) (WriteResult, error)

	Close() error
}

// Config holds the data source settings. The live store is only used when both
// ProjectID and APIKey are set.
type Config struct {
	ProjectID    string `koanf:"project_id"`
	APIKey       string `koanf:"api_key"`
	URL          string `koanf:"url"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	FixturePath  string `koanf:"fixture_path"`
}

// LiveConfigured reports whether the live store credentials are present.
func (c Config) LiveConfigured() bool {
	return c.ProjectID != "" && c.APIKey != ""
}

// UseLive decides which data source serves the process. The decision is made
// once at startup and holds until the process exits.
func UseLive(cfg Config, development bool) bool {
	return cfg.LiveConfigured() && !development
}

// Open selects and opens the data source.
func Open(ctx context.Context, cfg Config, development bool, v *validator.Validate, logger *slog.Logger) (Store, error) {
	if UseLive(cfg, development) {
		db, err := Connect(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		s, err := NewPostgresStore(db, cfg.ProjectID, logger)
		if err != nil {
			db.Close()
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to migrate live store: %w", err)
		}
		logger.InfoContext(ctx, "Using live store", slog.String("project_id", cfg.ProjectID))
		return s, nil
	}

	if !development {
		logger.WarnContext(ctx, "Live store is not configured, serving the read-only fixture")
	}
	raw, err := ReadFixture(cfg.FixturePath)
	if err != nil {
		return nil, err
	}
	s := NewFixtureStore(raw, v, logger)
	logger.InfoContext(ctx, "Using fixture store", slog.String("fixture_path", cfg.FixturePath))
	return s, nil
}
