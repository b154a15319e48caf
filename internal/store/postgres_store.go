// internal/store/postgres_store.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"movie-reviews/internal/domain"
)

const (
	movieColumns  = `id, title, year, director, actors, image_url, created_at, updated_at`
	reviewColumns = `id, movie_id, user_id, text, grade, created_at`
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS movies (
		id         TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		title      TEXT NOT NULL,
		year       INTEGER NOT NULL,
		director   TEXT NOT NULL,
		actors     TEXT[] NOT NULL DEFAULT '{}',
		image_url  TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS reviews (
		id         TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		movie_id   TEXT NOT NULL,
		user_id    TEXT NOT NULL,
		text       TEXT NOT NULL,
		grade      TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_movies_project_created ON movies (project_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_reviews_project_movie ON reviews (project_id, movie_id, created_at DESC)`,
}

// PostgresStore is the live store. All rows are scoped by project id so
// several deployments can share one database.
type PostgresStore struct {
	db        *sqlx.DB
	projectID string
	logger    *slog.Logger
}

// NewPostgresStore wraps an already connected database.
func NewPostgresStore(db *sqlx.DB, projectID string, logger *slog.Logger) (*PostgresStore, error) {
	if db == nil {
		return nil, errors.New("database connection (db) cannot be nil for PostgresStore")
	}
	if projectID == "" {
		return nil, errors.New("project id cannot be empty for PostgresStore")
	}
	return &PostgresStore{db: db, projectID: projectID, logger: logger}, nil
}

// Connect opens the live database. The api key is used as the connection password.
func Connect(ctx context.Context, cfg Config, logger *slog.Logger) (*sqlx.DB, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid live store url: %w", err)
	}
	user := "postgres"
	if u.User != nil && u.User.Username() != "" {
		user = u.User.Username()
	}
	u.User = url.UserPassword(user, cfg.APIKey)

	logger.InfoContext(ctx, "Attempting to connect to live store", slog.String("url", u.Redacted()))

	db, err := sqlx.ConnectContext(ctx, "postgres", u.String())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns / 2)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	logger.InfoContext(ctx, "Successfully connected to live store")
	return db, nil
}

// Migrate creates the tables and indexes when they are missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) Live() bool { return true }

func (s *PostgresStore) Close() error { return s.db.Close() }

func (s *PostgresStore) ListMovies(ctx context.Context) ([]*domain.Movie, error) {
	query := `SELECT ` + movieColumns + ` FROM movies WHERE project_id = $1 ORDER BY created_at DESC, id ASC`
	movies := []*domain.Movie{}

	s.logger.DebugContext(ctx, "Executing ListMovies query")
	if err := s.db.SelectContext(ctx, &movies, query, s.projectID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to list movies from DB", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list movies: %w", err)
	}
	return movies, nil
}

func (s *PostgresStore) GetMovie(ctx context.Context, id string) (*domain.Movie, error) {
	query := `SELECT ` + movieColumns + ` FROM movies WHERE project_id = $1 AND id = $2`
	var movie domain.Movie

	s.logger.DebugContext(ctx, "Executing GetMovie query", slog.String("movieID", id))
	if err := s.db.GetContext(ctx, &movie, query, s.projectID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMovieNotFound
		}
		s.logger.ErrorContext(ctx, "Failed to get movie by ID from DB", slog.String("movieID", id), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to get movie by ID: %w", err)
	}
	return &movie, nil
}

func (s *PostgresStore) CreateMovie(ctx context.Context, movie *domain.Movie) (WriteResult, error) {
	query := `INSERT INTO movies (id, project_id, title, year, director, actors, image_url, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	movie.ID = uuid.NewString()
	movie.CreatedAt = time.Now().UTC()
	movie.UpdatedAt = movie.CreatedAt
	if movie.Actors == nil {
		movie.Actors = pq.StringArray{}
	}

	s.logger.DebugContext(ctx, "Executing CreateMovie query", slog.String("movieID", movie.ID), slog.String("title", movie.Title))
	_, err := s.db.ExecContext(ctx, query,
		movie.ID, s.projectID, movie.Title, movie.Year, movie.Director,
		pq.Array([]string(movie.Actors)), movie.ImageURL,
		movie.CreatedAt, movie.UpdatedAt,
	)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to create movie in DB", slog.String("error", err.Error()))
		return WriteResult{}, fmt.Errorf("failed to create movie: %w", err)
	}
	s.logger.InfoContext(ctx, "Movie created successfully in DB", slog.String("movieID", movie.ID))
	return WriteResult{ID: movie.ID, Persisted: true}, nil
}

func (s *PostgresStore) ListReviews(ctx context.Context, movieID string) ([]*domain.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE project_id = $1 AND movie_id = $2 ORDER BY created_at DESC, id ASC`
	reviews := []*domain.Review{}

	s.logger.DebugContext(ctx, "Executing ListReviews query", slog.String("movieID", movieID))
	if err := s.db.SelectContext(ctx, &reviews, query, s.projectID, movieID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to list reviews by movieID from DB", slog.String("movieID", movieID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list reviews by movieID: %w", err)
	}
	return reviews, nil
}

func (s *PostgresStore) ListAllReviews(ctx context.Context) ([]*domain.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE project_id = $1 ORDER BY created_at DESC, id ASC`
	reviews := []*domain.Review{}

	s.logger.DebugContext(ctx, "Executing ListAllReviews query")
	if err := s.db.SelectContext(ctx, &reviews, query, s.projectID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to list all reviews from DB", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

func (s *PostgresStore) GetReview(ctx context.Context, id string) (*domain.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE project_id = $1 AND id = $2`
	var review domain.Review

	s.logger.DebugContext(ctx, "Executing GetReview query", slog.String("reviewID", id))
	if err := s.db.GetContext(ctx, &review, query, s.projectID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReviewNotFound
		}
		s.logger.ErrorContext(ctx, "Failed to get review by ID from DB", slog.String("reviewID", id), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to get review by ID: %w", err)
	}
	return &review, nil
}

func (s *PostgresStore) CreateReview(ctx context.Context, review *domain.Review) (WriteResult, error) {
	query := `INSERT INTO reviews (id, project_id, movie_id, user_id, text, grade, created_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7)`

	review.ID = uuid.NewString()
	review.CreatedAt = time.Now().UTC()

	s.logger.DebugContext(ctx, "Executing CreateReview query",
		slog.String("reviewID", review.ID),
		slog.String("movieID", review.MovieID),
		slog.String("userID", review.UserID))
	_, err := s.db.ExecContext(ctx, query,
		review.ID, s.projectID, review.MovieID, review.UserID, review.Text, string(review.Grade), review.CreatedAt,
	)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to create review in DB", slog.String("error", err.Error()))
		return WriteResult{}, fmt.Errorf("failed to create review: %w", err)
	}
	s.logger.InfoContext(ctx, "Review created successfully in DB", slog.String("reviewID", review.ID))
	return WriteResult{ID: review.ID, Persisted: true}, nil
}

func (s *PostgresStore) DeleteReview(ctx context.Context, id string) (WriteResult, error) {
	query := `DELETE FROM reviews WHERE project_id = $1 AND id = $2`

	s.logger.DebugContext(ctx, "Executing DeleteReview query", slog.String("reviewID", id))
	result, err := s.db.ExecContext(ctx, query, s.projectID, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete review from DB", slog.String("reviewID", id), slog.String("error", err.Error()))
		return WriteResult{}, fmt.Errorf("failed to delete review: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return WriteResult{}, fmt.Errorf("failed to check review delete result: %w", err)
	}
	if rowsAffected == 0 {
		return WriteResult{}, ErrReviewNotFound
	}
	s.logger.InfoContext(ctx, "Review deleted successfully from DB", slog.String("reviewID", id))
	return WriteResult{ID: id, Persisted: true}, nil
}
