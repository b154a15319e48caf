// internal/store/fixture.go
package store

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"

	"movie-reviews/internal/domain"
)

//go:embed fixtures/movies.json
var defaultFixture []byte

var ErrInvalidFixture = errors.New("invalid fixture")

// Fixture is a validated fixture document.
type Fixture struct {
	Movies  []*domain.Movie
	Reviews map[string][]*domain.Review
}

// FixtureStats summarises a fixture for startup logs.
type FixtureStats struct {
	Movies             int
	Reviews            int
	AvgReviewsPerMovie int
}

// fixtureDocument mirrors the file layout: a movie array and a map from movie
// id to that movie's reviews.
type fixtureDocument struct {
	Movies  []fixtureMovie             `json:"movies" validate:"required,dive"`
	Reviews map[string][]fixtureReview `json:"reviews" validate:"required,dive,keys,required,endkeys,required,dive"`
}

type fixtureMovie struct {
	ID       string   `json:"id" validate:"required"`
	Title    string   `json:"title" validate:"required"`
	Year     int      `json:"year" validate:"gte=1970,lte=2025"`
	Director string   `json:"director" validate:"required"`
	Actors   []string `json:"actors" validate:"required,min=1"`
	ImageURL string   `json:"image_url,omitempty"`
}

type fixtureReview struct {
	ID        string     `json:"id" validate:"required"`
	UserID    string     `json:"user_id" validate:"required"`
	Grade     string     `json:"grade" validate:"required,oneof=A+ A B C D F"`
	Text      string     `json:"text" validate:"min=30,max=500"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// ReadFixture returns the fixture at path, or the embedded fixture when path is empty.
func ReadFixture(path string) ([]byte, error) {
	if path == "" {
		return defaultFixture, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture %s: %w", path, err)
	}
	return raw, nil
}

// ValidateFixture parses raw and checks every record. A single bad record
// rejects the whole document.
func ValidateFixture(raw []byte, v *validator.Validate) (*Fixture, error) {
	var doc fixtureDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFixture, err)
	}
	if err := v.Struct(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFixture, err)
	}

	fx := &Fixture{
		Movies:  make([]*domain.Movie, 0, len(doc.Movies)),
		Reviews: make(map[string][]*domain.Review, len(doc.Reviews)),
	}
	seenMovies := make(map[string]bool, len(doc.Movies))
	for _, m := range doc.Movies {
		if seenMovies[m.ID] {
			return nil, fmt.Errorf("%w: duplicate movie id %q", ErrInvalidFixture, m.ID)
		}
		seenMovies[m.ID] = true
		fx.Movies = append(fx.Movies, &domain.Movie{
			ID:       m.ID,
			Title:    m.Title,
			Year:     m.Year,
			Director: m.Director,
			Actors:   pq.StringArray(m.Actors),
			ImageURL: m.ImageURL,
		})
	}

	seenReviews := make(map[string]bool)
	for movieID, reviews := range doc.Reviews {
		list := make([]*domain.Review, 0, len(reviews))
		for _, r := range reviews {
			if seenReviews[r.ID] {
				return nil, fmt.Errorf("%w: duplicate review id %q", ErrInvalidFixture, r.ID)
			}
			seenReviews[r.ID] = true
			review := &domain.Review{
				ID:      r.ID,
				MovieID: movieID,
				UserID:  r.UserID,
				Text:    r.Text,
				Grade:   domain.Grade(r.Grade),
			}
			if r.CreatedAt != nil {
				review.CreatedAt = r.CreatedAt.UTC()
			}
			list = append(list, review)
		}
		fx.Reviews[movieID] = list
	}
	return fx, nil
}

// Stats counts the records in the fixture.
func (f *Fixture) Stats() FixtureStats {
	stats := FixtureStats{Movies: len(f.Movies)}
	for _, reviews := range f.Reviews {
		stats.Reviews += len(reviews)
	}
	if stats.Movies > 0 {
		stats.AvgReviewsPerMovie = (stats.Reviews + stats.Movies/2) / stats.Movies
	}
	return stats
}
