// internal/domain/movie.go
package domain

import (
	"time"

	"github.com/lib/pq"
)

// Movie is the catalogue entry every review hangs off.
type Movie struct {
	ID        string         `json:"id" db:"id"`
	Title     string         `json:"title" db:"title"`
	Year      int            `json:"year" db:"year"`
	Director  string         `json:"director" db:"director"`
	Actors    pq.StringArray `json:"actors" db:"actors"`
	ImageURL  string         `json:"image_url,omitempty" db:"image_url"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" db:"updated_at"`
}

// CreateMovieRequest is the body of POST /movies.
type CreateMovieRequest struct {
	Title    string   `json:"title" validate:"required,max=255"`
	Year     int      `json:"year" validate:"required,movieyear"`
	Director string   `json:"director" validate:"required,max=100"`
	Actors   []string `json:"actors,omitempty" validate:"omitempty,dive,required,max=100"`
	ImageURL string   `json:"image_url,omitempty" validate:"omitempty,url"`
}
