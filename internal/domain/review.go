// internal/domain/review.go
package domain

import (
	"time"
)

// Grade is a letter grade given by a reviewer.
type Grade string

const (
	GradeAPlus Grade = "A+"
	GradeA     Grade = "A"
	GradeB     Grade = "B"
	GradeC     Grade = "C"
	GradeD     Grade = "D"
	GradeF     Grade = "F"
)

// Review is a graded text review of a single movie.
type Review struct {
	ID        string    `json:"id" db:"id"`
	MovieID   string    `json:"movie_id" db:"movie_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Text      string    `json:"text" db:"text"`
	Grade     Grade     `json:"grade" db:"grade"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CreateReviewRequest is the body of POST /movies/{id}/reviews.
type CreateReviewRequest struct {
	Text  string `json:"text" validate:"required,max=500"`
	Grade string `json:"grade" validate:"required,oneof=F D C B A A+"`
}

// AdminReview is a review annotated with the title of the movie it belongs to.
type AdminReview struct {
	Review
	MovieTitle string `json:"movie_title"`
}

// UnknownMovieTitle is shown for reviews whose movie no longer resolves.
const UnknownMovieTitle = "Unknown Movie"
