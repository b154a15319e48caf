// internal/store/fixture_test.go
package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-reviews/internal/domain"
)

const longText = "A sharp, confident film that rewards a second viewing."

func fixtureJSON(movieYear, reviewText string) string {
	return `{
  "movies": [
    {"id": "m1", "title": "First", "year": ` + movieYear + `, "director": "Dir", "actors": ["A", "B"]},
    {"id": "m2", "title": "Second", "year": 2001, "director": "Dir", "actors": ["C"], "image_url": "https://img.example.com/2.jpg"}
  ],
  "reviews": {
    "m1": [
      {"id": "r1", "user_id": "u1", "grade": "A+", "text": "` + reviewText + `", "created_at": "2024-01-01T10:00:00Z"},
      {"id": "r2", "user_id": "u2", "grade": "C", "text": "` + longText + `", "created_at": "2024-02-01T10:00:00Z"}
    ],
    "m2": [
      {"id": "r3", "user_id": "u1", "grade": "F", "text": "` + longText + `"}
    ]
  }
}`
}

func TestValidateFixture_Embedded(t *testing.T) {
	raw, err := ReadFixture("")
	require.NoError(t, err)

	fx, err := ValidateFixture(raw, domain.NewValidator())
	require.NoError(t, err)

	stats := fx.Stats()
	assert.Equal(t, 6, stats.Movies)
	assert.Equal(t, 11, stats.Reviews)
	assert.Equal(t, 2, stats.AvgReviewsPerMovie)
}

func TestValidateFixture_Valid(t *testing.T) {
	fx, err := ValidateFixture([]byte(fixtureJSON("1999", longText)), domain.NewValidator())
	require.NoError(t, err)

	require.Len(t, fx.Movies, 2)
	assert.Equal(t, "First", fx.Movies[0].Title)
	assert.Equal(t, []string{"A", "B"}, []string(fx.Movies[0].Actors))
	assert.Equal(t, "https://img.example.com/2.jpg", fx.Movies[1].ImageURL)

	require.Len(t, fx.Reviews["m1"], 2)
	for _, r := range fx.Reviews["m1"] {
		assert.Equal(t, "m1", r.MovieID, "movie id comes from the enclosing key")
	}
	assert.Equal(t, domain.GradeAPlus, fx.Reviews["m1"][0].Grade)
	assert.True(t, fx.Reviews["m2"][0].CreatedAt.IsZero())
}

func TestValidateFixture_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "review text too short", raw: fixtureJSON("1999", "Too short.")},
		{name: "review text too long", raw: fixtureJSON("1999", strings.Repeat("x", 501))},
		{name: "year before 1970", raw: fixtureJSON("1969", longText)},
		{name: "year after 2025", raw: fixtureJSON("2026", longText)},
		{name: "year is a string", raw: fixtureJSON(`"1999"`, longText)},
		{name: "not json", raw: `{"movies": [`},
		{name: "missing reviews", raw: `{"movies": [{"id": "m1", "title": "T", "year": 1999, "director": "D", "actors": ["A"]}]}`},
		{name: "missing movies", raw: `{"reviews": {}}`},
		{
			name: "empty actors",
			raw:  `{"movies": [{"id": "m1", "title": "T", "year": 1999, "director": "D", "actors": []}], "reviews": {}}`,
		},
		{
			name: "missing title",
			raw:  `{"movies": [{"id": "m1", "year": 1999, "director": "D", "actors": ["A"]}], "reviews": {}}`,
		},
		{
			name: "unknown grade",
			raw: `{"movies": [], "reviews": {"m1": [{"id": "r1", "user_id": "u", "grade": "E", "text": "` + longText + `"}]}}`,
		},
		{
			name: "missing user id",
			raw: `{"movies": [], "reviews": {"m1": [{"id": "r1", "grade": "A", "text": "` + longText + `"}]}}`,
		},
		{
			name: "duplicate movie id",
			raw: `{"movies": [
				{"id": "m1", "title": "T", "year": 1999, "director": "D", "actors": ["A"]},
				{"id": "m1", "title": "U", "year": 2000, "director": "D", "actors": ["A"]}
			], "reviews": {}}`,
		},
		{
			name: "duplicate review id",
			raw: `{"movies": [], "reviews": {
				"m1": [{"id": "r1", "user_id": "u", "grade": "A", "text": "` + longText + `"}],
				"m2": [{"id": "r1", "user_id": "u", "grade": "B", "text": "` + longText + `"}]
			}}`,
		},
	}

	v := domain.NewValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx, err := ValidateFixture([]byte(tt.raw), v)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidFixture))
			assert.Nil(t, fx)
		})
	}
}

func TestReadFixture_Path(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movies.json")
	require.NoError(t, os.WriteFile(path, []byte(fixtureJSON("1999", longText)), 0o600))

	raw, err := ReadFixture(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"m1"`)

	_, err = ReadFixture(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestFixtureStats(t *testing.T) {
	fx := &Fixture{}
	assert.Equal(t, FixtureStats{}, fx.Stats())

	fx, err := ValidateFixture([]byte(fixtureJSON("1999", longText)), domain.NewValidator())
	require.NoError(t, err)
	assert.Equal(t, FixtureStats{Movies: 2, Reviews: 3, AvgReviewsPerMovie: 2}, fx.Stats())
}
