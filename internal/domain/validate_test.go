// internal/domain/validate_test.go
package domain

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocID(t *testing.T) {
	v := NewValidator()

	for _, id := range []string{"m1", "mov-001", "AbC_9", strings.Repeat("a", 128), "mock-review-6f1c"} {
		assert.NoError(t, v.Var(id, "docid"), id)
	}
	for _, id := range []string{"", "bad.id", "a/b", "has space", strings.Repeat("a", 129), "ü"} {
		assert.Error(t, v.Var(id, "docid"), id)
	}
}

func TestMovieYear(t *testing.T) {
	v := NewValidator()
	latest := time.Now().Year() + MovieYearLookahead

	assert.NoError(t, v.Var(MinMovieYear, "movieyear"))
	assert.NoError(t, v.Var(latest, "movieyear"))
	assert.Error(t, v.Var(MinMovieYear-1, "movieyear"))
	assert.Error(t, v.Var(latest+1, "movieyear"))
}

func TestValidationMessage(t *testing.T) {
	v := NewValidator()

	err := v.Struct(CreateReviewRequest{})
	require.Error(t, err)
	assert.Equal(t, "text is required; grade is required", ValidationMessage(err))

	err = v.Struct(CreateReviewRequest{Text: strings.Repeat("x", 501), Grade: "E"})
	require.Error(t, err)
	assert.Equal(t, "text must be at most 500 characters; grade must be one of [F D C B A A+]", ValidationMessage(err))

	err = v.Struct(CreateMovieRequest{Title: "T", Year: 1850, Director: "D", ImageURL: "nope"})
	require.Error(t, err)
	msg := ValidationMessage(err)
	assert.Contains(t, msg, "year must be between 1900 and")
	assert.Contains(t, msg, "image_url must be a valid URL")

	assert.Equal(t, "boom", ValidationMessage(errors.New("boom")))
}

func TestIdentityRole(t *testing.T) {
	assert.Equal(t, RoleAnonymous, Anonymous().Role())
	assert.Equal(t, RoleUser, Identity{Authenticated: true}.Role())
	assert.Equal(t, RoleAdmin, Identity{Authenticated: true, IsAdmin: true}.Role())
	assert.Equal(t, RoleAnonymous, Identity{IsAdmin: true}.Role(), "an admin flag without a session grants nothing")
}
