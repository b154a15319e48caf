// internal/api/session_handlers_test.go
package api

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-reviews/internal/access"
	"movie-reviews/internal/domain"
	"movie-reviews/pkg/auth"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newSessionRouter(t *testing.T) (http.Handler, *memStore) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	v := domain.NewValidator()

	tm, err := auth.NewTokenManager(testSecret, time.Hour)
	require.NoError(t, err)
	resolver := access.NewResolver(auth.NewRequestSessions(tm, "session"), []string{adminEmail}, logger)
	policy, err := access.NewPolicy()
	require.NoError(t, err)

	s := newMemStore()
	router := NewRouter(RouterDeps{
		Handler:  NewHandler(s, policy, logger, v, nil),
		Resolver: resolver,
		Logger:   logger,
		Sessions: NewSessionHandler(tm, resolver, logger, v, "session", time.Hour),
	})
	return router, s
}

func postJSON(router http.Handler, path, body string, mutate func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateDevSession_Admin(t *testing.T) {
	router, s := newSessionRouter(t)

	rec := postJSON(router, "/api/auth/dev-session", `{"email": "a@x.com", "name": "Ann"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decode(t, rec)
	token := body["token"].(string)
	require.NotEmpty(t, token)
	identity := body["identity"].(map[string]interface{})
	assert.Equal(t, true, identity["authenticated"])
	assert.Equal(t, true, identity["is_admin"])
	assert.Equal(t, adminEmail, identity["user_id"])

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "session", cookies[0].Name)
	assert.Equal(t, token, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	movie := `{"title": "T", "year": 2020, "director": "D"}`
	rec = postJSON(router, "/api/movies", movie, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(router, "/api/movies", movie, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "session", Value: token})
	})
	assert.Equal(t, http.StatusCreated, rec.Code)

	movies, _ := s.counts()
	assert.Equal(t, 4, movies)
}

func TestCreateDevSession_User(t *testing.T) {
	router, _ := newSessionRouter(t)

	rec := postJSON(router, "/api/auth/dev-session", `{"email": "b@x.com", "sub": "user-42"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decode(t, rec)
	identity := body["identity"].(map[string]interface{})
	assert.Equal(t, false, identity["is_admin"])
	assert.Equal(t, "user-42", identity["user_id"])

	withToken := func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+body["token"].(string)) }
	rec = postJSON(router, "/api/movies", `{"title": "T", "year": 2020, "director": "D"}`, withToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = postJSON(router, "/api/movies/m1/reviews", `{"text": "Good", "grade": "B"}`, withToken)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreateDevSession_BadRequest(t *testing.T) {
	router, _ := newSessionRouter(t)

	tests := map[string]string{
		"missing email": `{"name": "Ann"}`,
		"bad email":     `{"email": "not-an-email"}`,
		"bad subject":   `{"email": "a@x.com", "sub": "has spaces"}`,
		"malformed":     `{"email":`,
		"unknown field": `{"email": "a@x.com", "is_admin": true}`,
		"trailing data": `{"email": "a@x.com"} {}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			rec := postJSON(router, "/api/auth/dev-session", body, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, rec.Result().Cookies())
		})
	}
}

func TestDevSessionNotMountedByDefault(t *testing.T) {
	env := newTestEnv(t, newMemStore())

	rec := env.do(t, http.MethodPost, "/api/auth/dev-session", "", `{"email": "a@x.com"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
