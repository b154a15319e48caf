// internal/access/identity_test.go
package access

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"movie-reviews/internal/domain"
	"movie-reviews/pkg/auth"
)

type fakeSessions struct {
	session *auth.Session
	err     error
}

func (f fakeSessions) Session(*http.Request) (*auth.Session, error) {
	return f.session, f.err
}

func newRequest() *http.Request {
	return httptest.NewRequest(http.MethodGet, "/api/movies", nil)
}

func TestResolver_Resolve(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	admins := []string{" a@x.com ", "", "c@x.com"}

	tests := []struct {
		name     string
		sessions SessionProvider
		want     domain.Identity
	}{
		{
			name:     "no session",
			sessions: fakeSessions{err: auth.ErrNoSession},
			want:     domain.Anonymous(),
		},
		{
			name:     "verification failure",
			sessions: fakeSessions{err: errors.New("token expired")},
			want:     domain.Anonymous(),
		},
		{
			name:     "nil session",
			sessions: fakeSessions{},
			want:     domain.Anonymous(),
		},
		{
			name:     "nil provider",
			sessions: nil,
			want:     domain.Anonymous(),
		},
		{
			name:     "signed in user",
			sessions: fakeSessions{session: &auth.Session{Subject: "u-b", Email: "b@x.com", Name: "Bea"}},
			want:     domain.Identity{Authenticated: true, UserID: "u-b", Email: "b@x.com", Name: "Bea"},
		},
		{
			name:     "signed in admin",
			sessions: fakeSessions{session: &auth.Session{Subject: "u-a", Email: "a@x.com"}},
			want:     domain.Identity{Authenticated: true, UserID: "u-a", Email: "a@x.com", IsAdmin: true},
		},
		{
			name:     "admin match is case sensitive",
			sessions: fakeSessions{session: &auth.Session{Subject: "u-a", Email: "A@X.com"}},
			want:     domain.Identity{Authenticated: true, UserID: "u-a", Email: "A@X.com"},
		},
		{
			name:     "session without email",
			sessions: fakeSessions{session: &auth.Session{Subject: "u-z"}},
			want:     domain.Identity{Authenticated: true, UserID: "u-z"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewResolver(tt.sessions, admins, logger)
			assert.Equal(t, tt.want, res.Resolve(newRequest()))
		})
	}
}

func TestResolver_IsAdmin(t *testing.T) {
	res := NewResolver(nil, []string{"a@x.com", " ", "c@x.com "}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.True(t, res.IsAdmin("a@x.com"))
	assert.True(t, res.IsAdmin("c@x.com"))
	assert.False(t, res.IsAdmin("b@x.com"))
	assert.False(t, res.IsAdmin(""))
	assert.False(t, res.IsAdmin(" "))
}

func TestIdentityContext(t *testing.T) {
	assert.Equal(t, domain.Anonymous(), IdentityFrom(context.Background()))

	id := domain.Identity{Authenticated: true, Email: "a@x.com"}
	ctx := WithIdentity(context.Background(), id)
	assert.Equal(t, id, IdentityFrom(ctx))
}
