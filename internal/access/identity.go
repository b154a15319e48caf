// internal/access/identity.go
package access

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"movie-reviews/internal/domain"
	"movie-reviews/pkg/auth"
)

// SessionProvider returns the verified session behind a request.
type SessionProvider interface {
	Session(r *http.Request) (*auth.Session, error)
}

// Resolver turns requests into identities.
type Resolver struct {
	sessions SessionProvider
	admins   map[string]struct{}
	logger   *slog.Logger
}

// NewResolver builds a resolver. adminEmails are matched exactly, including case.
func NewResolver(sessions SessionProvider, adminEmails []string, logger *slog.Logger) *Resolver {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, email := range adminEmails {
		email = strings.TrimSpace(email)
		if email != "" {
			admins[email] = struct{}{}
		}
	}
	return &Resolver{sessions: sessions, admins: admins, logger: logger}
}

// Resolve never fails: a missing or unverifiable session yields the anonymous identity.
func (res *Resolver) Resolve(r *http.Request) domain.Identity {
	if res.sessions == nil {
		return domain.Anonymous()
	}
	session, err := res.sessions.Session(r)
	if err != nil {
		if !errors.Is(err, auth.ErrNoSession) {
			res.logger.DebugContext(r.Context(), "Session verification failed, treating caller as anonymous", slog.String("error", err.Error()))
		}
		return domain.Anonymous()
	}
	if session == nil {
		return domain.Anonymous()
	}
	return domain.Identity{
		Authenticated: true,
		UserID:        session.Subject,
		Email:         session.Email,
		Name:          session.Name,
		IsAdmin:       res.IsAdmin(session.Email),
	}
}

// IsAdmin reports whether email is on the admin allow-list.
func (res *Resolver) IsAdmin(email string) bool {
	if email == "" {
		return false
	}
	_, ok := res.admins[email]
	return ok
}

type identityKey struct{}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity stored in ctx, or the anonymous identity.
func IdentityFrom(ctx context.Context) domain.Identity {
	if id, ok := ctx.Value(identityKey{}).(domain.Identity); ok {
		return id
	}
	return domain.Anonymous()
}
