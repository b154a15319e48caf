// pkg/auth/session.go
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// ErrNoSession is returned when a request carries no credential at all.
var ErrNoSession = errors.New("no session credential")

// Session is a caller verified by the external identity provider.
type Session struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
}

// Verifier checks a raw credential and returns the session it proves.
type Verifier interface {
	Verify(ctx context.Context, raw string) (*Session, error)
}

// RequestSessions reads the credential from the Authorization header
// ("Bearer <token>") or, failing that, from the session cookie.
type RequestSessions struct {
	verifier   Verifier
	cookieName string
}

// NewRequestSessions creates a session provider backed by v.
func NewRequestSessions(v Verifier, cookieName string) *RequestSessions {
	return &RequestSessions{verifier: v, cookieName: cookieName}
}

// Session returns the verified session of r, ErrNoSession when r has no
// credential, or the verification error.
func (p *RequestSessions) Session(r *http.Request) (*Session, error) {
	raw, err := p.credential(r)
	if err != nil {
		return nil, err
	}
	return p.verifier.Verify(r.Context(), raw)
}

func (p *RequestSessions) credential(r *http.Request) (string, error) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", errors.New("invalid Authorization header format")
		}
		return strings.TrimSpace(parts[1]), nil
	}
	if p.cookieName != "" {
		if c, err := r.Cookie(p.cookieName); err == nil && c.Value != "" {
			return c.Value, nil
		}
	}
	return "", ErrNoSession
}
