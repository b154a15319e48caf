// pkg/auth/token.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "movie-reviews"

// TokenManager issues and verifies HMAC-signed session tokens.
type TokenManager interface {
	Verifier
	Generate(session Session) (string, error)
}

type jwtManager struct {
	secretKey     []byte
	tokenDuration time.Duration
}

// Claims is the payload of a session token.
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// NewTokenManager returns a TokenManager signing with secretKey. Keys shorter
// than 32 bytes are rejected.
func NewTokenManager(secretKey string, tokenDuration time.Duration) (TokenManager, error) {
	if secretKey == "" {
		return nil, errors.New("token secret key cannot be empty")
	}
	if len(secretKey) < 32 {
		return nil, fmt.Errorf("token secret key is too short: need at least 32 bytes, got %d", len(secretKey))
	}
	if tokenDuration <= 0 {
		return nil, errors.New("token duration must be positive")
	}
	return &jwtManager{
		secretKey:     []byte(secretKey),
		tokenDuration: tokenDuration,
	}, nil
}

// Generate signs a token for session.
func (m *jwtManager) Generate(session Session) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email: session.Email,
		Name:  session.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.Subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// Verify parses tokenString and returns the session it carries.
func (m *jwtManager) Verify(_ context.Context, tokenString string) (*Session, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secretKey, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Email == "" {
		return nil, errors.New("token has no email claim")
	}

	subject := claims.Subject
	if subject == "" {
		subject = claims.Email
	}
	return &Session{Subject: subject, Email: claims.Email, Name: claims.Name}, nil
}
