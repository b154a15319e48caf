// internal/api/session_handlers.go
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"movie-reviews/internal/access"
	"movie-reviews/internal/domain"
	"movie-reviews/pkg/auth"
)

// DevSessionRequest is the body of POST /api/auth/dev-session.
type DevSessionRequest struct {
	Email   string `json:"email" validate:"required,email"`
	Name    string `json:"name" validate:"max=100"`
	Subject string `json:"sub" validate:"omitempty,docid"`
}

// DevSessionResponse carries the issued token and the identity it resolves to.
type DevSessionResponse struct {
	Token    string          `json:"token"`
	Identity domain.Identity `json:"identity"`
}

// SessionHandler issues signed session tokens for local development, standing
// in for the external sign-in flow. It is only mounted in development mode.
type SessionHandler struct {
	tokens     auth.TokenManager
	resolver   *access.Resolver
	logger     *slog.Logger
	validator  *validator.Validate
	cookieName string
	tokenTTL   time.Duration
}

func NewSessionHandler(tm auth.TokenManager, res *access.Resolver, l *slog.Logger, v *validator.Validate, cookieName string, ttl time.Duration) *SessionHandler {
	return &SessionHandler{
		tokens:     tm,
		resolver:   res,
		logger:     l,
		validator:  v,
		cookieName: cookieName,
		tokenTTL:   ttl,
	}
}

// CreateDevSession signs a token for the requested email and sets it as the
// session cookie.
func (h *SessionHandler) CreateDevSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req DevSessionRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()
	if err := decodeJSON(r, &req); err != nil {
		h.logger.InfoContext(ctx, "Failed to decode dev session request", slog.String("error", err.Error()))
		respondError(w, r, h.logger, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := h.validator.StructCtx(ctx, req); err != nil {
		respondError(w, r, h.logger, http.StatusBadRequest, "Validation failed: "+domain.ValidationMessage(err))
		return
	}

	session := auth.Session{Subject: req.Subject, Email: req.Email, Name: req.Name}
	if session.Subject == "" {
		session.Subject = req.Email
	}
	token, err := h.tokens.Generate(session)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to generate session token", slog.String("email", req.Email), slog.String("error", err.Error()))
		respondError(w, r, h.logger, http.StatusInternalServerError, "Failed to create session")
		return
	}

	if h.cookieName != "" {
		http.SetCookie(w, &http.Cookie{
			Name:     h.cookieName,
			Value:    token,
			Path:     "/",
			MaxAge:   int(h.tokenTTL.Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}

	identity := domain.Identity{
		Authenticated: true,
		UserID:        session.Subject,
		Email:         session.Email,
		Name:          session.Name,
		IsAdmin:       h.resolver.IsAdmin(session.Email),
	}
	h.logger.InfoContext(ctx, "Development session issued", slog.String("email", identity.Email), slog.Bool("admin", identity.IsAdmin))
	respondJSON(w, r, h.logger, http.StatusCreated, DevSessionResponse{Token: token, Identity: identity})
}
