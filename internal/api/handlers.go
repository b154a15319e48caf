// internal/api/handlers.go
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"movie-reviews/internal/access"
	"movie-reviews/internal/domain"
	"movie-reviews/internal/metrics"
	"movie-reviews/internal/store"
)

// DataSourceHeader tells clients which data source produced a response.
const DataSourceHeader = "X-Data-Source"

const (
	dataSourceLive    = "live"
	dataSourceFixture = "fixture"
)

const fixtureNotice = "The service is running on fixture data. The change was accepted but not saved."

// maxBodyBytes caps request bodies; reviews are at most 500 characters.
const maxBodyBytes = 64 << 10

// Handler serves the movie and review resources.
type Handler struct {
	store     store.Store
	policy    *access.Policy
	logger    *slog.Logger
	validator *validator.Validate
	metrics   *metrics.Metrics
}

// NewHandler creates a Handler. m may be nil.
func NewHandler(s store.Store, p *access.Policy, l *slog.Logger, v *validator.Validate, m *metrics.Metrics) *Handler {
	return &Handler{
		store:     s,
		policy:    p,
		logger:    l,
		validator: v,
		metrics:   m,
	}
}

// writeResponse is the body of 201 responses to create requests.
type writeResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
	Mock    bool   `json:"mock,omitempty"`
	Notice  string `json:"notice,omitempty"`
}

func newWriteResponse(res store.WriteResult, message string) writeResponse {
	resp := writeResponse{ID: res.ID, Message: message}
	if !res.Persisted {
		resp.Mock = true
		resp.Notice = fixtureNotice
	}
	return resp
}

func (h *Handler) dataSource() string {
	if h.store.Live() {
		return dataSourceLive
	}
	return dataSourceFixture
}

func respondJSON(w http.ResponseWriter, r *http.Request, logger *slog.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			logger.ErrorContext(r.Context(), "Failed to encode JSON response", slog.String("error", err.Error()), slog.String("path", r.URL.Path))
		}
	}
}

func respondError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, status int, message string) {
	respondJSON(w, r, logger, status, map[string]string{"error": message})
}

func (h *Handler) respondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	respondJSON(w, r, h.logger, status, data)
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	respondError(w, r, h.logger, status, message)
}

// authorize checks the caller against op and writes the 401/403 response on
// denial. It reports whether the handler may continue.
func (h *Handler) authorize(w http.ResponseWriter, r *http.Request, op access.Operation) (domain.Identity, bool) {
	ctx := r.Context()
	id := access.IdentityFrom(ctx)

	err := h.policy.Authorize(id, op)
	switch {
	case err == nil:
		return id, true
	case errors.Is(err, access.ErrUnauthenticated):
		h.logger.InfoContext(ctx, "Unauthenticated request denied", slog.String("operation", op.String()))
		h.recordDenial(op, "unauthenticated")
		h.respondError(w, r, http.StatusUnauthorized, "Authentication required")
	case errors.Is(err, access.ErrForbidden):
		h.logger.WarnContext(ctx, "Non-admin request denied",
			slog.String("operation", op.String()),
			slog.String("userID", id.UserID),
			slog.String("email", id.Email))
		h.recordDenial(op, "forbidden")
		h.respondError(w, r, http.StatusForbidden, "Admin access required")
	default:
		h.logger.ErrorContext(ctx, "Access policy evaluation failed", slog.String("operation", op.String()), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Internal server error")
	}
	return id, false
}

func (h *Handler) recordDenial(op access.Operation, reason string) {
	if h.metrics != nil {
		h.metrics.RecordDenial(op.String(), reason)
	}
}

func (h *Handler) recordWrite(resource string, res store.WriteResult) {
	if h.metrics != nil && !res.Persisted {
		h.metrics.RecordUnpersistedWrite(resource)
	}
}

// validID writes a 400 response and returns false when id is not a document id.
func (h *Handler) validID(w http.ResponseWriter, r *http.Request, id, kind string) bool {
	if err := h.validator.VarCtx(r.Context(), id, "required,docid"); err != nil {
		h.logger.InfoContext(r.Context(), "Malformed id in path", slog.String("kind", kind), slog.String("id", id))
		h.respondError(w, r, http.StatusBadRequest, "Invalid "+kind+" id")
		return false
	}
	return true
}

// decodeBody decodes and validates a JSON request body into dst.
func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	if err := decodeJSON(r, dst); err != nil {
		h.logger.InfoContext(ctx, "Failed to decode request body", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	if err := h.validator.StructCtx(ctx, dst); err != nil {
		h.logger.InfoContext(ctx, "Request validation failed", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusBadRequest, "Validation failed: "+domain.ValidationMessage(err))
		return false
	}
	return true
}

var errTrailingData = errors.New("body must contain a single JSON object")

// decodeJSON decodes exactly one JSON value into dst. Unknown fields and
// trailing data are rejected.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errTrailingData
	}
	return nil
}

// Health reports liveness and the selected data source.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, r, http.StatusOK, map[string]string{
		"status":      "ok",
		"data_source": h.dataSource(),
	})
}
