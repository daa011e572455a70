package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/recipebox/apiserver/internal/services"
	"github.com/recipebox/apiserver/internal/store"
	"github.com/recipebox/apiserver/internal/validation"
	"github.com/recipebox/apiserver/types"
	"go.uber.org/zap"
)

const maxJSONBodyBytes = 1 << 20

type contextKey string

const contextUserKey contextKey = "user"

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func withUser(ctx context.Context, user types.User) context.Context {
	return context.WithValue(ctx, contextUserKey, user)
}

func userFromContext(ctx context.Context) (types.User, bool) {
	user, ok := ctx.Value(contextUserKey).(types.User)
	return user, ok && user.ID > 0
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeServiceError maps service and store errors onto HTTP responses.
// notFound is the message used for store.ErrNotFound.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error, notFound string) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: verr.Message, Fields: verr.Fields})
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, notFound)
	case errors.Is(err, services.ErrInvalidCredentials):
		writeError(w, http.StatusBadRequest, "Unable to authenticate with given credentials.")
	case errors.Is(err, services.ErrImagesDisabled):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "request canceled")
	default:
		logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeJSON reads a JSON object into dst. An empty body decodes as {}.
// Unknown fields are ignored.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// parseIDParam reads a positive integer URL parameter. Anything else is
// reported as not found.
func parseIDParam(w http.ResponseWriter, r *http.Request, name, notFound string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id < 1 {
		writeError(w, http.StatusNotFound, notFound)
		return 0, false
	}
	return id, true
}

// parseIDList parses a comma separated list of IDs such as "1,2,3".
func parseIDList(raw string) ([]int, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var ids []int
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// MethodNotAllowed answers requests whose path exists but whose verb does not.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method \""+r.Method+"\" not allowed")
}

// NotFound answers requests for unknown paths.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "not found")
}

// Healthz reports liveness.
func Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
