package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/recipebox/apiserver/internal/services"
	"github.com/recipebox/apiserver/internal/validation"
	"go.uber.org/zap"
)

// AttributeHandler serves the tag and ingredient collections. Both share
// one shape and differ only in the backing service.
type AttributeHandler struct {
	service  *services.AttributeService
	logger   *zap.Logger
	notFound string
}

func NewAttributeHandler(service *services.AttributeService, logger *zap.Logger) *AttributeHandler {
	return &AttributeHandler{
		service:  service,
		logger:   logger,
		notFound: service.Kind() + " not found",
	}
}

// AttributeRouter registers list and detail routes for tags or ingredients.
func AttributeRouter(r chi.Router, service *services.AttributeService, logger *zap.Logger) {
	handler := NewAttributeHandler(service, logger)

	r.Get("/", handler.List)
	r.Route("/{attributeID}", func(r chi.Router) {
		r.Get("/", handler.Get)
		r.Put("/", handler.Update)
		r.Patch("/", handler.Update)
		r.Delete("/", handler.Delete)
	})
}

// List honours ?assigned_only=1.
func (h *AttributeHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, unauthorizedMessage)
		return
	}

	assignedOnly := false
	if raw := r.URL.Query().Get("assigned_only"); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			writeServiceError(w, r, h.logger, validation.FieldError("assigned_only", "must be 0 or 1"), "")
			return
		}
		assignedOnly = value
	}

	attrs, err := h.service.List(r.Context(), user.ID, assignedOnly)
	if err != nil {
		writeServiceError(w, r, h.logger, err, h.notFound)
		return
	}
	writeJSON(w, http.StatusOK, attrs)
}

func (h *AttributeHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, unauthorizedMessage)
		return
	}
	id, ok := parseIDParam(w, r, "attributeID", h.notFound)
	if !ok {
		return
	}

	attr, err := h.service.Get(r.Context(), user.ID, id)
	if err != nil {
		writeServiceError(w, r, h.logger, err, h.notFound)
		return
	}
	writeJSON(w, http.StatusOK, attr)
}

func (h *AttributeHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, unauthorizedMessage)
		return
	}
	id, ok := parseIDParam(w, r, "attributeID", h.notFound)
	if !ok {
		return
	}

	var req services.AttributeUpdateInput
	if !decodeJSON(w, r, &req) {
		return
	}

	attr, err := h.service.Update(r.Context(), user.ID, id, req, r.Method == http.MethodPatch)
	if err != nil {
		writeServiceError(w, r, h.logger, err, h.notFound)
		return
	}
	writeJSON(w, http.StatusOK, attr)
}

func (h *AttributeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, unauthorizedMessage)
		return
	}
	id, ok := parseIDParam(w, r, "attributeID", h.notFound)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), user.ID, id); err != nil {
		writeServiceError(w, r, h.logger, err, h.notFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
