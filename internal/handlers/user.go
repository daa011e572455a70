package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/recipebox/apiserver/internal/auth"
	"github.com/recipebox/apiserver/internal/services"
	"github.com/recipebox/apiserver/internal/validation"
	"go.uber.org/zap"
)

// UserHandler provides registration, token and profile endpoints.
type UserHandler struct {
	userService *services.UserService
	issuer      auth.TokenIssuer
	logger      *zap.Logger
}

// NewUserHandler constructs a UserHandler with the provided dependencies.
func NewUserHandler(userService *services.UserService, issuer auth.TokenIssuer, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		issuer:      issuer,
		logger:      logger,
	}
}

// UserRouter registers user routes on the given router. rateLimit guards
// the unauthenticated endpoints and may be nil.
func UserRouter(
	r chi.Router,
	userService *services.UserService,
	issuer auth.TokenIssuer,
	logger *zap.Logger,
	authMiddleware func(http.Handler) http.Handler,
	rateLimit func(http.Handler) http.Handler,
) {
	handler := NewUserHandler(userService, issuer, logger)

	public := r
	if rateLimit != nil {
		public = r.With(rateLimit)
	}
	public.Post("/create", handler.Create)
	public.Post("/token", handler.Token)

	r.Route("/me", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", handler.Me)
		r.Put("/", handler.UpdateMe)
		r.Patch("/", handler.UpdateMe)
	})
}

type TokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type UserResponse struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Create registers a new account.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req services.CreateUserInput
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.userService.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "user not found")
		return
	}

	writeJSON(w, http.StatusCreated, UserResponse{Email: user.Email, Name: user.Name})
}

// Token exchanges credentials for the caller's API token.
func (h *UserHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	fields := map[string]string{}
	if req.Email == "" {
		fields["email"] = "is required"
	}
	if req.Password == "" {
		fields["password"] = "is required"
	}
	if len(fields) > 0 {
		writeServiceError(w, r, h.logger, &validation.Error{Message: "validation failed", Fields: fields}, "")
		return
	}

	user, err := h.userService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "")
		return
	}

	token, err := h.issuer.Issue(r.Context(), user)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "")
		return
	}

	if err := h.userService.RecordLogin(r.Context(), user.ID); err != nil {
		h.logger.Warn("record login", zap.Int("user_id", user.ID), zap.Error(err))
	}

	writeJSON(w, http.StatusOK, TokenResponse{Token: token})
}

// Me returns the authenticated user's profile.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, unauthorizedMessage)
		return
	}
	writeJSON(w, http.StatusOK, UserResponse{Email: user.Email, Name: user.Name})
}

// UpdateMe applies PUT (full) or PATCH (partial) profile updates.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, unauthorizedMessage)
		return
	}

	var req services.UpdateUserInput
	if !decodeJSON(w, r, &req) {
		return
	}

	updated, err := h.userService.Update(r.Context(), user, req, r.Method == http.MethodPatch)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "user not found")
		return
	}

	writeJSON(w, http.StatusOK, UserResponse{Email: updated.Email, Name: updated.Name})
}
