package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/recipebox/apiserver/internal/services"
	"github.com/recipebox/apiserver/internal/validation"
	"github.com/recipebox/apiserver/types"
	"go.uber.org/zap"
)

const (
	formFieldImage     = "image"
	maxMultipartMemory = 1 << 20
	recipeNotFound     = "recipe not found"
)

// RecipeHandler provides HTTP handlers for recipes.
type RecipeHandler struct {
	recipeService *services.RecipeService
	logger        *zap.Logger
}

// NewRecipeHandler constructs a RecipeHandler with the provided service.
func NewRecipeHandler(recipeService *services.RecipeService, logger *zap.Logger) *RecipeHandler {
	return &RecipeHandler{
		recipeService: recipeService,
		logger:        logger,
	}
}

// RecipeRouter registers recipe routes. Every route requires auth.
func RecipeRouter(r chi.Router, recipeService *services.RecipeService, logger *zap.Logger) {
	handler := NewRecipeHandler(recipeService, logger)

	r.Get("/", handler.ListRecipes)
	r.Post("/", handler.CreateRecipe)
	r.Route("/{recipeID}", func(r chi.Router) {
		r.Get("/", handler.GetRecipe)
		r.Put("/", handler.UpdateRecipe)
		r.Patch("/", handler.UpdateRecipe)
		r.Delete("/", handler.DeleteRecipe)
		r.Post("/upload-image", handler.UploadImage)
	})
}

// RecipeSummary is the list representation of a recipe.
type RecipeSummary struct {
	ID          int                `json:"id"`
	Title       string             `json:"title"`
	TimeMinutes int                `json:"time_minutes"`
	Price       string             `json:"price"`
	Link        string             `json:"link"`
	Tags        []types.Tag        `json:"tags"`
	Ingredients []types.Ingredient `json:"ingredients"`
}

// RecipeDetail extends the summary with the description and image.
type RecipeDetail struct {
	RecipeSummary
	Description string    `json:"description"`
	Image       *string   `json:"image"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type RecipeImageResponse struct {
	ID    int    `json:"id"`
	Image string `json:"image"`
}

func newRecipeSummary(recipe types.Recipe) RecipeSummary {
	tags := recipe.Tags
	if tags == nil {
		tags = []types.Tag{}
	}
	ingredients := recipe.Ingredients
	if ingredients == nil {
		ingredients = []types.Ingredient{}
	}
	return RecipeSummary{
		ID:          recipe.ID,
		Title:       recipe.Title,
		TimeMinutes: recipe.TimeMinutes,
		Price:       recipe.Price.StringFixed(2),
		Link:        recipe.Link,
		Tags:        tags,
		Ingredients: ingredients,
	}
}

func (h *RecipeHandler) newRecipeDetail(recipe types.Recipe) RecipeDetail {
	detail := RecipeDetail{
		RecipeSummary: newRecipeSummary(recipe),
		Description:   recipe.Description,
		CreatedAt:     recipe.CreatedAt,
		UpdatedAt:     recipe.UpdatedAt,
	}
	if recipe.Image != "" {
		url := h.recipeService.ImageURL(recipe.Image)
		detail.Image = &url
	}
	return detail
}

// ListRecipes returns the caller's recipes, optionally filtered by
// ?tags=1,2 and ?ingredients=3.
func (h *RecipeHandler) ListRecipes(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, unauthorizedMessage)
		return
	}

	query := r.URL.Query()
	var filter types.RecipeFilter
	var err error
	if filter.TagIDs, err = parseIDList(query.Get("tags")); err != nil {
		writeServiceError(w, r, h.logger, validation.FieldError("tags", "must be a comma separated list of IDs"), "")
		return
	}
	if filter.IngredientIDs, err = parseIDList(query.Get("ingredients")); err != nil {
		writeServiceError(w, r, h.logger, validation.FieldError("ingredients", "must be a comma separated list of IDs"), "")
		return
	}

	recipes, err := h.recipeService.List(r.Context(), user.ID, filter)
	if err != nil {
		writeServiceError(w, r, h.logger, err, recipeNotFound)
		return
	}

	resp := make([]RecipeSummary, 0, len(recipes))
	for _, recipe := range recipes {
		resp = append(resp, newRecipeSummary(recipe))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *RecipeHandler) CreateRecipe(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, unauthorizedMessage)
		return
	}

	var req services.RecipeInput
	if !decodeJSON(w, r, &req) {
		return
	}

	recipe, err := h.recipeService.Create(r.Context(), user.ID, req)
	if err != nil {
		writeServiceError(w, r, h.logger, err, recipeNotFound)
		return
	}

	writeJSON(w, http.StatusCreated, h.newRecipeDetail(recipe))
}

func (h *RecipeHandler) GetRecipe(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, unauthorizedMessage)
		return
	}
	id, ok := parseIDParam(w, r, "recipeID", recipeNotFound)
	if !ok {
		return
	}

	recipe, err := h.recipeService.Get(r.Context(), user.ID, id)
	if err != nil {
		writeServiceError(w, r, h.logger, err, recipeNotFound)
		return
	}

	writeJSON(w, http.StatusOK, h.newRecipeDetail(recipe))
}

// UpdateRecipe handles PUT (full) and PATCH (partial) updates.
func (h *RecipeHandler) UpdateRecipe(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, unauthorizedMessage)
		return
	}
	id, ok := parseIDParam(w, r, "recipeID", recipeNotFound)
	if !ok {
		return
	}

	var req services.RecipeInput
	if !decodeJSON(w, r, &req) {
		return
	}

	recipe, err := h.recipeService.Update(r.Context(), user.ID, id, req, r.Method == http.MethodPatch)
	if err != nil {
		writeServiceError(w, r, h.logger, err, recipeNotFound)
		return
	}

	writeJSON(w, http.StatusOK, h.newRecipeDetail(recipe))
}

func (h *RecipeHandler) DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, unauthorizedMessage)
		return
	}
	id, ok := parseIDParam(w, r, "recipeID", recipeNotFound)
	if !ok {
		return
	}

	if err := h.recipeService.Delete(r.Context(), user.ID, id); err != nil {
		writeServiceError(w, r, h.logger, err, recipeNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UploadImage accepts a multipart form with an "image" file field.
func (h *RecipeHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, unauthorizedMessage)
		return
	}
	id, ok := parseIDParam(w, r, "recipeID", recipeNotFound)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, services.MaxImageBytes+maxMultipartMemory)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeServiceError(w, r, h.logger, validation.FieldError(formFieldImage, "file is too large"), "")
			return
		}
		writeServiceError(w, r, h.logger, validation.FieldError(formFieldImage, "is required"), "")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(formFieldImage)
	if err != nil {
		writeServiceError(w, r, h.logger, validation.FieldError(formFieldImage, "is required"), "")
		return
	}
	defer file.Close()

	recipe, err := h.recipeService.UploadImage(r.Context(), user.ID, id, file, header.Size, header.Filename)
	if err != nil {
		writeServiceError(w, r, h.logger, err, recipeNotFound)
		return
	}

	writeJSON(w, http.StatusOK, RecipeImageResponse{ID: recipe.ID, Image: h.recipeService.ImageURL(recipe.Image)})
}
