package services

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/recipebox/apiserver/internal/store"
	"github.com/recipebox/apiserver/internal/validation"
	"github.com/recipebox/apiserver/types"
	"go.uber.org/zap"
)

const (
	// MaxImageBytes bounds a single recipe image upload.
	MaxImageBytes = 10 << 20

	imageKeyPrefix = "uploads/recipe/"
	sniffLen       = 512
)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

// ObjectStore stores uploaded files. *storage.Storage satisfies it.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
}

type imageUploader struct {
	objects ObjectStore
	baseURL string
	logger  *zap.Logger
}

// WithImages enables recipe image uploads. baseURL, when set, prefixes
// object keys in image URLs.
func WithImages(objects ObjectStore, baseURL string) RecipeOption {
	return func(s *RecipeService) {
		if objects == nil {
			return
		}
		s.images = &imageUploader{objects: objects, baseURL: strings.TrimRight(baseURL, "/"), logger: s.logger}
	}
}

// ImageURL turns a stored image key into the address clients use.
func (s *RecipeService) ImageURL(key string) string {
	if key == "" {
		return ""
	}
	if s.images == nil || s.images.baseURL == "" {
		return key
	}
	return s.images.baseURL + "/" + key
}

// UploadImage stores an image for one of the caller's recipes and replaces
// any previous one.
func (s *RecipeService) UploadImage(ctx context.Context, userID, id int, file io.Reader, size int64, filename string) (types.Recipe, error) {
	if s.images == nil {
		return types.Recipe{}, ErrImagesDisabled
	}

	repos := s.store.Repositories()
	if _, err := repos.Recipes.Get(ctx, userID, id); err != nil {
		return types.Recipe{}, err
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return types.Recipe{}, err
	}
	head = head[:n]
	contentType := http.DetectContentType(head)
	if n == 0 || !strings.HasPrefix(contentType, "image/") {
		return types.Recipe{}, validation.FieldError("image", "upload a valid image")
	}

	ext, ok := imageExtensions[contentType]
	if !ok {
		ext = strings.ToLower(path.Ext(filename))
	}
	key := imageKeyPrefix + uuid.NewString() + ext

	body := io.MultiReader(bytes.NewReader(head), file)
	if err := s.images.objects.Put(ctx, key, body, size, contentType); err != nil {
		return types.Recipe{}, err
	}

	var (
		updated  types.Recipe
		previous string
	)
	err = s.store.WithinTx(ctx, func(ctx context.Context, repos store.Repositories) error {
		recipe, err := repos.Recipes.Get(ctx, userID, id)
		if err != nil {
			return err
		}
		previous = recipe.Image
		recipe.Image = key
		recipe, err = repos.Recipes.Update(ctx, recipe)
		if err != nil {
			return err
		}
		updated, err = loadAttributes(ctx, repos, recipe)
		return err
	})
	if err != nil {
		s.images.remove(ctx, key)
		return types.Recipe{}, err
	}

	s.images.remove(ctx, previous)
	s.events.publish(ctx, EventRecipeUpdated, updated)
	return updated, nil
}

func (u *imageUploader) remove(ctx context.Context, key string) {
	if u == nil || key == "" {
		return
	}
	if err := u.objects.Delete(ctx, key); err != nil {
		u.logger.Warn("delete recipe image failed", zap.String("key", key), zap.Error(err))
	}
}
