package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/recipebox/apiserver/internal/storage"
	"go.uber.org/zap"
)

// MediaRouter serves stored recipe images under /media/* when no public
// object URL is configured.
func MediaRouter(r chi.Router, objects *storage.Storage, logger *zap.Logger) {
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		obj, err := objects.Get(r.Context(), chi.URLParam(r, "*"))
		if err != nil {
			if errors.Is(err, storage.ErrObjectNotFound) {
				writeError(w, http.StatusNotFound, "not found")
				return
			}
			logger.Error("read media object", zap.String("path", r.URL.Path), zap.Error(err))
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		defer obj.Body.Close()

		if obj.ContentType != "" {
			w.Header().Set("Content-Type", obj.ContentType)
		}
		if obj.Size > 0 {
			w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
		}
		w.Header().Set("Cache-Control", "public, max-age=86400")
		w.WriteHeader(http.StatusOK)
		if _, err := io.Copy(w, obj.Body); err != nil {
			logger.Debug("stream media object", zap.Error(err))
		}
	})
}
