package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/Jitesh050/ConnectSphere---A-LinkedIn-Clone/internal/storage"
	"github.com/go-chi/chi/v5"
)

// ObjectReader opens stored objects by key. *storage.Storage satisfies it.
type ObjectReader interface {
	Get(ctx context.Context, key string) (storage.Object, error)
}

// UploadRouter serves stored post images.
func UploadRouter(r chi.Router, objects ObjectReader) {
	r.Get("/{key}", func(w http.ResponseWriter, r *http.Request) {
		serveUpload(w, r, objects)
	})
}

func serveUpload(w http.ResponseWriter, r *http.Request, objects ObjectReader) {
	object, err := objects.Get(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			writeError(w, http.StatusNotFound, CodeNotFound, "image not found")
			return
		}
		writeInternalError(w, r, "failed to load image", err)
		return
	}
	defer object.Body.Close()

	if object.ContentType != "" {
		w.Header().Set("Content-Type", object.ContentType)
	}
	if object.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(object.Size, 10))
	}
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, object.Body)
}
