package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/msb-blog/apiserver/internal/services"
	"github.com/msb-blog/apiserver/internal/storage"
	"github.com/msb-blog/apiserver/internal/store"
)

const maxMediaMemory = 32 << 20

// MediaHandler serves file attachments for posts.
type MediaHandler struct {
	svc *services.MediaService
}

func NewMediaHandler(svc *services.MediaService) *MediaHandler {
	return &MediaHandler{svc: svc}
}

// MediaRouter registers the media routes under the post item path.
// Upload and delete require a session; download is public like Read.
func MediaRouter(r chi.Router, svc *services.MediaService, requireSession func(http.Handler) http.Handler) {
	handler := NewMediaHandler(svc)
	base := "/v1/posts/{instanceID}/media"

	r.With(requireSession).Post(base, handler.Upload)
	r.Get(base+"/{filename}", handler.Download)
	r.With(requireSession).Delete(base+"/{filename}", handler.Remove)
}

func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "instanceID")

	if err := r.ParseMultipartForm(maxMediaMemory); err != nil {
		writeErrors(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeErrors(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	if filename == "." || filename == "/" {
		writeErrors(w, http.StatusBadRequest, "invalid filename")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if err := h.svc.Upload(r.Context(), postID, filename, contentType, file, header.Size); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeErrors(w, http.StatusNotFound, fmt.Sprintf("No post object with id %s", postID))
			return
		}
		writeErrors(w, http.StatusInternalServerError, "failed to store media")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"name": filename})
}

func (h *MediaHandler) Download(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "instanceID")
	filename := chi.URLParam(r, "filename")

	reader, err := h.svc.Open(r.Context(), postID, filename)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			writeErrors(w, http.StatusNotFound, fmt.Sprintf("No media object with name %s", filename))
			return
		}
		writeErrors(w, http.StatusInternalServerError, "failed to fetch media")
		return
	}
	defer reader.Close()

	if contentType := mime.TypeByExtension(filepath.Ext(filename)); contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	_, _ = io.Copy(w, reader)
}

func (h *MediaHandler) Remove(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "instanceID")
	filename := chi.URLParam(r, "filename")

	if err := h.svc.Remove(r.Context(), postID, filename); err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			writeJSON(w, http.StatusNotFound, map[string]any{"deleted": false})
			return
		}
		writeErrors(w, http.StatusInternalServerError, "failed to delete media")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}
