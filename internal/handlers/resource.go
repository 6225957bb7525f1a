package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/msb-blog/apiserver/internal/model"
	"github.com/msb-blog/apiserver/internal/services"
	"github.com/msb-blog/apiserver/internal/store"
	"github.com/msb-blog/apiserver/types"
)

// Resource is the service surface the generic router drives. One
// implementation per registered model, synthesized from its schema
// descriptor.
type Resource interface {
	Descriptor() model.Descriptor
	List(ctx context.Context) ([]map[string]any, error)
	Get(ctx context.Context, id string) (map[string]any, error)
	Create(ctx context.Context, doc map[string]any, caller types.Identity) (map[string]any, error)
	Update(ctx context.Context, id string, body map[string]any) error
	Delete(ctx context.Context, id string) error
}

// ResourceHandler serves the five CRUD operations for one model.
type ResourceHandler struct {
	svc Resource
}

func NewResourceHandler(svc Resource) *ResourceHandler {
	return &ResourceHandler{svc: svc}
}

// ResourceRouter synthesizes the model's routes under /v1/{plural}.
// List and Read are public; Create, Update and Delete pass through the
// session middleware first.
func ResourceRouter(r chi.Router, svc Resource, requireSession func(http.Handler) http.Handler) {
	handler := NewResourceHandler(svc)
	base := "/v1/" + svc.Descriptor().Plural()

	r.Get(base, handler.List)
	r.With(requireSession).Post(base, handler.Create)
	r.Head(base, handler.Empty)
	r.Options(base, handler.Empty)

	item := base + "/{instanceID}"
	r.Get(item, handler.Read)
	r.With(requireSession).Post(item, handler.Update)
	r.With(requireSession).Delete(item, handler.Delete)
}

func (h *ResourceHandler) List(w http.ResponseWriter, r *http.Request) {
	desc := h.svc.Descriptor()

	views, err := h.svc.List(r.Context())
	if err != nil {
		writeErrors(w, http.StatusInternalServerError, fmt.Sprintf("failed to list %s", desc.Plural()))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{desc.Plural(): views})
}

func (h *ResourceHandler) Create(w http.ResponseWriter, r *http.Request) {
	desc := h.svc.Descriptor()

	identity, err := identityFromContext(r.Context())
	if err != nil {
		writeErrors(w, http.StatusUnauthorized, "Must be logged in.")
		return
	}

	var doc map[string]any
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil || doc == nil {
		writeErrors(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.svc.Create(r.Context(), doc, identity)
	if err != nil {
		var validation *services.ValidationError
		switch {
		case errors.As(err, &validation):
			writeErrors(w, http.StatusBadRequest, validation.Fields...)
		case errors.Is(err, store.ErrDuplicate):
			writeErrors(w, http.StatusBadRequest, fmt.Sprintf("%s already exists", desc.Name))
		default:
			writeErrors(w, http.StatusInternalServerError, fmt.Sprintf("failed to create %s", desc.Name))
		}
		return
	}

	writeJSON(w, http.StatusOK, view)
}

func (h *ResourceHandler) Read(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "instanceID")

	view, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeErrors(w, http.StatusNotFound, h.notFoundMessage(id))
			return
		}
		writeErrors(w, http.StatusInternalServerError, fmt.Sprintf("failed to fetch %s", h.svc.Descriptor().Name))
		return
	}

	writeJSON(w, http.StatusOK, view)
}

func (h *ResourceHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "instanceID")

	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body == nil {
		writeErrors(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.svc.Update(r.Context(), id, body); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeErrors(w, http.StatusNotFound, h.notFoundMessage(id))
			return
		}
		// Malformed update documents surface here as store errors.
		writeErrors(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *ResourceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "instanceID")

	if err := h.svc.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]any{"deleted": false})
			return
		}
		writeErrors(w, http.StatusInternalServerError, fmt.Sprintf("failed to delete %s", h.svc.Descriptor().Name))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

// Empty answers HEAD and OPTIONS on the collection path; the CORS
// middleware has already stamped the headers by the time it runs.
func (h *ResourceHandler) Empty(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (h *ResourceHandler) notFoundMessage(id string) string {
	return fmt.Sprintf("No %s object with id %s", h.svc.Descriptor().Name, id)
}
