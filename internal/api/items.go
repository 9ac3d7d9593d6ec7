package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/amavi/catalogo/internal/catalog"
	"github.com/amavi/catalogo/internal/model"
)

// ItemsHandler handles the public item endpoints.
type ItemsHandler struct {
	Catalog *catalog.Service
}

// List handles GET /api/pecas.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Catalog.ListItems(r.Context(), r.URL.Query().Get("tipo"))
	if err != nil {
		slog.Error("failed to list items", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list items")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Get handles GET /api/pecas/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid id")
		return
	}

	item, err := h.Catalog.GetItem(r.Context(), id)
	if errors.Is(err, catalog.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	if err != nil {
		slog.Error("failed to get item", "id", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Types handles GET /api/tipos.
func (h *ItemsHandler) Types(w http.ResponseWriter, r *http.Request) {
	types, err := h.Catalog.Types(r.Context())
	if err != nil {
		slog.Error("failed to list item types", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list types")
		return
	}
	if types == nil {
		types = []string{}
	}
	jsonResponse(w, http.StatusOK, types)
}
