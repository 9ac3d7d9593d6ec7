// Package api serves the read-only JSON view of the catalog.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/amavi/catalogo/internal/catalog"
)

// NewRouter creates the API router. Paths are relative to its mount point.
func NewRouter(svc *catalog.Service) http.Handler {
	h := &ItemsHandler{Catalog: svc}

	r := chi.NewRouter()
	r.Get("/pecas", h.List)
	r.Get("/pecas/{id}", h.Get)
	r.Get("/tipos", h.Types)
	return r
}
