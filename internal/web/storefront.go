package web

import (
	"log/slog"
	"net/http"

	"github.com/amavi/catalogo/internal/model"
)

// Index handles GET /, the public storefront.
func (s *Server) Index(w http.ResponseWriter, r *http.Request) {
	selected := r.URL.Query().Get("tipo")

	items, err := s.Catalog.ListItems(r.Context(), selected)
	if err != nil {
		slog.Error("failed to list items", "error", err)
		plainText(w, http.StatusInternalServerError, msgLoadFailed)
		return
	}

	types, err := s.Catalog.Types(r.Context())
	if err != nil {
		slog.Error("failed to list item types", "error", err)
	}

	s.Templates.Render(w, "index.html", &struct {
		PageData
		Items        []model.Item
		Types        []string
		SelectedType string
	}{
		PageData:     PageData{Title: "Catálogo", Session: GetSession(r.Context())},
		Items:        items,
		Types:        types,
		SelectedType: selected,
	})
}
