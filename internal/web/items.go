package web

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"mime"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/amavi/catalogo/internal/catalog"
	"github.com/amavi/catalogo/internal/imaging"
	"github.com/amavi/catalogo/internal/model"
)

// maxFormSize bounds an item form: the photo plus the text fields.
const maxFormSize = imaging.MaxUploadSize + 1<<20

// AdminPage handles GET /admin.
func (s *Server) AdminPage(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("nome")

	items, err := s.Catalog.SearchItems(r.Context(), filter)
	if err != nil {
		slog.Error("failed to search items", "error", err)
		plainText(w, http.StatusInternalServerError, msgLoadFailed)
		return
	}

	s.Templates.Render(w, "admin.html", &struct {
		PageData
		Items      []model.Item
		FilterName string
	}{
		PageData:   PageData{Title: "Administração", Session: GetSession(r.Context())},
		Items:      items,
		FilterName: filter,
	})
}

// NewItemPage handles GET /admin/pecas/nova.
func (s *Server) NewItemPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "nova_peca.html", &PageData{
		Title:   "Nova peça",
		Session: GetSession(r.Context()),
	})
}

// CreateItemSubmit handles POST /admin/pecas/nova.
func (s *Server) CreateItemSubmit(w http.ResponseWriter, r *http.Request) {
	if err := parseItemForm(w, r); err != nil {
		slog.Warn("failed to parse item form", "error", err)
		plainText(w, http.StatusBadRequest, msgBadForm)
		return
	}

	image, err := formImage(r)
	if err != nil {
		slog.Warn("failed to read uploaded image", "error", err)
		plainText(w, http.StatusBadRequest, msgBadForm)
		return
	}
	if image != nil {
		defer image.Close()
	}

	in := catalog.CreateInput{
		Name:  r.PostFormValue("nome"),
		Price: parsePrice(r.PostFormValue("valor")),
		Type:  r.PostFormValue("tipo"),
		Size:  r.PostFormValue("tamanho"),
	}
	if image != nil {
		in.Image = image
	}

	if _, err := s.Catalog.CreateItem(r.Context(), in); err != nil {
		writeCatalogError(w, err, "create item")
		return
	}
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// EditItemPage handles GET /admin/pecas/editar/{id}.
func (s *Server) EditItemPage(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(r)
	if !ok {
		plainText(w, http.StatusNotFound, msgNotFound)
		return
	}

	item, err := s.Catalog.GetItem(r.Context(), id)
	if errors.Is(err, catalog.ErrNotFound) {
		plainText(w, http.StatusNotFound, msgNotFound)
		return
	}
	if err != nil {
		slog.Error("failed to get item", "id", id, "error", err)
		plainText(w, http.StatusInternalServerError, msgLoadFailed)
		return
	}

	s.Templates.Render(w, "editar_peca.html", &struct {
		PageData
		Item         *model.Item
		Availability []string
	}{
		PageData:     PageData{Title: item.Name, Session: GetSession(r.Context())},
		Item:         item,
		Availability: availabilityOptions(item.Availability),
	})
}

// availabilityOptions lists the built-in availability values plus the
// item's current one when it is custom, so the form keeps it selected.
func availabilityOptions(current string) []string {
	options := []string{model.AvailabilityAvailable, model.AvailabilityUnavailable}
	if current != "" && !slices.Contains(options, current) {
		options = append(options, current)
	}
	return options
}

// UpdateItemSubmit handles POST /admin/pecas/editar/{id}. Only the fields
// present in the form are changed.
func (s *Server) UpdateItemSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(r)
	if !ok {
		plainText(w, http.StatusNotFound, msgNotFound)
		return
	}

	if err := parseItemForm(w, r); err != nil {
		slog.Warn("failed to parse item form", "error", err)
		plainText(w, http.StatusBadRequest, msgBadForm)
		return
	}

	image, err := formImage(r)
	if err != nil {
		slog.Warn("failed to read uploaded image", "error", err)
		plainText(w, http.StatusBadRequest, msgBadForm)
		return
	}
	if image != nil {
		defer image.Close()
	}

	in := catalog.UpdateInput{
		Name:         formField(r, "nome"),
		Availability: formField(r, "disponibilidade"),
		Type:         formField(r, "tipo"),
		Size:         formField(r, "tamanho"),
	}
	if v := formField(r, "valor"); v != nil {
		price := parsePrice(*v)
		in.Price = &price
	}
	if image != nil {
		in.Image = image
	}

	if _, err := s.Catalog.UpdateItem(r.Context(), id, in); err != nil {
		writeCatalogError(w, err, "update item")
		return
	}
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// DeleteItem handles GET /admin/pecas/excluir/{id}.
func (s *Server) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(r)
	if !ok {
		plainText(w, http.StatusNotFound, msgNotFound)
		return
	}

	if err := s.Catalog.DeleteItem(r.Context(), id); err != nil {
		writeCatalogError(w, err, "delete item")
		return
	}
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// availabilityRequest is the JSON body of the availability endpoint.
type availabilityRequest struct {
	Availability string `json:"disponibilidade"`
}

// AvailabilitySubmit handles POST /admin/pecas/disponibilidade/{id}. The
// value comes from a JSON body or a form field.
func (s *Server) AvailabilitySubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(r)
	if !ok {
		jsonMessage(w, http.StatusNotFound, msgNotFound)
		return
	}

	var value string
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "application/json" {
		var req availabilityRequest
		if err := decodeJSON(r, &req); err != nil {
			jsonMessage(w, http.StatusBadRequest, msgBadForm)
			return
		}
		value = req.Availability
	} else {
		value = r.PostFormValue("disponibilidade")
	}

	value = strings.TrimSpace(value)
	if value == "" {
		jsonMessage(w, http.StatusBadRequest, msgAvailabilityMissing)
		return
	}

	_, err := s.Catalog.SetAvailability(r.Context(), id, value)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		jsonMessage(w, http.StatusNotFound, msgNotFound)
	case err != nil:
		slog.Error("failed to set availability", "id", id, "error", err)
		jsonMessage(w, http.StatusInternalServerError, msgSaveFailed)
	default:
		jsonMessage(w, http.StatusOK, msgAvailabilityUpdated)
	}
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(target)
}

// parseItemForm parses a multipart or URL-encoded item form.
func parseItemForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	err := r.ParseMultipartForm(maxFormSize)
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return err
	}
	return nil
}

// formImage returns the uploaded photo, or nil when none was sent.
func formImage(r *http.Request) (io.ReadCloser, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	file, _, err := r.FormFile("imagem")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return file, nil
}

// formField returns a pointer to the value sent in the request body, or
// nil when the field was not sent. Query parameters are ignored.
func formField(r *http.Request, key string) *string {
	values, ok := r.PostForm[key]
	if !ok || len(values) == 0 {
		return nil
	}
	v := values[0]
	return &v
}

// parsePrice accepts "150", "150.5" and "150,50". Anything else is zero,
// which validation rejects.
func parsePrice(s string) float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func itemID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
