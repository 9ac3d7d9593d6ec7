package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/amavi/catalogo/internal/catalog"
)

// User-facing messages.
const (
	msgBadLogin            = "Usuário ou senha incorretos!"
	msgUnauthorized        = "Não autorizado."
	msgNotFound            = "Peça não encontrada."
	msgLoadFailed          = "Erro ao carregar as peças."
	msgSaveFailed          = "Erro ao salvar a peça."
	msgBadForm             = "Formulário inválido."
	msgAvailabilityUpdated = "Disponibilidade atualizada com sucesso."
	msgAvailabilityMissing = "Informe a disponibilidade."
)

// messageBody is the JSON body of the availability endpoint.
type messageBody struct {
	Message string `json:"message"`
}

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode response", "error", err)
		}
	}
}

// jsonMessage writes a {"message": ...} response.
func jsonMessage(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, messageBody{Message: message})
}

// plainText writes a plain-text response.
func plainText(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(message)); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

// writeCatalogError maps a catalog error to a plain-text response.
func writeCatalogError(w http.ResponseWriter, err error, action string) {
	var verr *catalog.ValidationError
	switch {
	case errors.As(err, &verr):
		plainText(w, http.StatusBadRequest, strings.Join(verr.Messages, "\n"))
	case errors.Is(err, catalog.ErrNotFound):
		plainText(w, http.StatusNotFound, msgNotFound)
	default:
		slog.Error("failed to "+action, "error", err)
		plainText(w, http.StatusInternalServerError, msgSaveFailed)
	}
}
