package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/almoxarifado/internal/model"
	"github.com/erazemk/almoxarifado/internal/store"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("error encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

type validationResponse struct {
	Error  string             `json:"error"`
	Fields []model.FieldError `json:"campos"`
}

// storeError maps service and store errors to a response. Unknown errors are
// logged and reported as 500 with the given message.
func storeError(w http.ResponseWriter, err error, message string) {
	var verrs model.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		jsonResponse(w, http.StatusBadRequest, validationResponse{Error: "dados inválidos", Fields: verrs})
	case errors.Is(err, store.ErrAlreadyExists):
		jsonError(w, http.StatusConflict, "já cadastrado")
	case errors.Is(err, store.ErrNotPending):
		jsonError(w, http.StatusConflict, "empréstimo já devolvido")
	case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrLoanNotFound):
		jsonError(w, http.StatusNotFound, "não encontrado")
	case errors.Is(err, store.ErrStockNotFound), errors.Is(err, store.ErrInsufficientStock):
		jsonError(w, http.StatusConflict, err.Error())
	default:
		slog.Error(message, "error", err)
		jsonError(w, http.StatusInternalServerError, message)
	}
}
