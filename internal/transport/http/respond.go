package http

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// ErrorResponse — единый формат ошибки API.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.WithError(err).Warn("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// respondDomainError переводит доменные ошибки в HTTP-статусы.
// Текст доменной ошибки — часть контракта API и отдаётся как есть.
func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsNotFound(err):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case err == domain.ErrQuantityInvalid:
		respondError(w, http.StatusBadRequest, "invalid_quantity", err.Error())
	case err == domain.ErrCartAlreadyExists || err == domain.ErrOrderAlreadyExists:
		respondError(w, http.StatusConflict, "already_exists", err.Error())
	case domain.IsVersionConflict(err):
		respondError(w, http.StatusConflict, "version_conflict", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
