package pkg

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tokyoedge/portal/pkg/logger"
)

var log = logger.For("http")

// APIResponse, tüm API yanıtları için standart format.
// Frontend her zaman aynı yapıyı bekler.
type APIResponse struct {
	Success bool         `json:"success"`
	Data    any          `json:"data,omitempty"`
	Error   string       `json:"error,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// internalMessage, 500 yanıtlarında client'a giden sabit mesaj.
// Gerçek hata sadece server log'una yazılır.
const internalMessage = "internal server error"

// JSON, başarılı bir yanıt gönderir.
func JSON(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, APIResponse{
		Success: true,
		Data:    data,
	})
}

// Error, hata yanıtı gönderir.
// Domain error'ları otomatik olarak uygun HTTP status code'a çevrilir.
// Map'lenemeyen error'lar (persistence vb.) log'lanır ve sanitize edilmiş
// "internal server error" mesajı ile 500 döner.
func Error(w http.ResponseWriter, err error) {
	status := mapErrorToStatus(err)

	resp := APIResponse{
		Success: false,
		Error:   err.Error(),
	}

	var verr *ValidationError
	if errors.As(err, &verr) {
		resp.Errors = verr.Fields
	}

	if status == http.StatusInternalServerError {
		log.WithError(err).Error("request failed")
		resp.Error = internalMessage
	}

	writeJSON(w, status, resp)
}

// ErrorWithMessage, özel mesajlı hata yanıtı gönderir.
func ErrorWithMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   message,
	})
}

func writeJSON(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.WithError(err).Warn("failed to encode response")
	}
}

// mapErrorToStatus, domain error'ları HTTP status code'larına eşler.
// errors.Is() wrap edilmiş error'ları da yakalar.
func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrAlreadyExists), errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
