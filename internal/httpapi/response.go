package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/Benjamin-taro/heaters/internal/domain"
	"github.com/Benjamin-taro/heaters/internal/storage"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	msgNotFound         = "Not found"
	msgMethodNotAllowed = "Method not allowed"
	msgInvalidJSON      = "Invalid JSON body"
	msgTooLarge         = "Payload too large"
	msgInvalidBody      = "Invalid body"
	msgNoInsertFields   = "No fields to insert"
	msgNoUpdateFields   = "No fields to update"
	msgInternal         = "Internal server error"
)

// requestError - ошибка разбора запроса, отдаётся клиенту как 400.
type requestError struct {
	message string
}

func (e *requestError) Error() string {
	return e.message
}

func badRequest(message string) error {
	return &requestError{message: message}
}

func setCORS(h http.Header) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET,POST,PATCH,OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("failed to encode response: %v", err)
		status = http.StatusInternalServerError
		body = []byte(`{"error":"` + msgInternal + `"}`)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	setCORS(w.Header())
	w.WriteHeader(status)
	w.Write(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// respondError сводит ошибку к одному из классов: 400, 404 или 500.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var reqErr *requestError
	var validationErr *domain.ValidationError
	var corruptErr *storage.CorruptError
	switch {
	case errors.As(err, &reqErr):
		writeError(w, http.StatusBadRequest, reqErr.message)
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, validationErr.Message)
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, msgNotFound)
	case errors.As(err, &corruptErr):
		log.Printf("[%s] storage corrupt: %v", middleware.GetReqID(r.Context()), err)
		writeError(w, http.StatusInternalServerError, msgInternal)
	default:
		log.Printf("[%s] %s %s: %v", middleware.GetReqID(r.Context()), r.Method, r.URL.Path, err)
		writeError(w, http.StatusInternalServerError, msgInternal)
	}
}
