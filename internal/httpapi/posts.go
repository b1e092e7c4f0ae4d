package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"

	"github.com/Benjamin-taro/heaters/internal/domain"
	"github.com/Benjamin-taro/heaters/internal/storage"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) listPosts(w http.ResponseWriter, r *http.Request) {
	result, err := h.store.ListPosts(r.Context(), storage.ParseListQuery(parseQuery(r.URL.RawQuery)))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) getPost(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		respondError(w, r, storage.ErrNotFound)
		return
	}
	post, err := h.store.GetPostByID(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (h *Handler) createPost(w http.ResponseWriter, r *http.Request) {
	payload, err := h.readPayload(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if len(payload) == 0 {
		respondError(w, r, badRequest(msgNoInsertFields))
		return
	}
	post, err := h.store.CreatePost(r.Context(), payload)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

func (h *Handler) updatePost(w http.ResponseWriter, r *http.Request) {
	payload, err := h.readPayload(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if len(payload) == 0 {
		respondError(w, r, badRequest(msgNoUpdateFields))
		return
	}
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		respondError(w, r, storage.ErrNotFound)
		return
	}
	post, err := h.store.UpdatePost(r.Context(), id, payload)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readPayload читает тело с ограничением размера и оставляет только
// разрешённые поля. Пустое тело считается пустым объектом.
func (h *Handler) readPayload(w http.ResponseWriter, r *http.Request) (domain.Payload, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, badRequest(msgTooLarge)
		}
		return nil, err
	}
	if len(body) == 0 {
		return domain.Payload{}, nil
	}
	if !json.Valid(body) {
		return nil, badRequest(msgInvalidJSON)
	}
	if trimmed := bytes.TrimSpace(body); len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, badRequest(msgInvalidBody)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, badRequest(msgInvalidJSON)
	}
	return pickAllowed(fields), nil
}

// pickAllowed молча отбрасывает неизвестные поля.
func pickAllowed(fields map[string]json.RawMessage) domain.Payload {
	payload := make(domain.Payload)
	for _, key := range domain.AllowedFields {
		if raw, ok := fields[key]; ok {
			payload[key] = raw
		}
	}
	return payload
}

// parseID приводит сегмент пути к числу; всё, что не целое, не найдётся.
func parseID(s string) (int64, bool) {
	f := domain.NumberFromString(s)
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || f < 1 || f > math.MaxInt64/2 {
		return 0, false
	}
	return int64(f), true
}
