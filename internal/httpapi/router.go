package httpapi

import (
	"net/http"

	"github.com/Benjamin-taro/heaters/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// DefaultMaxBodyBytes - предел размера тела запроса.
const DefaultMaxBodyBytes = 1_000_000

const postsTable = "posts"

// Handler переводит HTTP-запросы в операции хранилища.
type Handler struct {
	store        storage.Storage
	maxBodyBytes int64
}

// Options настраивает роутер.
type Options struct {
	MaxBodyBytes int64

	// AccessLog включает middleware.Logger.
	AccessLog bool
}

// NewRouter собирает chi-роутер API.
func NewRouter(store storage.Storage, opts Options) http.Handler {
	h := &Handler{store: store, maxBodyBytes: opts.MaxBodyBytes}
	if h.maxBodyBytes <= 0 {
		h.maxBodyBytes = DefaultMaxBodyBytes
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	if opts.AccessLog {
		router.Use(middleware.Logger)
	}
	router.Use(middleware.Recoverer)
	router.Use(middleware.StripSlashes)
	router.Use(preflight)

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, msgNotFound)
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
	})

	router.Get("/healthz", h.health)
	router.Route("/tables/{table}", func(r chi.Router) {
		r.Use(knownTable)
		r.Get("/", h.listPosts)
		r.Post("/", h.createPost)
		r.Get("/{id}", h.getPost)
		r.Patch("/{id}", h.updatePost)
	})
	return router
}

// preflight отвечает на любой OPTIONS пустым 204 до маршрутизации.
func preflight(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			setCORS(w.Header())
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// knownTable пропускает только таблицу posts; проверка идёт раньше проверки метода.
func knownTable(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "table") != postsTable {
			writeError(w, http.StatusNotFound, msgNotFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}
