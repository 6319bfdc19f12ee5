package server

import (
	"net/http"

	"github.com/cloo-solutions/codelens/internal/api/handlers"
	"github.com/cloo-solutions/codelens/internal/api/middleware"
	"github.com/go-chi/chi/v5"
)

type RouterConfig struct {
	SearchHandler *handlers.SearchHandler
	SystemHandler *handlers.SystemHandler
	IndexHandler  *handlers.IndexHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 5 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", cfg.SystemHandler.Health)
	r.Get("/schema", cfg.SystemHandler.Schema)
	r.Get("/stats", cfg.SystemHandler.Stats)

	r.Post("/search", cfg.SearchHandler.Search)
	r.Get("/search", cfg.SearchHandler.SearchGet)

	r.Post("/admin/index", cfg.IndexHandler.Index)

	return r
}
