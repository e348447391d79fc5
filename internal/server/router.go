package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Adebesin-Cell/dmt-adk-estate/internal/api"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/api/handlers"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/api/middleware"
)

type RouterConfig struct {
	SearchHandler   *handlers.SearchHandler
	PropertyHandler *handlers.PropertyHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 5 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/search", cfg.SearchHandler.Search)
	r.Post("/scan", cfg.SearchHandler.Scan)

	r.Route("/properties", func(r chi.Router) {
		r.Post("/", cfg.PropertyHandler.Persist)
		r.Get("/", cfg.PropertyHandler.List)
	})

	return r
}
