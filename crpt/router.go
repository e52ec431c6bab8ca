package crpt

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type RouterOptions struct {
	Handler *Handler
	// Ingress é aplicado só à rota de submissão (nil = sem limite de entrada).
	Ingress func(http.Handler) http.Handler
	// Metrics é montado em /metrics quando não nil.
	Metrics http.Handler
}

func NewRouter(opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", opts.Handler.Health)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	r.Group(func(r chi.Router) {
		if opts.Ingress != nil {
			r.Use(opts.Ingress)
		}
		r.Post("/api/v1/documents", opts.Handler.SubmitDocument)
	})
	return r
}
