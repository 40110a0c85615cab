package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const entriesPrefix = "/api/entries/"

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer, h.withTraceID, h.withLogging, withGZip)

	// routes without authorization
	router.Get("/api/version/", h.getServerVersion)

	router.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.With(h.verifyBodyHash).Put(entriesPrefix+"{id}", h.putEntry)
		r.Get(entriesPrefix+"{id}", h.getEntry)
	})

	return router
}
