package web

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pschwagler/beach-kings-sub003/db"
	"github.com/unrolled/render"
)

func getRouter(database db.DB, render *render.Render) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Set a timeout value on the request context (ctx), that will signal
	// through ctx.Done() that the request has timed out and further
	// processing should be stopped.
	r.Use(middleware.Timeout(10 * time.Second))

	r.Route("/api", func(r chi.Router) {
		r.Route("/matches", func(r chi.Router) {
			r.Post("/", createMatchHandler(database, render))
			r.Put("/{matchID:\\d+}", updateMatchHandler(database, render))
			r.Delete("/{matchID:\\d+}", deleteMatchHandler(database, render))
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/{sessionID:\\d+}", getSessionHandler(database, render))
			r.Delete("/{sessionID:\\d+}", deleteSessionHandler(database, render))
		})

		r.Route("/leagues/{leagueID:\\d+}", func(r chi.Router) {
			r.Get("/matches", listMatchesHandler(database, render))
			r.Get("/roster", listRosterHandler(database, render))

			r.Route("/sessions", func(r chi.Router) {
				r.Post("/", createSessionHandler(database, render))
				r.Get("/active", activeSessionHandler(database, render))
				r.Post("/{sessionID:\\d+}/lock", lockSessionHandler(database, render))
			})
		})
	})

	return r
}

// Router is exported for the in-process fake store used by tests.
func Router(database db.DB) *chi.Mux {
	return getRouter(database, render.New())
}
