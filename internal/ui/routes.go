package ui

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all UI routes on the given router.
func (ui *UI) RegisterRoutes(r chi.Router) {
	// Public routes (no session required).
	r.Get("/login", ui.HandleLogin)
	r.Post("/login", ui.HandleLoginPost)
	r.Post("/logout", ui.HandleLogout)

	// Protected routes.
	r.Group(func(r chi.Router) {
		r.Use(ui.SessionGuard)

		r.Get("/", ui.HandleDashboard)

		// Backend pass-through
		r.HandleFunc("/api/*", ui.HandleAPIProxy)
	})
}
