// internal/app/features/api/routes.go
package api

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/clients", h.HandleListClients)
	r.Get("/boletos", h.HandleListBoletos)
	r.Get("/reminders", h.HandleListReminders)
	r.Get("/dashboard", h.HandleDashboard)
	return r
}
