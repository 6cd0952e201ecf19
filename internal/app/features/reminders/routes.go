package reminders

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeRemindersList)
	r.Post("/{id}/cancel", h.HandleCancelReminder)

	return r
}
