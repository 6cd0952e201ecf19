// internal/app/features/settings/routes.go
package settings

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeSettings)
	r.Post("/", h.HandleSettingsPost)
	return r
}
