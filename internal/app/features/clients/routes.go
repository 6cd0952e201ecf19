package clients

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeClientsList)
	r.Get("/new", h.ServeNewClient)
	r.Post("/", h.HandleCreateClient)
	r.Get("/{id}/edit", h.ServeEditClient)
	r.Post("/{id}/edit", h.HandleEditClient)
	r.Post("/{id}/status", h.HandleSetClientStatus)

	return r
}
