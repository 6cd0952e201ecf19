package register

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeRegister)
	r.Post("/", h.HandleRegisterPost)
	return r
}

// APIRoutes serves the JSON registration endpoint mounted at /api/register.
func APIRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.HandleAPIRegister)
	return r
}
