package authgoogle

import "github.com/go-chi/chi/v5"

// Routes returns the router mounted at /api/auth/google. Both endpoints are
// public.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeLogin)
	r.Get("/callback", h.ServeCallback)
	return r
}
