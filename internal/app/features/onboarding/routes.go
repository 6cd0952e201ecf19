package onboarding

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeOnboarding)
	r.Post("/", h.HandleOnboardingPost)
	return r
}
