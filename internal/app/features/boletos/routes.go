package boletos

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeBoletosList)
	r.Get("/new", h.ServeNewBoleto)
	r.Post("/", h.HandleCreateBoleto)
	r.Post("/{id}/pay", h.HandleMarkPaid)
	r.Post("/{id}/cancel", h.HandleCancelBoleto)

	return r
}
