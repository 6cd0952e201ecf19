// internal/app/features/clients/clientedit.go
package clients

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	uierrors "github.com/dmoreira/cobrafacil/internal/app/features/errors"
	"github.com/dmoreira/cobrafacil/internal/app/store/audit"
	"github.com/dmoreira/cobrafacil/internal/app/system/authz"
	"github.com/dmoreira/cobrafacil/internal/app/system/htmlsanitize"
	"github.com/dmoreira/cobrafacil/internal/app/system/normalize"
	"github.com/dmoreira/cobrafacil/internal/app/system/status"
	"github.com/dmoreira/cobrafacil/internal/app/system/timeouts"
	"github.com/dmoreira/cobrafacil/internal/app/system/viewdata"
	"github.com/dmoreira/cobrafacil/internal/domain/models"
)

// clientFromPath resolves the {id} URL param against the caller's tenant.
// The tenant filter makes cross-tenant probing indistinguishable from a
// missing record.
func (h *Handler) clientFromPath(ctx context.Context, r *http.Request, tenantID primitive.ObjectID) (models.Client, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		return models.Client{}, false
	}
	c, err := h.Clients.GetByID(ctx, tenantID, id)
	if err != nil {
		return models.Client{}, false
	}
	return c, true
}

// ServeEditClient renders the edit form pre-filled with the stored record.
func (h *Handler) ServeEditClient(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := authz.TenantID(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, found := h.clientFromPath(ctx, r, tenantID)
	if !found {
		http.NotFound(w, r)
		return
	}

	templates.Render(w, r, "client_form", clientFormData{
		BaseVM:  viewdata.NewBaseVM(r, "Editar cliente", "/clients"),
		Editing: true,
		Client: clientFormVM{
			ID:       c.ID.Hex(),
			Name:     c.Name,
			CpfCnpj:  c.CpfCnpj,
			WhatsApp: c.WhatsApp,
			Email:    c.Email,
			Address:  c.Address,
			City:     c.City,
			State:    c.State,
			ZipCode:  c.ZipCode,
		},
	})
}

// HandleEditClient applies form changes. CPF/CNPJ is immutable; the form
// field is display-only and ignored here.
func (h *Handler) HandleEditClient(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := authz.TenantID(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}

	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse client form failed", err, "Dados do formulário inválidos.", "/clients")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	c, found := h.clientFromPath(ctx, r, tenantID)
	if !found {
		http.NotFound(w, r)
		return
	}

	form := clientFormVM{
		ID:       c.ID.Hex(),
		Name:     htmlsanitize.Strip(strings.TrimSpace(r.FormValue("name"))),
		CpfCnpj:  c.CpfCnpj,
		WhatsApp: r.FormValue("whatsapp"),
		Email:    r.FormValue("email"),
		Address:  htmlsanitize.Strip(strings.TrimSpace(r.FormValue("address"))),
		City:     htmlsanitize.Strip(strings.TrimSpace(r.FormValue("city"))),
		State:    strings.ToUpper(strings.TrimSpace(r.FormValue("state"))),
		ZipCode:  normalize.Digits(r.FormValue("zip_code")),
	}
	if msg := validateClientForm(form); msg != "" {
		h.renderFormWithError(w, r, msg, form, true)
		return
	}

	err := h.Clients.Update(ctx, tenantID, c.ID, models.Client{
		Name:     form.Name,
		WhatsApp: form.WhatsApp,
		Email:    form.Email,
		Address:  form.Address,
		City:     form.City,
		State:    form.State,
		ZipCode:  form.ZipCode,
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			http.NotFound(w, r)
			return
		}
		h.ErrLog.LogServerError(w, r, "client update failed", err, "", "/clients")
		return
	}

	if actorID, ok := authz.UserID(r); ok {
		h.AuditLog.AdminAction(r.Context(), r, audit.EventClientUpdated, actorID, tenantID, map[string]string{
			"client_id": c.ID.Hex(),
		})
	}

	http.Redirect(w, r, "/clients", http.StatusSeeOther)
}

// HandleSetClientStatus enables or disables a client. Disabled clients stop
// receiving scheduled reminders but keep their history.
func (h *Handler) HandleSetClientStatus(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := authz.TenantID(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}

	st := r.FormValue("status")
	if !status.IsValid(st) {
		h.ErrLog.LogBadRequest(w, r, "bad client status", nil, "Status inválido.", "/clients")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, found := h.clientFromPath(ctx, r, tenantID)
	if !found {
		http.NotFound(w, r)
		return
	}

	if err := h.Clients.SetStatus(ctx, tenantID, c.ID, st); err != nil {
		h.ErrLog.LogServerError(w, r, "client status change failed", err, "", "/clients")
		return
	}

	if st == status.Disabled {
		if actorID, ok := authz.UserID(r); ok {
			h.AuditLog.AdminAction(r.Context(), r, audit.EventClientDisabled, actorID, tenantID, map[string]string{
				"client_id": c.ID.Hex(),
			})
		}
	}

	http.Redirect(w, r, "/clients", http.StatusSeeOther)
}
