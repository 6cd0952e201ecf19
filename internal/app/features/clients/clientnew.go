// internal/app/features/clients/clientnew.go
package clients

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/waffle/pantry/templates"

	uierrors "github.com/dmoreira/cobrafacil/internal/app/features/errors"
	"github.com/dmoreira/cobrafacil/internal/app/store/audit"
	clientstore "github.com/dmoreira/cobrafacil/internal/app/store/clients"
	"github.com/dmoreira/cobrafacil/internal/app/system/authz"
	"github.com/dmoreira/cobrafacil/internal/app/system/htmlsanitize"
	"github.com/dmoreira/cobrafacil/internal/app/system/normalize"
	"github.com/dmoreira/cobrafacil/internal/app/system/timeouts"
	"github.com/dmoreira/cobrafacil/internal/app/system/viewdata"
	"github.com/dmoreira/cobrafacil/internal/domain/models"
)

type clientFormData struct {
	viewdata.BaseVM
	Error   string
	Editing bool
	Client  clientFormVM
}

type clientFormVM struct {
	ID       string
	Name     string
	CpfCnpj  string
	WhatsApp string
	Email    string
	Address  string
	City     string
	State    string
	ZipCode  string
}

// ServeNewClient renders the Add Client form.
func (h *Handler) ServeNewClient(w http.ResponseWriter, r *http.Request) {
	if _, ok := authz.TenantID(r); !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}
	templates.Render(w, r, "client_form", clientFormData{
		BaseVM: viewdata.NewBaseVM(r, "Novo cliente", "/clients"),
	})
}

// HandleCreateClient creates a client from the submitted form.
func (h *Handler) HandleCreateClient(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := authz.TenantID(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}

	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse client form failed", err, "Dados do formulário inválidos.", "/clients")
		return
	}

	form := clientFormVM{
		Name:     htmlsanitize.Strip(strings.TrimSpace(r.FormValue("name"))),
		CpfCnpj:  normalize.Digits(r.FormValue("cpf_cnpj")),
		WhatsApp: r.FormValue("whatsapp"),
		Email:    r.FormValue("email"),
		Address:  htmlsanitize.Strip(strings.TrimSpace(r.FormValue("address"))),
		City:     htmlsanitize.Strip(strings.TrimSpace(r.FormValue("city"))),
		State:    strings.ToUpper(strings.TrimSpace(r.FormValue("state"))),
		ZipCode:  normalize.Digits(r.FormValue("zip_code")),
	}

	if msg := validateClientForm(form); msg != "" {
		h.renderFormWithError(w, r, msg, form, false)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	created, err := h.Clients.Create(ctx, models.Client{
		TenantID: tenantID,
		Name:     form.Name,
		CpfCnpj:  form.CpfCnpj,
		WhatsApp: form.WhatsApp,
		Email:    form.Email,
		Address:  form.Address,
		City:     form.City,
		State:    form.State,
		ZipCode:  form.ZipCode,
	})
	if err != nil {
		if errors.Is(err, clientstore.ErrDuplicateClient) {
			h.renderFormWithError(w, r, "Já existe um cliente com esse CPF/CNPJ.", form, false)
			return
		}
		h.ErrLog.LogServerError(w, r, "client create failed", err, "", "/clients")
		return
	}

	if actorID, ok := authz.UserID(r); ok {
		h.AuditLog.AdminAction(r.Context(), r, audit.EventClientCreated, actorID, tenantID, map[string]string{
			"client_id": created.ID.Hex(),
		})
	}

	http.Redirect(w, r, "/clients", http.StatusSeeOther)
}

// validateClientForm returns a user-facing message, empty when the form is
// acceptable.
func validateClientForm(f clientFormVM) string {
	if f.Name == "" {
		return "Informe o nome do cliente."
	}
	if n := len(f.CpfCnpj); n != 11 && n != 14 {
		return "CPF/CNPJ inválido."
	}
	if f.Email != "" && !strings.Contains(f.Email, "@") {
		return "E-mail inválido."
	}
	return ""
}

func (h *Handler) renderFormWithError(w http.ResponseWriter, r *http.Request, msg string, form clientFormVM, editing bool) {
	title := "Novo cliente"
	if editing {
		title = "Editar cliente"
	}
	w.WriteHeader(http.StatusUnprocessableEntity)
	templates.Render(w, r, "client_form", clientFormData{
		BaseVM:  viewdata.NewBaseVM(r, title, "/clients"),
		Error:   msg,
		Editing: editing,
		Client:  form,
	})
}
