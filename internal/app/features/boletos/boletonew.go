// internal/app/features/boletos/boletonew.go
package boletos

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"

	uierrors "github.com/dmoreira/cobrafacil/internal/app/features/errors"
	"github.com/dmoreira/cobrafacil/internal/app/store/audit"
	clientstore "github.com/dmoreira/cobrafacil/internal/app/store/clients"
	"github.com/dmoreira/cobrafacil/internal/app/system/authz"
	"github.com/dmoreira/cobrafacil/internal/app/system/htmlsanitize"
	"github.com/dmoreira/cobrafacil/internal/app/system/status"
	"github.com/dmoreira/cobrafacil/internal/app/system/timeouts"
	"github.com/dmoreira/cobrafacil/internal/app/system/viewdata"
	"github.com/dmoreira/cobrafacil/internal/domain/models"
)

type clientOptionVM struct {
	ID   string
	Name string
}

type boletoFormData struct {
	viewdata.BaseVM
	Error       string
	Clients     []clientOptionVM
	ClientID    string
	NossoNumero string
	Amount      string
	DueDate     string
	Description string
}

// ServeNewBoleto renders the issue-boleto form with the tenant's active
// clients as options.
func (h *Handler) ServeNewBoleto(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := authz.TenantID(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	options, err := h.clientOptions(ctx, tenantID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list clients for boleto form failed", err, "", "/boletos")
		return
	}

	templates.Render(w, r, "boleto_form", boletoFormData{
		BaseVM:  viewdata.NewBaseVM(r, "Novo boleto", "/boletos"),
		Clients: options,
	})
}

// HandleCreateBoleto creates a boleto from the submitted form.
func (h *Handler) HandleCreateBoleto(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := authz.TenantID(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}

	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse boleto form failed", err, "Dados do formulário inválidos.", "/boletos")
		return
	}

	form := boletoFormData{
		ClientID:    r.FormValue("client_id"),
		NossoNumero: strings.TrimSpace(r.FormValue("nosso_numero")),
		Amount:      strings.TrimSpace(r.FormValue("amount")),
		DueDate:     r.FormValue("due_date"),
		Description: htmlsanitize.Strip(strings.TrimSpace(r.FormValue("description"))),
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	clientID, err := primitive.ObjectIDFromHex(form.ClientID)
	if err != nil {
		h.renderFormWithError(ctx, w, r, tenantID, "Selecione um cliente.", form)
		return
	}
	if _, err := h.Clients.GetByID(ctx, tenantID, clientID); err != nil {
		h.renderFormWithError(ctx, w, r, tenantID, "Cliente não encontrado.", form)
		return
	}

	amountCents, err := parseAmountCents(form.Amount)
	if err != nil || amountCents <= 0 {
		h.renderFormWithError(ctx, w, r, tenantID, "Valor inválido.", form)
		return
	}

	dueDate, err := time.ParseInLocation("2006-01-02", form.DueDate, time.UTC)
	if err != nil {
		h.renderFormWithError(ctx, w, r, tenantID, "Data de vencimento inválida.", form)
		return
	}

	created, err := h.Boletos.Create(ctx, models.Boleto{
		TenantID:    tenantID,
		ClientID:    clientID,
		NossoNumero: form.NossoNumero,
		AmountCents: amountCents,
		DueDate:     dueDate,
		Description: form.Description,
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "boleto create failed", err, "", "/boletos")
		return
	}

	if actorID, ok := authz.UserID(r); ok {
		h.AuditLog.AdminAction(r.Context(), r, audit.EventBoletoCreated, actorID, tenantID, map[string]string{
			"boleto_id": created.ID.Hex(),
		})
	}

	http.Redirect(w, r, "/boletos", http.StatusSeeOther)
}

func (h *Handler) clientOptions(ctx context.Context, tenantID primitive.ObjectID) ([]clientOptionVM, error) {
	clients, err := h.Clients.List(ctx, tenantID, clientstore.ListFilter{
		Status: status.Active,
		Limit:  500,
	})
	if err != nil {
		return nil, err
	}
	out := make([]clientOptionVM, 0, len(clients))
	for _, c := range clients {
		out = append(out, clientOptionVM{ID: c.ID.Hex(), Name: c.Name})
	}
	return out, nil
}

func (h *Handler) renderFormWithError(ctx context.Context, w http.ResponseWriter, r *http.Request, tenantID primitive.ObjectID, msg string, form boletoFormData) {
	options, err := h.clientOptions(ctx, tenantID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list clients for boleto form failed", err, "", "/boletos")
		return
	}
	form.BaseVM = viewdata.NewBaseVM(r, "Novo boleto", "/boletos")
	form.Error = msg
	form.Clients = options
	w.WriteHeader(http.StatusUnprocessableEntity)
	templates.Render(w, r, "boleto_form", form)
}

// parseAmountCents converts a Brazilian-formatted amount ("1.599,90") to
// centavos. A plain decimal point is accepted too ("1599.90").
func parseAmountCents(s string) (int64, error) {
	s = strings.TrimSpace(strings.TrimPrefix(s, "R$"))
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty amount")
	}

	if strings.Contains(s, ",") {
		// Brazilian format: dots group thousands, comma is the decimal mark.
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	cents := int64(value*100 + 0.5)
	return cents, nil
}
