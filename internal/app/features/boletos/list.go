// internal/app/features/boletos/list.go
package boletos

import (
	"context"
	"net/http"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"

	uierrors "github.com/dmoreira/cobrafacil/internal/app/features/errors"
	boletostore "github.com/dmoreira/cobrafacil/internal/app/store/boletos"
	"github.com/dmoreira/cobrafacil/internal/app/system/authz"
	"github.com/dmoreira/cobrafacil/internal/app/system/brformat"
	"github.com/dmoreira/cobrafacil/internal/app/system/timeouts"
	"github.com/dmoreira/cobrafacil/internal/app/system/viewdata"
	"github.com/dmoreira/cobrafacil/internal/domain/models"
)

const listPageSize = 50

type boletoRowVM struct {
	ID          string
	ClientName  string
	NossoNumero string
	Amount      string
	DueDate     string
	Description string
	Status      string
	StatusLabel string
	Payable     bool
	Cancelable  bool
}

type boletoListData struct {
	viewdata.BaseVM
	Boletos []boletoRowVM
	Status  string
}

var statusLabels = map[string]string{
	models.BoletoPending:   "Pendente",
	models.BoletoPaid:      "Pago",
	models.BoletoOverdue:   "Vencido",
	models.BoletoCancelled: "Cancelado",
}

// ServeBoletosList renders the tenant's boletos, newest due date last,
// filterable by status.
func (h *Handler) ServeBoletosList(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := authz.TenantID(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}

	st := query.Get(r, "status")
	if !models.IsValidBoletoStatus(st) {
		st = ""
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Boletos.List(ctx, tenantID, boletostore.ListFilter{
		Status: st,
		Limit:  listPageSize,
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list boletos failed", err, "", "/dashboard")
		return
	}

	data := boletoListData{
		BaseVM:  viewdata.NewBaseVM(r, "Boletos", "/dashboard"),
		Boletos: make([]boletoRowVM, 0, len(list)),
		Status:  st,
	}

	names := make(map[primitive.ObjectID]string, len(list))
	for _, b := range list {
		name, seen := names[b.ClientID]
		if !seen {
			c, err := h.Clients.GetByID(ctx, tenantID, b.ClientID)
			if err != nil {
				name = "—"
			} else {
				name = c.Name
			}
			names[b.ClientID] = name
		}
		data.Boletos = append(data.Boletos, boletoRowVM{
			ID:          b.ID.Hex(),
			ClientName:  name,
			NossoNumero: b.NossoNumero,
			Amount:      brformat.Currency(b.AmountCents),
			DueDate:     brformat.Date(b.DueDate),
			Description: b.Description,
			Status:      b.Status,
			StatusLabel: statusLabels[b.Status],
			Payable:     b.Status == models.BoletoPending || b.Status == models.BoletoOverdue,
			Cancelable:  b.Status == models.BoletoPending || b.Status == models.BoletoOverdue,
		})
	}

	templates.Render(w, r, "boletos_list", data)
}
