// internal/app/features/clients/list.go
package clients

import (
	"context"
	"net/http"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"

	uierrors "github.com/dmoreira/cobrafacil/internal/app/features/errors"
	clientstore "github.com/dmoreira/cobrafacil/internal/app/store/clients"
	"github.com/dmoreira/cobrafacil/internal/app/system/authz"
	"github.com/dmoreira/cobrafacil/internal/app/system/brformat"
	"github.com/dmoreira/cobrafacil/internal/app/system/status"
	"github.com/dmoreira/cobrafacil/internal/app/system/timeouts"
	"github.com/dmoreira/cobrafacil/internal/app/system/viewdata"
)

const listPageSize = 50

type clientRowVM struct {
	ID       string
	Name     string
	Document string
	WhatsApp string
	Email    string
	Status   string
	Disabled bool
}

type clientListData struct {
	viewdata.BaseVM
	Clients []clientRowVM
	Search  string
	Status  string
}

// ServeClientsList renders the tenant's client roster, filterable by name
// prefix and status.
func (h *Handler) ServeClientsList(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := authz.TenantID(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}

	search := query.Get(r, "q")
	st := query.Get(r, "status")
	if st != "" && !status.IsValid(st) {
		st = ""
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Clients.List(ctx, tenantID, clientstore.ListFilter{
		Status: st,
		Search: search,
		Limit:  listPageSize,
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list clients failed", err, "", "/dashboard")
		return
	}

	data := clientListData{
		BaseVM:  viewdata.NewBaseVM(r, "Clientes", "/dashboard"),
		Clients: make([]clientRowVM, 0, len(list)),
		Search:  search,
		Status:  st,
	}
	for _, c := range list {
		data.Clients = append(data.Clients, clientRowVM{
			ID:       c.ID.Hex(),
			Name:     c.Name,
			Document: brformat.CpfCnpj(c.CpfCnpj),
			WhatsApp: brformat.Phone(c.WhatsApp),
			Email:    c.Email,
			Status:   c.Status,
			Disabled: c.Status == status.Disabled,
		})
	}

	templates.Render(w, r, "clients_list", data)
}
