// internal/app/features/dashboard/handler.go
package dashboard

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	uierrors "github.com/dmoreira/cobrafacil/internal/app/features/errors"
	boletostore "github.com/dmoreira/cobrafacil/internal/app/store/boletos"
	clientstore "github.com/dmoreira/cobrafacil/internal/app/store/clients"
	reminderstore "github.com/dmoreira/cobrafacil/internal/app/store/reminders"
	"github.com/dmoreira/cobrafacil/internal/app/system/authz"
	"github.com/dmoreira/cobrafacil/internal/app/system/brformat"
	"github.com/dmoreira/cobrafacil/internal/app/system/timeouts"
	"github.com/dmoreira/cobrafacil/internal/app/system/viewdata"
)

// upcomingWindowDays is the horizon for the "due soon" panel.
const upcomingWindowDays = 7

type Handler struct {
	Log       *zap.Logger
	Clients   *clientstore.Store
	Boletos   *boletostore.Store
	Reminders *reminderstore.Store
	ErrLog    *uierrors.ErrorLogger
}

func NewHandler(
	clients *clientstore.Store,
	boletos *boletostore.Store,
	reminders *reminderstore.Store,
	errLog *uierrors.ErrorLogger,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Log:       logger,
		Clients:   clients,
		Boletos:   boletos,
		Reminders: reminders,
		ErrLog:    errLog,
	}
}

type upcomingVM struct {
	ClientName  string
	NossoNumero string
	Amount      string
	DueDate     string
	DaysLeft    int
}

type dashboardData struct {
	viewdata.BaseVM
	ClientCount      int64
	BoletoTotal      int64
	BoletoPending    int64
	BoletoPaid       int64
	BoletoOverdue    int64
	PendingReminders int64
	Upcoming         []upcomingVM
}

func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := authz.TenantID(r)
	if !ok {
		http.Redirect(w, r, "/onboarding", http.StatusSeeOther)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	data := dashboardData{
		BaseVM: viewdata.NewBaseVM(r, "Painel", "/"),
	}

	var err error
	if data.ClientCount, err = h.Clients.CountByTenant(ctx, tenantID); err != nil {
		h.ErrLog.LogServerError(w, r, "count clients failed", err, "", "/")
		return
	}

	counts, err := h.Boletos.CountByTenant(ctx, tenantID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count boletos failed", err, "", "/")
		return
	}
	data.BoletoTotal = counts.Total
	data.BoletoPending = counts.Pending
	data.BoletoPaid = counts.Paid
	data.BoletoOverdue = counts.Overdue

	if data.PendingReminders, err = h.Reminders.CountPendingByTenant(ctx, tenantID); err != nil {
		h.ErrLog.LogServerError(w, r, "count reminders failed", err, "", "/")
		return
	}

	upcoming, err := h.upcoming(ctx, tenantID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list upcoming boletos failed", err, "", "/")
		return
	}
	data.Upcoming = upcoming

	templates.Render(w, r, "dashboard", data)
}

// upcoming lists PENDING boletos due inside the window, joined with client
// names for display.
func (h *Handler) upcoming(ctx context.Context, tenantID primitive.ObjectID) ([]upcomingVM, error) {
	now := time.Now().UTC()
	boletos, err := h.Boletos.ListDueWithin(ctx, tenantID, now, upcomingWindowDays)
	if err != nil {
		return nil, err
	}

	names := make(map[primitive.ObjectID]string, len(boletos))
	out := make([]upcomingVM, 0, len(boletos))
	for _, b := range boletos {
		name, seen := names[b.ClientID]
		if !seen {
			c, err := h.Clients.GetByID(ctx, tenantID, b.ClientID)
			if err != nil {
				h.Log.Warn("client lookup for dashboard failed",
					zap.String("client_id", b.ClientID.Hex()), zap.Error(err))
				name = "—"
			} else {
				name = c.Name
			}
			names[b.ClientID] = name
		}
		out = append(out, upcomingVM{
			ClientName:  name,
			NossoNumero: b.NossoNumero,
			Amount:      brformat.Currency(b.AmountCents),
			DueDate:     brformat.Date(b.DueDate),
			DaysLeft:    int(b.DueDate.Sub(now).Hours() / 24),
		})
	}
	return out, nil
}
