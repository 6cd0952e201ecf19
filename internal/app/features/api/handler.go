// internal/app/features/api/handler.go
//
// JSON endpoints for tenant data. These routes sit behind the request gate,
// which authenticates the session and injects x-tenant-id / x-user-id
// headers; handlers here trust those headers and never read the cookie
// themselves.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	uierrors "github.com/dmoreira/cobrafacil/internal/app/features/errors"
	boletostore "github.com/dmoreira/cobrafacil/internal/app/store/boletos"
	clientstore "github.com/dmoreira/cobrafacil/internal/app/store/clients"
	reminderstore "github.com/dmoreira/cobrafacil/internal/app/store/reminders"
	"github.com/dmoreira/cobrafacil/internal/app/system/gate"
	"github.com/dmoreira/cobrafacil/internal/app/system/status"
	"github.com/dmoreira/cobrafacil/internal/app/system/timeouts"
	"github.com/dmoreira/cobrafacil/internal/domain/models"
)

const maxPageSize = 200

type Handler struct {
	Log       *zap.Logger
	Clients   *clientstore.Store
	Boletos   *boletostore.Store
	Reminders *reminderstore.Store
	ErrLog    *uierrors.ErrorLogger
}

func NewHandler(clients *clientstore.Store, boletos *boletostore.Store, reminders *reminderstore.Store, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:       logger,
		Clients:   clients,
		Boletos:   boletos,
		Reminders: reminders,
		ErrLog:    errLog,
	}
}

// tenantFromHeaders resolves the tenant scope the gate injected. A missing
// or malformed header means the gate did not admit this request for tenant
// data (for example a user still in onboarding hitting /api/clients).
func (h *Handler) tenantFromHeaders(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	raw := r.Header.Get(gate.HeaderTenantID)
	tenantID, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		h.ErrLog.LogAPIError(w, r, http.StatusForbidden, "api request without tenant scope", err, "acesso negado")
		return primitive.NilObjectID, false
	}
	return tenantID, true
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/clients                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleListClients(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.tenantFromHeaders(w, r)
	if !ok {
		return
	}

	f := clientstore.ListFilter{
		Search: query.Get(r, "q"),
		Limit:  maxPageSize,
	}
	if st := query.Get(r, "status"); status.IsValid(st) {
		f.Status = st
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := h.Clients.List(ctx, tenantID, f)
	if err != nil {
		h.ErrLog.LogAPIError(w, r, http.StatusInternalServerError, "list clients failed", err, "erro interno")
		return
	}
	writeJSON(w, listResponse[models.Client]{Items: list, Count: len(list)})
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/boletos                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleListBoletos(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.tenantFromHeaders(w, r)
	if !ok {
		return
	}

	f := boletostore.ListFilter{Limit: maxPageSize}
	if st := query.Get(r, "status"); models.IsValidBoletoStatus(st) {
		f.Status = st
	}
	if raw := query.Get(r, "client_id"); raw != "" {
		clientID, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			h.ErrLog.LogAPIError(w, r, http.StatusBadRequest, "bad client_id filter", err, "client_id inválido")
			return
		}
		f.ClientID = &clientID
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := h.Boletos.List(ctx, tenantID, f)
	if err != nil {
		h.ErrLog.LogAPIError(w, r, http.StatusInternalServerError, "list boletos failed", err, "erro interno")
		return
	}
	writeJSON(w, listResponse[models.Boleto]{Items: list, Count: len(list)})
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/reminders                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleListReminders(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.tenantFromHeaders(w, r)
	if !ok {
		return
	}

	f := reminderstore.ListFilter{Limit: maxPageSize}
	if st := query.Get(r, "status"); models.IsValidReminderStatus(st) {
		f.Status = st
	}
	if raw := query.Get(r, "boleto_id"); raw != "" {
		boletoID, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			h.ErrLog.LogAPIError(w, r, http.StatusBadRequest, "bad boleto_id filter", err, "boleto_id inválido")
			return
		}
		f.BoletoID = &boletoID
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := h.Reminders.List(ctx, tenantID, f)
	if err != nil {
		h.ErrLog.LogAPIError(w, r, http.StatusInternalServerError, "list reminders failed", err, "erro interno")
		return
	}
	writeJSON(w, listResponse[models.Reminder]{Items: list, Count: len(list)})
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/dashboard                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

type dashboardResponse struct {
	Clients          int64 `json:"clients"`
	Boletos          int64 `json:"boletos"`
	BoletosPending   int64 `json:"boletos_pending"`
	BoletosPaid      int64 `json:"boletos_paid"`
	BoletosOverdue   int64 `json:"boletos_overdue"`
	RemindersPending int64 `json:"reminders_pending"`
}

func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.tenantFromHeaders(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	clients, err := h.Clients.CountByTenant(ctx, tenantID)
	if err != nil {
		h.ErrLog.LogAPIError(w, r, http.StatusInternalServerError, "count clients failed", err, "erro interno")
		return
	}
	boletos, err := h.Boletos.CountByTenant(ctx, tenantID)
	if err != nil {
		h.ErrLog.LogAPIError(w, r, http.StatusInternalServerError, "count boletos failed", err, "erro interno")
		return
	}
	reminders, err := h.Reminders.CountPendingByTenant(ctx, tenantID)
	if err != nil {
		h.ErrLog.LogAPIError(w, r, http.StatusInternalServerError, "count reminders failed", err, "erro interno")
		return
	}

	writeJSON(w, dashboardResponse{
		Clients:          clients,
		Boletos:          boletos.Total,
		BoletosPending:   boletos.Pending,
		BoletosPaid:      boletos.Paid,
		BoletosOverdue:   boletos.Overdue,
		RemindersPending: reminders,
	})
}

type listResponse[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
