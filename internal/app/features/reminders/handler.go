// internal/app/features/reminders/handler.go
package reminders

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	uierrors "github.com/dmoreira/cobrafacil/internal/app/features/errors"
	"github.com/dmoreira/cobrafacil/internal/app/store/audit"
	reminderstore "github.com/dmoreira/cobrafacil/internal/app/store/reminders"
	"github.com/dmoreira/cobrafacil/internal/app/system/auditlog"
	"github.com/dmoreira/cobrafacil/internal/app/system/authz"
	"github.com/dmoreira/cobrafacil/internal/app/system/brformat"
	"github.com/dmoreira/cobrafacil/internal/app/system/timeouts"
	"github.com/dmoreira/cobrafacil/internal/app/system/viewdata"
	"github.com/dmoreira/cobrafacil/internal/domain/models"
	"go.uber.org/zap"
)

const listPageSize = 100

type Handler struct {
	Log       *zap.Logger
	Reminders *reminderstore.Store
	ErrLog    *uierrors.ErrorLogger
	AuditLog  *auditlog.Logger
}

func NewHandler(reminders *reminderstore.Store, errLog *uierrors.ErrorLogger, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:       logger,
		Reminders: reminders,
		ErrLog:    errLog,
		AuditLog:  auditLog,
	}
}

type reminderRowVM struct {
	ID          string
	TypeLabel   string
	ScheduledAt string
	Recipient   string
	Message     string
	Status      string
	StatusLabel string
	Cancelable  bool
}

type reminderListData struct {
	viewdata.BaseVM
	Reminders []reminderRowVM
	Status    string
}

var typeLabels = map[string]string{
	models.ReminderFirst:   "1º lembrete",
	models.ReminderSecond:  "2º lembrete",
	models.ReminderOverdue: "Aviso de atraso",
}

var statusLabels = map[string]string{
	models.ReminderPending:   "Agendado",
	models.ReminderSent:      "Enviado",
	models.ReminderFailed:    "Falhou",
	models.ReminderCancelled: "Cancelado",
}

// ServeRemindersList renders the tenant's scheduled reminders, soonest first.
func (h *Handler) ServeRemindersList(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := authz.TenantID(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}

	st := query.Get(r, "status")
	if !models.IsValidReminderStatus(st) {
		st = ""
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Reminders.List(ctx, tenantID, reminderstore.ListFilter{
		Status: st,
		Limit:  listPageSize,
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list reminders failed", err, "", "/dashboard")
		return
	}

	data := reminderListData{
		BaseVM:    viewdata.NewBaseVM(r, "Lembretes", "/dashboard"),
		Reminders: make([]reminderRowVM, 0, len(list)),
		Status:    st,
	}
	for _, rem := range list {
		data.Reminders = append(data.Reminders, reminderRowVM{
			ID:          rem.ID.Hex(),
			TypeLabel:   typeLabels[rem.Type],
			ScheduledAt: brformat.Date(rem.ScheduledAt),
			Recipient:   brformat.Phone(rem.Recipient),
			Message:     rem.Message,
			Status:      rem.Status,
			StatusLabel: statusLabels[rem.Status],
			Cancelable:  rem.Status == models.ReminderPending,
		})
	}

	templates.Render(w, r, "reminders_list", data)
}

// HandleCancelReminder cancels a PENDING reminder so the dispatcher skips it.
func (h *Handler) HandleCancelReminder(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := authz.TenantID(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Reminders.Cancel(ctx, tenantID, id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			http.NotFound(w, r)
			return
		}
		h.ErrLog.LogBadRequest(w, r, "cancel reminder failed", err, "Este lembrete não pode mais ser cancelado.", "/reminders")
		return
	}

	if actorID, ok := authz.UserID(r); ok {
		h.AuditLog.AdminAction(r.Context(), r, audit.EventReminderCancelled, actorID, tenantID, map[string]string{
			"reminder_id": id.Hex(),
		})
	}

	http.Redirect(w, r, "/reminders", http.StatusSeeOther)
}
