// internal/app/features/settings/handler.go
package settings

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"

	uierrors "github.com/dmoreira/cobrafacil/internal/app/features/errors"
	"github.com/dmoreira/cobrafacil/internal/app/store/audit"
	settingsstore "github.com/dmoreira/cobrafacil/internal/app/store/settings"
	"github.com/dmoreira/cobrafacil/internal/app/system/auditlog"
	"github.com/dmoreira/cobrafacil/internal/app/system/authz"
	"github.com/dmoreira/cobrafacil/internal/app/system/htmlsanitize"
	"github.com/dmoreira/cobrafacil/internal/app/system/timeouts"
	"github.com/dmoreira/cobrafacil/internal/app/system/viewdata"
	"github.com/dmoreira/cobrafacil/internal/domain/models"
)

// maxTemplateLength caps the reminder template so one tenant cannot bloat
// the reminders collection.
const maxTemplateLength = 2000

type Handler struct {
	Log      *zap.Logger
	Settings *settingsstore.Store
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger
}

func NewHandler(settings *settingsstore.Store, errLog *uierrors.ErrorLogger, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:      logger,
		Settings: settings,
		ErrLog:   errLog,
		AuditLog: auditLog,
	}
}

type settingsFormData struct {
	viewdata.BaseVM
	Error               string
	Saved               bool
	ReminderDaysBefore  int
	ReminderTemplate    string
	SendSecondReminder  bool
	SecondReminderDays  int
	EnableAutoReminders bool
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /settings                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeSettings(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := authz.TenantID(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	s, err := h.Settings.Get(ctx, tenantID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load settings failed", err, "", "/dashboard")
		return
	}

	data := settingsFormData{
		BaseVM: viewdata.NewBaseVM(r, "Configurações", "/dashboard"),
		Saved:  r.URL.Query().Get("saved") == "1",
	}
	data.fill(s)
	templates.Render(w, r, "settings", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /settings                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleSettingsPost(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := authz.TenantID(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}

	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse settings form failed", err, "Dados do formulário inválidos.", "/settings")
		return
	}

	s := models.TenantSettings{
		TenantID:            tenantID,
		ReminderTemplate:    htmlsanitize.Strip(r.FormValue("reminder_template")),
		SendSecondReminder:  r.FormValue("send_second_reminder") == "on",
		EnableAutoReminders: r.FormValue("enable_auto_reminders") == "on",
	}
	if userID, ok := authz.UserID(r); ok {
		s.UpdatedByID = &userID
	}

	var msg string
	s.ReminderDaysBefore, msg = parseDays(r.FormValue("reminder_days_before"), "Dias antes do vencimento")
	if msg == "" {
		s.SecondReminderDays, msg = parseDays(r.FormValue("second_reminder_days"), "Dias do segundo lembrete")
	}
	if msg == "" && len(s.ReminderTemplate) > maxTemplateLength {
		msg = "O modelo de mensagem é longo demais."
	}
	if msg == "" && strings.TrimSpace(s.ReminderTemplate) == "" {
		// Blank template falls back to the product default.
		s.ReminderTemplate = models.DefaultReminderTemplate
	}
	if msg != "" {
		data := settingsFormData{
			BaseVM: viewdata.NewBaseVM(r, "Configurações", "/dashboard"),
			Error:  msg,
		}
		data.fill(s)
		w.WriteHeader(http.StatusUnprocessableEntity)
		templates.Render(w, r, "settings", data)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Settings.Save(ctx, tenantID, s); err != nil {
		h.ErrLog.LogServerError(w, r, "save settings failed", err, "", "/settings")
		return
	}

	if actorID, ok := authz.UserID(r); ok {
		h.AuditLog.AdminAction(r.Context(), r, audit.EventSettingsUpdated, actorID, tenantID, nil)
	}

	http.Redirect(w, r, "/settings?saved=1", http.StatusSeeOther)
}

func (d *settingsFormData) fill(s models.TenantSettings) {
	d.ReminderDaysBefore = s.ReminderDaysBefore
	d.ReminderTemplate = s.ReminderTemplate
	d.SendSecondReminder = s.SendSecondReminder
	d.SecondReminderDays = s.SecondReminderDays
	d.EnableAutoReminders = s.EnableAutoReminders
}

// parseDays validates a 1..30 day count field.
func parseDays(raw, label string) (int, string) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 || n > 30 {
		return 0, label + " deve ser um número entre 1 e 30."
	}
	return n, ""
}
