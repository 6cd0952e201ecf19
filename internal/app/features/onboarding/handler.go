// internal/app/features/onboarding/handler.go
package onboarding

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"

	uierrors "github.com/dmoreira/cobrafacil/internal/app/features/errors"
	"github.com/dmoreira/cobrafacil/internal/app/store/audit"
	settingsstore "github.com/dmoreira/cobrafacil/internal/app/store/settings"
	tenantstore "github.com/dmoreira/cobrafacil/internal/app/store/tenants"
	userstore "github.com/dmoreira/cobrafacil/internal/app/store/users"
	"github.com/dmoreira/cobrafacil/internal/app/system/auditlog"
	"github.com/dmoreira/cobrafacil/internal/app/system/auth"
	"github.com/dmoreira/cobrafacil/internal/app/system/htmlsanitize"
	"github.com/dmoreira/cobrafacil/internal/app/system/normalize"
	"github.com/dmoreira/cobrafacil/internal/app/system/timeouts"
	"github.com/dmoreira/cobrafacil/internal/app/system/viewdata"
	"github.com/dmoreira/cobrafacil/internal/domain/models"
)

// Handler runs the one-time tenant creation funnel for signed-in users that
// have no tenant yet.
type Handler struct {
	Log        *zap.Logger
	Tenants    *tenantstore.Store
	Settings   *settingsstore.Store
	Users      *userstore.Store
	Fetcher    *userstore.Fetcher
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger
	AuditLog   *auditlog.Logger
}

func NewHandler(
	tenants *tenantstore.Store,
	settings *settingsstore.Store,
	users *userstore.Store,
	fetcher *userstore.Fetcher,
	sessionMgr *auth.SessionManager,
	errLog *uierrors.ErrorLogger,
	auditLog *auditlog.Logger,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Log:        logger,
		Tenants:    tenants,
		Settings:   settings,
		Users:      users,
		Fetcher:    fetcher,
		SessionMgr: sessionMgr,
		ErrLog:     errLog,
		AuditLog:   auditLog,
	}
}

type onboardingFormData struct {
	viewdata.BaseVM
	Error       string
	CompanyName string
	CNPJ        string
	Phone       string
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /onboarding                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeOnboarding(w http.ResponseWriter, r *http.Request) {
	if tok, ok := auth.CurrentToken(r); ok && tok.TenantID != "" {
		// Already onboarded; nothing to do here.
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	templates.Render(w, r, "onboarding", onboardingFormData{
		BaseVM: viewdata.NewBaseVM(r, "Configurar empresa", "/"),
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /onboarding                                                            |
| Creates the tenant, seeds default settings, promotes the user to admin of   |
| the new tenant, and refreshes the session token.                            |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleOnboardingPost(w http.ResponseWriter, r *http.Request) {
	tok, ok := auth.CurrentToken(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if tok.TenantID != "" {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse onboarding form failed", err, "Dados do formulário inválidos.", "/onboarding")
		return
	}

	companyName := htmlsanitize.Strip(strings.TrimSpace(r.FormValue("company_name")))
	cnpj := normalize.Digits(r.FormValue("cnpj"))
	phone := normalize.Digits(r.FormValue("phone"))

	if companyName == "" {
		h.renderFormWithError(w, r, "Informe o nome da empresa.", companyName, cnpj, phone)
		return
	}
	if cnpj != "" && len(cnpj) != 14 {
		h.renderFormWithError(w, r, "CNPJ inválido.", companyName, cnpj, phone)
		return
	}

	userID, ok := tok.UserObjectID()
	if !ok {
		h.ErrLog.LogServerError(w, r, "token carries bad user id", nil, "", "/login")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	tenant, err := h.Tenants.Create(ctx, models.Tenant{
		Name:  companyName,
		CNPJ:  cnpj,
		Phone: phone,
	})
	if err != nil {
		if errors.Is(err, tenantstore.ErrDuplicateSlug) {
			h.renderFormWithError(w, r, "Já existe uma empresa com esse nome. Escolha outro.", companyName, cnpj, phone)
			return
		}
		h.ErrLog.LogServerError(w, r, "tenant create failed", err, "", "/onboarding")
		return
	}

	if err := h.Settings.Save(ctx, tenant.ID, models.DefaultTenantSettings(tenant.ID)); err != nil {
		// The tenant exists; settings fall back to defaults on read.
		h.Log.Warn("seed tenant settings failed", zap.Error(err),
			zap.String("tenant_id", tenant.ID.Hex()))
	}

	if err := h.Users.AssignTenant(ctx, userID, tenant.ID); err != nil {
		h.ErrLog.LogServerError(w, r, "assign tenant failed", err, "", "/onboarding")
		return
	}

	// The session still says tenant-less member; rebuild it from the store.
	fresh := h.Fetcher.FetchToken(ctx, tok.UserID)
	if fresh == nil {
		h.ErrLog.LogServerError(w, r, "refetch token after onboarding failed", nil, "", "/login")
		return
	}
	if err := h.SessionMgr.SignIn(w, r, *fresh); err != nil {
		h.ErrLog.LogServerError(w, r, "session refresh failed", err, "", "/login")
		return
	}

	h.AuditLog.LoginSuccess(r.Context(), r, audit.EventOnboardingCompleted, userID, &tenant.ID)

	h.Log.Info("tenant onboarded",
		zap.String("tenant_id", tenant.ID.Hex()),
		zap.String("slug", tenant.Slug),
		zap.String("user_id", tok.UserID))

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *Handler) renderFormWithError(w http.ResponseWriter, r *http.Request, msg, companyName, cnpj, phone string) {
	w.WriteHeader(http.StatusUnprocessableEntity)
	templates.Render(w, r, "onboarding", onboardingFormData{
		BaseVM:      viewdata.NewBaseVM(r, "Configurar empresa", "/"),
		Error:       msg,
		CompanyName: companyName,
		CNPJ:        cnpj,
		Phone:       phone,
	})
}
