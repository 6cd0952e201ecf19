// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	uierrors "github.com/dmoreira/cobrafacil/internal/app/features/errors"
	"github.com/dmoreira/cobrafacil/internal/app/store/audit"
	"github.com/dmoreira/cobrafacil/internal/app/system/auditlog"
	"github.com/dmoreira/cobrafacil/internal/app/system/auth"
	"github.com/dmoreira/cobrafacil/internal/app/system/authn"
	"github.com/dmoreira/cobrafacil/internal/app/system/navigation"
	"github.com/dmoreira/cobrafacil/internal/app/system/normalize"
	"github.com/dmoreira/cobrafacil/internal/app/system/ratelimit"
	"github.com/dmoreira/cobrafacil/internal/app/system/timeouts"
	"github.com/dmoreira/cobrafacil/internal/app/system/viewdata"
)

type Handler struct {
	Log           *zap.Logger
	SessionMgr    *auth.SessionManager
	ErrLog        *uierrors.ErrorLogger
	AuditLog      *auditlog.Logger
	Verifier      *authn.Verifier
	Limiter       *ratelimit.Limiter
	BaseURL       string
	GoogleEnabled bool
}

func NewHandler(
	sessionMgr *auth.SessionManager,
	errLog *uierrors.ErrorLogger,
	auditLog *auditlog.Logger,
	verifier *authn.Verifier,
	limiter *ratelimit.Limiter,
	baseURL string,
	googleEnabled bool,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Log:           logger,
		SessionMgr:    sessionMgr,
		ErrLog:        errLog,
		AuditLog:      auditLog,
		Verifier:      verifier,
		Limiter:       limiter,
		BaseURL:       baseURL,
		GoogleEnabled: googleEnabled,
	}
}

type loginFormData struct {
	viewdata.BaseVM
	Error         string
	Email         string
	CallbackURL   string
	GoogleEnabled bool
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /login                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "login", loginFormData{
		BaseVM:        viewdata.NewBaseVM(r, "Entrar", "/"),
		CallbackURL:   query.Get(r, "callbackUrl"),
		GoogleEnabled: h.GoogleEnabled,
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /login                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse login form failed", err, "Dados do formulário inválidos.", "/login")
		return
	}

	email := normalize.Email(r.FormValue("email"))
	password := r.FormValue("password")
	callback := strings.TrimSpace(r.FormValue("callbackUrl"))

	if email == "" || password == "" {
		h.renderFormWithError(w, r, "Informe e-mail e senha.", email, callback)
		return
	}

	// One window per source IP and another per target account.
	ip := ratelimit.ClientIP(r)
	if !h.Limiter.Allow("login:"+ip) || !h.Limiter.Allow("login:"+email) {
		h.AuditLog.LoginFailure(r.Context(), r, audit.EventLoginFailedRateLimit, email, "rate limited")
		h.renderFormWithError(w, r, "Muitas tentativas. Aguarde alguns minutos.", email, callback)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	identity, err := h.Verifier.Verify(ctx, email, password)
	if err != nil {
		switch {
		case errors.Is(err, authn.ErrAccountDisabled):
			h.AuditLog.LoginFailure(r.Context(), r, audit.EventLoginFailedUserDisabled, email, "account disabled")
			h.renderFormWithError(w, r, "Sua conta está desativada. Fale com o administrador.", email, callback)
		case errors.Is(err, authn.ErrInvalidCredentials):
			h.AuditLog.LoginFailure(r.Context(), r, audit.EventLoginFailedWrongPassword, email, "invalid credentials")
			h.renderFormWithError(w, r, "E-mail ou senha inválidos.", email, callback)
		default:
			h.ErrLog.LogServerError(w, r, "credential verification failed", err, "", "/login")
		}
		return
	}

	tok := tokenFromIdentity(identity)
	if err := h.SessionMgr.SignIn(w, r, tok); err != nil {
		h.ErrLog.LogServerError(w, r, "session sign-in failed", err, "", "/login")
		return
	}

	h.Limiter.Reset("login:" + email)
	h.AuditLog.LoginSuccess(r.Context(), r, audit.EventLoginSuccess, identity.UserID, identity.TenantID)

	// No callback means the user came straight to the form; land on the
	// dashboard, matching the OAuth callback.
	dest := "/dashboard"
	if callback != "" {
		dest = navigation.SafeCallback(callback, h.BaseURL)
	}
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

func (h *Handler) renderFormWithError(w http.ResponseWriter, r *http.Request, msg, email, callback string) {
	w.WriteHeader(http.StatusUnprocessableEntity)
	templates.Render(w, r, "login", loginFormData{
		BaseVM:        viewdata.NewBaseVM(r, "Entrar", "/"),
		Error:         msg,
		Email:         email,
		CallbackURL:   callback,
		GoogleEnabled: h.GoogleEnabled,
	})
}

func tokenFromIdentity(id authn.Identity) auth.SessionToken {
	tok := auth.SessionToken{
		UserID:   id.UserID.Hex(),
		Name:     id.Name,
		Role:     id.Role,
		IsActive: id.IsActive,
	}
	if id.TenantID != nil && *id.TenantID != primitive.NilObjectID {
		tok.TenantID = id.TenantID.Hex()
	} else {
		tok.NeedsOnboarding = true
	}
	return tok
}
