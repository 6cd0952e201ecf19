// internal/app/features/register/handler.go
package register

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"

	uierrors "github.com/dmoreira/cobrafacil/internal/app/features/errors"
	"github.com/dmoreira/cobrafacil/internal/app/store/audit"
	userstore "github.com/dmoreira/cobrafacil/internal/app/store/users"
	"github.com/dmoreira/cobrafacil/internal/app/system/auditlog"
	"github.com/dmoreira/cobrafacil/internal/app/system/auth"
	"github.com/dmoreira/cobrafacil/internal/app/system/authutil"
	"github.com/dmoreira/cobrafacil/internal/app/system/htmlsanitize"
	"github.com/dmoreira/cobrafacil/internal/app/system/normalize"
	"github.com/dmoreira/cobrafacil/internal/app/system/ratelimit"
	"github.com/dmoreira/cobrafacil/internal/app/system/timeouts"
	"github.com/dmoreira/cobrafacil/internal/app/system/viewdata"
	"github.com/dmoreira/cobrafacil/internal/domain/models"
)

type Handler struct {
	Log        *zap.Logger
	Users      *userstore.Store
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger
	AuditLog   *auditlog.Logger
	Limiter    *ratelimit.Limiter
}

func NewHandler(
	users *userstore.Store,
	sessionMgr *auth.SessionManager,
	errLog *uierrors.ErrorLogger,
	auditLog *auditlog.Logger,
	limiter *ratelimit.Limiter,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Log:        logger,
		Users:      users,
		SessionMgr: sessionMgr,
		ErrLog:     errLog,
		AuditLog:   auditLog,
		Limiter:    limiter,
	}
}

type registerFormData struct {
	viewdata.BaseVM
	Error string
	Name  string
	Email string
}

// registration is the validated input shared by the form and JSON paths.
type registration struct {
	Name     string
	Email    string
	Password string
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /register                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeRegister(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "register", registerFormData{
		BaseVM: viewdata.NewBaseVM(r, "Criar conta", "/"),
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /register (HTML form)                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleRegisterPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse register form failed", err, "Dados do formulário inválidos.", "/register")
		return
	}

	reg := registration{
		Name:     r.FormValue("name"),
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
	}
	user, errMsg := h.register(r, reg)
	if errMsg != "" {
		w.WriteHeader(http.StatusUnprocessableEntity)
		templates.Render(w, r, "register", registerFormData{
			BaseVM: viewdata.NewBaseVM(r, "Criar conta", "/"),
			Error:  errMsg,
			Name:   reg.Name,
			Email:  reg.Email,
		})
		return
	}

	// Fresh accounts have no tenant; sign in and head to onboarding.
	tok := auth.SessionToken{
		UserID:          user.ID.Hex(),
		Name:            user.Name,
		Role:            user.Role,
		IsActive:        true,
		NeedsOnboarding: true,
	}
	if err := h.SessionMgr.SignIn(w, r, tok); err != nil {
		h.ErrLog.LogServerError(w, r, "post-register sign-in failed", err, "", "/login")
		return
	}
	http.Redirect(w, r, "/onboarding", http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/register (JSON)                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (h *Handler) HandleAPIRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.LogAPIError(w, r, http.StatusBadRequest, "decode register body failed", err, "corpo da requisição inválido")
		return
	}

	user, errMsg := h.register(r, registration(req))
	if errMsg != "" {
		status := http.StatusUnprocessableEntity
		if strings.Contains(errMsg, "já está em uso") {
			status = http.StatusConflict
		}
		h.ErrLog.LogAPIError(w, r, status, "registration rejected", nil, errMsg)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(registerResponse{
		ID:    user.ID.Hex(),
		Name:  user.Name,
		Email: user.Email,
	})
}

// register validates and creates the user. It returns a user-facing error
// message in Portuguese, empty on success.
func (h *Handler) register(r *http.Request, reg registration) (*models.User, string) {
	name := htmlsanitize.Strip(strings.TrimSpace(reg.Name))
	email := normalize.Email(reg.Email)

	if name == "" {
		return nil, "Informe seu nome."
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, "Informe um e-mail válido."
	}
	if err := authutil.ValidatePassword(reg.Password); err != nil {
		switch {
		case errors.Is(err, authutil.ErrPasswordTooShort):
			return nil, "A senha precisa de pelo menos 8 caracteres."
		case errors.Is(err, authutil.ErrPasswordCommon):
			return nil, "Essa senha é muito comum. Escolha outra."
		default:
			return nil, "Senha inválida."
		}
	}

	if !h.Limiter.Allow("register:" + ratelimit.ClientIP(r)) {
		return nil, "Muitos cadastros recentes. Aguarde alguns minutos."
	}

	hash, err := authutil.HashPassword(reg.Password)
	if err != nil {
		h.Log.Error("password hash failed", zap.Error(err))
		return nil, "Algo deu errado. Tente novamente."
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, err := h.Users.Create(ctx, models.User{
		Name:         name,
		Email:        email,
		PasswordHash: &hash,
		AuthMethod:   models.AuthPassword,
		Role:         models.RoleMember,
	})
	if err != nil {
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			return nil, "Este e-mail já está em uso."
		}
		h.Log.Error("user create failed", zap.Error(err))
		return nil, "Algo deu errado. Tente novamente."
	}

	h.AuditLog.LoginSuccess(r.Context(), r, audit.EventRegistered, user.ID, nil)
	return &user, ""
}
