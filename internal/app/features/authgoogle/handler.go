// internal/app/features/authgoogle/handler.go
package authgoogle

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/dmoreira/cobrafacil/internal/app/store/audit"
	"github.com/dmoreira/cobrafacil/internal/app/store/oauthstate"
	"github.com/dmoreira/cobrafacil/internal/app/system/auditlog"
	"github.com/dmoreira/cobrafacil/internal/app/system/auth"
	"github.com/dmoreira/cobrafacil/internal/app/system/authn"
	"github.com/dmoreira/cobrafacil/internal/app/system/navigation"
	"github.com/dmoreira/cobrafacil/internal/app/system/timeouts"
)

// googleUserInfoURL is Google's OpenID userinfo endpoint. Overridable for
// tests via Handler.UserInfoURL.
const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// stateTTL bounds how long an initiated OAuth flow may take.
const stateTTL = 10 * time.Minute

// Handler drives the Google OAuth login flow.
type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	StateStore *oauthstate.Store
	Reconciler *authn.Reconciler

	ClientID     string
	ClientSecret string
	RedirectURL  string // BaseURL + "/api/auth/google/callback"
	BaseURL      string
	UserInfoURL  string
}

// NewHandler creates the Google OAuth handler.
func NewHandler(
	sessionMgr *auth.SessionManager,
	auditLog *auditlog.Logger,
	stateStore *oauthstate.Store,
	reconciler *authn.Reconciler,
	clientID, clientSecret, baseURL string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Log:          logger,
		SessionMgr:   sessionMgr,
		AuditLog:     auditLog,
		StateStore:   stateStore,
		Reconciler:   reconciler,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  baseURL + "/api/auth/google/callback",
		BaseURL:      baseURL,
		UserInfoURL:  googleUserInfoURL,
	}
}

func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}

// IsConfigured reports whether Google OAuth credentials are present.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/auth/google                                                         |
| Initiates the flow by redirecting to Google's consent screen.                |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.Log.Warn("Google OAuth not configured")
		http.Redirect(w, r, "/login?error=google_not_configured", http.StatusSeeOther)
		return
	}

	state, err := generateState()
	if err != nil {
		h.Log.Error("generate OAuth state failed", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	callbackURL := query.Get(r, "callbackUrl")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	expiresAt := time.Now().UTC().Add(stateTTL)
	if err := h.StateStore.Save(ctx, state, callbackURL, expiresAt); err != nil {
		h.Log.Error("save OAuth state failed", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	dest := h.oauth2Config().AuthCodeURL(state, oauth2.AccessTypeOffline)

	h.Log.Debug("initiating Google OAuth flow",
		zap.String("callback_url", callbackURL))

	http.Redirect(w, r, dest, http.StatusTemporaryRedirect)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/auth/google/callback                                                |
| Validates the one-time state, exchanges the code, reconciles the Google      |
| profile onto a local user, and signs the session in.                         |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.Log.Warn("Google OAuth error",
			zap.String("error", errParam),
			zap.String("description", r.URL.Query().Get("error_description")))
		http.Redirect(w, r, "/login?error=google_denied", http.StatusSeeOther)
		return
	}

	state := r.URL.Query().Get("state")
	if state == "" {
		h.Log.Warn("missing OAuth state parameter")
		http.Redirect(w, r, "/login?error=invalid_state", http.StatusSeeOther)
		return
	}

	shortCtx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	callbackURL, valid, err := h.StateStore.Validate(shortCtx, state)
	if err != nil {
		h.Log.Error("validate OAuth state failed", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}
	if !valid {
		h.Log.Warn("invalid or expired OAuth state")
		http.Redirect(w, r, "/login?error=invalid_state", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.Log.Warn("missing OAuth code parameter")
		http.Redirect(w, r, "/login?error=invalid_code", http.StatusSeeOther)
		return
	}

	token, err := h.oauth2Config().Exchange(ctx, code)
	if err != nil {
		h.Log.Error("OAuth code exchange failed", zap.Error(err))
		http.Redirect(w, r, "/login?error=token_exchange", http.StatusSeeOther)
		return
	}

	profile, err := h.fetchUserInfo(ctx, token)
	if err != nil {
		h.Log.Error("fetch Google user info failed", zap.Error(err))
		http.Redirect(w, r, "/login?error=user_info", http.StatusSeeOther)
		return
	}
	if profile.Email == "" {
		h.Log.Warn("Google profile without email", zap.String("google_id", profile.ID))
		http.Redirect(w, r, "/login?error=user_info", http.StatusSeeOther)
		return
	}

	user, err := h.Reconciler.Reconcile(shortCtx, authn.ExternalIdentity{
		Email:    profile.Email,
		Name:     profile.Name,
		Picture:  profile.Picture,
		Provider: "google",
		Subject:  profile.ID,
	})
	if err != nil {
		if errors.Is(err, authn.ErrAccountDisabled) {
			h.AuditLog.LoginFailure(ctx, r, audit.EventOAuthLoginFailed, profile.Email, "account disabled")
			http.Redirect(w, r, "/login?error=account_disabled", http.StatusSeeOther)
			return
		}
		h.Log.Error("reconcile Google identity failed", zap.Error(err))
		h.AuditLog.LoginFailure(ctx, r, audit.EventOAuthLoginFailed, profile.Email, "internal error")
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	tok := auth.SessionToken{
		UserID:   user.ID.Hex(),
		Name:     user.Name,
		Role:     user.Role,
		IsActive: user.IsActive,
	}
	if user.TenantID != nil && *user.TenantID != primitive.NilObjectID {
		tok.TenantID = user.TenantID.Hex()
	} else {
		tok.NeedsOnboarding = true
	}

	if err := h.SessionMgr.SignIn(w, r, tok); err != nil {
		h.Log.Error("session sign-in failed", zap.Error(err),
			zap.String("user_id", user.ID.Hex()))
		http.Redirect(w, r, "/login?error=session", http.StatusSeeOther)
		return
	}

	h.AuditLog.LoginSuccess(ctx, r, audit.EventOAuthLoginSuccess, user.ID, user.TenantID)

	h.Log.Info("user logged in via Google OAuth",
		zap.String("user_id", user.ID.Hex()))

	if callbackURL == "" {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, navigation.SafeCallback(callbackURL, h.BaseURL), http.StatusSeeOther)
}

// googleProfile is the subset of Google's userinfo response we consume.
type googleProfile struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func (h *Handler) fetchUserInfo(ctx context.Context, token *oauth2.Token) (*googleProfile, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	resp, err := client.Get(h.UserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo status %d", resp.StatusCode)
	}

	var p googleProfile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode user info: %w", err)
	}
	return &p, nil
}

// generateState creates a cryptographically secure random state string.
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
