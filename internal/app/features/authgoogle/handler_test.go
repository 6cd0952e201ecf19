package authgoogle_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dmoreira/cobrafacil/internal/app/features/authgoogle"
	"github.com/dmoreira/cobrafacil/internal/app/store/oauthstate"
	userstore "github.com/dmoreira/cobrafacil/internal/app/store/users"
	"github.com/dmoreira/cobrafacil/internal/app/system/auditlog"
	"github.com/dmoreira/cobrafacil/internal/app/system/auth"
	"github.com/dmoreira/cobrafacil/internal/app/system/authn"
	"github.com/dmoreira/cobrafacil/internal/testutil"
)

func newTestHandler(t *testing.T, clientID, clientSecret string) *authgoogle.Handler {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	sessionMgr, err := auth.NewSessionManager("test-session-key-must-be-32-chars-long", "test-session", "", 24*time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}

	return authgoogle.NewHandler(
		sessionMgr,
		auditlog.New(auditlog.ModeLog, nil, logger),
		oauthstate.New(db),
		authn.NewReconciler(userstore.New(db), logger),
		clientID,
		clientSecret,
		"http://localhost:8080",
		logger,
	)
}

func TestIsConfigured(t *testing.T) {
	if !newTestHandler(t, "id", "secret").IsConfigured() {
		t.Error("IsConfigured() = false with credentials present")
	}
	if newTestHandler(t, "", "").IsConfigured() {
		t.Error("IsConfigured() = true without credentials")
	}
}

func TestServeLogin_NotConfigured(t *testing.T) {
	h := newTestHandler(t, "", "")

	r := httptest.NewRequest(http.MethodGet, "/api/auth/google", nil)
	w := httptest.NewRecorder()
	h.ServeLogin(w, r)

	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", w.Code)
	}
	if loc := w.Header().Get("Location"); !strings.Contains(loc, "error=google_not_configured") {
		t.Errorf("Location = %q, want configuration error", loc)
	}
}

func TestServeLogin_RedirectsToGoogleWithStoredState(t *testing.T) {
	h := newTestHandler(t, "test-client", "test-secret")

	r := httptest.NewRequest(http.MethodGet, "/api/auth/google?callbackUrl=/boletos", nil)
	w := httptest.NewRecorder()
	h.ServeLogin(w, r)

	if w.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want 307", w.Code)
	}
	loc, err := url.Parse(w.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse Location: %v", err)
	}
	if loc.Host != "accounts.google.com" {
		t.Errorf("redirect host = %q, want accounts.google.com", loc.Host)
	}

	state := loc.Query().Get("state")
	if state == "" {
		t.Fatal("redirect carries no state parameter")
	}

	// The state must be resolvable exactly once.
	ctx, cancel := testutil.TestContext()
	defer cancel()
	callback, valid, err := h.StateStore.Validate(ctx, state)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !valid {
		t.Fatal("stored state did not validate")
	}
	if callback != "/boletos" {
		t.Errorf("callback = %q, want /boletos", callback)
	}
	if _, valid, _ := h.StateStore.Validate(ctx, state); valid {
		t.Error("state validated twice; must be one-time")
	}
}

func TestServeCallback_ProviderError(t *testing.T) {
	h := newTestHandler(t, "test-client", "test-secret")

	r := httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?error=access_denied", nil)
	w := httptest.NewRecorder()
	h.ServeCallback(w, r)

	if loc := w.Header().Get("Location"); !strings.Contains(loc, "error=google_denied") {
		t.Errorf("Location = %q, want google_denied", loc)
	}
}

func TestServeCallback_MissingState(t *testing.T) {
	h := newTestHandler(t, "test-client", "test-secret")

	r := httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?code=abc", nil)
	w := httptest.NewRecorder()
	h.ServeCallback(w, r)

	if loc := w.Header().Get("Location"); !strings.Contains(loc, "error=invalid_state") {
		t.Errorf("Location = %q, want invalid_state", loc)
	}
}

func TestServeCallback_UnknownState(t *testing.T) {
	h := newTestHandler(t, "test-client", "test-secret")

	r := httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?state=never-issued&code=abc", nil)
	w := httptest.NewRecorder()
	h.ServeCallback(w, r)

	if loc := w.Header().Get("Location"); !strings.Contains(loc, "error=invalid_state") {
		t.Errorf("Location = %q, want invalid_state", loc)
	}
}

func TestServeCallback_MissingCode(t *testing.T) {
	h := newTestHandler(t, "test-client", "test-secret")

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := h.StateStore.Save(ctx, "valid-state", "", time.Now().UTC().Add(time.Minute)); err != nil {
		t.Fatalf("Save state: %v", err)
	}

	r := httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?state=valid-state", nil)
	w := httptest.NewRecorder()
	h.ServeCallback(w, r)

	if loc := w.Header().Get("Location"); !strings.Contains(loc, "error=invalid_code") {
		t.Errorf("Location = %q, want invalid_code", loc)
	}
}
