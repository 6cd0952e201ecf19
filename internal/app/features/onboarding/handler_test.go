package onboarding

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	settingsstore "github.com/dmoreira/cobrafacil/internal/app/store/settings"
	tenantstore "github.com/dmoreira/cobrafacil/internal/app/store/tenants"
	userstore "github.com/dmoreira/cobrafacil/internal/app/store/users"
	"github.com/dmoreira/cobrafacil/internal/app/system/auditlog"
	"github.com/dmoreira/cobrafacil/internal/app/system/auth"
	"github.com/dmoreira/cobrafacil/internal/testutil"

	uierrors "github.com/dmoreira/cobrafacil/internal/app/features/errors"
)

type onboardingEnv struct {
	h       *Handler
	fx      *testutil.Fixtures
	tenants *tenantstore.Store
	users   *userstore.Store
}

func newTestEnv(t *testing.T) *onboardingEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	mgr, err := auth.NewSessionManager("test-session-key-must-be-32-chars-long", "test-session", "", 24*time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}

	tenants := tenantstore.New(db)
	users := userstore.New(db)
	h := NewHandler(
		tenants,
		settingsstore.New(db),
		users,
		userstore.NewFetcher(db),
		mgr,
		uierrors.NewErrorLogger(logger),
		auditlog.New(auditlog.ModeLog, nil, logger),
		logger,
	)
	return &onboardingEnv{
		h:       h,
		fx:      testutil.NewFixtures(t, db),
		tenants: tenants,
		users:   users,
	}
}

func postOnboarding(h *Handler, tok *auth.SessionToken, form url.Values) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, "/onboarding", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if tok != nil {
		r = auth.WithTestToken(r, tok)
	}
	w := httptest.NewRecorder()

	// Failure paths render templates, which need the engine booted.
	func() {
		defer func() { _ = recover() }()
		h.HandleOnboardingPost(w, r)
	}()
	return w
}

func TestHandleOnboardingPost_CreatesTenantAndPromotesUser(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := env.fx.CreateUser(ctx, "Ana Souza", "ana@example.com", nil)
	tok := &auth.SessionToken{
		UserID:          u.ID.Hex(),
		Name:            u.Name,
		Role:            u.Role,
		IsActive:        true,
		NeedsOnboarding: true,
	}

	w := postOnboarding(env.h, tok, url.Values{
		"company_name": {"Empresa Demo"},
		"cnpj":         {"12.345.678/0001-90"},
		"phone":        {"(11) 99999-8888"},
	})

	testutil.AssertRedirect(t, w, "/dashboard")
	if len(w.Result().Cookies()) == 0 {
		t.Error("onboarding must refresh the session cookie")
	}

	tenant, err := env.tenants.GetBySlug(ctx, "empresa-demo")
	if err != nil {
		t.Fatalf("GetBySlug: %v", err)
	}
	if tenant.CNPJ != "12345678000190" {
		t.Errorf("CNPJ = %q, want digits only", tenant.CNPJ)
	}

	stored, err := env.users.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.TenantID == nil || *stored.TenantID != tenant.ID {
		t.Error("user must be assigned to the new tenant")
	}
	if stored.Role != "admin" {
		t.Errorf("Role = %q, want admin after onboarding", stored.Role)
	}

	settings, err := settingsstore.New(env.fx.DB()).Get(ctx, tenant.ID)
	if err != nil {
		t.Fatalf("settings Get: %v", err)
	}
	if settings.ReminderDaysBefore != 3 || !settings.EnableAutoReminders {
		t.Errorf("settings = %+v, want defaults seeded", settings)
	}
}

func TestHandleOnboardingPost_DuplicateCompanyName(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := env.tenants.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes: %v", err)
	}
	env.fx.CreateTenant(ctx, "Empresa Demo")
	u := env.fx.CreateUser(ctx, "Bruno Lima", "bruno@example.com", nil)

	w := postOnboarding(env.h, &auth.SessionToken{
		UserID: u.ID.Hex(), Name: u.Name, Role: u.Role, IsActive: true, NeedsOnboarding: true,
	}, url.Values{
		"company_name": {"Empresa Demo"},
	})

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422 for duplicate company name", w.Code)
	}
}

func TestHandleOnboardingPost_BadCNPJ(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := env.fx.CreateUser(ctx, "Ana Souza", "ana@example.com", nil)
	w := postOnboarding(env.h, &auth.SessionToken{
		UserID: u.ID.Hex(), Name: u.Name, Role: u.Role, IsActive: true, NeedsOnboarding: true,
	}, url.Values{
		"company_name": {"Empresa Demo"},
		"cnpj":         {"123"},
	})

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422 for short CNPJ", w.Code)
	}
}

func TestHandleOnboardingPost_AlreadyOnboarded(t *testing.T) {
	env := newTestEnv(t)

	w := postOnboarding(env.h, testutil.AdminToken(), url.Values{
		"company_name": {"Outra Empresa"},
	})

	testutil.AssertRedirect(t, w, "/dashboard")
}

func TestHandleOnboardingPost_Unauthenticated(t *testing.T) {
	env := newTestEnv(t)

	w := postOnboarding(env.h, nil, url.Values{
		"company_name": {"Empresa Demo"},
	})

	testutil.AssertRedirect(t, w, "/login")
}

func TestServeOnboarding_TenantUserBouncesToDashboard(t *testing.T) {
	env := newTestEnv(t)

	r := testutil.NewAuthenticatedRequest(http.MethodGet, "/onboarding", testutil.AdminToken())
	w := httptest.NewRecorder()
	env.h.ServeOnboarding(w, r)

	testutil.AssertRedirect(t, w, "/dashboard")
}
