package dashboard

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	boletostore "github.com/dmoreira/cobrafacil/internal/app/store/boletos"
	clientstore "github.com/dmoreira/cobrafacil/internal/app/store/clients"
	reminderstore "github.com/dmoreira/cobrafacil/internal/app/store/reminders"
	"github.com/dmoreira/cobrafacil/internal/app/system/auth"
	"github.com/dmoreira/cobrafacil/internal/testutil"

	uierrors "github.com/dmoreira/cobrafacil/internal/app/features/errors"
)

func newTestHandler(t *testing.T) (*Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	h := NewHandler(
		clientstore.New(db),
		boletostore.New(db),
		reminderstore.New(db),
		uierrors.NewErrorLogger(logger),
		logger,
	)
	return h, testutil.NewFixtures(t, db)
}

func serveDashboard(h *Handler, tok *auth.SessionToken) *httptest.ResponseRecorder {
	r := testutil.NewAuthenticatedRequest(http.MethodGet, "/dashboard", tok)
	w := httptest.NewRecorder()

	// The success path renders a template, which needs the engine booted.
	func() {
		defer func() { _ = recover() }()
		h.ServeDashboard(w, r)
	}()
	return w
}

func TestServeDashboard_NoTenantRedirectsToOnboarding(t *testing.T) {
	h, _ := newTestHandler(t)

	w := serveDashboard(h, testutil.OnboardingToken())

	testutil.AssertRedirect(t, w, "/onboarding")
}

func TestUpcoming_JoinsClientNames(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tenant := fx.CreateTenant(ctx, "Empresa Demo")
	client := fx.CreateClient(ctx, tenant.ID, "Carlos Pereira", "12345678901")
	fx.CreateBoleto(ctx, tenant.ID, client.ID, 159990, time.Now().UTC().AddDate(0, 0, 3))
	// Outside the window; must not appear.
	fx.CreateBoleto(ctx, tenant.ID, client.ID, 50000, time.Now().UTC().AddDate(0, 0, 30))

	rows, err := h.upcoming(ctx, tenant.ID)
	if err != nil {
		t.Fatalf("upcoming: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d, want 1", len(rows))
	}
	row := rows[0]
	if row.ClientName != "Carlos Pereira" {
		t.Errorf("ClientName = %q", row.ClientName)
	}
	if row.Amount != "R$ 1.599,90" {
		t.Errorf("Amount = %q, want R$ 1.599,90", row.Amount)
	}
	if row.DaysLeft < 2 || row.DaysLeft > 3 {
		t.Errorf("DaysLeft = %d, want about 3", row.DaysLeft)
	}
}

func TestUpcoming_IgnoresOtherTenants(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	mine := fx.CreateTenant(ctx, "Minha Empresa")
	other := fx.CreateTenant(ctx, "Outra Empresa")
	otherClient := fx.CreateClient(ctx, other.ID, "Beatriz Nunes", "98765432100")
	fx.CreateBoleto(ctx, other.ID, otherClient.ID, 10000, time.Now().UTC().AddDate(0, 0, 2))

	rows, err := h.upcoming(ctx, mine.ID)
	if err != nil {
		t.Fatalf("upcoming: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("len(rows) = %d, want 0 for a tenant with no boletos", len(rows))
	}
}
