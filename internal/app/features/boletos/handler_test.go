package boletos

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	boletostore "github.com/dmoreira/cobrafacil/internal/app/store/boletos"
	clientstore "github.com/dmoreira/cobrafacil/internal/app/store/clients"
	reminderstore "github.com/dmoreira/cobrafacil/internal/app/store/reminders"
	"github.com/dmoreira/cobrafacil/internal/app/system/auditlog"
	"github.com/dmoreira/cobrafacil/internal/app/system/auth"
	"github.com/dmoreira/cobrafacil/internal/domain/models"
	"github.com/dmoreira/cobrafacil/internal/testutil"

	uierrors "github.com/dmoreira/cobrafacil/internal/app/features/errors"
)

type boletoEnv struct {
	h         *Handler
	fx        *testutil.Fixtures
	boletos   *boletostore.Store
	reminders *reminderstore.Store
}

func newTestEnv(t *testing.T) *boletoEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	boletos := boletostore.New(db)
	reminders := reminderstore.New(db)
	h := NewHandler(
		boletos,
		clientstore.New(db),
		reminders,
		uierrors.NewErrorLogger(logger),
		auditlog.New(auditlog.ModeLog, nil, logger),
		logger,
	)
	return &boletoEnv{h: h, fx: testutil.NewFixtures(t, db), boletos: boletos, reminders: reminders}
}

func tenantToken(tenantID primitive.ObjectID) *auth.SessionToken {
	return &auth.SessionToken{
		UserID:   primitive.NewObjectID().Hex(),
		Name:     "Dona da Empresa",
		Role:     "admin",
		TenantID: tenantID.Hex(),
		IsActive: true,
	}
}

func postForm(h http.HandlerFunc, target string, tok *auth.SessionToken, form url.Values, params map[string]string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if tok != nil {
		r = auth.WithTestToken(r, tok)
	}
	for k, v := range params {
		r = testutil.WithChiURLParam(r, k, v)
	}
	w := httptest.NewRecorder()

	// Failure paths render templates, which need the engine booted.
	func() {
		defer func() { _ = recover() }()
		h(w, r)
	}()
	return w
}

func TestParseAmountCents(t *testing.T) {
	cases := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"1.599,90", 159990, false},
		{"1599,90", 159990, false},
		{"1599.90", 159990, false},
		{"R$ 1.599,90", 159990, false},
		{"150", 15000, false},
		{"0,01", 1, false},
		{"", 0, true},
		{"abc", 0, true},
	}
	for _, tc := range cases {
		got, err := parseAmountCents(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseAmountCents(%q) expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseAmountCents(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("parseAmountCents(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestHandleCreateBoleto(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tenant := env.fx.CreateTenant(ctx, "Empresa Demo")
	client := env.fx.CreateClient(ctx, tenant.ID, "Carlos Pereira", "12345678901")

	w := postForm(env.h.HandleCreateBoleto, "/boletos", tenantToken(tenant.ID), url.Values{
		"client_id":    {client.ID.Hex()},
		"nosso_numero": {"0001-77"},
		"amount":       {"1.599,90"},
		"due_date":     {"2026-09-15"},
		"description":  {"Mensalidade setembro"},
	}, nil)

	testutil.AssertRedirect(t, w, "/boletos")

	list, err := env.boletos.List(ctx, tenant.ID, boletostore.ListFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("len(list) = %d, want 1", len(list))
	}
	b := list[0]
	if b.AmountCents != 159990 {
		t.Errorf("AmountCents = %d, want 159990", b.AmountCents)
	}
	if b.Status != models.BoletoPending {
		t.Errorf("Status = %q, want PENDING", b.Status)
	}
	if !b.DueDate.Equal(time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("DueDate = %v", b.DueDate)
	}
}

func TestHandleCreateBoleto_ClientFromAnotherTenant(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	mine := env.fx.CreateTenant(ctx, "Minha Empresa")
	other := env.fx.CreateTenant(ctx, "Outra Empresa")
	foreign := env.fx.CreateClient(ctx, other.ID, "Beatriz Nunes", "98765432100")

	w := postForm(env.h.HandleCreateBoleto, "/boletos", tenantToken(mine.ID), url.Values{
		"client_id": {foreign.ID.Hex()},
		"amount":    {"100,00"},
		"due_date":  {"2026-09-15"},
	}, nil)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422 for another tenant's client", w.Code)
	}
}

func TestHandleMarkPaid_CancelsPendingReminders(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tenant := env.fx.CreateTenant(ctx, "Empresa Demo")
	client := env.fx.CreateClient(ctx, tenant.ID, "Carlos Pereira", "12345678901")
	boleto := env.fx.CreateBoleto(ctx, tenant.ID, client.ID, 50000, time.Now().UTC().AddDate(0, 0, 5))
	rem := env.fx.CreateReminder(ctx, tenant.ID, boleto.ID, models.ReminderFirst, time.Now().UTC().AddDate(0, 0, 2))

	w := postForm(env.h.HandleMarkPaid, "/boletos/"+boleto.ID.Hex()+"/pay", tenantToken(tenant.ID),
		url.Values{}, map[string]string{"id": boleto.ID.Hex()})

	testutil.AssertRedirect(t, w, "/boletos")

	b, err := env.boletos.GetByID(ctx, tenant.ID, boleto.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !b.IsPaid || b.Status != models.BoletoPaid {
		t.Errorf("boleto = %+v, want paid", b)
	}
	if b.PaidAmountCents != 50000 {
		t.Errorf("PaidAmountCents = %d, want face value when no amount given", b.PaidAmountCents)
	}

	stored, err := env.reminders.GetByID(ctx, tenant.ID, rem.ID)
	if err != nil {
		t.Fatalf("reminder GetByID: %v", err)
	}
	if stored.Status != models.ReminderCancelled {
		t.Errorf("reminder status = %q, want CANCELLED after payment", stored.Status)
	}
}

func TestHandleMarkPaid_AlreadyPaid(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tenant := env.fx.CreateTenant(ctx, "Empresa Demo")
	client := env.fx.CreateClient(ctx, tenant.ID, "Carlos Pereira", "12345678901")
	boleto := env.fx.CreateBoleto(ctx, tenant.ID, client.ID, 50000, time.Now().UTC().AddDate(0, 0, 5))

	if err := env.boletos.MarkPaid(ctx, tenant.ID, boleto.ID, 0, time.Now().UTC()); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}

	w := postForm(env.h.HandleMarkPaid, "/boletos/"+boleto.ID.Hex()+"/pay", tenantToken(tenant.ID),
		url.Values{}, map[string]string{"id": boleto.ID.Hex()})

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for a second payment", w.Code)
	}
}

func TestHandleCancelBoleto(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tenant := env.fx.CreateTenant(ctx, "Empresa Demo")
	client := env.fx.CreateClient(ctx, tenant.ID, "Carlos Pereira", "12345678901")
	boleto := env.fx.CreateBoleto(ctx, tenant.ID, client.ID, 50000, time.Now().UTC().AddDate(0, 0, 5))

	w := postForm(env.h.HandleCancelBoleto, "/boletos/"+boleto.ID.Hex()+"/cancel", tenantToken(tenant.ID),
		url.Values{}, map[string]string{"id": boleto.ID.Hex()})

	testutil.AssertRedirect(t, w, "/boletos")

	b, err := env.boletos.GetByID(ctx, tenant.ID, boleto.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if b.Status != models.BoletoCancelled {
		t.Errorf("Status = %q, want CANCELLED", b.Status)
	}
}

func TestHandleCancelBoleto_PaidIsRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tenant := env.fx.CreateTenant(ctx, "Empresa Demo")
	client := env.fx.CreateClient(ctx, tenant.ID, "Carlos Pereira", "12345678901")
	boleto := env.fx.CreateBoleto(ctx, tenant.ID, client.ID, 50000, time.Now().UTC().AddDate(0, 0, 5))

	if err := env.boletos.MarkPaid(ctx, tenant.ID, boleto.ID, 0, time.Now().UTC()); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}

	w := postForm(env.h.HandleCancelBoleto, "/boletos/"+boleto.ID.Hex()+"/cancel", tenantToken(tenant.ID),
		url.Values{}, map[string]string{"id": boleto.ID.Hex()})

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 when cancelling a paid boleto", w.Code)
	}
}
