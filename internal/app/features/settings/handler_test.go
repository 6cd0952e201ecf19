package settings

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	settingsstore "github.com/dmoreira/cobrafacil/internal/app/store/settings"
	"github.com/dmoreira/cobrafacil/internal/app/system/auditlog"
	"github.com/dmoreira/cobrafacil/internal/app/system/auth"
	"github.com/dmoreira/cobrafacil/internal/domain/models"
	"github.com/dmoreira/cobrafacil/internal/testutil"

	uierrors "github.com/dmoreira/cobrafacil/internal/app/features/errors"
)

func newTestHandler(t *testing.T) (*Handler, *testutil.Fixtures, *settingsstore.Store) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	store := settingsstore.New(db)
	h := NewHandler(store, uierrors.NewErrorLogger(logger), auditlog.New(auditlog.ModeLog, nil, logger), logger)
	return h, testutil.NewFixtures(t, db), store
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

func postForm(h http.HandlerFunc, tok *auth.SessionToken, form url.Values) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, "/settings", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if tok != nil {
		r = auth.WithTestToken(r, tok)
	}
	w := httptest.NewRecorder()

	// Failure paths render templates, which need the engine booted.
	func() {
		defer func() { _ = recover() }()
		h(w, r)
	}()
	return w
}

func TestHandleSettingsPost_SavesSettings(t *testing.T) {
	h, fx, store := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tenant := fx.CreateTenant(ctx, "Empresa Demo")
	w := postForm(h.HandleSettingsPost, tenantToken(tenant.ID), url.Values{
		"reminder_days_before":  {"5"},
		"second_reminder_days":  {"2"},
		"send_second_reminder":  {"on"},
		"enable_auto_reminders": {"on"},
		"reminder_template":     {"Olá {clientName}, seu boleto de {amount} vence em {dueDate}."},
	})

	testutil.AssertRedirect(t, w, "/settings?saved=1")

	s, err := store.Get(ctx, tenant.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if s.ReminderDaysBefore != 5 {
		t.Errorf("ReminderDaysBefore = %d, want 5", s.ReminderDaysBefore)
	}
	if s.SecondReminderDays != 2 {
		t.Errorf("SecondReminderDays = %d, want 2", s.SecondReminderDays)
	}
	if !s.SendSecondReminder || !s.EnableAutoReminders {
		t.Errorf("booleans = %v/%v, want both true", s.SendSecondReminder, s.EnableAutoReminders)
	}
	if !strings.Contains(s.ReminderTemplate, "{clientName}") {
		t.Errorf("ReminderTemplate = %q, want placeholders preserved", s.ReminderTemplate)
	}
	if s.UpdatedByID == nil {
		t.Error("UpdatedByID = nil, want actor recorded")
	}
}

func TestHandleSettingsPost_UncheckedBoxesDisable(t *testing.T) {
	h, fx, store := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tenant := fx.CreateTenant(ctx, "Empresa Demo")
	w := postForm(h.HandleSettingsPost, tenantToken(tenant.ID), url.Values{
		"reminder_days_before": {"3"},
		"second_reminder_days": {"1"},
		"reminder_template":    {"Lembrete: {amount} vence {dueDate}."},
	})

	testutil.AssertRedirect(t, w, "/settings?saved=1")

	s, err := store.Get(ctx, tenant.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if s.SendSecondReminder || s.EnableAutoReminders {
		t.Errorf("booleans = %v/%v, want both false", s.SendSecondReminder, s.EnableAutoReminders)
	}
}

func TestHandleSettingsPost_StripsMarkupFromTemplate(t *testing.T) {
	h, fx, store := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tenant := fx.CreateTenant(ctx, "Empresa Demo")
	w := postForm(h.HandleSettingsPost, tenantToken(tenant.ID), url.Values{
		"reminder_days_before": {"3"},
		"second_reminder_days": {"1"},
		"reminder_template":    {"Olá {clientName} <b>pague</b> até {dueDate}"},
	})

	testutil.AssertRedirect(t, w, "/settings?saved=1")

	s, err := store.Get(ctx, tenant.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if strings.Contains(s.ReminderTemplate, "<b>") {
		t.Errorf("ReminderTemplate = %q, want markup stripped", s.ReminderTemplate)
	}
	if !strings.Contains(s.ReminderTemplate, "{clientName}") {
		t.Errorf("ReminderTemplate = %q, want placeholders preserved", s.ReminderTemplate)
	}
}

func TestHandleSettingsPost_BlankTemplateFallsBackToDefault(t *testing.T) {
	h, fx, store := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tenant := fx.CreateTenant(ctx, "Empresa Demo")
	w := postForm(h.HandleSettingsPost, tenantToken(tenant.ID), url.Values{
		"reminder_days_before": {"3"},
		"second_reminder_days": {"1"},
		"reminder_template":    {"   "},
	})

	testutil.AssertRedirect(t, w, "/settings?saved=1")

	s, err := store.Get(ctx, tenant.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if s.ReminderTemplate != models.DefaultReminderTemplate {
		t.Errorf("ReminderTemplate = %q, want product default", s.ReminderTemplate)
	}
}

func TestHandleSettingsPost_RejectsDaysOutOfRange(t *testing.T) {
	h, fx, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tenant := fx.CreateTenant(ctx, "Empresa Demo")
	for _, days := range []string{"0", "-3", "31", "abc", ""} {
		w := postForm(h.HandleSettingsPost, tenantToken(tenant.ID), url.Values{
			"reminder_days_before": {days},
			"second_reminder_days": {"1"},
			"reminder_template":    {"Lembrete"},
		})
		testutil.AssertStatus(t, w, http.StatusUnprocessableEntity)
	}
}

func TestHandleSettingsPost_Unauthenticated(t *testing.T) {
	h, _, _ := newTestHandler(t)

	w := postForm(h.HandleSettingsPost, nil, url.Values{
		"reminder_days_before": {"3"},
		"second_reminder_days": {"1"},
	})
	testutil.AssertStatus(t, w, http.StatusUnauthorized)
}
