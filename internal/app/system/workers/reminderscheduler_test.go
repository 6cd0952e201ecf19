package workers

import (
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	boletostore "github.com/dmoreira/cobrafacil/internal/app/store/boletos"
	clientstore "github.com/dmoreira/cobrafacil/internal/app/store/clients"
	reminderstore "github.com/dmoreira/cobrafacil/internal/app/store/reminders"
	settingsstore "github.com/dmoreira/cobrafacil/internal/app/store/settings"
	tenantstore "github.com/dmoreira/cobrafacil/internal/app/store/tenants"
	"github.com/dmoreira/cobrafacil/internal/domain/models"
	"github.com/dmoreira/cobrafacil/internal/testutil"
)

func TestRenderTemplate(t *testing.T) {
	due := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	got := RenderTemplate(
		"Olá {clientName}! Vence em {daysLeft} dia(s), dia {dueDate}, valor R$ {amount}.",
		"Carlos", 3, due, 159990)

	want := "Olá Carlos! Vence em 3 dia(s), dia 15/09/2026, valor R$ 1.599,90."
	if got != want {
		t.Errorf("RenderTemplate = %q, want %q", got, want)
	}
}

func TestRenderTemplate_DefaultTemplate(t *testing.T) {
	due := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	got := RenderTemplate(models.DefaultReminderTemplate, "Ana", 2, due, 5000)

	for _, frag := range []string{"Ana", "2 dia(s)", "01/10/2026", "R$ 50,00"} {
		if !strings.Contains(got, frag) {
			t.Errorf("rendered template missing %q:\n%s", frag, got)
		}
	}
	if strings.Contains(got, "{") {
		t.Errorf("unreplaced placeholder remains:\n%s", got)
	}
}

func newScheduler(t *testing.T) (*ReminderScheduler, *testutil.Fixtures, *reminderstore.Store, *boletostore.Store, *settingsstore.Store) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	tenants := tenantstore.New(db)
	settings := settingsstore.New(db)
	clients := clientstore.New(db)
	boletos := boletostore.New(db)
	reminders := reminderstore.New(db)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := reminders.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes: %v", err)
	}

	w := NewReminderScheduler(tenants, settings, clients, boletos, reminders, zap.NewNop(), time.Hour)
	return w, testutil.NewFixtures(t, db), reminders, boletos, settings
}

func TestScheduler_RunOnce(t *testing.T) {
	w, fixtures, reminders, boletos, _ := newScheduler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tenant := fixtures.CreateTenant(ctx, "Agendadora")
	client := fixtures.CreateClient(ctx, tenant.ID, "Devedor", "12345678909")

	now := time.Now()
	dueSoon := fixtures.CreateBoleto(ctx, tenant.ID, client.ID, 10000, now.AddDate(0, 0, 2))
	pastDue := fixtures.CreateBoleto(ctx, tenant.ID, client.ID, 10000, now.AddDate(0, 0, -1))

	w.RunOnce(ctx, now)

	// Default settings: first + second reminder for the boleto due in 2 days.
	got, err := reminders.List(ctx, tenant.ID, reminderstore.ListFilter{BoletoID: &dueSoon.ID})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("reminders for due boleto = %d, want 2", len(got))
	}
	for _, r := range got {
		if r.Status != models.ReminderPending {
			t.Errorf("status = %q, want PENDING", r.Status)
		}
		if r.Recipient != client.WhatsApp {
			t.Errorf("recipient = %q, want client WhatsApp", r.Recipient)
		}
		if strings.Contains(r.Message, "{") {
			t.Errorf("unrendered message: %s", r.Message)
		}
	}

	// Past-due boleto flipped to OVERDUE.
	b, err := boletos.GetByID(ctx, tenant.ID, pastDue.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if b.Status != models.BoletoOverdue {
		t.Errorf("past-due status = %q, want OVERDUE", b.Status)
	}

	// A second pass schedules nothing new: idempotency keys collide.
	w.RunOnce(ctx, now)
	got, _ = reminders.List(ctx, tenant.ID, reminderstore.ListFilter{BoletoID: &dueSoon.ID})
	if len(got) != 2 {
		t.Errorf("after second pass reminders = %d, want still 2", len(got))
	}
}

func TestScheduler_RespectsSettings(t *testing.T) {
	w, fixtures, reminders, _, settings := newScheduler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now()

	// Auto reminders off: nothing scheduled.
	off := fixtures.CreateTenant(ctx, "Desligada")
	offClient := fixtures.CreateClient(ctx, off.ID, "Cliente", "11111111111")
	fixtures.CreateBoleto(ctx, off.ID, offClient.ID, 1000, now.AddDate(0, 0, 1))
	cfg := models.DefaultTenantSettings(off.ID)
	cfg.EnableAutoReminders = false
	if err := settings.Save(ctx, off.ID, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Second reminder disabled: only the first is scheduled.
	single := fixtures.CreateTenant(ctx, "Só Primeiro")
	singleClient := fixtures.CreateClient(ctx, single.ID, "Cliente", "22222222222")
	b := fixtures.CreateBoleto(ctx, single.ID, singleClient.ID, 1000, now.AddDate(0, 0, 1))
	cfg2 := models.DefaultTenantSettings(single.ID)
	cfg2.SendSecondReminder = false
	if err := settings.Save(ctx, single.ID, cfg2); err != nil {
		t.Fatalf("Save: %v", err)
	}

	w.RunOnce(ctx, now)

	if got, _ := reminders.List(ctx, off.ID, reminderstore.ListFilter{}); len(got) != 0 {
		t.Errorf("disabled tenant got %d reminders, want 0", len(got))
	}
	got, _ := reminders.List(ctx, single.ID, reminderstore.ListFilter{BoletoID: &b.ID})
	if len(got) != 1 || got[0].Type != models.ReminderFirst {
		t.Errorf("single-reminder tenant got %+v, want one FIRST_REMINDER", got)
	}
}

func TestScheduler_SkipsClientsWithoutWhatsApp(t *testing.T) {
	w, fixtures, reminders, _, _ := newScheduler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tenant := fixtures.CreateTenant(ctx, "Sem Zap")
	client := fixtures.CreateClientFull(ctx, models.Client{
		TenantID: tenant.ID,
		Name:     "Sem Contato",
		CpfCnpj:  "98765432100",
	})
	fixtures.CreateBoleto(ctx, tenant.ID, client.ID, 1000, time.Now().AddDate(0, 0, 1))

	w.RunOnce(ctx, time.Now())

	if got, _ := reminders.List(ctx, tenant.ID, reminderstore.ListFilter{}); len(got) != 0 {
		t.Errorf("client without WhatsApp got %d reminders, want 0", len(got))
	}
}
