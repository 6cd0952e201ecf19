package boletostore_test

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	boletostore "github.com/dmoreira/cobrafacil/internal/app/store/boletos"
	"github.com/dmoreira/cobrafacil/internal/domain/models"
	"github.com/dmoreira/cobrafacil/internal/testutil"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := boletostore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tenant := fixtures.CreateTenant(ctx, "Emissor")
	client := fixtures.CreateClient(ctx, tenant.ID, "Pagador", "12345678909")

	due := time.Now().AddDate(0, 0, 10)
	created, err := store.Create(ctx, models.Boleto{
		TenantID:    tenant.ID,
		ClientID:    client.ID,
		NossoNumero: "0001-1",
		AmountCents: 15990,
		DueDate:     due,
		Description: "Mensalidade setembro",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Status != models.BoletoPending {
		t.Errorf("status = %q, want PENDING", created.Status)
	}
	if created.IsPaid {
		t.Error("new boleto must not be paid")
	}
}

func TestStore_Create_Validation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := boletostore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tenant := fixtures.CreateTenant(ctx, "Validação")
	client := fixtures.CreateClient(ctx, tenant.ID, "Pagador", "12345678909")

	tests := []struct {
		name string
		b    models.Boleto
	}{
		{"missing tenant", models.Boleto{ClientID: client.ID, AmountCents: 100, DueDate: time.Now()}},
		{"missing client", models.Boleto{TenantID: tenant.ID, AmountCents: 100, DueDate: time.Now()}},
		{"zero amount", models.Boleto{TenantID: tenant.ID, ClientID: client.ID, DueDate: time.Now()}},
		{"negative amount", models.Boleto{TenantID: tenant.ID, ClientID: client.ID, AmountCents: -5, DueDate: time.Now()}},
		{"bad status", models.Boleto{TenantID: tenant.ID, ClientID: client.ID, AmountCents: 100, DueDate: time.Now(), Status: "LATE"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := store.Create(ctx, tt.b); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestStore_MarkPaid(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := boletostore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tenant := fixtures.CreateTenant(ctx, "Pagamentos")
	client := fixtures.CreateClient(ctx, tenant.ID, "Pagador", "12345678909")
	b := fixtures.CreateBoleto(ctx, tenant.ID, client.ID, 20000, time.Now().AddDate(0, 0, 5))

	paidAt := time.Now()
	if err := store.MarkPaid(ctx, tenant.ID, b.ID, 0, paidAt); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}

	got, err := store.GetByID(ctx, tenant.ID, b.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != models.BoletoPaid || !got.IsPaid {
		t.Errorf("status = %q isPaid=%v, want PAID/true", got.Status, got.IsPaid)
	}
	if got.PaidAmountCents != 20000 {
		t.Errorf("PaidAmountCents = %d, want full amount 20000", got.PaidAmountCents)
	}
	if got.PaidAt == nil {
		t.Error("PaidAt not recorded")
	}

	if err := store.MarkPaid(ctx, tenant.ID, b.ID, 0, paidAt); err != boletostore.ErrAlreadyPaid {
		t.Errorf("second MarkPaid err = %v, want ErrAlreadyPaid", err)
	}
}

func TestStore_Cancel(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := boletostore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tenant := fixtures.CreateTenant(ctx, "Cancelamentos")
	client := fixtures.CreateClient(ctx, tenant.ID, "Pagador", "12345678909")

	b := fixtures.CreateBoleto(ctx, tenant.ID, client.ID, 5000, time.Now().AddDate(0, 0, 3))
	if err := store.Cancel(ctx, tenant.ID, b.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	got, _ := store.GetByID(ctx, tenant.ID, b.ID)
	if got.Status != models.BoletoCancelled {
		t.Errorf("status = %q, want CANCELLED", got.Status)
	}

	// Paid boletos cannot be cancelled.
	paid := fixtures.CreateBoleto(ctx, tenant.ID, client.ID, 5000, time.Now().AddDate(0, 0, 3))
	if err := store.MarkPaid(ctx, tenant.ID, paid.ID, 0, time.Now()); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}
	if err := store.Cancel(ctx, tenant.ID, paid.ID); err == nil {
		t.Fatal("expected error cancelling a paid boleto")
	}
}

func TestStore_SchedulerQueries(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := boletostore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tenant := fixtures.CreateTenant(ctx, "Agenda")
	client := fixtures.CreateClient(ctx, tenant.ID, "Pagador", "12345678909")

	now := time.Now()
	dueSoon := fixtures.CreateBoleto(ctx, tenant.ID, client.ID, 1000, now.AddDate(0, 0, 2))
	fixtures.CreateBoleto(ctx, tenant.ID, client.ID, 1000, now.AddDate(0, 0, 30)) // far future
	overdue := fixtures.CreateBoleto(ctx, tenant.ID, client.ID, 1000, now.AddDate(0, 0, -2))

	within, err := store.ListDueWithin(ctx, tenant.ID, now, 3)
	if err != nil {
		t.Fatalf("ListDueWithin: %v", err)
	}
	if len(within) != 1 || within[0].ID != dueSoon.ID {
		t.Errorf("ListDueWithin = %d boletos, want just the one due in 2 days", len(within))
	}

	n, err := store.MarkOverdue(ctx, tenant.ID, now)
	if err != nil {
		t.Fatalf("MarkOverdue: %v", err)
	}
	if n != 1 {
		t.Errorf("MarkOverdue changed %d, want 1", n)
	}
	got, _ := store.GetByID(ctx, tenant.ID, overdue.ID)
	if got.Status != models.BoletoOverdue {
		t.Errorf("status = %q, want OVERDUE", got.Status)
	}
}

func TestStore_GetByID_ScopedToTenant(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := boletostore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := fixtures.CreateTenant(ctx, "Dona")
	other := fixtures.CreateTenant(ctx, "Intrusa")
	client := fixtures.CreateClient(ctx, a.ID, "Pagador", "12345678909")
	b := fixtures.CreateBoleto(ctx, a.ID, client.ID, 1000, time.Now())

	if _, err := store.GetByID(ctx, other.ID, b.ID); err != mongo.ErrNoDocuments {
		t.Errorf("cross-tenant err = %v, want ErrNoDocuments", err)
	}
}
