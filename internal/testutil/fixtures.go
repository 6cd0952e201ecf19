package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dmoreira/cobrafacil/internal/app/system/normalize"
	"github.com/dmoreira/cobrafacil/internal/domain/models"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateTenant creates a test tenant with the given name.
func (f *Fixtures) CreateTenant(ctx context.Context, name string) models.Tenant {
	f.t.Helper()

	now := time.Now().UTC()
	tenant := models.Tenant{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		Slug:      normalize.Slug(name),
		Plan:      models.PlanStarter,
		Status:    "active",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("tenants").InsertOne(ctx, tenant); err != nil {
		f.t.Fatalf("fixture tenant %q: %v", name, err)
	}
	return tenant
}

// CreateUser creates an active password-capable user. A nil tenantID makes
// a user that still needs onboarding.
func (f *Fixtures) CreateUser(ctx context.Context, name, email string, tenantID *primitive.ObjectID) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	role := models.RoleMember
	if tenantID != nil {
		role = models.RoleAdmin
	}
	u := models.User{
		ID:         primitive.NewObjectID(),
		Name:       name,
		NameCI:     text.Fold(name),
		Email:      normalize.Email(email),
		AuthMethod: models.AuthPassword,
		Role:       role,
		IsActive:   true,
		TenantID:   tenantID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("fixture user %q: %v", email, err)
	}
	return u
}

// CreateClient creates an active client with a WhatsApp number.
func (f *Fixtures) CreateClient(ctx context.Context, tenantID primitive.ObjectID, name, cpfCnpj string) models.Client {
	f.t.Helper()
	return f.CreateClientFull(ctx, models.Client{
		TenantID: tenantID,
		Name:     name,
		CpfCnpj:  cpfCnpj,
		WhatsApp: "11987654321",
	})
}

// CreateClientFull creates a client from the given template, filling ID,
// normalized fields, status, and timestamps.
func (f *Fixtures) CreateClientFull(ctx context.Context, c models.Client) models.Client {
	f.t.Helper()

	now := time.Now().UTC()
	c.ID = primitive.NewObjectID()
	c.NameCI = text.Fold(c.Name)
	c.CpfCnpj = normalize.Digits(c.CpfCnpj)
	if c.Status == "" {
		c.Status = "active"
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	if _, err := f.db.Collection("clients").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("fixture client %q: %v", c.Name, err)
	}
	return c
}

// CreateBoleto creates a PENDING boleto.
func (f *Fixtures) CreateBoleto(ctx context.Context, tenantID, clientID primitive.ObjectID, amountCents int64, dueDate time.Time) models.Boleto {
	f.t.Helper()

	now := time.Now().UTC()
	b := models.Boleto{
		ID:          primitive.NewObjectID(),
		TenantID:    tenantID,
		ClientID:    clientID,
		NossoNumero: primitive.NewObjectID().Hex()[:10],
		AmountCents: amountCents,
		DueDate:     dueDate.UTC(),
		Status:      models.BoletoPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := f.db.Collection("boletos").InsertOne(ctx, b); err != nil {
		f.t.Fatalf("fixture boleto: %v", err)
	}
	return b
}

// CreateReminder creates a PENDING reminder for a boleto.
func (f *Fixtures) CreateReminder(ctx context.Context, tenantID, boletoID primitive.ObjectID, typ string, scheduledAt time.Time) models.Reminder {
	f.t.Helper()

	now := time.Now().UTC()
	r := models.Reminder{
		ID:             primitive.NewObjectID(),
		TenantID:       tenantID,
		BoletoID:       boletoID,
		Type:           typ,
		ScheduledAt:    scheduledAt.UTC(),
		Status:         models.ReminderPending,
		Channel:        models.ChannelWhatsApp,
		Recipient:      "11987654321",
		Message:        "Lembrete de vencimento",
		IdempotencyKey: primitive.NewObjectID().Hex(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := f.db.Collection("reminders").InsertOne(ctx, r); err != nil {
		f.t.Fatalf("fixture reminder: %v", err)
	}
	return r
}
