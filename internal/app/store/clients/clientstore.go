package clientstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dmoreira/cobrafacil/internal/app/system/normalize"
	"github.com/dmoreira/cobrafacil/internal/app/system/status"
	"github.com/dmoreira/cobrafacil/internal/domain/models"
)

type Store struct {
	c *mongo.Collection
}

var (
	// ErrDuplicateClient is returned when a CPF/CNPJ is already registered
	// for the tenant.
	ErrDuplicateClient = errors.New("a client with this CPF/CNPJ already exists for this tenant")
	errNoTenant        = errors.New("client must have tenant_id")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("clients")}
}

// EnsureIndexes creates the clients collection indexes. CPF/CNPJ uniqueness
// is per tenant, not global: two tenants may bill the same person.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "tenant_id", Value: 1},
				{Key: "cpf_cnpj", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("idx_clients_tenant_doc"),
		},
		{
			Keys: bson.D{
				{Key: "tenant_id", Value: 1},
				{Key: "name_ci", Value: 1},
			},
			Options: options.Index().SetName("idx_clients_tenant_name"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Create inserts a new client after normalizing fields.
func (s *Store) Create(ctx context.Context, c models.Client) (models.Client, error) {
	if c.TenantID.IsZero() {
		return models.Client{}, errNoTenant
	}
	now := time.Now().UTC()
	c.ID = primitive.NewObjectID()
	c.Name = normalize.Name(c.Name)
	c.NameCI = text.Fold(c.Name)
	c.CpfCnpj = normalize.Digits(c.CpfCnpj)
	c.WhatsApp = normalize.Phone(c.WhatsApp)
	c.Email = normalize.Email(c.Email)
	if c.Status == "" {
		c.Status = status.Active
	}
	c.CreatedAt = now
	c.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, c); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Client{}, ErrDuplicateClient
		}
		return models.Client{}, err
	}
	return c, nil
}

// GetByID loads a client scoped to a tenant. A valid ID belonging to another
// tenant behaves exactly like a missing document.
func (s *Store) GetByID(ctx context.Context, tenantID, id primitive.ObjectID) (models.Client, error) {
	var c models.Client
	err := s.c.FindOne(ctx, bson.M{"_id": id, "tenant_id": tenantID}).Decode(&c)
	if err != nil {
		return models.Client{}, err
	}
	return c, nil
}

// ListFilter narrows List results.
type ListFilter struct {
	Status string
	Search string // folded name prefix
	Limit  int64
	Offset int64
}

// List returns a tenant's clients sorted by folded name.
func (s *Store) List(ctx context.Context, tenantID primitive.ObjectID, f ListFilter) ([]models.Client, error) {
	q := bson.M{"tenant_id": tenantID}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if f.Search != "" {
		q["name_ci"] = bson.M{"$regex": "^" + text.Fold(f.Search)}
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "name_ci", Value: 1}}).
		SetLimit(limit).
		SetSkip(f.Offset)

	cur, err := s.c.Find(ctx, q, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Client
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update modifies a client's mutable fields. The CPF/CNPJ is immutable after
// creation.
func (s *Store) Update(ctx context.Context, tenantID, id primitive.ObjectID, c models.Client) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if c.Name != "" {
		set["name"] = normalize.Name(c.Name)
		set["name_ci"] = text.Fold(normalize.Name(c.Name))
	}
	if c.WhatsApp != "" {
		set["whatsapp"] = normalize.Phone(c.WhatsApp)
	}
	if c.Email != "" {
		set["email"] = normalize.Email(c.Email)
	}
	if c.Address != "" {
		set["address"] = c.Address
	}
	if c.City != "" {
		set["city"] = c.City
	}
	if c.State != "" {
		set["state"] = c.State
	}
	if c.ZipCode != "" {
		set["zip_code"] = normalize.Digits(c.ZipCode)
	}
	if c.Status != "" {
		set["status"] = c.Status
	}
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id, "tenant_id": tenantID}, bson.M{"$set": set})
	return err
}

// SetStatus activates or disables a client. Disabled clients keep their
// boleto history but receive no new reminders.
func (s *Store) SetStatus(ctx context.Context, tenantID, id primitive.ObjectID, st string) error {
	if !status.IsValid(st) {
		return errors.New("invalid status")
	}
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "tenant_id": tenantID},
		bson.M{"$set": bson.M{"status": st, "updated_at": time.Now().UTC()}})
	return err
}

// CountByTenant returns the number of clients for the dashboard.
func (s *Store) CountByTenant(ctx context.Context, tenantID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"tenant_id": tenantID})
}
