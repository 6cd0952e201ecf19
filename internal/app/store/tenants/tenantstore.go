package tenantstore

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
	// ErrDuplicateSlug is returned when a tenant slug is already taken.
	ErrDuplicateSlug = errors.New("a tenant with this slug already exists")
	errBadPlan       = errors.New(`plan must be "STARTER"|"PRO"|"ENTERPRISE"`)
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("tenants")}
}

// EnsureIndexes creates the tenants collection indexes. The unique slug index
// is the concurrency guard: two simultaneous onboardings with the same slug
// race at the insert, and one of them loses cleanly.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_tenants_slug"),
		},
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}},
			Options: options.Index().SetName("idx_tenants_name_ci"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Create inserts a new tenant. The slug is derived from the name when empty
// and is immutable afterwards.
func (s *Store) Create(ctx context.Context, t models.Tenant) (models.Tenant, error) {
	now := time.Now().UTC()
	t.ID = primitive.NewObjectID()
	t.Name = normalize.Name(t.Name)
	t.NameCI = text.Fold(t.Name)
	if t.Slug == "" {
		t.Slug = normalize.Slug(t.Name)
	} else {
		t.Slug = normalize.Slug(t.Slug)
	}
	t.Email = normalize.Email(t.Email)
	t.Phone = normalize.Phone(t.Phone)
	t.CNPJ = normalize.Digits(t.CNPJ)
	if t.Plan == "" {
		t.Plan = models.PlanStarter
	}
	if !models.IsValidPlan(t.Plan) {
		return models.Tenant{}, errBadPlan
	}
	if t.Status == "" {
		t.Status = status.Active
	}
	t.CreatedAt = now
	t.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, t); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Tenant{}, ErrDuplicateSlug
		}
		return models.Tenant{}, err
	}
	return t, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Tenant, error) {
	var t models.Tenant
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return models.Tenant{}, err
	}
	return t, nil
}

func (s *Store) GetBySlug(ctx context.Context, slug string) (models.Tenant, error) {
	var t models.Tenant
	if err := s.c.FindOne(ctx, bson.M{"slug": normalize.Slug(slug)}).Decode(&t); err != nil {
		return models.Tenant{}, err
	}
	return t, nil
}

// Update modifies a tenant's mutable fields and refreshes UpdatedAt. The
// slug never changes.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, t models.Tenant) error {
	set := bson.M{
		"updated_at": time.Now().UTC(),
	}
	if t.Name != "" {
		set["name"] = normalize.Name(t.Name)
		set["name_ci"] = text.Fold(normalize.Name(t.Name))
	}
	if t.Email != "" {
		set["email"] = normalize.Email(t.Email)
	}
	if t.Phone != "" {
		set["phone"] = normalize.Phone(t.Phone)
	}
	if t.CNPJ != "" {
		set["cnpj"] = normalize.Digits(t.CNPJ)
	}
	if t.Address != "" {
		set["address"] = t.Address
	}
	if t.Plan != "" {
		if !models.IsValidPlan(t.Plan) {
			return errBadPlan
		}
		set["plan"] = t.Plan
	}
	if t.Status != "" {
		set["status"] = t.Status
	}
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	return err
}

// ListActive returns all active tenants. The reminder scheduler walks this
// list each tick; the auto-reminder flag lives in each tenant's settings.
func (s *Store) ListActive(ctx context.Context) ([]models.Tenant, error) {
	cur, err := s.c.Find(ctx, bson.M{"status": status.Active})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Tenant
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
