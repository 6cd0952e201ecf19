package boletostore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dmoreira/cobrafacil/internal/domain/models"
)

type Store struct {
	c *mongo.Collection
}

var (
	errNoTenant   = errors.New("boleto must have tenant_id")
	errNoClient   = errors.New("boleto must have client_id")
	errBadAmount  = errors.New("boleto amount must be positive")
	errBadStatus  = errors.New(`status must be "PENDING"|"PAID"|"OVERDUE"|"CANCELLED"`)
	// ErrAlreadyPaid is returned when marking a paid boleto paid again.
	ErrAlreadyPaid = errors.New("boleto is already paid")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("boletos")}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "tenant_id", Value: 1},
				{Key: "due_date", Value: 1},
			},
			Options: options.Index().SetName("idx_boletos_tenant_due"),
		},
		{
			Keys: bson.D{
				{Key: "tenant_id", Value: 1},
				{Key: "status", Value: 1},
			},
			Options: options.Index().SetName("idx_boletos_tenant_status"),
		},
		{
			Keys: bson.D{
				{Key: "tenant_id", Value: 1},
				{Key: "client_id", Value: 1},
			},
			Options: options.Index().SetName("idx_boletos_tenant_client"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Create inserts a new boleto in PENDING status.
func (s *Store) Create(ctx context.Context, b models.Boleto) (models.Boleto, error) {
	if b.TenantID.IsZero() {
		return models.Boleto{}, errNoTenant
	}
	if b.ClientID.IsZero() {
		return models.Boleto{}, errNoClient
	}
	if b.AmountCents <= 0 {
		return models.Boleto{}, errBadAmount
	}

	now := time.Now().UTC()
	b.ID = primitive.NewObjectID()
	if b.Status == "" {
		b.Status = models.BoletoPending
	}
	if !models.IsValidBoletoStatus(b.Status) {
		return models.Boleto{}, errBadStatus
	}
	b.IsPaid = b.Status == models.BoletoPaid
	b.CreatedAt = now
	b.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, b); err != nil {
		return models.Boleto{}, err
	}
	return b, nil
}

// GetByID loads a boleto scoped to a tenant.
func (s *Store) GetByID(ctx context.Context, tenantID, id primitive.ObjectID) (models.Boleto, error) {
	var b models.Boleto
	err := s.c.FindOne(ctx, bson.M{"_id": id, "tenant_id": tenantID}).Decode(&b)
	if err != nil {
		return models.Boleto{}, err
	}
	return b, nil
}

// ListFilter narrows List results.
type ListFilter struct {
	ClientID  *primitive.ObjectID
	Status    string
	DueAfter  *time.Time
	DueBefore *time.Time
	Limit     int64
	Offset    int64
}

// List returns a tenant's boletos sorted by due date ascending.
func (s *Store) List(ctx context.Context, tenantID primitive.ObjectID, f ListFilter) ([]models.Boleto, error) {
	q := bson.M{"tenant_id": tenantID}
	if f.ClientID != nil {
		q["client_id"] = *f.ClientID
	}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if f.DueAfter != nil || f.DueBefore != nil {
		due := bson.M{}
		if f.DueAfter != nil {
			due["$gte"] = *f.DueAfter
		}
		if f.DueBefore != nil {
			due["$lte"] = *f.DueBefore
		}
		q["due_date"] = due
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "due_date", Value: 1}}).
		SetLimit(limit).
		SetSkip(f.Offset)

	cur, err := s.c.Find(ctx, q, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Boleto
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkPaid settles a boleto. paidAmountCents of zero records the full amount.
// Paid and cancelled boletos cannot be paid (again).
func (s *Store) MarkPaid(ctx context.Context, tenantID, id primitive.ObjectID, paidAmountCents int64, paidAt time.Time) error {
	b, err := s.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if b.IsPaid {
		return ErrAlreadyPaid
	}
	if b.Status == models.BoletoCancelled {
		return errors.New("cancelled boleto cannot be paid")
	}
	if paidAmountCents <= 0 {
		paidAmountCents = b.AmountCents
	}

	_, err = s.c.UpdateOne(ctx,
		bson.M{"_id": id, "tenant_id": tenantID, "is_paid": false},
		bson.M{"$set": bson.M{
			"status":            models.BoletoPaid,
			"is_paid":           true,
			"paid_at":           paidAt.UTC(),
			"paid_amount_cents": paidAmountCents,
			"updated_at":        time.Now().UTC(),
		}})
	return err
}

// Cancel voids an unpaid boleto. Its pending reminders are cancelled by the
// caller.
func (s *Store) Cancel(ctx context.Context, tenantID, id primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "tenant_id": tenantID, "is_paid": false},
		bson.M{"$set": bson.M{
			"status":     models.BoletoCancelled,
			"updated_at": time.Now().UTC(),
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return errors.New("boleto not found or already paid")
	}
	return nil
}

// ListDueWithin returns unpaid PENDING boletos due between now and
// now+days, for the reminder scheduler.
func (s *Store) ListDueWithin(ctx context.Context, tenantID primitive.ObjectID, now time.Time, days int) ([]models.Boleto, error) {
	until := now.AddDate(0, 0, days)
	return s.List(ctx, tenantID, ListFilter{
		Status:    models.BoletoPending,
		DueAfter:  &now,
		DueBefore: &until,
		Limit:     1000,
	})
}

// MarkOverdue flips past-due PENDING boletos to OVERDUE and returns how many
// changed. Run by the scheduler each tick.
func (s *Store) MarkOverdue(ctx context.Context, tenantID primitive.ObjectID, now time.Time) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{
			"tenant_id": tenantID,
			"status":    models.BoletoPending,
			"is_paid":   false,
			"due_date":  bson.M{"$lt": now.UTC()},
		},
		bson.M{"$set": bson.M{
			"status":     models.BoletoOverdue,
			"updated_at": time.Now().UTC(),
		}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// Counts aggregates per-status totals for the dashboard.
type Counts struct {
	Total   int64
	Pending int64
	Paid    int64
	Overdue int64
}

// CountByTenant returns boleto counts per status.
func (s *Store) CountByTenant(ctx context.Context, tenantID primitive.ObjectID) (Counts, error) {
	var out Counts
	var err error
	if out.Total, err = s.c.CountDocuments(ctx, bson.M{"tenant_id": tenantID}); err != nil {
		return Counts{}, err
	}
	if out.Pending, err = s.c.CountDocuments(ctx, bson.M{"tenant_id": tenantID, "status": models.BoletoPending}); err != nil {
		return Counts{}, err
	}
	if out.Paid, err = s.c.CountDocuments(ctx, bson.M{"tenant_id": tenantID, "status": models.BoletoPaid}); err != nil {
		return Counts{}, err
	}
	if out.Overdue, err = s.c.CountDocuments(ctx, bson.M{"tenant_id": tenantID, "status": models.BoletoOverdue}); err != nil {
		return Counts{}, err
	}
	return out, nil
}
