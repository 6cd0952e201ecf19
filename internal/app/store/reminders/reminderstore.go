package reminderstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/google/uuid"
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
	// ErrDuplicateReminder is returned when the idempotency key already
	// exists; the reminder was scheduled by an earlier attempt.
	ErrDuplicateReminder = errors.New("a reminder with this idempotency key already exists")
	errNoTenant          = errors.New("reminder must have tenant_id")
	errNoBoleto          = errors.New("reminder must have boleto_id")
	errBadType           = errors.New(`type must be "FIRST_REMINDER"|"SECOND_REMINDER"|"OVERDUE_NOTICE"`)
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("reminders")}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "idempotency_key", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_reminders_idem"),
		},
		{
			Keys: bson.D{
				{Key: "tenant_id", Value: 1},
				{Key: "scheduled_at", Value: 1},
			},
			Options: options.Index().SetName("idx_reminders_tenant_sched"),
		},
		{
			Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: "scheduled_at", Value: 1},
			},
			Options: options.Index().SetName("idx_reminders_dispatch"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Key derives the idempotency key for one (boleto, type) pair. Retried
// scheduling produces the same key and loses against the unique index.
func Key(boletoID primitive.ObjectID, reminderType string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(boletoID.Hex()+":"+reminderType)).String()
}

// Create schedules a reminder. Empty IdempotencyKey gets a derived one.
func (s *Store) Create(ctx context.Context, r models.Reminder) (models.Reminder, error) {
	if r.TenantID.IsZero() {
		return models.Reminder{}, errNoTenant
	}
	if r.BoletoID.IsZero() {
		return models.Reminder{}, errNoBoleto
	}
	switch r.Type {
	case models.ReminderFirst, models.ReminderSecond, models.ReminderOverdue:
		// ok
	default:
		return models.Reminder{}, errBadType
	}

	now := time.Now().UTC()
	r.ID = primitive.NewObjectID()
	if r.Status == "" {
		r.Status = models.ReminderPending
	}
	if r.Channel == "" {
		r.Channel = models.ChannelWhatsApp
	}
	if r.IdempotencyKey == "" {
		r.IdempotencyKey = Key(r.BoletoID, r.Type)
	}
	r.CreatedAt = now
	r.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, r); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Reminder{}, ErrDuplicateReminder
		}
		return models.Reminder{}, err
	}
	return r, nil
}

// GetByID loads a reminder scoped to a tenant.
func (s *Store) GetByID(ctx context.Context, tenantID, id primitive.ObjectID) (models.Reminder, error) {
	var r models.Reminder
	err := s.c.FindOne(ctx, bson.M{"_id": id, "tenant_id": tenantID}).Decode(&r)
	if err != nil {
		return models.Reminder{}, err
	}
	return r, nil
}

// ListFilter narrows List results.
type ListFilter struct {
	BoletoID *primitive.ObjectID
	Status   string
	Limit    int64
	Offset   int64
}

// List returns a tenant's reminders sorted by scheduled time ascending.
func (s *Store) List(ctx context.Context, tenantID primitive.ObjectID, f ListFilter) ([]models.Reminder, error) {
	q := bson.M{"tenant_id": tenantID}
	if f.BoletoID != nil {
		q["boleto_id"] = *f.BoletoID
	}
	if f.Status != "" {
		q["status"] = f.Status
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "scheduled_at", Value: 1}}).
		SetLimit(limit).
		SetSkip(f.Offset)

	cur, err := s.c.Find(ctx, q, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Reminder
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Cancel voids a PENDING reminder. Sent or failed reminders are history and
// stay as they are.
func (s *Store) Cancel(ctx context.Context, tenantID, id primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "tenant_id": tenantID, "status": models.ReminderPending},
		bson.M{"$set": bson.M{
			"status":     models.ReminderCancelled,
			"updated_at": time.Now().UTC(),
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return errors.New("reminder not found or not pending")
	}
	return nil
}

// CancelForBoleto voids all PENDING reminders of a boleto. Used when the
// boleto is paid or cancelled.
func (s *Store) CancelForBoleto(ctx context.Context, tenantID, boletoID primitive.ObjectID) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"tenant_id": tenantID, "boleto_id": boletoID, "status": models.ReminderPending},
		bson.M{"$set": bson.M{
			"status":     models.ReminderCancelled,
			"updated_at": time.Now().UTC(),
		}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// CountPendingByTenant returns how many reminders await dispatch, for the
// dashboard.
func (s *Store) CountPendingByTenant(ctx context.Context, tenantID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"tenant_id": tenantID, "status": models.ReminderPending})
}
