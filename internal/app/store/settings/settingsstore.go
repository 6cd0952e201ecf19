// internal/app/store/settings/settingsstore.go
package settingsstore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dmoreira/cobrafacil/internal/domain/models"
)

// Store provides access to the tenant_settings collection.
// Each tenant has its own settings document (one document per tenant_id).
type Store struct {
	c *mongo.Collection
}

// New creates a new settings store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("tenant_settings")}
}

// EnsureIndexes enforces the one-document-per-tenant shape.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "tenant_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("idx_settings_tenant"),
	})
	return err
}

// Get returns the reminder settings for a tenant. If none were saved yet,
// it returns the defaults without writing anything.
func (s *Store) Get(ctx context.Context, tenantID primitive.ObjectID) (models.TenantSettings, error) {
	var settings models.TenantSettings
	err := s.c.FindOne(ctx, bson.M{"tenant_id": tenantID}).Decode(&settings)
	if err == mongo.ErrNoDocuments {
		return models.DefaultTenantSettings(tenantID), nil
	}
	if err != nil {
		return models.TenantSettings{}, err
	}
	return settings, nil
}

// Save updates a tenant's settings. Uses upsert so it works whether settings
// exist or not. Callers sanitize the template before handing it over.
func (s *Store) Save(ctx context.Context, tenantID primitive.ObjectID, settings models.TenantSettings) error {
	now := time.Now().UTC()
	settings.UpdatedAt = &now
	settings.TenantID = tenantID

	if settings.ReminderDaysBefore <= 0 {
		settings.ReminderDaysBefore = 3
	}
	if settings.SecondReminderDays <= 0 {
		settings.SecondReminderDays = 1
	}
	if settings.ReminderTemplate == "" {
		settings.ReminderTemplate = models.DefaultReminderTemplate
	}

	filter := bson.M{"tenant_id": tenantID}
	update := bson.M{
		"$set": bson.M{
			"tenant_id":             tenantID,
			"reminder_days_before":  settings.ReminderDaysBefore,
			"reminder_template":     settings.ReminderTemplate,
			"send_second_reminder":  settings.SendSecondReminder,
			"second_reminder_days":  settings.SecondReminderDays,
			"enable_auto_reminders": settings.EnableAutoReminders,
			"updated_at":            settings.UpdatedAt,
			"updated_by_id":         settings.UpdatedByID,
		},
		"$setOnInsert": bson.M{
			"_id": primitive.NewObjectID(),
		},
	}

	opts := options.Update().SetUpsert(true)
	_, err := s.c.UpdateOne(ctx, filter, update, opts)
	return err
}

// Exists checks if settings have been saved for a tenant.
func (s *Store) Exists(ctx context.Context, tenantID primitive.ObjectID) (bool, error) {
	count, err := s.c.CountDocuments(ctx, bson.M{"tenant_id": tenantID})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Delete removes a tenant's settings. Used when deleting a tenant.
func (s *Store) Delete(ctx context.Context, tenantID primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"tenant_id": tenantID})
	return err
}
