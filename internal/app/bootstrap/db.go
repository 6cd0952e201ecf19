// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	auditstore "github.com/dmoreira/cobrafacil/internal/app/store/audit"
	boletostore "github.com/dmoreira/cobrafacil/internal/app/store/boletos"
	clientstore "github.com/dmoreira/cobrafacil/internal/app/store/clients"
	oauthstatestore "github.com/dmoreira/cobrafacil/internal/app/store/oauthstate"
	reminderstore "github.com/dmoreira/cobrafacil/internal/app/store/reminders"
	settingsstore "github.com/dmoreira/cobrafacil/internal/app/store/settings"
	tenantstore "github.com/dmoreira/cobrafacil/internal/app/store/tenants"
	userstore "github.com/dmoreira/cobrafacil/internal/app/store/users"
)

// ConnectDB establishes the MongoDB connection and verifies it with a ping.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}

	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))
	return DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
	}, nil
}

// EnsureSchema creates the indexes every store relies on. Uniqueness
// constraints (user email, tenant slug, client document, reminder
// idempotency key) are the app's concurrency guard, so startup fails if any
// of them cannot be built.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase

	type indexer interface {
		EnsureIndexes(ctx context.Context) error
	}
	stores := []struct {
		name string
		s    indexer
	}{
		{"users", userstore.New(db)},
		{"tenants", tenantstore.New(db)},
		{"clients", clientstore.New(db)},
		{"boletos", boletostore.New(db)},
		{"reminders", reminderstore.New(db)},
		{"settings", settingsstore.New(db)},
		{"oauthstate", oauthstatestore.New(db)},
		{"audit", auditstore.New(db)},
	}
	for _, st := range stores {
		if err := st.s.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("ensure %s indexes: %w", st.name, err)
		}
	}

	logger.Info("database indexes ensured")
	return nil
}
