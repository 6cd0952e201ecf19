package userstore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dmoreira/cobrafacil/internal/app/system/auth"
	"github.com/dmoreira/cobrafacil/internal/app/system/timeouts"
	"github.com/dmoreira/cobrafacil/internal/domain/models"
)

// Fetcher rebuilds a session token from the database. Login flows and the
// onboarding handler use it to mint a token that reflects the user's current
// tenant and role rather than stale cookie claims.
type Fetcher struct {
	users *mongo.Collection
}

// NewFetcher creates a Fetcher over the given database.
func NewFetcher(db *mongo.Database) *Fetcher {
	return &Fetcher{users: db.Collection("users")}
}

// FetchToken loads the user and returns a fresh SessionToken, or nil if the
// user does not exist, is disabled, or any error occurs.
func (f *Fetcher) FetchToken(ctx context.Context, userID string) *auth.SessionToken {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	var u models.User
	proj := options.FindOne().SetProjection(bson.M{
		"_id":       1,
		"name":      1,
		"role":      1,
		"is_active": 1,
		"tenant_id": 1,
	})
	if err := f.users.FindOne(ctx, bson.M{"_id": oid}, proj).Decode(&u); err != nil {
		return nil
	}
	if !u.IsActive {
		return nil
	}

	tok := &auth.SessionToken{
		UserID:   u.ID.Hex(),
		Name:     u.Name,
		Role:     u.Role,
		IsActive: true,
	}
	if u.TenantID != nil {
		tok.TenantID = u.TenantID.Hex()
	} else {
		tok.NeedsOnboarding = true
	}
	return tok
}
