// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles. Roles are stored lowercase; normalize before comparing.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Authentication methods.
const (
	AuthPassword = "password"
	AuthGoogle   = "google"
)

// User is an authenticatable principal.
//
// A user with a nil TenantID is mid-onboarding: the request gate routes them
// to the onboarding flow until a tenant is assigned. Accounts are deactivated
// (IsActive=false) to revoke access, never deleted.
type User struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name    string             `bson:"name" json:"name"`
	NameCI  string             `bson:"name_ci" json:"name_ci"` // lowercase, diacritics-stripped
	Email   string             `bson:"email" json:"email"`     // globally unique, stored lowercase
	Picture string             `bson:"picture,omitempty" json:"picture,omitempty"`

	// PasswordHash is nil for OAuth-only accounts.
	PasswordHash *string `bson:"password_hash,omitempty" json:"-"`

	AuthMethod string `bson:"auth_method" json:"auth_method"` // password | google
	// AuthReturnID is the identity provider's stable subject (Google user ID).
	AuthReturnID *string `bson:"auth_return_id,omitempty" json:"-"`

	Role     string              `bson:"role" json:"role"` // admin | member
	IsActive bool                `bson:"is_active" json:"is_active"`
	TenantID *primitive.ObjectID `bson:"tenant_id,omitempty" json:"tenant_id,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// HasPassword reports whether the user can log in with credentials.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// NeedsOnboarding reports whether the user still has to be assigned a tenant.
func (u *User) NeedsOnboarding() bool {
	return u.TenantID == nil
}
