// internal/domain/models/tenant.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Subscription plans.
const (
	PlanStarter    = "STARTER"
	PlanPro        = "PRO"
	PlanEnterprise = "ENTERPRISE"
)

// IsValidPlan checks if a value is a known subscription plan.
func IsValidPlan(plan string) bool {
	switch plan {
	case PlanStarter, PlanPro, PlanEnterprise:
		return true
	}
	return false
}

// Tenant is the billing/isolation boundary. Every User, Client, Boleto and
// Reminder belongs to exactly one tenant (users may be transiently
// tenant-less while mid-onboarding).
//
// The slug is unique across all tenants and immutable after creation.
type Tenant struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name   string             `bson:"name" json:"name"`
	NameCI string             `bson:"name_ci" json:"name_ci"` // lowercase, diacritics-stripped
	Slug   string             `bson:"slug" json:"slug"`

	// Contact info
	Email   string `bson:"email,omitempty" json:"email,omitempty"`
	Phone   string `bson:"phone,omitempty" json:"phone,omitempty"`
	CNPJ    string `bson:"cnpj,omitempty" json:"cnpj,omitempty"`
	Address string `bson:"address,omitempty" json:"address,omitempty"`

	Plan   string `bson:"plan" json:"plan"`     // STARTER | PRO | ENTERPRISE
	Status string `bson:"status" json:"status"` // active | disabled

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
