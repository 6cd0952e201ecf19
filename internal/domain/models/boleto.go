// internal/domain/models/boleto.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Boleto statuses.
const (
	BoletoPending   = "PENDING"
	BoletoPaid      = "PAID"
	BoletoOverdue   = "OVERDUE"
	BoletoCancelled = "CANCELLED"
)

// IsValidBoletoStatus checks if a value is a known boleto status.
func IsValidBoletoStatus(status string) bool {
	switch status {
	case BoletoPending, BoletoPaid, BoletoOverdue, BoletoCancelled:
		return true
	}
	return false
}

// Boleto is a tenant-scoped payment slip issued to a client.
// AmountCents stores the value in centavos to avoid float rounding.
type Boleto struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID primitive.ObjectID `bson:"tenant_id" json:"tenant_id"`
	ClientID primitive.ObjectID `bson:"client_id" json:"client_id"`

	// NossoNumero identifies the boleto at the issuing bank.
	NossoNumero string `bson:"nosso_numero" json:"nosso_numero"`

	AmountCents int64     `bson:"amount_cents" json:"amount_cents"`
	DueDate     time.Time `bson:"due_date" json:"due_date"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`

	Status string `bson:"status" json:"status"` // PENDING | PAID | OVERDUE | CANCELLED

	IsPaid          bool       `bson:"is_paid" json:"is_paid"`
	PaidAt          *time.Time `bson:"paid_at,omitempty" json:"paid_at,omitempty"`
	PaidAmountCents int64      `bson:"paid_amount_cents,omitempty" json:"paid_amount_cents,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
