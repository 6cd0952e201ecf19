// internal/domain/models/reminder.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Reminder types.
const (
	ReminderFirst   = "FIRST_REMINDER"
	ReminderSecond  = "SECOND_REMINDER"
	ReminderOverdue = "OVERDUE_NOTICE"
)

// Reminder statuses.
const (
	ReminderPending   = "PENDING"
	ReminderSent      = "SENT"
	ReminderFailed    = "FAILED"
	ReminderCancelled = "CANCELLED"
)

// IsValidReminderType checks if a value is a known reminder type.
func IsValidReminderType(t string) bool {
	switch t {
	case ReminderFirst, ReminderSecond, ReminderOverdue:
		return true
	}
	return false
}

// IsValidReminderStatus checks if a value is a known reminder status.
func IsValidReminderStatus(st string) bool {
	switch st {
	case ReminderPending, ReminderSent, ReminderFailed, ReminderCancelled:
		return true
	}
	return false
}

// Delivery channels. Only WhatsApp is supported today.
const (
	ChannelWhatsApp = "WHATSAPP"
)

// Reminder is a scheduled collection message for a boleto. Rows are inserted
// with a future ScheduledAt and picked up by the external dispatch worker;
// this application only creates, lists, and cancels them.
//
// IdempotencyKey makes scheduling safe to retry: the scheduler derives one
// key per (boleto, type) and a unique index rejects duplicates.
type Reminder struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID primitive.ObjectID `bson:"tenant_id" json:"tenant_id"`
	BoletoID primitive.ObjectID `bson:"boleto_id" json:"boleto_id"`

	Type        string     `bson:"type" json:"type"` // FIRST_REMINDER | SECOND_REMINDER | OVERDUE_NOTICE
	ScheduledAt time.Time  `bson:"scheduled_at" json:"scheduled_at"`
	SentAt      *time.Time `bson:"sent_at,omitempty" json:"sent_at,omitempty"`

	Status    string `bson:"status" json:"status"`       // PENDING | SENT | FAILED | CANCELLED
	Message   string `bson:"message" json:"message"`     // rendered from the tenant's template
	Channel   string `bson:"channel" json:"channel"`     // WHATSAPP
	Recipient string `bson:"recipient" json:"recipient"` // client's WhatsApp number

	IdempotencyKey string `bson:"idempotency_key" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
