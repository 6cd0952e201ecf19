// internal/domain/models/tenantsettings.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultSiteName is the product name used when no tenant branding exists.
const DefaultSiteName = "CobraFácil"

// DefaultReminderTemplate is the WhatsApp message template used until a
// tenant customizes it. Placeholders: {clientName}, {daysLeft}, {dueDate},
// {amount}.
const DefaultReminderTemplate = `🔔 *Lembrete de Vencimento*

Olá {clientName}!

Seu boleto vence em {daysLeft} dia(s):
📅 Vencimento: {dueDate}
💰 Valor: R$ {amount}

*Evite multas e juros!*
Precisa da 2ª via? Responda "SIM"`

// TenantSettings holds per-tenant reminder configuration.
// One document per tenant_id.
type TenantSettings struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	TenantID primitive.ObjectID `bson:"tenant_id" json:"tenant_id"`

	// How many days before the due date the first reminder is scheduled.
	ReminderDaysBefore int `bson:"reminder_days_before" json:"reminder_days_before"`

	// ReminderTemplate is sanitized before storage; see settings feature.
	ReminderTemplate string `bson:"reminder_template" json:"reminder_template"`

	SendSecondReminder bool `bson:"send_second_reminder" json:"send_second_reminder"`
	SecondReminderDays int  `bson:"second_reminder_days" json:"second_reminder_days"`

	// EnableAutoReminders turns the scheduler on for this tenant.
	EnableAutoReminders bool `bson:"enable_auto_reminders" json:"enable_auto_reminders"`

	UpdatedAt   *time.Time          `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
	UpdatedByID *primitive.ObjectID `bson:"updated_by_id,omitempty" json:"updated_by_id,omitempty"`
}

// DefaultTenantSettings returns the settings a new tenant starts with.
func DefaultTenantSettings(tenantID primitive.ObjectID) TenantSettings {
	return TenantSettings{
		TenantID:            tenantID,
		ReminderDaysBefore:  3,
		ReminderTemplate:    DefaultReminderTemplate,
		SendSecondReminder:  true,
		SecondReminderDays:  1,
		EnableAutoReminders: true,
	}
}
