// internal/domain/models/client.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Client is a tenant-scoped customer that receives boleto reminders.
// CpfCnpj is unique within a tenant (compound index tenant_id + cpf_cnpj).
type Client struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID primitive.ObjectID `bson:"tenant_id" json:"tenant_id"`

	Name    string `bson:"name" json:"name"`
	NameCI  string `bson:"name_ci" json:"name_ci"`
	CpfCnpj string `bson:"cpf_cnpj" json:"cpf_cnpj"` // digits only

	WhatsApp string `bson:"whatsapp,omitempty" json:"whatsapp,omitempty"` // E.164, e.g. +5511987654321
	Email    string `bson:"email,omitempty" json:"email,omitempty"`

	Address string `bson:"address,omitempty" json:"address,omitempty"`
	City    string `bson:"city,omitempty" json:"city,omitempty"`
	State   string `bson:"state,omitempty" json:"state,omitempty"`
	ZipCode string `bson:"zip_code,omitempty" json:"zip_code,omitempty"`

	Status string `bson:"status" json:"status"` // active | disabled

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
