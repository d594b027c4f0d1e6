package domain

import (
	"time"

	"github.com/google/uuid"
)

// Payment records one attempt/settlement against an Invoice via a provider.
// Status mirrors the provider-reported status string verbatim; no
// transition rules are enforced on it.
type Payment struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	InvoiceID         uuid.UUID `gorm:"type:uuid;not null;index" json:"invoice_id"`
	Provider          string    `gorm:"type:text;not null;uniqueIndex:ux_payments_provider_payment,priority:1" json:"provider"`
	ProviderPaymentID string    `gorm:"type:text;not null;uniqueIndex:ux_payments_provider_payment,priority:2" json:"provider_payment_id"`
	Status            string    `gorm:"type:text;not null" json:"status"`
	CreatedAt         time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt         time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Payment) TableName() string { return "payments" }
