// Package domain contains persistence models for invoicing.
package domain

import (
	"time"

	"github.com/google/uuid"
	paymentdomain "github.com/smallbiznis/faktur/internal/payment/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Invoice represents a billable document aggregating line items and payments.
//
// TotalAmount, Currency and Taxes are denormalized from the item set and
// recomputed inside the same transaction as every create or update.
type Invoice struct {
	ID             uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	OrgID          uuid.UUID         `gorm:"type:uuid;not null;index" json:"organization_id"`
	Name           string            `gorm:"type:text;not null" json:"name"`
	Description    string            `gorm:"type:text" json:"description,omitempty"`
	Reference      string            `gorm:"type:text;not null;uniqueIndex:ux_invoices_reference" json:"reference"`
	Customer       string            `gorm:"type:text" json:"customer,omitempty"`
	Remarks        string            `gorm:"type:text" json:"remarks,omitempty"`
	OrderReference string            `gorm:"type:text" json:"order_reference,omitempty"`
	TotalAmount    string            `gorm:"type:text;not null;default:'0.00'" json:"total_amount"`
	Currency       string            `gorm:"type:text;not null" json:"currency"`
	Taxes          datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"taxes"`
	PaidAt         *time.Time        `json:"paid_at,omitempty"`
	CreatedAt      time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	// Paid is derived from PaidAt on every read; it is never stored.
	Paid bool `gorm:"-" json:"paid"`

	Items    []InvoiceItem           `gorm:"foreignKey:InvoiceID" json:"items,omitempty"`
	Payments []paymentdomain.Payment `gorm:"foreignKey:InvoiceID" json:"payments,omitempty"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// AfterFind derives the cached paid flag.
func (i *Invoice) AfterFind(tx *gorm.DB) error {
	i.Paid = i.PaidAt != nil
	return nil
}

// InvoiceItem represents a priced, taxed line within an Invoice.
//
// Price is either a decimal string ("12.34") or a bare integer already
// expressed in minor units ("1234"). Taxes holds the percentages applied
// to this line.
type InvoiceItem struct {
	ID        uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	InvoiceID uuid.UUID                   `gorm:"type:uuid;not null;index" json:"invoice_id"`
	Name      string                      `gorm:"type:text" json:"name,omitempty"`
	Price     string                      `gorm:"type:text;not null" json:"price"`
	Currency  string                      `gorm:"type:text" json:"currency,omitempty"`
	Quantity  int64                       `gorm:"not null;default:1" json:"quantity"`
	Taxes     datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"taxes,omitempty"`
	Position  int                         `gorm:"not null;default:0" json:"position"`
	CreatedAt time.Time                   `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (InvoiceItem) TableName() string { return "invoice_items" }
