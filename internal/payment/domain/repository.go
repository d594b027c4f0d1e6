package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	FindByProviderPaymentID(ctx context.Context, db *gorm.DB, provider, providerPaymentID string) (*Payment, error)
	FindByInvoiceID(ctx context.Context, db *gorm.DB, invoiceID uuid.UUID) ([]Payment, error)
	Insert(ctx context.Context, db *gorm.DB, payment *Payment) error
	UpdateStatus(ctx context.Context, db *gorm.DB, id uuid.UUID, status string, updatedAt time.Time) error
}
