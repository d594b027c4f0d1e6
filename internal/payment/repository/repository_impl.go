package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/smallbiznis/faktur/internal/payment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByProviderPaymentID(ctx context.Context, db *gorm.DB, provider, providerPaymentID string) (*domain.Payment, error) {
	var payment domain.Payment
	err := db.WithContext(ctx).Raw(
		`SELECT id, invoice_id, provider, provider_payment_id, status, created_at, updated_at
		 FROM payments
		 WHERE provider = ? AND provider_payment_id = ?
		 LIMIT 1`,
		provider,
		providerPaymentID,
	).Scan(&payment).Error
	if err != nil {
		return nil, err
	}
	if payment.ID == uuid.Nil {
		return nil, nil
	}
	return &payment, nil
}

func (r *repo) FindByInvoiceID(ctx context.Context, db *gorm.DB, invoiceID uuid.UUID) ([]domain.Payment, error) {
	var payments []domain.Payment
	err := db.WithContext(ctx).
		Model(&domain.Payment{}).
		Where("invoice_id = ?", invoiceID).
		Order("created_at ASC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return db.WithContext(ctx).Create(payment).Error
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id uuid.UUID, status string, updatedAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE payments SET status = ?, updated_at = ? WHERE id = ?`,
		status,
		updatedAt,
		id,
	).Error
}
