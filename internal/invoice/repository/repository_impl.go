package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/smallbiznis/faktur/internal/invoice/domain"
	paymentdomain "github.com/smallbiznis/faktur/internal/payment/domain"
	"github.com/smallbiznis/faktur/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, invoice *domain.Invoice, items []domain.InvoiceItem) error {
	if err := db.WithContext(ctx).Create(invoice).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&items).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, invoice *domain.Invoice, items []domain.InvoiceItem) error {
	if err := db.WithContext(ctx).Save(invoice).Error; err != nil {
		return err
	}
	// The incoming item set replaces the stored one wholesale.
	if err := db.WithContext(ctx).Exec(
		`DELETE FROM invoice_items WHERE invoice_id = ?`,
		invoice.ID,
	).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&items).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*domain.Invoice, error) {
	var invoice domain.Invoice
	err := db.WithContext(ctx).Raw(
		`SELECT id, org_id, name, description, reference, customer, remarks,
			order_reference, total_amount, currency, taxes, paid_at, created_at, updated_at
		 FROM invoices WHERE id = ?`,
		id,
	).Scan(&invoice).Error
	if err != nil {
		return nil, err
	}
	if invoice.ID == uuid.Nil {
		return nil, nil
	}
	if err := r.loadAssociations(ctx, db, &invoice); err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *repo) FindByReference(ctx context.Context, db *gorm.DB, reference string) (*domain.Invoice, error) {
	var invoice domain.Invoice
	err := db.WithContext(ctx).Raw(
		`SELECT id, org_id, name, description, reference, customer, remarks,
			order_reference, total_amount, currency, taxes, paid_at, created_at, updated_at
		 FROM invoices WHERE reference = ?`,
		reference,
	).Scan(&invoice).Error
	if err != nil {
		return nil, err
	}
	if invoice.ID == uuid.Nil {
		return nil, nil
	}
	if err := r.loadAssociations(ctx, db, &invoice); err != nil {
		return nil, err
	}
	return &invoice, nil
}

// loadAssociations fills the item and payment collections and derives the
// paid flag. Raw scans bypass gorm hooks, so the flag is set here too.
func (r *repo) loadAssociations(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	if err := db.WithContext(ctx).
		Model(&domain.InvoiceItem{}).
		Where("invoice_id = ?", invoice.ID).
		Order("position ASC").
		Find(&invoice.Items).Error; err != nil {
		return err
	}
	if err := db.WithContext(ctx).
		Model(&paymentdomain.Payment{}).
		Where("invoice_id = ?", invoice.ID).
		Order("created_at ASC").
		Find(&invoice.Payments).Error; err != nil {
		return err
	}
	invoice.Paid = invoice.PaidAt != nil
	return nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, cursor *pagination.Cursor, limit int) ([]domain.Invoice, error) {
	stmt := db.WithContext(ctx).Model(&domain.Invoice{})
	if cursor != nil && cursor.CreatedAt != "" {
		createdAt, err := time.Parse(time.RFC3339Nano, cursor.CreatedAt)
		if err != nil {
			return nil, err
		}
		stmt = stmt.Where("(created_at, id) < (?, ?)", createdAt, cursor.ID)
	}

	var invoices []domain.Invoice
	err := stmt.Order("created_at DESC, id DESC").Limit(limit).Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id uuid.UUID) error {
	if err := db.WithContext(ctx).Exec(
		`DELETE FROM invoice_items WHERE invoice_id = ?`, id,
	).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).Exec(
		`DELETE FROM invoices WHERE id = ?`, id,
	).Error
}

func (r *repo) MarkPaid(ctx context.Context, db *gorm.DB, id uuid.UUID, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE invoices SET paid_at = ?, updated_at = ? WHERE id = ? AND paid_at IS NULL`,
		now, now, id,
	).Error
}
