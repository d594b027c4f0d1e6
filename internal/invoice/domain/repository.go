package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/smallbiznis/faktur/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, invoice *Invoice, items []InvoiceItem) error
	Update(ctx context.Context, db *gorm.DB, invoice *Invoice, items []InvoiceItem) error
	FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*Invoice, error)
	FindByReference(ctx context.Context, db *gorm.DB, reference string) (*Invoice, error)
	List(ctx context.Context, db *gorm.DB, cursor *pagination.Cursor, limit int) ([]Invoice, error)
	Delete(ctx context.Context, db *gorm.DB, id uuid.UUID) error
	MarkPaid(ctx context.Context, db *gorm.DB, id uuid.UUID, now time.Time) error
}
