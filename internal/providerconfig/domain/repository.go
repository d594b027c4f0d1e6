package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	ListAll(ctx context.Context, db *gorm.DB) ([]ProviderConfig, error)
	FindByProvider(ctx context.Context, db *gorm.DB, provider string) (*ProviderConfig, error)
	Save(ctx context.Context, db *gorm.DB, cfg *ProviderConfig) error
	SetActive(ctx context.Context, db *gorm.DB, provider string, isActive bool, now time.Time) error
}
