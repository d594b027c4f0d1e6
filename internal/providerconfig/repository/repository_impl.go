package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/smallbiznis/faktur/internal/providerconfig/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) ListAll(ctx context.Context, db *gorm.DB) ([]domain.ProviderConfig, error) {
	var configs []domain.ProviderConfig
	err := db.WithContext(ctx).
		Model(&domain.ProviderConfig{}).
		Order("provider ASC").
		Find(&configs).Error
	if err != nil {
		return nil, err
	}
	return configs, nil
}

func (r *repo) FindByProvider(ctx context.Context, db *gorm.DB, provider string) (*domain.ProviderConfig, error) {
	var cfg domain.ProviderConfig
	err := db.WithContext(ctx).Raw(
		`SELECT id, provider, api_key, config, redirect_url, is_active, created_at, updated_at
		 FROM payment_provider_configs
		 WHERE provider = ?
		 LIMIT 1`,
		provider,
	).Scan(&cfg).Error
	if err != nil {
		return nil, err
	}
	if cfg.ID == uuid.Nil {
		return nil, nil
	}
	return &cfg, nil
}

func (r *repo) Save(ctx context.Context, db *gorm.DB, cfg *domain.ProviderConfig) error {
	return db.WithContext(ctx).Save(cfg).Error
}

func (r *repo) SetActive(ctx context.Context, db *gorm.DB, provider string, isActive bool, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE payment_provider_configs SET is_active = ?, updated_at = ? WHERE provider = ?`,
		isActive,
		now,
		provider,
	).Error
}
