package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/smallbiznis/faktur/internal/clock"
	"github.com/smallbiznis/faktur/internal/payment/adapters"
	"github.com/smallbiznis/faktur/internal/providerconfig/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Clock    clock.Clock
	Adapters *adapters.Registry
	Repo     domain.Repository
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	clock    clock.Clock
	adapters *adapters.Registry
	repo     domain.Repository
}

func NewService(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("providerconfig.service"),
		clock:    p.Clock,
		adapters: p.Adapters,
		repo:     p.Repo,
	}
}

func (s *Service) List(ctx context.Context) ([]domain.ConfigSummary, error) {
	configs, err := s.repo.ListAll(ctx, s.db)
	if err != nil {
		return nil, err
	}

	summaries := make([]domain.ConfigSummary, 0, len(configs))
	for _, cfg := range configs {
		summaries = append(summaries, summarize(cfg))
	}
	return summaries, nil
}

func (s *Service) Upsert(ctx context.Context, req domain.UpsertRequest) (*domain.ConfigSummary, error) {
	provider := strings.ToLower(strings.TrimSpace(req.Provider))
	if provider == "" || !s.adapters.ProviderExists(provider) {
		return nil, domain.ErrInvalidProvider
	}
	apiKey := strings.TrimSpace(req.APIKey)
	if apiKey == "" {
		return nil, domain.ErrInvalidConfig
	}

	now := s.clock.Now()
	var summary domain.ConfigSummary
	err := s.db.Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByProvider(ctx, tx, provider)
		if err != nil {
			return err
		}

		cfg := existing
		if cfg == nil {
			cfg = &domain.ProviderConfig{
				ID:        uuid.New(),
				Provider:  provider,
				IsActive:  true,
				CreatedAt: now,
			}
		}
		cfg.APIKey = apiKey
		cfg.RedirectURL = strings.TrimSpace(req.RedirectURL)
		cfg.UpdatedAt = now
		cfg.Config = datatypes.JSONMap{}
		for key, value := range req.Config {
			cfg.Config[key] = value
		}

		if err := s.repo.Save(ctx, tx, cfg); err != nil {
			return err
		}
		summary = summarize(*cfg)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("payment provider configured", zap.String("provider", provider))
	return &summary, nil
}

func (s *Service) SetActive(ctx context.Context, provider string, isActive bool) (*domain.ConfigSummary, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		return nil, domain.ErrInvalidProvider
	}

	var summary domain.ConfigSummary
	err := s.db.Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByProvider(ctx, tx, provider)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.ErrNotFound
		}
		if err := s.repo.SetActive(ctx, tx, provider, isActive, s.clock.Now()); err != nil {
			return err
		}
		existing.IsActive = isActive
		summary = summarize(*existing)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

func (s *Service) Resolve(ctx context.Context, provider string) (*domain.ProviderConfig, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		return nil, domain.ErrInvalidProvider
	}

	cfg, err := s.repo.FindByProvider(ctx, s.db, provider)
	if err != nil {
		return nil, err
	}
	if cfg == nil || !cfg.IsActive {
		return nil, domain.ErrNotFound
	}
	return cfg, nil
}

func summarize(cfg domain.ProviderConfig) domain.ConfigSummary {
	return domain.ConfigSummary{
		Provider:    cfg.Provider,
		IsActive:    cfg.IsActive,
		Configured:  strings.TrimSpace(cfg.APIKey) != "",
		RedirectURL: cfg.RedirectURL,
	}
}
