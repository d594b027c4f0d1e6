package domain

import (
	"context"
	"errors"
)

type Service interface {
	List(ctx context.Context) ([]ConfigSummary, error)
	Upsert(ctx context.Context, req UpsertRequest) (*ConfigSummary, error)
	SetActive(ctx context.Context, provider string, isActive bool) (*ConfigSummary, error)

	// Resolve returns the active configuration for a provider, for
	// building a gateway adapter. Secrets stay inside the service layer.
	Resolve(ctx context.Context, provider string) (*ProviderConfig, error)
}

// ConfigSummary is the redacted view exposed over the API.
type ConfigSummary struct {
	Provider    string `json:"provider"`
	IsActive    bool   `json:"is_active"`
	Configured  bool   `json:"configured"`
	RedirectURL string `json:"redirect_url,omitempty"`
}

type UpsertRequest struct {
	Provider    string         `json:"provider"`
	APIKey      string         `json:"api_key"`
	RedirectURL string         `json:"redirect_url"`
	Config      map[string]any `json:"config"`
}

var (
	ErrInvalidProvider = errors.New("invalid_provider")
	ErrInvalidConfig   = errors.New("invalid_config")
	ErrNotFound        = errors.New("provider_config_not_found")
)
