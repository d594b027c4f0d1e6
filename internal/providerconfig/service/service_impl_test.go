package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/faktur/internal/clock"
	"github.com/smallbiznis/faktur/internal/payment/adapters"
	"github.com/smallbiznis/faktur/internal/payment/adapters/mollie"
	"github.com/smallbiznis/faktur/internal/payment/adapters/sumup"
	"github.com/smallbiznis/faktur/internal/providerconfig/domain"
	"github.com/smallbiznis/faktur/internal/providerconfig/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) domain.Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.ProviderConfig{}))

	return NewService(Params{
		DB:       db,
		Log:      zap.NewNop(),
		Clock:    clock.SystemClock{},
		Adapters: adapters.NewRegistry(mollie.NewFactory(), sumup.NewFactory()),
		Repo:     repository.Provide(),
	})
}

func TestUpsertCreatesConfig(t *testing.T) {
	svc := newTestService(t)

	summary, err := svc.Upsert(context.Background(), domain.UpsertRequest{
		Provider:    "mollie",
		APIKey:      "key_live_123",
		RedirectURL: "https://shop.example/return",
	})
	require.NoError(t, err)
	assert.Equal(t, "mollie", summary.Provider)
	assert.True(t, summary.IsActive)
	assert.True(t, summary.Configured)
	assert.Equal(t, "https://shop.example/return", summary.RedirectURL)

	cfg, err := svc.Resolve(context.Background(), "mollie")
	require.NoError(t, err)
	assert.Equal(t, "key_live_123", cfg.APIKey)
}

func TestUpsertUnknownProvider(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Upsert(context.Background(), domain.UpsertRequest{
		Provider: "stripe",
		APIKey:   "key_live_123",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidProvider)
}

func TestUpsertBlankAPIKey(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Upsert(context.Background(), domain.UpsertRequest{
		Provider: "mollie",
		APIKey:   "   ",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestUpsertUpdatesExistingRow(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Upsert(context.Background(), domain.UpsertRequest{
		Provider: "sumup",
		APIKey:   "key_old",
	})
	require.NoError(t, err)

	_, err = svc.Upsert(context.Background(), domain.UpsertRequest{
		Provider:    "sumup",
		APIKey:      "key_new",
		RedirectURL: "https://shop.example/back",
		Config:      map[string]any{"merchant_code": "M123"},
	})
	require.NoError(t, err)

	summaries, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 1)

	cfg, err := svc.Resolve(context.Background(), "sumup")
	require.NoError(t, err)
	assert.Equal(t, "key_new", cfg.APIKey)
	assert.Equal(t, "https://shop.example/back", cfg.RedirectURL)
	assert.Equal(t, "M123", cfg.Config["merchant_code"])
}

func TestSetActiveUnknownProvider(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.SetActive(context.Background(), "mollie", false)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResolveSkipsInactiveConfig(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Upsert(context.Background(), domain.UpsertRequest{
		Provider: "mollie",
		APIKey:   "key_live_123",
	})
	require.NoError(t, err)

	summary, err := svc.SetActive(context.Background(), "mollie", false)
	require.NoError(t, err)
	assert.False(t, summary.IsActive)

	_, err = svc.Resolve(context.Background(), "mollie")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	summary, err = svc.SetActive(context.Background(), "mollie", true)
	require.NoError(t, err)
	assert.True(t, summary.IsActive)

	cfg, err := svc.Resolve(context.Background(), "mollie")
	require.NoError(t, err)
	assert.True(t, cfg.IsActive)
}

func TestListNeverExposesSecrets(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Upsert(context.Background(), domain.UpsertRequest{
		Provider: "mollie",
		APIKey:   "key_secret_123",
	})
	require.NoError(t, err)

	summaries, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 1)

	raw, err := json.Marshal(summaries)
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(raw), "key_secret_123"))
	assert.False(t, strings.Contains(string(raw), "api_key"))
}
