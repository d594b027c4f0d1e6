package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/smallbiznis/faktur/internal/clock"
	"github.com/smallbiznis/faktur/internal/config"
	"github.com/smallbiznis/faktur/internal/invoice/calc"
	invoicedomain "github.com/smallbiznis/faktur/internal/invoice/domain"
	"github.com/smallbiznis/faktur/internal/payment/adapters"
	paymentdomain "github.com/smallbiznis/faktur/internal/payment/domain"
	providerconfigdomain "github.com/smallbiznis/faktur/internal/providerconfig/domain"
	"github.com/smallbiznis/faktur/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB             *gorm.DB
	Log            *zap.Logger
	Cfg            config.Config
	Clock          clock.Clock
	Adapters       *adapters.Registry
	Repo           paymentdomain.Repository
	InvoiceRepo    invoicedomain.Repository
	ProviderCfgSvc providerconfigdomain.Service
}

type Service struct {
	db             *gorm.DB
	log            *zap.Logger
	adapters       *adapters.Registry
	repo           paymentdomain.Repository
	invoiceRepo    invoicedomain.Repository
	providerCfgSvc providerconfigdomain.Service
	clock          clock.Clock

	returnURL       string
	providerTimeout time.Duration
}

func NewService(p Params) paymentdomain.Service {
	return &Service{
		db:              p.DB,
		log:             p.Log.Named("payment.service"),
		adapters:        p.Adapters,
		repo:            p.Repo,
		invoiceRepo:     p.InvoiceRepo,
		providerCfgSvc:  p.ProviderCfgSvc,
		clock:           p.Clock,
		returnURL:       p.Cfg.PaymentReturnURL,
		providerTimeout: p.Cfg.ProviderTimeout,
	}
}

func (s *Service) CreateCheckout(ctx context.Context, invoiceID, provider, baseURL string) (*paymentdomain.CheckoutResult, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" || !s.adapters.ProviderExists(provider) {
		return nil, paymentdomain.ErrProviderNotFound
	}

	id, err := uuid.Parse(strings.TrimSpace(invoiceID))
	if err != nil {
		return nil, invoicedomain.ErrNotFound
	}
	invoice, err := s.invoiceRepo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, invoicedomain.ErrNotFound
	}

	providerCfg, err := s.providerCfgSvc.Resolve(ctx, provider)
	if err != nil {
		return nil, err
	}

	redirectURL := s.redirectFor(providerCfg, baseURL, invoice.ID)

	totalMinor, err := calc.ParseMinorUnits(invoice.TotalAmount)
	if err != nil {
		return nil, err
	}
	// Free orders skip the provider entirely and go straight back to the
	// redirect target.
	if totalMinor == 0 {
		return &paymentdomain.CheckoutResult{CheckoutURL: redirectURL, Free: true}, nil
	}

	adapter, err := s.adapters.NewAdapter(provider, s.adapterConfig(providerCfg))
	if err != nil {
		return nil, err
	}

	checkout, err := adapter.CreateCheckout(ctx, paymentdomain.CheckoutRequest{
		InvoiceID:   invoice.ID.String(),
		Reference:   invoice.Reference,
		Description: invoice.Name,
		Amount:      invoice.TotalAmount,
		Currency:    invoice.Currency,
		RedirectURL: redirectURL,
		WebhookURL:  webhookFor(baseURL, provider),
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("checkout created",
		zap.String("provider", provider),
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("provider_payment_id", checkout.ProviderPaymentID),
	)
	return &paymentdomain.CheckoutResult{
		CheckoutURL:       checkout.CheckoutURL,
		ProviderPaymentID: checkout.ProviderPaymentID,
	}, nil
}

func (s *Service) FetchStatus(ctx context.Context, provider, providerPaymentID string) (*paymentdomain.ProviderStatus, error) {
	adapter, err := s.adapterFor(ctx, provider)
	if err != nil {
		return nil, err
	}
	return adapter.FetchStatus(ctx, providerPaymentID)
}

func (s *Service) SyncPayment(ctx context.Context, provider, providerPaymentID string) (*paymentdomain.Payment, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	providerPaymentID = strings.TrimSpace(providerPaymentID)
	if providerPaymentID == "" {
		return nil, paymentdomain.ErrInvalidPayment
	}

	adapter, err := s.adapterFor(ctx, provider)
	if err != nil {
		return nil, err
	}
	status, err := adapter.FetchStatus(ctx, providerPaymentID)
	if err != nil {
		return nil, err
	}

	var payment *paymentdomain.Payment
	err = s.db.Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByProviderPaymentID(ctx, tx, provider, providerPaymentID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		if existing != nil {
			if err := s.repo.UpdateStatus(ctx, tx, existing.ID, status.Status, now); err != nil {
				return err
			}
			existing.Status = status.Status
			existing.UpdatedAt = now
			payment = existing
		} else {
			invoice, err := s.resolveInvoice(ctx, tx, status.Reference)
			if err != nil {
				return err
			}
			if invoice == nil {
				// Nothing to attach the payment to; not an error.
				return nil
			}

			created := &paymentdomain.Payment{
				ID:                uuid.New(),
				InvoiceID:         invoice.ID,
				Provider:          provider,
				ProviderPaymentID: providerPaymentID,
				Status:            status.Status,
				CreatedAt:         now,
				UpdatedAt:         now,
			}
			if err := s.repo.Insert(ctx, tx, created); err != nil {
				if !db.IsDuplicateKeyErr(err) {
					return err
				}
				// Lost a race with a concurrent sync; fall back to updating.
				raced, err := s.repo.FindByProviderPaymentID(ctx, tx, provider, providerPaymentID)
				if err != nil {
					return err
				}
				if raced == nil {
					return paymentdomain.ErrInvalidPayment
				}
				if err := s.repo.UpdateStatus(ctx, tx, raced.ID, status.Status, now); err != nil {
					return err
				}
				raced.Status = status.Status
				raced.UpdatedAt = now
				created = raced
			}
			payment = created
		}

		if status.Paid {
			return s.invoiceRepo.MarkPaid(ctx, tx, payment.InvoiceID, now)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if payment == nil {
		s.log.Warn("payment sync had no matching invoice",
			zap.String("provider", provider),
			zap.String("provider_payment_id", providerPaymentID),
		)
		return nil, nil
	}

	s.log.Info("payment synced",
		zap.String("provider", provider),
		zap.String("provider_payment_id", providerPaymentID),
		zap.String("status", payment.Status),
	)
	return payment, nil
}

func (s *Service) adapterFor(ctx context.Context, provider string) (paymentdomain.GatewayAdapter, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" || !s.adapters.ProviderExists(provider) {
		return nil, paymentdomain.ErrProviderNotFound
	}
	providerCfg, err := s.providerCfgSvc.Resolve(ctx, provider)
	if err != nil {
		return nil, err
	}
	return s.adapters.NewAdapter(provider, s.adapterConfig(providerCfg))
}

func (s *Service) adapterConfig(providerCfg *providerconfigdomain.ProviderConfig) paymentdomain.AdapterConfig {
	return paymentdomain.AdapterConfig{
		APIKey:      providerCfg.APIKey,
		RedirectURL: providerCfg.RedirectURL,
		Config:      providerCfg.Config,
		Timeout:     s.providerTimeout,
	}
}

// resolveInvoice maps a provider correlation reference back to an invoice,
// trying the invoice id first, then the human-readable reference.
func (s *Service) resolveInvoice(ctx context.Context, tx *gorm.DB, reference string) (*invoicedomain.Invoice, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, nil
	}
	if id, err := uuid.Parse(reference); err == nil {
		return s.invoiceRepo.FindByID(ctx, tx, id)
	}
	return s.invoiceRepo.FindByReference(ctx, tx, reference)
}

func (s *Service) redirectFor(providerCfg *providerconfigdomain.ProviderConfig, baseURL string, invoiceID uuid.UUID) string {
	base := strings.TrimRight(providerCfg.RedirectURL, "/")
	if base == "" {
		base = s.returnURL
	}
	if base == "" {
		base = strings.TrimRight(baseURL, "/") + "/v1/invoices"
	}
	return fmt.Sprintf("%s/%s", base, invoiceID)
}

func webhookFor(baseURL, provider string) string {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/v1/payments/%s/webhook", baseURL, provider)
}
