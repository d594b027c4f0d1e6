package domain

import (
	"context"
	"time"
)

// CheckoutRequest is the provider-neutral "create payment" call.
type CheckoutRequest struct {
	InvoiceID   string
	Reference   string
	Description string
	Amount      string // two-decimal amount, e.g. "12.34"
	Currency    string
	RedirectURL string
	WebhookURL  string
}

// Checkout is a provider-hosted payment page the customer is sent to.
type Checkout struct {
	ProviderPaymentID string `json:"provider_payment_id"`
	CheckoutURL       string `json:"checkout_url"`
}

// ProviderStatus is the provider's view of one payment.
type ProviderStatus struct {
	ProviderPaymentID string `json:"provider_payment_id"`
	Status            string `json:"status"`
	Reference         string `json:"reference,omitempty"`
	Paid              bool   `json:"paid"`
}

// GatewayAdapter translates between the internal model and one provider's
// API. Implementations never let transport or SDK errors escape untyped;
// every failure surfaces as a *GatewayError.
type GatewayAdapter interface {
	Provider() string
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error)
	FetchStatus(ctx context.Context, providerPaymentID string) (*ProviderStatus, error)
}

// AdapterConfig carries already-resolved provider credentials and settings.
// Adapters receive these explicitly instead of a live configuration row.
type AdapterConfig struct {
	APIKey      string
	RedirectURL string
	Config      map[string]any
	BaseURL     string // overrides the provider default, used by tests
	Timeout     time.Duration
}

type AdapterFactory interface {
	Provider() string
	NewAdapter(cfg AdapterConfig) (GatewayAdapter, error)
}
