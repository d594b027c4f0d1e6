package domain

import "context"

// CheckoutResult is returned from payment creation. Free is set when the
// invoice total was zero and no provider was contacted.
type CheckoutResult struct {
	CheckoutURL       string `json:"checkout_url"`
	ProviderPaymentID string `json:"provider_payment_id,omitempty"`
	Free              bool   `json:"free,omitempty"`
}

type Service interface {
	// CreateCheckout builds a provider checkout for the invoice. baseURL
	// (scheme + host of the inbound request) is used for absolute
	// redirect/webhook URLs when the provider config carries none.
	CreateCheckout(ctx context.Context, invoiceID, provider, baseURL string) (*CheckoutResult, error)

	// FetchStatus asks the provider for its live view of a payment.
	FetchStatus(ctx context.Context, provider, providerPaymentID string) (*ProviderStatus, error)

	// SyncPayment refreshes the Payment row for a provider payment id,
	// creating it lazily on first sight. Returns (nil, nil) when no
	// invoice can be resolved for an unseen payment.
	SyncPayment(ctx context.Context, provider, providerPaymentID string) (*Payment, error)
}
