// Package mollie adapts the Mollie v2 payments API to the internal
// gateway contract.
package mollie

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/smallbiznis/faktur/internal/payment/domain"
)

const (
	providerName   = "mollie"
	defaultBaseURL = "https://api.mollie.com"
	defaultTimeout = 10 * time.Second
)

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Provider() string {
	return providerName
}

func (f *Factory) NewAdapter(cfg domain.AdapterConfig) (domain.GatewayAdapter, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, domain.ErrInvalidConfig
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Adapter{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

type Adapter struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func (a *Adapter) Provider() string {
	return providerName
}

type amount struct {
	Currency string `json:"currency"`
	Value    string `json:"value"`
}

type createPaymentRequest struct {
	Amount      amount            `json:"amount"`
	Description string            `json:"description"`
	RedirectURL string            `json:"redirectUrl"`
	WebhookURL  string            `json:"webhookUrl,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type payment struct {
	ID       string         `json:"id"`
	Status   string         `json:"status"`
	Metadata map[string]any `json:"metadata"`
	Links    struct {
		Checkout struct {
			Href string `json:"href"`
		} `json:"checkout"`
	} `json:"_links"`
}

type apiError struct {
	Status int    `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

func (a *Adapter) CreateCheckout(ctx context.Context, req domain.CheckoutRequest) (*domain.Checkout, error) {
	body := createPaymentRequest{
		Amount:      amount{Currency: req.Currency, Value: req.Amount},
		Description: req.Description,
		RedirectURL: req.RedirectURL,
		WebhookURL:  req.WebhookURL,
		Metadata:    map[string]string{"invoice_id": req.InvoiceID},
	}

	var created payment
	// Creates are never retried: a replayed POST could double-charge.
	if err := a.call(ctx, http.MethodPost, "/v2/payments", body, &created, false); err != nil {
		return nil, err
	}

	checkoutURL := strings.TrimSpace(created.Links.Checkout.Href)
	if created.ID == "" || checkoutURL == "" {
		return nil, domain.NewGatewayError(domain.GatewayProviderRejected, providerName,
			"response carried no checkout url", nil)
	}

	return &domain.Checkout{
		ProviderPaymentID: created.ID,
		CheckoutURL:       checkoutURL,
	}, nil
}

func (a *Adapter) FetchStatus(ctx context.Context, providerPaymentID string) (*domain.ProviderStatus, error) {
	providerPaymentID = strings.TrimSpace(providerPaymentID)
	if providerPaymentID == "" {
		return nil, domain.ErrInvalidPayment
	}

	var fetched payment
	if err := a.call(ctx, http.MethodGet, "/v2/payments/"+providerPaymentID, nil, &fetched, true); err != nil {
		return nil, err
	}

	return &domain.ProviderStatus{
		ProviderPaymentID: fetched.ID,
		Status:            fetched.Status,
		Reference:         metadataString(fetched.Metadata, "invoice_id"),
		Paid:              fetched.Status == "paid",
	}, nil
}

// call performs one API request, mapping every failure mode onto a typed
// GatewayError. Idempotent requests get a single retry on transport failure.
func (a *Adapter) call(ctx context.Context, method, path string, body any, out any, retryable bool) error {
	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return domain.NewGatewayError(domain.GatewayProviderRejected, providerName, "encode request", err)
		}
		payload = encoded
	}

	resp, err := a.do(ctx, method, path, payload)
	if err != nil && retryable {
		resp, err = a.do(ctx, method, path, payload)
	}
	if err != nil {
		return domain.NewGatewayError(domain.GatewayTransportFailure, providerName, "request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.NewGatewayError(domain.GatewayTransportFailure, providerName, "read response", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return domain.NewGatewayError(domain.GatewayAuthenticationFailed, providerName, errorDetail(raw), nil)
	case resp.StatusCode >= 500:
		return domain.NewGatewayError(domain.GatewayTransportFailure, providerName, errorDetail(raw), nil)
	case resp.StatusCode >= 400:
		return domain.NewGatewayError(domain.GatewayProviderRejected, providerName, errorDetail(raw), nil)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return domain.NewGatewayError(domain.GatewayTransportFailure, providerName, "decode response", err)
	}
	return nil
}

func (a *Adapter) do(ctx context.Context, method, path string, payload []byte) (*http.Response, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return a.client.Do(req)
}

func errorDetail(raw []byte) string {
	var parsed apiError
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return ""
	}
	if parsed.Detail != "" {
		return parsed.Detail
	}
	return parsed.Title
}

func metadataString(metadata map[string]any, key string) string {
	if metadata == nil {
		return ""
	}
	value, ok := metadata[key]
	if !ok {
		return ""
	}
	cast, ok := value.(string)
	if !ok {
		return fmt.Sprintf("%v", value)
	}
	return strings.TrimSpace(cast)
}
