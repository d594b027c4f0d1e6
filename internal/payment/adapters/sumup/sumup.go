// Package sumup adapts the SumUp checkouts API to the internal gateway
// contract.
package sumup

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/smallbiznis/faktur/internal/payment/domain"
)

const (
	providerName   = "sumup"
	defaultBaseURL = "https://api.sumup.com"
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
	payToEmail, _ := readString(cfg.Config, "pay_to_email")
	payToEmail = strings.TrimSpace(payToEmail)
	if payToEmail == "" {
		return nil, domain.ErrInvalidConfig
	}
	merchantCode, _ := readString(cfg.Config, "merchant_code")

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Adapter{
		apiKey:       apiKey,
		payToEmail:   payToEmail,
		merchantCode: strings.TrimSpace(merchantCode),
		baseURL:      baseURL,
		client:       &http.Client{Timeout: timeout},
	}, nil
}

type Adapter struct {
	apiKey       string
	payToEmail   string
	merchantCode string
	baseURL      string
	client       *http.Client
}

func (a *Adapter) Provider() string {
	return providerName
}

type hostedCheckout struct {
	Enabled bool `json:"enabled"`
}

type createCheckoutRequest struct {
	CheckoutReference string         `json:"checkout_reference"`
	Amount            json.Number    `json:"amount"`
	Currency          string         `json:"currency"`
	PayToEmail        string         `json:"pay_to_email"`
	MerchantCode      string         `json:"merchant_code,omitempty"`
	Description       string         `json:"description,omitempty"`
	ReturnURL         string         `json:"return_url,omitempty"`
	RedirectURL       string         `json:"redirect_url,omitempty"`
	HostedCheckout    hostedCheckout `json:"hosted_checkout"`
}

type checkout struct {
	ID                string `json:"id"`
	Status            string `json:"status"`
	CheckoutReference string `json:"checkout_reference"`
	HostedCheckoutURL string `json:"hosted_checkout_url"`
}

type apiError struct {
	Message   string `json:"message"`
	ErrorCode string `json:"error_code"`
}

func (a *Adapter) CreateCheckout(ctx context.Context, req domain.CheckoutRequest) (*domain.Checkout, error) {
	body := createCheckoutRequest{
		CheckoutReference: req.InvoiceID,
		Amount:            json.Number(req.Amount),
		Currency:          req.Currency,
		PayToEmail:        a.payToEmail,
		MerchantCode:      a.merchantCode,
		Description:       req.Description,
		ReturnURL:         req.WebhookURL,
		RedirectURL:       req.RedirectURL,
		HostedCheckout:    hostedCheckout{Enabled: true},
	}

	var created checkout
	// Creates are never retried: a replayed POST could double-charge.
	if err := a.call(ctx, http.MethodPost, "/v0.1/checkouts", body, &created, false); err != nil {
		return nil, err
	}
	if created.ID == "" {
		return nil, domain.NewGatewayError(domain.GatewayProviderRejected, providerName,
			"response carried no checkout id", nil)
	}

	checkoutURL := strings.TrimSpace(created.HostedCheckoutURL)
	if checkoutURL == "" {
		return nil, domain.NewGatewayError(domain.GatewayProviderRejected, providerName,
			"response carried no hosted checkout url", nil)
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

	var fetched checkout
	if err := a.call(ctx, http.MethodGet, "/v0.1/checkouts/"+providerPaymentID, nil, &fetched, true); err != nil {
		return nil, err
	}

	return &domain.ProviderStatus{
		ProviderPaymentID: fetched.ID,
		Status:            fetched.Status,
		Reference:         strings.TrimSpace(fetched.CheckoutReference),
		Paid:              strings.EqualFold(fetched.Status, "PAID"),
	}, nil
}

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
	if parsed.Message != "" {
		return parsed.Message
	}
	return parsed.ErrorCode
}

func readString(config map[string]any, key string) (string, bool) {
	value, ok := config[key]
	if !ok {
		return "", false
	}
	switch cast := value.(type) {
	case string:
		return cast, true
	default:
		return "", false
	}
}
