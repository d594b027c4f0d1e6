package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	invoicedomain "github.com/smallbiznis/faktur/internal/invoice/domain"
	paymentdomain "github.com/smallbiznis/faktur/internal/payment/domain"
)

type fakePaymentService struct {
	checkout    *paymentdomain.CheckoutResult
	checkoutErr error
	payment     *paymentdomain.Payment
	syncErr     error
	status      *paymentdomain.ProviderStatus
	statusErr   error

	checkoutCalls int
	syncCalls     int
	statusCalls   int
	lastProvider  string
	lastPaymentID string
	lastBaseURL   string
}

func (f *fakePaymentService) CreateCheckout(ctx context.Context, invoiceID, provider, baseURL string) (*paymentdomain.CheckoutResult, error) {
	f.checkoutCalls++
	f.lastProvider = provider
	f.lastBaseURL = baseURL
	_ = ctx
	_ = invoiceID
	if f.checkoutErr != nil {
		return nil, f.checkoutErr
	}
	return f.checkout, nil
}

func (f *fakePaymentService) FetchStatus(ctx context.Context, provider, providerPaymentID string) (*paymentdomain.ProviderStatus, error) {
	f.statusCalls++
	f.lastProvider = provider
	f.lastPaymentID = providerPaymentID
	_ = ctx
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return f.status, nil
}

func (f *fakePaymentService) SyncPayment(ctx context.Context, provider, providerPaymentID string) (*paymentdomain.Payment, error) {
	f.syncCalls++
	f.lastProvider = provider
	f.lastPaymentID = providerPaymentID
	_ = ctx
	if f.syncErr != nil {
		return nil, f.syncErr
	}
	return f.payment, nil
}

func newTestServer(invoiceSvc invoicedomain.Service, paymentSvc paymentdomain.Service) *Server {
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())

	srv := &Server{
		engine:     engine,
		invoiceSvc: invoiceSvc,
		paymentSvc: paymentSvc,
	}
	srv.registerAPIRoutes()
	return srv
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) errorResponse {
	t.Helper()

	var body errorResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body
}

func TestCreateInvoiceCheckoutReturnsCheckoutURL(t *testing.T) {
	paymentSvc := &fakePaymentService{
		checkout: &paymentdomain.CheckoutResult{
			CheckoutURL:       "https://pay.mollie.com/checkout/tr_123",
			ProviderPaymentID: "tr_123",
		},
	}
	srv := newTestServer(nil, paymentSvc)

	invoiceID := uuid.New().String()
	req := httptest.NewRequest(http.MethodPost, "/v1/invoices/"+invoiceID+"/checkout/mollie", nil)
	req.Host = "billing.example"
	resp := httptest.NewRecorder()
	srv.Engine().ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}
	if paymentSvc.lastProvider != "mollie" {
		t.Fatalf("expected provider mollie, got %q", paymentSvc.lastProvider)
	}
	if paymentSvc.lastBaseURL != "http://billing.example" {
		t.Fatalf("unexpected base url %q", paymentSvc.lastBaseURL)
	}

	var body struct {
		Data paymentdomain.CheckoutResult `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Data.CheckoutURL != "https://pay.mollie.com/checkout/tr_123" {
		t.Fatalf("unexpected checkout url %q", body.Data.CheckoutURL)
	}
}

func TestCreateInvoiceCheckoutForwardedHeaders(t *testing.T) {
	paymentSvc := &fakePaymentService{checkout: &paymentdomain.CheckoutResult{CheckoutURL: "https://x"}}
	srv := newTestServer(nil, paymentSvc)

	req := httptest.NewRequest(http.MethodPost, "/v1/invoices/"+uuid.New().String()+"/checkout/mollie", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	req.Header.Set("X-Forwarded-Host", "pay.example.com")
	resp := httptest.NewRecorder()
	srv.Engine().ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", resp.Code)
	}
	if paymentSvc.lastBaseURL != "https://pay.example.com" {
		t.Fatalf("unexpected base url %q", paymentSvc.lastBaseURL)
	}
}

func TestCreateInvoiceCheckoutInvalidIDReturns400(t *testing.T) {
	paymentSvc := &fakePaymentService{}
	srv := newTestServer(nil, paymentSvc)

	req := httptest.NewRequest(http.MethodPost, "/v1/invoices/not-a-uuid/checkout/mollie", nil)
	resp := httptest.NewRecorder()
	srv.Engine().ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
	if paymentSvc.checkoutCalls != 0 {
		t.Fatal("expected payment service not to be called")
	}
}

func TestCreateInvoiceCheckoutProviderRejectedReturns422(t *testing.T) {
	paymentSvc := &fakePaymentService{
		checkoutErr: &paymentdomain.GatewayError{
			Kind:     paymentdomain.GatewayProviderRejected,
			Provider: "mollie",
			Detail:   "amount below provider minimum",
		},
	}
	srv := newTestServer(nil, paymentSvc)

	req := httptest.NewRequest(http.MethodPost, "/v1/invoices/"+uuid.New().String()+"/checkout/mollie", nil)
	resp := httptest.NewRecorder()
	srv.Engine().ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", resp.Code)
	}
	body := decodeError(t, resp)
	if body.Error.Type != "provider_rejected" {
		t.Fatalf("expected type provider_rejected, got %q", body.Error.Type)
	}
	if body.Error.Message != "amount below provider minimum" {
		t.Fatalf("unexpected message %q", body.Error.Message)
	}
}

func TestCreateInvoiceCheckoutTransportFailureReturns502(t *testing.T) {
	paymentSvc := &fakePaymentService{
		checkoutErr: &paymentdomain.GatewayError{
			Kind:     paymentdomain.GatewayTransportFailure,
			Provider: "sumup",
		},
	}
	srv := newTestServer(nil, paymentSvc)

	req := httptest.NewRequest(http.MethodPost, "/v1/invoices/"+uuid.New().String()+"/checkout/sumup", nil)
	resp := httptest.NewRecorder()
	srv.Engine().ServeHTTP(resp, req)

	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", resp.Code)
	}
	if body := decodeError(t, resp); body.Error.Type != "provider_unreachable" {
		t.Fatalf("expected type provider_unreachable, got %q", body.Error.Type)
	}
}

func TestGetPaymentStatusReturnsPayment(t *testing.T) {
	paymentSvc := &fakePaymentService{
		payment: &paymentdomain.Payment{
			ID:                uuid.New(),
			InvoiceID:         uuid.New(),
			Provider:          "mollie",
			ProviderPaymentID: "tr_123",
			Status:            "paid",
		},
	}
	srv := newTestServer(nil, paymentSvc)

	req := httptest.NewRequest(http.MethodGet, "/v1/payments/mollie/tr_123", nil)
	resp := httptest.NewRecorder()
	srv.Engine().ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if paymentSvc.lastPaymentID != "tr_123" {
		t.Fatalf("expected sync for tr_123, got %q", paymentSvc.lastPaymentID)
	}
}

func TestGetPaymentStatusUnknownReturns404(t *testing.T) {
	srv := newTestServer(nil, &fakePaymentService{})

	req := httptest.NewRequest(http.MethodGet, "/v1/payments/mollie/tr_missing", nil)
	resp := httptest.NewRecorder()
	srv.Engine().ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}
}

func TestGetLivePaymentStatusQueriesProvider(t *testing.T) {
	paymentSvc := &fakePaymentService{
		status: &paymentdomain.ProviderStatus{
			ProviderPaymentID: "tr_123",
			Status:            "open",
		},
	}
	srv := newTestServer(nil, paymentSvc)

	req := httptest.NewRequest(http.MethodGet, "/v1/payments/mollie/tr_123/live", nil)
	resp := httptest.NewRecorder()
	srv.Engine().ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if paymentSvc.statusCalls != 1 || paymentSvc.syncCalls != 0 {
		t.Fatalf("expected one status fetch and no sync, got %d/%d", paymentSvc.statusCalls, paymentSvc.syncCalls)
	}

	var body struct {
		Data paymentdomain.ProviderStatus `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Data.Status != "open" {
		t.Fatalf("unexpected status %q", body.Data.Status)
	}
}

func TestGetLivePaymentStatusAuthFailureReturns502(t *testing.T) {
	paymentSvc := &fakePaymentService{
		statusErr: &paymentdomain.GatewayError{
			Kind:     paymentdomain.GatewayAuthenticationFailed,
			Provider: "mollie",
		},
	}
	srv := newTestServer(nil, paymentSvc)

	req := httptest.NewRequest(http.MethodGet, "/v1/payments/mollie/tr_123/live", nil)
	resp := httptest.NewRecorder()
	srv.Engine().ServeHTTP(resp, req)

	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", resp.Code)
	}
	if body := decodeError(t, resp); body.Error.Type != "provider_authentication_failed" {
		t.Fatalf("expected type provider_authentication_failed, got %q", body.Error.Type)
	}
}

func TestWebhookMissingIDReturns400(t *testing.T) {
	paymentSvc := &fakePaymentService{}
	srv := newTestServer(nil, paymentSvc)

	req := httptest.NewRequest(http.MethodPost, "/v1/payments/mollie/webhook", nil)
	resp := httptest.NewRecorder()
	srv.Engine().ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
	if paymentSvc.syncCalls != 0 {
		t.Fatal("expected no sync without a payment id")
	}
}

func TestWebhookFormEncodedID(t *testing.T) {
	paymentSvc := &fakePaymentService{
		payment: &paymentdomain.Payment{Provider: "mollie", ProviderPaymentID: "tr_456", Status: "paid"},
	}
	srv := newTestServer(nil, paymentSvc)

	form := url.Values{"id": {"tr_456"}}
	req := httptest.NewRequest(http.MethodPost, "/v1/payments/mollie/webhook", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp := httptest.NewRecorder()
	srv.Engine().ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if paymentSvc.lastPaymentID != "tr_456" {
		t.Fatalf("expected sync for tr_456, got %q", paymentSvc.lastPaymentID)
	}
}

func TestWebhookJSONCheckoutID(t *testing.T) {
	paymentSvc := &fakePaymentService{
		payment: &paymentdomain.Payment{Provider: "sumup", ProviderPaymentID: "chk_789", Status: "PAID"},
	}
	srv := newTestServer(nil, paymentSvc)

	req := httptest.NewRequest(http.MethodPost, "/v1/payments/sumup/webhook", strings.NewReader(`{"checkout_id":"chk_789"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	srv.Engine().ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if paymentSvc.lastPaymentID != "chk_789" {
		t.Fatalf("expected sync for chk_789, got %q", paymentSvc.lastPaymentID)
	}
}

func TestWebhookUnmatchedPaymentStillAcked(t *testing.T) {
	// Sync resolving nothing is not an error; the provider must stop retrying.
	srv := newTestServer(nil, &fakePaymentService{})

	req := httptest.NewRequest(http.MethodPost, "/v1/payments/mollie/webhook?id=tr_unknown", nil)
	resp := httptest.NewRecorder()
	srv.Engine().ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
}
