package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	invoicedomain "github.com/smallbiznis/faktur/internal/invoice/domain"
)

type fakeInvoiceService struct {
	invoice *invoicedomain.Invoice
	err     error

	createCalls int
	deleteCalls int
	lastCreate  invoicedomain.CreateInvoiceRequest
	lastList    invoicedomain.ListInvoiceRequest
}

func (f *fakeInvoiceService) Create(ctx context.Context, req invoicedomain.CreateInvoiceRequest) (*invoicedomain.Invoice, error) {
	f.createCalls++
	f.lastCreate = req
	_ = ctx
	if f.err != nil {
		return nil, f.err
	}
	return f.invoice, nil
}

func (f *fakeInvoiceService) Update(ctx context.Context, id string, req invoicedomain.UpdateInvoiceRequest) (*invoicedomain.Invoice, error) {
	_ = ctx
	_ = id
	_ = req
	if f.err != nil {
		return nil, f.err
	}
	return f.invoice, nil
}

func (f *fakeInvoiceService) GetByID(ctx context.Context, id string) (*invoicedomain.Invoice, error) {
	_ = ctx
	_ = id
	if f.err != nil {
		return nil, f.err
	}
	return f.invoice, nil
}

func (f *fakeInvoiceService) List(ctx context.Context, req invoicedomain.ListInvoiceRequest) (invoicedomain.ListInvoiceResponse, error) {
	f.lastList = req
	_ = ctx
	if f.err != nil {
		return invoicedomain.ListInvoiceResponse{}, f.err
	}
	resp := invoicedomain.ListInvoiceResponse{Invoices: []invoicedomain.Invoice{}}
	if f.invoice != nil {
		resp.Invoices = append(resp.Invoices, *f.invoice)
	}
	return resp, nil
}

func (f *fakeInvoiceService) Delete(ctx context.Context, id string) error {
	f.deleteCalls++
	_ = ctx
	_ = id
	return f.err
}

func sampleInvoice() *invoicedomain.Invoice {
	return &invoicedomain.Invoice{
		ID:          uuid.New(),
		Name:        "Website build",
		Reference:   "INV-1000",
		TotalAmount: "121.00",
		Currency:    "EUR",
	}
}

func TestCreateInvoiceReturns201(t *testing.T) {
	invoiceSvc := &fakeInvoiceService{invoice: sampleInvoice()}
	srv := newTestServer(invoiceSvc, nil)

	payload := `{"name":"Website build","items":[{"name":"Design","price":"100.00","currency":"EUR","quantity":1,"taxes":["21"]}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/invoices", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	srv.Engine().ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}
	if invoiceSvc.createCalls != 1 {
		t.Fatalf("expected one create call, got %d", invoiceSvc.createCalls)
	}
	if invoiceSvc.lastCreate.Name != "Website build" {
		t.Fatalf("unexpected invoice name %q", invoiceSvc.lastCreate.Name)
	}
	if len(invoiceSvc.lastCreate.Items) != 1 || invoiceSvc.lastCreate.Items[0].Price != "100.00" {
		t.Fatalf("unexpected items %+v", invoiceSvc.lastCreate.Items)
	}
}

func TestCreateInvoiceMalformedBodyReturns400(t *testing.T) {
	invoiceSvc := &fakeInvoiceService{}
	srv := newTestServer(invoiceSvc, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/invoices", strings.NewReader(`{"name":`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	srv.Engine().ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
	if invoiceSvc.createCalls != 0 {
		t.Fatal("expected invoice service not to be called")
	}
	if body := decodeError(t, resp); body.Error.Type != "validation_error" {
		t.Fatalf("expected type validation_error, got %q", body.Error.Type)
	}
}

func TestCreateInvoiceBadItemPriceReturns400(t *testing.T) {
	invoiceSvc := &fakeInvoiceService{err: invoicedomain.ErrInvalidItemPrice}
	srv := newTestServer(invoiceSvc, nil)

	payload := `{"name":"x","items":[{"price":"9.999","currency":"EUR","quantity":1}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/invoices", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	srv.Engine().ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
	body := decodeError(t, resp)
	if len(body.Error.Errors) != 1 || body.Error.Errors[0].Code != "invalid_item_price" {
		t.Fatalf("unexpected error detail %+v", body.Error.Errors)
	}
}

func TestCreateInvoiceMixedCurrenciesReturns422(t *testing.T) {
	invoiceSvc := &fakeInvoiceService{err: invoicedomain.ErrUnsupportedCurrency}
	srv := newTestServer(invoiceSvc, nil)

	payload := `{"name":"x","items":[{"price":"1.00","currency":"EUR","quantity":1},{"price":"1.00","currency":"USD","quantity":1}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/invoices", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	srv.Engine().ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", resp.Code)
	}
	if body := decodeError(t, resp); body.Error.Type != "unsupported_currency" {
		t.Fatalf("expected type unsupported_currency, got %q", body.Error.Type)
	}
}

func TestListInvoicesForwardsPagination(t *testing.T) {
	invoiceSvc := &fakeInvoiceService{invoice: sampleInvoice()}
	srv := newTestServer(invoiceSvc, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/invoices?page_size=5&page_token=abc", nil)
	resp := httptest.NewRecorder()
	srv.Engine().ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if invoiceSvc.lastList.PageSize != 5 || invoiceSvc.lastList.PageToken != "abc" {
		t.Fatalf("unexpected list request %+v", invoiceSvc.lastList)
	}

	var body struct {
		Data []invoicedomain.Invoice `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Data) != 1 {
		t.Fatalf("expected one invoice, got %d", len(body.Data))
	}
}

func TestListInvoicesBadPageSizeReturns400(t *testing.T) {
	srv := newTestServer(&fakeInvoiceService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/invoices?page_size=abc", nil)
	resp := httptest.NewRecorder()
	srv.Engine().ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestGetInvoiceInvalidIDReturns400(t *testing.T) {
	srv := newTestServer(&fakeInvoiceService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/invoices/not-a-uuid", nil)
	resp := httptest.NewRecorder()
	srv.Engine().ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestGetInvoiceNotFoundReturns404(t *testing.T) {
	srv := newTestServer(&fakeInvoiceService{err: invoicedomain.ErrNotFound}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/invoices/"+uuid.New().String(), nil)
	resp := httptest.NewRecorder()
	srv.Engine().ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}
	if body := decodeError(t, resp); body.Error.Type != "not_found" {
		t.Fatalf("expected type not_found, got %q", body.Error.Type)
	}
}

func TestDeleteInvoiceWithPaymentsReturns409(t *testing.T) {
	srv := newTestServer(&fakeInvoiceService{err: invoicedomain.ErrHasPayments}, nil)

	req := httptest.NewRequest(http.MethodDelete, "/v1/invoices/"+uuid.New().String(), nil)
	resp := httptest.NewRecorder()
	srv.Engine().ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", resp.Code)
	}
	if body := decodeError(t, resp); body.Error.Type != "invoice_has_payments" {
		t.Fatalf("expected type invoice_has_payments, got %q", body.Error.Type)
	}
}

func TestDeleteInvoiceReturns204(t *testing.T) {
	invoiceSvc := &fakeInvoiceService{}
	srv := newTestServer(invoiceSvc, nil)

	req := httptest.NewRequest(http.MethodDelete, "/v1/invoices/"+uuid.New().String(), nil)
	resp := httptest.NewRecorder()
	srv.Engine().ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", resp.Code)
	}
	if invoiceSvc.deleteCalls != 1 {
		t.Fatalf("expected one delete call, got %d", invoiceSvc.deleteCalls)
	}
}
