package domain

import (
	"context"

	"github.com/google/uuid"
	"github.com/smallbiznis/faktur/pkg/db/pagination"
)

// ItemInput carries one incoming line item on create/update.
type ItemInput struct {
	Name     string   `json:"name"`
	Price    string   `json:"price"`
	Currency string   `json:"currency"`
	Quantity int64    `json:"quantity"`
	Taxes    []string `json:"taxes"`
}

type CreateInvoiceRequest struct {
	OrgID          uuid.UUID   `json:"organization_id"`
	Name           string      `json:"name"`
	Description    string      `json:"description"`
	Reference      string      `json:"reference"`
	Customer       string      `json:"customer"`
	Remarks        string      `json:"remarks"`
	OrderReference string      `json:"order_reference"`
	Items          []ItemInput `json:"items"`
}

// UpdateInvoiceRequest replaces the invoice's mutable fields and its
// entire item set. Totals are recomputed from the incoming items.
type UpdateInvoiceRequest struct {
	Name           string      `json:"name"`
	Description    string      `json:"description"`
	Customer       string      `json:"customer"`
	Remarks        string      `json:"remarks"`
	OrderReference string      `json:"order_reference"`
	Items          []ItemInput `json:"items"`
}

type ListInvoiceRequest struct {
	pagination.Pagination
}

type ListInvoiceResponse struct {
	pagination.PageInfo
	Invoices []Invoice `json:"invoices"`
}

type Service interface {
	Create(ctx context.Context, req CreateInvoiceRequest) (*Invoice, error)
	Update(ctx context.Context, id string, req UpdateInvoiceRequest) (*Invoice, error)
	GetByID(ctx context.Context, id string) (*Invoice, error)
	List(ctx context.Context, req ListInvoiceRequest) (ListInvoiceResponse, error)
	Delete(ctx context.Context, id string) error
}
