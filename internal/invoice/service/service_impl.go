package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/smallbiznis/faktur/internal/clock"
	"github.com/smallbiznis/faktur/internal/config"
	"github.com/smallbiznis/faktur/internal/invoice/calc"
	invoicedomain "github.com/smallbiznis/faktur/internal/invoice/domain"
	"github.com/smallbiznis/faktur/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Cfg   config.Config
	Clock clock.Clock
	Repo  invoicedomain.Repository
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     invoicedomain.Repository
	currency string
}

func NewService(p ServiceParam) invoicedomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("invoice.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		currency: p.Cfg.SettlementCurrency,
	}
}

func (s *Service) Create(ctx context.Context, req invoicedomain.CreateInvoiceRequest) (*invoicedomain.Invoice, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, invoicedomain.ErrInvalidInvoice
	}

	now := s.clock.Now()
	invoice := &invoicedomain.Invoice{
		ID:             uuid.New(),
		OrgID:          req.OrgID,
		Name:           strings.TrimSpace(req.Name),
		Description:    strings.TrimSpace(req.Description),
		Reference:      strings.TrimSpace(req.Reference),
		Customer:       strings.TrimSpace(req.Customer),
		Remarks:        strings.TrimSpace(req.Remarks),
		OrderReference: strings.TrimSpace(req.OrderReference),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if invoice.Reference == "" {
		invoice.Reference = fmt.Sprintf("INV-%s", s.genID.Generate())
	}

	items := s.buildItems(invoice.ID, req.Items, now)
	if err := s.applyTotals(invoice, items); err != nil {
		return nil, err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		return s.repo.Insert(ctx, tx, invoice, items)
	})
	if err != nil {
		return nil, err
	}

	invoice.Items = items
	s.log.Info("invoice created",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("reference", invoice.Reference),
		zap.String("total_amount", invoice.TotalAmount),
	)
	return invoice, nil
}

func (s *Service) Update(ctx context.Context, id string, req invoicedomain.UpdateInvoiceRequest) (*invoicedomain.Invoice, error) {
	invoiceID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, invoicedomain.ErrNotFound
	}

	invoice, err := s.repo.FindByID(ctx, s.db, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, invoicedomain.ErrNotFound
	}

	now := s.clock.Now()
	if v := strings.TrimSpace(req.Name); v != "" {
		invoice.Name = v
	}
	invoice.Description = strings.TrimSpace(req.Description)
	invoice.Customer = strings.TrimSpace(req.Customer)
	invoice.Remarks = strings.TrimSpace(req.Remarks)
	invoice.OrderReference = strings.TrimSpace(req.OrderReference)
	invoice.UpdatedAt = now

	items := s.buildItems(invoice.ID, req.Items, now)
	if err := s.applyTotals(invoice, items); err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		return s.repo.Update(ctx, tx, invoice, items)
	})
	if err != nil {
		return nil, err
	}

	invoice.Items = items
	return invoice, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*invoicedomain.Invoice, error) {
	invoiceID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, invoicedomain.ErrNotFound
	}

	invoice, err := s.repo.FindByID(ctx, s.db, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, invoicedomain.ErrNotFound
	}
	return invoice, nil
}

func (s *Service) List(ctx context.Context, req invoicedomain.ListInvoiceRequest) (invoicedomain.ListInvoiceResponse, error) {
	limit := req.PageSize
	if limit <= 0 {
		limit = 10
	}
	if limit > 250 {
		limit = 250
	}

	var cursor *pagination.Cursor
	if strings.TrimSpace(req.PageToken) != "" {
		decoded, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return invoicedomain.ListInvoiceResponse{}, invoicedomain.ErrInvalidInvoice
		}
		cursor = decoded
	}

	invoices, err := s.repo.List(ctx, s.db, cursor, limit+1)
	if err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}

	resp := invoicedomain.ListInvoiceResponse{}
	if len(invoices) > limit {
		invoices = invoices[:limit]
		resp.HasMore = true
		last := invoices[len(invoices)-1]
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        last.ID.String(),
			CreatedAt: last.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			return invoicedomain.ListInvoiceResponse{}, err
		}
		resp.NextPageToken = token
	}
	resp.Invoices = invoices
	return resp, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	invoiceID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return invoicedomain.ErrNotFound
	}

	invoice, err := s.repo.FindByID(ctx, s.db, invoiceID)
	if err != nil {
		return err
	}
	if invoice == nil {
		return invoicedomain.ErrNotFound
	}
	// Payment rows are the provider-side audit trail; an invoice with any
	// payment attached cannot be removed.
	if len(invoice.Payments) > 0 {
		return invoicedomain.ErrHasPayments
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		return s.repo.Delete(ctx, tx, invoiceID)
	})
}

// applyTotals recomputes the denormalized totals from the item set. Any
// calculator error aborts the surrounding persist.
func (s *Service) applyTotals(invoice *invoicedomain.Invoice, items []invoicedomain.InvoiceItem) error {
	totals, err := calc.Compute(items, s.currency)
	if err != nil {
		return err
	}

	invoice.TotalAmount = totals.TotalAmount
	invoice.Currency = totals.Currency
	invoice.Taxes = datatypes.JSONMap{}
	for rate, amount := range totals.Taxes {
		invoice.Taxes[rate] = amount
	}
	return nil
}

func (s *Service) buildItems(invoiceID uuid.UUID, inputs []invoicedomain.ItemInput, now time.Time) []invoicedomain.InvoiceItem {
	items := make([]invoicedomain.InvoiceItem, 0, len(inputs))
	for position, input := range inputs {
		quantity := input.Quantity
		if quantity == 0 {
			quantity = 1
		}
		items = append(items, invoicedomain.InvoiceItem{
			ID:        uuid.New(),
			InvoiceID: invoiceID,
			Name:      strings.TrimSpace(input.Name),
			Price:     strings.TrimSpace(input.Price),
			Currency:  strings.ToUpper(strings.TrimSpace(input.Currency)),
			Quantity:  quantity,
			Taxes:     datatypes.JSONSlice[string](input.Taxes),
			Position:  position,
			CreatedAt: now,
		})
	}
	return items
}
