package domain

import "errors"

var (
	ErrNotFound            = errors.New("invoice_not_found")
	ErrInvalidInvoice      = errors.New("invalid_invoice")
	ErrInvalidItemPrice    = errors.New("invalid_item_price")
	ErrInvalidQuantity     = errors.New("invalid_quantity")
	ErrInvalidTaxRate      = errors.New("invalid_tax_rate")
	ErrUnsupportedCurrency = errors.New("unsupported_currency")
	ErrHasPayments         = errors.New("invoice_has_payments")
)
