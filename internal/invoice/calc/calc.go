// Package calc computes invoice totals and per-rate tax breakdowns in
// integer minor units.
package calc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/faktur/internal/invoice/domain"
)

// Totals is the denormalized result stored on the invoice row.
type Totals struct {
	TotalAmount string
	Currency    string
	Taxes       map[string]string
}

var oneHundred = decimal.NewFromInt(100)

// Compute aggregates the item set into a total amount and a tax breakdown
// keyed by canonical percentage. It is pure; the caller persists the result.
//
// Items carrying a currency other than the settlement currency abort the
// computation, as does any unparseable price or tax rate. Rounding happens
// once per item tax, half away from zero.
func Compute(items []domain.InvoiceItem, settlementCurrency string) (Totals, error) {
	currency := strings.ToUpper(strings.TrimSpace(settlementCurrency))
	if currency == "" {
		currency = "EUR"
	}

	var total int64
	buckets := map[string]int64{}

	for _, item := range items {
		if c := strings.TrimSpace(item.Currency); c != "" && !strings.EqualFold(c, currency) {
			return Totals{}, fmt.Errorf("%w: item currency %s, settlement currency %s",
				domain.ErrUnsupportedCurrency, strings.ToUpper(c), currency)
		}
		if item.Quantity < 0 {
			return Totals{}, domain.ErrInvalidQuantity
		}

		unit, err := ParseMinorUnits(item.Price)
		if err != nil {
			return Totals{}, err
		}

		line := unit * item.Quantity
		total += line

		for _, raw := range item.Taxes {
			rate, key, err := parseRate(raw)
			if err != nil {
				return Totals{}, err
			}
			buckets[key] += taxFor(line, rate)
		}
	}

	taxes := make(map[string]string, len(buckets))
	for key, amount := range buckets {
		taxes[key] = FormatMinorUnits(amount)
	}

	return Totals{
		TotalAmount: FormatMinorUnits(total),
		Currency:    currency,
		Taxes:       taxes,
	}, nil
}

// taxFor rounds the line tax half away from zero. This is the single
// rounding point of the whole computation.
func taxFor(line int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(line).Mul(rate).Div(oneHundred).Round(0).IntPart()
}

// ParseMinorUnits converts an item price into integer minor units.
// A price containing a decimal point is multiplied by 100 and must not
// carry fractions of a cent; anything else is taken as minor units already.
func ParseMinorUnits(price string) (int64, error) {
	price = strings.TrimSpace(price)
	if price == "" {
		return 0, domain.ErrInvalidItemPrice
	}

	if strings.Contains(price, ".") {
		parsed, err := decimal.NewFromString(price)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", domain.ErrInvalidItemPrice, price)
		}
		minor := parsed.Mul(oneHundred)
		if !minor.IsInteger() {
			return 0, fmt.Errorf("%w: %q has sub-cent precision", domain.ErrInvalidItemPrice, price)
		}
		return minor.IntPart(), nil
	}

	minor, err := strconv.ParseInt(price, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidItemPrice, price)
	}
	return minor, nil
}

// FormatMinorUnits renders minor units as a two-decimal amount string.
func FormatMinorUnits(minor int64) string {
	return decimal.New(minor, -2).StringFixed(2)
}

// parseRate returns the tax rate and its canonical bucket key ("21", "7.5").
func parseRate(raw string) (decimal.Decimal, string, error) {
	rate, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || rate.IsNegative() {
		return decimal.Decimal{}, "", fmt.Errorf("%w: %q", domain.ErrInvalidTaxRate, raw)
	}
	return rate, rate.String(), nil
}
