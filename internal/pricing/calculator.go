// Package pricing derives order totals from lines, discount and tax rate.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/polkiloo/posorder/internal/domain/model"
)

// DefaultTaxRate is applied to the discounted base.
var DefaultTaxRate = decimal.RequireFromString("0.02")

var hundred = decimal.NewFromInt(100)

// Calculator computes totals. It holds no state besides the tax rate and is safe for concurrent use.
type Calculator struct {
	taxRate decimal.Decimal
}

// NewCalculator returns a calculator using taxRate, e.g. 0.02 for 2%.
func NewCalculator(taxRate decimal.Decimal) *Calculator {
	return &Calculator{taxRate: taxRate}
}

// TaxRate returns the configured rate.
func (c *Calculator) TaxRate() decimal.Decimal {
	return c.taxRate
}

// Compute derives subtotal, discount, tax and total. Every intermediate is rounded to two
// places half-up, and the discounted base is clamped at zero.
func (c *Calculator) Compute(lines []model.Line, discountPercent decimal.Decimal) model.Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Subtotal())
	}
	subtotal = Round2(subtotal)

	discount := Round2(subtotal.Mul(discountPercent).Div(hundred))
	base := subtotal.Sub(discount)
	if base.IsNegative() {
		base = decimal.Zero
	}

	tax := Round2(base.Mul(c.taxRate))

	return model.Totals{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		TaxAmount:      tax,
		Total:          Round2(base.Add(tax)),
	}
}

// Round2 rounds to two decimal places, halves away from zero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
