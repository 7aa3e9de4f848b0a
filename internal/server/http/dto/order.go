package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateOrderRequest opens an order for a customer.
type CreateOrderRequest struct {
	CustomerID      string          `json:"customer_id"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

// OrderResponse represents an order with its lines and totals.
type OrderResponse struct {
	ID              int64           `json:"id"`
	Number          *string         `json:"number,omitempty"`
	CustomerID      string          `json:"customer_id"`
	SellerID        string          `json:"seller_id"`
	Status          string          `json:"status"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	Total           decimal.Decimal `json:"total"`
	Lines           []LineResponse  `json:"lines"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// LineResponse describes a single order line.
type LineResponse struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// CartStateResponse exposes the seller's mutation session for the order.
type CartStateResponse struct {
	State       string  `json:"state"`
	Busy        []int64 `json:"busy_products,omitempty"`
	NeedsResync bool    `json:"needs_resync"`
}

// OutcomeResponse is returned by cart mutations and transitions.
type OutcomeResponse struct {
	Order      *OrderResponse           `json:"order,omitempty"`
	Validation *StockValidationResponse `json:"validation,omitempty"`
	Batch      *BatchValidationResponse `json:"batch,omitempty"`
	Replayed   bool                     `json:"replayed,omitempty"`
	Cart       *CartStateResponse       `json:"cart,omitempty"`
}
