package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/posorder/internal/domain/model"
)

// OrderRepository is the authoritative record store for orders, lines and stock counters.
type OrderRepository interface {
	CreateOrder(ctx context.Context, customerID, sellerID string, discountPercent decimal.Decimal) (*model.Order, error)
	GetOrder(ctx context.Context, orderID int64) (*model.Order, error)
	GetOrderWithLines(ctx context.Context, orderID int64) (*model.Order, error)
	GetOrderByNumber(ctx context.Context, number string) (*model.Order, error)
	ListOrdersBySeller(ctx context.Context, sellerID string) ([]model.Order, error)
	ListOrdersByStatus(ctx context.Context, status model.OrderStatus) ([]model.Order, error)

	GetLine(ctx context.Context, lineID int64) (*model.Line, error)
	// CreateLine decrements product stock and captures the current unit price.
	CreateLine(ctx context.Context, orderID, productID int64, quantity int) (*model.Line, error)
	// UpdateLineQuantity applies the quantity delta to product stock.
	UpdateLineQuantity(ctx context.Context, lineID int64, quantity int) (*model.Line, error)
	// DeleteLine returns the held quantity to product stock.
	DeleteLine(ctx context.Context, lineID int64) error

	// SetOrderStatus performs a compare-and-set on change.From and records a lifecycle event.
	SetOrderStatus(ctx context.Context, change model.StatusChange) (*model.Order, error)
	SetOrderDiscount(ctx context.Context, orderID int64, percent decimal.Decimal) (*model.Order, error)
	SetOrderTotals(ctx context.Context, orderID int64, totals model.Totals) (*model.Order, error)
	DeleteOrder(ctx context.Context, orderID int64) error
}
