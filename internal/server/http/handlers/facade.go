package handlers

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/posorder/internal/cart"
	"github.com/polkiloo/posorder/internal/domain/model"
	pkgAuth "github.com/polkiloo/posorder/internal/pkg/auth"
)

// AuthFacade verifies staff tokens.
type AuthFacade interface {
	ParseToken(token string) (pkgAuth.Claims, error)
}

// OrderFacade encapsulates order queries and lifecycle transitions exposed via HTTP.
type OrderFacade interface {
	CreateOrder(ctx context.Context, sellerID, customerID string, discountPercent decimal.Decimal) (*model.Order, error)
	Order(ctx context.Context, orderID int64) (*model.Order, error)
	OrderByNumber(ctx context.Context, number string) (*model.Order, error)
	Orders(ctx context.Context, sellerID string) ([]model.Order, error)
	OrdersByStatus(ctx context.Context, status model.OrderStatus) ([]model.Order, error)
	Advance(ctx context.Context, sellerID string, orderID int64, target model.OrderStatus) (*cart.Outcome, error)
	CancelOrder(ctx context.Context, sellerID string, orderID int64) error
}

// CartFacade covers line and discount edits of an open order.
type CartFacade interface {
	ContinueEditing(ctx context.Context, sellerID string, orderID int64) (*cart.Outcome, error)
	AddItem(ctx context.Context, sellerID string, orderID, productID int64, quantity int, key string) (*cart.Outcome, error)
	AdjustQuantity(ctx context.Context, sellerID string, orderID, lineID int64, delta int, key string) (*cart.Outcome, error)
	RemoveItem(ctx context.Context, sellerID string, orderID, productID int64, key string) (*cart.Outcome, error)
	ClearItems(ctx context.Context, sellerID string, orderID int64, key string) (*cart.Outcome, error)
	ApplyDiscount(ctx context.Context, sellerID string, orderID int64, percent decimal.Decimal, key string) (*cart.Outcome, error)
	Resync(ctx context.Context, sellerID string, orderID int64) (*cart.Outcome, error)
	CartView(sellerID string, orderID int64) (cart.View, bool)
}

// StockFacade runs stock pre-checks.
type StockFacade interface {
	ValidateStock(ctx context.Context, reqs []model.StockRequest) model.BatchValidation
}

// HealthFacade reports dependency health.
type HealthFacade interface {
	HealthCheck(ctx context.Context) error
}

// SalesFacade aggregates the full set of operations used across handlers.
type SalesFacade interface {
	AuthFacade
	OrderFacade
	CartFacade
	StockFacade
	HealthFacade
}
