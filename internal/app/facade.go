package app

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/posorder/internal/cart"
	"github.com/polkiloo/posorder/internal/domain/model"
	pkgAuth "github.com/polkiloo/posorder/internal/pkg/auth"
	"github.com/polkiloo/posorder/internal/stock"
	"github.com/polkiloo/posorder/internal/usecase"
)

// HealthChecker reports record store reachability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// SalesFacade gathers the operations exposed to point-of-sale clients.
type SalesFacade struct {
	orders    *usecase.OrderUseCase
	cart      *cart.Reconciler
	validator *stock.Validator
	tokens    pkgAuth.Strategy
	health    HealthChecker
}

// NewSalesFacade constructs SalesFacade.
func NewSalesFacade(
	orders *usecase.OrderUseCase,
	reconciler *cart.Reconciler,
	validator *stock.Validator,
	tokens pkgAuth.Strategy,
	health HealthChecker,
) *SalesFacade {
	return &SalesFacade{orders: orders, cart: reconciler, validator: validator, tokens: tokens, health: health}
}

func (f *SalesFacade) ParseToken(token string) (pkgAuth.Claims, error) {
	return f.tokens.ParseToken(token)
}

func (f *SalesFacade) CreateOrder(ctx context.Context, sellerID, customerID string, discountPercent decimal.Decimal) (*model.Order, error) {
	return f.orders.Create(ctx, customerID, sellerID, discountPercent)
}

func (f *SalesFacade) Order(ctx context.Context, orderID int64) (*model.Order, error) {
	return f.orders.Get(ctx, orderID)
}

func (f *SalesFacade) OrderByNumber(ctx context.Context, number string) (*model.Order, error) {
	return f.orders.FindByNumber(ctx, number)
}

func (f *SalesFacade) Orders(ctx context.Context, sellerID string) ([]model.Order, error) {
	return f.orders.ListBySeller(ctx, sellerID)
}

func (f *SalesFacade) OrdersByStatus(ctx context.Context, status model.OrderStatus) ([]model.Order, error) {
	return f.orders.ListByStatus(ctx, status)
}

// Advance moves a checked-out order forward. AVAILABLE_FOR_PAYMENT goes through the
// cart checkout gate so pending mutations and stock are settled first.
func (f *SalesFacade) Advance(ctx context.Context, sellerID string, orderID int64, target model.OrderStatus) (*cart.Outcome, error) {
	if target == model.OrderStatusAvailableForPayment {
		return f.cart.Checkout(ctx, sellerID, orderID)
	}
	order, err := f.orders.Advance(ctx, orderID, target)
	if err != nil {
		return nil, err
	}
	f.cart.Forget(sellerID, orderID)
	return &cart.Outcome{Order: order}, nil
}

func (f *SalesFacade) CancelOrder(ctx context.Context, sellerID string, orderID int64) error {
	return f.cart.Cancel(ctx, sellerID, orderID)
}

func (f *SalesFacade) ContinueEditing(ctx context.Context, sellerID string, orderID int64) (*cart.Outcome, error) {
	return f.cart.ContinueEditing(ctx, sellerID, orderID)
}

func (f *SalesFacade) AddItem(ctx context.Context, sellerID string, orderID, productID int64, quantity int, key string) (*cart.Outcome, error) {
	return f.cart.AddItem(ctx, sellerID, orderID, productID, quantity, key)
}

func (f *SalesFacade) AdjustQuantity(ctx context.Context, sellerID string, orderID, lineID int64, delta int, key string) (*cart.Outcome, error) {
	return f.cart.AdjustQuantity(ctx, sellerID, orderID, lineID, delta, key)
}

func (f *SalesFacade) RemoveItem(ctx context.Context, sellerID string, orderID, productID int64, key string) (*cart.Outcome, error) {
	return f.cart.RemoveItem(ctx, sellerID, orderID, productID, key)
}

func (f *SalesFacade) ClearItems(ctx context.Context, sellerID string, orderID int64, key string) (*cart.Outcome, error) {
	return f.cart.Clear(ctx, sellerID, orderID, key)
}

func (f *SalesFacade) ApplyDiscount(ctx context.Context, sellerID string, orderID int64, percent decimal.Decimal, key string) (*cart.Outcome, error) {
	return f.cart.ApplyDiscount(ctx, sellerID, orderID, percent, key)
}

func (f *SalesFacade) Resync(ctx context.Context, sellerID string, orderID int64) (*cart.Outcome, error) {
	return f.cart.Resync(ctx, sellerID, orderID)
}

func (f *SalesFacade) CartView(sellerID string, orderID int64) (cart.View, bool) {
	return f.cart.Snapshot(sellerID, orderID)
}

func (f *SalesFacade) ValidateStock(ctx context.Context, reqs []model.StockRequest) model.BatchValidation {
	return f.validator.ValidateMany(ctx, reqs)
}

func (f *SalesFacade) HealthCheck(ctx context.Context) error {
	return f.health.HealthCheck(ctx)
}
