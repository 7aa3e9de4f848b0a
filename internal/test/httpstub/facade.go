// Package httpstub provides controllable facades for HTTP layer tests.
package httpstub

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/posorder/internal/cart"
	"github.com/polkiloo/posorder/internal/domain/model"
	pkgAuth "github.com/polkiloo/posorder/internal/pkg/auth"
)

// OrderFacadeStub provides controllable behaviour for order endpoints.
type OrderFacadeStub struct {
	CreateFn   func(context.Context, string, string, decimal.Decimal) (*model.Order, error)
	OrderFn    func(context.Context, int64) (*model.Order, error)
	NumberFn   func(context.Context, string) (*model.Order, error)
	OrdersFn   func(context.Context, string) ([]model.Order, error)
	ByStatusFn func(context.Context, model.OrderStatus) ([]model.Order, error)
	AdvanceFn  func(context.Context, string, int64, model.OrderStatus) (*cart.Outcome, error)
	CancelFn   func(context.Context, string, int64) error
}

// CreateOrder delegates to provided function or returns a fresh PENDING order.
func (s OrderFacadeStub) CreateOrder(ctx context.Context, sellerID, customerID string, discountPercent decimal.Decimal) (*model.Order, error) {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, sellerID, customerID, discountPercent)
	}
	return &model.Order{ID: 1, CustomerID: customerID, SellerID: sellerID, Status: model.OrderStatusPending, DiscountPercent: discountPercent}, nil
}

func (s OrderFacadeStub) Order(ctx context.Context, orderID int64) (*model.Order, error) {
	if s.OrderFn != nil {
		return s.OrderFn(ctx, orderID)
	}
	return &model.Order{ID: orderID, Status: model.OrderStatusPending}, nil
}

func (s OrderFacadeStub) OrderByNumber(ctx context.Context, number string) (*model.Order, error) {
	if s.NumberFn != nil {
		return s.NumberFn(ctx, number)
	}
	return &model.Order{ID: 1, Number: &number, Status: model.OrderStatusAvailableForPayment}, nil
}

func (s OrderFacadeStub) Orders(ctx context.Context, sellerID string) ([]model.Order, error) {
	if s.OrdersFn != nil {
		return s.OrdersFn(ctx, sellerID)
	}
	return []model.Order{{ID: 1, SellerID: sellerID, Status: model.OrderStatusPending}}, nil
}

func (s OrderFacadeStub) OrdersByStatus(ctx context.Context, status model.OrderStatus) ([]model.Order, error) {
	if s.ByStatusFn != nil {
		return s.ByStatusFn(ctx, status)
	}
	return []model.Order{{ID: 1, Status: status}}, nil
}

func (s OrderFacadeStub) Advance(ctx context.Context, sellerID string, orderID int64, target model.OrderStatus) (*cart.Outcome, error) {
	if s.AdvanceFn != nil {
		return s.AdvanceFn(ctx, sellerID, orderID, target)
	}
	return &cart.Outcome{Order: &model.Order{ID: orderID, Status: target}}, nil
}

func (s OrderFacadeStub) CancelOrder(ctx context.Context, sellerID string, orderID int64) error {
	if s.CancelFn != nil {
		return s.CancelFn(ctx, sellerID, orderID)
	}
	return nil
}

// CartFacadeStub simulates cart mutations. Unset functions echo an ADDING_ITEMS order.
type CartFacadeStub struct {
	ContinueFn func(context.Context, string, int64) (*cart.Outcome, error)
	AddFn      func(context.Context, string, int64, int64, int, string) (*cart.Outcome, error)
	AdjustFn   func(context.Context, string, int64, int64, int, string) (*cart.Outcome, error)
	RemoveFn   func(context.Context, string, int64, int64, string) (*cart.Outcome, error)
	ClearFn    func(context.Context, string, int64, string) (*cart.Outcome, error)
	DiscountFn func(context.Context, string, int64, decimal.Decimal, string) (*cart.Outcome, error)
	ResyncFn   func(context.Context, string, int64) (*cart.Outcome, error)
	ViewFn     func(string, int64) (cart.View, bool)
}

func editing(orderID int64) *cart.Outcome {
	return &cart.Outcome{Order: &model.Order{ID: orderID, Status: model.OrderStatusAddingItems}}
}

func (s CartFacadeStub) ContinueEditing(ctx context.Context, sellerID string, orderID int64) (*cart.Outcome, error) {
	if s.ContinueFn != nil {
		return s.ContinueFn(ctx, sellerID, orderID)
	}
	return editing(orderID), nil
}

func (s CartFacadeStub) AddItem(ctx context.Context, sellerID string, orderID, productID int64, quantity int, key string) (*cart.Outcome, error) {
	if s.AddFn != nil {
		return s.AddFn(ctx, sellerID, orderID, productID, quantity, key)
	}
	return editing(orderID), nil
}

func (s CartFacadeStub) AdjustQuantity(ctx context.Context, sellerID string, orderID, lineID int64, delta int, key string) (*cart.Outcome, error) {
	if s.AdjustFn != nil {
		return s.AdjustFn(ctx, sellerID, orderID, lineID, delta, key)
	}
	return editing(orderID), nil
}

func (s CartFacadeStub) RemoveItem(ctx context.Context, sellerID string, orderID, productID int64, key string) (*cart.Outcome, error) {
	if s.RemoveFn != nil {
		return s.RemoveFn(ctx, sellerID, orderID, productID, key)
	}
	return editing(orderID), nil
}

func (s CartFacadeStub) ClearItems(ctx context.Context, sellerID string, orderID int64, key string) (*cart.Outcome, error) {
	if s.ClearFn != nil {
		return s.ClearFn(ctx, sellerID, orderID, key)
	}
	return editing(orderID), nil
}

func (s CartFacadeStub) ApplyDiscount(ctx context.Context, sellerID string, orderID int64, percent decimal.Decimal, key string) (*cart.Outcome, error) {
	if s.DiscountFn != nil {
		return s.DiscountFn(ctx, sellerID, orderID, percent, key)
	}
	out := editing(orderID)
	out.Order.DiscountPercent = percent
	return out, nil
}

func (s CartFacadeStub) Resync(ctx context.Context, sellerID string, orderID int64) (*cart.Outcome, error) {
	if s.ResyncFn != nil {
		return s.ResyncFn(ctx, sellerID, orderID)
	}
	return editing(orderID), nil
}

func (s CartFacadeStub) CartView(sellerID string, orderID int64) (cart.View, bool) {
	if s.ViewFn != nil {
		return s.ViewFn(sellerID, orderID)
	}
	return cart.View{}, false
}

// StockFacadeStub returns a fixed batch or echoes every request as valid.
type StockFacadeStub struct {
	ValidateFn func(context.Context, []model.StockRequest) model.BatchValidation
}

func (s StockFacadeStub) ValidateStock(ctx context.Context, reqs []model.StockRequest) model.BatchValidation {
	if s.ValidateFn != nil {
		return s.ValidateFn(ctx, reqs)
	}
	batch := model.BatchValidation{Results: make(map[int64]model.StockValidation, len(reqs)), AllValid: true}
	for _, r := range reqs {
		batch.Results[r.ProductID] = model.StockValidation{ProductID: r.ProductID, Requested: r.Quantity, IsValid: true, Reason: model.StockReasonOK}
		batch.TotalValid++
	}
	return batch
}

// HealthFacadeStub reports Err from HealthCheck.
type HealthFacadeStub struct {
	Err error
}

func (s HealthFacadeStub) HealthCheck(context.Context) error {
	return s.Err
}

// TokenFacadeStub accepts any token as StaffID unless Err is set.
type TokenFacadeStub struct {
	StaffID string
	Err     error
}

func (s TokenFacadeStub) ParseToken(string) (pkgAuth.Claims, error) {
	if s.Err != nil {
		return pkgAuth.Claims{}, s.Err
	}
	staff := s.StaffID
	if staff == "" {
		staff = "staff-1"
	}
	return pkgAuth.Claims{StaffID: staff, Role: "seller"}, nil
}

// SalesFacadeStub aggregates facade dependencies for HTTP layer tests.
type SalesFacadeStub struct {
	TokenFacadeStub
	OrderFacadeStub
	CartFacadeStub
	StockFacadeStub
	HealthFacadeStub
}
