package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/posorder/internal/domain/errors"
	"github.com/polkiloo/posorder/internal/domain/model"
	"github.com/polkiloo/posorder/internal/domain/repository"
	"github.com/polkiloo/posorder/internal/lifecycle"
	"github.com/polkiloo/posorder/internal/pkg/ordernumber"
)

// OrderUseCase covers order creation, queries and cancellation.
type OrderUseCase struct {
	orders  repository.OrderRepository
	machine *lifecycle.Machine
	logger  *slog.Logger
}

// NewOrderUseCase constructs OrderUseCase.
func NewOrderUseCase(orders repository.OrderRepository, machine *lifecycle.Machine, logger *slog.Logger) *OrderUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderUseCase{orders: orders, machine: machine, logger: logger}
}

// Create opens a PENDING order for customerID sold by sellerID.
func (u *OrderUseCase) Create(ctx context.Context, customerID, sellerID string, discountPercent decimal.Decimal) (*model.Order, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" || sellerID == "" {
		return nil, fmt.Errorf("customer and seller are required: %w", domainErrors.ErrInvalidStateForOperation)
	}
	if err := lifecycle.ValidateDiscount(discountPercent); err != nil {
		return nil, err
	}

	order, err := u.orders.CreateOrder(ctx, customerID, sellerID, discountPercent)
	if err != nil {
		return nil, domainErrors.Unavailable(err)
	}
	order.Lines = []model.Line{}

	u.logger.Info("order created",
		slog.Int64("order_id", order.ID),
		slog.String("seller_id", sellerID),
	)
	return order, nil
}

// Get returns the order with its lines.
func (u *OrderUseCase) Get(ctx context.Context, orderID int64) (*model.Order, error) {
	order, err := u.orders.GetOrderWithLines(ctx, orderID)
	if err != nil {
		return nil, domainErrors.Unavailable(err)
	}
	return order, nil
}

// FindByNumber returns the order carrying number. Numbers failing the checksum are rejected
// without a store lookup.
func (u *OrderUseCase) FindByNumber(ctx context.Context, number string) (*model.Order, error) {
	if !ordernumber.Validate(number) {
		return nil, domainErrors.ErrInvalidOrderNumber
	}
	order, err := u.orders.GetOrderByNumber(ctx, number)
	if err != nil {
		return nil, domainErrors.Unavailable(err)
	}
	return order, nil
}

// ListBySeller returns orders opened by sellerID.
func (u *OrderUseCase) ListBySeller(ctx context.Context, sellerID string) ([]model.Order, error) {
	orders, err := u.orders.ListOrdersBySeller(ctx, sellerID)
	if err != nil {
		return nil, domainErrors.Unavailable(err)
	}
	return orders, nil
}

// ListByStatus returns orders currently in status.
func (u *OrderUseCase) ListByStatus(ctx context.Context, status model.OrderStatus) ([]model.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("unknown status %q: %w", status, domainErrors.ErrInvalidStateForOperation)
	}
	orders, err := u.orders.ListOrdersByStatus(ctx, status)
	if err != nil {
		return nil, domainErrors.Unavailable(err)
	}
	return orders, nil
}

// Advance moves the order to target through the matching named transition.
func (u *OrderUseCase) Advance(ctx context.Context, orderID int64, target model.OrderStatus) (*model.Order, error) {
	order, err := u.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	switch target {
	case model.OrderStatusPaid:
		return u.machine.MarkPaid(ctx, order)
	case model.OrderStatusDelivered:
		return u.machine.MarkDelivered(ctx, order)
	case model.OrderStatusClosed:
		return u.machine.MarkClosed(ctx, order)
	default:
		return u.machine.Transition(ctx, order, target)
	}
}
