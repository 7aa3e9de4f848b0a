// Package lifecycle implements the forward-only order status machine:
// PENDING → ADDING_ITEMS → AVAILABLE_FOR_PAYMENT → PAID → DELIVERED → CLOSED.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/posorder/internal/domain/errors"
	"github.com/polkiloo/posorder/internal/domain/model"
	"github.com/polkiloo/posorder/internal/domain/repository"
	"github.com/polkiloo/posorder/internal/metrics"
	"github.com/polkiloo/posorder/internal/pkg/ordernumber"
	"github.com/polkiloo/posorder/internal/pricing"
)

var successors = map[model.OrderStatus]model.OrderStatus{
	model.OrderStatusPending:             model.OrderStatusAddingItems,
	model.OrderStatusAddingItems:         model.OrderStatusAvailableForPayment,
	model.OrderStatusAvailableForPayment: model.OrderStatusPaid,
	model.OrderStatusPaid:                model.OrderStatusDelivered,
	model.OrderStatusDelivered:           model.OrderStatusClosed,
}

var (
	minDiscount = decimal.Zero
	maxDiscount = decimal.NewFromInt(30)
)

// Successor returns the only status an order in s may move to.
func Successor(s model.OrderStatus) (model.OrderStatus, bool) {
	next, ok := successors[s]
	return next, ok
}

// CanTransition reports whether to is the defined successor of from.
func CanTransition(from, to model.OrderStatus) bool {
	next, ok := successors[from]
	return ok && next == to
}

// IsEditable reports whether lines and discount of o may change.
func IsEditable(o *model.Order) bool {
	return o != nil && o.Status.Editable()
}

// ValidateDiscount accepts percents in [0, 30] with at most one fractional digit.
func ValidateDiscount(percent decimal.Decimal) error {
	if percent.LessThan(minDiscount) || percent.GreaterThan(maxDiscount) {
		return fmt.Errorf("discount %s%%: %w", percent, domainErrors.ErrDiscountOutOfRange)
	}
	if !percent.Equal(percent.Truncate(1)) {
		return fmt.Errorf("discount %s%% has more than one fractional digit: %w", percent, domainErrors.ErrDiscountOutOfRange)
	}
	return nil
}

// Machine applies status changes and discount updates through the record store.
type Machine struct {
	orders  repository.OrderRepository
	pricer  *pricing.Calculator
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewMachine constructs a Machine.
func NewMachine(orders repository.OrderRepository, pricer *pricing.Calculator, logger *slog.Logger, m *metrics.Metrics) *Machine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Machine{
		orders:  orders,
		pricer:  pricer,
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}
}

// Transition moves order to target, which must be its defined successor.
// Leaving the editable states recomputes and persists totals first; entering
// AVAILABLE_FOR_PAYMENT assigns the order number.
func (m *Machine) Transition(ctx context.Context, order *model.Order, target model.OrderStatus) (*model.Order, error) {
	if order == nil {
		return nil, domainErrors.ErrNotFound
	}
	if !CanTransition(order.Status, target) {
		m.metrics.Transition(string(target), "illegal")
		return nil, fmt.Errorf("order %d %s -> %s: %w", order.ID, order.Status, target, domainErrors.ErrIllegalTransition)
	}

	lines := order.Lines
	if order.Status.Editable() && !target.Editable() {
		sealed, err := m.seal(ctx, order)
		if err != nil {
			m.metrics.Transition(string(target), "failed")
			return nil, err
		}
		lines = sealed.Lines
	}

	change := model.StatusChange{
		OrderID: order.ID,
		From:    order.Status,
		To:      target,
		Actor:   model.ActorFromContext(ctx),
	}
	if target == model.OrderStatusAvailableForPayment && order.Number == nil {
		n := ordernumber.Generate(order.ID, m.now())
		change.Number = &n
	}

	updated, err := m.orders.SetOrderStatus(ctx, change)
	if err != nil {
		m.metrics.Transition(string(target), "failed")
		return nil, domainErrors.Unavailable(err)
	}
	updated.Lines = lines

	m.metrics.Transition(string(target), "ok")
	m.logger.Info("order status changed",
		slog.Int64("order_id", order.ID),
		slog.String("from", string(change.From)),
		slog.String("to", string(change.To)),
		slog.String("actor", change.Actor),
	)
	return updated, nil
}

// MarkAddingItems moves a PENDING order to ADDING_ITEMS.
func (m *Machine) MarkAddingItems(ctx context.Context, order *model.Order) (*model.Order, error) {
	return m.mark(ctx, order, model.OrderStatusPending, model.OrderStatusAddingItems)
}

// MarkAvailableForPayment seals an ADDING_ITEMS order and assigns its number.
func (m *Machine) MarkAvailableForPayment(ctx context.Context, order *model.Order) (*model.Order, error) {
	return m.mark(ctx, order, model.OrderStatusAddingItems, model.OrderStatusAvailableForPayment)
}

func (m *Machine) MarkPaid(ctx context.Context, order *model.Order) (*model.Order, error) {
	return m.mark(ctx, order, model.OrderStatusAvailableForPayment, model.OrderStatusPaid)
}

func (m *Machine) MarkDelivered(ctx context.Context, order *model.Order) (*model.Order, error) {
	return m.mark(ctx, order, model.OrderStatusPaid, model.OrderStatusDelivered)
}

func (m *Machine) MarkClosed(ctx context.Context, order *model.Order) (*model.Order, error) {
	return m.mark(ctx, order, model.OrderStatusDelivered, model.OrderStatusClosed)
}

func (m *Machine) mark(ctx context.Context, order *model.Order, from, to model.OrderStatus) (*model.Order, error) {
	if order == nil {
		return nil, domainErrors.ErrNotFound
	}
	if order.Status != from {
		return nil, fmt.Errorf("order %d is %s, %s requires %s: %w",
			order.ID, order.Status, to, from, domainErrors.ErrInvalidStateForOperation)
	}
	return m.Transition(ctx, order, to)
}

// ApplyDiscount stores a new discount percent and recomputes totals.
func (m *Machine) ApplyDiscount(ctx context.Context, order *model.Order, percent decimal.Decimal) (*model.Order, error) {
	if err := ValidateDiscount(percent); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domainErrors.ErrNotFound
	}
	if !IsEditable(order) {
		return nil, fmt.Errorf("order %d is %s: %w", order.ID, order.Status, domainErrors.ErrOrderNotEditable)
	}

	if _, err := m.orders.SetOrderDiscount(ctx, order.ID, percent); err != nil {
		return nil, domainErrors.Unavailable(err)
	}
	return m.Recompute(ctx, order.ID)
}

// Recompute derives totals from the persisted lines and discount and stores them when they
// differ. Running it again on unchanged data is a no-op.
func (m *Machine) Recompute(ctx context.Context, orderID int64) (*model.Order, error) {
	fresh, err := m.orders.GetOrderWithLines(ctx, orderID)
	if err != nil {
		return nil, domainErrors.Unavailable(err)
	}

	totals := m.pricer.Compute(fresh.Lines, fresh.DiscountPercent)
	if totals.Equal(fresh.Totals) {
		return fresh, nil
	}

	updated, err := m.orders.SetOrderTotals(ctx, orderID, totals)
	if err != nil {
		return nil, domainErrors.Unavailable(err)
	}
	updated.Lines = fresh.Lines
	return updated, nil
}

// CancelAndClear destroys an order that has not been sealed yet, returning its stock.
func (m *Machine) CancelAndClear(ctx context.Context, order *model.Order) error {
	if order == nil {
		return domainErrors.ErrNotFound
	}
	if !IsEditable(order) {
		return fmt.Errorf("order %d is %s: %w", order.ID, order.Status, domainErrors.ErrOrderNotEditable)
	}
	if err := m.orders.DeleteOrder(ctx, order.ID); err != nil {
		return domainErrors.Unavailable(err)
	}
	m.logger.Info("order cancelled",
		slog.Int64("order_id", order.ID),
		slog.String("actor", model.ActorFromContext(ctx)),
	)
	return nil
}

func (m *Machine) seal(ctx context.Context, order *model.Order) (*model.Order, error) {
	fresh, err := m.Recompute(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if fresh.Status != order.Status {
		return nil, fmt.Errorf("order %d is now %s: %w", order.ID, fresh.Status, domainErrors.ErrStaleOrder)
	}
	return fresh, nil
}
