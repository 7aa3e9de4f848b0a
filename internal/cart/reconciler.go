// Package cart keeps seller-scoped projections of editable orders in step with the
// record store. Each session runs at most one mutation at a time.
package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/posorder/internal/domain/errors"
	"github.com/polkiloo/posorder/internal/domain/model"
	"github.com/polkiloo/posorder/internal/domain/repository"
	"github.com/polkiloo/posorder/internal/lifecycle"
	"github.com/polkiloo/posorder/internal/metrics"
	"github.com/polkiloo/posorder/internal/pricing"
	"github.com/polkiloo/posorder/internal/stock"
)

const defaultMutationTimeout = 5 * time.Second

// Outcome is the result of a mutation. On failure it still carries the confirmed
// projection and, when the stock pre-check refused the mutation, the validation report.
type Outcome struct {
	Order      *model.Order
	Validation *model.StockValidation
	Batch      *model.BatchValidation
	Replayed   bool
}

// Reconciler applies cart mutations through the record store.
type Reconciler struct {
	orders    repository.OrderRepository
	validator *stock.Validator
	machine   *lifecycle.Machine
	pricer    *pricing.Calculator
	timeout   time.Duration
	logger    *slog.Logger
	metrics   *metrics.Metrics

	mu       sync.Mutex
	sessions map[sessionKey]*session
}

// NewReconciler constructs a Reconciler. A non-positive timeout falls back to five seconds.
func NewReconciler(
	orders repository.OrderRepository,
	validator *stock.Validator,
	machine *lifecycle.Machine,
	pricer *pricing.Calculator,
	timeout time.Duration,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Reconciler {
	if timeout <= 0 {
		timeout = defaultMutationTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		orders:    orders,
		validator: validator,
		machine:   machine,
		pricer:    pricer,
		timeout:   timeout,
		logger:    logger,
		metrics:   m,
		sessions:  make(map[sessionKey]*session),
	}
}

// mutation describes one serialized operation against a session.
type mutation struct {
	op string
	// key is the optional idempotency key of the request.
	key string
	// editable rejects the mutation unless the fresh order is editable.
	editable bool
	// resync forces a recompute from persisted lines before apply runs.
	resync bool
	// product names the product the mutation touches, for busy flags.
	product func(*model.Order) int64
	// apply performs the store writes. written reports whether any write may have landed.
	apply func(ctx context.Context, order *model.Order, out *Outcome) (result *model.Order, written bool, err error)
}

// AddItem adds quantity units of productID. A product already in the order is merged into
// its existing line.
func (r *Reconciler) AddItem(ctx context.Context, sellerID string, orderID, productID int64, quantity int, key string) (*Outcome, error) {
	return r.run(ctx, sellerID, orderID, mutation{
		op:       "add_item",
		key:      key,
		editable: true,
		product:  func(*model.Order) int64 { return productID },
		apply: func(ctx context.Context, order *model.Order, out *Outcome) (*model.Order, bool, error) {
			if quantity < 1 {
				// adding never shrinks a line; that is AdjustQuantity's job
				res := r.validator.Validate(ctx, model.StockRequest{ProductID: productID, Quantity: quantity})
				out.Validation = &res
				return nil, false, stock.ResultError(res)
			}
			if existing, ok := order.LineByProduct(productID); ok {
				return r.setQuantity(ctx, order, existing, existing.Quantity+quantity, out)
			}

			res := r.validator.Validate(ctx, model.StockRequest{ProductID: productID, Quantity: quantity})
			out.Validation = &res
			if err := stock.ResultError(res); err != nil {
				return nil, false, err
			}

			line, err := r.orders.CreateLine(ctx, order.ID, productID, quantity)
			if err != nil {
				return nil, domainErrors.IsRetryable(domainErrors.Unavailable(err)), domainErrors.Unavailable(err)
			}

			lines := append(append([]model.Line(nil), order.Lines...), *line)
			return r.persistTotals(ctx, order, lines)
		},
	})
}

// AdjustQuantity changes the quantity of a line by delta. A resulting quantity of zero or
// less deletes the line.
func (r *Reconciler) AdjustQuantity(ctx context.Context, sellerID string, orderID, lineID int64, delta int, key string) (*Outcome, error) {
	return r.run(ctx, sellerID, orderID, mutation{
		op:       "adjust_quantity",
		key:      key,
		editable: true,
		product: func(o *model.Order) int64 {
			l, _ := o.LineByID(lineID)
			return l.ProductID
		},
		apply: func(ctx context.Context, order *model.Order, out *Outcome) (*model.Order, bool, error) {
			line, ok := order.LineByID(lineID)
			if !ok {
				return nil, false, fmt.Errorf("line %d of order %d: %w", lineID, orderID, domainErrors.ErrNotFound)
			}
			if delta == 0 {
				return order, false, nil
			}
			return r.setQuantity(ctx, order, line, line.Quantity+delta, out)
		},
	})
}

// RemoveItem deletes the line holding productID. Removing an absent product is a no-op.
func (r *Reconciler) RemoveItem(ctx context.Context, sellerID string, orderID, productID int64, key string) (*Outcome, error) {
	return r.run(ctx, sellerID, orderID, mutation{
		op:       "remove_item",
		key:      key,
		editable: true,
		product:  func(*model.Order) int64 { return productID },
		apply: func(ctx context.Context, order *model.Order, _ *Outcome) (*model.Order, bool, error) {
			line, ok := order.LineByProduct(productID)
			if !ok {
				return order, false, nil
			}
			return r.deleteLine(ctx, order, line)
		},
	})
}

// Clear removes every line, resets the discount and zeroes the totals.
func (r *Reconciler) Clear(ctx context.Context, sellerID string, orderID int64, key string) (*Outcome, error) {
	return r.run(ctx, sellerID, orderID, mutation{
		op:       "clear",
		key:      key,
		editable: true,
		apply: func(ctx context.Context, order *model.Order, _ *Outcome) (*model.Order, bool, error) {
			written := false
			for _, l := range order.Lines {
				if err := r.orders.DeleteLine(ctx, l.ID); err != nil && !errors.Is(err, domainErrors.ErrNotFound) {
					return nil, written || domainErrors.IsRetryable(domainErrors.Unavailable(err)), domainErrors.Unavailable(err)
				}
				written = true
			}

			cleared := order.Clone()
			cleared.Lines = []model.Line{}
			if !order.DiscountPercent.IsZero() {
				if _, err := r.orders.SetOrderDiscount(ctx, order.ID, decimal.Zero); err != nil {
					return nil, true, domainErrors.Unavailable(err)
				}
				written = true
				cleared.DiscountPercent = decimal.Zero
			}

			result, w, err := r.persistTotals(ctx, cleared, cleared.Lines)
			return result, written || w, err
		},
	})
}

// ApplyDiscount sets the discount percent of the order and recomputes its totals.
func (r *Reconciler) ApplyDiscount(ctx context.Context, sellerID string, orderID int64, percent decimal.Decimal, key string) (*Outcome, error) {
	return r.run(ctx, sellerID, orderID, mutation{
		op:       "apply_discount",
		key:      key,
		editable: true,
		apply: func(ctx context.Context, order *model.Order, _ *Outcome) (*model.Order, bool, error) {
			updated, err := r.machine.ApplyDiscount(ctx, order, percent)
			if err != nil {
				return nil, domainErrors.IsRetryable(err), err
			}
			return updated, true, nil
		},
	})
}

// ContinueEditing moves a PENDING order to ADDING_ITEMS. An order already in ADDING_ITEMS is
// returned unchanged.
func (r *Reconciler) ContinueEditing(ctx context.Context, sellerID string, orderID int64) (*Outcome, error) {
	return r.run(ctx, sellerID, orderID, mutation{
		op:       "continue_editing",
		editable: true,
		apply: func(ctx context.Context, order *model.Order, _ *Outcome) (*model.Order, bool, error) {
			if order.Status == model.OrderStatusAddingItems {
				return order, false, nil
			}
			updated, err := r.machine.MarkAddingItems(ctx, order)
			if err != nil {
				return nil, domainErrors.IsRetryable(err), err
			}
			return updated, true, nil
		},
	})
}

// Checkout seals the order: it recomputes totals, re-validates the stock of every line and
// moves the order to AVAILABLE_FOR_PAYMENT, which assigns its number.
func (r *Reconciler) Checkout(ctx context.Context, sellerID string, orderID int64) (*Outcome, error) {
	out, err := r.run(ctx, sellerID, orderID, mutation{
		op:       "checkout",
		editable: true,
		resync:   true,
		apply: func(ctx context.Context, order *model.Order, out *Outcome) (*model.Order, bool, error) {
			if len(order.Lines) == 0 {
				return nil, false, fmt.Errorf("order %d: %w", order.ID, domainErrors.ErrEmptyOrder)
			}

			reqs := make([]model.StockRequest, 0, len(order.Lines))
			for _, l := range order.Lines {
				lineID := l.ID
				reqs = append(reqs, model.StockRequest{ProductID: l.ProductID, Quantity: l.Quantity, ExistingLineID: &lineID})
			}
			batch := r.validator.ValidateMany(ctx, reqs)
			out.Batch = &batch
			if !batch.AllValid {
				return nil, false, batchError(batch)
			}

			written := false
			current := order
			if current.Status == model.OrderStatusPending {
				next, err := r.machine.MarkAddingItems(ctx, current)
				if err != nil {
					return nil, domainErrors.IsRetryable(err), err
				}
				written = true
				current = next
			}
			sealed, err := r.machine.MarkAvailableForPayment(ctx, current)
			if err != nil {
				return nil, written || domainErrors.IsRetryable(err), err
			}
			return sealed, true, nil
		},
	})
	if err == nil {
		r.Forget(sellerID, orderID)
	}
	return out, err
}

// Cancel destroys an editable order and returns its stock. Like any other mutation it is
// rejected while one is pending for the session.
func (r *Reconciler) Cancel(ctx context.Context, sellerID string, orderID int64) error {
	_, err := r.run(ctx, sellerID, orderID, mutation{
		op:       "cancel",
		editable: true,
		apply: func(ctx context.Context, order *model.Order, _ *Outcome) (*model.Order, bool, error) {
			if err := r.machine.CancelAndClear(ctx, order); err != nil {
				return nil, domainErrors.IsRetryable(err), err
			}
			return order, true, nil
		},
	})
	if err == nil {
		r.Forget(sellerID, orderID)
	}
	return err
}

// Resync replaces the projection with the record store state and repairs persisted totals.
func (r *Reconciler) Resync(ctx context.Context, sellerID string, orderID int64) (*Outcome, error) {
	return r.run(ctx, sellerID, orderID, mutation{
		op:     "resync",
		resync: true,
		apply: func(_ context.Context, order *model.Order, _ *Outcome) (*model.Order, bool, error) {
			return order, false, nil
		},
	})
}

// Snapshot returns a copy of the session for sellerID and orderID.
func (r *Reconciler) Snapshot(sellerID string, orderID int64) (View, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionKey{sellerID: sellerID, orderID: orderID}]
	if !ok {
		return View{}, false
	}
	v := View{State: s.state, Confirmed: s.confirmed.Clone(), NeedsResync: s.needsResync}
	for id := range s.busy {
		v.Busy = append(v.Busy, id)
	}
	sort.Slice(v.Busy, func(i, j int) bool { return v.Busy[i] < v.Busy[j] })
	return v, true
}

// Forget drops the session of an order that is no longer edited by sellerID.
func (r *Reconciler) Forget(sellerID string, orderID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionKey{sellerID: sellerID, orderID: orderID})
}

func (r *Reconciler) session(sellerID string, orderID int64) *session {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := sessionKey{sellerID: sellerID, orderID: orderID}
	s, ok := r.sessions[key]
	if !ok {
		s = newSession()
		r.sessions[key] = s
	}
	return s
}

// drop removes s unless another session already replaced it.
func (r *Reconciler) drop(sellerID string, orderID int64, s *session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := sessionKey{sellerID: sellerID, orderID: orderID}
	if r.sessions[key] == s {
		delete(r.sessions, key)
	}
}

func (r *Reconciler) run(ctx context.Context, sellerID string, orderID int64, mut mutation) (*Outcome, error) {
	s := r.session(sellerID, orderID)

	r.mu.Lock()
	if s.state == StatePending {
		out := &Outcome{Order: s.confirmed.Clone()}
		r.mu.Unlock()
		r.metrics.CartMutation(mut.op, "rejected")
		return out, fmt.Errorf("order %d: %w", orderID, domainErrors.ErrMutationPending)
	}
	_, replay := s.applied[mut.key]
	replay = replay && mut.key != ""
	if replay && !s.needsResync {
		out := &Outcome{Order: s.confirmed.Clone(), Replayed: true}
		r.mu.Unlock()
		r.metrics.CartMutation(mut.op, "replayed")
		return out, nil
	}
	s.state = StatePending
	resync := s.needsResync || mut.resync
	previous := s.confirmed
	r.mu.Unlock()

	// Mutations run to completion even when the caller goes away.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	out := &Outcome{}
	order, err := r.load(ctx, orderID, resync)
	if err != nil {
		r.finish(s, mut, previous, nil, false, err)
		if errors.Is(err, domainErrors.ErrNotFound) {
			r.drop(sellerID, orderID, s)
		}
		out.Order = previous.Clone()
		return out, err
	}

	// sessions only track orders that can still be edited
	if !lifecycle.IsEditable(order) {
		defer r.drop(sellerID, orderID, s)
	}

	if replay {
		r.finish(s, mut, order, order, false, nil)
		out.Order = order.Clone()
		out.Replayed = true
		return out, nil
	}

	if mut.editable && !lifecycle.IsEditable(order) {
		if previous != nil && previous.Status != order.Status {
			err = fmt.Errorf("order %d is now %s: %w", orderID, order.Status, domainErrors.ErrStaleOrder)
		} else {
			err = fmt.Errorf("order %d is %s: %w", orderID, order.Status, domainErrors.ErrOrderNotEditable)
		}
		r.finish(s, mut, order, nil, false, err)
		out.Order = order.Clone()
		return out, err
	}

	if mut.product != nil {
		r.setBusy(s, mut.product(order), true)
		defer r.setBusy(s, mut.product(order), false)
	}

	result, written, err := mut.apply(ctx, order, out)
	if err != nil {
		r.finish(s, mut, order, nil, written, err)
		out.Order = order.Clone()
		return out, err
	}

	r.finish(s, mut, order, result, written, nil)
	out.Order = result.Clone()
	return out, nil
}

// load reads the order with its lines, recomputing persisted totals first when resync is set.
func (r *Reconciler) load(ctx context.Context, orderID int64, resync bool) (*model.Order, error) {
	if resync {
		return r.machine.Recompute(ctx, orderID)
	}
	order, err := r.orders.GetOrderWithLines(ctx, orderID)
	if err != nil {
		return nil, domainErrors.Unavailable(err)
	}
	return order, nil
}

// finish records the mutation outcome. On failure the projection falls back to the last
// order read before the mutation, and a possibly landed write forces a resync.
func (r *Reconciler) finish(s *session, mut mutation, before, result *model.Order, written bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err != nil {
		s.state = StateRolledBack
		if before != nil {
			s.confirmed = before
		}
		if written || domainErrors.IsRetryable(err) {
			s.needsResync = true
		}
		if written && mut.key != "" {
			s.applied[mut.key] = struct{}{}
		}
		r.metrics.CartMutation(mut.op, "rolled_back")
		r.logger.Warn("cart mutation rolled back",
			slog.String("operation", mut.op),
			slog.Bool("needs_resync", s.needsResync),
			slog.String("error", err.Error()),
		)
		return
	}

	s.state = StateCommitted
	s.confirmed = result
	s.needsResync = false
	if mut.key != "" {
		s.applied[mut.key] = struct{}{}
	}
	r.metrics.CartMutation(mut.op, "committed")
	r.logger.Debug("cart mutation committed",
		slog.String("operation", mut.op),
		slog.Int64("order_id", result.ID),
		slog.Bool("written", written),
	)
}

func (r *Reconciler) setBusy(s *session, productID int64, busy bool) {
	if productID == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if busy {
		s.busy[productID] = struct{}{}
	} else {
		delete(s.busy, productID)
	}
}

// setQuantity validates and stores a new quantity for line, deleting it when quantity <= 0.
func (r *Reconciler) setQuantity(ctx context.Context, order *model.Order, line model.Line, quantity int, out *Outcome) (*model.Order, bool, error) {
	if quantity <= 0 {
		return r.deleteLine(ctx, order, line)
	}

	lineID := line.ID
	res := r.validator.Validate(ctx, model.StockRequest{ProductID: line.ProductID, Quantity: quantity, ExistingLineID: &lineID})
	out.Validation = &res
	if err := stock.ResultError(res); err != nil {
		return nil, false, err
	}

	updated, err := r.orders.UpdateLineQuantity(ctx, line.ID, quantity)
	if err != nil {
		return nil, domainErrors.IsRetryable(domainErrors.Unavailable(err)), domainErrors.Unavailable(err)
	}

	lines := make([]model.Line, len(order.Lines))
	for i, l := range order.Lines {
		if l.ID == updated.ID {
			l = *updated
		}
		lines[i] = l
	}
	return r.persistTotals(ctx, order, lines)
}

func (r *Reconciler) deleteLine(ctx context.Context, order *model.Order, line model.Line) (*model.Order, bool, error) {
	if err := r.orders.DeleteLine(ctx, line.ID); err != nil && !errors.Is(err, domainErrors.ErrNotFound) {
		return nil, domainErrors.IsRetryable(domainErrors.Unavailable(err)), domainErrors.Unavailable(err)
	}

	lines := make([]model.Line, 0, len(order.Lines))
	for _, l := range order.Lines {
		if l.ID != line.ID {
			lines = append(lines, l)
		}
	}
	return r.persistTotals(ctx, order, lines)
}

// persistTotals recomputes totals over lines and stores them. The lines are already
// persisted, so the result always counts as written.
func (r *Reconciler) persistTotals(ctx context.Context, order *model.Order, lines []model.Line) (*model.Order, bool, error) {
	totals := r.pricer.Compute(lines, order.DiscountPercent)
	updated, err := r.orders.SetOrderTotals(ctx, order.ID, totals)
	if err != nil {
		return nil, true, domainErrors.Unavailable(err)
	}
	updated.Lines = lines
	return updated, true, nil
}

func batchError(batch model.BatchValidation) error {
	ids := make([]int64, 0, len(batch.Results))
	for id := range batch.Results {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		if res := batch.Results[id]; res.Reason == model.StockReasonUnknownAvailability {
			return fmt.Errorf("%d of %d products could not be checked: %w",
				batch.TotalInvalid, len(batch.Results), domainErrors.ErrUnknownAvailability)
		}
	}
	return fmt.Errorf("%d of %d products short: %w",
		batch.TotalInvalid, len(batch.Results), domainErrors.ErrInsufficientStock)
}
