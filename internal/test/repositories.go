package test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/posorder/internal/domain/errors"
	"github.com/polkiloo/posorder/internal/domain/model"
)

// Product is a catalog entry of the in-memory store.
type Product struct {
	Stock     int
	UnitPrice decimal.Decimal
}

// OrderStoreStub keeps orders, lines and stock counters in memory with record store semantics.
// Errors queued in FailOnce are returned by the named method once, before any change is made.
// Errors queued in FailAfter are returned once after the method has applied its change,
// which simulates a lost response.
type OrderStoreStub struct {
	mu sync.Mutex

	Products  map[int64]*Product
	Orders    map[int64]*model.Order
	Lines     map[int64]*model.Line
	Changes   []model.StatusChange
	FailOnce  map[string]error
	FailAfter map[string]error
	Calls     map[string]int
	Err       error

	nextOrder int64
	nextLine  int64
	now       func() time.Time
}

// NewOrderStoreStub constructs an empty store.
func NewOrderStoreStub() *OrderStoreStub {
	return &OrderStoreStub{
		Products:  make(map[int64]*Product),
		Orders:    make(map[int64]*model.Order),
		Lines:     make(map[int64]*model.Line),
		FailOnce:  make(map[string]error),
		FailAfter: make(map[string]error),
		Calls:     make(map[string]int),
		nextOrder: 1,
		nextLine:  1,
		now:       func() time.Time { return time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC) },
	}
}

// AddProduct registers a product with stock and price.
func (s *OrderStoreStub) AddProduct(id int64, stock int, unitPrice string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Products[id] = &Product{Stock: stock, UnitPrice: decimal.RequireFromString(unitPrice)}
}

// Stock returns the current stock counter of a product.
func (s *OrderStoreStub) Stock(id int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.Products[id]; ok {
		return p.Stock
	}
	return 0
}

// ForceStatus overwrites an order status, simulating a concurrent writer.
func (s *OrderStoreStub) ForceStatus(orderID int64, status model.OrderStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.Orders[orderID]; ok {
		o.Status = status
	}
}

// CallCount returns how often a method was invoked.
func (s *OrderStoreStub) CallCount(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Calls[method]
}

func (s *OrderStoreStub) enter(method string) error {
	s.Calls[method]++
	if s.Err != nil {
		return s.Err
	}
	if err, ok := s.FailOnce[method]; ok {
		delete(s.FailOnce, method)
		return err
	}
	return nil
}

func (s *OrderStoreStub) leave(method string) error {
	if err, ok := s.FailAfter[method]; ok {
		delete(s.FailAfter, method)
		return err
	}
	return nil
}

// CreateOrder opens a PENDING order.
func (s *OrderStoreStub) CreateOrder(ctx context.Context, customerID, sellerID string, discountPercent decimal.Decimal) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("CreateOrder"); err != nil {
		return nil, err
	}
	o := &model.Order{
		ID:              s.nextOrder,
		CustomerID:      customerID,
		SellerID:        sellerID,
		Status:          model.OrderStatusPending,
		DiscountPercent: discountPercent,
		CreatedAt:       s.now(),
		UpdatedAt:       s.now(),
	}
	s.nextOrder++
	s.Orders[o.ID] = o
	return s.snapshot(o, false), s.leave("CreateOrder")
}

// GetOrder returns an order without lines.
func (s *OrderStoreStub) GetOrder(ctx context.Context, orderID int64) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetOrder"); err != nil {
		return nil, err
	}
	o, ok := s.Orders[orderID]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return s.snapshot(o, false), nil
}

// GetOrderWithLines returns an order and its lines ordered by id.
func (s *OrderStoreStub) GetOrderWithLines(ctx context.Context, orderID int64) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetOrderWithLines"); err != nil {
		return nil, err
	}
	o, ok := s.Orders[orderID]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return s.snapshot(o, true), nil
}

// GetOrderByNumber finds an order by its generated number.
func (s *OrderStoreStub) GetOrderByNumber(ctx context.Context, number string) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetOrderByNumber"); err != nil {
		return nil, err
	}
	for _, o := range s.Orders {
		if o.Number != nil && *o.Number == number {
			return s.snapshot(o, true), nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

// ListOrdersBySeller returns the seller's orders by id.
func (s *OrderStoreStub) ListOrdersBySeller(ctx context.Context, sellerID string) ([]model.Order, error) {
	return s.list("ListOrdersBySeller", func(o *model.Order) bool { return o.SellerID == sellerID })
}

// ListOrdersByStatus returns orders in the given status by id.
func (s *OrderStoreStub) ListOrdersByStatus(ctx context.Context, status model.OrderStatus) ([]model.Order, error) {
	return s.list("ListOrdersByStatus", func(o *model.Order) bool { return o.Status == status })
}

func (s *OrderStoreStub) list(method string, match func(*model.Order) bool) ([]model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(method); err != nil {
		return nil, err
	}
	out := make([]model.Order, 0)
	for _, o := range s.Orders {
		if match(o) {
			out = append(out, *s.snapshot(o, false))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetLine returns a single line.
func (s *OrderStoreStub) GetLine(ctx context.Context, lineID int64) (*model.Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetLine"); err != nil {
		return nil, err
	}
	l, ok := s.Lines[lineID]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

// CreateLine decrements stock and captures the unit price.
func (s *OrderStoreStub) CreateLine(ctx context.Context, orderID, productID int64, quantity int) (*model.Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("CreateLine"); err != nil {
		return nil, err
	}
	if err := s.editable(orderID); err != nil {
		return nil, err
	}
	p, ok := s.Products[productID]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	if p.Stock < quantity {
		return nil, domainErrors.ErrInsufficientStock
	}
	p.Stock -= quantity
	l := &model.Line{
		ID:        s.nextLine,
		OrderID:   orderID,
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: p.UnitPrice,
		CreatedAt: s.now(),
	}
	s.nextLine++
	s.Lines[l.ID] = l
	cp := *l
	return &cp, s.leave("CreateLine")
}

// UpdateLineQuantity moves the quantity delta between the line and stock.
func (s *OrderStoreStub) UpdateLineQuantity(ctx context.Context, lineID int64, quantity int) (*model.Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("UpdateLineQuantity"); err != nil {
		return nil, err
	}
	l, ok := s.Lines[lineID]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	if err := s.editable(l.OrderID); err != nil {
		return nil, err
	}
	if quantity <= 0 {
		return nil, domainErrors.ErrInvalidQuantity
	}
	p := s.Products[l.ProductID]
	delta := quantity - l.Quantity
	if delta > 0 && p.Stock < delta {
		return nil, domainErrors.ErrInsufficientStock
	}
	p.Stock -= delta
	l.Quantity = quantity
	cp := *l
	return &cp, s.leave("UpdateLineQuantity")
}

// DeleteLine removes a line and restores its stock.
func (s *OrderStoreStub) DeleteLine(ctx context.Context, lineID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("DeleteLine"); err != nil {
		return err
	}
	l, ok := s.Lines[lineID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	if err := s.editable(l.OrderID); err != nil {
		return err
	}
	if p, ok := s.Products[l.ProductID]; ok {
		p.Stock += l.Quantity
	}
	delete(s.Lines, lineID)
	return s.leave("DeleteLine")
}

// SetOrderStatus applies a compare-and-set status change.
func (s *OrderStoreStub) SetOrderStatus(ctx context.Context, change model.StatusChange) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("SetOrderStatus"); err != nil {
		return nil, err
	}
	o, ok := s.Orders[change.OrderID]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	if o.Status != change.From {
		return nil, fmt.Errorf("order %d is %s: %w", o.ID, o.Status, domainErrors.ErrStaleOrder)
	}
	o.Status = change.To
	if o.Number == nil && change.Number != nil {
		n := *change.Number
		o.Number = &n
	}
	o.UpdatedAt = s.now()
	s.Changes = append(s.Changes, change)
	return s.snapshot(o, false), s.leave("SetOrderStatus")
}

// SetOrderDiscount stores the discount percent of an editable order.
func (s *OrderStoreStub) SetOrderDiscount(ctx context.Context, orderID int64, percent decimal.Decimal) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("SetOrderDiscount"); err != nil {
		return nil, err
	}
	if err := s.editable(orderID); err != nil {
		return nil, err
	}
	o := s.Orders[orderID]
	o.DiscountPercent = percent
	return s.snapshot(o, false), s.leave("SetOrderDiscount")
}

// SetOrderTotals stores derived totals of an editable order.
func (s *OrderStoreStub) SetOrderTotals(ctx context.Context, orderID int64, totals model.Totals) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("SetOrderTotals"); err != nil {
		return nil, err
	}
	if err := s.editable(orderID); err != nil {
		return nil, err
	}
	o := s.Orders[orderID]
	o.Totals = totals
	return s.snapshot(o, false), s.leave("SetOrderTotals")
}

// DeleteOrder removes an editable order and restores stock held by its lines.
func (s *OrderStoreStub) DeleteOrder(ctx context.Context, orderID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("DeleteOrder"); err != nil {
		return err
	}
	if err := s.editable(orderID); err != nil {
		return err
	}
	for id, l := range s.Lines {
		if l.OrderID != orderID {
			continue
		}
		if p, ok := s.Products[l.ProductID]; ok {
			p.Stock += l.Quantity
		}
		delete(s.Lines, id)
	}
	delete(s.Orders, orderID)
	return nil
}

// ProductStock implements the catalog read of the store.
func (s *OrderStoreStub) ProductStock(ctx context.Context, productID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ProductStock"); err != nil {
		return 0, err
	}
	p, ok := s.Products[productID]
	if !ok {
		return 0, domainErrors.ErrNotFound
	}
	return p.Stock, nil
}

// ProductUnitPrice implements the catalog read of the store.
func (s *OrderStoreStub) ProductUnitPrice(ctx context.Context, productID int64) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ProductUnitPrice"); err != nil {
		return decimal.Zero, err
	}
	p, ok := s.Products[productID]
	if !ok {
		return decimal.Zero, domainErrors.ErrNotFound
	}
	return p.UnitPrice, nil
}

func (s *OrderStoreStub) editable(orderID int64) error {
	o, ok := s.Orders[orderID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	if !o.Status.Editable() {
		return fmt.Errorf("order %d is %s: %w", orderID, o.Status, domainErrors.ErrStaleOrder)
	}
	return nil
}

func (s *OrderStoreStub) snapshot(o *model.Order, withLines bool) *model.Order {
	cp := o.Clone()
	cp.Lines = nil
	if !withLines {
		return cp
	}
	cp.Lines = make([]model.Line, 0)
	for _, l := range s.Lines {
		if l.OrderID == o.ID {
			cp.Lines = append(cp.Lines, *l)
		}
	}
	sort.Slice(cp.Lines, func(i, j int) bool { return cp.Lines[i].ID < cp.Lines[j].ID })
	return cp
}

// CatalogStub answers catalog reads through function overrides.
type CatalogStub struct {
	StockFn func(context.Context, int64) (int, error)
	PriceFn func(context.Context, int64) (decimal.Decimal, error)
}

// ProductStock delegates to StockFn or reports ten units.
func (c CatalogStub) ProductStock(ctx context.Context, productID int64) (int, error) {
	if c.StockFn != nil {
		return c.StockFn(ctx, productID)
	}
	return 10, nil
}

// ProductUnitPrice delegates to PriceFn or reports one unit of currency.
func (c CatalogStub) ProductUnitPrice(ctx context.Context, productID int64) (decimal.Decimal, error) {
	if c.PriceFn != nil {
		return c.PriceFn(ctx, productID)
	}
	return decimal.NewFromInt(1), nil
}
