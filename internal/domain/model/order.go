package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus describes the sales lifecycle of an order.
type OrderStatus string

const (
	OrderStatusPending             OrderStatus = "PENDING"
	OrderStatusAddingItems         OrderStatus = "ADDING_ITEMS"
	OrderStatusAvailableForPayment OrderStatus = "AVAILABLE_FOR_PAYMENT"
	OrderStatusPaid                OrderStatus = "PAID"
	OrderStatusDelivered           OrderStatus = "DELIVERED"
	OrderStatusClosed              OrderStatus = "CLOSED"
)

// Valid reports whether s is one of the known statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusAddingItems, OrderStatusAvailableForPayment,
		OrderStatusPaid, OrderStatusDelivered, OrderStatusClosed:
		return true
	}
	return false
}

// Editable reports whether lines and discount may still change in this status.
func (s OrderStatus) Editable() bool {
	return s == OrderStatusPending || s == OrderStatusAddingItems
}

// Totals holds the derived monetary fields of an order.
type Totals struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	Total          decimal.Decimal
}

// Equal compares totals by value.
func (t Totals) Equal(other Totals) bool {
	return t.Subtotal.Equal(other.Subtotal) &&
		t.DiscountAmount.Equal(other.DiscountAmount) &&
		t.TaxAmount.Equal(other.TaxAmount) &&
		t.Total.Equal(other.Total)
}

// Order is a sale opened by a seller for a customer.
type Order struct {
	ID              int64
	Number          *string
	CustomerID      string
	SellerID        string
	Status          OrderStatus
	DiscountPercent decimal.Decimal
	Totals
	Lines     []Line
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Line is a product quantity held by an order at a captured unit price.
type Line struct {
	ID        int64
	OrderID   int64
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal
	CreatedAt time.Time
}

// Subtotal returns quantity multiplied by unit price.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// LineByProduct returns the line holding productID, if any.
func (o *Order) LineByProduct(productID int64) (Line, bool) {
	for _, l := range o.Lines {
		if l.ProductID == productID {
			return l, true
		}
	}
	return Line{}, false
}

// LineByID returns the line with the given id, if any.
func (o *Order) LineByID(lineID int64) (Line, bool) {
	for _, l := range o.Lines {
		if l.ID == lineID {
			return l, true
		}
	}
	return Line{}, false
}

// Clone returns a deep copy so callers can keep snapshots.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	cp := *o
	if o.Number != nil {
		n := *o.Number
		cp.Number = &n
	}
	if o.Lines != nil {
		cp.Lines = make([]Line, len(o.Lines))
		copy(cp.Lines, o.Lines)
	}
	return &cp
}

// StatusChange is a compare-and-set request for an order status.
type StatusChange struct {
	OrderID int64
	From    OrderStatus
	To      OrderStatus
	Number  *string
	Actor   string
}
