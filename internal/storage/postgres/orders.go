package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/posorder/internal/domain/errors"
	"github.com/polkiloo/posorder/internal/domain/model"
)

type orderRepository struct {
	storage *Storage
}

const (
	orderColumns = `id, order_number, customer_id, seller_id, status, discount_percent,
                    subtotal, discount_amount, tax_amount, total, created_at, updated_at`
	lineColumns = `id, order_id, product_id, quantity, unit_price, created_at`

	editableStatuses = `('PENDING', 'ADDING_ITEMS')`
)

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	err := row.Scan(&o.ID, &o.Number, &o.CustomerID, &o.SellerID, &o.Status, &o.DiscountPercent,
		&o.Subtotal, &o.DiscountAmount, &o.TaxAmount, &o.Total, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func scanLine(row pgx.Row) (*model.Line, error) {
	var l model.Line
	if err := row.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.Quantity, &l.UnitPrice, &l.CreatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *orderRepository) CreateOrder(ctx context.Context, customerID, sellerID string, discountPercent decimal.Decimal) (*model.Order, error) {
	const query = `INSERT INTO orders (customer_id, seller_id, status, discount_percent)
                   VALUES ($1, $2, $3, $4)
                   RETURNING ` + orderColumns
	return scanOrder(r.storage.pool.QueryRow(ctx, query, customerID, sellerID, model.OrderStatusPending, discountPercent))
}

func (r *orderRepository) GetOrder(ctx context.Context, orderID int64) (*model.Order, error) {
	const query = `SELECT ` + orderColumns + ` FROM orders WHERE id=$1`
	order, err := scanOrder(r.storage.pool.QueryRow(ctx, query, orderID))
	if err != nil {
		return nil, notFound(err)
	}
	return order, nil
}

func (r *orderRepository) GetOrderWithLines(ctx context.Context, orderID int64) (*model.Order, error) {
	order, err := r.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Lines, err = r.listLines(ctx, orderID); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) GetOrderByNumber(ctx context.Context, number string) (*model.Order, error) {
	const query = `SELECT ` + orderColumns + ` FROM orders WHERE order_number=$1`
	order, err := scanOrder(r.storage.pool.QueryRow(ctx, query, number))
	if err != nil {
		return nil, notFound(err)
	}
	if order.Lines, err = r.listLines(ctx, order.ID); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) ListOrdersBySeller(ctx context.Context, sellerID string) ([]model.Order, error) {
	const query = `SELECT ` + orderColumns + ` FROM orders WHERE seller_id=$1 ORDER BY id`
	return r.listOrders(ctx, query, sellerID)
}

func (r *orderRepository) ListOrdersByStatus(ctx context.Context, status model.OrderStatus) ([]model.Order, error) {
	const query = `SELECT ` + orderColumns + ` FROM orders WHERE status=$1 ORDER BY id`
	return r.listOrders(ctx, query, status)
}

func (r *orderRepository) listOrders(ctx context.Context, query string, arg any) ([]model.Order, error) {
	rows, err := r.storage.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]model.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *orderRepository) listLines(ctx context.Context, orderID int64) ([]model.Line, error) {
	const query = `SELECT ` + lineColumns + ` FROM order_lines WHERE order_id=$1 ORDER BY id`
	rows, err := r.storage.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := make([]model.Line, 0)
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *orderRepository) GetLine(ctx context.Context, lineID int64) (*model.Line, error) {
	const query = `SELECT ` + lineColumns + ` FROM order_lines WHERE id=$1`
	line, err := scanLine(r.storage.pool.QueryRow(ctx, query, lineID))
	if err != nil {
		return nil, notFound(err)
	}
	return line, nil
}

// lockEditable takes the order row lock and rejects orders that left the editable states.
func lockEditable(ctx context.Context, tx pgx.Tx, orderID int64) error {
	const query = `SELECT status FROM orders WHERE id=$1 FOR UPDATE`
	var status model.OrderStatus
	if err := tx.QueryRow(ctx, query, orderID).Scan(&status); err != nil {
		return notFound(err)
	}
	if !status.Editable() {
		return fmt.Errorf("order %d is %s: %w", orderID, status, domainErrors.ErrStaleOrder)
	}
	return nil
}

// takeStock decrements the product counter when enough units remain and returns the current unit price.
func takeStock(ctx context.Context, tx pgx.Tx, productID int64, quantity int) (decimal.Decimal, error) {
	const reserve = `UPDATE products SET stock = stock - $2 WHERE id=$1 AND stock >= $2 RETURNING unit_price`
	var price decimal.Decimal
	err := tx.QueryRow(ctx, reserve, productID, quantity).Scan(&price)
	if err == nil {
		return price, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, err
	}

	const exists = `SELECT EXISTS (SELECT 1 FROM products WHERE id=$1)`
	var found bool
	if err := tx.QueryRow(ctx, exists, productID).Scan(&found); err != nil {
		return decimal.Zero, err
	}
	if !found {
		return decimal.Zero, domainErrors.ErrNotFound
	}
	return decimal.Zero, domainErrors.ErrInsufficientStock
}

func returnStock(ctx context.Context, tx pgx.Tx, productID int64, quantity int) error {
	const query = `UPDATE products SET stock = stock + $2 WHERE id=$1`
	_, err := tx.Exec(ctx, query, productID, quantity)
	return err
}

func (r *orderRepository) CreateLine(ctx context.Context, orderID, productID int64, quantity int) (*model.Line, error) {
	if quantity <= 0 {
		return nil, domainErrors.ErrInvalidQuantity
	}

	line := &model.Line{OrderID: orderID, ProductID: productID, Quantity: quantity}
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		if err := lockEditable(ctx, tx, orderID); err != nil {
			return err
		}
		price, err := takeStock(ctx, tx, productID, quantity)
		if err != nil {
			return err
		}
		line.UnitPrice = price

		const insert = `INSERT INTO order_lines (order_id, product_id, quantity, unit_price)
                        VALUES ($1, $2, $3, $4) RETURNING id, created_at`
		return tx.QueryRow(ctx, insert, orderID, productID, quantity, price).Scan(&line.ID, &line.CreatedAt)
	})
	if err != nil {
		return nil, err
	}
	return line, nil
}

func lockLine(ctx context.Context, tx pgx.Tx, lineID int64) (*model.Line, error) {
	const query = `SELECT ` + lineColumns + ` FROM order_lines WHERE id=$1 FOR UPDATE`
	line, err := scanLine(tx.QueryRow(ctx, query, lineID))
	if err != nil {
		return nil, notFound(err)
	}
	if err := lockEditable(ctx, tx, line.OrderID); err != nil {
		return nil, err
	}
	return line, nil
}

func (r *orderRepository) UpdateLineQuantity(ctx context.Context, lineID int64, quantity int) (*model.Line, error) {
	if quantity <= 0 {
		return nil, domainErrors.ErrInvalidQuantity
	}

	var updated *model.Line
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		line, err := lockLine(ctx, tx, lineID)
		if err != nil {
			return err
		}

		switch delta := quantity - line.Quantity; {
		case delta > 0:
			if _, err := takeStock(ctx, tx, line.ProductID, delta); err != nil {
				return err
			}
		case delta < 0:
			if err := returnStock(ctx, tx, line.ProductID, -delta); err != nil {
				return err
			}
		}

		const update = `UPDATE order_lines SET quantity=$2 WHERE id=$1 RETURNING ` + lineColumns
		updated, err = scanLine(tx.QueryRow(ctx, update, lineID, quantity))
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *orderRepository) DeleteLine(ctx context.Context, lineID int64) error {
	return r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		line, err := lockLine(ctx, tx, lineID)
		if err != nil {
			return err
		}
		if err := returnStock(ctx, tx, line.ProductID, line.Quantity); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `DELETE FROM order_lines WHERE id=$1`, lineID)
		return err
	})
}

func (r *orderRepository) SetOrderStatus(ctx context.Context, change model.StatusChange) (*model.Order, error) {
	var order *model.Order
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		const update = `UPDATE orders
                        SET status=$3, order_number=COALESCE(order_number, $4), updated_at=NOW()
                        WHERE id=$1 AND status=$2
                        RETURNING ` + orderColumns
		var err error
		order, err = scanOrder(tx.QueryRow(ctx, update, change.OrderID, change.From, change.To, change.Number))
		if errors.Is(err, pgx.ErrNoRows) {
			return staleOrMissing(ctx, tx, change.OrderID)
		}
		if err != nil {
			return err
		}
		return r.storage.appendEvent(ctx, tx, change, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// staleOrMissing explains why a guarded update touched no row.
func staleOrMissing(ctx context.Context, tx pgx.Tx, orderID int64) error {
	const query = `SELECT status FROM orders WHERE id=$1`
	var status model.OrderStatus
	if err := tx.QueryRow(ctx, query, orderID).Scan(&status); err != nil {
		return notFound(err)
	}
	return fmt.Errorf("order %d is %s: %w", orderID, status, domainErrors.ErrStaleOrder)
}

func (s *Storage) appendEvent(ctx context.Context, tx pgx.Tx, change model.StatusChange, order *model.Order) error {
	eventID := uuid.New()
	payload, err := json.Marshal(model.StatusChangedPayload{
		EventID:     eventID.String(),
		OrderID:     order.ID,
		OrderNumber: order.Number,
		From:        change.From,
		To:          change.To,
		Total:       order.Total.StringFixed(2),
		Actor:       change.Actor,
		OccurredAt:  order.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	const insert = `INSERT INTO order_events (event_id, order_id, topic, payload) VALUES ($1, $2, $3, $4)`
	_, err = tx.Exec(ctx, insert, eventID, order.ID, s.topic, payload)
	return err
}

func (r *orderRepository) SetOrderDiscount(ctx context.Context, orderID int64, percent decimal.Decimal) (*model.Order, error) {
	const query = `UPDATE orders SET discount_percent=$2, updated_at=NOW()
                   WHERE id=$1 AND status IN ` + editableStatuses + `
                   RETURNING ` + orderColumns
	return r.updateEditable(ctx, orderID, query, orderID, percent)
}

func (r *orderRepository) SetOrderTotals(ctx context.Context, orderID int64, totals model.Totals) (*model.Order, error) {
	const query = `UPDATE orders SET subtotal=$2, discount_amount=$3, tax_amount=$4, total=$5, updated_at=NOW()
                   WHERE id=$1 AND status IN ` + editableStatuses + `
                   RETURNING ` + orderColumns
	return r.updateEditable(ctx, orderID, query,
		orderID, totals.Subtotal, totals.DiscountAmount, totals.TaxAmount, totals.Total)
}

func (r *orderRepository) updateEditable(ctx context.Context, orderID int64, query string, args ...any) (*model.Order, error) {
	var order *model.Order
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		order, err = scanOrder(tx.QueryRow(ctx, query, args...))
		if errors.Is(err, pgx.ErrNoRows) {
			return staleOrMissing(ctx, tx, orderID)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) DeleteOrder(ctx context.Context, orderID int64) error {
	return r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		if err := lockEditable(ctx, tx, orderID); err != nil {
			return err
		}

		const restore = `UPDATE products p SET stock = p.stock + l.held
                         FROM (SELECT product_id, SUM(quantity) AS held
                               FROM order_lines WHERE order_id=$1 GROUP BY product_id) l
                         WHERE p.id = l.product_id`
		if _, err := tx.Exec(ctx, restore, orderID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM order_lines WHERE order_id=$1`, orderID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `DELETE FROM orders WHERE id=$1`, orderID)
		return err
	})
}
