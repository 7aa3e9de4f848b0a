package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmockv3 "github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/polkiloo/posorder/internal/domain/errors"
	"github.com/polkiloo/posorder/internal/domain/model"
)

var (
	orderCols = []string{"id", "order_number", "customer_id", "seller_id", "status", "discount_percent",
		"subtotal", "discount_amount", "tax_amount", "total", "created_at", "updated_at"}
	lineCols = []string{"id", "order_id", "product_id", "quantity", "unit_price", "created_at"}

	testNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func orderRows(id int64, status model.OrderStatus, number *string) *pgxmockv3.Rows {
	return pgxmockv3.NewRows(orderCols).AddRow(id, number, "customer-1", "seller-1", status, dec("10"),
		dec("100.00"), dec("10.00"), dec("1.80"), dec("91.80"), testNow, testNow)
}

func lineRows(id, orderID, productID int64, quantity int, price string) *pgxmockv3.Rows {
	return pgxmockv3.NewRows(lineCols).AddRow(id, orderID, productID, quantity, dec(price), testNow)
}

func statusRows(status model.OrderStatus) *pgxmockv3.Rows {
	return pgxmockv3.NewRows([]string{"status"}).AddRow(status)
}

type captureArg struct {
	value any
}

func (c *captureArg) Match(v any) bool {
	c.value = v
	return true
}

func TestOrderRepositoryCreateOrder(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &orderRepository{storage: storage}

	mock.ExpectQuery("INSERT INTO orders").
		WithArgs("customer-1", "seller-1", model.OrderStatusPending, pgxmockv3.AnyArg()).
		WillReturnRows(orderRows(1, model.OrderStatusPending, nil))
	order, err := repo.CreateOrder(context.Background(), "customer-1", "seller-1", dec("10"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), order.ID)
	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.Nil(t, order.Number)
	assert.True(t, order.DiscountPercent.Equal(dec("10")))

	mock.ExpectQuery("INSERT INTO orders").
		WithArgs("customer-1", "seller-1", model.OrderStatusPending, pgxmockv3.AnyArg()).
		WillReturnError(errors.New("insert"))
	_, err = repo.CreateOrder(context.Background(), "customer-1", "seller-1", decimal.Zero)
	assert.Error(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepositoryGetOrder(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &orderRepository{storage: storage}

	mock.ExpectQuery("FROM orders WHERE id=").WithArgs(int64(1)).
		WillReturnRows(orderRows(1, model.OrderStatusAddingItems, nil))
	order, err := repo.GetOrder(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, order.Total.Equal(dec("91.80")))

	mock.ExpectQuery("FROM orders WHERE id=").WithArgs(int64(2)).WillReturnError(pgx.ErrNoRows)
	_, err = repo.GetOrder(context.Background(), 2)
	assert.ErrorIs(t, err, domainErrors.ErrNotFound)

	mock.ExpectQuery("FROM orders WHERE id=").WithArgs(int64(3)).WillReturnError(errors.New("fail"))
	_, err = repo.GetOrder(context.Background(), 3)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domainErrors.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepositoryGetOrderWithLines(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &orderRepository{storage: storage}

	mock.ExpectQuery("FROM orders WHERE id=").WithArgs(int64(1)).
		WillReturnRows(orderRows(1, model.OrderStatusAddingItems, nil))
	mock.ExpectQuery("FROM order_lines WHERE order_id=").WithArgs(int64(1)).
		WillReturnRows(pgxmockv3.NewRows(lineCols).
			AddRow(int64(10), int64(1), int64(7), 2, dec("19.99"), testNow).
			AddRow(int64(11), int64(1), int64(8), 1, dec("5.00"), testNow))
	order, err := repo.GetOrderWithLines(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, order.Lines, 2)
	assert.True(t, order.Lines[0].Subtotal().Equal(dec("39.98")))

	mock.ExpectQuery("FROM orders WHERE id=").WithArgs(int64(1)).
		WillReturnRows(orderRows(1, model.OrderStatusAddingItems, nil))
	mock.ExpectQuery("FROM order_lines WHERE order_id=").WithArgs(int64(1)).
		WillReturnRows(pgxmockv3.NewRows(lineCols))
	order, err = repo.GetOrderWithLines(context.Background(), 1)
	require.NoError(t, err)
	assert.NotNil(t, order.Lines)
	assert.Empty(t, order.Lines)

	mock.ExpectQuery("FROM orders WHERE id=").WithArgs(int64(1)).
		WillReturnRows(orderRows(1, model.OrderStatusAddingItems, nil))
	mock.ExpectQuery("FROM order_lines WHERE order_id=").WithArgs(int64(1)).WillReturnError(errors.New("lines"))
	_, err = repo.GetOrderWithLines(context.Background(), 1)
	assert.Error(t, err)

	mock.ExpectQuery("FROM orders WHERE id=").WithArgs(int64(9)).WillReturnError(pgx.ErrNoRows)
	_, err = repo.GetOrderWithLines(context.Background(), 9)
	assert.ErrorIs(t, err, domainErrors.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepositoryGetOrderByNumber(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &orderRepository{storage: storage}

	number := "240315000000010"
	mock.ExpectQuery("FROM orders WHERE order_number=").WithArgs(number).
		WillReturnRows(orderRows(1, model.OrderStatusAvailableForPayment, &number))
	mock.ExpectQuery("FROM order_lines WHERE order_id=").WithArgs(int64(1)).
		WillReturnRows(lineRows(10, 1, 7, 2, "19.99"))
	order, err := repo.GetOrderByNumber(context.Background(), number)
	require.NoError(t, err)
	require.NotNil(t, order.Number)
	assert.Equal(t, number, *order.Number)
	assert.Len(t, order.Lines, 1)

	mock.ExpectQuery("FROM orders WHERE order_number=").WithArgs("missing").WillReturnError(pgx.ErrNoRows)
	_, err = repo.GetOrderByNumber(context.Background(), "missing")
	assert.ErrorIs(t, err, domainErrors.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepositoryList(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &orderRepository{storage: storage}

	mock.ExpectQuery("FROM orders WHERE seller_id=").WithArgs("seller-1").WillReturnRows(
		pgxmockv3.NewRows(orderCols).
			AddRow(int64(1), nil, "c", "seller-1", model.OrderStatusPending, dec("0"), dec("0"), dec("0"), dec("0"), dec("0"), testNow, testNow).
			AddRow(int64(2), nil, "c", "seller-1", model.OrderStatusPaid, dec("0"), dec("5"), dec("0"), dec("0.10"), dec("5.10"), testNow, testNow))
	orders, err := repo.ListOrdersBySeller(context.Background(), "seller-1")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, model.OrderStatusPaid, orders[1].Status)

	mock.ExpectQuery("FROM orders WHERE status=").WithArgs(model.OrderStatusPaid).
		WillReturnRows(orderRows(2, model.OrderStatusPaid, nil))
	orders, err = repo.ListOrdersByStatus(context.Background(), model.OrderStatusPaid)
	require.NoError(t, err)
	assert.Len(t, orders, 1)

	mock.ExpectQuery("FROM orders WHERE status=").WithArgs(model.OrderStatusClosed).
		WillReturnRows(pgxmockv3.NewRows(orderCols))
	orders, err = repo.ListOrdersByStatus(context.Background(), model.OrderStatusClosed)
	require.NoError(t, err)
	assert.NotNil(t, orders)
	assert.Empty(t, orders)

	mock.ExpectQuery("FROM orders WHERE seller_id=").WithArgs("seller-2").WillReturnError(errors.New("query"))
	_, err = repo.ListOrdersBySeller(context.Background(), "seller-2")
	assert.Error(t, err)

	mock.ExpectQuery("FROM orders WHERE seller_id=").WithArgs("seller-3").WillReturnRows(
		pgxmockv3.NewRows(orderCols).
			AddRow("bad", nil, "c", "seller-3", model.OrderStatusPending, dec("0"), dec("0"), dec("0"), dec("0"), dec("0"), testNow, testNow))
	_, err = repo.ListOrdersBySeller(context.Background(), "seller-3")
	assert.Error(t, err)

	mock.ExpectQuery("FROM orders WHERE seller_id=").WithArgs("seller-4").WillReturnRows(
		orderRows(1, model.OrderStatusPending, nil).
			AddRow(int64(2), nil, "c", "seller-4", model.OrderStatusPending, dec("0"), dec("0"), dec("0"), dec("0"), dec("0"), testNow, testNow).
			RowError(1, errors.New("row err")))
	_, err = repo.ListOrdersBySeller(context.Background(), "seller-4")
	assert.EqualError(t, err, "row err")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepositoryListRowsError(t *testing.T) {
	storage := &Storage{pool: &rowsErrorPool{rows: &errorRows{err: errors.New("rows err")}}}
	repo := &orderRepository{storage: storage}

	_, err := repo.ListOrdersByStatus(context.Background(), model.OrderStatusPaid)
	assert.EqualError(t, err, "rows err")
}

func TestOrderRepositoryGetLine(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &orderRepository{storage: storage}

	mock.ExpectQuery("FROM order_lines WHERE id=").WithArgs(int64(10)).WillReturnRows(lineRows(10, 1, 7, 2, "19.99"))
	line, err := repo.GetLine(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 2, line.Quantity)
	assert.Equal(t, int64(7), line.ProductID)

	mock.ExpectQuery("FROM order_lines WHERE id=").WithArgs(int64(11)).WillReturnError(pgx.ErrNoRows)
	_, err = repo.GetLine(context.Background(), 11)
	assert.ErrorIs(t, err, domainErrors.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepositoryCreateLine(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &orderRepository{storage: storage}
	ctx := context.Background()

	t.Run("reserves stock and captures price", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT status FROM orders WHERE id=").WithArgs(int64(1)).WillReturnRows(statusRows(model.OrderStatusAddingItems))
		mock.ExpectQuery("UPDATE products SET stock = stock - ").WithArgs(int64(7), 2).
			WillReturnRows(pgxmockv3.NewRows([]string{"unit_price"}).AddRow(dec("19.99")))
		mock.ExpectQuery("INSERT INTO order_lines").WithArgs(int64(1), int64(7), 2, pgxmockv3.AnyArg()).
			WillReturnRows(pgxmockv3.NewRows([]string{"id", "created_at"}).AddRow(int64(10), testNow))
		mock.ExpectCommit()

		line, err := repo.CreateLine(ctx, 1, 7, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(10), line.ID)
		assert.True(t, line.UnitPrice.Equal(dec("19.99")))
		assert.Equal(t, testNow, line.CreatedAt)
	})

	t.Run("insufficient stock", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT status FROM orders WHERE id=").WithArgs(int64(1)).WillReturnRows(statusRows(model.OrderStatusPending))
		mock.ExpectQuery("UPDATE products SET stock = stock - ").WithArgs(int64(7), 9).WillReturnError(pgx.ErrNoRows)
		mock.ExpectQuery("SELECT EXISTS").WithArgs(int64(7)).WillReturnRows(pgxmockv3.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectRollback()

		_, err := repo.CreateLine(ctx, 1, 7, 9)
		assert.ErrorIs(t, err, domainErrors.ErrInsufficientStock)
	})

	t.Run("unknown product", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT status FROM orders WHERE id=").WithArgs(int64(1)).WillReturnRows(statusRows(model.OrderStatusPending))
		mock.ExpectQuery("UPDATE products SET stock = stock - ").WithArgs(int64(99), 1).WillReturnError(pgx.ErrNoRows)
		mock.ExpectQuery("SELECT EXISTS").WithArgs(int64(99)).WillReturnRows(pgxmockv3.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectRollback()

		_, err := repo.CreateLine(ctx, 1, 99, 1)
		assert.ErrorIs(t, err, domainErrors.ErrNotFound)
	})

	t.Run("order no longer editable", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT status FROM orders WHERE id=").WithArgs(int64(1)).WillReturnRows(statusRows(model.OrderStatusPaid))
		mock.ExpectRollback()

		_, err := repo.CreateLine(ctx, 1, 7, 1)
		assert.ErrorIs(t, err, domainErrors.ErrStaleOrder)
	})

	t.Run("missing order", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT status FROM orders WHERE id=").WithArgs(int64(5)).WillReturnError(pgx.ErrNoRows)
		mock.ExpectRollback()

		_, err := repo.CreateLine(ctx, 5, 7, 1)
		assert.ErrorIs(t, err, domainErrors.ErrNotFound)
	})

	t.Run("invalid quantity", func(t *testing.T) {
		_, err := repo.CreateLine(ctx, 1, 7, 0)
		assert.ErrorIs(t, err, domainErrors.ErrInvalidQuantity)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepositoryUpdateLineQuantity(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &orderRepository{storage: storage}
	ctx := context.Background()

	t.Run("increase takes the delta", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("FROM order_lines WHERE id=").WithArgs(int64(10)).WillReturnRows(lineRows(10, 1, 7, 2, "19.99"))
		mock.ExpectQuery("SELECT status FROM orders WHERE id=").WithArgs(int64(1)).WillReturnRows(statusRows(model.OrderStatusAddingItems))
		mock.ExpectQuery("UPDATE products SET stock = stock - ").WithArgs(int64(7), 3).
			WillReturnRows(pgxmockv3.NewRows([]string{"unit_price"}).AddRow(dec("21.00")))
		mock.ExpectQuery("UPDATE order_lines SET quantity=").WithArgs(int64(10), 5).WillReturnRows(lineRows(10, 1, 7, 5, "19.99"))
		mock.ExpectCommit()

		line, err := repo.UpdateLineQuantity(ctx, 10, 5)
		require.NoError(t, err)
		assert.Equal(t, 5, line.Quantity)
		assert.True(t, line.UnitPrice.Equal(dec("19.99")), "captured price must not change")
	})

	t.Run("decrease returns the delta", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("FROM order_lines WHERE id=").WithArgs(int64(10)).WillReturnRows(lineRows(10, 1, 7, 5, "19.99"))
		mock.ExpectQuery("SELECT status FROM orders WHERE id=").WithArgs(int64(1)).WillReturnRows(statusRows(model.OrderStatusAddingItems))
		mock.ExpectExec(`UPDATE products SET stock = stock \+ `).WithArgs(int64(7), 3).WillReturnResult(pgxmockv3.NewResult("UPDATE", 1))
		mock.ExpectQuery("UPDATE order_lines SET quantity=").WithArgs(int64(10), 2).WillReturnRows(lineRows(10, 1, 7, 2, "19.99"))
		mock.ExpectCommit()

		line, err := repo.UpdateLineQuantity(ctx, 10, 2)
		require.NoError(t, err)
		assert.Equal(t, 2, line.Quantity)
	})

	t.Run("insufficient stock for the delta", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("FROM order_lines WHERE id=").WithArgs(int64(10)).WillReturnRows(lineRows(10, 1, 7, 2, "19.99"))
		mock.ExpectQuery("SELECT status FROM orders WHERE id=").WithArgs(int64(1)).WillReturnRows(statusRows(model.OrderStatusAddingItems))
		mock.ExpectQuery("UPDATE products SET stock = stock - ").WithArgs(int64(7), 8).WillReturnError(pgx.ErrNoRows)
		mock.ExpectQuery("SELECT EXISTS").WithArgs(int64(7)).WillReturnRows(pgxmockv3.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectRollback()

		_, err := repo.UpdateLineQuantity(ctx, 10, 10)
		assert.ErrorIs(t, err, domainErrors.ErrInsufficientStock)
	})

	t.Run("missing line", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("FROM order_lines WHERE id=").WithArgs(int64(11)).WillReturnError(pgx.ErrNoRows)
		mock.ExpectRollback()

		_, err := repo.UpdateLineQuantity(ctx, 11, 1)
		assert.ErrorIs(t, err, domainErrors.ErrNotFound)
	})

	t.Run("non positive quantity", func(t *testing.T) {
		_, err := repo.UpdateLineQuantity(ctx, 10, 0)
		assert.ErrorIs(t, err, domainErrors.ErrInvalidQuantity)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepositoryDeleteLine(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &orderRepository{storage: storage}
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM order_lines WHERE id=").WithArgs(int64(10)).WillReturnRows(lineRows(10, 1, 7, 2, "19.99"))
	mock.ExpectQuery("SELECT status FROM orders WHERE id=").WithArgs(int64(1)).WillReturnRows(statusRows(model.OrderStatusAddingItems))
	mock.ExpectExec(`UPDATE products SET stock = stock \+ `).WithArgs(int64(7), 2).WillReturnResult(pgxmockv3.NewResult("UPDATE", 1))
	mock.ExpectExec("DELETE FROM order_lines WHERE id=").WithArgs(int64(10)).WillReturnResult(pgxmockv3.NewResult("DELETE", 1))
	mock.ExpectCommit()
	require.NoError(t, repo.DeleteLine(ctx, 10))

	mock.ExpectBegin()
	mock.ExpectQuery("FROM order_lines WHERE id=").WithArgs(int64(10)).WillReturnRows(lineRows(10, 1, 7, 2, "19.99"))
	mock.ExpectQuery("SELECT status FROM orders WHERE id=").WithArgs(int64(1)).WillReturnRows(statusRows(model.OrderStatusDelivered))
	mock.ExpectRollback()
	assert.ErrorIs(t, repo.DeleteLine(ctx, 10), domainErrors.ErrStaleOrder)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM order_lines WHERE id=").WithArgs(int64(12)).WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()
	assert.ErrorIs(t, repo.DeleteLine(ctx, 12), domainErrors.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepositorySetOrderStatus(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &orderRepository{storage: storage}
	ctx := context.Background()

	number := "240315000000010"
	change := model.StatusChange{
		OrderID: 1,
		From:    model.OrderStatusAddingItems,
		To:      model.OrderStatusAvailableForPayment,
		Number:  &number,
		Actor:   "seller-1",
	}

	t.Run("updates and records event", func(t *testing.T) {
		payload := &captureArg{}
		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE orders SET status=").
			WithArgs(int64(1), model.OrderStatusAddingItems, model.OrderStatusAvailableForPayment, &number).
			WillReturnRows(orderRows(1, model.OrderStatusAvailableForPayment, &number))
		mock.ExpectExec("INSERT INTO order_events").
			WithArgs(pgxmockv3.AnyArg(), int64(1), testTopic, payload).
			WillReturnResult(pgxmockv3.NewResult("INSERT", 1))
		mock.ExpectCommit()

		order, err := repo.SetOrderStatus(ctx, change)
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusAvailableForPayment, order.Status)

		raw, ok := payload.value.([]byte)
		require.True(t, ok, "payload should be encoded JSON, got %T", payload.value)
		var event model.StatusChangedPayload
		require.NoError(t, json.Unmarshal(raw, &event))
		assert.NotEmpty(t, event.EventID)
		assert.Equal(t, int64(1), event.OrderID)
		assert.Equal(t, model.OrderStatusAddingItems, event.From)
		assert.Equal(t, model.OrderStatusAvailableForPayment, event.To)
		assert.Equal(t, "91.80", event.Total)
		assert.Equal(t, "seller-1", event.Actor)
		require.NotNil(t, event.OrderNumber)
		assert.Equal(t, number, *event.OrderNumber)
	})

	t.Run("stale status", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE orders SET status=").
			WithArgs(int64(1), model.OrderStatusAddingItems, model.OrderStatusAvailableForPayment, &number).
			WillReturnError(pgx.ErrNoRows)
		mock.ExpectQuery("SELECT status FROM orders WHERE id=").WithArgs(int64(1)).WillReturnRows(statusRows(model.OrderStatusPaid))
		mock.ExpectRollback()

		_, err := repo.SetOrderStatus(ctx, change)
		assert.ErrorIs(t, err, domainErrors.ErrStaleOrder)
	})

	t.Run("missing order", func(t *testing.T) {
		missing := model.StatusChange{OrderID: 9, From: model.OrderStatusPaid, To: model.OrderStatusDelivered}
		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE orders SET status=").
			WithArgs(int64(9), model.OrderStatusPaid, model.OrderStatusDelivered, (*string)(nil)).
			WillReturnError(pgx.ErrNoRows)
		mock.ExpectQuery("SELECT status FROM orders WHERE id=").WithArgs(int64(9)).WillReturnError(pgx.ErrNoRows)
		mock.ExpectRollback()

		_, err := repo.SetOrderStatus(ctx, missing)
		assert.ErrorIs(t, err, domainErrors.ErrNotFound)
	})

	t.Run("event insert failure rolls back", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE orders SET status=").
			WithArgs(int64(1), model.OrderStatusAddingItems, model.OrderStatusAvailableForPayment, &number).
			WillReturnRows(orderRows(1, model.OrderStatusAvailableForPayment, &number))
		mock.ExpectExec("INSERT INTO order_events").
			WithArgs(pgxmockv3.AnyArg(), int64(1), testTopic, pgxmockv3.AnyArg()).
			WillReturnError(errors.New("outbox"))
		mock.ExpectRollback()

		_, err := repo.SetOrderStatus(ctx, change)
		assert.EqualError(t, err, "outbox")
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepositorySetDiscountAndTotals(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &orderRepository{storage: storage}
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE orders SET discount_percent=").WithArgs(int64(1), pgxmockv3.AnyArg()).
		WillReturnRows(orderRows(1, model.OrderStatusAddingItems, nil))
	mock.ExpectCommit()
	order, err := repo.SetOrderDiscount(ctx, 1, dec("10"))
	require.NoError(t, err)
	assert.True(t, order.DiscountPercent.Equal(dec("10")))

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE orders SET discount_percent=").WithArgs(int64(1), pgxmockv3.AnyArg()).WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery("SELECT status FROM orders WHERE id=").WithArgs(int64(1)).WillReturnRows(statusRows(model.OrderStatusPaid))
	mock.ExpectRollback()
	_, err = repo.SetOrderDiscount(ctx, 1, dec("10"))
	assert.ErrorIs(t, err, domainErrors.ErrStaleOrder)

	totals := model.Totals{Subtotal: dec("100.00"), DiscountAmount: dec("10.00"), TaxAmount: dec("1.80"), Total: dec("91.80")}
	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE orders SET subtotal=").
		WithArgs(int64(1), pgxmockv3.AnyArg(), pgxmockv3.AnyArg(), pgxmockv3.AnyArg(), pgxmockv3.AnyArg()).
		WillReturnRows(orderRows(1, model.OrderStatusAddingItems, nil))
	mock.ExpectCommit()
	order, err = repo.SetOrderTotals(ctx, 1, totals)
	require.NoError(t, err)
	assert.True(t, order.Totals.Equal(totals))

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE orders SET subtotal=").
		WithArgs(int64(2), pgxmockv3.AnyArg(), pgxmockv3.AnyArg(), pgxmockv3.AnyArg(), pgxmockv3.AnyArg()).
		WillReturnError(errors.New("update"))
	mock.ExpectRollback()
	_, err = repo.SetOrderTotals(ctx, 2, totals)
	assert.EqualError(t, err, "update")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepositoryDeleteOrder(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &orderRepository{storage: storage}
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM orders WHERE id=").WithArgs(int64(1)).WillReturnRows(statusRows(model.OrderStatusAddingItems))
	mock.ExpectExec("UPDATE products p SET stock").WithArgs(int64(1)).WillReturnResult(pgxmockv3.NewResult("UPDATE", 2))
	mock.ExpectExec("DELETE FROM order_lines WHERE order_id=").WithArgs(int64(1)).WillReturnResult(pgxmockv3.NewResult("DELETE", 2))
	mock.ExpectExec("DELETE FROM orders WHERE id=").WithArgs(int64(1)).WillReturnResult(pgxmockv3.NewResult("DELETE", 1))
	mock.ExpectCommit()
	require.NoError(t, repo.DeleteOrder(ctx, 1))

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM orders WHERE id=").WithArgs(int64(2)).WillReturnRows(statusRows(model.OrderStatusClosed))
	mock.ExpectRollback()
	assert.ErrorIs(t, repo.DeleteOrder(ctx, 2), domainErrors.ErrStaleOrder)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM orders WHERE id=").WithArgs(int64(3)).WillReturnRows(statusRows(model.OrderStatusPending))
	mock.ExpectExec("UPDATE products p SET stock").WithArgs(int64(3)).WillReturnError(errors.New("restore"))
	mock.ExpectRollback()
	assert.EqualError(t, repo.DeleteOrder(ctx, 3), "restore")

	require.NoError(t, mock.ExpectationsWereMet())
}
