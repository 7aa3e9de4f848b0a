package postgres

import (
	"context"

	"github.com/shopspring/decimal"
)

type catalogRepository struct {
	storage *Storage
}

func (r *catalogRepository) ProductStock(ctx context.Context, productID int64) (int, error) {
	const query = `SELECT stock FROM products WHERE id=$1`
	var stock int
	if err := r.storage.pool.QueryRow(ctx, query, productID).Scan(&stock); err != nil {
		return 0, notFound(err)
	}
	return stock, nil
}

func (r *catalogRepository) ProductUnitPrice(ctx context.Context, productID int64) (decimal.Decimal, error) {
	const query = `SELECT unit_price FROM products WHERE id=$1`
	var price decimal.Decimal
	if err := r.storage.pool.QueryRow(ctx, query, productID).Scan(&price); err != nil {
		return decimal.Zero, notFound(err)
	}
	return price, nil
}
