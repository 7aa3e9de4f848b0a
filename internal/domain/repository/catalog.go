package repository

import (
	"context"

	"github.com/shopspring/decimal"
)

// Catalog exposes product availability and pricing reads.
type Catalog interface {
	ProductStock(ctx context.Context, productID int64) (int, error)
	ProductUnitPrice(ctx context.Context, productID int64) (decimal.Decimal, error)
}
