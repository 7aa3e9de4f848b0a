package dto

import "github.com/shopspring/decimal"

// AddItemRequest adds quantity units of a product.
type AddItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// AdjustQuantityRequest changes a line quantity by delta.
type AdjustQuantityRequest struct {
	Delta int `json:"delta"`
}

// DiscountRequest sets the order discount percentage.
type DiscountRequest struct {
	Percent decimal.Decimal `json:"percent"`
}
