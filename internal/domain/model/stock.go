package model

// StockReason classifies a stock validation outcome.
type StockReason string

const (
	StockReasonOK                  StockReason = "OK"
	StockReasonInsufficient        StockReason = "INSUFFICIENT_STOCK"
	StockReasonUnknownAvailability StockReason = "UNKNOWN_AVAILABILITY"
	StockReasonUnknownProduct      StockReason = "UNKNOWN_PRODUCT"
	StockReasonInvalidQuantity     StockReason = "INVALID_QUANTITY"
)

// StockRequest asks whether quantity units of a product can be held.
// ExistingLineID is set when the request edits a line that already holds stock.
type StockRequest struct {
	ProductID      int64
	Quantity       int
	ExistingLineID *int64
}

// StockValidation is the result of a stock pre-check.
type StockValidation struct {
	ProductID         int64
	Requested         int
	CurrentStock      int
	AvailableStock    int
	IsValid           bool
	IsCritical        bool
	Reason            StockReason
	Message           string
	RecommendedAction string
}

// BatchValidation aggregates validations keyed by product.
type BatchValidation struct {
	Results      map[int64]StockValidation
	TotalValid   int
	TotalInvalid int
	AllValid     bool
}
