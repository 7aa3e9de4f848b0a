package dto

// StockRequest asks whether a quantity of a product can be held.
type StockRequest struct {
	ProductID      int64  `json:"product_id"`
	Quantity       int    `json:"quantity"`
	ExistingLineID *int64 `json:"existing_line_id,omitempty"`
}

// StockValidationResponse reports one stock pre-check.
type StockValidationResponse struct {
	ProductID         int64  `json:"product_id"`
	Requested         int    `json:"requested"`
	CurrentStock      int    `json:"current_stock"`
	AvailableStock    int    `json:"available_stock"`
	IsValid           bool   `json:"is_valid"`
	IsCritical        bool   `json:"is_critical"`
	Reason            string `json:"reason"`
	Message           string `json:"message,omitempty"`
	RecommendedAction string `json:"recommended_action,omitempty"`
}

// BatchValidationResponse aggregates validations, keyed by product id.
type BatchValidationResponse struct {
	Results      map[int64]StockValidationResponse `json:"results"`
	TotalValid   int                               `json:"total_valid"`
	TotalInvalid int                               `json:"total_invalid"`
	AllValid     bool                              `json:"all_valid"`
}
