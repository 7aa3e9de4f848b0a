package dto

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error      string                   `json:"error"`
	Retryable  bool                     `json:"retryable"`
	Order      *OrderResponse           `json:"order,omitempty"`
	Validation *StockValidationResponse `json:"validation,omitempty"`
	Batch      *BatchValidationResponse `json:"batch,omitempty"`
}
