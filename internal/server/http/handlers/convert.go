package handlers

import (
	"github.com/polkiloo/posorder/internal/cart"
	"github.com/polkiloo/posorder/internal/domain/model"
	"github.com/polkiloo/posorder/internal/server/http/dto"
)

func toOrderResponse(order model.Order) dto.OrderResponse {
	resp := dto.OrderResponse{
		ID:              order.ID,
		Number:          order.Number,
		CustomerID:      order.CustomerID,
		SellerID:        order.SellerID,
		Status:          string(order.Status),
		DiscountPercent: order.DiscountPercent,
		Subtotal:        order.Subtotal,
		DiscountAmount:  order.DiscountAmount,
		TaxAmount:       order.TaxAmount,
		Total:           order.Total,
		Lines:           make([]dto.LineResponse, 0, len(order.Lines)),
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
	for _, l := range order.Lines {
		resp.Lines = append(resp.Lines, dto.LineResponse{
			ID:        l.ID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Subtotal:  l.Subtotal(),
		})
	}
	return resp
}

func toStockValidationResponse(v model.StockValidation) dto.StockValidationResponse {
	return dto.StockValidationResponse{
		ProductID:         v.ProductID,
		Requested:         v.Requested,
		CurrentStock:      v.CurrentStock,
		AvailableStock:    v.AvailableStock,
		IsValid:           v.IsValid,
		IsCritical:        v.IsCritical,
		Reason:            string(v.Reason),
		Message:           v.Message,
		RecommendedAction: v.RecommendedAction,
	}
}

func toBatchValidationResponse(b model.BatchValidation) dto.BatchValidationResponse {
	resp := dto.BatchValidationResponse{
		Results:      make(map[int64]dto.StockValidationResponse, len(b.Results)),
		TotalValid:   b.TotalValid,
		TotalInvalid: b.TotalInvalid,
		AllValid:     b.AllValid,
	}
	for id, v := range b.Results {
		resp.Results[id] = toStockValidationResponse(v)
	}
	return resp
}

func toOutcomeResponse(out *cart.Outcome) dto.OutcomeResponse {
	var resp dto.OutcomeResponse
	if out == nil {
		return resp
	}
	if out.Order != nil {
		order := toOrderResponse(*out.Order)
		resp.Order = &order
	}
	if out.Validation != nil {
		v := toStockValidationResponse(*out.Validation)
		resp.Validation = &v
	}
	if out.Batch != nil {
		b := toBatchValidationResponse(*out.Batch)
		resp.Batch = &b
	}
	resp.Replayed = out.Replayed
	return resp
}

func toCartStateResponse(v cart.View) dto.CartStateResponse {
	return dto.CartStateResponse{State: v.State.String(), Busy: v.Busy, NeedsResync: v.NeedsResync}
}
