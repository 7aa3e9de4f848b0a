package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/posorder/internal/domain/model"
	"github.com/polkiloo/posorder/internal/server/http/dto"
)

// StockHandler exposes stock pre-checks.
type StockHandler struct {
	facade StockFacade
}

// NewStockHandler constructs StockHandler.
func NewStockHandler(facade StockFacade) *StockHandler {
	return &StockHandler{facade: facade}
}

// Validate handles POST /api/stock/validate.
func (h *StockHandler) Validate(c *gin.Context) {
	var req []dto.StockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed stock request")
		return
	}

	reqs := make([]model.StockRequest, 0, len(req))
	for _, r := range req {
		reqs = append(reqs, model.StockRequest{ProductID: r.ProductID, Quantity: r.Quantity, ExistingLineID: r.ExistingLineID})
	}
	batch := h.facade.ValidateStock(c.Request.Context(), reqs)
	c.JSON(http.StatusOK, toBatchValidationResponse(batch))
}
