package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/posorder/internal/cart"
	"github.com/polkiloo/posorder/internal/server/http/dto"
)

// CartHandler manages line and discount edits of open orders.
type CartHandler struct {
	facade CartFacade
}

// NewCartHandler constructs CartHandler.
func NewCartHandler(facade CartFacade) *CartHandler {
	return &CartHandler{facade: facade}
}

// ContinueEditing handles POST /api/orders/:id/editing.
func (h *CartHandler) ContinueEditing(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		badRequest(c, "invalid order id")
		return
	}
	out, err := h.facade.ContinueEditing(c.Request.Context(), CurrentStaffID(c), orderID)
	h.respond(c, orderID, out, err)
}

// AddItem handles POST /api/orders/:id/lines.
func (h *CartHandler) AddItem(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		badRequest(c, "invalid order id")
		return
	}
	var req dto.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ProductID <= 0 {
		badRequest(c, "malformed line request")
		return
	}
	out, err := h.facade.AddItem(c.Request.Context(), CurrentStaffID(c), orderID, req.ProductID, req.Quantity, idempotencyKey(c))
	h.respond(c, orderID, out, err)
}

// AdjustQuantity handles PATCH /api/orders/:id/lines/:lineId.
func (h *CartHandler) AdjustQuantity(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		badRequest(c, "invalid order id")
		return
	}
	lineID, ok := pathID(c, "lineId")
	if !ok {
		badRequest(c, "invalid line id")
		return
	}
	var req dto.AdjustQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed quantity request")
		return
	}
	out, err := h.facade.AdjustQuantity(c.Request.Context(), CurrentStaffID(c), orderID, lineID, req.Delta, idempotencyKey(c))
	h.respond(c, orderID, out, err)
}

// RemoveItem handles DELETE /api/orders/:id/products/:productId.
func (h *CartHandler) RemoveItem(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		badRequest(c, "invalid order id")
		return
	}
	productID, ok := pathID(c, "productId")
	if !ok {
		badRequest(c, "invalid product id")
		return
	}
	out, err := h.facade.RemoveItem(c.Request.Context(), CurrentStaffID(c), orderID, productID, idempotencyKey(c))
	h.respond(c, orderID, out, err)
}

// Clear handles DELETE /api/orders/:id/lines.
func (h *CartHandler) Clear(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		badRequest(c, "invalid order id")
		return
	}
	out, err := h.facade.ClearItems(c.Request.Context(), CurrentStaffID(c), orderID, idempotencyKey(c))
	h.respond(c, orderID, out, err)
}

// ApplyDiscount handles PUT /api/orders/:id/discount.
func (h *CartHandler) ApplyDiscount(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		badRequest(c, "invalid order id")
		return
	}
	var req dto.DiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed discount request")
		return
	}
	out, err := h.facade.ApplyDiscount(c.Request.Context(), CurrentStaffID(c), orderID, req.Percent, idempotencyKey(c))
	h.respond(c, orderID, out, err)
}

// Resync handles POST /api/orders/:id/resync.
func (h *CartHandler) Resync(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		badRequest(c, "invalid order id")
		return
	}
	out, err := h.facade.Resync(c.Request.Context(), CurrentStaffID(c), orderID)
	h.respond(c, orderID, out, err)
}

// State handles GET /api/orders/:id/cart.
func (h *CartHandler) State(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		badRequest(c, "invalid order id")
		return
	}
	view, ok := h.facade.CartView(CurrentStaffID(c), orderID)
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	resp := toOutcomeResponse(&cart.Outcome{Order: view.Confirmed})
	state := toCartStateResponse(view)
	resp.Cart = &state
	c.JSON(http.StatusOK, resp)
}

func (h *CartHandler) respond(c *gin.Context, orderID int64, out *cart.Outcome, err error) {
	if err != nil {
		writeError(c, err, out)
		return
	}
	resp := toOutcomeResponse(out)
	if view, ok := h.facade.CartView(CurrentStaffID(c), orderID); ok {
		state := toCartStateResponse(view)
		resp.Cart = &state
	}
	c.JSON(http.StatusOK, resp)
}
