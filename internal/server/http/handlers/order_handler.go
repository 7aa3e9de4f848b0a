package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/posorder/internal/domain/model"
	"github.com/polkiloo/posorder/internal/server/http/dto"
)

// OrderHandler manages order queries and lifecycle transitions.
type OrderHandler struct {
	facade OrderFacade
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(facade OrderFacade) *OrderHandler {
	return &OrderHandler{facade: facade}
}

// Create handles POST /api/orders.
func (h *OrderHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed order request")
		return
	}
	if strings.TrimSpace(req.CustomerID) == "" {
		badRequest(c, "customer_id is required")
		return
	}

	order, err := h.facade.CreateOrder(c.Request.Context(), CurrentStaffID(c), req.CustomerID, req.DiscountPercent)
	if err != nil {
		writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusCreated, toOrderResponse(*order))
}

// Get handles GET /api/orders/:id.
func (h *OrderHandler) Get(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		badRequest(c, "invalid order id")
		return
	}
	order, err := h.facade.Order(c.Request.Context(), orderID)
	if err != nil {
		writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(*order))
}

// ByNumber handles GET /api/orders/number/:number.
func (h *OrderHandler) ByNumber(c *gin.Context) {
	order, err := h.facade.OrderByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(*order))
}

// List handles GET /api/orders. Without a status filter it returns the caller's orders.
func (h *OrderHandler) List(c *gin.Context) {
	var (
		orders []model.Order
		err    error
	)
	if status := c.Query("status"); status != "" {
		orders, err = h.facade.OrdersByStatus(c.Request.Context(), model.OrderStatus(strings.ToUpper(status)))
	} else {
		orders, err = h.facade.Orders(c.Request.Context(), CurrentStaffID(c))
	}
	if err != nil {
		writeError(c, err, nil)
		return
	}
	if len(orders) == 0 {
		c.Status(http.StatusNoContent)
		return
	}

	response := make([]dto.OrderResponse, 0, len(orders))
	for _, o := range orders {
		response = append(response, toOrderResponse(o))
	}
	c.JSON(http.StatusOK, response)
}

// Transition returns a handler moving the order to target.
func (h *OrderHandler) Transition(target model.OrderStatus) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := pathID(c, "id")
		if !ok {
			badRequest(c, "invalid order id")
			return
		}
		out, err := h.facade.Advance(c.Request.Context(), CurrentStaffID(c), orderID, target)
		if err != nil {
			writeError(c, err, out)
			return
		}
		c.JSON(http.StatusOK, toOutcomeResponse(out))
	}
}

// Cancel handles DELETE /api/orders/:id.
func (h *OrderHandler) Cancel(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		badRequest(c, "invalid order id")
		return
	}
	if err := h.facade.CancelOrder(c.Request.Context(), CurrentStaffID(c), orderID); err != nil {
		writeError(c, err, nil)
		return
	}
	c.Status(http.StatusNoContent)
}
