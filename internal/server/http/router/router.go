package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/polkiloo/posorder/internal/domain/model"
	"github.com/polkiloo/posorder/internal/metrics"
	"github.com/polkiloo/posorder/internal/server/http/handlers"
	"github.com/polkiloo/posorder/internal/server/http/middleware"
)

const maxRequestBody = 1 << 20

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.SalesFacade, m *metrics.Metrics, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.RequestMetrics(m))
	engine.Use(middleware.DecompressRequest(maxRequestBody))
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	orderHandler := handlers.NewOrderHandler(facade)
	cartHandler := handlers.NewCartHandler(facade)
	stockHandler := handlers.NewStockHandler(facade)
	healthHandler := handlers.NewHealthHandler(facade)

	engine.GET("/metrics", gin.WrapH(m.Handler()))

	api := engine.Group("/api")
	api.GET("/health", healthHandler.Check)

	staff := api.Group("")
	staff.Use(middleware.AuthRequired(facade))

	orders := staff.Group("/orders")
	orders.POST("", orderHandler.Create)
	orders.GET("", orderHandler.List)
	orders.GET("/number/:number", orderHandler.ByNumber)
	orders.GET("/:id", orderHandler.Get)
	orders.DELETE("/:id", orderHandler.Cancel)

	orders.GET("/:id/cart", cartHandler.State)
	orders.POST("/:id/editing", cartHandler.ContinueEditing)
	orders.POST("/:id/lines", cartHandler.AddItem)
	orders.PATCH("/:id/lines/:lineId", cartHandler.AdjustQuantity)
	orders.DELETE("/:id/lines", cartHandler.Clear)
	orders.DELETE("/:id/products/:productId", cartHandler.RemoveItem)
	orders.PUT("/:id/discount", cartHandler.ApplyDiscount)
	orders.POST("/:id/resync", cartHandler.Resync)

	orders.POST("/:id/number", orderHandler.Transition(model.OrderStatusAvailableForPayment))
	orders.POST("/:id/payment", orderHandler.Transition(model.OrderStatusPaid))
	orders.POST("/:id/delivery", orderHandler.Transition(model.OrderStatusDelivered))
	orders.POST("/:id/closure", orderHandler.Transition(model.OrderStatusClosed))

	staff.POST("/stock/validate", stockHandler.Validate)

	return engine
}
