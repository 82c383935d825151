package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handlers groups every HTTP handler of the service
type Handlers struct {
	Health   *HealthHandler
	Products *ProductHandler
	Orders   *OrderHandler
	Data     *DataHandler
	Admin    *AdminHandler
}

// RegisterRoutes mounts the API on e. adminGuard protects /api/admin.
func RegisterRoutes(e *echo.Echo, h *Handlers, metrics http.Handler, adminGuard ...echo.MiddlewareFunc) {
	e.GET("/", h.Health.Root)
	e.GET("/health", h.Health.HealthCheck)
	if metrics != nil {
		e.GET("/metrics", echo.WrapHandler(metrics))
	}

	api := e.Group("/api")

	products := api.Group("/products")
	products.GET("", h.Products.ListProducts)
	products.GET("/:id", h.Products.GetProduct)
	products.POST("/reduce-stock", h.Products.ReduceStock)

	orders := api.Group("/orders")
	orders.POST("", h.Orders.CreateOrder)
	orders.GET("", h.Orders.ListOrders)
	orders.GET("/:id", h.Orders.GetOrder)
	orders.POST("/:id/cancel", h.Orders.CancelOrder)

	data := api.Group("/data")
	data.GET("/:collection", h.Data.ListDocuments)
	data.POST("/:collection", h.Data.AddDocument)

	admin := api.Group("/admin", adminGuard...)
	admin.POST("/products/sync", h.Admin.SyncProducts)
	admin.POST("/sync-review-counts", h.Admin.SyncReviewCounts)
	admin.GET("/stock-movements", h.Admin.ListStockMovements)
}
