package handler

import (
	"errors"
	"net/http"

	"storefront-service/internal/model"
	"storefront-service/internal/repository"
	"storefront-service/internal/stock"
	"storefront-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// StockRequest is the body of a stock reduction
type StockRequest struct {
	Items []model.LineItem `json:"items"`
}

// ProductHandler serves the catalog and stock endpoints
type ProductHandler struct {
	products repository.ProductRepository
	stock    *stock.Service
}

func NewProductHandler(products repository.ProductRepository, stockService *stock.Service) *ProductHandler {
	return &ProductHandler{products: products, stock: stockService}
}

// ListProducts returns the catalog, optionally filtered by ?category=
func (h *ProductHandler) ListProducts(c echo.Context) error {
	log := logger.FromEcho(c)
	category := c.QueryParam("category")

	products, err := h.products.List(c.Request().Context(), category)
	if err != nil {
		log.Error("Failed to list products", zap.String("category", category), zap.Error(err))
		return fail(c, http.StatusInternalServerError, err.Error())
	}

	log.Info("Products retrieved successfully", zap.Int("count", len(products)))
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    products,
	})
}

// GetProduct looks a product up by any of its identifier forms
func (h *ProductHandler) GetProduct(c echo.Context) error {
	log := logger.FromEcho(c)
	raw := c.Param("id")

	id, err := stock.ParseIdentifier(raw)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid product id")
	}

	product, err := h.stock.Resolver().Resolve(c.Request().Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		log.Info("Product not found", zap.String("product_id", raw))
		return fail(c, http.StatusNotFound, "Product not found")
	}
	if err != nil {
		log.Error("Failed to get product", zap.String("product_id", raw), zap.Error(err))
		return fail(c, http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    product,
	})
}

// ReduceStock takes purchased quantities out of stock. Items whose product
// cannot be found are skipped and do not fail the request.
func (h *ProductHandler) ReduceStock(c echo.Context) error {
	log := logger.FromEcho(c)

	var req StockRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Invalid stock request", zap.Error(err))
		return fail(c, http.StatusBadRequest, "Invalid request data")
	}
	if req.Items == nil {
		return fail(c, http.StatusBadRequest, "Items array is required")
	}

	report, err := h.stock.Reduce(c.Request().Context(), req.Items, "")
	if err != nil {
		log.Error("Failed to reduce stock", zap.Stringer("report", report), zap.Error(err))
		return fail(c, http.StatusInternalServerError, err.Error())
	}

	log.Info("Stock reduced", zap.Stringer("report", report))
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Stock updated successfully",
	})
}
