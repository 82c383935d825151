package handler

import (
	"net/http"

	"storefront-service/internal/catalog"
	"storefront-service/internal/model"
	"storefront-service/internal/repository"
	"storefront-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	defaultMovementLimit = 100
	maxMovementLimit     = 1000
)

// SyncProductsRequest carries the master product list
type SyncProductsRequest struct {
	Products []*model.Product `json:"products"`
}

// AdminHandler serves catalog maintenance and stock audit endpoints
type AdminHandler struct {
	catalog *catalog.Service
	ledger  repository.Ledger
}

// NewAdminHandler accepts a nil ledger when the audit ledger is disabled
func NewAdminHandler(catalogService *catalog.Service, ledger repository.Ledger) *AdminHandler {
	return &AdminHandler{catalog: catalogService, ledger: ledger}
}

// SyncProducts upserts the posted catalog by numeric product id
func (h *AdminHandler) SyncProducts(c echo.Context) error {
	log := logger.FromEcho(c)

	var req SyncProductsRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Invalid product sync request", zap.Error(err))
		return fail(c, http.StatusBadRequest, "Invalid request data")
	}
	if len(req.Products) == 0 {
		return fail(c, http.StatusBadRequest, "Products array is required")
	}

	result, err := h.catalog.SyncProducts(c.Request().Context(), req.Products)
	if err != nil {
		log.Error("Product sync failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Products synchronized",
		"result":  result,
	})
}

// SyncReviewCounts recomputes every product's review count
func (h *AdminHandler) SyncReviewCounts(c echo.Context) error {
	log := logger.FromEcho(c)

	result, err := h.catalog.SyncReviewCounts(c.Request().Context())
	if err != nil {
		log.Error("Review count sync failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Review counts synchronized",
		"result":  result,
	})
}

// ListStockMovements returns the newest ledger rows, optionally for one
// product (?product=<document key>)
func (h *AdminHandler) ListStockMovements(c echo.Context) error {
	log := logger.FromEcho(c)
	if h.ledger == nil {
		return fail(c, http.StatusNotImplemented, "Stock ledger is disabled")
	}

	productKey := c.QueryParam("product")
	limit := queryLimit(c, defaultMovementLimit, maxMovementLimit)

	movements, err := h.ledger.List(c.Request().Context(), productKey, limit)
	if err != nil {
		log.Error("Failed to list stock movements", zap.String("product_key", productKey), zap.Error(err))
		return fail(c, http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    movements,
	})
}
