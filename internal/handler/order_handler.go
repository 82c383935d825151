package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"storefront-service/internal/model"
	"storefront-service/internal/repository"
	"storefront-service/internal/stock"
	"storefront-service/pkg/logger"
	"storefront-service/pkg/notify"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	defaultOrderLimit = 50
	maxOrderLimit     = 200
)

// OrderRequest is the body of an order placement
type OrderRequest struct {
	UserID          string           `json:"userId"`
	CustomerName    string           `json:"customerName"`
	CustomerEmail   string           `json:"customerEmail"`
	Items           []model.LineItem `json:"items"`
	TotalAmount     float64          `json:"totalAmount"`
	ShippingAddress *model.Address   `json:"shippingAddress"`
}

// OrderHandler serves order placement, lookup and cancellation
type OrderHandler struct {
	orders   repository.OrderRepository
	stock    *stock.Service
	notifier notify.Notifier
}

func NewOrderHandler(orders repository.OrderRepository, stockService *stock.Service, notifier notify.Notifier) *OrderHandler {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &OrderHandler{orders: orders, stock: stockService, notifier: notifier}
}

// CreateOrder stores a new order in status Placed and emails the customer a
// confirmation. Stock is reduced separately through reduce-stock.
func (h *OrderHandler) CreateOrder(c echo.Context) error {
	log := logger.FromEcho(c)

	var req OrderRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Invalid order request", zap.Error(err))
		return fail(c, http.StatusBadRequest, "Invalid request data")
	}
	if len(req.Items) == 0 {
		return fail(c, http.StatusBadRequest, "Order must contain at least one item")
	}

	email := req.CustomerEmail
	if email == "" && req.ShippingAddress != nil {
		email = req.ShippingAddress.Email
	}
	name := req.CustomerName
	if name == "" && req.ShippingAddress != nil {
		name = req.ShippingAddress.FullName
	}

	now := time.Now().UTC()
	order := &model.Order{
		Key:             model.DocKey(uuid.New().String()),
		UserID:          req.UserID,
		CustomerName:    name,
		CustomerEmail:   email,
		Items:           req.Items,
		TotalAmount:     req.TotalAmount,
		ShippingAddress: req.ShippingAddress,
		Status:          model.StatusPlaced,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	ctx := c.Request().Context()
	if err := h.orders.Create(ctx, order); err != nil {
		log.Error("Failed to create order", zap.Error(err))
		return fail(c, http.StatusInternalServerError, err.Error())
	}
	log.Info("Order created",
		zap.String("order_id", string(order.Key)),
		zap.String("user_id", order.UserID),
		zap.Int("items", len(order.Items)),
		zap.Float64("total_amount", order.TotalAmount))

	if err := h.notifier.OrderConfirmation(ctx, confirmationFor(order)); err != nil {
		log.Error("Failed to send order confirmation", zap.String("order_id", string(order.Key)), zap.Error(err))
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"message": "Order placed successfully",
		"id":      order.Key,
		"data":    order,
	})
}

// GetOrder returns one order
func (h *OrderHandler) GetOrder(c echo.Context) error {
	log := logger.FromEcho(c)
	id := c.Param("id")

	order, err := h.orders.GetByKey(c.Request().Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		return fail(c, http.StatusNotFound, "Order not found")
	}
	if err != nil {
		log.Error("Failed to get order", zap.String("order_id", id), zap.Error(err))
		return fail(c, http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    order,
	})
}

// ListOrders returns a user's orders, newest first
func (h *OrderHandler) ListOrders(c echo.Context) error {
	log := logger.FromEcho(c)
	userID := strings.TrimSpace(c.QueryParam("userId"))
	if userID == "" {
		return fail(c, http.StatusBadRequest, "userId is required")
	}

	limit := queryLimit(c, defaultOrderLimit, maxOrderLimit)
	orders, err := h.orders.ListByUser(c.Request().Context(), userID, int64(limit))
	if err != nil {
		log.Error("Failed to list orders", zap.String("user_id", userID), zap.Error(err))
		return fail(c, http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    orders,
	})
}

// CancelOrder cancels an order that is neither delivered nor already
// cancelled and puts its items back into stock
func (h *OrderHandler) CancelOrder(c echo.Context) error {
	log := logger.FromEcho(c)
	id := c.Param("id")
	ctx := c.Request().Context()

	order, err := h.orders.GetByKey(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		log.Info("Order not found for cancellation", zap.String("order_id", id))
		return fail(c, http.StatusNotFound, "Order not found")
	}
	if err != nil {
		log.Error("Failed to load order", zap.String("order_id", id), zap.Error(err))
		return fail(c, http.StatusInternalServerError, err.Error())
	}

	if !order.Status.Cancellable() {
		log.Warn("Order cannot be cancelled", zap.String("order_id", id), zap.String("status", string(order.Status)))
		return fail(c, http.StatusBadRequest, fmt.Sprintf("Cannot cancel order with status %s", order.Status))
	}

	// the conditional update decides between concurrent cancellations
	err = h.orders.MarkCancelled(ctx, id, time.Now().UTC())
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return fail(c, http.StatusNotFound, "Order not found")
	case errors.Is(err, repository.ErrConflict):
		log.Warn("Order was cancelled or delivered concurrently", zap.String("order_id", id))
		return fail(c, http.StatusBadRequest, "Order has already been cancelled or delivered")
	case err != nil:
		log.Error("Failed to cancel order", zap.String("order_id", id), zap.Error(err))
		return fail(c, http.StatusInternalServerError, err.Error())
	}

	report, err := h.stock.Restore(ctx, order.Items, id)
	if err != nil {
		log.Error("Order cancelled but stock restore failed",
			zap.String("order_id", id),
			zap.Stringer("report", report),
			zap.Error(err))
		return fail(c, http.StatusInternalServerError, err.Error())
	}

	log.Info("Order cancelled", zap.String("order_id", id), zap.Stringer("report", report))
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Order cancelled successfully",
	})
}

func confirmationFor(order *model.Order) notify.OrderConfirmation {
	items := make([]notify.OrderItem, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, notify.OrderItem{
			Name:     it.Name,
			Size:     it.PackSize(),
			Quantity: it.Quantity,
			Price:    it.Price,
		})
	}

	conf := notify.OrderConfirmation{
		OrderID:       string(order.Key),
		CustomerName:  order.CustomerName,
		CustomerEmail: order.CustomerEmail,
		Items:         items,
		TotalAmount:   order.TotalAmount,
		PlacedAt:      order.CreatedAt,
	}
	if a := order.ShippingAddress; a != nil {
		conf.Address = &notify.Address{
			FullName: a.FullName,
			Email:    a.Email,
			Phone:    a.Phone,
			Address:  a.Address,
			City:     a.City,
			State:    a.State,
			Pincode:  a.Pincode,
		}
	}
	return conf
}
