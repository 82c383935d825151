package notify

import (
	"context"
	"errors"
	"time"
)

// LowStockAlert is sent to the store admin when a product runs low
type LowStockAlert struct {
	ProductKey  string
	ProductName string
	Size        string
	Unit        string
	Available   float64
	Threshold   float64
}

// OrderItem is one line of an order confirmation
type OrderItem struct {
	Name     string
	Size     string
	Quantity float64
	Price    float64
}

// Subtotal is price times quantity
func (i OrderItem) Subtotal() float64 {
	return i.Price * i.Quantity
}

// Address is a delivery address
type Address struct {
	FullName string
	Email    string
	Phone    string
	Address  string
	City     string
	State    string
	Pincode  string
}

// OrderConfirmation is sent to the customer after an order is placed
type OrderConfirmation struct {
	OrderID       string
	CustomerName  string
	CustomerEmail string
	Items         []OrderItem
	TotalAmount   float64
	Address       *Address
	PlacedAt      time.Time
}

// Notifier delivers storefront notifications. Channels that do not carry a
// given kind of message return nil for it.
type Notifier interface {
	LowStock(ctx context.Context, alert LowStockAlert) error
	OrderConfirmation(ctx context.Context, order OrderConfirmation) error
}

// Multi fans a notification out to every channel
type Multi []Notifier

func (m Multi) LowStock(ctx context.Context, alert LowStockAlert) error {
	var errs []error
	for _, n := range m {
		if err := n.LowStock(ctx, alert); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) OrderConfirmation(ctx context.Context, order OrderConfirmation) error {
	var errs []error
	for _, n := range m {
		if err := n.OrderConfirmation(ctx, order); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards every notification
type Nop struct{}

func (Nop) LowStock(context.Context, LowStockAlert) error { return nil }

func (Nop) OrderConfirmation(context.Context, OrderConfirmation) error { return nil }
