package model

import (
	"strings"
	"time"
)

// OrderStatus is the lifecycle state of an order
type OrderStatus string

const (
	StatusPlaced    OrderStatus = "Placed"
	StatusDelivered OrderStatus = "Delivered"
	StatusCancelled OrderStatus = "Cancelled"
)

// Is compares statuses case-insensitively; stored orders are not consistent about casing
func (s OrderStatus) Is(other OrderStatus) bool {
	return strings.EqualFold(strings.TrimSpace(string(s)), string(other))
}

// Cancellable reports whether an order in this status may still be cancelled
func (s OrderStatus) Cancellable() bool {
	return !s.Is(StatusDelivered) && !s.Is(StatusCancelled)
}

// LineItem is one product entry within an order. ID is whatever identifier
// the storefront captured at purchase time.
type LineItem struct {
	ID           interface{} `json:"id" bson:"id"`
	Name         string      `json:"name,omitempty" bson:"name,omitempty"`
	Price        float64     `json:"price,omitempty" bson:"price,omitempty"`
	Quantity     float64     `json:"quantity" bson:"quantity"`
	Size         string      `json:"size,omitempty" bson:"size,omitempty"`
	SelectedSize string      `json:"selectedSize,omitempty" bson:"selectedSize,omitempty"`
}

// PackSize returns the packaged size purchased, if any
func (li LineItem) PackSize() string {
	if li.Size != "" {
		return li.Size
	}
	return li.SelectedSize
}

// Address is the delivery address captured at checkout
type Address struct {
	FullName string `json:"fullName,omitempty" bson:"fullName,omitempty"`
	Email    string `json:"email,omitempty" bson:"email,omitempty"`
	Phone    string `json:"phone,omitempty" bson:"phone,omitempty"`
	Address  string `json:"address,omitempty" bson:"address,omitempty"`
	City     string `json:"city,omitempty" bson:"city,omitempty"`
	State    string `json:"state,omitempty" bson:"state,omitempty"`
	Pincode  string `json:"pincode,omitempty" bson:"pincode,omitempty"`
}

// Order is a customer order
type Order struct {
	Key             DocKey      `json:"id" bson:"_id"`
	UserID          string      `json:"userId,omitempty" bson:"userId,omitempty"`
	CustomerName    string      `json:"customerName,omitempty" bson:"customerName,omitempty"`
	CustomerEmail   string      `json:"customerEmail,omitempty" bson:"customerEmail,omitempty"`
	Items           []LineItem  `json:"items" bson:"items"`
	TotalAmount     float64     `json:"totalAmount" bson:"totalAmount"`
	ShippingAddress *Address    `json:"shippingAddress,omitempty" bson:"shippingAddress,omitempty"`
	Status          OrderStatus `json:"status" bson:"status"`
	CreatedAt       time.Time   `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt" bson:"updatedAt"`
	CancelledAt     *time.Time  `json:"cancelledAt,omitempty" bson:"cancelledAt,omitempty"`
}
