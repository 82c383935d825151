package model

import "time"

// Movement reasons
const (
	ReasonSale         = "sale"
	ReasonCancellation = "cancellation"
	ReasonSync         = "sync"
)

// StockMovement is an audit row for every committed stock change
type StockMovement struct {
	ID             uint      `json:"id" gorm:"primarykey"`
	ProductKey     string    `json:"product_key" gorm:"type:varchar(128);index;not null"`
	ProductName    string    `json:"product_name" gorm:"type:varchar(255)"`
	Reason         string    `json:"reason" gorm:"type:varchar(32);not null"`
	OrderID        string    `json:"order_id,omitempty" gorm:"type:varchar(128);index"`
	Delta          float64   `json:"delta" gorm:"not null"`
	QuantityBefore float64   `json:"quantity_before"`
	QuantityAfter  float64   `json:"quantity_after"`
	Unit           string    `json:"unit" gorm:"type:varchar(8)"`
	CreatedAt      time.Time `json:"created_at" gorm:"index"`
}
