package model

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// DocKey is a store document key. Legacy documents may carry an ObjectID,
// which is decoded into its hex form.
type DocKey string

// UnmarshalBSONValue accepts both string and ObjectID document keys
func (k *DocKey) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	rv := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.String:
		*k = DocKey(rv.StringValue())
	case bsontype.ObjectID:
		*k = DocKey(rv.ObjectID().Hex())
	default:
		return fmt.Errorf("unsupported document key type %s", t)
	}
	return nil
}

// Canonical stock units
const (
	UnitKilogram   = "kg"
	UnitGram       = "gm"
	UnitLitre      = "L"
	UnitMillilitre = "ml"
)

// Product represents a catalog entry. ID holds the legacy identifier, which
// the data set stores either as a number or as a string.
type Product struct {
	Key           DocKey      `json:"docId" bson:"_id"`
	ID            interface{} `json:"id,omitempty" bson:"id,omitempty"`
	Name          string      `json:"name" bson:"name"`
	Category      string      `json:"category" bson:"category"`
	Unit          string      `json:"unit,omitempty" bson:"unit,omitempty"`
	Available     float64     `json:"available" bson:"available"`
	InStock       bool        `json:"inStock" bson:"inStock"`
	Price         float64     `json:"price,omitempty" bson:"price,omitempty"`
	OriginalPrice float64     `json:"originalPrice,omitempty" bson:"originalPrice,omitempty"`
	Discount      float64     `json:"discount,omitempty" bson:"discount,omitempty"`
	Rating        float64     `json:"rating,omitempty" bson:"rating,omitempty"`
	Reviews       int         `json:"reviews" bson:"reviews"`
	Image         string      `json:"image,omitempty" bson:"image,omitempty"`
	Description   string      `json:"description,omitempty" bson:"description,omitempty"`
	Brand         string      `json:"brand,omitempty" bson:"brand,omitempty"`
	Sizes         []string    `json:"sizes,omitempty" bson:"sizes,omitempty"`
	CreatedAt     time.Time   `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt" bson:"updatedAt"`
}

// CanonicalUnit returns the unit stock is tracked in, inferring it from the
// category when the record has none: oils are tracked in litres, the rest in kg
func (p *Product) CanonicalUnit() string {
	if p.Unit != "" {
		return p.Unit
	}
	if strings.Contains(strings.ToLower(p.Category), "oil") {
		return UnitLitre
	}
	return UnitKilogram
}

// StockChange describes one committed stock adjustment
type StockChange struct {
	Before    float64   `json:"before"`
	After     float64   `json:"after"`
	Delta     float64   `json:"delta"`
	InStock   bool      `json:"inStock"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ClampStock applies delta to current without going below zero
func ClampStock(current, delta float64) float64 {
	next := current + delta
	if next < 0 {
		return 0
	}
	return next
}
