package model

import "time"

// Review is a customer review of a product
type Review struct {
	Key       DocKey      `json:"id" bson:"_id"`
	ProductID interface{} `json:"productId" bson:"productId"`
	UserID    string      `json:"userId,omitempty" bson:"userId,omitempty"`
	Rating    float64     `json:"rating" bson:"rating"`
	Comment   string      `json:"comment,omitempty" bson:"comment,omitempty"`
	CreatedAt time.Time   `json:"createdAt" bson:"createdAt"`
}
