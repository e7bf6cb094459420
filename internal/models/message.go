package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message is an immutable direct message between two users.
type Message struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	From      primitive.ObjectID `bson:"from" json:"from"`
	To        primitive.ObjectID `bson:"to" json:"to"`
	Text      string             `bson:"text" json:"text"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
