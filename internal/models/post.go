package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Attachment is a named link to a stored resource.
type Attachment struct {
	Name string `bson:"name" json:"name"`
	URL  string `bson:"url" json:"url"`
}

// Post is a feed entry. Only the owner (User) may edit or delete it.
type Post struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	User        primitive.ObjectID `bson:"user" json:"user"`
	AuthorEmail string             `bson:"authorEmail" json:"authorEmail"`
	Text        string             `bson:"text" json:"text"`
	ImageThumb  string             `bson:"imageThumb,omitempty" json:"imageThumb,omitempty"`
	Attachments []Attachment       `bson:"attachments" json:"attachments"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}
