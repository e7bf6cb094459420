package models

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ParseID parses a hex ObjectID, reporting false for empty or malformed input.
func ParseID(s string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(s))
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

// NormalizeEmail lowercases and trims an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
