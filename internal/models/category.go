package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UncategorizedTitle is used when a post arrives without a category.
const UncategorizedTitle = "uncategorized art"

// NormalizeCategoryTitle is the form titles are stored and matched in.
func NormalizeCategoryTitle(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Category groups posts by art style
type Category struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Title     string             `json:"title" bson:"title"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}
