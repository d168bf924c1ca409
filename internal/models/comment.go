package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxCommentLength bounds trimmed comment content, counted in characters.
const MaxCommentLength = 500

// PostComment is one entry of the embedded comments array
type PostComment struct {
	ID        primitive.ObjectID `json:"id" bson:"_id"`
	UserID    primitive.ObjectID `json:"user_id" bson:"user_id"`
	Content   string             `json:"content" bson:"content"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}

// CommentView is a comment with its author card resolved
type CommentView struct {
	ID        primitive.ObjectID `json:"id"`
	Content   string             `json:"content"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
	User      UserCompact        `json:"user"`
}

// CreateCommentRequest defines the request body for commenting on a post
type CreateCommentRequest struct {
	PostID         string `json:"postId" validate:"required,objectid"`
	CommentContent string `json:"commentContent" validate:"required"`
	RecipientID    string `json:"recipientId,omitempty" validate:"omitempty,objectid"`
}

// UpdateCommentRequest defines the request body for editing an existing comment
type UpdateCommentRequest struct {
	PostID     string `json:"postId" validate:"required,objectid"`
	NewContent string `json:"newContent" validate:"required"`
}

// DeleteCommentRequest defines the request body for deleting a comment
type DeleteCommentRequest struct {
	PostID string `json:"postId" validate:"required,objectid"`
}
