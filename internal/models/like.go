package models

// CreateLikeRequest defines the request body for liking or unliking a post.
// AuthorID, when present, must be the authenticated actor.
type CreateLikeRequest struct {
	PostID      string `json:"postId" validate:"required,objectid"`
	AuthorID    string `json:"authorId,omitempty" validate:"omitempty,objectid"`
	RecipientID string `json:"recipientId,omitempty" validate:"omitempty,objectid"`
}
