package models

// SavePostRequest defines the request body for saving or unsaving a post
type SavePostRequest struct {
	PostID string `json:"postId" validate:"required,objectid"`
}
