package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post represents an artwork post stored in MongoDB
type Post struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	AuthorID      primitive.ObjectID `json:"author_id" bson:"author_id"`
	Title         string             `json:"title" bson:"title"`
	Description   string             `json:"description" bson:"description"`
	ImageURLs     []string           `json:"image_urls" bson:"image_urls"`
	CategoryID    primitive.ObjectID `json:"category_id,omitempty" bson:"category_id,omitempty"`
	CategoryTitle string             `json:"category_title" bson:"category_title"`
	LikesCount    int                `json:"likes_count" bson:"likes_count"`
	CommentsCount int                `json:"comments_count" bson:"comments_count"`
	Likes         []PostLike         `json:"likes" bson:"likes"`
	Comments      []PostComment      `json:"comments" bson:"comments"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" bson:"updated_at"`
}

// PostLike is one entry of the embedded likes array
type PostLike struct {
	UserID    primitive.ObjectID `json:"user_id" bson:"user_id"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

// LikedBy reports whether userID has an entry in the embedded likes array
func (p *Post) LikedBy(userID primitive.ObjectID) bool {
	for _, l := range p.Likes {
		if l.UserID == userID {
			return true
		}
	}
	return false
}

// FindComment returns the embedded comment with the given id, or nil
func (p *Post) FindComment(id primitive.ObjectID) *PostComment {
	for i := range p.Comments {
		if p.Comments[i].ID == id {
			return &p.Comments[i]
		}
	}
	return nil
}

// CreatePostRequest defines the request body for creating a new post
type CreatePostRequest struct {
	Title         string   `json:"title" validate:"required,min=1,max=120"`
	Description   string   `json:"description" validate:"max=2000"`
	ImageURLs     []string `json:"image_urls" validate:"required,min=1,max=10,dive,required,max=2048"`
	CategoryTitle string   `json:"category_title" validate:"omitempty,max=60"`
}

// UpdatePostRequest defines the request body for updating an existing post
type UpdatePostRequest struct {
	Title         string   `json:"title,omitempty" validate:"omitempty,min=1,max=120"`
	Description   string   `json:"description,omitempty" validate:"omitempty,max=2000"`
	ImageURLs     []string `json:"image_urls,omitempty" validate:"omitempty,max=10,dive,required,max=2048"`
	CategoryTitle string   `json:"category_title,omitempty" validate:"omitempty,max=60"`
}

// PostFilter narrows post listings
type PostFilter struct {
	AuthorID      primitive.ObjectID
	CategoryTitle string
	IDs           []primitive.ObjectID
}

// FeedPost is a post annotated with the caller's interaction state
type FeedPost struct {
	Post
	Author  UserCompact `json:"author"`
	IsLiked bool        `json:"is_liked"`
	IsSaved bool        `json:"is_saved"`
}
