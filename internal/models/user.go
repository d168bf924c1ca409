package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an account document in the users collection
type User struct {
	ID             primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Username       string               `json:"username" bson:"username"`
	Email          string               `json:"email" bson:"email"`
	Password       string               `json:"-" bson:"password,omitempty"` // opaque hash, never serialized
	FirebaseUID    string               `json:"firebase_uid,omitempty" bson:"firebase_uid,omitempty"`
	ProfilePicture string               `json:"profile_picture" bson:"profile_picture"`
	CoverPhoto     string               `json:"cover_photo" bson:"cover_photo"`
	Bio            string               `json:"bio" bson:"bio"`
	Followers      []primitive.ObjectID `json:"followers" bson:"followers"`
	Following      []primitive.ObjectID `json:"following" bson:"following"`
	SavedPosts     []primitive.ObjectID `json:"saved_posts" bson:"saved_posts"`
	Violations     int                  `json:"violations" bson:"violations"`
	IsBanned       bool                 `json:"is_banned" bson:"is_banned"`
	CreatedAt      time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at" bson:"updated_at"`
}

// UserCompact is the public author card embedded in other responses
type UserCompact struct {
	ID             primitive.ObjectID `json:"id"`
	Username       string             `json:"username"`
	ProfilePicture string             `json:"profile_picture"`
}

// ToCompact strips a user down to its public card
func (u *User) ToCompact() UserCompact {
	return UserCompact{
		ID:             u.ID,
		Username:       u.Username,
		ProfilePicture: u.ProfilePicture,
	}
}

// IsFollowedBy reports whether id is in the user's followers set
func (u *User) IsFollowedBy(id primitive.ObjectID) bool {
	return containsObjectID(u.Followers, id)
}

// HasSaved reports whether postID is in the user's saved posts set
func (u *User) HasSaved(postID primitive.ObjectID) bool {
	return containsObjectID(u.SavedPosts, postID)
}

func containsObjectID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

type UpdateUserRequest struct {
	Username       string `json:"username,omitempty" validate:"omitempty,min=3,max=30"`
	Bio            string `json:"bio,omitempty" validate:"omitempty,max=300"`
	ProfilePicture string `json:"profile_picture,omitempty" validate:"omitempty,max=2048"`
	CoverPhoto     string `json:"cover_photo,omitempty" validate:"omitempty,max=2048"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
