package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StatusKind names one of the toggleable relations backed by a status collection
type StatusKind string

const (
	StatusLike   StatusKind = "likes"
	StatusSave   StatusKind = "saves"
	StatusFollow StatusKind = "follows"
)

// StatusRecord is the per-(user, target) toggle row. One row exists per pair;
// it is flipped, never deleted.
type StatusRecord struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID    primitive.ObjectID `json:"user_id" bson:"user_id"`
	TargetID  primitive.ObjectID `json:"target_id" bson:"target_id"`
	Status    bool               `json:"status" bson:"status"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}
