package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationType is the interaction that produced a notification
type NotificationType string

const (
	NotificationLike    NotificationType = "like"
	NotificationUnlike  NotificationType = "unlike"
	NotificationComment NotificationType = "comment"
	NotificationSave    NotificationType = "save"
	NotificationFollow  NotificationType = "follow"
)

// Valid reports whether t is one of the known notification types
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationLike, NotificationUnlike, NotificationComment, NotificationSave, NotificationFollow:
		return true
	}
	return false
}

// Notification represents a user notification (MongoDB)
type Notification struct {
	ID        primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	Recipient primitive.ObjectID  `json:"recipient" bson:"recipient"`
	Author    primitive.ObjectID  `json:"author" bson:"author"`
	Type      NotificationType    `json:"type" bson:"type"`
	Post      *primitive.ObjectID `json:"post,omitempty" bson:"post,omitempty"`
	IsRead    bool                `json:"is_read" bson:"is_read"`
	CreatedAt time.Time           `json:"created_at" bson:"created_at"`
}

// NotificationQuery selects a page of a recipient's notifications
type NotificationQuery struct {
	Recipient primitive.ObjectID
	Before    primitive.ObjectID // exclusive cursor; zero means newest
	Type      NotificationType
	Limit     int64
}

// MarkAsReadRequest defines the request body for marking notifications read
type MarkAsReadRequest struct {
	NotificationIDs []string `json:"notificationIds" validate:"required,min=1,max=100,dive,objectid"`
}

// NotificationView is a notification with author resolved and formatted text
type NotificationView struct {
	Notification
	AuthorInfo UserCompact `json:"author_info"`
	Message    string      `json:"message"`
	URL        string      `json:"url"`
}
