package services

import (
	"fmt"

	"github.com/anonto42/canvas-social/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	unknownAuthor     = "Unknown"
	fallbackMessage   = "You have a new notification"
	homeURL           = "/"
	postURLPattern    = "/post/%s"
	profileURLPattern = "/profile/%s"
)

// ResolvedNotification is a notification with its author name looked up.
type ResolvedNotification struct {
	Type           models.NotificationType
	AuthorID       primitive.ObjectID
	AuthorUsername string
	PostID         *primitive.ObjectID
}

// FormattedNotification is the display text and navigation target.
type FormattedNotification struct {
	Message string `json:"message"`
	URL     string `json:"url"`
}

// FormatNotification renders a notification for display. It never fails:
// missing authors become "Unknown" and missing targets fall back to home.
func FormatNotification(n ResolvedNotification) FormattedNotification {
	author := n.AuthorUsername
	if author == "" {
		author = unknownAuthor
	}

	switch n.Type {
	case models.NotificationLike:
		return FormattedNotification{Message: author + " liked your post", URL: postURL(n.PostID)}
	case models.NotificationComment:
		return FormattedNotification{Message: author + " commented on your post", URL: postURL(n.PostID)}
	case models.NotificationSave:
		return FormattedNotification{Message: author + " saved your post", URL: postURL(n.PostID)}
	case models.NotificationFollow:
		url := homeURL
		if !n.AuthorID.IsZero() {
			url = fmt.Sprintf(profileURLPattern, n.AuthorID.Hex())
		}
		return FormattedNotification{Message: author + " started following you", URL: url}
	default:
		return FormattedNotification{Message: fallbackMessage, URL: homeURL}
	}
}

func postURL(id *primitive.ObjectID) string {
	if id == nil || id.IsZero() {
		return homeURL
	}
	return fmt.Sprintf(postURLPattern, id.Hex())
}
