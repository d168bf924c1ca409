package services

import (
	"testing"

	"github.com/anonto42/canvas-social/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestFormatNotification(t *testing.T) {
	t.Parallel()

	postID := primitive.NewObjectID()
	authorID := primitive.NewObjectID()

	tests := []struct {
		name    string
		in      ResolvedNotification
		message string
		url     string
	}{
		{
			name:    "like",
			in:      ResolvedNotification{Type: models.NotificationLike, AuthorID: authorID, AuthorUsername: "alice", PostID: &postID},
			message: "alice liked your post",
			url:     "/post/" + postID.Hex(),
		},
		{
			name:    "comment",
			in:      ResolvedNotification{Type: models.NotificationComment, AuthorID: authorID, AuthorUsername: "bob", PostID: &postID},
			message: "bob commented on your post",
			url:     "/post/" + postID.Hex(),
		},
		{
			name:    "save",
			in:      ResolvedNotification{Type: models.NotificationSave, AuthorID: authorID, AuthorUsername: "carol", PostID: &postID},
			message: "carol saved your post",
			url:     "/post/" + postID.Hex(),
		},
		{
			name:    "follow",
			in:      ResolvedNotification{Type: models.NotificationFollow, AuthorID: authorID, AuthorUsername: "dave"},
			message: "dave started following you",
			url:     "/profile/" + authorID.Hex(),
		},
		{
			name:    "missing author",
			in:      ResolvedNotification{Type: models.NotificationLike, AuthorID: authorID, PostID: &postID},
			message: "Unknown liked your post",
			url:     "/post/" + postID.Hex(),
		},
		{
			name:    "missing post",
			in:      ResolvedNotification{Type: models.NotificationComment, AuthorUsername: "erin"},
			message: "erin commented on your post",
			url:     "/",
		},
		{
			name:    "follow without author id",
			in:      ResolvedNotification{Type: models.NotificationFollow},
			message: "Unknown started following you",
			url:     "/",
		},
		{
			name:    "unlike is not displayed specially",
			in:      ResolvedNotification{Type: models.NotificationUnlike, AuthorUsername: "frank", PostID: &postID},
			message: "You have a new notification",
			url:     "/",
		},
		{
			name:    "unknown type",
			in:      ResolvedNotification{Type: "poke", AuthorUsername: "gina"},
			message: "You have a new notification",
			url:     "/",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := FormatNotification(tt.in)
			assert.Equal(t, tt.message, got.Message)
			assert.Equal(t, tt.url, got.URL)
		})
	}
}
