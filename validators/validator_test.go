package validators

import (
	"testing"

	"github.com/anonto42/canvas-social/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestValidate_ObjectIDTag(t *testing.T) {
	v := NewValidator()

	ok := &models.CreateLikeRequest{PostID: primitive.NewObjectID().Hex()}
	assert.NoError(t, v.Validate(ok))

	bad := &models.CreateLikeRequest{PostID: "not-an-id"}
	err := v.Validate(bad)
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "postId must be a valid id")
	}
}

func TestValidate_RequiredUsesJSONName(t *testing.T) {
	v := NewValidator()

	err := v.Validate(&models.CreateCommentRequest{PostID: primitive.NewObjectID().Hex()})
	if assert.Error(t, err) {
		assert.Equal(t, "commentContent is required", err.Error())
	}
}

func TestValidate_OptionalRecipient(t *testing.T) {
	v := NewValidator()

	req := &models.CreateCommentRequest{
		PostID:         primitive.NewObjectID().Hex(),
		CommentContent: "nice",
	}
	assert.NoError(t, v.Validate(req))

	req.RecipientID = "zzz"
	assert.Error(t, v.Validate(req))
}

func TestValidate_MarkAsReadBounds(t *testing.T) {
	v := NewValidator()

	assert.Error(t, v.Validate(&models.MarkAsReadRequest{}))
	assert.Error(t, v.Validate(&models.MarkAsReadRequest{NotificationIDs: []string{"x"}}))
	assert.NoError(t, v.Validate(&models.MarkAsReadRequest{
		NotificationIDs: []string{primitive.NewObjectID().Hex(), primitive.NewObjectID().Hex()},
	}))

	ids := make([]string, 101)
	for i := range ids {
		ids[i] = primitive.NewObjectID().Hex()
	}
	assert.Error(t, v.Validate(&models.MarkAsReadRequest{NotificationIDs: ids}))
}

func TestJSONName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "postId", jsonName("postId,omitempty", "PostID"))
	assert.Equal(t, "PostID", jsonName("", "PostID"))
	assert.Equal(t, "", jsonName("-", "Password"))
}
