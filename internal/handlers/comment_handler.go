package handlers

import (
	"net/http"

	"github.com/anonto42/canvas-social/backend/internal/models"
	"github.com/anonto42/canvas-social/backend/internal/services"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CreateComment handles POST /comment
func (h *InteractionHandler) CreateComment(c echo.Context) error {
	actorID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	req := new(models.CreateCommentRequest)
	if err := bindAndValidate(c, req); err != nil {
		return err
	}
	postID, _ := primitive.ObjectIDFromHex(req.PostID)
	recipientID, err := parseOptionalObjectID(req.RecipientID, "recipientId")
	if err != nil {
		return err
	}

	res, err := h.interactions.Comment(c.Request().Context(), services.CommentInput{
		ActorID:     actorID,
		PostID:      postID,
		Content:     req.CommentContent,
		RecipientID: recipientID,
	})
	if err != nil {
		return err
	}

	data := echo.Map{"comment": res.Comment, "comments_count": res.Post.CommentsCount}
	if res.Notification != nil {
		data["notification"] = res.Notification
	}
	return success(c, http.StatusOK, data)
}

// EditComment handles PUT /edit-comment/:commentId
func (h *InteractionHandler) EditComment(c echo.Context) error {
	actorID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	commentID, err := parseObjectID(c.Param("commentId"), "commentId")
	if err != nil {
		return err
	}
	req := new(models.UpdateCommentRequest)
	if err := bindAndValidate(c, req); err != nil {
		return err
	}
	postID, _ := primitive.ObjectIDFromHex(req.PostID)

	comment, err := h.interactions.EditComment(c.Request().Context(), services.EditCommentInput{
		ActorID:   actorID,
		PostID:    postID,
		CommentID: commentID,
		Content:   req.NewContent,
	})
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"comment": comment})
}

// DeleteComment handles DELETE /delete-comment/:commentId
func (h *InteractionHandler) DeleteComment(c echo.Context) error {
	actorID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	commentID, err := parseObjectID(c.Param("commentId"), "commentId")
	if err != nil {
		return err
	}
	req := new(models.DeleteCommentRequest)
	if err := bindAndValidate(c, req); err != nil {
		return err
	}
	postID, _ := primitive.ObjectIDFromHex(req.PostID)

	post, err := h.interactions.DeleteComment(c.Request().Context(), services.DeleteCommentInput{
		ActorID:   actorID,
		PostID:    postID,
		CommentID: commentID,
	})
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"post_id": post.ID, "comments_count": post.CommentsCount})
}

// GetComments lists a post's comments with their authors.
func (h *InteractionHandler) GetComments(c echo.Context) error {
	postID, err := parseObjectID(c.Param("postId"), "postId")
	if err != nil {
		return err
	}
	comments, err := h.interactions.Comments(c.Request().Context(), postID)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"post_id": postID, "comments": comments})
}
