package handlers

import (
	"net/http"

	"github.com/anonto42/canvas-social/backend/internal/models"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SavePost handles POST /save
func (h *InteractionHandler) SavePost(c echo.Context) error {
	actorID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	req := new(models.SavePostRequest)
	if err := bindAndValidate(c, req); err != nil {
		return err
	}
	postID, _ := primitive.ObjectIDFromHex(req.PostID)

	user, err := h.interactions.Save(c.Request().Context(), actorID, postID)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"saved_posts": user.SavedPosts})
}

// RemoveSavedPost handles DELETE /post/remove-saved-post
func (h *InteractionHandler) RemoveSavedPost(c echo.Context) error {
	actorID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	req := new(models.SavePostRequest)
	if err := bindAndValidate(c, req); err != nil {
		return err
	}
	postID, _ := primitive.ObjectIDFromHex(req.PostID)

	user, err := h.interactions.Unsave(c.Request().Context(), actorID, postID)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"saved_posts": user.SavedPosts})
}

// GetSavedStatus reports whether the caller has saved a post.
func (h *InteractionHandler) GetSavedStatus(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	postID, err := parseObjectID(c.Param("postId"), "postId")
	if err != nil {
		return err
	}
	saved, err := h.interactions.IsSaved(c.Request().Context(), userID, postID)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"post_id": postID, "is_saved": saved})
}

// GetSavedPosts lists the caller's saved posts.
func (h *InteractionHandler) GetSavedPosts(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	posts, err := h.interactions.SavedPosts(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"posts": posts})
}
