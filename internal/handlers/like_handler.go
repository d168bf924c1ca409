package handlers

import (
	"net/http"

	"github.com/anonto42/canvas-social/backend/internal/models"
	"github.com/anonto42/canvas-social/backend/internal/services"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LikePost handles POST /like
func (h *InteractionHandler) LikePost(c echo.Context) error {
	in, err := likeInput(c)
	if err != nil {
		return err
	}
	post, err := h.interactions.Like(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"post_id": post.ID, "likes_count": post.LikesCount})
}

// UnlikePost handles POST /unlike
func (h *InteractionHandler) UnlikePost(c echo.Context) error {
	in, err := likeInput(c)
	if err != nil {
		return err
	}
	post, err := h.interactions.Unlike(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"post_id": post.ID, "likes_count": post.LikesCount})
}

// GetLikeStatus reports whether the caller likes a post.
func (h *InteractionHandler) GetLikeStatus(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	postID, err := parseObjectID(c.Param("postId"), "postId")
	if err != nil {
		return err
	}
	liked, err := h.interactions.IsLiked(c.Request().Context(), userID, postID)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"post_id": postID, "is_liked": liked})
}

// GetLikedPosts lists the posts a user has liked, most recent like first.
func (h *InteractionHandler) GetLikedPosts(c echo.Context) error {
	userID, err := parseObjectID(c.Param("userId"), "userId")
	if err != nil {
		return err
	}
	page, limit := pagination(c, 20, 100)
	posts, err := h.interactions.LikedPosts(c.Request().Context(), userID, (page-1)*limit, limit)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"posts": posts, "page": page, "limit": limit})
}

// ReconcileLikes rebuilds the caller's post's like array from the like status rows.
func (h *InteractionHandler) ReconcileLikes(c echo.Context) error {
	actorID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	postID, err := parseObjectID(c.Param("postId"), "postId")
	if err != nil {
		return err
	}
	post, err := h.interactions.ReconcileLikes(c.Request().Context(), actorID, postID)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"post_id": post.ID, "likes_count": post.LikesCount})
}

func likeInput(c echo.Context) (services.LikeInput, error) {
	actorID, err := getUserIDFromContext(c)
	if err != nil {
		return services.LikeInput{}, err
	}
	req := new(models.CreateLikeRequest)
	if err := bindAndValidate(c, req); err != nil {
		return services.LikeInput{}, err
	}
	if err := checkAuthor(req.AuthorID, actorID); err != nil {
		return services.LikeInput{}, err
	}

	postID, _ := primitive.ObjectIDFromHex(req.PostID)
	recipientID, err := parseOptionalObjectID(req.RecipientID, "recipientId")
	if err != nil {
		return services.LikeInput{}, err
	}
	return services.LikeInput{ActorID: actorID, PostID: postID, RecipientID: recipientID}, nil
}

// checkAuthor rejects a body authorId that names someone other than the caller.
func checkAuthor(authorID string, actorID primitive.ObjectID) error {
	if authorID == "" || authorID == actorID.Hex() {
		return nil
	}
	return models.NewForbiddenError("authorId does not match the authenticated user")
}
