package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// FollowUser handles POST /follow/:authorId
func (h *InteractionHandler) FollowUser(c echo.Context) error {
	actorID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	targetID, err := parseObjectID(c.Param("authorId"), "authorId")
	if err != nil {
		return err
	}
	if err := h.interactions.Follow(c.Request().Context(), actorID, targetID); err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"message": "followed", "following": targetID})
}

// UnfollowUser handles POST /unfollow/:authorId
func (h *InteractionHandler) UnfollowUser(c echo.Context) error {
	actorID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	targetID, err := parseObjectID(c.Param("authorId"), "authorId")
	if err != nil {
		return err
	}
	if err := h.interactions.Unfollow(c.Request().Context(), actorID, targetID); err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"message": "unfollowed", "unfollowed": targetID})
}

func (h *InteractionHandler) CheckFollow(c echo.Context) error {
	actorID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	targetID, err := parseObjectID(c.Param("authorId"), "authorId")
	if err != nil {
		return err
	}
	following, err := h.interactions.IsFollowing(c.Request().Context(), actorID, targetID)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"author_id": targetID, "is_following": following})
}
