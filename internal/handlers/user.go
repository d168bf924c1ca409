package handlers

import (
	"net/http"

	"github.com/anonto42/canvas-social/backend/internal/models"
	"github.com/anonto42/canvas-social/backend/internal/repositories"
	"github.com/anonto42/canvas-social/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// UserHandler handles profile requests
type UserHandler struct {
	users        repositories.UserRepository
	interactions *services.InteractionService
}

func NewUserHandler(users repositories.UserRepository, interactions *services.InteractionService) *UserHandler {
	return &UserHandler{users: users, interactions: interactions}
}

// RegisterUserRoutes registers user routes under g (/api/v2/users)
func (h *UserHandler) RegisterUserRoutes(g *echo.Group) {
	g.GET("/profile", h.GetProfile)
	g.PUT("/profile", h.UpdateProfile)
	g.GET("/:id", h.GetUser)
	g.GET("/:id/followers", h.GetFollowers)
	g.GET("/:id/following", h.GetFollowing)
}

// GetProfile returns the caller's own account.
func (h *UserHandler) GetProfile(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	user, err := h.users.GetUserByID(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, user)
}

func (h *UserHandler) UpdateProfile(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	req := new(models.UpdateUserRequest)
	if err := bindAndValidate(c, req); err != nil {
		return err
	}
	user, err := h.users.UpdateProfile(c.Request().Context(), userID, req)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, user)
}

// GetUser returns another user's public profile.
func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := parseObjectID(c.Param("id"), "id")
	if err != nil {
		return err
	}
	user, err := h.users.GetUserByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{
		"user":            user.ToCompact(),
		"bio":             user.Bio,
		"cover_photo":     user.CoverPhoto,
		"followers_count": len(user.Followers),
		"following_count": len(user.Following),
	})
}

func (h *UserHandler) GetFollowers(c echo.Context) error {
	id, err := parseObjectID(c.Param("id"), "id")
	if err != nil {
		return err
	}
	followers, err := h.interactions.Followers(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, followers)
}

func (h *UserHandler) GetFollowing(c echo.Context) error {
	id, err := parseObjectID(c.Param("id"), "id")
	if err != nil {
		return err
	}
	following, err := h.interactions.Following(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, following)
}
