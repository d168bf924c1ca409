package handlers

import (
	"github.com/anonto42/canvas-social/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// InteractionHandler exposes the interaction engine over HTTP. Its routes are
// split across the like, comment, follow and saved post handler files.
type InteractionHandler struct {
	interactions *services.InteractionService
}

func NewInteractionHandler(interactions *services.InteractionService) *InteractionHandler {
	return &InteractionHandler{interactions: interactions}
}

// RegisterInteractionRoutes mounts the engine under g (/api/v2/interactions).
func (h *InteractionHandler) RegisterInteractionRoutes(g *echo.Group) {
	g.POST("/like", h.LikePost)
	g.POST("/unlike", h.UnlikePost)
	g.GET("/like-status/:postId", h.GetLikeStatus)
	g.GET("/get-liked-posts/:userId", h.GetLikedPosts)
	g.POST("/reconcile/:postId", h.ReconcileLikes)

	g.POST("/comment", h.CreateComment)
	g.PUT("/edit-comment/:commentId", h.EditComment)
	g.DELETE("/delete-comment/:commentId", h.DeleteComment)
	g.GET("/comments/:postId", h.GetComments)

	g.POST("/save", h.SavePost)
	g.GET("/saved-status/:postId", h.GetSavedStatus)

	g.POST("/follow/:authorId", h.FollowUser)
	g.POST("/unfollow/:authorId", h.UnfollowUser)
	g.GET("/check-follow/:authorId", h.CheckFollow)
}
