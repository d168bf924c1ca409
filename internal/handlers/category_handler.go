package handlers

import (
	"net/http"

	"github.com/anonto42/canvas-social/backend/internal/services"
	"github.com/labstack/echo/v4"
)

type CategoryHandler struct {
	posts *services.PostService
}

func NewCategoryHandler(posts *services.PostService) *CategoryHandler {
	return &CategoryHandler{posts: posts}
}

// RegisterCategoryRoutes registers category routes under g (/api/v2/category)
func (h *CategoryHandler) RegisterCategoryRoutes(g *echo.Group) {
	g.GET("", h.ListCategories)
	g.DELETE("/:categoryId", h.DeleteCategory)
}

func (h *CategoryHandler) ListCategories(c echo.Context) error {
	categories, err := h.posts.ListCategories(c.Request().Context())
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, categories)
}

func (h *CategoryHandler) DeleteCategory(c echo.Context) error {
	id, err := parseObjectID(c.Param("categoryId"), "categoryId")
	if err != nil {
		return err
	}
	if err := h.posts.DeleteCategory(c.Request().Context(), id); err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"message": "category deleted"})
}
