package handlers

import (
	"net/http"

	"github.com/anonto42/canvas-social/backend/internal/models"
	"github.com/anonto42/canvas-social/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// PostHandler handles HTTP requests related to posts
type PostHandler struct {
	posts        *services.PostService
	interactions *InteractionHandler
}

func NewPostHandler(posts *services.PostService, interactions *InteractionHandler) *PostHandler {
	return &PostHandler{posts: posts, interactions: interactions}
}

// RegisterPostRoutes registers post routes under g (/api/v2/post)
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/create-post", h.CreatePost)
	g.GET("/get-post", h.ListPosts)
	g.GET("/get-post/:postId", h.GetPost)
	g.PUT("/update-post/:postId", h.UpdatePost)
	g.DELETE("/delete-post/:postId", h.DeletePost)
	g.GET("/feed", h.GetFeed)
	g.DELETE("/remove-saved-post", h.interactions.RemoveSavedPost)
	g.GET("/saved-posts", h.interactions.GetSavedPosts)
}

// CreatePost handles the creation of a new post
func (h *PostHandler) CreatePost(c echo.Context) error {
	authorID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	req := new(models.CreatePostRequest)
	if err := bindAndValidate(c, req); err != nil {
		return err
	}
	post, err := h.posts.CreatePost(c.Request().Context(), authorID, req)
	if err != nil {
		return err
	}
	return success(c, http.StatusCreated, post)
}

// GetPost retrieves a single post by ID
func (h *PostHandler) GetPost(c echo.Context) error {
	postID, err := parseObjectID(c.Param("postId"), "postId")
	if err != nil {
		return err
	}
	post, err := h.posts.GetPost(c.Request().Context(), postID)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, post)
}

// ListPosts returns a page of posts, optionally filtered by author or category.
func (h *PostHandler) ListPosts(c echo.Context) error {
	filter, err := postFilter(c)
	if err != nil {
		return err
	}
	page, limit := pagination(c, 10, 50)
	posts, total, err := h.posts.ListPosts(c.Request().Context(), filter, page, limit)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"posts": posts, "total": total, "page": page, "limit": limit})
}

// UpdatePost edits one of the caller's posts
func (h *PostHandler) UpdatePost(c echo.Context) error {
	authorID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	postID, err := parseObjectID(c.Param("postId"), "postId")
	if err != nil {
		return err
	}
	req := new(models.UpdatePostRequest)
	if err := bindAndValidate(c, req); err != nil {
		return err
	}
	post, err := h.posts.UpdatePost(c.Request().Context(), authorID, postID, req)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, post)
}

// DeletePost deletes one of the caller's posts
func (h *PostHandler) DeletePost(c echo.Context) error {
	authorID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	postID, err := parseObjectID(c.Param("postId"), "postId")
	if err != nil {
		return err
	}
	if err := h.posts.DeletePost(c.Request().Context(), authorID, postID); err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"message": "post deleted"})
}

func postFilter(c echo.Context) (models.PostFilter, error) {
	authorID, err := parseOptionalObjectID(c.QueryParam("author"), "author")
	if err != nil {
		return models.PostFilter{}, err
	}
	return models.PostFilter{
		AuthorID:      authorID,
		CategoryTitle: models.NormalizeCategoryTitle(c.QueryParam("category")),
	}, nil
}
