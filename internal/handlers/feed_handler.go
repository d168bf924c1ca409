package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// GetFeed returns posts newest first with the caller's like and save state.
func (h *PostHandler) GetFeed(c echo.Context) error {
	viewerID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	filter, err := postFilter(c)
	if err != nil {
		return err
	}
	page, limit := pagination(c, 10, 50)

	feed, total, err := h.posts.Feed(c.Request().Context(), viewerID, filter, page, limit)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{
		"posts":    feed,
		"total":    total,
		"page":     page,
		"limit":    limit,
		"has_more": page*limit < total,
	})
}
