package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/anonto42/canvas-social/backend/internal/models"
	"github.com/anonto42/canvas-social/backend/internal/services"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationHandler handles HTTP requests related to notifications
type NotificationHandler struct {
	notifications *services.NotificationService
}

func NewNotificationHandler(notifications *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// RegisterNotificationRoutes registers notification routes under g (/api/v2/notifications)
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.PATCH("/markAsRead", h.MarkAsRead)
	g.POST("/markAsRead", h.MarkAsRead)
	g.GET("/:userId", h.GetNotifications)
	g.PUT("/:userId/markAllAsRead", h.MarkAllAsRead)
	g.GET("/:userId/unread-count", h.GetUnreadCount)
}

// GetNotifications returns a cursor page of the caller's notifications.
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	recipient, err := h.ownInbox(c)
	if err != nil {
		return err
	}
	before, err := parseOptionalObjectID(c.QueryParam("lastNotificationId"), "lastNotificationId")
	if err != nil {
		return err
	}
	var limit int64
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || limit < 1 || limit > services.MaxNotificationLimit {
			return models.NewValidationError(fmt.Sprintf("limit must be between 1 and %d", services.MaxNotificationLimit))
		}
	}

	page, err := h.notifications.List(c.Request().Context(), models.NotificationQuery{
		Recipient: recipient,
		Before:    before,
		Type:      models.NotificationType(c.QueryParam("type")),
		Limit:     limit,
	})
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, page)
}

// MarkAsRead marks the listed notifications of the caller read.
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	recipient, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	req := new(models.MarkAsReadRequest)
	if err := bindAndValidate(c, req); err != nil {
		return err
	}
	ids := make([]primitive.ObjectID, 0, len(req.NotificationIDs))
	for _, raw := range req.NotificationIDs {
		id, _ := primitive.ObjectIDFromHex(raw)
		ids = append(ids, id)
	}

	modified, err := h.notifications.MarkAsRead(c.Request().Context(), recipient, ids)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{
		"modified": modified,
		"message":  fmt.Sprintf("%d notifications marked as read", modified),
	})
}

func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	recipient, err := h.ownInbox(c)
	if err != nil {
		return err
	}
	modified, err := h.notifications.MarkAllAsRead(c.Request().Context(), recipient)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"modified": modified})
}

func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	recipient, err := h.ownInbox(c)
	if err != nil {
		return err
	}
	count, err := h.notifications.UnreadCount(c.Request().Context(), recipient)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"unread": count})
}

// ownInbox returns :userId if it is the caller.
func (h *NotificationHandler) ownInbox(c echo.Context) (primitive.ObjectID, error) {
	actorID, err := getUserIDFromContext(c)
	if err != nil {
		return primitive.NilObjectID, err
	}
	userID, err := parseObjectID(c.Param("userId"), "userId")
	if err != nil {
		return primitive.NilObjectID, err
	}
	if userID != actorID {
		return primitive.NilObjectID, models.NewForbiddenError("you can only access your own notifications")
	}
	return userID, nil
}
