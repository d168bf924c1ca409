package services

import (
	"context"
	"fmt"

	"github.com/anonto42/canvas-social/backend/internal/models"
	"github.com/anonto42/canvas-social/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification page size bounds.
const (
	DefaultNotificationLimit = 20
	MaxNotificationLimit     = 100
)

// NotificationPage is one cursor page of formatted notifications.
type NotificationPage struct {
	Notifications []models.NotificationView `json:"notifications"`
	NextCursor    string                    `json:"next_cursor,omitempty"`
}

// NotificationService reads and acknowledges a recipient's notifications.
type NotificationService struct {
	notifications repositories.NotificationRepository
	users         repositories.UserRepository
}

func NewNotificationService(notifications repositories.NotificationRepository, users repositories.UserRepository) *NotificationService {
	return &NotificationService{notifications: notifications, users: users}
}

// List returns a page newest first. The limit is clamped to 1..100 and zero
// means the default of 20.
func (s *NotificationService) List(ctx context.Context, q models.NotificationQuery) (*NotificationPage, error) {
	if q.Limit <= 0 {
		q.Limit = DefaultNotificationLimit
	}
	if q.Limit > MaxNotificationLimit {
		q.Limit = MaxNotificationLimit
	}
	if q.Type != "" && !q.Type.Valid() {
		return nil, models.NewValidationError(fmt.Sprintf("unknown notification type %q", q.Type))
	}

	items, err := s.notifications.ListByRecipient(ctx, q)
	if err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(items))
	for _, n := range items {
		ids = append(ids, n.Author)
	}
	authors, err := resolveAuthors(ctx, s.users, ids)
	if err != nil {
		return nil, err
	}

	page := &NotificationPage{Notifications: make([]models.NotificationView, 0, len(items))}
	for _, n := range items {
		author := authorOrUnknown(authors, n.Author)
		formatted := FormatNotification(ResolvedNotification{
			Type:           n.Type,
			AuthorID:       n.Author,
			AuthorUsername: author.Username,
			PostID:         n.Post,
		})
		page.Notifications = append(page.Notifications, models.NotificationView{
			Notification: n,
			AuthorInfo:   author,
			Message:      formatted.Message,
			URL:          formatted.URL,
		})
	}
	if int64(len(items)) == q.Limit {
		page.NextCursor = items[len(items)-1].ID.Hex()
	}
	return page, nil
}

// MarkAsRead marks the recipient's listed notifications read and returns how
// many changed state. Ids belonging to other users are ignored; if none of
// the ids match, it is NotFound.
func (s *NotificationService) MarkAsRead(ctx context.Context, recipient primitive.ObjectID, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, models.NewValidationError("notificationIds must not be empty")
	}
	matched, modified, err := s.notifications.MarkAsRead(ctx, recipient, ids)
	if err != nil {
		return 0, err
	}
	if matched == 0 {
		return 0, models.NewNotFoundError("notifications", ids)
	}
	return modified, nil
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, recipient primitive.ObjectID) (int64, error) {
	return s.notifications.MarkAllAsRead(ctx, recipient)
}

func (s *NotificationService) UnreadCount(ctx context.Context, recipient primitive.ObjectID) (int64, error) {
	return s.notifications.UnreadCount(ctx, recipient)
}

func resolveAuthors(ctx context.Context, users repositories.UserRepository, ids []primitive.ObjectID) (map[primitive.ObjectID]models.UserCompact, error) {
	out := make(map[primitive.ObjectID]models.UserCompact, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	seen := make(map[primitive.ObjectID]bool, len(ids))
	unique := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	found, err := users.GetUsersByIDs(ctx, unique)
	if err != nil {
		return nil, err
	}
	for i := range found {
		out[found[i].ID] = found[i].ToCompact()
	}
	return out, nil
}

func authorOrUnknown(authors map[primitive.ObjectID]models.UserCompact, id primitive.ObjectID) models.UserCompact {
	if a, ok := authors[id]; ok {
		return a
	}
	return models.UserCompact{ID: id, Username: unknownAuthor}
}
