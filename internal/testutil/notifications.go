package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/anonto42/canvas-social/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationRepoStub is an in-memory NotificationRepository.
type NotificationRepoStub struct {
	failures
	mu    sync.Mutex
	items []models.Notification
}

// NewNotificationRepoStub creates an empty notification store.
func NewNotificationRepoStub() *NotificationRepoStub {
	return &NotificationRepoStub{}
}

// All returns a snapshot of every stored notification in insertion order.
func (s *NotificationRepoStub) All() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Notification{}, s.items...)
}

func (s *NotificationRepoStub) Create(_ context.Context, n *models.Notification) error {
	if err := s.failure("Create"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	s.items = append(s.items, *n)
	return nil
}

func (s *NotificationRepoStub) DeleteMatching(_ context.Context, recipient, author primitive.ObjectID, typ models.NotificationType, post *primitive.ObjectID) (int64, error) {
	if err := s.failure("DeleteMatching"); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.items[:0]
	var deleted int64
	for _, n := range s.items {
		match := n.Recipient == recipient && n.Author == author && n.Type == typ
		if match && post != nil {
			match = n.Post != nil && *n.Post == *post
		}
		if match {
			deleted++
			continue
		}
		kept = append(kept, n)
	}
	s.items = kept
	return deleted, nil
}

func (s *NotificationRepoStub) ListByRecipient(_ context.Context, q models.NotificationQuery) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []models.Notification
	for _, n := range s.items {
		if n.Recipient != q.Recipient {
			continue
		}
		if !q.Before.IsZero() && n.ID.Hex() >= q.Before.Hex() {
			continue
		}
		if q.Type != "" && n.Type != q.Type {
			continue
		}
		matched = append(matched, n)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID.Hex() > matched[j].ID.Hex() })
	if q.Limit > 0 && int64(len(matched)) > q.Limit {
		matched = matched[:q.Limit]
	}
	if matched == nil {
		matched = []models.Notification{}
	}
	return matched, nil
}

func (s *NotificationRepoStub) MarkAsRead(_ context.Context, recipient primitive.ObjectID, ids []primitive.ObjectID) (int64, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	want := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var matched, modified int64
	for i := range s.items {
		n := &s.items[i]
		if n.Recipient != recipient || !want[n.ID] {
			continue
		}
		matched++
		if !n.IsRead {
			n.IsRead = true
			modified++
		}
	}
	return matched, modified, nil
}

func (s *NotificationRepoStub) MarkAllAsRead(_ context.Context, recipient primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var modified int64
	for i := range s.items {
		if s.items[i].Recipient == recipient && !s.items[i].IsRead {
			s.items[i].IsRead = true
			modified++
		}
	}
	return modified, nil
}

func (s *NotificationRepoStub) UnreadCount(_ context.Context, recipient primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, item := range s.items {
		if item.Recipient == recipient && !item.IsRead {
			n++
		}
	}
	return n, nil
}

func (s *NotificationRepoStub) EnsureIndexes(context.Context) error { return nil }
