package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/anonto42/canvas-social/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type statusKey struct {
	user   primitive.ObjectID
	target primitive.ObjectID
}

// StatusRepoStub is an in-memory StatusRepository. Activate and Deactivate
// are atomic under the store mutex, like the conditional upsert in Mongo.
type StatusRepoStub struct {
	failures
	mu   sync.Mutex
	rows map[statusKey]*models.StatusRecord
}

// NewStatusRepoStub creates an empty status store.
func NewStatusRepoStub() *StatusRepoStub {
	return &StatusRepoStub{rows: make(map[statusKey]*models.StatusRecord)}
}

func (s *StatusRepoStub) Activate(_ context.Context, userID, targetID primitive.ObjectID) (bool, error) {
	if err := s.failure("Activate"); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	key := statusKey{userID, targetID}
	row, ok := s.rows[key]
	if !ok {
		s.rows[key] = &models.StatusRecord{
			ID: primitive.NewObjectID(), UserID: userID, TargetID: targetID,
			Status: true, CreatedAt: now, UpdatedAt: now,
		}
		return true, nil
	}
	if row.Status {
		return false, nil
	}
	row.Status = true
	row.UpdatedAt = now
	return true, nil
}

func (s *StatusRepoStub) Deactivate(_ context.Context, userID, targetID primitive.ObjectID) (bool, error) {
	if err := s.failure("Deactivate"); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[statusKey{userID, targetID}]
	if !ok || !row.Status {
		return false, nil
	}
	row.Status = false
	row.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (s *StatusRepoStub) IsActive(_ context.Context, userID, targetID primitive.ObjectID) (bool, error) {
	if err := s.failure("IsActive"); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[statusKey{userID, targetID}]
	return ok && row.Status, nil
}

// Rows returns how many rows exist for the pair, active or not.
func (s *StatusRepoStub) Rows(userID, targetID primitive.ObjectID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[statusKey{userID, targetID}]; ok {
		return 1
	}
	return 0
}

func (s *StatusRepoStub) ListActiveTargets(_ context.Context, userID primitive.ObjectID, skip, limit int64) ([]primitive.ObjectID, error) {
	s.mu.Lock()
	var rows []models.StatusRecord
	for k, row := range s.rows {
		if k.user == userID && row.Status {
			rows = append(rows, *row)
		}
	}
	s.mu.Unlock()
	sort.Slice(rows, func(i, j int) bool { return rows[i].UpdatedAt.After(rows[j].UpdatedAt) })
	ids := []primitive.ObjectID{}
	for i := skip; i < int64(len(rows)) && (limit <= 0 || i < skip+limit); i++ {
		ids = append(ids, rows[i].TargetID)
	}
	return ids, nil
}

func (s *StatusRepoStub) ListActiveByTarget(_ context.Context, targetID primitive.ObjectID) ([]models.StatusRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := []models.StatusRecord{}
	for k, row := range s.rows {
		if k.target == targetID && row.Status {
			rows = append(rows, *row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].UpdatedAt.Before(rows[j].UpdatedAt) })
	return rows, nil
}

func (s *StatusRepoStub) EnsureIndexes(context.Context) error { return nil }
