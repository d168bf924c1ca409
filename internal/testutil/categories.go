package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/anonto42/canvas-social/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CategoryRepoStub is an in-memory CategoryRepository.
type CategoryRepoStub struct {
	mu         sync.Mutex
	categories map[primitive.ObjectID]models.Category
}

// NewCategoryRepoStub creates an empty category store.
func NewCategoryRepoStub() *CategoryRepoStub {
	return &CategoryRepoStub{categories: make(map[primitive.ObjectID]models.Category)}
}

func (s *CategoryRepoStub) GetOrCreateByTitle(_ context.Context, title string) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.Title == title {
			found := c
			return &found, nil
		}
	}
	c := models.Category{ID: primitive.NewObjectID(), Title: title, CreatedAt: time.Now().UTC()}
	s.categories[c.ID] = c
	return &c, nil
}

func (s *CategoryRepoStub) GetCategoryByID(_ context.Context, id primitive.ObjectID) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return nil, models.NewNotFoundError("category", id.Hex())
	}
	return &c, nil
}

func (s *CategoryRepoStub) ListCategories(context.Context) ([]models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Category{}
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (s *CategoryRepoStub) DeleteCategory(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return models.NewNotFoundError("category", id.Hex())
	}
	delete(s.categories, id)
	return nil
}

func (s *CategoryRepoStub) EnsureIndexes(context.Context) error { return nil }

// ViolationRepoStub is an in-memory ViolationRepository.
type ViolationRepoStub struct {
	mu         sync.Mutex
	violations []models.Violation
}

func (s *ViolationRepoStub) Record(_ context.Context, v *models.Violation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v.ID = uint(len(s.violations) + 1)
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	s.violations = append(s.violations, *v)
	return nil
}

func (s *ViolationRepoStub) CountByUser(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, v := range s.violations {
		if v.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (s *ViolationRepoStub) ListByUser(_ context.Context, userID string, limit int) ([]models.Violation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Violation{}
	for i := len(s.violations) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if s.violations[i].UserID == userID {
			out = append(out, s.violations[i])
		}
	}
	return out, nil
}
