// Package testutil provides in-memory repositories and fixtures for tests.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/anonto42/canvas-social/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// failures lets a test force a named repository method to return an error.
type failures struct {
	mu     sync.Mutex
	failOn map[string]error
}

// FailOn makes every later call to method return err. A nil err clears it.
func (f *failures) FailOn(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn == nil {
		f.failOn = make(map[string]error)
	}
	if err == nil {
		delete(f.failOn, method)
		return
	}
	f.failOn[method] = err
}

func (f *failures) failure(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failOn[method]
}

// UserRepoStub is an in-memory UserRepository.
type UserRepoStub struct {
	failures
	mu    sync.RWMutex
	users map[primitive.ObjectID]*models.User
}

// NewUserRepoStub creates an empty user store.
func NewUserRepoStub() *UserRepoStub {
	return &UserRepoStub{users: make(map[primitive.ObjectID]*models.User)}
}

// Seed stores a user with the given username and returns its copy.
func (s *UserRepoStub) Seed(username string) *models.User {
	u := &models.User{Username: username, Email: username + "@example.com"}
	_ = s.CreateUser(context.Background(), u)
	return u
}

func cloneIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	out := make([]primitive.ObjectID, len(ids))
	copy(out, ids)
	return out
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.Followers = cloneIDs(u.Followers)
	c.Following = cloneIDs(u.Following)
	c.SavedPosts = cloneIDs(u.SavedPosts)
	return &c
}

func (s *UserRepoStub) CreateUser(_ context.Context, user *models.User) error {
	if err := s.failure("CreateUser"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == user.Username || u.Email == user.Email {
			return models.NewValidationError("username or email already taken")
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Followers == nil {
		user.Followers = []primitive.ObjectID{}
	}
	if user.Following == nil {
		user.Following = []primitive.ObjectID{}
	}
	if user.SavedPosts == nil {
		user.SavedPosts = []primitive.ObjectID{}
	}
	s.users[user.ID] = cloneUser(user)
	return nil
}

func (s *UserRepoStub) GetUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	if err := s.failure("GetUserByID"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, models.NewNotFoundError("user", id.Hex())
	}
	return cloneUser(u), nil
}

func (s *UserRepoStub) GetUserByFirebaseUID(_ context.Context, firebaseUID string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.FirebaseUID != "" && u.FirebaseUID == firebaseUID {
			return cloneUser(u), nil
		}
	}
	return nil, models.NewNotFoundError("user", firebaseUID)
}

func (s *UserRepoStub) GetUsersByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := []models.User{}
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			users = append(users, *cloneUser(u))
		}
	}
	return users, nil
}

func (s *UserRepoStub) UpdateProfile(_ context.Context, id primitive.ObjectID, req *models.UpdateUserRequest) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, models.NewNotFoundError("user", id.Hex())
	}
	if req.Username != "" {
		for otherID, other := range s.users {
			if otherID != id && other.Username == req.Username {
				return nil, models.NewValidationError("username already taken")
			}
		}
		u.Username = req.Username
	}
	if req.Bio != "" {
		u.Bio = req.Bio
	}
	if req.ProfilePicture != "" {
		u.ProfilePicture = req.ProfilePicture
	}
	if req.CoverPhoto != "" {
		u.CoverPhoto = req.CoverPhoto
	}
	u.UpdatedAt = time.Now().UTC()
	return cloneUser(u), nil
}

func addToSet(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	for _, v := range ids {
		if v == id {
			return ids
		}
	}
	return append(ids, id)
}

func pull(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func (s *UserRepoStub) mutate(method string, id primitive.ObjectID, fn func(u *models.User)) (*models.User, error) {
	if err := s.failure(method); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, models.NewNotFoundError("user", id.Hex())
	}
	fn(u)
	u.UpdatedAt = time.Now().UTC()
	return cloneUser(u), nil
}

func (s *UserRepoStub) AddFollower(_ context.Context, userID, followerID primitive.ObjectID) error {
	_, err := s.mutate("AddFollower", userID, func(u *models.User) { u.Followers = addToSet(u.Followers, followerID) })
	return err
}

func (s *UserRepoStub) RemoveFollower(_ context.Context, userID, followerID primitive.ObjectID) error {
	_, err := s.mutate("RemoveFollower", userID, func(u *models.User) { u.Followers = pull(u.Followers, followerID) })
	return err
}

func (s *UserRepoStub) AddFollowing(_ context.Context, userID, targetID primitive.ObjectID) error {
	_, err := s.mutate("AddFollowing", userID, func(u *models.User) { u.Following = addToSet(u.Following, targetID) })
	return err
}

func (s *UserRepoStub) RemoveFollowing(_ context.Context, userID, targetID primitive.ObjectID) error {
	_, err := s.mutate("RemoveFollowing", userID, func(u *models.User) { u.Following = pull(u.Following, targetID) })
	return err
}

func (s *UserRepoStub) AddSavedPost(_ context.Context, userID, postID primitive.ObjectID) (*models.User, error) {
	return s.mutate("AddSavedPost", userID, func(u *models.User) { u.SavedPosts = addToSet(u.SavedPosts, postID) })
}

func (s *UserRepoStub) RemoveSavedPost(_ context.Context, userID, postID primitive.ObjectID) (*models.User, error) {
	return s.mutate("RemoveSavedPost", userID, func(u *models.User) { u.SavedPosts = pull(u.SavedPosts, postID) })
}

func (s *UserRepoStub) IncrementViolations(_ context.Context, userID primitive.ObjectID, banThreshold int) (*models.User, error) {
	return s.mutate("IncrementViolations", userID, func(u *models.User) {
		u.Violations++
		if u.Violations >= banThreshold {
			u.IsBanned = true
		}
	})
}

func (s *UserRepoStub) EnsureIndexes(context.Context) error { return nil }
