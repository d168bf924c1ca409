package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/anonto42/canvas-social/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PostRepoStub is an in-memory PostRepository. Counters are recomputed from
// the embedded arrays on every mutation, like the Mongo pipeline updates.
type PostRepoStub struct {
	failures
	mu    sync.RWMutex
	posts map[primitive.ObjectID]*models.Post
}

// NewPostRepoStub creates an empty post store.
func NewPostRepoStub() *PostRepoStub {
	return &PostRepoStub{posts: make(map[primitive.ObjectID]*models.Post)}
}

// Seed stores a post authored by author and returns its copy.
func (s *PostRepoStub) Seed(author primitive.ObjectID, title string) *models.Post {
	p := &models.Post{
		AuthorID:      author,
		Title:         title,
		ImageURLs:     []string{"uploads/" + title + ".png"},
		CategoryTitle: models.UncategorizedTitle,
	}
	_ = s.CreatePost(context.Background(), p)
	return p
}

func clonePost(p *models.Post) *models.Post {
	c := *p
	c.ImageURLs = append([]string{}, p.ImageURLs...)
	c.Likes = append([]models.PostLike{}, p.Likes...)
	c.Comments = append([]models.PostComment{}, p.Comments...)
	return &c
}

func (s *PostRepoStub) CreatePost(_ context.Context, post *models.Post) error {
	if err := s.failure("CreatePost"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	post.ID = primitive.NewObjectID()
	post.CreatedAt = time.Now().UTC()
	post.UpdatedAt = post.CreatedAt
	post.Likes = []models.PostLike{}
	post.Comments = []models.PostComment{}
	post.LikesCount = 0
	post.CommentsCount = 0
	if post.ImageURLs == nil {
		post.ImageURLs = []string{}
	}
	s.posts[post.ID] = clonePost(post)
	return nil
}

func (s *PostRepoStub) GetPostByID(_ context.Context, id primitive.ObjectID) (*models.Post, error) {
	if err := s.failure("GetPostByID"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, models.NewNotFoundError("post", id.Hex())
	}
	return clonePost(p), nil
}

func matchesFilter(p *models.Post, f models.PostFilter) bool {
	if !f.AuthorID.IsZero() && p.AuthorID != f.AuthorID {
		return false
	}
	if f.CategoryTitle != "" && p.CategoryTitle != f.CategoryTitle {
		return false
	}
	if f.IDs != nil {
		found := false
		for _, id := range f.IDs {
			if id == p.ID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (s *PostRepoStub) ListPosts(_ context.Context, filter models.PostFilter, skip, limit int64) ([]models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []models.Post
	for _, p := range s.posts {
		if matchesFilter(p, filter) {
			matched = append(matched, *clonePost(p))
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID.Hex() > matched[j].ID.Hex()
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	posts := []models.Post{}
	for i := skip; i < int64(len(matched)) && (limit <= 0 || i < skip+limit); i++ {
		posts = append(posts, matched[i])
	}
	return posts, nil
}

func (s *PostRepoStub) CountPosts(_ context.Context, filter models.PostFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, p := range s.posts {
		if matchesFilter(p, filter) {
			n++
		}
	}
	return n, nil
}

func (s *PostRepoStub) UpdatePost(_ context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[post.ID]
	if !ok {
		return models.NewNotFoundError("post", post.ID.Hex())
	}
	p.Title = post.Title
	p.Description = post.Description
	p.ImageURLs = append([]string{}, post.ImageURLs...)
	p.CategoryID = post.CategoryID
	p.CategoryTitle = post.CategoryTitle
	p.UpdatedAt = time.Now().UTC()
	post.UpdatedAt = p.UpdatedAt
	return nil
}

func (s *PostRepoStub) DeletePost(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[id]; !ok {
		return models.NewNotFoundError("post", id.Hex())
	}
	delete(s.posts, id)
	return nil
}

func (s *PostRepoStub) mutate(method string, id primitive.ObjectID, fn func(p *models.Post) error) (*models.Post, error) {
	if err := s.failure(method); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, models.NewNotFoundError("post", id.Hex())
	}
	if err := fn(p); err != nil {
		return nil, err
	}
	p.LikesCount = len(p.Likes)
	p.CommentsCount = len(p.Comments)
	p.UpdatedAt = time.Now().UTC()
	return clonePost(p), nil
}

func (s *PostRepoStub) AddLike(_ context.Context, postID primitive.ObjectID, like models.PostLike) (*models.Post, error) {
	return s.mutate("AddLike", postID, func(p *models.Post) error {
		if !p.LikedBy(like.UserID) {
			p.Likes = append(p.Likes, like)
		}
		return nil
	})
}

func (s *PostRepoStub) RemoveLike(_ context.Context, postID, userID primitive.ObjectID) (*models.Post, error) {
	return s.mutate("RemoveLike", postID, func(p *models.Post) error {
		kept := []models.PostLike{}
		for _, l := range p.Likes {
			if l.UserID != userID {
				kept = append(kept, l)
			}
		}
		p.Likes = kept
		return nil
	})
}

func (s *PostRepoStub) SetLikes(_ context.Context, postID primitive.ObjectID, likes []models.PostLike) (*models.Post, error) {
	return s.mutate("SetLikes", postID, func(p *models.Post) error {
		p.Likes = append([]models.PostLike{}, likes...)
		return nil
	})
}

func (s *PostRepoStub) AddComment(_ context.Context, postID primitive.ObjectID, comment models.PostComment) (*models.Post, error) {
	return s.mutate("AddComment", postID, func(p *models.Post) error {
		p.Comments = append(p.Comments, comment)
		return nil
	})
}

func (s *PostRepoStub) UpdateCommentContent(_ context.Context, postID, commentID primitive.ObjectID, content string, at time.Time) (*models.Post, error) {
	return s.mutate("UpdateCommentContent", postID, func(p *models.Post) error {
		c := p.FindComment(commentID)
		if c == nil {
			return models.NewNotFoundError("comment", commentID.Hex())
		}
		c.Content = content
		c.UpdatedAt = at
		return nil
	})
}

func (s *PostRepoStub) RemoveComment(_ context.Context, postID, commentID primitive.ObjectID) (*models.Post, error) {
	return s.mutate("RemoveComment", postID, func(p *models.Post) error {
		if p.FindComment(commentID) == nil {
			return models.NewNotFoundError("comment", commentID.Hex())
		}
		kept := []models.PostComment{}
		for _, c := range p.Comments {
			if c.ID != commentID {
				kept = append(kept, c)
			}
		}
		p.Comments = kept
		return nil
	})
}

func (s *PostRepoStub) ExistsWithCategoryTitle(_ context.Context, title string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.posts {
		if p.CategoryTitle == title {
			return true, nil
		}
	}
	return false, nil
}

func (s *PostRepoStub) EnsureIndexes(context.Context) error { return nil }
