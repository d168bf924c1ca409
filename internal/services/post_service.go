package services

import (
	"context"
	"strings"

	"github.com/anonto42/canvas-social/backend/internal/models"
	"github.com/anonto42/canvas-social/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// PostService owns post and category lifecycle.
type PostService struct {
	posts      repositories.PostRepository
	users      repositories.UserRepository
	categories repositories.CategoryRepository
	moderation *ModerationService
	labeler    Labeler
	publisher  Publisher
	logger     *zap.Logger
}

func NewPostService(posts repositories.PostRepository, users repositories.UserRepository, categories repositories.CategoryRepository, moderation *ModerationService, publisher Publisher, logger *zap.Logger) *PostService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostService{
		posts:      posts,
		users:      users,
		categories: categories,
		moderation: moderation,
		publisher:  publisher,
		logger:     logger,
	}
}

// WithLabeler makes posts without a category title take one from their image labels.
func (s *PostService) WithLabeler(l Labeler) *PostService {
	s.labeler = l
	return s
}

// CreatePost moderates the images, files the post under its category and
// broadcasts it.
func (s *PostService) CreatePost(ctx context.Context, authorID primitive.ObjectID, req *models.CreatePostRequest) (*models.Post, error) {
	if err := s.moderate(ctx, authorID, req.ImageURLs); err != nil {
		return nil, err
	}
	category, err := s.categories.GetOrCreateByTitle(ctx, s.categoryFor(ctx, req.CategoryTitle, req.ImageURLs))
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		AuthorID:      authorID,
		Title:         strings.TrimSpace(req.Title),
		Description:   strings.TrimSpace(req.Description),
		ImageURLs:     req.ImageURLs,
		CategoryID:    category.ID,
		CategoryTitle: category.Title,
	}
	if err := s.posts.CreatePost(ctx, post); err != nil {
		return nil, err
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, EventNewPost, post); err != nil {
			s.logger.Warn("realtime publish failed", zap.String("event", EventNewPost), zap.Error(err))
		}
	}
	return post, nil
}

func (s *PostService) GetPost(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	return s.posts.GetPostByID(ctx, id)
}

// ListPosts returns a page of posts and the total matching count.
func (s *PostService) ListPosts(ctx context.Context, filter models.PostFilter, page, limit int64) ([]models.Post, int64, error) {
	posts, err := s.posts.ListPosts(ctx, filter, (page-1)*limit, limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.posts.CountPosts(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// UpdatePost edits the author's own post. New images are moderated.
func (s *PostService) UpdatePost(ctx context.Context, authorID, postID primitive.ObjectID, req *models.UpdatePostRequest) (*models.Post, error) {
	post, err := s.ownPost(ctx, authorID, postID)
	if err != nil {
		return nil, err
	}

	if len(req.ImageURLs) > 0 {
		if err := s.moderate(ctx, authorID, req.ImageURLs); err != nil {
			return nil, err
		}
		post.ImageURLs = req.ImageURLs
	}
	if req.Title != "" {
		post.Title = strings.TrimSpace(req.Title)
	}
	if req.Description != "" {
		post.Description = strings.TrimSpace(req.Description)
	}
	if title := models.NormalizeCategoryTitle(req.CategoryTitle); title != "" && title != post.CategoryTitle {
		category, err := s.categories.GetOrCreateByTitle(ctx, title)
		if err != nil {
			return nil, err
		}
		post.CategoryID = category.ID
		post.CategoryTitle = category.Title
	}

	if err := s.posts.UpdatePost(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// DeletePost removes the author's own post.
func (s *PostService) DeletePost(ctx context.Context, authorID, postID primitive.ObjectID) error {
	if _, err := s.ownPost(ctx, authorID, postID); err != nil {
		return err
	}
	return s.posts.DeletePost(ctx, postID)
}

// Feed lists posts newest first, annotated with the viewer's like and save
// state and each author's card.
func (s *PostService) Feed(ctx context.Context, viewerID primitive.ObjectID, filter models.PostFilter, page, limit int64) ([]models.FeedPost, int64, error) {
	viewer, err := s.users.GetUserByID(ctx, viewerID)
	if err != nil {
		return nil, 0, err
	}
	posts, total, err := s.ListPosts(ctx, filter, page, limit)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]primitive.ObjectID, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.AuthorID)
	}
	authors, err := resolveAuthors(ctx, s.users, ids)
	if err != nil {
		return nil, 0, err
	}

	feed := make([]models.FeedPost, 0, len(posts))
	for i := range posts {
		feed = append(feed, models.FeedPost{
			Post:    posts[i],
			Author:  authorOrUnknown(authors, posts[i].AuthorID),
			IsLiked: posts[i].LikedBy(viewerID),
			IsSaved: viewer.HasSaved(posts[i].ID),
		})
	}
	return feed, total, nil
}

func (s *PostService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.categories.ListCategories(ctx)
}

// DeleteCategory refuses while any post is filed under the category.
func (s *PostService) DeleteCategory(ctx context.Context, id primitive.ObjectID) error {
	category, err := s.categories.GetCategoryByID(ctx, id)
	if err != nil {
		return err
	}
	inUse, err := s.posts.ExistsWithCategoryTitle(ctx, category.Title)
	if err != nil {
		return err
	}
	if inUse {
		return models.NewValidationError("category is still used by posts")
	}
	return s.categories.DeleteCategory(ctx, id)
}

func (s *PostService) ownPost(ctx context.Context, authorID, postID primitive.ObjectID) (*models.Post, error) {
	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != authorID {
		return nil, models.NewForbiddenError("you can only modify your own posts")
	}
	return post, nil
}

func (s *PostService) moderate(ctx context.Context, authorID primitive.ObjectID, images []string) error {
	if s.moderation == nil {
		return nil
	}
	return s.moderation.Check(ctx, authorID, images)
}

// categoryFor prefers the client's title, then image labels, then the
// uncategorized default. A labeling failure falls back to the default.
func (s *PostService) categoryFor(ctx context.Context, raw string, images []string) string {
	if title := models.NormalizeCategoryTitle(raw); title != "" {
		return title
	}
	if s.labeler == nil {
		return models.UncategorizedTitle
	}
	for _, ref := range images {
		labels, err := s.labeler.Labels(ctx, ref)
		if err != nil {
			s.logger.Warn("image labeling failed", zap.String("image", ref), zap.Error(err))
			return models.UncategorizedTitle
		}
		if title, ok := pickArtCategory(labels); ok {
			return title
		}
	}
	return models.UncategorizedTitle
}
