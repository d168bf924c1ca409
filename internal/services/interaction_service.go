// Package services holds the interaction engine and the post, notification
// and moderation workflows that sit between handlers and repositories.
package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/anonto42/canvas-social/backend/internal/models"
	"github.com/anonto42/canvas-social/backend/internal/repositories"
	"github.com/anonto42/canvas-social/backend/pkg/metrics"
	"github.com/anonto42/canvas-social/backend/pkg/tracing"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const tracerName = "github.com/anonto42/canvas-social/backend/internal/services"

// Realtime event names.
const (
	EventNewPost    = "newPost"
	EventNewComment = "newComment"
)

// Publisher pushes an event to every connected realtime client.
type Publisher interface {
	Publish(ctx context.Context, event string, payload interface{}) error
}

// InteractionDeps wires the engine to its stores.
type InteractionDeps struct {
	Users         repositories.UserRepository
	Posts         repositories.PostRepository
	Likes         repositories.StatusRepository
	Saves         repositories.StatusRepository
	Follows       repositories.StatusRepository
	Notifications repositories.NotificationRepository
	Publisher     Publisher
	Logger        *zap.Logger
}

// InteractionService applies like, comment, save and follow actions. For each
// toggle the status row is claimed first with a conditional upsert; the
// denormalized writes follow and are compensated if they fail. Notification
// side effects run last and never fail the action.
type InteractionService struct {
	users         repositories.UserRepository
	posts         repositories.PostRepository
	likes         repositories.StatusRepository
	saves         repositories.StatusRepository
	follows       repositories.StatusRepository
	notifications repositories.NotificationRepository
	publisher     Publisher
	logger        *zap.Logger
	now           func() time.Time
}

func NewInteractionService(deps InteractionDeps) *InteractionService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InteractionService{
		users:         deps.Users,
		posts:         deps.Posts,
		likes:         deps.Likes,
		saves:         deps.Saves,
		follows:       deps.Follows,
		notifications: deps.Notifications,
		publisher:     deps.Publisher,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// LikeInput identifies a like or unlike. RecipientID is optional; when set it
// must be the post author.
type LikeInput struct {
	ActorID     primitive.ObjectID
	PostID      primitive.ObjectID
	RecipientID primitive.ObjectID
}

type CommentInput struct {
	ActorID     primitive.ObjectID
	PostID      primitive.ObjectID
	Content     string
	RecipientID primitive.ObjectID
}

type EditCommentInput struct {
	ActorID   primitive.ObjectID
	PostID    primitive.ObjectID
	CommentID primitive.ObjectID
	Content   string
}

type DeleteCommentInput struct {
	ActorID   primitive.ObjectID
	PostID    primitive.ObjectID
	CommentID primitive.ObjectID
}

// CommentResult is what a new comment produced.
type CommentResult struct {
	Post         *models.Post
	Comment      models.CommentView
	Notification *models.Notification
}

// NewCommentEvent is the newComment realtime payload.
type NewCommentEvent struct {
	PostID  primitive.ObjectID `json:"post_id"`
	Comment models.CommentView `json:"comment"`
}

// Like records the actor's like on a post and notifies the author unless the
// actor is the author.
func (s *InteractionService) Like(ctx context.Context, in LikeInput) (post *models.Post, err error) {
	ctx, done := s.instrument(ctx, "like", in.ActorID, in.PostID)
	defer func() { done(err) }()

	post, err = s.posts.GetPostByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if err := checkRecipient(in.RecipientID, post); err != nil {
		return nil, err
	}

	claimed, err := s.likes.Activate(ctx, in.ActorID, in.PostID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, models.NewAlreadyAppliedError("post already liked")
	}

	updated, err := s.posts.AddLike(ctx, in.PostID, models.PostLike{UserID: in.ActorID, CreatedAt: s.now()})
	if err != nil {
		s.compensate(ctx, "like", func(ctx context.Context) error {
			_, err := s.likes.Deactivate(ctx, in.ActorID, in.PostID)
			return err
		})
		return nil, err
	}

	if in.ActorID != post.AuthorID {
		s.notify(ctx, &models.Notification{
			Recipient: post.AuthorID,
			Author:    in.ActorID,
			Type:      models.NotificationLike,
			Post:      &post.ID,
		})
	}
	return updated, nil
}

// Unlike removes the actor's like and the like notification, if any.
func (s *InteractionService) Unlike(ctx context.Context, in LikeInput) (post *models.Post, err error) {
	ctx, done := s.instrument(ctx, "unlike", in.ActorID, in.PostID)
	defer func() { done(err) }()

	post, err = s.posts.GetPostByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if err := checkRecipient(in.RecipientID, post); err != nil {
		return nil, err
	}

	released, err := s.likes.Deactivate(ctx, in.ActorID, in.PostID)
	if err != nil {
		return nil, err
	}
	if !released {
		return nil, models.NewNotAppliedError("post not liked")
	}

	updated, err := s.posts.RemoveLike(ctx, in.PostID, in.ActorID)
	if err != nil {
		s.compensate(ctx, "unlike", func(ctx context.Context) error {
			_, err := s.likes.Activate(ctx, in.ActorID, in.PostID)
			return err
		})
		return nil, err
	}

	s.retract(ctx, post.AuthorID, in.ActorID, models.NotificationLike, &post.ID)
	return updated, nil
}

// Comment appends a comment and always broadcasts it. A notification is
// created only when a recipient other than the actor is named.
func (s *InteractionService) Comment(ctx context.Context, in CommentInput) (res *CommentResult, err error) {
	ctx, done := s.instrument(ctx, "comment", in.ActorID, in.PostID)
	defer func() { done(err) }()

	content, err := normalizeContent(in.Content)
	if err != nil {
		return nil, err
	}
	post, err := s.posts.GetPostByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if err := checkRecipient(in.RecipientID, post); err != nil {
		return nil, err
	}
	actor, err := s.users.GetUserByID(ctx, in.ActorID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	comment := models.PostComment{
		ID:        primitive.NewObjectID(),
		UserID:    actor.ID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	updated, err := s.posts.AddComment(ctx, post.ID, comment)
	if err != nil {
		return nil, err
	}

	res = &CommentResult{
		Post: updated,
		Comment: models.CommentView{
			ID:        comment.ID,
			Content:   comment.Content,
			CreatedAt: comment.CreatedAt,
			UpdatedAt: comment.UpdatedAt,
			User:      actor.ToCompact(),
		},
	}

	if !in.RecipientID.IsZero() && in.RecipientID != in.ActorID {
		n := &models.Notification{
			Recipient: in.RecipientID,
			Author:    in.ActorID,
			Type:      models.NotificationComment,
			Post:      &post.ID,
		}
		if s.notify(ctx, n) {
			res.Notification = n
		}
	}

	s.broadcast(ctx, EventNewComment, NewCommentEvent{PostID: post.ID, Comment: res.Comment})
	return res, nil
}

// EditComment replaces the content of the actor's own comment.
func (s *InteractionService) EditComment(ctx context.Context, in EditCommentInput) (comment *models.PostComment, err error) {
	ctx, done := s.instrument(ctx, "edit_comment", in.ActorID, in.PostID)
	defer func() { done(err) }()

	content, err := normalizeContent(in.Content)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownComment(ctx, in.ActorID, in.PostID, in.CommentID, "edit"); err != nil {
		return nil, err
	}

	updated, err := s.posts.UpdateCommentContent(ctx, in.PostID, in.CommentID, content, s.now())
	if err != nil {
		return nil, err
	}
	comment = updated.FindComment(in.CommentID)
	if comment == nil {
		return nil, models.NewNotFoundError("comment", in.CommentID.Hex())
	}
	return comment, nil
}

// DeleteComment removes the actor's own comment.
func (s *InteractionService) DeleteComment(ctx context.Context, in DeleteCommentInput) (post *models.Post, err error) {
	ctx, done := s.instrument(ctx, "delete_comment", in.ActorID, in.PostID)
	defer func() { done(err) }()

	if _, err := s.ownComment(ctx, in.ActorID, in.PostID, in.CommentID, "delete"); err != nil {
		return nil, err
	}
	return s.posts.RemoveComment(ctx, in.PostID, in.CommentID)
}

func (s *InteractionService) ownComment(ctx context.Context, actorID, postID, commentID primitive.ObjectID, verb string) (*models.PostComment, error) {
	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	comment := post.FindComment(commentID)
	if comment == nil {
		return nil, models.NewNotFoundError("comment", commentID.Hex())
	}
	if comment.UserID != actorID {
		return nil, models.NewForbiddenError("you can only " + verb + " your own comments")
	}
	return comment, nil
}

// Save bookmarks another user's post and notifies its author.
func (s *InteractionService) Save(ctx context.Context, actorID, postID primitive.ObjectID) (user *models.User, err error) {
	ctx, done := s.instrument(ctx, "save", actorID, postID)
	defer func() { done(err) }()

	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.GetUserByID(ctx, actorID); err != nil {
		return nil, err
	}
	if post.AuthorID == actorID {
		return nil, models.NewSelfActionError("you cannot save your own post")
	}

	claimed, err := s.saves.Activate(ctx, actorID, postID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, models.NewAlreadyAppliedError("post already saved")
	}

	user, err = s.users.AddSavedPost(ctx, actorID, postID)
	if err != nil {
		s.compensate(ctx, "save", func(ctx context.Context) error {
			_, err := s.saves.Deactivate(ctx, actorID, postID)
			return err
		})
		return nil, err
	}

	s.notify(ctx, &models.Notification{
		Recipient: post.AuthorID,
		Author:    actorID,
		Type:      models.NotificationSave,
		Post:      &post.ID,
	})
	return user, nil
}

// Unsave removes a bookmark. The post itself may already be gone.
func (s *InteractionService) Unsave(ctx context.Context, actorID, postID primitive.ObjectID) (user *models.User, err error) {
	ctx, done := s.instrument(ctx, "unsave", actorID, postID)
	defer func() { done(err) }()

	if _, err := s.users.GetUserByID(ctx, actorID); err != nil {
		return nil, err
	}

	released, err := s.saves.Deactivate(ctx, actorID, postID)
	if err != nil {
		return nil, err
	}
	if !released {
		return nil, models.NewNotAppliedError("post not saved")
	}

	user, err = s.users.RemoveSavedPost(ctx, actorID, postID)
	if err != nil {
		s.compensate(ctx, "unsave", func(ctx context.Context) error {
			_, err := s.saves.Activate(ctx, actorID, postID)
			return err
		})
		return nil, err
	}

	post, err := s.posts.GetPostByID(ctx, postID)
	if err == nil {
		s.retract(ctx, post.AuthorID, actorID, models.NotificationSave, &post.ID)
	} else if !errors.Is(err, models.ErrNotFound) {
		s.logger.Warn("unsave: post lookup for notification cleanup failed",
			zap.String("post", postID.Hex()), zap.Error(err))
	}
	return user, nil
}

// Follow adds actor to target's followers and target to actor's following.
func (s *InteractionService) Follow(ctx context.Context, actorID, targetID primitive.ObjectID) (err error) {
	ctx, done := s.instrument(ctx, "follow", actorID, targetID)
	defer func() { done(err) }()

	if actorID == targetID {
		return models.NewSelfActionError("you cannot follow yourself")
	}
	if _, err := s.users.GetUserByID(ctx, actorID); err != nil {
		return err
	}
	target, err := s.users.GetUserByID(ctx, targetID)
	if err != nil {
		return err
	}
	if target.IsFollowedBy(actorID) {
		return models.NewAlreadyAppliedError("already following this user")
	}

	claimed, err := s.follows.Activate(ctx, actorID, targetID)
	if err != nil {
		return err
	}
	if !claimed {
		return models.NewAlreadyAppliedError("already following this user")
	}

	if err := s.users.AddFollower(ctx, targetID, actorID); err != nil {
		s.compensate(ctx, "follow", func(ctx context.Context) error {
			_, err := s.follows.Deactivate(ctx, actorID, targetID)
			return err
		})
		return err
	}
	if err := s.users.AddFollowing(ctx, actorID, targetID); err != nil {
		s.compensate(ctx, "follow", func(ctx context.Context) error {
			if err := s.users.RemoveFollower(ctx, targetID, actorID); err != nil {
				return err
			}
			_, err := s.follows.Deactivate(ctx, actorID, targetID)
			return err
		})
		return err
	}

	s.notify(ctx, &models.Notification{
		Recipient: targetID,
		Author:    actorID,
		Type:      models.NotificationFollow,
	})
	return nil
}

// Unfollow removes both sides of a follow.
func (s *InteractionService) Unfollow(ctx context.Context, actorID, targetID primitive.ObjectID) (err error) {
	ctx, done := s.instrument(ctx, "unfollow", actorID, targetID)
	defer func() { done(err) }()

	if actorID == targetID {
		return models.NewSelfActionError("you cannot unfollow yourself")
	}
	if _, err := s.users.GetUserByID(ctx, actorID); err != nil {
		return err
	}
	target, err := s.users.GetUserByID(ctx, targetID)
	if err != nil {
		return err
	}

	released, err := s.follows.Deactivate(ctx, actorID, targetID)
	if err != nil {
		return err
	}
	if !released && !target.IsFollowedBy(actorID) {
		return models.NewNotAppliedError("not following this user")
	}

	if err := s.users.RemoveFollower(ctx, targetID, actorID); err != nil {
		if released {
			s.compensate(ctx, "unfollow", func(ctx context.Context) error {
				_, err := s.follows.Activate(ctx, actorID, targetID)
				return err
			})
		}
		return err
	}
	if err := s.users.RemoveFollowing(ctx, actorID, targetID); err != nil {
		s.compensate(ctx, "unfollow", func(ctx context.Context) error {
			if err := s.users.AddFollower(ctx, targetID, actorID); err != nil {
				return err
			}
			if !released {
				return nil
			}
			_, err := s.follows.Activate(ctx, actorID, targetID)
			return err
		})
		return err
	}

	s.retract(ctx, targetID, actorID, models.NotificationFollow, nil)
	return nil
}

// ReconcileLikes rebuilds a post's likes array and likes_count from the
// active like status rows. Only the post's author may run it.
func (s *InteractionService) ReconcileLikes(ctx context.Context, actorID, postID primitive.ObjectID) (post *models.Post, err error) {
	ctx, done := s.instrument(ctx, "reconcile_likes", actorID, postID)
	defer func() { done(err) }()

	current, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if current.AuthorID != actorID {
		return nil, models.NewForbiddenError("only the post author can reconcile its likes")
	}
	rows, err := s.likes.ListActiveByTarget(ctx, postID)
	if err != nil {
		return nil, err
	}
	likes := make([]models.PostLike, 0, len(rows))
	for _, row := range rows {
		likes = append(likes, models.PostLike{UserID: row.UserID, CreatedAt: row.UpdatedAt})
	}
	return s.posts.SetLikes(ctx, postID, likes)
}

func (s *InteractionService) IsLiked(ctx context.Context, actorID, postID primitive.ObjectID) (bool, error) {
	return s.likes.IsActive(ctx, actorID, postID)
}

func (s *InteractionService) IsSaved(ctx context.Context, actorID, postID primitive.ObjectID) (bool, error) {
	return s.saves.IsActive(ctx, actorID, postID)
}

func (s *InteractionService) IsFollowing(ctx context.Context, actorID, targetID primitive.ObjectID) (bool, error) {
	return s.follows.IsActive(ctx, actorID, targetID)
}

// LikedPosts lists posts the user currently likes, most recent like first.
// Liked posts that were deleted are skipped.
func (s *InteractionService) LikedPosts(ctx context.Context, userID primitive.ObjectID, skip, limit int64) ([]models.Post, error) {
	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	ids, err := s.likes.ListActiveTargets(ctx, userID, skip, limit)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []models.Post{}, nil
	}
	posts, err := s.posts.ListPosts(ctx, models.PostFilter{IDs: ids}, 0, int64(len(ids)))
	if err != nil {
		return nil, err
	}
	return orderByIDs(posts, ids), nil
}

func orderByIDs(posts []models.Post, ids []primitive.ObjectID) []models.Post {
	byID := make(map[primitive.ObjectID]models.Post, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
	}
	ordered := make([]models.Post, 0, len(posts))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered
}

// SavedPosts lists the posts in the user's saved set that still exist
func (s *InteractionService) SavedPosts(ctx context.Context, userID primitive.ObjectID) ([]models.Post, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(user.SavedPosts) == 0 {
		return []models.Post{}, nil
	}
	return s.posts.ListPosts(ctx, models.PostFilter{IDs: user.SavedPosts}, 0, int64(len(user.SavedPosts)))
}

// Comments returns a post's comments oldest first with authors resolved
func (s *InteractionService) Comments(ctx context.Context, postID primitive.ObjectID) ([]models.CommentView, error) {
	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(post.Comments))
	for _, c := range post.Comments {
		ids = append(ids, c.UserID)
	}
	authors, err := s.compactUsers(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]models.CommentView, 0, len(post.Comments))
	for _, c := range post.Comments {
		views = append(views, models.CommentView{
			ID:        c.ID,
			Content:   c.Content,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
			User:      authorOrUnknown(authors, c.UserID),
		})
	}
	return views, nil
}

func (s *InteractionService) Followers(ctx context.Context, userID primitive.ObjectID) ([]models.UserCompact, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.compactList(ctx, user.Followers)
}

func (s *InteractionService) Following(ctx context.Context, userID primitive.ObjectID) ([]models.UserCompact, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.compactList(ctx, user.Following)
}

func (s *InteractionService) compactList(ctx context.Context, ids []primitive.ObjectID) ([]models.UserCompact, error) {
	users, err := s.users.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]models.UserCompact, 0, len(users))
	for i := range users {
		out = append(out, users[i].ToCompact())
	}
	return out, nil
}

func (s *InteractionService) compactUsers(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.UserCompact, error) {
	return resolveAuthors(ctx, s.users, ids)
}

// notify stores n and reports whether it was stored. Failures are logged and
// swallowed: the interaction already happened.
func (s *InteractionService) notify(ctx context.Context, n *models.Notification) bool {
	n.CreatedAt = s.now()
	if err := s.notifications.Create(ctx, n); err != nil {
		metrics.NotificationFailures.WithLabelValues("create").Inc()
		s.logger.Warn("notification create failed",
			zap.String("type", string(n.Type)),
			zap.String("recipient", n.Recipient.Hex()),
			zap.String("author", n.Author.Hex()),
			zap.Error(err))
		return false
	}
	return true
}

// retract deletes the notification an interaction created. Absence is fine.
func (s *InteractionService) retract(ctx context.Context, recipient, author primitive.ObjectID, typ models.NotificationType, post *primitive.ObjectID) {
	if _, err := s.notifications.DeleteMatching(ctx, recipient, author, typ, post); err != nil {
		metrics.NotificationFailures.WithLabelValues("delete").Inc()
		s.logger.Warn("notification delete failed",
			zap.String("type", string(typ)),
			zap.String("recipient", recipient.Hex()),
			zap.String("author", author.Hex()),
			zap.Error(err))
	}
}

func (s *InteractionService) broadcast(ctx context.Context, event string, payload interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event, payload); err != nil {
		s.logger.Warn("realtime publish failed", zap.String("event", event), zap.Error(err))
	}
}

// compensate undoes a status claim after a later write failed. It runs even
// if the request context was cancelled.
func (s *InteractionService) compensate(ctx context.Context, action string, undo func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := undo(ctx); err != nil {
		s.logger.Error("compensation failed, state needs reconciliation",
			zap.String("action", action), zap.Error(err))
	}
}

func (s *InteractionService) instrument(ctx context.Context, action string, actorID, targetID primitive.ObjectID) (context.Context, func(error)) {
	ctx, span := tracing.Start(ctx, tracerName, "interaction."+action,
		attribute.String("actor.id", actorID.Hex()),
		attribute.String("target.id", targetID.Hex()),
	)
	return ctx, func(err error) {
		metrics.Interactions.WithLabelValues(action, outcome(err)).Inc()
		tracing.End(span, err)
	}
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return strings.ToLower(appErr.Code)
	}
	return "error"
}

func normalizeContent(raw string) (string, error) {
	content := strings.TrimSpace(raw)
	if content == "" {
		return "", models.NewValidationError("comment content is required")
	}
	if utf8.RuneCountInString(content) > models.MaxCommentLength {
		return "", models.NewValidationError("comment must be at most 500 characters")
	}
	return content, nil
}

func checkRecipient(recipient primitive.ObjectID, post *models.Post) error {
	if !recipient.IsZero() && recipient != post.AuthorID {
		return models.NewValidationError("recipientId must be the post author")
	}
	return nil
}
