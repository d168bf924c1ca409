// Package seed fills a development database with demo users, posts and
// interactions. The interactions go through the engine, so seeded data has
// the same status rows, counters and notifications as real traffic.
package seed

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/anonto42/canvas-social/backend/internal/models"
	"github.com/anonto42/canvas-social/backend/internal/repositories"
	"github.com/anonto42/canvas-social/backend/internal/services"
	"github.com/brianvoe/gofakeit/v6"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Options sizes a seed run.
type Options struct {
	Users        int
	PostsPerUser int
	// Probability, 0..1, that a given user interacts with a given post.
	Activity float64
	Seed     int64
}

// Summary counts what a run created.
type Summary struct {
	Users    int
	Posts    int
	Likes    int
	Comments int
	Saves    int
	Follows  int
}

var categories = []string{"painting", "photography", "illustration", "sculpture", ""}

// Factory builds demo entities through the services.
type Factory struct {
	users        repositories.UserRepository
	posts        *services.PostService
	interactions *services.InteractionService
	logger       *zap.Logger
}

func NewFactory(users repositories.UserRepository, posts *services.PostService, interactions *services.InteractionService, logger *zap.Logger) *Factory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Factory{users: users, posts: posts, interactions: interactions, logger: logger}
}

// Run creates opts.Users users with posts, then lets every user interact
// with other users' posts and follow their authors at random.
func (f *Factory) Run(ctx context.Context, opts Options) (*Summary, error) {
	faker := gofakeit.New(opts.Seed)
	r := rand.New(rand.NewSource(opts.Seed))
	sum := &Summary{}

	users := make([]*models.User, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		u, err := f.CreateUser(ctx, faker)
		if err != nil {
			return sum, err
		}
		users = append(users, u)
		sum.Users++
	}

	var posts []*models.Post
	for _, u := range users {
		for j := 0; j < opts.PostsPerUser; j++ {
			p, err := f.CreatePost(ctx, faker, u.ID)
			if err != nil {
				return sum, err
			}
			posts = append(posts, p)
			sum.Posts++
		}
	}

	for _, u := range users {
		for _, p := range posts {
			if p.AuthorID == u.ID || r.Float64() >= opts.Activity {
				continue
			}
			if err := f.interact(ctx, faker, r, u.ID, p, sum); err != nil {
				return sum, err
			}
		}
	}

	f.logger.Info("seed complete",
		zap.Int("users", sum.Users), zap.Int("posts", sum.Posts),
		zap.Int("likes", sum.Likes), zap.Int("comments", sum.Comments),
		zap.Int("saves", sum.Saves), zap.Int("follows", sum.Follows))
	return sum, nil
}

func (f *Factory) CreateUser(ctx context.Context, faker *gofakeit.Faker) (*models.User, error) {
	user := &models.User{
		Username:       fmt.Sprintf("%s%d", faker.Username(), faker.Number(100, 999)),
		Email:          faker.Email(),
		Bio:            faker.Sentence(10),
		ProfilePicture: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", faker.UUID()),
	}
	if err := f.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("seed user: %w", err)
	}
	return user, nil
}

func (f *Factory) CreatePost(ctx context.Context, faker *gofakeit.Faker, authorID primitive.ObjectID) (*models.Post, error) {
	req := &models.CreatePostRequest{
		Title:         faker.Sentence(4),
		Description:   faker.Paragraph(1, 2, 8, " "),
		ImageURLs:     []string{fmt.Sprintf("https://picsum.photos/seed/%s/800/800", faker.UUID())},
		CategoryTitle: categories[faker.Number(0, len(categories)-1)],
	}
	post, err := f.posts.CreatePost(ctx, authorID, req)
	if err != nil {
		return nil, fmt.Errorf("seed post: %w", err)
	}
	return post, nil
}

func (f *Factory) interact(ctx context.Context, faker *gofakeit.Faker, r *rand.Rand, actorID primitive.ObjectID, post *models.Post, sum *Summary) error {
	if _, err := f.interactions.Like(ctx, services.LikeInput{ActorID: actorID, PostID: post.ID}); ignoreRepeat(err) != nil {
		return err
	} else if err == nil {
		sum.Likes++
	}

	if r.Intn(2) == 0 {
		_, err := f.interactions.Comment(ctx, services.CommentInput{
			ActorID:     actorID,
			PostID:      post.ID,
			Content:     faker.Sentence(8),
			RecipientID: post.AuthorID,
		})
		if err != nil {
			return err
		}
		sum.Comments++
	}

	if r.Intn(3) == 0 {
		if _, err := f.interactions.Save(ctx, actorID, post.ID); ignoreRepeat(err) != nil {
			return err
		} else if err == nil {
			sum.Saves++
		}
	}

	if r.Intn(2) == 0 {
		if err := f.interactions.Follow(ctx, actorID, post.AuthorID); ignoreRepeat(err) != nil {
			return err
		} else if err == nil {
			sum.Follows++
		}
	}
	return nil
}

// ignoreRepeat drops AlreadyApplied, which random seeding hits routinely.
func ignoreRepeat(err error) error {
	if errors.Is(err, models.ErrAlreadyApplied) {
		return nil
	}
	return err
}
