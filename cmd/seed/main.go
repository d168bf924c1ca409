package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/anonto42/canvas-social/backend/internal/models"
	"github.com/anonto42/canvas-social/backend/internal/repositories"
	"github.com/anonto42/canvas-social/backend/internal/seed"
	"github.com/anonto42/canvas-social/backend/internal/services"
	"github.com/anonto42/canvas-social/backend/pkg/config"
	"github.com/anonto42/canvas-social/backend/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	users := flag.Int("users", 20, "number of users to create")
	posts := flag.Int("posts", 3, "posts per user")
	activity := flag.Float64("activity", 0.3, "chance a user interacts with a post")
	seedValue := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zl, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	db, err := config.InitDB(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("database", zap.Error(err))
	}
	defer db.CloseDB()

	userRepo := repositories.NewMongoUserRepository(db.Database)
	postRepo := repositories.NewMongoPostRepository(db.Database)
	categoryRepo := repositories.NewMongoCategoryRepository(db.Database)
	likes := repositories.NewMongoStatusRepository(db.Database, models.StatusLike)
	saves := repositories.NewMongoStatusRepository(db.Database, models.StatusSave)
	follows := repositories.NewMongoStatusRepository(db.Database, models.StatusFollow)
	notifications := repositories.NewMongoNotificationRepository(db.Database)

	for _, ensure := range []func(context.Context) error{
		userRepo.EnsureIndexes, postRepo.EnsureIndexes, categoryRepo.EnsureIndexes,
		likes.EnsureIndexes, saves.EnsureIndexes, follows.EnsureIndexes, notifications.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			zl.Fatal("ensure indexes", zap.Error(err))
		}
	}

	interactions := services.NewInteractionService(services.InteractionDeps{
		Users:         userRepo,
		Posts:         postRepo,
		Likes:         likes,
		Saves:         saves,
		Follows:       follows,
		Notifications: notifications,
		Logger:        zl,
	})
	postService := services.NewPostService(postRepo, userRepo, categoryRepo, nil, nil, zl)

	factory := seed.NewFactory(userRepo, postService, interactions, zl)
	if _, err := factory.Run(ctx, seed.Options{
		Users:        *users,
		PostsPerUser: *posts,
		Activity:     *activity,
		Seed:         *seedValue,
	}); err != nil {
		zl.Fatal("seed failed", zap.Error(err))
	}
}
