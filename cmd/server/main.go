package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/canvas-social/backend/internal/middleware"
	"github.com/anonto42/canvas-social/backend/internal/models"
	"github.com/anonto42/canvas-social/backend/internal/realtime"
	"github.com/anonto42/canvas-social/backend/internal/repositories"
	"github.com/anonto42/canvas-social/backend/internal/router"
	"github.com/anonto42/canvas-social/backend/internal/services"
	"github.com/anonto42/canvas-social/backend/pkg/config"
	"github.com/anonto42/canvas-social/backend/pkg/firebase"
	"github.com/anonto42/canvas-social/backend/pkg/logger"
	"github.com/anonto42/canvas-social/backend/pkg/metrics"
	"github.com/anonto42/canvas-social/backend/pkg/tracing"
	"github.com/anonto42/canvas-social/backend/validators"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	zl, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, tracing.Config{
		ServiceName:  "canvas-api",
		Environment:  cfg.Env,
		OTLPEndpoint: cfg.OTLPEndpoint,
		Insecure:     !cfg.IsProduction(),
	})
	if err != nil {
		return err
	}

	// Initialize database connections
	db, err := config.InitDB(ctx, cfg, zl)
	if err != nil {
		return err
	}
	defer db.CloseDB()

	users := repositories.NewMongoUserRepository(db.Database)
	posts := repositories.NewMongoPostRepository(db.Database)
	categories := repositories.NewMongoCategoryRepository(db.Database)
	likes := repositories.NewMongoStatusRepository(db.Database, models.StatusLike)
	saves := repositories.NewMongoStatusRepository(db.Database, models.StatusSave)
	follows := repositories.NewMongoStatusRepository(db.Database, models.StatusFollow)
	notifications := repositories.NewMongoNotificationRepository(db.Database)

	for name, ensure := range map[string]func(context.Context) error{
		"users":         users.EnsureIndexes,
		"posts":         posts.EnsureIndexes,
		"categories":    categories.EnsureIndexes,
		"likes":         likes.EnsureIndexes,
		"saves":         saves.EnsureIndexes,
		"follows":       follows.EnsureIndexes,
		"notifications": notifications.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			return fmt.Errorf("ensure %s indexes: %w", name, err)
		}
	}

	var violations repositories.ViolationRepository
	if db.Postgres != nil {
		ledger := repositories.NewPostgresViolationRepository(db.Postgres)
		if err := ledger.AutoMigrate(); err != nil {
			return fmt.Errorf("migrate violations: %w", err)
		}
		violations = ledger
	}

	// Realtime
	var bus realtime.Bus
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parse REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(opts)
		defer func() { _ = rdb.Close() }()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		bus = realtime.NewRedisBus(rdb, zl)
	}
	hub := realtime.NewHub(zl, bus)

	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()
	router.SetupMiddleware(e, zl, cfg.Origins())

	if err := hub.Initialize(e, realtime.Config{
		Path:           cfg.RealtimePath,
		AllowedOrigins: cfg.Origins(),
	}); err != nil {
		return err
	}

	var classifier services.Classifier = services.AllowAll{}
	var labeler services.Labeler
	if cfg.VisionCredentialsPath != "" {
		vc, err := services.NewVisionClassifier(ctx, option.WithCredentialsFile(cfg.VisionCredentialsPath))
		if err != nil {
			return err
		}
		classifier = vc
		labeler = vc
	}
	moderation := services.NewModerationService(classifier, users, violations, cfg.BanThreshold, zl)
	postService := services.NewPostService(posts, users, categories, moderation, hub, zl)
	if labeler != nil {
		postService.WithLabeler(labeler)
	}

	auth, err := authGate(ctx, cfg, users, zl)
	if err != nil {
		return err
	}

	router.SetupRoutes(e, router.Dependencies{
		Users: users,
		Interactions: services.NewInteractionService(services.InteractionDeps{
			Users:         users,
			Posts:         posts,
			Likes:         likes,
			Saves:         saves,
			Follows:       follows,
			Notifications: notifications,
			Publisher:     hub,
			Logger:        zl,
		}),
		Posts:         postService,
		Notifications: services.NewNotificationService(notifications, users),
		Auth:          auth,
		Logger:        zl,
	})

	metricsServer := metrics.NewServer(zl)
	go metricsServer.Start(cfg.MetricsPort)

	// Start server
	errCh := make(chan error, 1)
	go func() {
		zl.Info("server listening", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		zl.Info("shutdown signal received")
	case err := <-errCh:
		zl.Error("server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := hub.Shutdown(shutdownCtx); err != nil {
		zl.Warn("realtime shutdown failed", zap.Error(err))
	}
	if err := e.Shutdown(shutdownCtx); err != nil {
		zl.Warn("http shutdown failed", zap.Error(err))
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		zl.Warn("metrics shutdown failed", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		zl.Warn("tracing shutdown failed", zap.Error(err))
	}
	zl.Info("server stopped")
	return nil
}

func authGate(ctx context.Context, cfg *config.Config, users repositories.UserRepository, zl *zap.Logger) (echo.MiddlewareFunc, error) {
	if cfg.AuthMode == config.AuthModeFirebase {
		app, err := firebase.InitFirebase(ctx, firebase.Config{
			CredentialsPath: cfg.FirebaseCredentialsPath,
			ProjectID:       cfg.FirebaseProjectID,
			CheckRevoked:    cfg.FirebaseCheckRevoked,
		}, zl)
		if err != nil {
			return nil, err
		}
		return middleware.FirebaseAuthMiddleware(app, users, zl), nil
	}
	return middleware.JWTAuthMiddleware(cfg.JWTSecret), nil
}
