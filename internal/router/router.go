package router

import (
	"net/http"

	"github.com/anonto42/canvas-social/backend/internal/handlers"
	"github.com/anonto42/canvas-social/backend/internal/middleware"
	"github.com/anonto42/canvas-social/backend/internal/repositories"
	"github.com/anonto42/canvas-social/backend/internal/services"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// APIPrefix is the mount point of every API group.
const APIPrefix = "/api/v2"

// Dependencies are the services and gates the routes are built from.
type Dependencies struct {
	Users         repositories.UserRepository
	Interactions  *services.InteractionService
	Posts         *services.PostService
	Notifications *services.NotificationService
	// Auth puts the caller's id on the context; see internal/middleware.
	Auth   echo.MiddlewareFunc
	Logger *zap.Logger
}

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo, logger *zap.Logger, allowedOrigins []string) {
	e.HTTPErrorHandler = handlers.HTTPErrorHandler(logger)

	e.Use(eMiddleware.RequestIDWithConfig(eMiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(eMiddleware.RequestLoggerWithConfig(eMiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v eMiddleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			if v.Status >= http.StatusInternalServerError {
				logger.Error("request", fields...)
			} else {
				logger.Info("request", fields...)
			}
			return nil
		},
	}))
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORSWithConfig(eMiddleware.CORSConfig{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	logger.Debug("global middleware configured")
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, deps Dependencies) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	e.GET("/health", handlers.HealthCheck)

	api := e.Group(APIPrefix, deps.Auth, middleware.RejectBanned(deps.Users))

	interactionHandler := handlers.NewInteractionHandler(deps.Interactions)
	interactionHandler.RegisterInteractionRoutes(api.Group("/interactions"))

	postHandler := handlers.NewPostHandler(deps.Posts, interactionHandler)
	postHandler.RegisterPostRoutes(api.Group("/post"))

	categoryHandler := handlers.NewCategoryHandler(deps.Posts)
	categoryHandler.RegisterCategoryRoutes(api.Group("/category"))

	notificationHandler := handlers.NewNotificationHandler(deps.Notifications)
	notificationHandler.RegisterNotificationRoutes(api.Group("/notifications"))

	userHandler := handlers.NewUserHandler(deps.Users, deps.Interactions)
	userHandler.RegisterUserRoutes(api.Group("/users"))

	logger.Info("routes configured", zap.String("prefix", APIPrefix))
}
