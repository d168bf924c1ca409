// Package metrics holds the Prometheus collectors and the scrape endpoint.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	// Interactions counts engine operations by action and outcome code.
	Interactions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "canvas_interactions_total",
		Help: "Total interaction engine operations by action and outcome",
	}, []string{"action", "outcome"})

	// NotificationFailures counts swallowed notification writes and deletes.
	NotificationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "canvas_notification_failures_total",
		Help: "Notification side effects that failed after the primary write",
	}, []string{"op"})

	RealtimeConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "canvas_realtime_connections",
		Help: "Number of connected realtime clients",
	})

	RealtimeEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "canvas_realtime_events_total",
		Help: "Realtime events published by name",
	}, []string{"event"})

	// RealtimeDropped counts messages not delivered to a client.
	RealtimeDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "canvas_realtime_dropped_total",
		Help: "Realtime messages dropped by reason",
	}, []string{"reason"})

	ModerationRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "canvas_moderation_rejections_total",
		Help: "Posts rejected by the moderation gate",
	})
)

// Server exposes /metrics on its own port.
type Server struct {
	echo   *echo.Echo
	logger *zap.Logger
}

func NewServer(logger *zap.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	return &Server{echo: e, logger: logger}
}

// Start serves until Shutdown; it blocks.
func (s *Server) Start(port string) {
	s.logger.Info("metrics server listening", zap.String("port", port))
	if err := s.echo.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("metrics server stopped", zap.Error(err))
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.echo.Shutdown(ctx)
}
