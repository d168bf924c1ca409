// Package realtime pushes server events to connected websocket clients.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/anonto42/canvas-social/backend/pkg/metrics"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

var (
	ErrAlreadyInitialized = errors.New("realtime hub already initialized")
	ErrNotInitialized     = errors.New("realtime hub not initialized")
)

const (
	DefaultPath       = "/socket"
	DefaultSendBuffer = 256
)

// Config controls the websocket endpoint.
type Config struct {
	Path           string
	AllowedOrigins []string // "*" allows any origin
	SendBuffer     int
}

// RouteRegistrar is satisfied by *echo.Echo and *echo.Group.
type RouteRegistrar interface {
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

// Bus carries published messages between server instances. Every instance
// subscribes and delivers what it receives to its own clients.
type Bus interface {
	Publish(ctx context.Context, message []byte) error
	// Subscribe returns once the subscription is live and calls deliver for
	// each message until ctx is done.
	Subscribe(ctx context.Context, deliver func([]byte)) error
}

// Envelope is the wire format of every event.
type Envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub fans events out to every connected client. Delivery is at-most-once:
// a client whose buffer is full misses the event, and nothing is replayed
// after a reconnect.
type Hub struct {
	mu          sync.RWMutex
	clients     map[*Client]struct{}
	initialized bool
	cfg         Config
	upgrader    websocket.Upgrader
	bus         Bus
	stopBus     context.CancelFunc
	logger      *zap.Logger
}

// NewHub creates a hub. bus may be nil for single-instance deployments.
func NewHub(logger *zap.Logger, bus Bus) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[*Client]struct{}),
		bus:     bus,
		logger:  logger,
	}
}

// Initialize mounts the websocket endpoint and starts the bus subscription.
func (h *Hub) Initialize(r RouteRegistrar, cfg Config) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.initialized {
		return ErrAlreadyInitialized
	}

	if cfg.Path == "" {
		cfg.Path = DefaultPath
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = DefaultSendBuffer
	}

	if h.bus != nil {
		ctx, cancel := context.WithCancel(context.Background())
		if err := h.bus.Subscribe(ctx, h.deliver); err != nil {
			cancel()
			return fmt.Errorf("subscribe realtime bus: %w", err)
		}
		h.stopBus = cancel
	}

	h.cfg = cfg
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(cfg.AllowedOrigins),
	}
	r.GET(cfg.Path, h.serveWS)
	h.initialized = true
	h.logger.Info("realtime hub initialized", zap.String("path", cfg.Path), zap.Bool("bus", h.bus != nil))
	return nil
}

// Publish sends event to all clients, through the bus when one is configured.
func (h *Hub) Publish(ctx context.Context, event string, payload interface{}) error {
	h.mu.RLock()
	ready := h.initialized
	h.mu.RUnlock()
	if !ready {
		return ErrNotInitialized
	}

	message, err := json.Marshal(Envelope{Event: event, Data: payload})
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event, err)
	}
	metrics.RealtimeEvents.WithLabelValues(event).Inc()

	if h.bus == nil {
		h.deliver(message)
		return nil
	}
	if err := h.bus.Publish(ctx, message); err != nil {
		// Local clients still get it; other instances miss this event.
		h.deliver(message)
		return fmt.Errorf("publish %s to bus: %w", event, err)
	}
	return nil
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Shutdown disconnects every client and stops the bus subscription. The hub
// may be initialized again afterwards.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.initialized {
		return nil
	}
	h.initialized = false
	if h.stopBus != nil {
		h.stopBus()
		h.stopBus = nil
	}

	deadline := time.Now().Add(writeWait)
	closeMsg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	for c := range h.clients {
		if err := c.conn.WriteControl(websocket.CloseMessage, closeMsg, deadline); err != nil {
			h.logger.Debug("failed to write close message", zap.String("client", c.id), zap.Error(err))
		}
		_ = c.conn.Close()
		close(c.send)
		metrics.RealtimeConnections.Dec()
	}
	h.clients = make(map[*Client]struct{})
	h.logger.Info("realtime hub shut down")
	return nil
}

func (h *Hub) deliver(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if !c.TrySend(message) {
			metrics.RealtimeDropped.WithLabelValues("buffer_full").Inc()
		}
	}
}

func (h *Hub) register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.initialized {
		return false
	}
	h.clients[c] = struct{}{}
	metrics.RealtimeConnections.Inc()
	return true
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	metrics.RealtimeConnections.Dec()
}

func (h *Hub) serveWS(c echo.Context) error {
	h.mu.RLock()
	ready := h.initialized
	upgrader := h.upgrader
	buffer := h.cfg.SendBuffer
	h.mu.RUnlock()
	if !ready {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "realtime hub is not running")
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade has already written the error response.
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return nil
	}

	client := newClient(h, conn, buffer)
	if !h.register(client) {
		_ = conn.Close()
		return nil
	}
	h.logger.Debug("realtime client connected", zap.String("client", client.id))

	go client.writePump()
	go client.readPump()
	return nil
}

func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || set["*"] {
			return true
		}
		return set[origin]
	}
}
