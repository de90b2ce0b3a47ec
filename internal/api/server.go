package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/nerrad567/catt-bridge/internal/bridge"
	"github.com/nerrad567/catt-bridge/internal/core"
	"github.com/nerrad567/catt-bridge/internal/infrastructure/config"
	"github.com/nerrad567/catt-bridge/internal/infrastructure/logging"
	"github.com/nerrad567/catt-bridge/internal/value"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// BridgeSource supplies bridge counters and the last observed item states.
// *bridge.Bridge satisfies it.
type BridgeSource interface {
	Metrics() bridge.Metrics
	LastState(name string) (value.Value, bool)
}

// BusStatus reports bus connectivity and subscription count.
// *mqtt.Client satisfies it.
type BusStatus interface {
	IsConnected() bool
	SubscriptionCount() int
}

// ReadyChecker reports whether the binding finished its initial scan.
// *zwave.Binding satisfies it.
type ReadyChecker interface {
	Ready() bool
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config  config.APIConfig
	Logger  *logging.Logger
	Binding core.Binding
	Bridge  BridgeSource      // optional
	Bus     BusStatus         // optional
	Ready   ReadyChecker      // optional
	Hub     *Hub              // optional, created when nil
	Version string
}

// Server is the HTTP status and control API.
//
// It is created with New, started with Start and stopped with Close.
type Server struct {
	cfg       config.APIConfig
	logger    *logging.Logger
	binding   core.Binding
	bridge    BridgeSource
	bus       BusStatus
	ready     ReadyChecker
	version   string
	startTime time.Time
	hub       *Hub

	mu     sync.Mutex
	server *http.Server
	addr   string
	cancel context.CancelFunc
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: logger and binding are required, the rest is optional
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("%w: logger is required", core.ErrConfig)
	}
	if deps.Binding == nil {
		return nil, fmt.Errorf("%w: binding is required", core.ErrConfig)
	}
	hub := deps.Hub
	if hub == nil {
		hub = NewHub(deps.Logger)
	}

	return &Server{
		cfg:       deps.Config,
		logger:    deps.Logger,
		binding:   deps.Binding,
		bridge:    deps.Bridge,
		bus:       deps.Bus,
		ready:     deps.Ready,
		version:   deps.Version,
		startTime: time.Now(),
		hub:       hub,
	}, nil
}

// Hub returns the state stream hub. Its Broadcast method is suitable as a
// bridge.Options.OnState callback.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start binds the listener and serves in a background goroutine.
//
// Parameters:
//   - ctx: parent context for the hub's lifetime
//
// Returns:
//   - error: If the listener cannot be bound
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return errors.New("api server already started")
	}

	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprintf("%d", s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	srvCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	go s.hub.Run(srvCtx)

	s.server = &http.Server{
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}
	s.addr = ln.Addr().String()

	s.logger.Info("API server listening", "address", s.addr)

	srv := s.server
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound listener address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
//
// Returns:
//   - error: If shutdown encounters an error
func (s *Server) Close() error {
	s.mu.Lock()
	srv := s.server
	cancel := s.cancel
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	if cancel != nil {
		cancel()
	}

	ctx, done := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer done()

	s.logger.Info("API server shutting down")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server has been started.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server == nil {
		return errors.New("api server not started")
	}
	return nil
}
