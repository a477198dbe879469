package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/net/netutil"

	"github.com/getmockd/wsecho/pkg/logging"
	"github.com/getmockd/wsecho/pkg/websocket"
)

// HealthPath is the path of the health check endpoint.
const HealthPath = "/health"

// DefaultShutdownTimeout bounds Shutdown when the config leaves it unset.
const DefaultShutdownTimeout = 5 * time.Second

// ShutdownReason is the close reason sent to clients on shutdown.
const ShutdownReason = "server shutting down"

// Config configures a Server.
type Config struct {
	Host            string
	Port            int
	MaxConnections  int // 0 = unlimited
	ShutdownTimeout time.Duration
	Endpoint        *websocket.EndpointConfig
}

// Server serves one WebSocket endpoint plus a health check.
type Server struct {
	cfg        Config
	endpoint   *websocket.Endpoint
	manager    *websocket.ConnectionManager
	httpServer *http.Server
	log        *slog.Logger

	listener net.Listener
	serveErr chan error
	conns    sync.WaitGroup
	running  bool
	mu       sync.Mutex
}

// New creates a Server. It does not bind anything until Start.
func New(cfg Config, log *slog.Logger) (*Server, error) {
	if log == nil {
		log = logging.Nop()
	}

	if cfg.Port < 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port %d is out of range", cfg.Port)
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}

	endpoint, err := websocket.NewEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}
	if endpoint.Path() == HealthPath {
		return nil, fmt.Errorf("endpoint path %s is reserved for the health check", HealthPath)
	}

	s := &Server{
		cfg:      cfg,
		endpoint: endpoint,
		manager:  websocket.NewConnectionManager(),
		log:      log.With("component", "server"),
		serveErr: make(chan error, 1),
	}
	endpoint.SetManager(s.manager)
	endpoint.SetLogger(log.With("component", "websocket"))

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+HealthPath, s.handleHealth)
	mux.Handle(endpoint.Path(), s.track(endpoint))

	s.httpServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(s.log.Handler(), slog.LevelDebug),
	}
	return s, nil
}

// track counts in-flight upgrade handlers so Shutdown can wait for them;
// http.Server.Shutdown does not wait for hijacked connections.
func (s *Server) track(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.conns.Add(1)
		defer s.conns.Done()
		next.ServeHTTP(w, r)
	})
}

// Start binds the listener and begins serving in the background.
// A bind failure is returned before anything is served.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("server is already running")
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	if s.cfg.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, s.cfg.MaxConnections)
	}
	s.listener = ln

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("server error", "error", err)
			s.serveErr <- err
		}
		close(s.serveErr)
	}()

	s.running = true
	s.log.Info("server started",
		"addr", ln.Addr().String(),
		"path", s.endpoint.Path(),
		"maxMessageSize", s.endpoint.MaxMessageSize(),
		"idleTimeout", s.endpoint.IdleTimeout().String(),
		"binaryMode", string(s.endpoint.BinaryMode()))
	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Port returns the bound TCP port, which differs from the configured one
// when that was 0.
func (s *Server) Port() int {
	if tcpAddr, ok := s.Addr().(*net.TCPAddr); ok {
		return tcpAddr.Port
	}
	return s.cfg.Port
}

// Endpoint returns the WebSocket endpoint.
func (s *Server) Endpoint() *websocket.Endpoint {
	return s.endpoint
}

// Manager returns the registry of live connections.
func (s *Server) Manager() *websocket.ConnectionManager {
	return s.manager
}

// Errors returns a channel that yields a fatal serve error, if any, and is
// closed when serving stops.
func (s *Server) Errors() <-chan error {
	return s.serveErr
}

// Shutdown stops accepting, closes every live connection with 1001 and waits
// for connection handlers to finish, bounded by the shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()

	var errs []error

	// Closes the listener; hijacked connections are left to us.
	if err := s.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("HTTP shutdown: %w", err))
	}

	// Leave part of the budget for handlers to unwind after dropped peers.
	closeCtx, closeCancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout*3/4)
	closed := s.manager.CloseAll(closeCtx, websocket.CloseGoingAway, ShutdownReason)
	closeCancel()
	s.log.Info("closed connections", "count", closed)

	done := make(chan struct{})
	go func() {
		s.conns.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		errs = append(errs, fmt.Errorf("waiting for connections: %w", ctx.Err()))
	}

	s.log.Info("server stopped")
	return errors.Join(errs...)
}
