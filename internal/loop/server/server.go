// Package server hosts the shared side of a multi-player deployment: one
// game controller per connected client, all backed by a common stats store.
package server

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tomz197/chainbreaker/internal/clock"
	"github.com/tomz197/chainbreaker/internal/game"
	"github.com/tomz197/chainbreaker/internal/loop/config"
	"github.com/tomz197/chainbreaker/internal/stats"
)

// GameServer is the interface clients use to communicate with the hub.
// Decouples the Client from the concrete Server implementation.
type GameServer interface {
	RegisterClient(username string) *ClientHandle
	UnregisterClient(clientID int)
	Players() int
	TopScores(n int) []TopScoreEntry
}

// Server tracks connected clients and their game controllers.
type Server struct {
	kv           stats.KV
	table        game.Table
	sched        clock.Scheduler
	logger       *log.Logger
	clients      map[int]*ClientHandle
	nextClientID int
	shuttingDown bool
	mu           sync.RWMutex
}

// Compile-time check that Server implements GameServer.
var _ GameServer = (*Server)(nil)

// ClientHandle represents a client's connection to the hub.
type ClientHandle struct {
	ID         int
	Username   string           // Display name for this client
	Controller *game.Controller // This client's game session
	EventsCh   chan ClientEvent // Events sent to client
}

// ClientEvent represents an event sent from server to client.
type ClientEvent struct {
	Type ClientEventType
}

// ClientEventType identifies the type of client event.
type ClientEventType int

const (
	EventServerShutdown ClientEventType = iota
)

// Option configures a Server.
type Option func(*Server)

// WithScheduler sets the scheduler handed to every controller.
func WithScheduler(s clock.Scheduler) Option {
	return func(srv *Server) { srv.sched = s }
}

// WithLogger sets the hub logger.
func WithLogger(l *log.Logger) Option {
	return func(srv *Server) { srv.logger = l }
}

// NewServer creates a hub backed by kv, serving games from table.
func NewServer(kv stats.KV, table game.Table, opts ...Option) *Server {
	s := &Server{
		kv:           kv,
		table:        table,
		sched:        clock.Real{},
		logger:       log.Default(),
		clients:      make(map[int]*ClientHandle),
		nextClientID: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterClient registers a new client with the given username and returns
// its handle. Lifetime stats are keyed by username.
func (s *Server) RegisterClient(username string) *ClientHandle {
	s.mu.Lock()
	id := s.nextClientID
	s.nextClientID++
	s.mu.Unlock()

	logger := s.logger.With("client", id, "user", username)
	store := stats.NewStore(s.kv,
		stats.WithKey(stats.UserKey(username)),
		stats.WithLogger(logger),
	)
	ctrl := game.NewController(store,
		game.WithScheduler(s.sched),
		game.WithTable(s.table),
		game.WithLogger(logger),
	)

	handle := &ClientHandle{
		ID:         id,
		Username:   username,
		Controller: ctrl,
		EventsCh:   make(chan ClientEvent, config.EventBufferSize),
	}
	// Checked with the insert so a concurrent Shutdown either sees this
	// client in its broadcast or leaves the flag set for it.
	s.mu.Lock()
	if s.shuttingDown {
		handle.EventsCh <- ClientEvent{Type: EventServerShutdown}
	}
	s.clients[id] = handle
	s.mu.Unlock()

	logger.Info("client registered")
	return handle
}

// UnregisterClient removes a client from the server. An in-progress game is
// returned to the menu so its results are recorded.
func (s *Server) UnregisterClient(clientID int) {
	s.mu.Lock()
	handle, ok := s.clients[clientID]
	if ok {
		delete(s.clients, clientID)
	}
	s.mu.Unlock()
	if !ok {
		return
	}

	handle.Controller.ReturnToMenu()
	close(handle.EventsCh)
	s.logger.Info("client unregistered", "client", clientID, "user", handle.Username)
}

// Players returns the number of connected clients.
func (s *Server) Players() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Shutdown gracefully shuts down the server by notifying all connected clients
// and waiting for them to disconnect (up to the given timeout).
func (s *Server) Shutdown(timeout time.Duration) {
	// Notify all connected clients about the shutdown
	s.mu.Lock()
	s.shuttingDown = true
	for _, handle := range s.clients {
		select {
		case handle.EventsCh <- ClientEvent{Type: EventServerShutdown}:
		default:
		}
	}
	s.mu.Unlock()

	// Wait for all clients to disconnect, or timeout
	deadline := time.After(timeout)
	ticker := time.NewTicker(config.ShutdownPollInterval)
	defer ticker.Stop()

	for {
		if s.Players() == 0 {
			return
		}
		select {
		case <-deadline:
			s.logger.Warn("shutdown timed out", "remaining", s.Players())
			return
		case <-ticker.C:
		}
	}
}
