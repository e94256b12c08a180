package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"fighterarena/internal/chain"
	"fighterarena/internal/game"
	"fighterarena/internal/store"
	"fighterarena/internal/submit"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow connections from any origin
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// ChainReader reads a player's on-chain standing
type ChainReader interface {
	Standing(ctx context.Context, player string) (chain.Standing, error)
}

// Options wires the server to the rest of the process
type Options struct {
	Rules     game.Rules
	StaticDir string
	Store     store.Store
	Submitter *submit.Service
	// Chain may be nil when no game wallet is configured
	Chain ChainReader
}

// Server handles HTTP and WebSocket connections
type Server struct {
	rules     game.Rules
	staticDir string
	store     store.Store
	submitter *submit.Service
	chain     ChainReader

	mu       sync.Mutex
	clients  map[string]*Client
	sessions sync.WaitGroup
	httpSrv  *http.Server
	closed   bool
}

// NewServer creates a new server instance
func NewServer(opts Options) *Server {
	return &Server{
		rules:     opts.Rules,
		staticDir: opts.StaticDir,
		store:     opts.Store,
		submitter: opts.Submitter,
		chain:     opts.Chain,
		clients:   make(map[string]*Client),
	}
}

// Handler returns the routes served by the server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/api/submit-score", cors(http.HandlerFunc(s.handleSubmitScore)))
	mux.Handle("/api/scores", cors(http.HandlerFunc(s.handleScores)))
	mux.Handle("/api/leaderboard", cors(http.HandlerFunc(s.handleLeaderboard)))
	mux.Handle("/api/leaderboard/recent", cors(http.HandlerFunc(s.handleRecentGames)))
	mux.Handle("/api/players/{name}", cors(http.HandlerFunc(s.handlePlayer)))
	mux.Handle("/api/chain/players/{address}", cors(http.HandlerFunc(s.handleChainPlayer)))
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ws", s.handleWebSocket)
	if s.staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(s.staticDir)))
	}
	return mux
}

// Start serves on addr until Shutdown is called
func (s *Server) Start(addr string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.httpSrv
	s.mu.Unlock()

	log.Printf("Server starting on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, ends every live session and waits for
// their goroutines (including in-flight score submissions) to finish
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	srv := s.httpSrv
	live := make([]*Client, 0, len(s.clients))
	for _, c := range s.clients {
		live = append(live, c)
	}
	s.mu.Unlock()

	var err error
	if srv != nil {
		err = srv.Shutdown(ctx)
	}

	for _, c := range live {
		c.stop()
	}
	if len(live) > 0 {
		log.Printf("Closing %d live sessions", len(live))
	}

	finished := make(chan struct{})
	go func() {
		s.sessions.Wait()
		close(finished)
	}()
	select {
	case <-finished:
	case <-ctx.Done():
		return errors.Join(err, ctx.Err())
	}
	return err
}

// SessionCount returns the number of connected players
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// handleWebSocket upgrades the connection and starts a game session for it
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	address := r.URL.Query().Get("address")
	if !submit.ValidAddress(address) {
		http.Error(w, "address query parameter must be a 0x-prefixed 40 hex character address", http.StatusBadRequest)
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		name = address
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	identity := game.Identity{
		PlayerAddress: address,
		PlayerName:    name,
		GameContract:  s.submitter.WalletAddress(),
	}
	id := uuid.NewString()
	client := newClient(id, conn, game.NewSession(id, identity, s.rules, nil))
	if !s.addClient(client) {
		conn.Close()
		return
	}

	go s.runSession(client)
	go client.writePump()
	go client.readPump(s.removeClient)
}

// addClient registers c unless the server is shutting down
func (s *Server) addClient(c *Client) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.clients[c.ID] = c
	s.sessions.Add(1)
	n := len(s.clients)
	s.mu.Unlock()
	log.Printf("Player joined with session %s (%d connected)", c.ID, n)
	return true
}

func (s *Server) removeClient(c *Client) {
	s.mu.Lock()
	_, exists := s.clients[c.ID]
	delete(s.clients, c.ID)
	s.mu.Unlock()

	c.stop()
	if exists {
		log.Printf("Session %s disconnected", c.ID)
	}
}
