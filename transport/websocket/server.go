package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-canvas/internal/entity"
	"github.com/rocketscienceinc/tictactoe-canvas/internal/usecase"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 25 * time.Second
	maxMessageSize = 1 << 16
)

type gameManager interface {
	RequestMatch(ctx context.Context, participant entity.Participant) (*usecase.MatchResult, error)
	Navigate(ctx context.Context, participantID string, dir entity.Direction) (*usecase.TurnResult, error)
	Commit(ctx context.Context, participantID string) (*usecase.TurnResult, error)
	Stop(ctx context.Context, participantID string) error
	Withdraw(ctx context.Context, participantID string) bool
}

type handlerFunc func(ctx context.Context, msg *Message, c *client) error

// client is one open socket. Writes are serialized by writeMu.
type client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	mu          sync.RWMutex
	participant *entity.Participant
}

func (that *client) write(msg *Message) error {
	that.writeMu.Lock()
	defer that.writeMu.Unlock()

	if err := that.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	if err := that.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

func (that *client) ping() error {
	that.writeMu.Lock()
	defer that.writeMu.Unlock()

	return that.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (that *client) identity() (entity.Participant, bool) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	if that.participant == nil {
		return entity.Participant{}, false
	}

	return *that.participant, true
}

func (that *client) identify(participant entity.Participant) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.participant = &participant
}

type Server struct {
	logger   *slog.Logger
	games    gameManager
	upgrader websocket.Upgrader

	connectionsMutex sync.RWMutex
	connections      map[string]*client

	spectatorsMutex sync.RWMutex
	spectators      map[*client]struct{}

	handlers map[string]handlerFunc
}

func New(logger *slog.Logger, games gameManager) *Server {
	server := &Server{
		logger: logger.With("component", "websocket"),
		games:  games,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},

		connections: make(map[string]*client),
		spectators:  make(map[*client]struct{}),
	}

	server.handlers = map[string]handlerFunc{
		actionConnect:  server.handleConnect,
		actionPlay:     server.handlePlay,
		actionMove:     server.handleMove,
		actionSend:     server.handleSend,
		actionStop:     server.handleStop,
		actionSpectate: server.handleSpectate,
	}

	return server
}

// Handler serves the socket endpoint at /ws.
func (that *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.serveSocket(ctx, w, r)
	})

	return mux
}

// Start - starts WebSocket server and stops it when ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.Handler(ctx),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), writeWait)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (that *Server) serveSocket(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "serveSocket")

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	c := &client{conn: conn}
	defer that.disconnect(ctx, c)

	log.Info("WebSocket connection established", "remote", r.RemoteAddr)

	done := make(chan struct{})
	defer close(done)
	go that.keepAlive(c, done)

	if err = that.handleMessages(ctx, c); err != nil {
		log.Info("connection closed", "error", err)
	}
}

// handleMessages - reads frames until the client goes away.
func (that *Server) handleMessages(ctx context.Context, c *client) error {
	log := that.logger.With("method", "handleMessages")

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				return nil
			}

			return fmt.Errorf("failed to read message: %w", err)
		}

		var msg Message
		if err = json.Unmarshal(data, &msg); err != nil {
			log.Warn("failed to unmarshal message", "error", err)
			that.sendError(c, "malformed message")

			continue
		}

		handler, ok := that.handlers[msg.Action]
		if !ok {
			log.Warn("unknown action", "action", msg.Action)
			that.sendError(c, fmt.Sprintf("unknown action %q", msg.Action))

			continue
		}

		if err = handler(ctx, &msg, c); err != nil {
			log.Error("error processing message", "action", msg.Action, "error", err)
		}
	}
}

func (that *Server) keepAlive(c *client, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.ping(); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// register binds the participant id to the client. An id held by another open
// socket is refused.
func (that *Server) register(participantID string, c *client) bool {
	that.connectionsMutex.Lock()
	defer that.connectionsMutex.Unlock()

	if existing, ok := that.connections[participantID]; ok && existing != c {
		return false
	}

	that.connections[participantID] = c

	return true
}

// unregister drops the binding if it still points at the client.
func (that *Server) unregister(participantID string, c *client) bool {
	that.connectionsMutex.Lock()
	defer that.connectionsMutex.Unlock()

	if that.connections[participantID] != c {
		return false
	}

	delete(that.connections, participantID)

	return true
}

// disconnect forgets the client. A participant still waiting for an opponent
// leaves the waiting room with the socket.
func (that *Server) disconnect(ctx context.Context, c *client) {
	if participant, ok := c.identity(); ok && that.unregister(participant.ID, c) {
		that.games.Withdraw(ctx, participant.ID)
	}

	that.spectatorsMutex.Lock()
	delete(that.spectators, c)
	that.spectatorsMutex.Unlock()

	_ = c.conn.Close()
}

func (that *Server) watchers() []*client {
	that.spectatorsMutex.RLock()
	defer that.spectatorsMutex.RUnlock()

	watchers := make([]*client, 0, len(that.spectators))
	for c := range that.spectators {
		watchers = append(watchers, c)
	}

	return watchers
}

func (that *Server) lookup(participantID string) (*client, bool) {
	that.connectionsMutex.RLock()
	defer that.connectionsMutex.RUnlock()

	c, ok := that.connections[participantID]

	return c, ok
}
