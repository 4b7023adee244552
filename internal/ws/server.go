package ws

import (
	"encoding/json"
	"expvar"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"connect-arena/internal/arena"
)

const sendBuffer = 64

var (
	metricConnectionsTotal  = expvar.NewInt("ws_connections_total")
	metricConnectionsActive = expvar.NewInt("ws_connections_active")
	metricDroppedFrames     = expvar.NewInt("ws_dropped_frames_total")
	metricInvalidRequests   = expvar.NewInt("ws_invalid_requests_total")
)

// Queue is the matchmaking side of the core.
type Queue interface {
	Enqueue(e arena.Entrant) error
	Dequeue(e arena.Entrant)
}

// Games is the session side of the core.
type Games interface {
	ApplyPlayerMove(gameID, clientID, username string, column int) error
	HandleReconnect(clientID, username, gameID string) error
	HandleDisconnect(clientID, username string)
}

type Options struct {
	// AllowedOrigins restricts the Origin header on upgrade. Empty allows any.
	AllowedOrigins []string
	// ReservedNames cannot be claimed by clients.
	ReservedNames []string
}

type Client struct {
	id       string
	conn     *websocket.Conn
	send     chan []byte
	username string
}

type Server struct {
	upgrader websocket.Upgrader
	reserved map[string]bool
	queue    Queue
	games    Games

	mu      sync.RWMutex
	clients map[string]*Client
}

func NewServer(opts Options) *Server {
	s := &Server{
		reserved: map[string]bool{},
		clients:  map[string]*Client{},
	}
	for _, n := range opts.ReservedNames {
		s.reserved[strings.ToLower(n)] = true
	}
	origins := opts.AllowedOrigins
	s.upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool {
		if len(origins) == 0 {
			return true
		}
		origin := r.Header.Get("Origin")
		for _, o := range origins {
			if strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}}
	return s
}

// Bind attaches the core. It must be called before the server accepts
// connections; the core in turn uses the server as its Notifier.
func (s *Server) Bind(q Queue, g Games) {
	s.queue = q
	s.games = g
}

func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("remote_addr", r.RemoteAddr).Msg("ws_upgrade_failed")
		return
	}
	c := &Client{id: uuid.NewString(), conn: conn, send: make(chan []byte, sendBuffer)}
	s.mu.Lock()
	s.clients[c.id] = c
	s.mu.Unlock()
	metricConnectionsTotal.Add(1)
	metricConnectionsActive.Add(1)
	log.Info().Str("client_id", c.id).Str("remote_addr", r.RemoteAddr).Msg("ws_connected")

	go s.writeLoop(c)
	s.readLoop(c)
}

func (s *Server) readLoop(c *Client) {
	defer func() {
		s.unregister(c)
		_ = c.conn.Close()
	}()

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		in, err := decodeIntent(msg)
		if err != nil {
			s.sendInvalid(c, "", err)
			continue
		}
		s.handleIntent(c, in)
	}
}

func (s *Server) handleIntent(c *Client, in Intent) {
	switch in.Type {
	case IntentJoinQueue:
		if s.reserved[strings.ToLower(in.Username)] {
			s.sendInvalid(c, "", invalid("username is reserved"))
			return
		}
		if c.username != "" && c.username != in.Username {
			s.queue.Dequeue(arena.Entrant{ClientID: c.id, Username: c.username})
		}
		c.username = in.Username
		if err := s.queue.Enqueue(arena.Entrant{ClientID: c.id, Username: in.Username}); err != nil {
			s.Notify(c.id, arena.ErrorEvent("", err))
		}
	case IntentLeaveQueue:
		if c.username != "" {
			s.queue.Dequeue(arena.Entrant{ClientID: c.id, Username: c.username})
		}
	case IntentMakeMove:
		if err := s.games.ApplyPlayerMove(in.GameID, c.id, c.username, *in.Column); err != nil {
			s.Notify(c.id, arena.ErrorEvent(in.GameID, err))
		}
	case IntentRejoinGame:
		c.username = in.Username
		if err := s.games.HandleReconnect(c.id, in.Username, in.GameID); err != nil {
			s.Notify(c.id, arena.ErrorEvent(in.GameID, err))
		}
	}
}

func (s *Server) sendInvalid(c *Client, gameID string, err error) {
	metricInvalidRequests.Add(1)
	s.Notify(c.id, arena.Event{
		Name:   arena.EventError,
		GameID: gameID,
		Data:   arena.ErrorPayload{Code: codeInvalidRequest, Message: err.Error()},
	})
}

func (s *Server) writeLoop(c *Client) {
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Debug().Err(err).Str("client_id", c.id).Msg("ws_write_failed")
			_ = c.conn.Close()
			for range c.send {
			}
			return
		}
	}
}

// unregister runs on the read goroutine, so the queue entry and any
// session seat are released exactly once per connection.
func (s *Server) unregister(c *Client) {
	s.mu.Lock()
	delete(s.clients, c.id)
	s.mu.Unlock()
	safeClose(c.send)
	metricConnectionsActive.Add(-1)
	log.Info().Str("client_id", c.id).Str("username", c.username).Msg("ws_disconnected")

	if c.username == "" {
		return
	}
	s.queue.Dequeue(arena.Entrant{ClientID: c.id, Username: c.username})
	s.games.HandleDisconnect(c.id, c.username)
}

// Notify implements arena.Notifier. Frames for unknown clients are dropped,
// as are frames for clients whose buffer is full.
func (s *Server) Notify(clientID string, ev arena.Event) {
	s.mu.RLock()
	c := s.clients[clientID]
	s.mu.RUnlock()
	if c == nil {
		return
	}
	msg, err := json.Marshal(Frame{
		Event:    ev.Name,
		GameID:   ev.GameID,
		ServerTS: time.Now().UnixMilli(),
		Data:     ev.Data,
	})
	if err != nil {
		log.Error().Err(err).Str("event", ev.Name).Msg("ws_encode_failed")
		return
	}
	if !trySend(c.send, msg) {
		metricDroppedFrames.Add(1)
		log.Warn().Str("client_id", clientID).Str("event", ev.Name).Msg("ws_frame_dropped")
	}
}

// Connected reports the number of open connections.
func (s *Server) Connected() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func safeClose(ch chan []byte) {
	defer func() {
		_ = recover()
	}()
	close(ch)
}

func trySend(ch chan []byte, msg []byte) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	select {
	case ch <- msg:
		return true
	default:
		return false
	}
}
