// Package wsbridge carries bridge frames between the proxy and hub servers over websockets.
package wsbridge

import (
	"net/http"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gorilla/websocket"
	zlog "github.com/rs/zerolog/log"
)

// DefaultWriteTimeout bounds a single frame write.
const DefaultWriteTimeout = 2 * time.Second

// ServerQueryParam names the query parameter a hub identifies itself with.
const ServerQueryParam = "server"

var (
	ErrNotConnected = errors.New("server not connected")
	ErrClosed       = errors.New("connection closed")
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// FrameHandler receives every binary frame read from a hub.
type FrameHandler func(server string, frame []byte)

// peer is one hub connection. Writes are serialized by mu.
type peer struct {
	server string
	conn   *websocket.Conn
	mu     sync.Mutex
	closed bool
}

func (p *peer) write(frame []byte, timeout time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	if err := p.conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
		return errors.Wrap(err, "set write deadline")
	}
	return p.conn.WriteMessage(websocket.BinaryMessage, frame)
}

func (p *peer) close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true
	_ = p.conn.Close()
}

// Server accepts hub connections and routes frames to them by server name.
type Server struct {
	handler      FrameHandler
	writeTimeout time.Duration

	mu    sync.RWMutex
	peers map[string]*peer
}

// NewServer creates a websocket bridge server.
func NewServer(handler FrameHandler, writeTimeout time.Duration) *Server {
	if writeTimeout <= 0 {
		writeTimeout = DefaultWriteTimeout
	}
	return &Server{
		handler:      handler,
		writeTimeout: writeTimeout,
		peers:        make(map[string]*peer),
	}
}

// ServeHTTP upgrades the request and runs the read loop until the hub disconnects.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	server := r.URL.Query().Get(ServerQueryParam)
	if server == "" {
		http.Error(w, "missing server parameter", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zlog.Warn().Msgf("bridge upgrade failed: server=%s err=%v", server, err)
		return
	}

	p := &peer{server: server, conn: conn}
	s.register(p)
	defer s.unregister(p)

	zlog.Info().Msgf("bridge connected: server=%s remote=%s", server, r.RemoteAddr)
	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				zlog.Warn().Msgf("bridge read failed: server=%s err=%v", server, err)
			}
			return
		}
		if messageType != websocket.BinaryMessage {
			continue
		}
		s.dispatch(server, data)
	}
}

func (s *Server) dispatch(server string, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			zlog.Error().Msgf("bridge handler panicked: server=%s err=%v", server, r)
		}
	}()
	if s.handler != nil {
		s.handler(server, data)
	}
}

// register stores p, replacing and closing any previous connection for the same server.
func (s *Server) register(p *peer) {
	s.mu.Lock()
	old := s.peers[p.server]
	s.peers[p.server] = p
	s.mu.Unlock()

	if old != nil {
		zlog.Info().Msgf("bridge connection replaced: server=%s", p.server)
		old.close()
	}
}

func (s *Server) unregister(p *peer) {
	s.mu.Lock()
	if s.peers[p.server] == p {
		delete(s.peers, p.server)
	}
	s.mu.Unlock()

	p.close()
	zlog.Info().Msgf("bridge disconnected: server=%s", p.server)
}

// SendTo writes a frame to the named server's connection.
func (s *Server) SendTo(server string, frame []byte) error {
	s.mu.RLock()
	p, ok := s.peers[server]
	s.mu.RUnlock()
	if !ok {
		return errors.Wrapf(ErrNotConnected, "server %q", server)
	}

	if err := p.write(frame, s.writeTimeout); err != nil {
		return errors.Wrapf(err, "send to %q", server)
	}
	return nil
}

// Connected returns the names of connected servers.
func (s *Server) Connected() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]string, 0, len(s.peers))
	for name := range s.peers {
		result = append(result, name)
	}
	return result
}

// Close disconnects every hub.
func (s *Server) Close() {
	s.mu.Lock()
	peers := s.peers
	s.peers = make(map[string]*peer)
	s.mu.Unlock()

	for _, p := range peers {
		p.close()
	}
}
