package wsbridge

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gorilla/websocket"
	zlog "github.com/rs/zerolog/log"
)

// DefaultReconnectInterval is the wait between dial attempts.
const DefaultReconnectInterval = 2 * time.Second

// ClientConfig holds hub-side connection settings.
type ClientConfig struct {
	URL               string // ws://host:port/bridge
	Server            string // This hub's server name
	ReconnectInterval time.Duration
	WriteTimeout      time.Duration
}

// Client is the hub side of the bridge transport. It keeps one connection to the proxy
// and reconnects when it drops.
type Client struct {
	config  ClientConfig
	handler func(frame []byte)
	dialer  *websocket.Dialer

	mu   sync.Mutex
	peer *peer
}

// NewClient creates a client. handler receives every binary frame from the proxy.
func NewClient(cfg ClientConfig, handler func(frame []byte)) (*Client, error) {
	if cfg.Server == "" {
		return nil, errors.New("server name is required")
	}
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid bridge url %q", cfg.URL)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, errors.Newf("unsupported bridge url scheme %q", u.Scheme)
	}
	q := u.Query()
	q.Set(ServerQueryParam, cfg.Server)
	u.RawQuery = q.Encode()
	cfg.URL = u.String()

	if cfg.ReconnectInterval <= 0 {
		cfg.ReconnectInterval = DefaultReconnectInterval
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}

	return &Client{
		config:  cfg,
		handler: handler,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 5 * time.Second,
		},
	}, nil
}

// Run connects and reads frames until ctx is done, reconnecting after failures.
func (c *Client) Run(ctx context.Context) {
	for {
		if err := c.session(ctx); err != nil && ctx.Err() == nil {
			zlog.Warn().Msgf("bridge connection lost: url=%s err=%v", c.config.URL, err)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.config.ReconnectInterval):
		}
	}
}

// session dials once and runs the read loop until the connection fails or ctx is done.
func (c *Client) session(ctx context.Context) error {
	conn, _, err := c.dialer.DialContext(ctx, c.config.URL, nil)
	if err != nil {
		return errors.Wrap(err, "dial")
	}

	p := &peer{server: c.config.Server, conn: conn}
	c.mu.Lock()
	c.peer = p
	c.mu.Unlock()
	zlog.Info().Msgf("bridge connected: url=%s", c.config.URL)

	defer func() {
		c.mu.Lock()
		if c.peer == p {
			c.peer = nil
		}
		c.mu.Unlock()
		p.close()
	}()

	stop := context.AfterFunc(ctx, p.close)
	defer stop()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			return errors.Wrap(err, "read")
		}
		if messageType != websocket.BinaryMessage || c.handler == nil {
			continue
		}
		c.dispatch(data)
	}
}

func (c *Client) dispatch(data []byte) {
	defer func() {
		if r := recover(); r != nil {
			zlog.Error().Msgf("bridge handler panicked: err=%v", r)
		}
	}()
	c.handler(data)
}

// Send writes a frame to the proxy. Returns ErrNotConnected while disconnected.
func (c *Client) Send(frame []byte) error {
	c.mu.Lock()
	p := c.peer
	c.mu.Unlock()
	if p == nil {
		return ErrNotConnected
	}
	return p.write(frame, c.config.WriteTimeout)
}

// Connected reports whether the client currently holds a connection.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.peer != nil
}
