package wsbridge

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 2 * time.Second
	tick    = 10 * time.Millisecond
)

type frameLog struct {
	mu     sync.Mutex
	frames []string
}

func (l *frameLog) add(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.frames = append(l.frames, s)
}

func (l *frameLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.frames...)
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/bridge"
}

func startServer(t *testing.T, handler FrameHandler) (*Server, *httptest.Server) {
	t.Helper()
	s := NewServer(handler, time.Second)
	mux := http.NewServeMux()
	mux.Handle("/bridge", s)
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		s.Close()
		srv.Close()
	})
	return s, srv
}

func TestBridge_ClientServerExchange(t *testing.T) {
	inbound := &frameLog{}
	s, srv := startServer(t, func(server string, frame []byte) {
		inbound.add(server + ":" + string(frame))
	})

	outbound := &frameLog{}
	c, err := NewClient(ClientConfig{URL: wsURL(srv), Server: "hub-1", ReconnectInterval: 20 * time.Millisecond},
		func(frame []byte) { outbound.add(string(frame)) })
	require.NoError(t, err)

	assert.True(t, errors.Is(c.Send([]byte("early")), ErrNotConnected))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	require.Eventually(t, func() bool {
		return c.Connected() && len(s.Connected()) == 1
	}, waitFor, tick)
	assert.Equal(t, []string{"hub-1"}, s.Connected())

	require.NoError(t, c.Send([]byte("ping")))
	require.Eventually(t, func() bool { return len(inbound.all()) == 1 }, waitFor, tick)
	assert.Equal(t, []string{"hub-1:ping"}, inbound.all())

	require.NoError(t, s.SendTo("hub-1", []byte("pong")))
	require.Eventually(t, func() bool { return len(outbound.all()) == 1 }, waitFor, tick)
	assert.Equal(t, []string{"pong"}, outbound.all())

	err = s.SendTo("hub-2", []byte("pong"))
	assert.True(t, errors.Is(err, ErrNotConnected))
}

func TestBridge_ClientReconnects(t *testing.T) {
	s, srv := startServer(t, nil)

	c, err := NewClient(ClientConfig{URL: wsURL(srv), Server: "hub-1", ReconnectInterval: 20 * time.Millisecond}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	require.Eventually(t, func() bool { return len(s.Connected()) == 1 }, waitFor, tick)

	s.Close()
	require.Eventually(t, func() bool { return len(s.Connected()) == 1 }, waitFor, tick)
	require.Eventually(t, c.Connected, waitFor, tick)
	assert.NoError(t, s.SendTo("hub-1", []byte("again")))
}

func TestServer_SecondConnectionReplacesFirst(t *testing.T) {
	s, srv := startServer(t, nil)

	first, _, err := websocket.DefaultDialer.Dial(wsURL(srv)+"?server=hub-1", nil)
	require.NoError(t, err)
	defer first.Close()
	require.Eventually(t, func() bool { return len(s.Connected()) == 1 }, waitFor, tick)

	second, _, err := websocket.DefaultDialer.Dial(wsURL(srv)+"?server=hub-1", nil)
	require.NoError(t, err)
	defer second.Close()

	// The first connection is closed by the server.
	_ = first.SetReadDeadline(time.Now().Add(waitFor))
	_, _, err = first.ReadMessage()
	require.Error(t, err)

	require.NoError(t, s.SendTo("hub-1", []byte("latest")))
	_ = second.SetReadDeadline(time.Now().Add(waitFor))
	mt, data, err := second.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, mt)
	assert.Equal(t, "latest", string(data))
	assert.Equal(t, []string{"hub-1"}, s.Connected())
}

func TestServer_RequiresServerName(t *testing.T) {
	_, srv := startServer(t, nil)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestNewClient_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  ClientConfig
	}{
		{"missing server", ClientConfig{URL: "ws://localhost:8080/bridge"}},
		{"http scheme", ClientConfig{URL: "http://localhost:8080/bridge", Server: "hub-1"}},
		{"bad url", ClientConfig{URL: "://", Server: "hub-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.cfg, nil)
			assert.Error(t, err)
		})
	}

	c, err := NewClient(ClientConfig{URL: "ws://localhost:8080/bridge", Server: "hub 1"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8080/bridge?server=hub+1", c.config.URL)
	assert.Equal(t, DefaultReconnectInterval, c.config.ReconnectInterval)
}
