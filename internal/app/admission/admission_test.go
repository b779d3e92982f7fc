package admission

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/lobbyq/internal/domain/destination"
)

func TestFuture_ResolveOnce(t *testing.T) {
	f := NewFuture()
	_, resolved := f.Outcome()
	assert.False(t, resolved)

	assert.True(t, f.Resolve(Succeeded()))
	assert.False(t, f.Resolve(Failed(errors.New("late"))))

	o, resolved := f.Outcome()
	assert.True(t, resolved)
	assert.True(t, o.Connected)
	assert.NoError(t, o.Err)
}

func TestFuture_OnComplete(t *testing.T) {
	f := NewFuture()
	got := make(chan Outcome, 2)
	f.OnComplete(func(o Outcome) { got <- o })

	f.Resolve(Failed(ErrPlayerOffline))
	select {
	case o := <-got:
		assert.False(t, o.Connected)
		assert.True(t, errors.Is(o.Err, ErrPlayerOffline))
	case <-time.After(time.Second):
		t.Fatal("continuation not called")
	}

	// Registration after resolution still fires.
	f.OnComplete(func(o Outcome) { got <- o })
	select {
	case <-got:
	case <-time.After(time.Second):
		t.Fatal("late continuation not called")
	}
}

func TestFuture_Wait(t *testing.T) {
	f := NewFuture()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := f.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	o, err := Resolved(Succeeded()).Wait(context.Background())
	require.NoError(t, err)
	assert.True(t, o.Connected)
}

func TestNewProberFromConfig(t *testing.T) {
	tests := []struct {
		name       string
		proberType string
		settings   map[string]any
		wantName   string
		wantErr    bool
	}{
		{name: "default is tcp", proberType: "", wantName: "tcp"},
		{name: "tcp with timeout", proberType: "tcp", settings: map[string]any{"dial_timeout_ms": 500}, wantName: "tcp"},
		{name: "tcp timeout too large", proberType: "tcp", settings: map[string]any{"dial_timeout_ms": 120000}, wantErr: true},
		{name: "http defaults", proberType: "http", wantName: "http"},
		{name: "http invalid scheme", proberType: "http", settings: map[string]any{"scheme": "ftp"}, wantErr: true},
		{name: "http invalid status", proberType: "http", settings: map[string]any{"expected_status": 42}, wantErr: true},
		{name: "none", proberType: "none", wantName: "none"},
		{name: "unknown", proberType: "carrier-pigeon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProberFromConfig(tt.proberType, tt.settings)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, p.Name())
		})
	}
}

func TestTCPProber_Probe(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	p, err := NewTCPProber(map[string]any{"dial_timeout_ms": 500})
	require.NoError(t, err)

	ctx := context.Background()
	assert.NoError(t, p.Probe(ctx, destination.Destination{Name: "lobby", Address: ln.Addr().String()}))

	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	assert.Error(t, p.Probe(ctx, destination.Destination{Name: "lobby", Address: addr}))
	assert.Error(t, p.Probe(ctx, destination.Destination{Name: "empty"}))
}

func TestHTTPProber_Probe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/healthz":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer server.Close()

	ok, err := NewHTTPProber(nil)
	require.NoError(t, err)
	hostPort := strings.TrimPrefix(server.URL, "http://")
	assert.NoError(t, ok.Probe(context.Background(), destination.Destination{Name: "lobby", Address: hostPort}))
	assert.NoError(t, ok.Probe(context.Background(), destination.Destination{Name: "lobby", Address: server.URL + "/"}))

	bad, err := NewHTTPProber(map[string]any{"path": "down"})
	require.NoError(t, err)
	assert.Error(t, bad.Probe(context.Background(), destination.Destination{Name: "lobby", Address: server.URL}))
}

type fakePlayers struct {
	mu      sync.Mutex
	online  map[uuid.UUID]bool
	servers map[uuid.UUID]string
}

func newFakePlayers(ids ...uuid.UUID) *fakePlayers {
	p := &fakePlayers{online: map[uuid.UUID]bool{}, servers: map[uuid.UUID]string{}}
	for _, id := range ids {
		p.online[id] = true
	}
	return p
}

func (p *fakePlayers) IsOnline(id uuid.UUID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.online[id]
}

func (p *fakePlayers) SwitchServer(id uuid.UUID, server string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.servers[id] = server
	return nil
}

func (p *fakePlayers) server(id uuid.UUID) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.servers[id]
}

type failingProber struct{}

func (failingProber) Probe(context.Context, destination.Destination) error {
	return errors.New("destination down")
}

func (failingProber) Name() string { return "failing" }

func TestConnector_Connect(t *testing.T) {
	online := uuid.New()
	offline := uuid.New()
	players := newFakePlayers(online)
	dest := destination.Destination{Name: "arena", Address: "unused"}
	ctx := context.Background()

	t.Run("success switches server", func(t *testing.T) {
		o, err := NewConnector(NoopProber{}, players, time.Second).Connect(online, dest, nil).Wait(ctx)
		require.NoError(t, err)
		assert.True(t, o.Connected)
		assert.Equal(t, "arena", players.server(online))
	})

	t.Run("offline player fails", func(t *testing.T) {
		o, err := NewConnector(NoopProber{}, players, time.Second).Connect(offline, dest, nil).Wait(ctx)
		require.NoError(t, err)
		assert.False(t, o.Connected)
		assert.True(t, errors.Is(o.Err, ErrPlayerOffline))
	})

	t.Run("player no longer queued is not transferred", func(t *testing.T) {
		mover := uuid.New()
		players := newFakePlayers(mover)
		o, err := NewConnector(NoopProber{}, players, time.Second).Connect(mover, dest, func() bool { return false }).Wait(ctx)
		require.NoError(t, err)
		assert.False(t, o.Connected)
		assert.True(t, errors.Is(o.Err, ErrNoLongerQueued))
		assert.Empty(t, players.server(mover))
	})

	t.Run("guard passing transfers", func(t *testing.T) {
		stayer := uuid.New()
		players := newFakePlayers(stayer)
		o, err := NewConnector(NoopProber{}, players, time.Second).Connect(stayer, dest, func() bool { return true }).Wait(ctx)
		require.NoError(t, err)
		assert.True(t, o.Connected)
		assert.Equal(t, "arena", players.server(stayer))
	})

	t.Run("probe failure", func(t *testing.T) {
		o, err := NewConnector(failingProber{}, players, 0).Connect(online, dest, nil).Wait(ctx)
		require.NoError(t, err)
		assert.False(t, o.Connected)
		assert.Error(t, o.Err)
	})
}
