// Package main provides the hub entry point: a front-end server that mirrors queue
// state for the players it carries.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	lobbyqv1 "github.com/osa030/lobbyq/internal/api/lobbyqv1"
	"github.com/osa030/lobbyq/internal/app/bridge"
	"github.com/osa030/lobbyq/internal/app/scoreboard"
	"github.com/osa030/lobbyq/internal/domain/queue"
	"github.com/osa030/lobbyq/internal/infra/config"
	"github.com/osa030/lobbyq/internal/infra/logger"
	"github.com/osa030/lobbyq/internal/infra/wsbridge"
)

var (
	app        = kingpin.New("lobbyq-hub", "lobbyq hub (queue state front-end)")
	configPath = app.Flag("config", "Path to hub config file (defaults if empty)").String()
	serverName = app.Flag("server", "Override this hub's server name").String()
	playerArgs = app.Flag("player", "Player name to log in on this hub (repeatable)").Short('p').Strings()
	joinDest   = app.Flag("join", "Destination every player joins after login").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	kingpin.MustParse(app.Parse(os.Args[1:]))

	loggerConfig := logger.Config{
		Output:    "stdout",
		Level:     "info",
		Component: "hub",
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
	}
	logCloser, err := logger.Init(loggerConfig)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logCloser.Close()

	cfg, err := config.LoadHub(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load hub config: %v", err)
	}
	if *serverName != "" {
		cfg.Server = *serverName
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Hub error: %v", err)
		os.Exit(1)
	}
}

// hub holds the players carried by this front-end.
type hub struct {
	mu      sync.RWMutex
	players map[uuid.UUID]string
}

func (h *hub) add(id uuid.UUID, name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.players[id] = name
}

func (h *hub) name(id uuid.UUID) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	name, ok := h.players[id]
	return name, ok
}

func (h *hub) count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.players)
}

func (h *hub) ids() []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]uuid.UUID, 0, len(h.players))
	for id := range h.players {
		ids = append(ids, id)
	}
	return ids
}

func run(cfg *config.HubConfig) error {
	h := &hub{players: make(map[uuid.UUID]string)}

	renderer := scoreboard.NewRenderer(cfg.Scoreboard.Title, cfg.Scoreboard.QueueLines, cfg.Scoreboard.NormalLines)
	onUpdate := func(id uuid.UUID, snap queue.Snapshot) {
		name, ok := h.name(id)
		if !ok {
			return
		}
		if !cfg.Scoreboard.IsEnabled() {
			zlog.Debug().Msgf("Queue state: player=%s in_queue=%t server=%s position=%d total=%d",
				name, snap.InQueue, snap.Destination, snap.Position, snap.Total)
			return
		}
		zlog.Info().Msgf("Scoreboard: %s", renderer.Render(name, h.count(), snap))
	}

	// Bridge client and syncer
	var syncer *bridge.Syncer
	client, err := wsbridge.NewClient(wsbridge.ClientConfig{
		URL:               cfg.Proxy.BridgeURL,
		Server:            cfg.Server,
		ReconnectInterval: cfg.Sync.ReconnectInterval(),
	}, func(frame []byte) {
		syncer.HandleFrame(frame)
	})
	if err != nil {
		return errors.Wrap(err, "failed to create bridge client")
	}
	syncer = bridge.NewSyncer(client, bridge.SyncerConfig{
		Channel:         cfg.Sync.Channel,
		RefreshInterval: cfg.Sync.RefreshInterval(),
		OnUpdate:        onUpdate,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Run(ctx)
	go syncer.Run(ctx)

	zlog.Info().Msgf("Starting hub: server=%s bridge=%s api=%s", cfg.Server, cfg.Proxy.BridgeURL, cfg.Proxy.APIURL)

	playerClient := lobbyqv1.NewPlayerServiceClient(http.DefaultClient, cfg.Proxy.APIURL)
	queueClient := lobbyqv1.NewQueueServiceClient(http.DefaultClient, cfg.Proxy.APIURL)

	for _, name := range *playerArgs {
		resp, err := playerClient.Login(ctx, connect.NewRequest(&lobbyqv1.LoginRequest{
			Name:   name,
			Server: cfg.Server,
		}))
		if err != nil {
			return errors.Wrapf(err, "failed to log in player %s", name)
		}
		id, err := uuid.Parse(resp.Msg.PlayerID)
		if err != nil {
			return errors.Wrapf(err, "proxy returned invalid player id %q", resp.Msg.PlayerID)
		}
		h.add(id, name)
		syncer.Track(id)
		zlog.Info().Msgf("Player logged in: name=%s id=%s", name, id)

		if *joinDest != "" {
			joinResp, err := queueClient.Join(ctx, connect.NewRequest(&lobbyqv1.JoinRequest{
				PlayerID:    id.String(),
				Destination: *joinDest,
			}))
			if err != nil {
				zlog.Warn().Msgf("Join failed: player=%s error=%v", name, err)
				continue
			}
			zlog.Info().Msgf("Join: player=%s code=%s message=%s", name, joinResp.Msg.Code, joinResp.Msg.Message)
		}
	}

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	zlog.Info().Msg("Received shutdown signal...")

	logoutCtx, logoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer logoutCancel()
	for _, id := range h.ids() {
		syncer.Untrack(id)
		if _, err := playerClient.Logout(logoutCtx, connect.NewRequest(&lobbyqv1.LogoutRequest{PlayerID: id.String()})); err != nil {
			zlog.Warn().Msgf("Logout failed: player=%s error=%v", id, err)
		}
	}

	cancel()
	zlog.Info().Msg("Hub stopped")
	return nil
}
