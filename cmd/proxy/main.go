// Package main provides the proxy entry point: queue coordinator, bridge back-end and RPC surface.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	apiconnect "github.com/osa030/lobbyq/internal/api/connect"
	lobbyqv1 "github.com/osa030/lobbyq/internal/api/lobbyqv1"
	"github.com/osa030/lobbyq/internal/app/admission"
	"github.com/osa030/lobbyq/internal/app/bridge"
	"github.com/osa030/lobbyq/internal/app/coordinator"
	"github.com/osa030/lobbyq/internal/app/notification"
	"github.com/osa030/lobbyq/internal/app/presence"
	"github.com/osa030/lobbyq/internal/domain/destination"
	"github.com/osa030/lobbyq/internal/infra/config"
	"github.com/osa030/lobbyq/internal/infra/logger"
	"github.com/osa030/lobbyq/internal/infra/wsbridge"
)

var (
	app        = kingpin.New("lobbyq-proxy", "lobbyq queue proxy")
	configPath = app.Flag("config", "Path to config file").Default("config/proxy.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()

	// list-destinations command
	listDestinationsCmd = app.Command("list-destinations", "List configured destinations and exit")
)

func init() {
	// start command (default) - no need to store the command
	app.Command("start", "Start the proxy (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	// Parse command
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	// Initialize logger
	loggerConfig := logger.Config{
		Output:    "stdout",
		Level:     "info",
		Component: "proxy",
	}
	// Override with command-line flags if specified
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

	// Load config
	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if command == listDestinationsCmd.FullCommand() {
		printDestinations(cfg)
		return
	}

	// Run proxy (defer ensures shutdown hook is called)
	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Proxy error: %v", err)
		os.Exit(1)
	}
}

// run executes the main proxy logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	registry, err := destination.NewRegistry(cfg.DestinationList())
	if err != nil {
		return errors.Wrap(err, "failed to build destination registry")
	}

	prober, err := admission.NewProberFromConfig(cfg.Probe.Type, cfg.Probe.Settings)
	if err != nil {
		return errors.Wrap(err, "invalid probe config")
	}
	zlog.Info().Msgf("Destination probe: type=%s", prober.Name())

	// Players and change fan-out
	players := presence.NewRegistry()
	changes := notification.NewManager()
	defer changes.Close()

	coord, err := coordinator.New(coordinator.Config{
		SweepInterval: cfg.Queue.SweepInterval(),
	}, coordinator.Deps{
		Registry:  registry,
		Players:   players,
		Connector: admission.NewConnector(prober, players, cfg.Queue.ConnectTimeout()),
		Notifier:  presence.NewNotifier(players, cfg.Messages.Admitted),
		Changes:   changes,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create coordinator")
	}

	// Bridge back-end over websockets
	var backend *bridge.Backend
	bridgeServer := wsbridge.NewServer(func(server string, frame []byte) {
		backend.HandleFrame(server, frame)
	}, cfg.Bridge.WriteTimeout())
	backend = bridge.NewBackend(cfg.Bridge.Channel, coord, players, bridgeServer)
	changes.Subscribe(backend)

	// Create RPC services
	queueService := apiconnect.NewQueueService(coord, players, cfg)
	playerService := apiconnect.NewPlayerService(coord, players)
	adminService := apiconnect.NewAdminService(coord, registry, players, bridgeServer, cfg)

	// Create HTTP mux
	mux := http.NewServeMux()

	// Register services
	queuePath, queueHandler := lobbyqv1.NewQueueServiceHandler(queueService)
	playerPath, playerHandler := lobbyqv1.NewPlayerServiceHandler(playerService)

	// Create admin auth interceptor
	adminAuthInterceptor := apiconnect.NewAdminAuthInterceptor(cfg)
	adminPath, adminHandler := lobbyqv1.NewAdminServiceHandler(
		adminService,
		connect.WithInterceptors(adminAuthInterceptor),
	)

	mux.Handle(queuePath, queueHandler)
	mux.Handle(playerPath, playerHandler)
	mux.Handle(adminPath, adminHandler)
	mux.Handle(cfg.Bridge.Path, bridgeServer)

	// Determine server address
	serverAddr := cfg.Server.Addr
	// Create server with h2c (HTTP/2 cleartext) support
	server := &http.Server{
		Addr:    serverAddr,
		Handler: h2c.NewHandler(mux, &http2.Server{}),
	}

	// Channel to capture server startup errors
	serverErrCh := make(chan error, 1)
	serverStartedCh := make(chan struct{})

	// Start admission loop
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go coord.Run(ctx)

	// Start server
	go func() {
		zlog.Info().Msgf("Starting proxy: addr=%s bridge=%s destinations=%v", serverAddr, cfg.Bridge.Path, registry.Names())
		// Signal that we're about to start listening
		close(serverStartedCh)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()

	// Wait for server to start listening
	<-serverStartedCh
	// Give the server a moment to fully initialize
	time.Sleep(100 * time.Millisecond)

	// Execute startup hook if configured (after server is running)
	executeHooks(cfg.Server.Hooks.OnStarted, "on_started")

	// Wait for shutdown signal or server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
	case err := <-serverErrCh:
		return errors.Wrap(err, "server error")
	}

	// Graceful shutdown
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Close bridge connections first so hub read loops end
	bridgeServer.Close()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}

	zlog.Info().Msg("Proxy stopped")

	// Execute shutdown hook if configured
	executeHooks(cfg.Server.Hooks.OnStopped, "on_stopped")

	return nil
}

// printDestinations prints configured destinations.
func printDestinations(cfg *config.Config) {
	fmt.Println("Destinations:")
	for _, d := range cfg.Destinations {
		fmt.Printf("  %-20s %s\n", d.Name, d.Address)
	}
}

// executeHooks runs a list of shell commands.
func executeHooks(hooks []string, stage string) {
	if len(hooks) == 0 {
		return
	}

	zlog.Info().Msgf("Executing %s hooks (%d commands)", stage, len(hooks))

	for _, hook := range hooks {
		zlog.Info().Msgf("Executing hook: %s", hook)
		// Use sh -c to allow shell features like redirection or pipes
		cmd := exec.Command("sh", "-c", hook)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			zlog.Error().Err(err).Msgf("Failed to execute hook: %s", hook)
		}
	}
}
