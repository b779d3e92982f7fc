// Package main provides the queue CLI entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"

	apiconnect "github.com/osa030/lobbyq/internal/api/connect"
	lobbyqv1 "github.com/osa030/lobbyq/internal/api/lobbyqv1"
)

var (
	app    = kingpin.New("lobbyq-queuecli", "lobbyq queue client")
	server = app.Flag("server", "Proxy API address").Default("http://localhost:8080").String()
	token  = app.Flag("token", "Admin token (or set ADMIN_TOKEN env)").Envar("ADMIN_TOKEN").String()

	// login command
	loginCmd    = app.Command("login", "Register a player as connected")
	loginName   = loginCmd.Arg("name", "Player name").Required().String()
	loginServer = loginCmd.Flag("on", "Server currently carrying the player").String()
	loginID     = loginCmd.Flag("id", "Player ID (UUID, generated if empty)").String()

	// logout command
	logoutCmd    = app.Command("logout", "Report a player disconnect")
	logoutPlayer = logoutCmd.Arg("player-id", "Player ID (UUID)").Required().String()

	// join command
	joinCmd         = app.Command("join", "Join the queue for a destination")
	joinPlayer      = joinCmd.Arg("player-id", "Player ID (UUID)").Required().String()
	joinDestination = joinCmd.Arg("destination", "Destination name").Required().String()

	// leave command
	leaveCmd    = app.Command("leave", "Leave the current queue")
	leavePlayer = leaveCmd.Arg("player-id", "Player ID (UUID)").Required().String()

	// position command
	positionCmd    = app.Command("position", "Show a player's queue position")
	positionPlayer = positionCmd.Arg("player-id", "Player ID (UUID)").Required().String()

	// status command
	statusCmd = app.Command("status", "Show every destination's queue (admin)")

	// destinations command
	destinationsCmd = app.Command("destinations", "List destination names (admin)").Alias("list")

	// pause command
	pauseCmd         = app.Command("pause", "Pause admissions for a destination (admin)")
	pauseDestination = pauseCmd.Arg("destination", "Destination name").Required().String()

	// unpause command
	unpauseCmd         = app.Command("unpause", "Resume admissions for a destination (admin)").Alias("resume")
	unpauseDestination = unpauseCmd.Arg("destination", "Destination name").Required().String()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	// Parse command
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	ctx := context.Background()
	queue := lobbyqv1.NewQueueServiceClient(http.DefaultClient, *server)
	players := lobbyqv1.NewPlayerServiceClient(http.DefaultClient, *server)

	// Execute command
	switch command {
	case loginCmd.FullCommand():
		login(ctx, players, *loginID, *loginName, *loginServer)
	case logoutCmd.FullCommand():
		logout(ctx, players, *logoutPlayer)
	case joinCmd.FullCommand():
		join(ctx, queue, *joinPlayer, *joinDestination)
	case leaveCmd.FullCommand():
		leave(ctx, queue, *leavePlayer)
	case positionCmd.FullCommand():
		position(ctx, queue, *positionPlayer)
	case statusCmd.FullCommand():
		status(ctx, adminClient())
	case destinationsCmd.FullCommand():
		destinations(ctx, adminClient())
	case pauseCmd.FullCommand():
		pause(ctx, adminClient(), *pauseDestination)
	case unpauseCmd.FullCommand():
		unpause(ctx, adminClient(), *unpauseDestination)
	}
}

// adminClient creates an admin client, exiting if no token is configured.
func adminClient() *lobbyqv1.AdminServiceClient {
	if *token == "" {
		fmt.Println("Error: admin token is required (use --token or ADMIN_TOKEN env)")
		os.Exit(1)
	}
	return lobbyqv1.NewAdminServiceClient(
		http.DefaultClient,
		*server,
		connect.WithInterceptors(apiconnect.WithAdminToken(*token)),
	)
}

func fail(err error) {
	fmt.Printf("Error: %v\n", err)
	os.Exit(1)
}

func login(ctx context.Context, client *lobbyqv1.PlayerServiceClient, id, name, on string) {
	resp, err := client.Login(ctx, connect.NewRequest(&lobbyqv1.LoginRequest{
		PlayerID: id,
		Name:     name,
		Server:   on,
	}))
	if err != nil {
		fail(err)
	}

	fmt.Printf("Logged in! Player ID: %s\n", resp.Msg.PlayerID)
}

func logout(ctx context.Context, client *lobbyqv1.PlayerServiceClient, playerID string) {
	resp, err := client.Logout(ctx, connect.NewRequest(&lobbyqv1.LogoutRequest{PlayerID: playerID}))
	if err != nil {
		fail(err)
	}

	if resp.Msg.WasQueued {
		fmt.Println("Logged out (removed from queue)")
	} else {
		fmt.Println("Logged out")
	}
}

func join(ctx context.Context, client *lobbyqv1.QueueServiceClient, playerID, dest string) {
	resp, err := client.Join(ctx, connect.NewRequest(&lobbyqv1.JoinRequest{
		PlayerID:    playerID,
		Destination: dest,
	}))
	if err != nil {
		fail(err)
	}

	if resp.Msg.Success {
		fmt.Printf("Success: %s\n", resp.Msg.Message)
	} else {
		fmt.Printf("Rejected [%s]: %s\n", resp.Msg.Code, resp.Msg.Message)
	}
}

func leave(ctx context.Context, client *lobbyqv1.QueueServiceClient, playerID string) {
	resp, err := client.Leave(ctx, connect.NewRequest(&lobbyqv1.LeaveRequest{PlayerID: playerID}))
	if err != nil {
		fail(err)
	}

	if resp.Msg.Success {
		fmt.Printf("Success: %s\n", resp.Msg.Message)
	} else {
		fmt.Printf("Rejected [%s]: %s\n", resp.Msg.Code, resp.Msg.Message)
	}
}

func position(ctx context.Context, client *lobbyqv1.QueueServiceClient, playerID string) {
	resp, err := client.Position(ctx, connect.NewRequest(&lobbyqv1.PositionRequest{PlayerID: playerID}))
	if err != nil {
		fail(err)
	}

	fmt.Println(resp.Msg.Message)
}

func status(ctx context.Context, client *lobbyqv1.AdminServiceClient) {
	resp, err := client.Status(ctx, connect.NewRequest(&lobbyqv1.StatusRequest{}))
	if err != nil {
		fail(err)
	}

	s := resp.Msg
	fmt.Println("\n=== QUEUE STATUS ===")
	fmt.Printf("Online Players: %d\n", s.OnlinePlayers)
	if len(s.BridgeServers) > 0 {
		fmt.Printf("Bridge Servers: %s\n", strings.Join(s.BridgeServers, ", "))
	} else {
		fmt.Println("Bridge Servers: none")
	}

	fmt.Println("\nDestinations:")
	for _, d := range s.Destinations {
		state := "open"
		if d.Paused {
			state = "paused"
		}
		fmt.Printf("  %-16s %-22s %-6s queued=%d", d.Name, d.Address, state, d.Size)
		if d.InFlight != "" {
			fmt.Printf(" connecting=%s", d.InFlight)
		}
		fmt.Println()
	}
	fmt.Println()
}

func destinations(ctx context.Context, client *lobbyqv1.AdminServiceClient) {
	resp, err := client.Status(ctx, connect.NewRequest(&lobbyqv1.StatusRequest{}))
	if err != nil {
		fail(err)
	}

	for _, d := range resp.Msg.Destinations {
		fmt.Println(d.Name)
	}
}

func pause(ctx context.Context, client *lobbyqv1.AdminServiceClient, dest string) {
	resp, err := client.Pause(ctx, connect.NewRequest(&lobbyqv1.PauseRequest{Destination: dest}))
	if err != nil {
		fail(err)
	}

	if resp.Msg.Success {
		fmt.Println(resp.Msg.Message)
	} else {
		fmt.Printf("Failed [%s]: %s\n", resp.Msg.Code, resp.Msg.Message)
	}
}

func unpause(ctx context.Context, client *lobbyqv1.AdminServiceClient, dest string) {
	resp, err := client.Unpause(ctx, connect.NewRequest(&lobbyqv1.PauseRequest{Destination: dest}))
	if err != nil {
		fail(err)
	}

	if resp.Msg.Success {
		fmt.Println(resp.Msg.Message)
	} else {
		fmt.Printf("Failed [%s]: %s\n", resp.Msg.Code, resp.Msg.Message)
	}
}
