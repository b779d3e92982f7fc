// Package scoreboard renders a player's queue snapshot into display lines for the hub.
package scoreboard

import (
	"strconv"
	"strings"

	"github.com/osa030/lobbyq/internal/domain/queue"
)

// Placeholders understood by Render.
const (
	PlaceholderPlayer        = "%player%"
	PlaceholderOnline        = "%online%"
	PlaceholderQueuePosition = "%queue_position%"
	PlaceholderQueueTotal    = "%queue_total%"
	PlaceholderQueueServer   = "%queue_server%"
	PlaceholderQueueInQueue  = "%queue_in_queue%"
)

// Board is a rendered scoreboard.
type Board struct {
	Title string
	Lines []string
}

// String joins the board into a single log-friendly line.
func (b Board) String() string {
	return b.Title + " | " + strings.Join(b.Lines, " | ")
}

// Renderer picks queue or normal lines depending on the snapshot and fills placeholders.
type Renderer struct {
	title       string
	queueLines  []string
	normalLines []string
}

// NewRenderer creates a renderer.
func NewRenderer(title string, queueLines, normalLines []string) *Renderer {
	return &Renderer{
		title:       title,
		queueLines:  append([]string(nil), queueLines...),
		normalLines: append([]string(nil), normalLines...),
	}
}

// Render builds the board for a player.
func (r *Renderer) Render(player string, online int, snap queue.Snapshot) Board {
	lines := r.normalLines
	if snap.InQueue {
		lines = r.queueLines
	}

	rep := replacer(player, online, snap)
	board := Board{
		Title: rep.Replace(r.title),
		Lines: make([]string, len(lines)),
	}
	for i, line := range lines {
		board.Lines[i] = rep.Replace(line)
	}
	return board
}

func replacer(player string, online int, snap queue.Snapshot) *strings.Replacer {
	position := "N/A"
	if snap.Position != queue.NotQueuedPosition {
		position = strconv.Itoa(snap.Position)
	}
	server := "None"
	if snap.InQueue && snap.Destination != "" {
		server = snap.Destination
	}

	return strings.NewReplacer(
		PlaceholderPlayer, player,
		PlaceholderOnline, strconv.Itoa(online),
		PlaceholderQueuePosition, position,
		PlaceholderQueueTotal, strconv.Itoa(snap.Total),
		PlaceholderQueueServer, server,
		PlaceholderQueueInQueue, strconv.FormatBool(snap.InQueue),
	)
}
