package game

import (
	"context"

	"github.com/saad-deshmukh/typing-test-website/internal/models"
)

// Event names delivered to clients.
const (
	EventUpdateRoom    = "updateRoom"
	EventStartGame     = "startGame"
	EventSyncState     = "syncState"
	EventProgress      = "progressUpdate"
	EventBulkProgress  = "bulkProgressUpdate"
	EventEndGame       = "endGame"
	EventRoomDestroyed = "roomDestroyed"
)

// Teardown reasons carried by roomDestroyed.
const (
	ReasonHostCancelled    = "Host cancelled the game."
	ReasonHostDisconnected = "Host disconnected. Room closed."
	ReasonHostLeft         = "Host left the game. Room closed."
	ReasonRoomExpired      = "Room expired."
)

type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Store is the persistence gateway. The coordinator mirrors its in-memory
// state into the store; store failures during multi-step effects are logged
// and never block a state transition.
type Store interface {
	CreateGame(ctx context.Context, game *models.Game) error
	UpdateGame(ctx context.Context, game *models.Game) error
	DeleteGame(ctx context.Context, gameID uint) error

	CreatePlayer(ctx context.Context, player *models.Player) error
	UpdatePlayer(ctx context.Context, player *models.Player) error
	DeletePlayer(ctx context.Context, playerID string) error
	DeletePlayersByGame(ctx context.Context, gameID uint) error

	CreateGameStats(ctx context.Context, stats *models.GameStats) error
}

// Publisher is the event channel: a per-participant addressable publish
// mechanism plus per-room broadcast groups. All sends are fire-and-forget.
type Publisher interface {
	Broadcast(roomToken string, event Event)
	BroadcastExcept(roomToken string, exceptPlayerID string, event Event)
	Send(playerID string, event Event)
}

// TextPicker returns the next text to type, chosen from a fixed corpus.
type TextPicker func() string
