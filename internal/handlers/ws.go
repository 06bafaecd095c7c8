package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/saad-deshmukh/typing-test-website/internal/game"
	"github.com/saad-deshmukh/typing-test-website/internal/services"
	"github.com/saad-deshmukh/typing-test-website/internal/ws"
)

type WSHandler struct {
	authService      *services.AuthService
	registry         *game.Registry
	hub              *ws.Hub
	progressInterval time.Duration
}

func NewWSHandler(authService *services.AuthService, registry *game.Registry, hub *ws.Hub, progressInterval time.Duration) *WSHandler {
	return &WSHandler{
		authService:      authService,
		registry:         registry,
		hub:              hub,
		progressInterval: progressInterval,
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Command is one client message on the game socket.
type Command struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type roomRef struct {
	RoomToken string `json:"roomToken"`
}

type progressPayload struct {
	RoomToken string  `json:"roomToken"`
	Progress  float64 `json:"progress"`
	Accuracy  float64 `json:"accuracy"`
	Wpm       float64 `json:"wpm"`
	WordIndex int     `json:"wordIndex"`
}

type finishedPayload struct {
	RoomToken string          `json:"roomToken"`
	Stats     game.FinalStats `json:"stats"`
}

// HandleGameSocket godoc
// @Summary      Multiplayer game websocket
// @Description  Authenticated command stream: subscribeToRoom, requestStartGame, cancelGame, playerProgress, playerFinished
// @Tags         websocket
// @Param        token query string true "JWT"
// @Router       /ws/game [get]
func (h *WSHandler) HandleGameSocket(c *gin.Context) {
	userID, username, err := h.authService.ValidateToken(c.Query("token"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid or expired token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}

	client := h.hub.Register(conn)
	log.Printf("ws: user %d (%s) connected", userID, username)

	defer func() {
		playerID, roomToken := client.PlayerID, client.RoomToken
		current := h.hub.Unregister(client)
		if playerID == "" || !current {
			// Never subscribed, or a reconnect already took over this
			// identity; arming a grace timer here would sever the live
			// connection's participant.
			return
		}
		// Abrupt loss: open the grace window instead of leaving outright.
		if room, err := h.registry.GetRoom(roomToken); err == nil {
			room.HandleDisconnect(playerID)
		}
	}()

	// last accepted progress update; reads happen only on this goroutine
	var lastProgress time.Time

	for {
		var cmd Command
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws: read error for user %d: %v", userID, err)
			}
			return
		}

		switch cmd.Type {
		case "subscribeToRoom":
			h.handleSubscribe(client, cmd.Data, userID)
		case "requestStartGame":
			h.handleStart(c, client, cmd.Data)
		case "cancelGame":
			h.handleCancel(c, client, cmd.Data)
		case "playerProgress":
			h.handleProgress(client, cmd.Data, &lastProgress)
		case "playerFinished":
			h.handleFinished(c, client, cmd.Data)
		}
	}
}

func (h *WSHandler) handleSubscribe(client *ws.Client, data json.RawMessage, userID uint) {
	var ref roomRef
	if err := json.Unmarshal(data, &ref); err != nil {
		return
	}

	playerID, sync, bulk, err := h.registry.Subscribe(ref.RoomToken, userID)
	if err != nil {
		h.rejectCommand(client, err)
		return
	}

	h.hub.Subscribe(client, ref.RoomToken, playerID)

	// Resume payloads for a mid-game (re)subscribe, then the lobby list.
	if sync != nil {
		h.hub.Send(playerID, game.Event{Type: game.EventSyncState, Data: sync})
		if len(bulk) > 0 {
			h.hub.Send(playerID, game.Event{Type: game.EventBulkProgress, Data: bulk})
		}
	}
	if info, err := h.registry.Lookup(ref.RoomToken); err == nil {
		h.hub.Broadcast(ref.RoomToken, game.Event{Type: game.EventUpdateRoom, Data: info.Players})
	}
}

func (h *WSHandler) handleStart(c *gin.Context, client *ws.Client, data json.RawMessage) {
	var ref roomRef
	if err := json.Unmarshal(data, &ref); err != nil {
		return
	}
	room, err := h.subscribedRoom(client, ref.RoomToken)
	if err != nil {
		h.rejectCommand(client, err)
		return
	}
	if err := room.Start(c.Request.Context(), client.PlayerID); err != nil {
		h.rejectCommand(client, err)
	}
}

func (h *WSHandler) handleCancel(c *gin.Context, client *ws.Client, data json.RawMessage) {
	var ref roomRef
	if err := json.Unmarshal(data, &ref); err != nil {
		return
	}
	room, err := h.subscribedRoom(client, ref.RoomToken)
	if err != nil {
		h.rejectCommand(client, err)
		return
	}
	if err := room.Cancel(c.Request.Context(), client.PlayerID); err != nil {
		h.rejectCommand(client, err)
	}
}

func (h *WSHandler) handleProgress(client *ws.Client, data json.RawMessage, lastProgress *time.Time) {
	// Per-connection throttle: at most one accepted update per interval.
	now := time.Now()
	if now.Sub(*lastProgress) < h.progressInterval {
		return
	}

	var p progressPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	room, err := h.subscribedRoom(client, p.RoomToken)
	if err != nil {
		return
	}

	*lastProgress = now
	room.RecordProgress(client.PlayerID, game.Snapshot{
		Progress:  p.Progress,
		Accuracy:  p.Accuracy,
		Wpm:       p.Wpm,
		WordIndex: p.WordIndex,
	})
}

func (h *WSHandler) handleFinished(c *gin.Context, client *ws.Client, data json.RawMessage) {
	var p finishedPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	room, err := h.subscribedRoom(client, p.RoomToken)
	if err != nil {
		h.rejectCommand(client, err)
		return
	}
	// Finish events bypass the progress throttle.
	if err := room.RecordFinish(c.Request.Context(), client.PlayerID, p.Stats); err != nil {
		h.rejectCommand(client, err)
	}
}

func (h *WSHandler) subscribedRoom(client *ws.Client, roomToken string) (*game.Room, error) {
	if client.PlayerID == "" || client.RoomToken != roomToken {
		return nil, game.ErrUnauthorized
	}
	return h.registry.GetRoom(roomToken)
}

func (h *WSHandler) rejectCommand(client *ws.Client, err error) {
	var gerr *game.Error
	if !errors.As(err, &gerr) {
		gerr = &game.Error{Code: "INTERNAL", Message: "command failed"}
	}
	h.hub.SendTo(client, game.Event{Type: "error", Data: gerr})
}
