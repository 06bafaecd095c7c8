package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/saad-deshmukh/typing-test-website/internal/game"
)

// Client is one websocket connection. Writes are serialized by a
// per-connection mutex; reads happen only on the connection's own goroutine.
type Client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	// set on subscribe
	PlayerID  string
	RoomToken string

	// set under the hub mutex when a newer connection takes over this
	// client's participant identity
	displaced bool
}

// Hub implements the event channel: per-room broadcast groups plus
// participant-addressable sends. Sends are fire-and-forget; a failed write
// drops the connection.
type Hub struct {
	mu      sync.Mutex
	rooms   map[string]map[*Client]bool
	players map[string]*Client
}

func NewHub() *Hub {
	return &Hub{
		rooms:   make(map[string]map[*Client]bool),
		players: make(map[string]*Client),
	}
}

func (h *Hub) Register(conn *websocket.Conn) *Client {
	return &Client{conn: conn}
}

// Subscribe joins the client to a room's broadcast group under the given
// participant identity. A participant reconnecting displaces any stale
// connection still registered under their id.
func (h *Hub) Subscribe(c *Client, roomToken, playerID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c.RoomToken != "" {
		h.removeLocked(c)
	}
	if old, ok := h.players[playerID]; ok && old != c {
		old.displaced = true
		h.removeLocked(old)
		old.conn.Close()
	}

	c.RoomToken = roomToken
	c.PlayerID = playerID
	if h.rooms[roomToken] == nil {
		h.rooms[roomToken] = make(map[*Client]bool)
	}
	h.rooms[roomToken][c] = true
	h.players[playerID] = c
	log.Printf("ws: player %s subscribed to room %s (connections: %d)", playerID, roomToken, len(h.rooms[roomToken]))
}

// Unregister detaches the connection and reports whether it still owned its
// participant identity. A connection displaced by a reconnect does not: the
// participant is live on the newer connection, so the caller must not treat
// the old socket's exit as a disconnect.
func (h *Hub) Unregister(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
	c.conn.Close()
	return !c.displaced
}

func (h *Hub) removeLocked(c *Client) {
	if conns, ok := h.rooms[c.RoomToken]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.rooms, c.RoomToken)
		}
	}
	if h.players[c.PlayerID] == c {
		delete(h.players, c.PlayerID)
	}
}

func (h *Hub) Broadcast(roomToken string, event game.Event) {
	h.send(h.roomClients(roomToken, ""), event)
}

func (h *Hub) BroadcastExcept(roomToken, exceptPlayerID string, event game.Event) {
	h.send(h.roomClients(roomToken, exceptPlayerID), event)
}

func (h *Hub) Send(playerID string, event game.Event) {
	h.mu.Lock()
	c, ok := h.players[playerID]
	h.mu.Unlock()
	if ok {
		h.send([]*Client{c}, event)
	}
}

// SendTo writes directly to a connection that may not be subscribed yet,
// e.g. error replies during command validation.
func (h *Hub) SendTo(c *Client, event game.Event) {
	h.send([]*Client{c}, event)
}

func (h *Hub) roomClients(roomToken, exceptPlayerID string) []*Client {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns := h.rooms[roomToken]
	out := make([]*Client, 0, len(conns))
	for c := range conns {
		if exceptPlayerID != "" && c.PlayerID == exceptPlayerID {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (h *Hub) send(clients []*Client, event game.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("ws: marshal error: %v", err)
		return
	}
	for _, c := range clients {
		c.writeMu.Lock()
		err := c.conn.WriteMessage(websocket.TextMessage, data)
		c.writeMu.Unlock()
		if err != nil {
			log.Printf("ws: write error for player %s: %v", c.PlayerID, err)
			h.mu.Lock()
			h.removeLocked(c)
			h.mu.Unlock()
			c.conn.Close()
		}
	}
}
