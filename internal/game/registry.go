package game

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/saad-deshmukh/typing-test-website/internal/models"
)

type Options struct {
	Capacity        int
	MinPlayers      int
	DisconnectGrace time.Duration
}

// Registry is the authoritative in-memory index of active rooms and of which
// room each user is currently in. Its mutex guards only the maps; room state
// is guarded per room.
type Registry struct {
	mu           sync.Mutex
	rooms        map[string]*Room
	activeByUser map[uint]string

	store    Store
	pub      Publisher
	pickText TextPicker
	opts     Options
}

func NewRegistry(store Store, pub Publisher, pickText TextPicker, opts Options) *Registry {
	return &Registry{
		rooms:        make(map[string]*Room),
		activeByUser: make(map[uint]string),
		store:        store,
		pub:          pub,
		pickText:     pickText,
		opts:         opts,
	}
}

// JoinInfo identifies a freshly created or rejoined membership.
type JoinInfo struct {
	RoomToken string `json:"room_token"`
	GameID    uint   `json:"game_id"`
	PlayerID  string `json:"player_id"`
}

// ActiveInfo describes the caller's current active membership, if any.
type ActiveInfo struct {
	RoomToken string `json:"room_token"`
	GameID    uint   `json:"game_id"`
	PlayerID  string `json:"player_id"`
	Status    string `json:"status"`
}

// RoomInfo is the lookup view for status queries.
type RoomInfo struct {
	RoomToken string       `json:"room_token"`
	GameID    uint         `json:"game_id"`
	Status    string       `json:"status"`
	Text      string       `json:"text,omitempty"`
	StartTime *time.Time   `json:"start_time,omitempty"`
	Players   []PlayerView `json:"players"`
}

// CreateRoom allocates a fresh room with the caller as host. Fails with
// ACTIVE_GAME_EXISTS if the caller already has a live membership anywhere.
func (reg *Registry) CreateRoom(ctx context.Context, userID uint, username string) (*JoinInfo, error) {
	reg.mu.Lock()
	if token, ok := reg.activeByUser[userID]; ok {
		reg.mu.Unlock()
		return nil, errAlreadyActive(token)
	}

	// Claim the token and the user's active slot, then release the registry
	// mutex before any store round-trip so other rooms' commands keep moving.
	// The fresh room's own mutex is taken before publication, so it cannot be
	// contended here; concurrent lookups and joins block on it until the
	// store writes settle.
	token := reg.allocateTokenLocked()
	room := newRoom(reg, token)
	room.mu.Lock()
	defer room.mu.Unlock()
	reg.rooms[token] = room
	reg.activeByUser[userID] = token
	reg.mu.Unlock()

	record := &models.Game{RoomToken: token, Status: models.GameStatusWaiting}
	if err := reg.store.CreateGame(ctx, record); err != nil {
		room.destroyed = true
		reg.dropRoom(token, []uint{userID})
		return nil, fmt.Errorf("create game: %w", err)
	}
	room.gameID = record.ID

	host := &Participant{
		ID:       uuid.NewString(),
		UserID:   userID,
		Username: username,
		IsHost:   true,
		JoinedAt: time.Now(),
	}
	if err := reg.store.CreatePlayer(ctx, room.playerRecord(host)); err != nil {
		if derr := reg.store.DeleteGame(ctx, record.ID); derr != nil {
			log.Printf("game: failed to roll back game %d: %v", record.ID, derr)
		}
		room.destroyed = true
		reg.dropRoom(token, []uint{userID})
		return nil, fmt.Errorf("create host player: %w", err)
	}
	room.participants = append(room.participants, host)

	log.Printf("game: room %s created by user %d", token, userID)
	return &JoinInfo{RoomToken: token, GameID: room.gameID, PlayerID: host.ID}, nil
}

// JoinRoom adds the caller to a waiting room. Rejoining a room the caller is
// already in is idempotent and returns the existing membership.
func (reg *Registry) JoinRoom(ctx context.Context, userID uint, username, token string) (*JoinInfo, error) {
	reg.mu.Lock()
	room, ok := reg.rooms[token]
	if !ok {
		reg.mu.Unlock()
		return nil, ErrNotFound
	}
	if active, busy := reg.activeByUser[userID]; busy && active != token {
		reg.mu.Unlock()
		return nil, errAlreadyActive(active)
	}
	reg.mu.Unlock()

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.destroyed {
		return nil, ErrNotFound
	}
	if existing := room.participantByUser(userID); existing != nil {
		return &JoinInfo{RoomToken: token, GameID: room.gameID, PlayerID: existing.ID}, nil
	}
	if room.status != models.GameStatusWaiting {
		return nil, ErrNotJoinable
	}
	if len(room.participants) >= reg.opts.Capacity {
		return nil, errRoomFull(reg.opts.Capacity)
	}

	p := &Participant{
		ID:       uuid.NewString(),
		UserID:   userID,
		Username: username,
		JoinedAt: time.Now(),
	}
	if conflict, ok := reg.claimUser(userID, token); !ok {
		return nil, errAlreadyActive(conflict)
	}
	if err := reg.store.CreatePlayer(ctx, room.playerRecord(p)); err != nil {
		reg.releaseUsers([]uint{userID})
		return nil, fmt.Errorf("create player: %w", err)
	}
	room.participants = append(room.participants, p)

	reg.pub.Broadcast(token, Event{Type: EventUpdateRoom, Data: room.playerViews()})
	log.Printf("game: user %d joined room %s (%d players)", userID, token, len(room.participants))
	return &JoinInfo{RoomToken: token, GameID: room.gameID, PlayerID: p.ID}, nil
}

// LeaveAll removes every active membership the user holds. The per-user
// invariant keeps this to at most one room.
func (reg *Registry) LeaveAll(ctx context.Context, userID uint) {
	for {
		reg.mu.Lock()
		token, ok := reg.activeByUser[userID]
		room := reg.rooms[token]
		reg.mu.Unlock()
		if !ok || room == nil {
			return
		}
		room.Leave(ctx, userID)

		// Leave releases the claim; clear it ourselves if the mapping went
		// stale so the loop terminates.
		reg.mu.Lock()
		if t, still := reg.activeByUser[userID]; still && t == token {
			delete(reg.activeByUser, userID)
		}
		reg.mu.Unlock()
	}
}

// Lookup returns the room and its participants for a status query.
func (reg *Registry) Lookup(token string) (*RoomInfo, error) {
	reg.mu.Lock()
	room, ok := reg.rooms[token]
	reg.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	if room.destroyed {
		return nil, ErrNotFound
	}
	return &RoomInfo{
		RoomToken: room.token,
		GameID:    room.gameID,
		Status:    room.status,
		Text:      room.text,
		StartTime: room.startTime,
		Players:   room.playerViews(),
	}, nil
}

// ActiveMembership answers the CheckActiveGame command.
func (reg *Registry) ActiveMembership(userID uint) (*ActiveInfo, bool) {
	reg.mu.Lock()
	token, ok := reg.activeByUser[userID]
	room := reg.rooms[token]
	reg.mu.Unlock()
	if !ok || room == nil {
		return nil, false
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	p := room.participantByUser(userID)
	if room.destroyed || p == nil {
		return nil, false
	}
	return &ActiveInfo{
		RoomToken: room.token,
		GameID:    room.gameID,
		PlayerID:  p.ID,
		Status:    room.status,
	}, true
}

// Subscribe attaches the user's connection to their room, cancelling any
// pending disconnect timer, and returns the resume payload for an
// in-progress room.
func (reg *Registry) Subscribe(token string, userID uint) (string, *SyncPayload, []Snapshot, error) {
	reg.mu.Lock()
	room, ok := reg.rooms[token]
	reg.mu.Unlock()
	if !ok {
		return "", nil, nil, ErrNotFound
	}
	return room.Resubscribe(userID)
}

// GetRoom hands the room to the websocket command dispatcher.
func (reg *Registry) GetRoom(token string) (*Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	room, ok := reg.rooms[token]
	if !ok {
		return nil, ErrNotFound
	}
	return room, nil
}

// ExpireIdleRooms tears down rooms still waiting past maxIdle, exactly like
// a host cancellation but with the "expired" reason. Returns the count.
func (reg *Registry) ExpireIdleRooms(ctx context.Context, maxIdle time.Duration) int {
	reg.mu.Lock()
	candidates := make([]*Room, 0, len(reg.rooms))
	for _, room := range reg.rooms {
		candidates = append(candidates, room)
	}
	reg.mu.Unlock()

	cutoff := time.Now().Add(-maxIdle)
	expired := 0
	for _, room := range candidates {
		if room.createdAt.Before(cutoff) && room.Expire(ctx) {
			expired++
		}
	}
	return expired
}

// claimUser marks the user active in the given room unless another claim won
// in the meantime; returns the conflicting token on failure.
func (reg *Registry) claimUser(userID uint, token string) (string, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if active, busy := reg.activeByUser[userID]; busy && active != token {
		return active, false
	}
	reg.activeByUser[userID] = token
	return "", true
}

func (reg *Registry) releaseUsers(userIDs []uint) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	for _, id := range userIDs {
		delete(reg.activeByUser, id)
	}
}

func (reg *Registry) dropRoom(token string, userIDs []uint) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.rooms, token)
	for _, id := range userIDs {
		delete(reg.activeByUser, id)
	}
}

// allocateTokenLocked picks an unused 6-digit code, retrying on collision.
func (reg *Registry) allocateTokenLocked() string {
	for {
		token := fmt.Sprintf("%06d", rand.Intn(1000000))
		if _, taken := reg.rooms[token]; !taken {
			return token
		}
	}
}
