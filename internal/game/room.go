package game

import (
	"context"
	"log"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/saad-deshmukh/typing-test-website/internal/models"
)

// Participant is one user's live membership in a room. Final stats stay nil
// until the participant finishes; they are immutable once set.
type Participant struct {
	ID       string
	UserID   uint
	Username string
	IsHost   bool
	Speed    *float64
	Accuracy *float64
	Time     *float64
	JoinedAt time.Time
}

// Room holds the authoritative state of one match. Every mutating command
// runs under mu, so commands targeting the same room never interleave while
// different rooms proceed independently.
type Room struct {
	mu       sync.Mutex
	registry *Registry

	gameID    uint
	token     string
	status    string
	text      string
	startTime *time.Time

	// join order; exactly one participant has IsHost while the room exists
	participants []*Participant

	// live progress and pending disconnect timers, keyed by participant id;
	// both die with the room
	progress map[string]*Snapshot
	timers   map[string]*time.Timer

	createdAt time.Time
	destroyed bool
}

type Snapshot struct {
	PlayerID  string  `json:"playerId"`
	Progress  float64 `json:"progress"`
	Accuracy  float64 `json:"accuracy"`
	Wpm       float64 `json:"wpm"`
	WordIndex int     `json:"wordIndex"`
}

type FinalStats struct {
	Wpm       float64 `json:"wpm"`
	Accuracy  float64 `json:"accuracy"`
	TimeTaken float64 `json:"timeTaken"`
}

type PlayerView struct {
	ID       string   `json:"id"`
	UserID   uint     `json:"user_id"`
	Username string   `json:"username"`
	IsHost   bool     `json:"is_host"`
	Speed    *float64 `json:"speed,omitempty"`
	Accuracy *float64 `json:"accuracy,omitempty"`
	Time     *float64 `json:"time,omitempty"`
}

type ResultView struct {
	ID       string  `json:"id"`
	UserID   uint    `json:"userId"`
	Username string  `json:"username"`
	IsHost   bool    `json:"isHost"`
	Speed    float64 `json:"speed"`
	Accuracy float64 `json:"accuracy"`
	Time     float64 `json:"time"`
}

type StartPayload struct {
	GameText  string    `json:"gameText"`
	StartTime time.Time `json:"startTime"`
	GameID    uint      `json:"gameId"`
}

type SyncPayload struct {
	StartTime        *time.Time `json:"startTime"`
	GameText         string     `json:"gameText"`
	Status           string     `json:"status"`
	ExistingProgress float64    `json:"existingProgress"`
	CurrentWordIndex int        `json:"currentWordIndex"`
}

func newRoom(reg *Registry, token string) *Room {
	return &Room{
		registry: reg,
		token:    token,
		status:   models.GameStatusWaiting,
		progress: make(map[string]*Snapshot),
		timers:   make(map[string]*time.Timer),

		createdAt: time.Now(),
	}
}

// Start moves the room from waiting to in-progress. Host-only; requires the
// minimum player count. No state changes on rejection.
func (r *Room) Start(ctx context.Context, playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.destroyed {
		return ErrNotFound
	}
	p := r.participantByID(playerID)
	if p == nil || !p.IsHost {
		return ErrUnauthorized
	}
	if r.status != models.GameStatusWaiting {
		return ErrNotJoinable
	}
	if len(r.participants) < r.registry.opts.MinPlayers {
		return &Error{Code: CodeNotJoinable, Message: "not enough players to start"}
	}

	now := time.Now()
	r.text = r.registry.pickText()
	r.startTime = &now
	r.status = models.GameStatusInProgress
	for id := range r.progress {
		delete(r.progress, id)
	}

	if err := r.registry.store.UpdateGame(ctx, r.gameRecord()); err != nil {
		log.Printf("game: failed to persist start of room %s: %v", r.token, err)
	}

	r.registry.pub.Broadcast(r.token, Event{Type: EventStartGame, Data: StartPayload{
		GameText:  r.text,
		StartTime: now,
		GameID:    r.gameID,
	}})
	log.Printf("game: room %s started with %d players", r.token, len(r.participants))
	return nil
}

// Cancel destroys a waiting room. Host-only.
func (r *Room) Cancel(ctx context.Context, playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.destroyed {
		return ErrNotFound
	}
	p := r.participantByID(playerID)
	if p == nil || !p.IsHost {
		return ErrUnauthorized
	}
	if r.status != models.GameStatusWaiting {
		return ErrNotJoinable
	}

	r.teardownLocked(ctx, ReasonHostCancelled)
	return nil
}

// RecordFinish stores a participant's final stats. Accepted at most once per
// participant; duplicates are silent no-ops. Bypasses the progress throttle.
func (r *Room) RecordFinish(ctx context.Context, playerID string, stats FinalStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.destroyed {
		return ErrNotFound
	}
	if r.status != models.GameStatusInProgress {
		return nil
	}
	p := r.participantByID(playerID)
	if p == nil {
		return ErrUnauthorized
	}
	if p.Time != nil {
		// duplicate completion event
		return nil
	}

	speed, accuracy, elapsed := stats.Wpm, stats.Accuracy, stats.TimeTaken
	p.Speed = &speed
	p.Accuracy = &accuracy
	p.Time = &elapsed

	if err := r.registry.store.UpdatePlayer(ctx, r.playerRecord(p)); err != nil {
		log.Printf("game: failed to persist finish for player %s: %v", p.ID, err)
	}

	r.progress[p.ID] = &Snapshot{
		PlayerID:  p.ID,
		Progress:  100,
		Accuracy:  accuracy,
		Wpm:       speed,
		WordIndex: math.MaxInt32,
	}

	r.registry.pub.Broadcast(r.token, Event{Type: EventProgress, Data: Snapshot{
		PlayerID: p.ID,
		Progress: 100,
		Accuracy: accuracy,
		Wpm:      speed,
	}})
	r.registry.pub.Broadcast(r.token, Event{Type: EventUpdateRoom, Data: r.playerViews()})

	r.checkCompletionLocked(ctx)
	return nil
}

// Leave removes every membership the user holds in this room. Host departure
// destroys the room; an emptied room is destroyed as well.
func (r *Room) Leave(ctx context.Context, userID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.destroyed {
		return
	}
	p := r.participantByUser(userID)
	if p == nil {
		return
	}
	if p.IsHost {
		r.teardownLocked(ctx, ReasonHostLeft)
		return
	}
	r.removeParticipantLocked(ctx, p)
	if len(r.participants) == 0 {
		r.teardownLocked(ctx, "")
		return
	}
	switch r.status {
	case models.GameStatusWaiting:
		r.registry.pub.Broadcast(r.token, Event{Type: EventUpdateRoom, Data: r.playerViews()})
	case models.GameStatusInProgress:
		r.checkCompletionLocked(ctx)
	}
}

// Expire tears the room down if it is still waiting. Used by the sweeper.
func (r *Room) Expire(ctx context.Context) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.destroyed || r.status != models.GameStatusWaiting {
		return false
	}
	r.teardownLocked(ctx, ReasonRoomExpired)
	return true
}

// checkCompletionLocked transitions to finished once every current
// participant has a final time. Runs at most once; score-write failures are
// logged and never block the transition or the endGame broadcast.
func (r *Room) checkCompletionLocked(ctx context.Context) {
	if r.status != models.GameStatusInProgress || !r.allFinishedLocked() {
		return
	}

	r.status = models.GameStatusFinished
	if err := r.registry.store.UpdateGame(ctx, r.gameRecord()); err != nil {
		log.Printf("game: failed to persist finish of room %s: %v", r.token, err)
	}

	for _, p := range r.participants {
		if p.UserID == 0 || p.Time == nil {
			continue
		}
		stats := &models.GameStats{
			UserID:        p.UserID,
			GameID:        &r.gameID,
			PlayerID:      &p.ID,
			Wpm:           *p.Speed,
			Accuracy:      *p.Accuracy,
			WordsTyped:    int(math.Round(*p.Speed * *p.Time / 60)),
			TimeTaken:     int(*p.Time),
			IsMultiplayer: true,
			GameMode:      "standard",
			PlayedAt:      time.Now(),
		}
		if err := r.registry.store.CreateGameStats(ctx, stats); err != nil {
			log.Printf("game: score write lost for user %d in room %s: %v", p.UserID, r.token, err)
		}
	}

	r.registry.pub.Broadcast(r.token, Event{Type: EventEndGame, Data: r.resultsLocked()})
	r.registry.releaseUsers(r.userIDsLocked())
	log.Printf("game: room %s finished", r.token)
}

func (r *Room) allFinishedLocked() bool {
	if len(r.participants) == 0 {
		return false
	}
	for _, p := range r.participants {
		if p.Time == nil {
			return false
		}
	}
	return true
}

// resultsLocked ranks by descending speed; equal speeds keep join order.
func (r *Room) resultsLocked() []ResultView {
	results := make([]ResultView, 0, len(r.participants))
	for _, p := range r.participants {
		rv := ResultView{ID: p.ID, UserID: p.UserID, Username: p.Username, IsHost: p.IsHost, Accuracy: 100}
		if p.Speed != nil {
			rv.Speed = *p.Speed
		}
		if p.Accuracy != nil {
			rv.Accuracy = *p.Accuracy
		}
		if p.Time != nil {
			rv.Time = *p.Time
		}
		results = append(results, rv)
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Speed > results[j].Speed
	})
	return results
}

// teardownLocked broadcasts roomDestroyed (when a reason is given), clears
// timers and progress, removes persisted rows and drops the room from the
// registry.
func (r *Room) teardownLocked(ctx context.Context, reason string) {
	if r.destroyed {
		return
	}
	if reason != "" {
		r.registry.pub.Broadcast(r.token, Event{Type: EventRoomDestroyed, Data: reason})
	}
	for id, t := range r.timers {
		t.Stop()
		delete(r.timers, id)
	}
	for id := range r.progress {
		delete(r.progress, id)
	}

	users := r.userIDsLocked()
	r.participants = nil
	r.destroyed = true

	if err := r.registry.store.DeletePlayersByGame(ctx, r.gameID); err != nil {
		log.Printf("game: failed to delete players of room %s: %v", r.token, err)
	}
	if err := r.registry.store.DeleteGame(ctx, r.gameID); err != nil {
		log.Printf("game: failed to delete room %s: %v", r.token, err)
	}

	r.registry.dropRoom(r.token, users)
	log.Printf("game: room %s destroyed (%s)", r.token, reason)
}

func (r *Room) removeParticipantLocked(ctx context.Context, p *Participant) {
	for i, cur := range r.participants {
		if cur.ID == p.ID {
			r.participants = append(r.participants[:i], r.participants[i+1:]...)
			break
		}
	}
	delete(r.progress, p.ID)
	if t, ok := r.timers[p.ID]; ok {
		t.Stop()
		delete(r.timers, p.ID)
	}
	if err := r.registry.store.DeletePlayer(ctx, p.ID); err != nil {
		log.Printf("game: failed to delete player %s: %v", p.ID, err)
	}
	r.registry.releaseUsers([]uint{p.UserID})
}

func (r *Room) participantByID(id string) *Participant {
	for _, p := range r.participants {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (r *Room) participantByUser(userID uint) *Participant {
	for _, p := range r.participants {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

func (r *Room) playerViews() []PlayerView {
	views := make([]PlayerView, 0, len(r.participants))
	for _, p := range r.participants {
		views = append(views, PlayerView{
			ID:       p.ID,
			UserID:   p.UserID,
			Username: p.Username,
			IsHost:   p.IsHost,
			Speed:    p.Speed,
			Accuracy: p.Accuracy,
			Time:     p.Time,
		})
	}
	return views
}

func (r *Room) userIDsLocked() []uint {
	ids := make([]uint, 0, len(r.participants))
	for _, p := range r.participants {
		ids = append(ids, p.UserID)
	}
	return ids
}

func (r *Room) gameRecord() *models.Game {
	return &models.Game{
		ID:        r.gameID,
		RoomToken: r.token,
		Status:    r.status,
		Text:      r.text,
		StartTime: r.startTime,
	}
}

func (r *Room) playerRecord(p *Participant) *models.Player {
	return &models.Player{
		ID:       p.ID,
		GameID:   r.gameID,
		UserID:   p.UserID,
		Username: p.Username,
		IsHost:   p.IsHost,
		Speed:    p.Speed,
		Accuracy: p.Accuracy,
		Time:     p.Time,
		JoinedAt: p.JoinedAt,
	}
}
