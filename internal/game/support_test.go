package game

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/saad-deshmukh/typing-test-website/internal/models"
)

// fakeStore keeps persisted rows in memory and can inject failures.
type fakeStore struct {
	mu         sync.Mutex
	nextGameID uint
	games      map[uint]*models.Game
	players    map[string]*models.Player
	stats      []*models.GameStats

	failCreatePlayer bool
	failCreateStats  bool

	// when set, CreateGame signals entry and parks until released
	gameGate    chan struct{}
	gameRelease chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		games:   make(map[uint]*models.Game),
		players: make(map[string]*models.Player),
	}
}

func (s *fakeStore) CreateGame(ctx context.Context, game *models.Game) error {
	if s.gameGate != nil {
		s.gameGate <- struct{}{}
		<-s.gameRelease
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextGameID++
	game.ID = s.nextGameID
	copied := *game
	s.games[game.ID] = &copied
	return nil
}

func (s *fakeStore) UpdateGame(ctx context.Context, game *models.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *game
	s.games[game.ID] = &copied
	return nil
}

func (s *fakeStore) DeleteGame(ctx context.Context, gameID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.games, gameID)
	return nil
}

func (s *fakeStore) CreatePlayer(ctx context.Context, player *models.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreatePlayer {
		return errors.New("create player failed")
	}
	copied := *player
	s.players[player.ID] = &copied
	return nil
}

func (s *fakeStore) UpdatePlayer(ctx context.Context, player *models.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *player
	s.players[player.ID] = &copied
	return nil
}

func (s *fakeStore) DeletePlayer(ctx context.Context, playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.players, playerID)
	return nil
}

func (s *fakeStore) DeletePlayersByGame(ctx context.Context, gameID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.players {
		if p.GameID == gameID {
			delete(s.players, id)
		}
	}
	return nil
}

func (s *fakeStore) CreateGameStats(ctx context.Context, stats *models.GameStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreateStats {
		return errors.New("create stats failed")
	}
	copied := *stats
	s.stats = append(s.stats, &copied)
	return nil
}

func (s *fakeStore) game(id uint) *models.Game {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.games[id]
}

func (s *fakeStore) playerCount(gameID uint) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.players {
		if p.GameID == gameID {
			n++
		}
	}
	return n
}

func (s *fakeStore) savedStats() []*models.GameStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.GameStats, len(s.stats))
	copy(out, s.stats)
	return out
}

// pubEvent records one publish: either a room broadcast (with an optional
// excluded participant) or a direct send.
type pubEvent struct {
	Room   string
	Except string
	Target string
	Event  Event
}

type fakePub struct {
	mu     sync.Mutex
	events []pubEvent
}

func (f *fakePub) Broadcast(roomToken string, event Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, pubEvent{Room: roomToken, Event: event})
}

func (f *fakePub) BroadcastExcept(roomToken, exceptPlayerID string, event Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, pubEvent{Room: roomToken, Except: exceptPlayerID, Event: event})
}

func (f *fakePub) Send(playerID string, event Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, pubEvent{Target: playerID, Event: event})
}

func (f *fakePub) ofType(eventType string) []pubEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]pubEvent, 0)
	for _, e := range f.events {
		if e.Event.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakePub) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = nil
}

const testText = "the quick brown fox jumps over the lazy dog"

func testOptions() Options {
	return Options{Capacity: 5, MinPlayers: 2, DisconnectGrace: 10 * time.Second}
}

func newTestRegistry(opts Options) (*Registry, *fakeStore, *fakePub) {
	store := newFakeStore()
	pub := &fakePub{}
	reg := NewRegistry(store, pub, func() string { return testText }, opts)
	return reg, store, pub
}
