package game

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/saad-deshmukh/typing-test-website/internal/models"
)

func TestRegistry_CreateRoom_HostMembership(t *testing.T) {
	req := require.New(t)
	reg, store, _ := newTestRegistry(testOptions())
	ctx := context.Background()

	// When a user creates a room
	info, err := reg.CreateRoom(ctx, 1, "alice")
	req.NoError(err)

	// Then the room has a 6-digit code and a persisted game and host row
	req.Len(info.RoomToken, 6)
	req.NotZero(info.GameID)
	req.NotEmpty(info.PlayerID)

	game := store.game(info.GameID)
	req.NotNil(game)
	req.Equal(models.GameStatusWaiting, game.Status)
	req.Equal(1, store.playerCount(info.GameID))

	// And the user is marked active in that room
	active, ok := reg.ActiveMembership(1)
	req.True(ok)
	req.Equal(info.RoomToken, active.RoomToken)
	req.Equal(info.PlayerID, active.PlayerID)
	req.Equal(models.GameStatusWaiting, active.Status)
}

func TestRegistry_CreateRoom_RejectsSecondActiveGame(t *testing.T) {
	req := require.New(t)
	reg, _, _ := newTestRegistry(testOptions())
	ctx := context.Background()

	first, err := reg.CreateRoom(ctx, 1, "alice")
	req.NoError(err)

	// When the same user creates a second room
	_, err = reg.CreateRoom(ctx, 1, "alice")

	// Then the rejection names the conflicting room
	var gerr *Error
	req.ErrorAs(err, &gerr)
	req.Equal(CodeActiveGame, gerr.Code)
	req.Equal(first.RoomToken, gerr.RoomToken)
}

func TestRegistry_CreateRoom_RollsBackOnPlayerWriteFailure(t *testing.T) {
	req := require.New(t)
	reg, store, _ := newTestRegistry(testOptions())
	store.failCreatePlayer = true

	_, err := reg.CreateRoom(context.Background(), 1, "alice")
	req.Error(err)

	// The half-written game row is removed and the user stays free
	req.Empty(store.games)
	req.Empty(reg.rooms)
	req.Empty(reg.activeByUser)
	_, ok := reg.ActiveMembership(1)
	req.False(ok)
}

func TestRegistry_CreateRoom_StoreWriteDoesNotBlockOtherRooms(t *testing.T) {
	req := require.New(t)
	reg, store, _ := newTestRegistry(testOptions())
	ctx := context.Background()

	host, err := reg.CreateRoom(ctx, 1, "alice")
	req.NoError(err)

	store.gameGate = make(chan struct{})
	store.gameRelease = make(chan struct{})

	created := make(chan error, 1)
	go func() {
		_, err := reg.CreateRoom(ctx, 3, "carol")
		created <- err
	}()
	// carol's create is parked inside the store write
	<-store.gameGate

	// Commands against the existing room must keep moving meanwhile
	joined := make(chan error, 1)
	go func() {
		_, err := reg.JoinRoom(ctx, 2, "bob", host.RoomToken)
		joined <- err
	}()
	select {
	case err := <-joined:
		req.NoError(err)
	case <-time.After(time.Second):
		t.Fatal("join stalled behind an unrelated room's store write")
	}

	close(store.gameRelease)
	req.NoError(<-created)
	_, ok := reg.ActiveMembership(3)
	req.True(ok)
}

func TestRegistry_JoinRoom_BroadcastsRoster(t *testing.T) {
	req := require.New(t)
	reg, store, pub := newTestRegistry(testOptions())
	ctx := context.Background()

	host, err := reg.CreateRoom(ctx, 1, "alice")
	req.NoError(err)

	joined, err := reg.JoinRoom(ctx, 2, "bob", host.RoomToken)
	req.NoError(err)
	req.Equal(host.RoomToken, joined.RoomToken)
	req.Equal(host.GameID, joined.GameID)
	req.NotEqual(host.PlayerID, joined.PlayerID)

	req.Equal(2, store.playerCount(host.GameID))

	updates := pub.ofType(EventUpdateRoom)
	req.Len(updates, 1)
	req.Equal(host.RoomToken, updates[0].Room)
	views, ok := updates[0].Event.Data.([]PlayerView)
	req.True(ok)
	req.Len(views, 2)
	req.True(views[0].IsHost)
	req.Equal("bob", views[1].Username)
}

func TestRegistry_JoinRoom_Idempotent(t *testing.T) {
	req := require.New(t)
	reg, store, _ := newTestRegistry(testOptions())
	ctx := context.Background()

	host, err := reg.CreateRoom(ctx, 1, "alice")
	req.NoError(err)
	first, err := reg.JoinRoom(ctx, 2, "bob", host.RoomToken)
	req.NoError(err)

	// Rejoining yields the same membership without a new row
	again, err := reg.JoinRoom(ctx, 2, "bob", host.RoomToken)
	req.NoError(err)
	req.Equal(first.PlayerID, again.PlayerID)
	req.Equal(2, store.playerCount(host.GameID))
}

func TestRegistry_JoinRoom_UnknownToken(t *testing.T) {
	req := require.New(t)
	reg, _, _ := newTestRegistry(testOptions())

	_, err := reg.JoinRoom(context.Background(), 2, "bob", "000000")
	req.ErrorIs(err, ErrNotFound)
}

func TestRegistry_JoinRoom_Full(t *testing.T) {
	req := require.New(t)
	opts := testOptions()
	opts.Capacity = 2
	reg, _, _ := newTestRegistry(opts)
	ctx := context.Background()

	host, err := reg.CreateRoom(ctx, 1, "alice")
	req.NoError(err)
	_, err = reg.JoinRoom(ctx, 2, "bob", host.RoomToken)
	req.NoError(err)

	_, err = reg.JoinRoom(ctx, 3, "carol", host.RoomToken)
	var gerr *Error
	req.ErrorAs(err, &gerr)
	req.Equal(CodeRoomFull, gerr.Code)
}

func TestRegistry_JoinRoom_InProgressRejected(t *testing.T) {
	req := require.New(t)
	reg, _, _ := newTestRegistry(testOptions())
	ctx := context.Background()

	host, err := reg.CreateRoom(ctx, 1, "alice")
	req.NoError(err)
	_, err = reg.JoinRoom(ctx, 2, "bob", host.RoomToken)
	req.NoError(err)

	room, err := reg.GetRoom(host.RoomToken)
	req.NoError(err)
	req.NoError(room.Start(ctx, host.PlayerID))

	_, err = reg.JoinRoom(ctx, 3, "carol", host.RoomToken)
	req.ErrorIs(err, ErrNotJoinable)
}

func TestRegistry_LeaveAll_HostDestroysRoom(t *testing.T) {
	req := require.New(t)
	reg, store, pub := newTestRegistry(testOptions())
	ctx := context.Background()

	host, err := reg.CreateRoom(ctx, 1, "alice")
	req.NoError(err)
	_, err = reg.JoinRoom(ctx, 2, "bob", host.RoomToken)
	req.NoError(err)

	// When the host leaves, the room closes for everyone
	reg.LeaveAll(ctx, 1)

	destroyed := pub.ofType(EventRoomDestroyed)
	req.Len(destroyed, 1)
	req.Equal(ReasonHostLeft, destroyed[0].Event.Data)

	_, err = reg.Lookup(host.RoomToken)
	req.ErrorIs(err, ErrNotFound)
	req.Empty(store.games)
	req.Zero(store.playerCount(host.GameID))

	// Both users may enter new games again
	_, ok := reg.ActiveMembership(1)
	req.False(ok)
	_, ok = reg.ActiveMembership(2)
	req.False(ok)
}

func TestRegistry_LeaveAll_NonHostKeepsRoomOpen(t *testing.T) {
	req := require.New(t)
	reg, _, pub := newTestRegistry(testOptions())
	ctx := context.Background()

	host, err := reg.CreateRoom(ctx, 1, "alice")
	req.NoError(err)
	_, err = reg.JoinRoom(ctx, 2, "bob", host.RoomToken)
	req.NoError(err)
	pub.reset()

	reg.LeaveAll(ctx, 2)

	req.Empty(pub.ofType(EventRoomDestroyed))
	updates := pub.ofType(EventUpdateRoom)
	req.Len(updates, 1)
	views, ok := updates[0].Event.Data.([]PlayerView)
	req.True(ok)
	req.Len(views, 1)
	req.Equal("alice", views[0].Username)

	info, err := reg.Lookup(host.RoomToken)
	req.NoError(err)
	req.Equal(models.GameStatusWaiting, info.Status)
}

func TestRegistry_ExpireIdleRooms(t *testing.T) {
	req := require.New(t)
	reg, _, pub := newTestRegistry(testOptions())
	ctx := context.Background()

	stale, err := reg.CreateRoom(ctx, 1, "alice")
	req.NoError(err)
	fresh, err := reg.CreateRoom(ctx, 2, "bob")
	req.NoError(err)

	room, err := reg.GetRoom(stale.RoomToken)
	req.NoError(err)
	room.createdAt = time.Now().Add(-time.Hour)

	expired := reg.ExpireIdleRooms(ctx, 30*time.Minute)
	req.Equal(1, expired)

	destroyed := pub.ofType(EventRoomDestroyed)
	req.Len(destroyed, 1)
	req.Equal(stale.RoomToken, destroyed[0].Room)
	req.Equal(ReasonRoomExpired, destroyed[0].Event.Data)

	_, err = reg.Lookup(stale.RoomToken)
	req.ErrorIs(err, ErrNotFound)
	_, err = reg.Lookup(fresh.RoomToken)
	req.NoError(err)
}
