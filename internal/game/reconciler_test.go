package game

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/saad-deshmukh/typing-test-website/internal/models"
)

func shortGraceOptions() Options {
	opts := testOptions()
	opts.DisconnectGrace = 30 * time.Millisecond
	return opts
}

func TestRoom_Resubscribe_WithinGraceKeepsParticipant(t *testing.T) {
	req := require.New(t)
	reg, _, _ := newTestRegistry(shortGraceOptions())
	room, host, guest := twoPlayerRoom(t, reg)
	ctx := context.Background()

	req.NoError(room.Start(ctx, host.PlayerID))
	req.NoError(room.RecordProgress(guest.PlayerID, Snapshot{Progress: 35, WordIndex: 4}))
	req.NoError(room.RecordProgress(host.PlayerID, Snapshot{Progress: 50, WordIndex: 6}))

	room.HandleDisconnect(guest.PlayerID)

	// Reconnecting inside the window restores the same membership untouched
	playerID, sync, bulk, err := reg.Subscribe(host.RoomToken, 2)
	req.NoError(err)
	req.Equal(guest.PlayerID, playerID)
	req.NotNil(sync)
	req.Equal(models.GameStatusInProgress, sync.Status)
	req.Equal(testText, sync.GameText)
	req.Equal(35.0, sync.ExistingProgress)
	req.Equal(4, sync.CurrentWordIndex)
	req.Len(bulk, 1)
	req.Equal(host.PlayerID, bulk[0].PlayerID)

	// The cancelled timer never fires
	time.Sleep(3 * shortGraceOptions().DisconnectGrace)
	info, err := reg.Lookup(host.RoomToken)
	req.NoError(err)
	req.Len(info.Players, 2)
}

func TestRoom_GraceExpiry_RemovesNonHost(t *testing.T) {
	req := require.New(t)
	reg, store, pub := newTestRegistry(shortGraceOptions())
	room, host, guest := twoPlayerRoom(t, reg)
	pub.reset()

	room.HandleDisconnect(guest.PlayerID)

	req.Eventually(func() bool {
		info, err := reg.Lookup(host.RoomToken)
		return err == nil && len(info.Players) == 1
	}, time.Second, 5*time.Millisecond)

	updates := pub.ofType(EventUpdateRoom)
	req.NotEmpty(updates)
	views, ok := updates[len(updates)-1].Event.Data.([]PlayerView)
	req.True(ok)
	req.Len(views, 1)
	req.Equal(host.PlayerID, views[0].ID)

	req.Equal(1, store.playerCount(host.GameID))

	// The departed user may enter another game
	_, err := reg.CreateRoom(context.Background(), 2, "bob")
	req.NoError(err)
}

func TestRoom_GraceExpiry_HostDestroysRoom(t *testing.T) {
	req := require.New(t)
	reg, store, pub := newTestRegistry(shortGraceOptions())
	room, host, _ := twoPlayerRoom(t, reg)

	room.HandleDisconnect(host.PlayerID)

	req.Eventually(func() bool {
		_, err := reg.Lookup(host.RoomToken)
		return err != nil
	}, time.Second, 5*time.Millisecond)

	destroyed := pub.ofType(EventRoomDestroyed)
	req.Len(destroyed, 1)
	req.Equal(ReasonHostDisconnected, destroyed[0].Event.Data)
	req.Empty(store.games)

	// No further events once the room is gone
	count := len(pub.ofType(EventUpdateRoom))
	time.Sleep(3 * shortGraceOptions().DisconnectGrace)
	req.Len(pub.ofType(EventUpdateRoom), count)
}

func TestRoom_GraceExpiry_Departed_NoLongerCountsTowardCompletion(t *testing.T) {
	req := require.New(t)
	reg, _, pub := newTestRegistry(shortGraceOptions())
	room, host, guest := twoPlayerRoom(t, reg)
	ctx := context.Background()

	req.NoError(room.Start(ctx, host.PlayerID))
	req.NoError(room.RecordFinish(ctx, host.PlayerID, FinalStats{Wpm: 45, Accuracy: 93, TimeTaken: 52}))
	req.Empty(pub.ofType(EventEndGame))

	// The unfinished guest times out; the host is the only participant left
	room.HandleDisconnect(guest.PlayerID)

	req.Eventually(func() bool {
		return len(pub.ofType(EventEndGame)) == 1
	}, time.Second, 5*time.Millisecond)

	ends := pub.ofType(EventEndGame)
	results, ok := ends[0].Event.Data.([]ResultView)
	req.True(ok)
	req.Len(results, 1)
	req.Equal(host.PlayerID, results[0].ID)
}

func TestRoom_HandleDisconnect_RearmReplacesTimer(t *testing.T) {
	req := require.New(t)
	reg, _, _ := newTestRegistry(Options{Capacity: 5, MinPlayers: 2, DisconnectGrace: 80 * time.Millisecond})
	room, host, guest := twoPlayerRoom(t, reg)

	room.HandleDisconnect(guest.PlayerID)
	time.Sleep(50 * time.Millisecond)
	room.HandleDisconnect(guest.PlayerID)
	time.Sleep(50 * time.Millisecond)

	// The first timer was replaced, so the membership is still intact
	info, err := reg.Lookup(host.RoomToken)
	req.NoError(err)
	req.Len(info.Players, 2)

	req.Eventually(func() bool {
		info, err := reg.Lookup(host.RoomToken)
		return err == nil && len(info.Players) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestRoom_GraceExpiry_StaleTimerCannotConsumeReplacement(t *testing.T) {
	req := require.New(t)
	reg, _, _ := newTestRegistry(testOptions())
	room, host, guest := twoPlayerRoom(t, reg)

	room.HandleDisconnect(guest.PlayerID)
	room.mu.Lock()
	stale := room.timers[guest.PlayerID]
	room.mu.Unlock()

	// A second disconnect replaces the timer under the same participant
	room.HandleDisconnect(guest.PlayerID)

	// The first timer fires late, after it was already replaced; it must not
	// act on the replacement's map entry
	room.graceExpired(guest.PlayerID, stale)

	info, err := reg.Lookup(host.RoomToken)
	req.NoError(err)
	req.Len(info.Players, 2)

	room.mu.Lock()
	_, armed := room.timers[guest.PlayerID]
	room.mu.Unlock()
	req.True(armed)
}

func TestRoom_Resubscribe_WaitingRoomHasNoResumePayload(t *testing.T) {
	req := require.New(t)
	reg, _, _ := newTestRegistry(testOptions())
	_, host, guest := twoPlayerRoom(t, reg)

	playerID, sync, bulk, err := reg.Subscribe(host.RoomToken, 2)
	req.NoError(err)
	req.Equal(guest.PlayerID, playerID)
	req.Nil(sync)
	req.Empty(bulk)
}

func TestRoom_Resubscribe_NonMemberRejected(t *testing.T) {
	req := require.New(t)
	reg, _, _ := newTestRegistry(testOptions())
	_, host, _ := twoPlayerRoom(t, reg)

	_, _, _, err := reg.Subscribe(host.RoomToken, 99)
	req.ErrorIs(err, ErrUnauthorized)

	_, _, _, err = reg.Subscribe("999999", 1)
	req.ErrorIs(err, ErrNotFound)
}
