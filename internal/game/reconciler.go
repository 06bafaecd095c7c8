package game

import (
	"context"
	"log"
	"time"

	"github.com/saad-deshmukh/typing-test-website/internal/models"
)

// Disconnect reconciliation: an abrupt connection loss opens a grace window
// during which a re-subscribe restores the participant untouched. Only when
// the window expires does the loss become a departure.

// HandleDisconnect arms the grace timer for a participant whose connection
// dropped. Re-arming replaces any pending timer.
func (r *Room) HandleDisconnect(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.destroyed || r.participantByID(playerID) == nil {
		return
	}
	if t, ok := r.timers[playerID]; ok {
		t.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(r.registry.opts.DisconnectGrace, func() {
		r.graceExpired(playerID, t)
	})
	r.timers[playerID] = t
	log.Printf("game: player %s disconnected from room %s, grace timer armed", playerID, r.token)
}

// graceExpired converts an unreconciled disconnect into a departure. Firing
// is idempotent and identity-checked: a timer that was cancelled or replaced
// between scheduling and locking no longer matches the map entry and does
// nothing, even if a newer timer has been armed under the same participant.
func (r *Room) graceExpired(playerID string, t *time.Timer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.destroyed {
		return
	}
	if armed, ok := r.timers[playerID]; !ok || armed != t {
		return
	}
	delete(r.timers, playerID)

	p := r.participantByID(playerID)
	if p == nil {
		return
	}

	ctx := context.Background()
	if p.IsHost {
		r.teardownLocked(ctx, ReasonHostDisconnected)
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
		// the departed participant no longer counts toward completion
		r.checkCompletionLocked(ctx)
	}
}

// Resubscribe re-associates a user's connection with their existing
// participant, cancelling any pending grace timer. For an in-progress room it
// returns the resume payload plus a bulk snapshot of the others' progress.
func (r *Room) Resubscribe(userID uint) (playerID string, sync *SyncPayload, bulk []Snapshot, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.destroyed {
		return "", nil, nil, ErrNotFound
	}
	p := r.participantByUser(userID)
	if p == nil {
		return "", nil, nil, ErrUnauthorized
	}

	if t, ok := r.timers[p.ID]; ok {
		t.Stop()
		delete(r.timers, p.ID)
		log.Printf("game: player %s reconnected to room %s within grace", p.ID, r.token)
	}

	if r.status == models.GameStatusInProgress {
		payload := SyncPayload{
			StartTime: r.startTime,
			GameText:  r.text,
			Status:    r.status,
		}
		if snap, ok := r.progress[p.ID]; ok {
			payload.ExistingProgress = snap.Progress
			payload.CurrentWordIndex = snap.WordIndex
		}
		return p.ID, &payload, r.snapshotForLocked(p.ID), nil
	}

	return p.ID, nil, nil, nil
}
