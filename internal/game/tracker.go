package game

import "github.com/saad-deshmukh/typing-test-website/internal/models"

// Progress tracking: live, never-persisted snapshots held on the room for the
// duration of in-progress play. Rate limiting happens at the connection, not
// here; accepted updates are last-writer-wins.

// RecordProgress overwrites the participant's snapshot and broadcasts it to
// the rest of the room (not echoed to the sender). Ignored outside
// in-progress play and for participants who already finished.
func (r *Room) RecordProgress(playerID string, snap Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.destroyed {
		return ErrNotFound
	}
	p := r.participantByID(playerID)
	if p == nil {
		return ErrUnauthorized
	}
	if r.status != models.GameStatusInProgress || p.Time != nil {
		return nil
	}

	snap.PlayerID = playerID
	stored := snap
	r.progress[playerID] = &stored

	r.registry.pub.BroadcastExcept(r.token, playerID, Event{Type: EventProgress, Data: Snapshot{
		PlayerID: playerID,
		Progress: snap.Progress,
		Accuracy: snap.Accuracy,
		Wpm:      snap.Wpm,
	}})
	return nil
}

// SnapshotFor returns the live progress of everyone except the given
// participant, for bulk replay to a (re)subscribing client.
func (r *Room) SnapshotFor(excludePlayerID string) []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotForLocked(excludePlayerID)
}

func (r *Room) snapshotForLocked(excludePlayerID string) []Snapshot {
	out := make([]Snapshot, 0, len(r.progress))
	for _, p := range r.participants {
		if p.ID == excludePlayerID {
			continue
		}
		if snap, ok := r.progress[p.ID]; ok {
			out = append(out, *snap)
		}
	}
	return out
}

// AllFinished reports whether every currently-registered participant has a
// final time. The sole completion predicate; participants who already left
// are excluded by construction.
func (r *Room) AllFinished() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.allFinishedLocked()
}
