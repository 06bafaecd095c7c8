package workers

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/saad-deshmukh/typing-test-website/internal/game"
)

// RoomSweeper periodically tears down rooms stuck in the lobby, so abandoned
// codes do not pin their users' active-membership claims forever.
type RoomSweeper struct {
	registry *game.Registry
	maxIdle  time.Duration
	sched    gocron.Scheduler
}

func NewRoomSweeper(registry *game.Registry, maxIdle time.Duration) *RoomSweeper {
	return &RoomSweeper{registry: registry, maxIdle: maxIdle}
}

func (w *RoomSweeper) Start() error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	w.sched = sched

	_, err = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			if n := w.registry.ExpireIdleRooms(context.Background(), w.maxIdle); n > 0 {
				log.Printf("sweeper: expired %d idle rooms", n)
			}
		}),
	)
	if err != nil {
		return err
	}

	sched.Start()
	log.Printf("sweeper: started (max idle %s)", w.maxIdle)
	return nil
}

func (w *RoomSweeper) Stop() {
	if w.sched != nil {
		if err := w.sched.Shutdown(); err != nil {
			log.Printf("sweeper: shutdown error: %v", err)
		}
	}
}
