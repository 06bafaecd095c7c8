package models

import "time"

type Game struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	RoomToken string     `gorm:"size:6;uniqueIndex;not null" json:"room_token"`
	Status    string     `gorm:"size:20;not null;default:'waiting'" json:"status"`
	Text      string     `gorm:"type:text" json:"text,omitempty"`
	StartTime *time.Time `json:"start_time,omitempty"`
	Players   []Player   `gorm:"foreignKey:GameID" json:"players,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

const (
	GameStatusWaiting    = "waiting"
	GameStatusInProgress = "in-progress"
	GameStatusFinished   = "finished"
)
