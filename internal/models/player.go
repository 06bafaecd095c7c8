package models

import "time"

// Player is one user's membership in a game. Final stats stay nil until the
// player finishes; live progress is never persisted here.
type Player struct {
	ID       string `gorm:"primaryKey;size:36" json:"id"`
	GameID   uint   `gorm:"not null;index" json:"game_id"`
	UserID   uint   `gorm:"not null;index" json:"user_id"`
	Username string `gorm:"size:20;not null" json:"username"`
	IsHost   bool   `gorm:"not null;default:false" json:"is_host"`

	Speed    *float64 `json:"speed,omitempty"`
	Accuracy *float64 `json:"accuracy,omitempty"`
	Time     *float64 `json:"time,omitempty"`

	JoinedAt time.Time `json:"joined_at"`
}
