package models

import "time"

// GameStats is the immutable record of one completed typing performance,
// solo or multiplayer. It is only ever created, never updated.
type GameStats struct {
	ID             uint    `gorm:"primaryKey" json:"id"`
	UserID         uint    `gorm:"not null;index:idx_user_date;index:idx_user_wpm" json:"user_id"`
	GameID         *uint   `json:"game_id,omitempty"`
	PlayerID       *string `gorm:"size:36" json:"player_id,omitempty"`
	Wpm            float64 `gorm:"not null" json:"wpm"`
	Accuracy       float64 `gorm:"not null" json:"accuracy"`
	WordsTyped     int     `gorm:"not null" json:"words_typed"`
	TimeTaken      int     `gorm:"not null" json:"time_taken"`
	ErrorsMade     int     `gorm:"not null" json:"errors_made"`
	GameMode       string  `gorm:"size:50;not null;default:'standard';index:idx_game_mode" json:"game_mode"`
	TextDifficulty string  `gorm:"size:20;not null;default:'medium'" json:"text_difficulty"`
	IsMultiplayer  bool    `gorm:"not null;default:false" json:"is_multiplayer"`

	PlayedAt time.Time `gorm:"not null;index:idx_user_date,priority:2;index:idx_game_mode,priority:2" json:"played_at"`
}
