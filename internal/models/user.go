package models

import "time"

type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Username     string `gorm:"size:20;uniqueIndex;not null" json:"username"`
	Email        string `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"size:60;not null" json:"-"`

	// Aggregate columns recomputed from GameStats after every save.
	TotalGames      int     `gorm:"not null;default:0" json:"total_games"`
	TotalWordsTyped int     `gorm:"not null;default:0" json:"total_words_typed"`
	TotalTimeTyped  int     `gorm:"not null;default:0" json:"total_time_typed"`
	BestWpm         float64 `gorm:"not null;default:0" json:"best_wpm"`
	AverageWpm      float64 `gorm:"not null;default:0" json:"average_wpm"`
	BestAccuracy    float64 `gorm:"not null;default:0" json:"best_accuracy"`
	AverageAccuracy float64 `gorm:"not null;default:0" json:"average_accuracy"`

	CreatedAt time.Time `json:"created_at"`
}
