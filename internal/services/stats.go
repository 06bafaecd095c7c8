package services

import (
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/saad-deshmukh/typing-test-website/internal/models"
)

type StatsService struct {
	db *gorm.DB
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{db: db}
}

type SaveResultInput struct {
	Wpm            float64 `json:"wpm" binding:"required"`
	Accuracy       float64 `json:"accuracy" binding:"required"`
	WordsTyped     int     `json:"words_typed" binding:"required"`
	TimeTaken      int     `json:"time_taken" binding:"required"`
	ErrorsMade     *int    `json:"errors_made" binding:"required"`
	GameMode       string  `json:"game_mode"`
	TextDifficulty string  `json:"text_difficulty"`
	GameID         *uint   `json:"game_id"`
	PlayerID       *string `json:"player_id"`
}

// SaveResult records one completed solo performance and refreshes the user's
// aggregate columns.
func (s *StatsService) SaveResult(userID uint, in SaveResultInput) (*models.GameStats, error) {
	if in.GameMode == "" {
		in.GameMode = "standard"
	}
	if in.TextDifficulty == "" {
		in.TextDifficulty = "medium"
	}

	stats := models.GameStats{
		UserID:         userID,
		GameID:         in.GameID,
		PlayerID:       in.PlayerID,
		Wpm:            in.Wpm,
		Accuracy:       in.Accuracy,
		WordsTyped:     in.WordsTyped,
		TimeTaken:      in.TimeTaken,
		ErrorsMade:     *in.ErrorsMade,
		GameMode:       in.GameMode,
		TextDifficulty: in.TextDifficulty,
		IsMultiplayer:  in.GameID != nil,
		PlayedAt:       time.Now(),
	}
	if err := s.db.Create(&stats).Error; err != nil {
		return nil, err
	}

	s.RefreshUserAggregates(userID)
	return &stats, nil
}

type userAggregates struct {
	TotalGames      int
	TotalWordsTyped int
	TotalTimeTyped  int
	BestWpm         float64
	AverageWpm      float64
	BestAccuracy    float64
	AverageAccuracy float64
}

// RefreshUserAggregates recomputes the denormalized columns on users from
// game_stats with SQL aggregates. Failures are logged, not surfaced: the
// stats row itself is already durable.
func (s *StatsService) RefreshUserAggregates(userID uint) {
	var agg userAggregates
	err := s.db.Model(&models.GameStats{}).
		Select(`COUNT(id) AS total_games,
			COALESCE(SUM(words_typed), 0) AS total_words_typed,
			COALESCE(SUM(time_taken), 0) AS total_time_typed,
			COALESCE(MAX(wpm), 0) AS best_wpm,
			COALESCE(AVG(wpm), 0) AS average_wpm,
			COALESCE(MAX(accuracy), 0) AS best_accuracy,
			COALESCE(AVG(accuracy), 0) AS average_accuracy`).
		Where("user_id = ?", userID).
		Scan(&agg).Error
	if err != nil {
		log.Printf("stats: failed to aggregate for user %d: %v", userID, err)
		return
	}
	if agg.TotalGames == 0 {
		return
	}

	err = s.db.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]any{
		"total_games":       agg.TotalGames,
		"total_words_typed": agg.TotalWordsTyped,
		"total_time_typed":  agg.TotalTimeTyped,
		"best_wpm":          agg.BestWpm,
		"average_wpm":       agg.AverageWpm,
		"best_accuracy":     agg.BestAccuracy,
		"average_accuracy":  agg.AverageAccuracy,
	}).Error
	if err != nil {
		log.Printf("stats: failed to update aggregates for user %d: %v", userID, err)
	}
}

type UserStats struct {
	User                *models.User       `json:"user"`
	RecentGames         []models.GameStats `json:"recent_games"`
	PerformanceHistory  []models.GameStats `json:"performance_history"`
	TotalGamesThisMonth int                `json:"total_games_this_month"`
}

func (s *StatsService) GetUserStats(userID uint) (*UserStats, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return nil, errors.New("user not found")
	}

	var recent []models.GameStats
	s.db.Where("user_id = ?", userID).
		Order("played_at DESC").
		Limit(10).
		Find(&recent)

	thirtyDaysAgo := time.Now().AddDate(0, 0, -30)
	var history []models.GameStats
	s.db.Where("user_id = ? AND played_at >= ?", userID, thirtyDaysAgo).
		Order("played_at ASC").
		Find(&history)

	return &UserStats{
		User:                &user,
		RecentGames:         recent,
		PerformanceHistory:  history,
		TotalGamesThisMonth: len(history),
	}, nil
}

type LeaderboardRow struct {
	UserID     uint    `json:"user_id"`
	Username   string  `json:"username"`
	BestWpm    float64 `json:"best_wpm"`
	AverageWpm float64 `json:"average_wpm"`
	GameCount  int     `json:"game_count"`
}

// GetLeaderboard ranks users by best speed. The all-time board reads the
// denormalized user columns; windowed boards aggregate game_stats.
func (s *StatsService) GetLeaderboard(timeframe, gameMode string) ([]LeaderboardRow, error) {
	if timeframe == "" || timeframe == "all" {
		var rows []LeaderboardRow
		err := s.db.Model(&models.User{}).
			Select("id AS user_id, username, best_wpm, average_wpm, total_games AS game_count").
			Where("total_games > 0").
			Order("best_wpm DESC").
			Limit(100).
			Scan(&rows).Error
		return rows, err
	}

	q := s.db.Model(&models.GameStats{}).
		Select(`game_stats.user_id,
			users.username,
			MAX(game_stats.wpm) AS best_wpm,
			AVG(game_stats.wpm) AS average_wpm,
			COUNT(game_stats.id) AS game_count`).
		Joins("JOIN users ON users.id = game_stats.user_id").
		Group("game_stats.user_id, users.username").
		Order("best_wpm DESC").
		Limit(100)

	switch timeframe {
	case "week":
		q = q.Where("game_stats.played_at >= ?", time.Now().AddDate(0, 0, -7))
	case "month":
		q = q.Where("game_stats.played_at >= ?", time.Now().AddDate(0, 0, -30))
	default:
		return nil, errors.New("invalid timeframe")
	}
	if gameMode != "" && gameMode != "all" {
		q = q.Where("game_stats.game_mode = ?", gameMode)
	}

	var rows []LeaderboardRow
	err := q.Scan(&rows).Error
	return rows, err
}
