package database

import (
	"context"

	"gorm.io/gorm"

	"github.com/saad-deshmukh/typing-test-website/internal/models"
)

// GameStore is the gorm-backed persistence gateway consumed by the
// multiplayer coordinator.
type GameStore struct {
	db *gorm.DB
}

func NewGameStore(db *gorm.DB) *GameStore {
	return &GameStore{db: db}
}

func (s *GameStore) CreateGame(ctx context.Context, game *models.Game) error {
	return s.db.WithContext(ctx).Create(game).Error
}

func (s *GameStore) UpdateGame(ctx context.Context, game *models.Game) error {
	return s.db.WithContext(ctx).Model(&models.Game{}).
		Where("id = ?", game.ID).
		Updates(map[string]any{
			"status":     game.Status,
			"text":       game.Text,
			"start_time": game.StartTime,
		}).Error
}

func (s *GameStore) DeleteGame(ctx context.Context, gameID uint) error {
	return s.db.WithContext(ctx).Delete(&models.Game{}, gameID).Error
}

func (s *GameStore) CreatePlayer(ctx context.Context, player *models.Player) error {
	return s.db.WithContext(ctx).Create(player).Error
}

func (s *GameStore) UpdatePlayer(ctx context.Context, player *models.Player) error {
	return s.db.WithContext(ctx).Model(&models.Player{}).
		Where("id = ?", player.ID).
		Updates(map[string]any{
			"speed":    player.Speed,
			"accuracy": player.Accuracy,
			"time":     player.Time,
		}).Error
}

func (s *GameStore) DeletePlayer(ctx context.Context, playerID string) error {
	return s.db.WithContext(ctx).Delete(&models.Player{}, "id = ?", playerID).Error
}

func (s *GameStore) DeletePlayersByGame(ctx context.Context, gameID uint) error {
	return s.db.WithContext(ctx).Delete(&models.Player{}, "game_id = ?", gameID).Error
}

func (s *GameStore) CreateGameStats(ctx context.Context, stats *models.GameStats) error {
	return s.db.WithContext(ctx).Create(stats).Error
}
