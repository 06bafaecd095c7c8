package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/saad-deshmukh/typing-test-website/internal/services"
)

type StatsHandler struct {
	statsService *services.StatsService
}

func NewStatsHandler(statsService *services.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// SaveResult godoc
// @Summary      Save a completed typing result
// @Tags         stats
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body services.SaveResultInput true "Result"
// @Success      201 {object} MessageResponse
// @Failure      400 {object} ErrorResponse
// @Router       /api/stats/save [post]
func (h *StatsHandler) SaveResult(c *gin.Context) {
	var in services.SaveResultInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing required game result fields"})
		return
	}

	userID, _ := currentUser(c)
	stats, err := h.statsService.SaveResult(userID, in)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to save game result"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":    "Game result saved successfully",
		"game_stats": stats,
	})
}

// MyStats godoc
// @Summary      Aggregate stats, recent games and 30-day history
// @Tags         stats
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} MessageResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/stats/me [get]
func (h *StatsHandler) MyStats(c *gin.Context) {
	userID, _ := currentUser(c)
	stats, err := h.statsService.GetUserStats(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Leaderboard godoc
// @Summary      Speed leaderboard
// @Tags         stats
// @Produce      json
// @Param        timeframe query string false "all | week | month"
// @Param        gameMode  query string false "filter by game mode"
// @Success      200 {object} MessageResponse
// @Failure      400 {object} ErrorResponse
// @Router       /api/stats/leaderboard [get]
func (h *StatsHandler) Leaderboard(c *gin.Context) {
	rows, err := h.statsService.GetLeaderboard(c.DefaultQuery("timeframe", "all"), c.Query("gameMode"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, rows)
}
