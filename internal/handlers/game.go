package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/saad-deshmukh/typing-test-website/internal/game"
)

type GameHandler struct {
	registry *game.Registry
}

func NewGameHandler(registry *game.Registry) *GameHandler {
	return &GameHandler{registry: registry}
}

type JoinRoomRequest struct {
	RoomToken string `json:"room_token" binding:"required"`
}

// CreateRoom godoc
// @Summary      Create a multiplayer room with the caller as host
// @Tags         game
// @Produce      json
// @Security     BearerAuth
// @Success      201 {object} MessageResponse
// @Failure      403 {object} ErrorResponse
// @Router       /api/game/create-room [post]
func (h *GameHandler) CreateRoom(c *gin.Context) {
	userID, username := currentUser(c)

	info, err := h.registry.CreateRoom(c.Request.Context(), userID, username)
	if err != nil {
		rejectGameError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":    "Game created successfully!",
		"room_token": info.RoomToken,
		"player_id":  info.PlayerID,
		"game_id":    info.GameID,
	})
}

// JoinRoom godoc
// @Summary      Join a waiting room by its code
// @Tags         game
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body JoinRoomRequest true "Room code"
// @Success      200 {object} MessageResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/game/join-room [post]
func (h *GameHandler) JoinRoom(c *gin.Context) {
	var req JoinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "room token is required"})
		return
	}

	userID, username := currentUser(c)
	info, err := h.registry.JoinRoom(c.Request.Context(), userID, username, req.RoomToken)
	if err != nil {
		rejectGameError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Joined game successfully!",
		"room_token": info.RoomToken,
		"player_id":  info.PlayerID,
		"game_id":    info.GameID,
	})
}

// Leave godoc
// @Summary      Leave all active games
// @Tags         game
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} MessageResponse
// @Router       /api/game/leave [post]
func (h *GameHandler) Leave(c *gin.Context) {
	userID, _ := currentUser(c)
	h.registry.LeaveAll(c.Request.Context(), userID)
	c.JSON(http.StatusOK, MessageResponse{Message: "Left all active games."})
}

// Status godoc
// @Summary      Check whether the caller has an active game
// @Tags         game
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} MessageResponse
// @Router       /api/game/status [get]
func (h *GameHandler) Status(c *gin.Context) {
	userID, _ := currentUser(c)

	info, ok := h.registry.ActiveMembership(userID)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"active": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"active":     true,
		"room_token": info.RoomToken,
		"game_id":    info.GameID,
		"player_id":  info.PlayerID,
		"status":     info.Status,
	})
}

// GetRoom godoc
// @Summary      Fetch a room and its players
// @Tags         game
// @Produce      json
// @Security     BearerAuth
// @Param        roomToken path string true "Room code"
// @Success      200 {object} MessageResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/game/room/{roomToken} [get]
func (h *GameHandler) GetRoom(c *gin.Context) {
	info, err := h.registry.Lookup(c.Param("roomToken"))
	if err != nil {
		rejectGameError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}
