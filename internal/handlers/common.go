package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/saad-deshmukh/typing-test-website/internal/game"
)

type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
}

type MessageResponse struct {
	Message string `json:"message" example:"operation successful"`
}

// rejectGameError maps coordinator reason codes onto HTTP statuses; the
// structured code (and conflicting room token, when present) goes to the
// client as-is.
func rejectGameError(c *gin.Context, err error) {
	var gerr *game.Error
	if !errors.As(err, &gerr) {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	status := http.StatusForbidden
	if gerr.Code == game.CodeNotFound {
		status = http.StatusNotFound
	}
	c.JSON(status, gerr)
}

func currentUser(c *gin.Context) (uint, string) {
	return c.GetUint("user_id"), c.GetString("username")
}
