package game

import "fmt"

// Reason codes returned to clients on command rejection.
const (
	CodeNotFound     = "NOT_FOUND"
	CodeNotJoinable  = "NOT_JOINABLE"
	CodeRoomFull     = "ROOM_FULL"
	CodeActiveGame   = "ACTIVE_GAME_EXISTS"
	CodeUnauthorized = "UNAUTHORIZED"
)

// Error is a command rejection with a stable reason code. RoomToken is set
// only for ACTIVE_GAME_EXISTS so the client can offer a forfeit-and-retry.
type Error struct {
	Code      string `json:"error"`
	Message   string `json:"message"`
	RoomToken string `json:"room_token,omitempty"`
}

func (e *Error) Error() string {
	if e.RoomToken != "" {
		return fmt.Sprintf("%s: %s (room %s)", e.Code, e.Message, e.RoomToken)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

var (
	ErrNotFound     = &Error{Code: CodeNotFound, Message: "game not found"}
	ErrNotJoinable  = &Error{Code: CodeNotJoinable, Message: "this game is not available to join"}
	ErrUnauthorized = &Error{Code: CodeUnauthorized, Message: "not allowed"}
)

func errRoomFull(capacity int) *Error {
	return &Error{Code: CodeRoomFull, Message: fmt.Sprintf("room is full (max %d players)", capacity)}
}

func errAlreadyActive(roomToken string) *Error {
	return &Error{
		Code:      CodeActiveGame,
		Message:   fmt.Sprintf("you are already in an active game (%s)", roomToken),
		RoomToken: roomToken,
	}
}
