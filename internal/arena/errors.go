package arena

import (
	"errors"

	"connect-arena/internal/game"
)

var (
	ErrGameNotFound    = errors.New("game_not_found")
	ErrNotAParticipant = errors.New("not_a_participant")
	ErrNotYourTurn     = errors.New("not_your_turn")
	ErrClosed          = errors.New("arena_closed")
)

// ErrorCode maps a core error to its wire code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrGameNotFound):
		return "game_not_found"
	case errors.Is(err, ErrNotAParticipant):
		return "not_a_participant"
	case errors.Is(err, ErrNotYourTurn):
		return "not_your_turn"
	case errors.Is(err, game.ErrInvalidColumn):
		return "invalid_column"
	case errors.Is(err, game.ErrColumnFull):
		return "column_full"
	case errors.Is(err, ErrClosed):
		return "server_shutting_down"
	default:
		return "internal_error"
	}
}

func ErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrGameNotFound):
		return "Game not found or finished"
	case errors.Is(err, ErrNotAParticipant):
		return "You are not a player in this game"
	case errors.Is(err, ErrNotYourTurn):
		return "Not your turn"
	case errors.Is(err, game.ErrInvalidColumn):
		return "Invalid column"
	case errors.Is(err, game.ErrColumnFull):
		return "Column is full"
	case errors.Is(err, ErrClosed):
		return "Server is shutting down"
	default:
		return "Internal error"
	}
}
