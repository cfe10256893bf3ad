package game

import "errors"

var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrPlayerNotFound      = errors.New("player not found")
	ErrQuestionNotFound    = errors.New("question not found")
	ErrRegistryFull        = errors.New("room limit reached")
	ErrRoomFull            = errors.New("room is full")
	ErrInvalidTransition   = errors.New("action not valid in current room state")
	ErrDuplicateAnswer     = errors.New("already answered this question")
	ErrInsufficientPlayers = errors.New("not enough players to start")
	ErrNotAllReady         = errors.New("not all players are ready")
	ErrValidation          = errors.New("invalid request")
)

// Code maps an error to the stable wire code clients key on.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrRoomNotFound):
		return "room_not_found"
	case errors.Is(err, ErrPlayerNotFound):
		return "player_not_found"
	case errors.Is(err, ErrQuestionNotFound):
		return "question_not_found"
	case errors.Is(err, ErrRegistryFull):
		return "capacity_exceeded"
	case errors.Is(err, ErrRoomFull):
		return "room_full"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_state"
	case errors.Is(err, ErrDuplicateAnswer):
		return "duplicate_answer"
	case errors.Is(err, ErrInsufficientPlayers):
		return "insufficient_players"
	case errors.Is(err, ErrNotAllReady):
		return "not_all_ready"
	case errors.Is(err, ErrValidation):
		return "validation_error"
	default:
		return "internal_error"
	}
}
