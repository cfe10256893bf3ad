package question

import (
	"context"

	"triviarush/internal/game"
)

// Provider supplies the ordered question set for a room at creation time. The
// engine treats the result as an opaque sequence and never regenerates or
// validates content itself.
type Provider interface {
	Questions(ctx context.Context, topic, difficulty string, count int) ([]game.Question, error)
}

const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)
