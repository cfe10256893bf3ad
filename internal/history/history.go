package history

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"triviarush/internal/game"
)

// Recorder persists final game results after a room finishes. The engine
// treats recording as fire-and-forget; failures never reach room state.
type Recorder interface {
	Record(ctx context.Context, sum game.Summary) error
}

type GameRecord struct {
	ID            string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	RoomID        string    `gorm:"type:varchar(8);index" json:"room_id"`
	Topic         string    `json:"topic"`
	Difficulty    string    `json:"difficulty"`
	QuestionCount int       `json:"question_count"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
	CreatedAt     time.Time `json:"created_at"`

	Results []PlayerResult `gorm:"foreignKey:GameID" json:"results"`
}

type PlayerResult struct {
	ID               uint   `gorm:"primaryKey" json:"id"`
	GameID           string `gorm:"type:varchar(36);index" json:"game_id"`
	UserID           string `gorm:"index" json:"user_id"`
	Name             string `json:"name"`
	Score            int    `json:"score"`
	CorrectAnswers   int    `json:"correct_answers"`
	AnswersSubmitted int    `json:"answers_submitted"`
	Rank             int    `json:"rank"`
}

type Store struct {
	db *gorm.DB
}

func NewStore(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&GameRecord{}, &PlayerResult{}); err != nil {
		return nil, fmt.Errorf("failed to migrate history schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Record(ctx context.Context, sum game.Summary) error {
	rec := GameRecord{
		ID:            uuid.NewString(),
		RoomID:        sum.RoomID,
		Topic:         sum.Topic,
		Difficulty:    sum.Difficulty,
		QuestionCount: sum.QuestionCount,
		StartedAt:     sum.StartedAt,
		FinishedAt:    sum.FinishedAt,
	}
	for _, e := range sum.Standings {
		rec.Results = append(rec.Results, PlayerResult{
			GameID:           rec.ID,
			UserID:           e.PlayerID,
			Name:             e.Name,
			Score:            e.Score,
			CorrectAnswers:   e.CorrectAnswers,
			AnswersSubmitted: e.AnswersSubmitted,
			Rank:             e.Rank,
		})
	}
	return s.db.WithContext(ctx).Create(&rec).Error
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Recent returns the latest finished games with their per-player results.
func (s *Store) Recent(ctx context.Context, limit int) ([]GameRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	var records []GameRecord
	err := s.db.WithContext(ctx).
		Preload("Results").
		Order("finished_at desc").
		Limit(limit).
		Find(&records).Error
	return records, err
}

// Noop discards results; used when no database is configured.
type Noop struct{}

func (Noop) Record(context.Context, game.Summary) error { return nil }
