package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Game     GameConfig
	Question QuestionConfig
	Auth     AuthConfig
	History  HistoryConfig
}

type ServerConfig struct {
	Port string
}

type GameConfig struct {
	RoomTTL         time.Duration
	SweepInterval   time.Duration
	MaxRooms        int
	QuestionTime    time.Duration
	Countdown       time.Duration
	RequireAllReady bool
}

type QuestionConfig struct {
	Provider      string // "openai" or "bank"
	OpenAIKey     string
	OpenAIBaseURL string
	Model         string
}

type AuthConfig struct {
	JWTSecret string
}

type HistoryConfig struct {
	// Postgres DSN; empty disables durable game history.
	DSN string
}

// Load reads an optional config.yaml and lets environment variables override
// every key (e.g. GAME_ROOM_TTL, QUESTION_OPENAI_KEY).
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetDefault("server.port", "8080")
	v.SetDefault("game.room_ttl", time.Hour)
	v.SetDefault("game.sweep_interval", 5*time.Minute)
	v.SetDefault("game.max_rooms", 1000)
	v.SetDefault("game.question_time", 30*time.Second)
	v.SetDefault("game.countdown", 5*time.Second)
	v.SetDefault("game.require_all_ready", true)
	v.SetDefault("question.provider", "bank")
	v.SetDefault("question.model", "gpt-4o-mini")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("history.dsn", "")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.BindEnv("question.openai_key", "OPENAI_API_KEY")
	v.BindEnv("question.openai_base_url", "OPENAI_BASE_URL")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetString("server.port"),
		},
		Game: GameConfig{
			RoomTTL:         v.GetDuration("game.room_ttl"),
			SweepInterval:   v.GetDuration("game.sweep_interval"),
			MaxRooms:        v.GetInt("game.max_rooms"),
			QuestionTime:    v.GetDuration("game.question_time"),
			Countdown:       v.GetDuration("game.countdown"),
			RequireAllReady: v.GetBool("game.require_all_ready"),
		},
		Question: QuestionConfig{
			Provider:      v.GetString("question.provider"),
			OpenAIKey:     v.GetString("question.openai_key"),
			OpenAIBaseURL: v.GetString("question.openai_base_url"),
			Model:         v.GetString("question.model"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("auth.jwt_secret"),
		},
		History: HistoryConfig{
			DSN: v.GetString("history.dsn"),
		},
	}
	return cfg, nil
}
