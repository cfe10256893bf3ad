package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	zerologlog "github.com/rs/zerolog/log"

	"triviarush/internal/config"
	"triviarush/internal/game"
	"triviarush/internal/history"
	"triviarush/internal/question"
	"triviarush/internal/question/openai"
	"triviarush/internal/ws"
)

const version = "v1.2.0"

func main() {
	var (
		showHelp    = flag.Bool("help", false, "Show help message")
		showVersion = flag.Bool("version", false, "Show version information")
		portFlag    = flag.String("port", "", "Port to listen on (overrides config)")
	)
	flag.BoolVar(showHelp, "h", false, "Show help message (shorthand)")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	flag.Parse()

	if *showHelp {
		fmt.Printf(`Triviarush - realtime multiplayer trivia server

Usage: %s [options]

Options:
  -h, --help      Show this help message
  -v, --version   Show version information
  --port PORT     Port to listen on (default: 8080 or SERVER_PORT)

Environment Variables:
  SERVER_PORT            Port to listen on (default: 8080)
  GAME_ROOM_TTL          Idle room lifetime (default: 1h)
  GAME_QUESTION_TIME     Per-question time limit (default: 30s)
  GAME_COUNTDOWN         Pre-game countdown (default: 5s)
  QUESTION_PROVIDER      "openai" or "bank" (default: bank)
  OPENAI_API_KEY         OpenAI API key (required for openai provider)
  OPENAI_BASE_URL        Custom OpenAI-compatible base URL (optional)
  AUTH_JWT_SECRET        HMAC secret for player tokens (empty = open play)
  HISTORY_DSN            Postgres DSN for game history (empty = disabled)
`, os.Args[0])
		return
	}

	if *showVersion {
		fmt.Printf("Triviarush %s\n", version)
		return
	}

	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	port := *portFlag
	if port == "" {
		port = cfg.Server.Port
	}

	// zerolog setup (human-friendly console)
	zerolog.TimeFieldFormat = time.RFC3339
	cw := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	zerologlog.Logger = zerologlog.Output(cw)

	// Gin setup with custom logger (skip /socket.io noise)
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/socket.io") {
			return
		}
		status := c.Writer.Status()
		dur := time.Since(start)
		zerologlog.Info().Str("path", path).Int("status", status).Dur("dur", dur).Msg("http")
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "time": time.Now().UTC()})
	})

	// Game history (optional)
	var recorder history.Recorder = history.Noop{}
	var store *history.Store
	if cfg.History.DSN != "" {
		store, err = history.NewStore(cfg.History.DSN)
		if err != nil {
			zerologlog.Fatal().Err(err).Msg("failed to open history store")
		}
		defer store.Close()
		recorder = store
	}

	// Question source
	var provider question.Provider
	if cfg.Question.Provider == "openai" && cfg.Question.OpenAIKey != "" {
		provider = openai.New(cfg.Question.OpenAIKey, cfg.Question.OpenAIBaseURL, cfg.Question.Model)
	}

	// Core engine
	registry := game.NewRegistry(game.RegistryConfig{
		MaxRooms:      cfg.Game.MaxRooms,
		TTL:           cfg.Game.RoomTTL,
		SweepInterval: cfg.Game.SweepInterval,
		Room: game.Options{
			QuestionTime:    cfg.Game.QuestionTime,
			Countdown:       cfg.Game.Countdown,
			RequireAllReady: cfg.Game.RequireAllReady,
		},
		OnResult: func(sum game.Summary) {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := recorder.Record(ctx, sum); err != nil {
				zerologlog.Error().Err(err).Str("room", sum.RoomID).Msg("failed to record game result")
			}
		},
	})
	tracker := game.NewTracker()

	// Gateway
	sock := ws.New(registry, tracker, provider, cfg.Auth.JWTSecret)
	registry.SetSink(sock)
	io := sock.Mount(r)
	defer io.Close()

	registry.Start()
	defer registry.Stop()

	// Public room listing
	r.GET("/api/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"rooms": registry.Summaries()})
	})
	if store != nil {
		r.GET("/api/history", func(c *gin.Context) {
			records, err := store.Recent(c.Request.Context(), 20)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "history unavailable"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"games": records})
		})
	}

	srv := &http.Server{Addr: ":" + port, Handler: r}
	go func() {
		zerologlog.Info().Str("port", port).Str("version", version).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zerologlog.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zerologlog.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zerologlog.Error().Err(err).Msg("forced shutdown")
	}
}
