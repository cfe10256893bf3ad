package ws

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	socketio "github.com/googollee/go-socket.io"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"triviarush/internal/auth"
	"triviarush/internal/game"
	"triviarush/internal/question"
)

var roomIDPattern = regexp.MustCompile(`^[A-Z0-9]{8}$`)

// ConnCtx is the per-connection state stored on the socket. The limiter caps
// inbound event rate per connection.
type ConnCtx struct {
	UserID  string
	Name    string
	RoomID  string
	limiter *rate.Limiter
}

type Server struct {
	registry *game.Registry
	tracker  *game.Tracker
	provider question.Provider
	fallback question.Provider
	secret   string
	io       *socketio.Server
}

func New(registry *game.Registry, tracker *game.Tracker, provider question.Provider, secret string) *Server {
	return &Server{
		registry: registry,
		tracker:  tracker,
		provider: provider,
		fallback: question.NewBank(),
		secret:   secret,
	}
}

// Publish delivers a committed room event to every member connection.
// Implements game.EventSink.
func (srv *Server) Publish(roomID string, ev game.Event) {
	if srv.io == nil {
		return
	}
	srv.io.BroadcastToRoom("/", roomID, ev.Name, ev.Payload)
}

type authPayload struct {
	Token string `json:"token"`
	Name  string `json:"name"`
}

type createRoomPayload struct {
	Topic         string `json:"topic"`
	Difficulty    string `json:"difficulty"`
	QuestionCount int    `json:"questionCount"`
	MaxPlayers    int    `json:"maxPlayers"`
	Mode          string `json:"mode"`
}

type roomPayload struct {
	RoomID string `json:"roomId"`
}

type answerPayload struct {
	RoomID      string `json:"roomId"`
	QuestionID  string `json:"questionId"`
	AnswerIndex int    `json:"answerIndex"`
	TimeSpentMS int64  `json:"timeSpent"`
}

// Mount attaches the Socket.IO server with all game handlers to the given Gin
// engine.
func (srv *Server) Mount(r *gin.Engine) *socketio.Server {
	io := socketio.NewServer(nil)
	srv.io = io

	io.OnConnect("/", func(s socketio.Conn) error {
		s.SetContext(&ConnCtx{limiter: rate.NewLimiter(5, 10)})
		log.Info().Str("sid", s.ID()).Msg("socket connected")
		return nil
	})

	io.OnEvent("/", "auth", srv.authenticate)
	io.OnEvent("/", "create-room", srv.createRoom)
	io.OnEvent("/", "join-room", srv.joinRoom)
	io.OnEvent("/", "leave-room", srv.leaveRoom)
	io.OnEvent("/", "player-ready", srv.playerReady)
	io.OnEvent("/", "start-game", srv.startGame)
	io.OnEvent("/", "submit-answer", srv.submitAnswer)
	io.OnEvent("/", "cancel-room", srv.cancelRoom)

	io.OnError("/", func(s socketio.Conn, e error) {
		log.Error().Str("sid", s.ID()).Err(e).Msg("socket error")
	})

	io.OnDisconnect("/", func(s socketio.Conn, reason string) {
		if sess, ok := srv.tracker.Lookup(s.ID()); ok {
			if room, err := srv.registry.Get(sess.RoomID); err == nil {
				room.Disconnect(sess.UserID)
			}
			srv.tracker.Unbind(s.ID())
		}
		log.Info().Str("sid", s.ID()).Str("reason", reason).Msg("socket disconnected")
	})

	go func() {
		if err := io.Serve(); err != nil {
			log.Error().Err(err).Msg("socket.io serve")
		}
	}()

	r.GET("/socket.io/*any", gin.WrapH(io))
	r.POST("/socket.io/*any", gin.WrapH(io))
	r.OPTIONS("/socket.io/*any", func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Status(http.StatusNoContent)
	})

	return io
}

// authenticate binds the connection to a user. With a JWT secret configured
// the token is mandatory; without one (local play) a display name is enough.
func (srv *Server) authenticate(s socketio.Conn, payload authPayload) map[string]any {
	ctx := connCtx(s)
	if srv.secret != "" {
		claims, err := auth.ParseToken(srv.secret, payload.Token)
		if err != nil {
			return srv.errEvent(s, "unauthorized", "invalid or expired token")
		}
		ctx.UserID = claims.UserID
		ctx.Name = claims.Name
	} else {
		ctx.UserID = uuid.NewString()
		ctx.Name = payload.Name
		if ctx.Name == "" {
			ctx.Name = "Player"
		}
	}
	log.Info().Str("sid", s.ID()).Str("userId", ctx.UserID).Msg("auth")
	return map[string]any{"userId": ctx.UserID, "name": ctx.Name}
}

func (srv *Server) createRoom(s socketio.Conn, payload createRoomPayload) map[string]any {
	ctx, ok := srv.gate(s)
	if !ok {
		return nil
	}
	cfg := game.RoomConfig{
		Topic:         payload.Topic,
		Difficulty:    payload.Difficulty,
		QuestionCount: payload.QuestionCount,
		MaxPlayers:    payload.MaxPlayers,
		Mode:          payload.Mode,
	}
	if cfg.QuestionCount <= 0 {
		cfg.QuestionCount = 5
	}
	questions := srv.fetchQuestions(cfg)
	room, err := srv.registry.CreateRoom(cfg, ctx.UserID, ctx.Name, questions)
	if err != nil {
		return srv.errFrom(s, err)
	}
	ctx.RoomID = room.ID()
	s.Join(room.ID())
	srv.tracker.Bind(s.ID(), room.ID(), ctx.UserID)
	// the registry's broadcast fires before this socket joins the room, so the
	// creator gets the event directly
	s.Emit(game.EventRoomCreated, room.State())
	log.Info().Str("sid", s.ID()).Str("room", room.ID()).Msg("create-room")
	return map[string]any{"roomId": room.ID(), "room": room.State()}
}

func (srv *Server) joinRoom(s socketio.Conn, payload roomPayload) map[string]any {
	ctx, ok := srv.gate(s)
	if !ok {
		return nil
	}
	room, err := srv.lookupRoom(payload.RoomID)
	if err != nil {
		return srv.errFrom(s, err)
	}
	if err := room.Join(ctx.UserID, ctx.Name); err != nil {
		return srv.errFrom(s, err)
	}
	ctx.RoomID = room.ID()
	s.Join(room.ID())
	srv.tracker.Bind(s.ID(), room.ID(), ctx.UserID)
	s.Emit(game.EventRoomJoined, room.GameState())
	log.Info().Str("sid", s.ID()).Str("room", room.ID()).Str("userId", ctx.UserID).Msg("join-room")
	return map[string]any{"roomId": room.ID()}
}

func (srv *Server) leaveRoom(s socketio.Conn, payload roomPayload) map[string]any {
	ctx, ok := srv.gate(s)
	if !ok {
		return nil
	}
	room, err := srv.lookupRoom(payload.RoomID)
	if err != nil {
		return srv.errFrom(s, err)
	}
	if err := room.Leave(ctx.UserID); err != nil {
		return srv.errFrom(s, err)
	}
	s.Leave(room.ID())
	srv.tracker.Unbind(s.ID())
	ctx.RoomID = ""
	s.Emit(game.EventRoomLeft, map[string]any{"roomId": room.ID()})
	log.Info().Str("sid", s.ID()).Str("room", room.ID()).Msg("leave-room")
	return map[string]any{"ok": true}
}

func (srv *Server) playerReady(s socketio.Conn, payload roomPayload) map[string]any {
	ctx, ok := srv.gate(s)
	if !ok {
		return nil
	}
	room, err := srv.lookupRoom(payload.RoomID)
	if err != nil {
		return srv.errFrom(s, err)
	}
	if err := room.Ready(ctx.UserID); err != nil {
		return srv.errFrom(s, err)
	}
	return map[string]any{"ok": true}
}

func (srv *Server) startGame(s socketio.Conn, payload roomPayload) map[string]any {
	ctx, ok := srv.gate(s)
	if !ok {
		return nil
	}
	room, err := srv.lookupRoom(payload.RoomID)
	if err != nil {
		return srv.errFrom(s, err)
	}
	if err := room.Start(ctx.UserID); err != nil {
		return srv.errFrom(s, err)
	}
	log.Info().Str("room", room.ID()).Msg("start-game")
	return map[string]any{"ok": true}
}

func (srv *Server) submitAnswer(s socketio.Conn, payload answerPayload) map[string]any {
	ctx, ok := srv.gate(s)
	if !ok {
		return nil
	}
	room, err := srv.lookupRoom(payload.RoomID)
	if err != nil {
		return srv.errFrom(s, err)
	}
	spent := time.Duration(payload.TimeSpentMS) * time.Millisecond
	if err := room.SubmitAnswer(ctx.UserID, payload.QuestionID, payload.AnswerIndex, spent); err != nil {
		return srv.errFrom(s, err)
	}
	return map[string]any{"ok": true}
}

func (srv *Server) cancelRoom(s socketio.Conn, payload roomPayload) map[string]any {
	ctx, ok := srv.gate(s)
	if !ok {
		return nil
	}
	room, err := srv.lookupRoom(payload.RoomID)
	if err != nil {
		return srv.errFrom(s, err)
	}
	if err := room.Cancel(ctx.UserID); err != nil {
		return srv.errFrom(s, err)
	}
	log.Info().Str("room", room.ID()).Msg("cancel-room")
	return map[string]any{"ok": true}
}

// gate enforces authentication plus the per-connection rate limit before any
// game action reaches the core.
func (srv *Server) gate(s socketio.Conn) (*ConnCtx, bool) {
	ctx := connCtx(s)
	if !ctx.limiter.Allow() {
		srv.errEvent(s, "rate_limited", "too many requests")
		return nil, false
	}
	if ctx.UserID == "" {
		srv.errEvent(s, "validation_error", "authenticate first")
		return nil, false
	}
	return ctx, true
}

func (srv *Server) lookupRoom(roomID string) (*game.Room, error) {
	if !roomIDPattern.MatchString(roomID) {
		return nil, game.ErrValidation
	}
	return srv.registry.Get(roomID)
}

// fetchQuestions asks the configured provider and falls back to the built-in
// bank so room creation never fails on provider trouble.
func (srv *Server) fetchQuestions(cfg game.RoomConfig) []game.Question {
	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()
	if srv.provider != nil {
		qs, err := srv.provider.Questions(ctx, cfg.Topic, cfg.Difficulty, cfg.QuestionCount)
		if err == nil && len(qs) > 0 {
			return qs
		}
		if err != nil {
			log.Warn().Err(err).Str("topic", cfg.Topic).Msg("question provider failed, using bank")
		}
	}
	qs, err := srv.fallback.Questions(ctx, cfg.Topic, cfg.Difficulty, cfg.QuestionCount)
	if err != nil {
		return nil
	}
	return qs
}

func (srv *Server) errFrom(s socketio.Conn, err error) map[string]any {
	return srv.errEvent(s, game.Code(err), err.Error())
}

func (srv *Server) errEvent(s socketio.Conn, code, message string) map[string]any {
	s.Emit("error", map[string]any{"code": code, "message": message})
	return map[string]any{"error": message}
}

func connCtx(s socketio.Conn) *ConnCtx {
	if ctx, ok := s.Context().(*ConnCtx); ok {
		return ctx
	}
	ctx := &ConnCtx{limiter: rate.NewLimiter(5, 10)}
	s.SetContext(ctx)
	return ctx
}
