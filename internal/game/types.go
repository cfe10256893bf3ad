package game

import (
	"time"
)

type RoomStatus string

const (
	StatusWaiting   RoomStatus = "waiting"
	StatusStarting  RoomStatus = "starting"
	StatusPlaying   RoomStatus = "playing"
	StatusFinished  RoomStatus = "finished"
	StatusCancelled RoomStatus = "cancelled"
)

// Terminal reports whether no further transitions are possible.
func (s RoomStatus) Terminal() bool {
	return s == StatusFinished || s == StatusCancelled
}

type PlayerStatus string

const (
	PlayerWaiting      PlayerStatus = "waiting"
	PlayerReady        PlayerStatus = "ready"
	PlayerPlaying      PlayerStatus = "playing"
	PlayerAnswered     PlayerStatus = "answered"
	PlayerDisconnected PlayerStatus = "disconnected"
	PlayerFinished     PlayerStatus = "finished"
)

type QuestionPhase string

const (
	QuestionIdle     QuestionPhase = "idle"
	QuestionStarting QuestionPhase = "starting"
	QuestionActive   QuestionPhase = "active"
	QuestionEnded    QuestionPhase = "ended"
)

const (
	MinPlayers        = 2
	MaxPlayersLimit   = 4
	DefaultMaxPlayers = 4
)

type RoomConfig struct {
	Topic         string `json:"topic"`
	Difficulty    string `json:"difficulty"`
	QuestionCount int    `json:"questionCount"`
	MaxPlayers    int    `json:"maxPlayers"`
	Mode          string `json:"mode"`
}

type Question struct {
	ID           string   `json:"id"`
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
}

type Player struct {
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	Status           PlayerStatus `json:"status"`
	IsHost           bool         `json:"isHost"`
	Score            int          `json:"score"`
	AnswersSubmitted int          `json:"answersSubmitted"`
	CorrectAnswers   int          `json:"correctAnswers"`
	JoinedAt         time.Time    `json:"joinedAt"`
}

// Answer is one player's recorded submission for the current question.
type Answer struct {
	PlayerID    string
	OptionIndex int
	TimeSpent   time.Duration
	Correct     bool
	ReceivedAt  time.Time
}

// Summary is handed to the game-history recorder after a room finishes.
type Summary struct {
	RoomID        string
	Topic         string
	Difficulty    string
	QuestionCount int
	StartedAt     time.Time
	FinishedAt    time.Time
	Standings     []LeaderboardEntry
}

// Event is an outbound broadcast produced by a room transition. Events are
// published only after the transition has committed.
type Event struct {
	Name    string
	Payload any
}

// EventSink receives room-scoped events for delivery to connected clients.
// Delivery is fire-and-forget; a slow sink must not block game logic.
type EventSink interface {
	Publish(roomID string, ev Event)
}

const (
	EventRoomCreated       = "room-created"
	EventRoomJoined        = "room-joined"
	EventRoomLeft          = "room-left"
	EventRoomUpdated       = "room-updated"
	EventPlayerJoined      = "player-joined"
	EventPlayerLeft        = "player-left"
	EventPlayerReady       = "player-ready"
	EventGameStarted       = "game-started"
	EventQuestionStarted   = "question-started"
	EventAnswerReceived    = "answer-received"
	EventQuestionEnded     = "question-ended"
	EventGameEnded         = "game-ended"
	EventLeaderboardUpdate = "leaderboard-update"
)
