package game

import "time"

// RoomState is the serializable snapshot broadcast to clients. It carries
// value copies only; no internal object identity escapes the room.
type RoomState struct {
	RoomID               string     `json:"roomId"`
	HostID               string     `json:"hostId"`
	Status               RoomStatus `json:"status"`
	Config               RoomConfig `json:"config"`
	Players              []Player   `json:"players"`
	CurrentQuestionIndex int        `json:"currentQuestionIndex"`
	QuestionCount        int        `json:"questionCount"`
	CreatedAt            time.Time  `json:"createdAt"`
	LastActive           time.Time  `json:"lastActive"`
}

// QuestionView is the client-facing shape of the active question. It
// deliberately omits the correct index.
type QuestionView struct {
	ID        string    `json:"id"`
	Index     int       `json:"index"`
	Prompt    string    `json:"prompt"`
	Options   []string  `json:"options"`
	StartedAt time.Time `json:"startedAt"`
	Deadline  time.Time `json:"deadline"`
}

type GameState struct {
	Room        RoomState          `json:"room"`
	Question    *QuestionView      `json:"question,omitempty"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

func (r *Room) State() RoomState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stateLocked()
}

func (r *Room) stateLocked() RoomState {
	players := make([]Player, 0, len(r.players))
	for _, p := range r.players {
		players = append(players, *p)
	}
	return RoomState{
		RoomID:               r.id,
		HostID:               r.hostID,
		Status:               r.status,
		Config:               r.config,
		Players:              players,
		CurrentQuestionIndex: r.questionIndex,
		QuestionCount:        len(r.questions),
		CreatedAt:            r.createdAt,
		LastActive:           r.lastActive,
	}
}

func (r *Room) GameState() GameState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gameStateLocked()
}

func (r *Room) gameStateLocked() GameState {
	gs := GameState{
		Room:        r.stateLocked(),
		Leaderboard: r.rankLocked(),
	}
	if r.status == StatusPlaying && r.questionPhase == QuestionActive {
		q := r.questions[r.questionIndex]
		gs.Question = &QuestionView{
			ID:        q.ID,
			Index:     r.questionIndex,
			Prompt:    q.Prompt,
			Options:   q.Options,
			StartedAt: r.questionStart,
			Deadline:  r.questionEnd,
		}
	}
	return gs
}

func (r *Room) Leaderboard() []LeaderboardEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rankLocked()
}

// FromState rebuilds a room from a snapshot, for example when restoring
// registry contents from a replicated backing store. Timers are not rearmed;
// the restored room resumes from WAITING-compatible handling of its status.
func FromState(st RoomState, questions []Question, opts Options) *Room {
	r := newRoom(st.RoomID, st.Config, questions, opts)
	r.hostID = st.HostID
	r.status = st.Status
	r.questionIndex = st.CurrentQuestionIndex
	r.createdAt = st.CreatedAt
	r.lastActive = st.LastActive
	r.players = make([]*Player, 0, len(st.Players))
	for _, p := range st.Players {
		cp := p
		r.players = append(r.players, &cp)
	}
	return r
}
