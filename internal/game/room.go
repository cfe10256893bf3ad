package game

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Options tunes per-room behavior. A zero QuestionTime or Score falls back to
// the default; a Countdown of exactly zero starts play immediately, a negative
// one selects the default countdown.
type Options struct {
	QuestionTime    time.Duration
	Countdown       time.Duration
	RequireAllReady bool
	Score           ScoreFunc
}

const (
	DefaultQuestionTime = 30 * time.Second
	DefaultCountdown    = 5 * time.Second
)

func (o Options) withDefaults() Options {
	if o.QuestionTime <= 0 {
		o.QuestionTime = DefaultQuestionTime
	}
	if o.Countdown < 0 {
		o.Countdown = DefaultCountdown
	}
	if o.Score == nil {
		o.Score = DefaultScore
	}
	return o
}

// Room is a single game instance. All mutation happens under mu; events are
// published only after the lock is released, so the new state is committed
// before any broadcast goes out. Rooms are independent of each other: no
// cross-room lock exists.
type Room struct {
	mu sync.Mutex

	id      string
	hostID  string
	status  RoomStatus
	config  RoomConfig
	players []*Player

	questions     []Question
	questionIndex int
	questionPhase QuestionPhase
	questionStart time.Time
	questionEnd   time.Time
	answers       map[string]*Answer

	createdAt  time.Time
	lastActive time.Time
	startedAt  time.Time
	finishedAt time.Time

	opts Options

	// timerGen guards against stale deadline/countdown callbacks: every arm
	// and cancel bumps the generation, and a firing timer re-checks it under
	// the lock before acting.
	timer    *time.Timer
	timerGen uint64

	sink       EventSink
	onTerminal func(r *Room, sum *Summary)
	finalized  bool
}

func newRoom(id string, cfg RoomConfig, questions []Question, opts Options) *Room {
	now := time.Now()
	return &Room{
		id:            id,
		status:        StatusWaiting,
		config:        cfg,
		questions:     questions,
		questionPhase: QuestionIdle,
		answers:       make(map[string]*Answer),
		createdAt:     now,
		lastActive:    now,
		opts:          opts.withDefaults(),
	}
}

func (r *Room) ID() string { return r.id }

func (r *Room) Status() RoomStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func (r *Room) LastActive() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastActive
}

// Touch refreshes the room's TTL clock.
func (r *Room) Touch() {
	r.mu.Lock()
	r.lastActive = time.Now()
	r.mu.Unlock()
}

func (r *Room) publish(evs []Event) {
	if r.sink == nil {
		return
	}
	for _, ev := range evs {
		r.sink.Publish(r.id, ev)
	}
}

// maybeFinalize fires the terminal callback exactly once after the room
// reaches FINISHED or CANCELLED. Finished games carry a Summary for the
// history recorder; cancelled ones do not.
func (r *Room) maybeFinalize() {
	r.mu.Lock()
	if !r.status.Terminal() || r.finalized {
		r.mu.Unlock()
		return
	}
	r.finalized = true
	var sum *Summary
	if r.status == StatusFinished {
		s := Summary{
			RoomID:        r.id,
			Topic:         r.config.Topic,
			Difficulty:    r.config.Difficulty,
			QuestionCount: len(r.questions),
			StartedAt:     r.startedAt,
			FinishedAt:    r.finishedAt,
			Standings:     r.rankLocked(),
		}
		sum = &s
	}
	cb := r.onTerminal
	r.mu.Unlock()
	if cb != nil {
		cb(r, sum)
	}
}

// Join adds a player to a waiting room, or re-attaches a known player after a
// disconnect. Identity persists for the life of the room.
func (r *Room) Join(userID, name string) error {
	r.mu.Lock()
	evs, err := r.joinLocked(userID, name, time.Now())
	r.mu.Unlock()
	r.publish(evs)
	return err
}

func (r *Room) joinLocked(userID, name string, now time.Time) ([]Event, error) {
	r.lastActive = now
	if p := r.playerLocked(userID); p != nil {
		return r.reconnectLocked(p), nil
	}
	if r.status != StatusWaiting {
		return nil, fmt.Errorf("%w: room is %s", ErrInvalidTransition, r.status)
	}
	if len(r.players) >= r.config.MaxPlayers {
		return nil, ErrRoomFull
	}
	p := &Player{
		ID:       userID,
		Name:     name,
		Status:   PlayerWaiting,
		JoinedAt: now,
	}
	r.players = append(r.players, p)
	return []Event{
		{EventPlayerJoined, map[string]any{"player": *p, "room": r.stateLocked()}},
	}, nil
}

func (r *Room) reconnectLocked(p *Player) []Event {
	if p.Status != PlayerDisconnected {
		return nil
	}
	switch r.status {
	case StatusPlaying:
		if _, answered := r.answers[p.ID]; answered && r.questionPhase == QuestionActive {
			p.Status = PlayerAnswered
		} else {
			p.Status = PlayerPlaying
		}
	case StatusFinished:
		p.Status = PlayerFinished
	default:
		p.Status = PlayerWaiting
	}
	return []Event{{EventRoomUpdated, r.stateLocked()}}
}

// Leave removes a player from the room. Leaving a room twice yields
// ErrPlayerNotFound rather than touching any state.
func (r *Room) Leave(userID string) error {
	r.mu.Lock()
	evs, err := r.leaveLocked(userID, time.Now())
	r.mu.Unlock()
	r.publish(evs)
	r.maybeFinalize()
	return err
}

func (r *Room) leaveLocked(userID string, now time.Time) ([]Event, error) {
	r.lastActive = now
	if r.status.Terminal() {
		return nil, ErrPlayerNotFound
	}
	idx := -1
	for i, p := range r.players {
		if p.ID == userID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrPlayerNotFound
	}
	wasHost := r.players[idx].IsHost
	r.players = append(r.players[:idx], r.players[idx+1:]...)
	delete(r.answers, userID)

	evs := []Event{{EventPlayerLeft, map[string]any{"playerId": userID, "room": r.stateLocked()}}}

	if len(r.players) == 0 {
		return append(evs, r.cancelRoomLocked(now)...), nil
	}
	if wasHost {
		evs = append(evs, r.reassignHostLocked()...)
	}
	evs = append(evs, r.afterMembershipChangeLocked(now)...)
	return evs, nil
}

// Disconnect marks a player as disconnected without removing them; they may
// rejoin within the room's TTL window.
func (r *Room) Disconnect(userID string) {
	r.mu.Lock()
	evs := r.disconnectLocked(userID, time.Now())
	r.mu.Unlock()
	r.publish(evs)
	r.maybeFinalize()
}

func (r *Room) disconnectLocked(userID string, now time.Time) []Event {
	r.lastActive = now
	p := r.playerLocked(userID)
	if p == nil || r.status.Terminal() || p.Status == PlayerDisconnected {
		return nil
	}
	p.Status = PlayerDisconnected
	var evs []Event
	if p.IsHost {
		evs = append(evs, r.reassignHostLocked()...)
	}
	evs = append(evs, Event{EventRoomUpdated, r.stateLocked()})
	// the disconnecting player may have been the last one everyone was
	// waiting on
	evs = append(evs, r.maybeEndQuestionLocked(now)...)
	return evs
}

// reassignHostLocked hands the host role to the earliest-joined player that is
// still connected, keeping exactly one host per room.
func (r *Room) reassignHostLocked() []Event {
	for _, p := range r.players {
		p.IsHost = false
	}
	for _, p := range r.players {
		if p.Status != PlayerDisconnected {
			p.IsHost = true
			r.hostID = p.ID
			return []Event{{EventRoomUpdated, r.stateLocked()}}
		}
	}
	// everyone is disconnected; keep the earliest member as nominal host
	if len(r.players) > 0 {
		r.players[0].IsHost = true
		r.hostID = r.players[0].ID
	}
	return []Event{{EventRoomUpdated, r.stateLocked()}}
}

// afterMembershipChangeLocked enforces the minimum-player policy after a
// leave: a PLAYING room below two players finishes early with the standings
// frozen, a STARTING room falls back to WAITING. Ready marks survive the
// fallback; the remaining players do not have to ready up again.
func (r *Room) afterMembershipChangeLocked(now time.Time) []Event {
	switch r.status {
	case StatusPlaying:
		if len(r.players) < MinPlayers {
			return r.finishLocked(now)
		}
		return r.maybeEndQuestionLocked(now)
	case StatusStarting:
		if len(r.players) < MinPlayers {
			r.cancelTimerLocked()
			r.status = StatusWaiting
			r.questionPhase = QuestionIdle
			return []Event{{EventRoomUpdated, r.stateLocked()}}
		}
	}
	return nil
}

// Ready marks a non-host player as ready to start. Duplicate calls are no-ops.
func (r *Room) Ready(userID string) error {
	r.mu.Lock()
	evs, err := r.readyLocked(userID, time.Now())
	r.mu.Unlock()
	r.publish(evs)
	return err
}

func (r *Room) readyLocked(userID string, now time.Time) ([]Event, error) {
	r.lastActive = now
	if r.status != StatusWaiting {
		return nil, fmt.Errorf("%w: room is %s", ErrInvalidTransition, r.status)
	}
	p := r.playerLocked(userID)
	if p == nil {
		return nil, ErrPlayerNotFound
	}
	if p.Status == PlayerReady {
		return nil, nil
	}
	p.Status = PlayerReady
	return []Event{
		{EventPlayerReady, map[string]any{"playerId": userID, "room": r.stateLocked()}},
	}, nil
}

// Start moves the room from WAITING to STARTING on the host's command and
// arms the countdown to the first question.
func (r *Room) Start(userID string) error {
	r.mu.Lock()
	evs, err := r.startLocked(userID, time.Now())
	r.mu.Unlock()
	r.publish(evs)
	r.maybeFinalize()
	return err
}

func (r *Room) startLocked(userID string, now time.Time) ([]Event, error) {
	r.lastActive = now
	if r.status != StatusWaiting {
		return nil, fmt.Errorf("%w: room is %s", ErrInvalidTransition, r.status)
	}
	if userID != r.hostID {
		return nil, fmt.Errorf("%w: only the host can start the game", ErrValidation)
	}
	if r.activeCountLocked() < MinPlayers {
		return nil, ErrInsufficientPlayers
	}
	if r.opts.RequireAllReady {
		for _, p := range r.players {
			if p.IsHost || p.Status == PlayerDisconnected {
				continue
			}
			if p.Status != PlayerReady {
				return nil, ErrNotAllReady
			}
		}
	}
	r.status = StatusStarting
	r.questionPhase = QuestionStarting
	r.startedAt = now
	evs := []Event{{EventGameStarted, map[string]any{
		"room":      r.stateLocked(),
		"countdown": r.opts.Countdown.Seconds(),
	}}}
	if r.opts.Countdown == 0 {
		return append(evs, r.beginPlayingLocked(now)...), nil
	}
	r.armTimerLocked(r.opts.Countdown, r.countdownFired)
	return evs, nil
}

func (r *Room) countdownFired(gen uint64) {
	r.mu.Lock()
	if gen != r.timerGen || r.status != StatusStarting {
		r.mu.Unlock()
		return
	}
	evs := r.beginPlayingLocked(time.Now())
	r.mu.Unlock()
	r.publish(evs)
	r.maybeFinalize()
}

func (r *Room) beginPlayingLocked(now time.Time) []Event {
	r.status = StatusPlaying
	for _, p := range r.players {
		if p.Status != PlayerDisconnected {
			p.Status = PlayerPlaying
		}
	}
	r.questionIndex = 0
	return r.startQuestionLocked(now)
}

func (r *Room) startQuestionLocked(now time.Time) []Event {
	if r.questionIndex >= len(r.questions) {
		// dispatch failure: the question set cannot serve the index. Park the
		// room in a terminal state instead of leaving it wedged.
		log.Error().Str("room", r.id).Int("index", r.questionIndex).
			Msg("no question to dispatch, cancelling room")
		return r.cancelRoomLocked(now)
	}
	r.questionPhase = QuestionActive
	r.questionStart = now
	r.questionEnd = now.Add(r.opts.QuestionTime)
	r.answers = make(map[string]*Answer)
	for _, p := range r.players {
		if p.Status == PlayerAnswered {
			p.Status = PlayerPlaying
		}
	}
	r.armTimerLocked(r.opts.QuestionTime, r.deadlineFired)
	return []Event{{EventQuestionStarted, r.gameStateLocked()}}
}

func (r *Room) deadlineFired(gen uint64) {
	r.mu.Lock()
	if gen != r.timerGen || r.status != StatusPlaying || r.questionPhase != QuestionActive {
		// a player-driven end won the race; this firing is a no-op
		r.mu.Unlock()
		return
	}
	evs := r.endQuestionLocked(time.Now())
	r.mu.Unlock()
	r.publish(evs)
	r.maybeFinalize()
}

func (r *Room) armTimerLocked(d time.Duration, fn func(gen uint64)) {
	r.timerGen++
	gen := r.timerGen
	r.timer = time.AfterFunc(d, func() { fn(gen) })
}

func (r *Room) cancelTimerLocked() {
	r.timerGen++
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

// SubmitAnswer records a player's answer for the current question. The first
// valid submission per player wins; duplicates are rejected. When every
// connected player has answered, the question ends without waiting for the
// deadline.
func (r *Room) SubmitAnswer(userID, questionID string, optionIndex int, timeSpent time.Duration) error {
	r.mu.Lock()
	evs, err := r.submitAnswerLocked(userID, questionID, optionIndex, timeSpent, time.Now())
	r.mu.Unlock()
	r.publish(evs)
	r.maybeFinalize()
	return err
}

func (r *Room) submitAnswerLocked(userID, questionID string, optionIndex int, timeSpent time.Duration, now time.Time) ([]Event, error) {
	r.lastActive = now
	if r.status != StatusPlaying || r.questionPhase != QuestionActive {
		return nil, fmt.Errorf("%w: no question is accepting answers", ErrInvalidTransition)
	}
	p := r.playerLocked(userID)
	if p == nil {
		return nil, ErrPlayerNotFound
	}
	if p.Status == PlayerDisconnected {
		return nil, fmt.Errorf("%w: player is disconnected", ErrValidation)
	}
	q := r.questions[r.questionIndex]
	if q.ID != questionID {
		return nil, fmt.Errorf("%w: %s is not the current question", ErrQuestionNotFound, questionID)
	}
	if _, dup := r.answers[userID]; dup {
		return nil, ErrDuplicateAnswer
	}
	if timeSpent < 0 {
		return nil, fmt.Errorf("%w: negative timeSpent", ErrValidation)
	}
	if optionIndex < 0 || optionIndex >= len(q.Options) {
		return nil, fmt.Errorf("%w: answer index out of range", ErrValidation)
	}
	if timeSpent > r.opts.QuestionTime {
		timeSpent = r.opts.QuestionTime
	}

	correct := optionIndex == q.CorrectIndex
	r.answers[userID] = &Answer{
		PlayerID:    userID,
		OptionIndex: optionIndex,
		TimeSpent:   timeSpent,
		Correct:     correct,
		ReceivedAt:  now,
	}
	p.AnswersSubmitted++
	if correct {
		p.CorrectAnswers++
	}
	p.Score += r.opts.Score(correct, timeSpent, r.opts.QuestionTime)
	p.Status = PlayerAnswered

	evs := []Event{
		{EventAnswerReceived, map[string]any{
			"playerId":   userID,
			"questionId": questionID,
			"answered":   len(r.answers),
			"active":     r.activeCountLocked(),
		}},
		{EventLeaderboardUpdate, map[string]any{"leaderboard": r.rankLocked()}},
	}
	evs = append(evs, r.maybeEndQuestionLocked(now)...)
	return evs, nil
}

func (r *Room) maybeEndQuestionLocked(now time.Time) []Event {
	if r.status != StatusPlaying || r.questionPhase != QuestionActive {
		return nil
	}
	active := 0
	for _, p := range r.players {
		if p.Status == PlayerDisconnected {
			continue
		}
		active++
		if _, ok := r.answers[p.ID]; !ok {
			return nil
		}
	}
	if active == 0 {
		return nil
	}
	return r.endQuestionLocked(now)
}

func (r *Room) endQuestionLocked(now time.Time) []Event {
	r.cancelTimerLocked()
	r.questionPhase = QuestionEnded
	q := r.questions[r.questionIndex]

	type answerView struct {
		PlayerID    string `json:"playerId"`
		OptionIndex int    `json:"optionIndex"`
		Correct     bool   `json:"correct"`
		TimeSpentMS int64  `json:"timeSpentMs"`
	}
	views := make([]answerView, 0, len(r.answers))
	for _, a := range r.answers {
		views = append(views, answerView{
			PlayerID:    a.PlayerID,
			OptionIndex: a.OptionIndex,
			Correct:     a.Correct,
			TimeSpentMS: a.TimeSpent.Milliseconds(),
		})
	}
	evs := []Event{{EventQuestionEnded, map[string]any{
		"questionId":   q.ID,
		"index":        r.questionIndex,
		"correctIndex": q.CorrectIndex,
		"answers":      views,
		"leaderboard":  r.rankLocked(),
	}}}

	if r.questionIndex+1 < len(r.questions) {
		r.questionIndex++
		return append(evs, r.startQuestionLocked(now)...)
	}
	return append(evs, r.finishLocked(now)...)
}

func (r *Room) finishLocked(now time.Time) []Event {
	if r.status.Terminal() {
		return nil
	}
	r.cancelTimerLocked()
	r.status = StatusFinished
	r.finishedAt = now
	r.questionPhase = QuestionEnded
	for _, p := range r.players {
		if p.Status != PlayerDisconnected {
			p.Status = PlayerFinished
		}
	}
	return []Event{{EventGameEnded, map[string]any{
		"room":        r.stateLocked(),
		"leaderboard": r.rankLocked(),
	}}}
}

// Cancel terminates the room on the host's command. Reachable from any
// non-terminal state.
func (r *Room) Cancel(userID string) error {
	r.mu.Lock()
	evs, err := r.cancelLocked(userID, time.Now())
	r.mu.Unlock()
	r.publish(evs)
	r.maybeFinalize()
	return err
}

func (r *Room) cancelLocked(userID string, now time.Time) ([]Event, error) {
	r.lastActive = now
	if r.status.Terminal() {
		return nil, fmt.Errorf("%w: room is %s", ErrInvalidTransition, r.status)
	}
	if userID != r.hostID {
		return nil, fmt.Errorf("%w: only the host can cancel the room", ErrValidation)
	}
	return r.cancelRoomLocked(now), nil
}

func (r *Room) cancelRoomLocked(now time.Time) []Event {
	if r.status.Terminal() {
		return nil
	}
	r.cancelTimerLocked()
	r.status = StatusCancelled
	r.finishedAt = now
	return []Event{{EventRoomUpdated, r.stateLocked()}}
}

// ExpireIfIdle cancels the room when it has seen no activity since cutoff.
// The check is re-done under the room lock so an in-flight operation that just
// touched the room wins over the sweep.
func (r *Room) ExpireIfIdle(cutoff time.Time) bool {
	r.mu.Lock()
	if r.status.Terminal() || r.lastActive.After(cutoff) {
		r.mu.Unlock()
		return false
	}
	evs := r.cancelRoomLocked(time.Now())
	r.mu.Unlock()
	r.publish(evs)
	r.maybeFinalize()
	return true
}

func (r *Room) playerLocked(userID string) *Player {
	for _, p := range r.players {
		if p.ID == userID {
			return p
		}
	}
	return nil
}

func (r *Room) activeCountLocked() int {
	n := 0
	for _, p := range r.players {
		if p.Status != PlayerDisconnected {
			n++
		}
	}
	return n
}
