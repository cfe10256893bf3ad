package game

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultMaxRooms      = 1000
	DefaultRoomTTL       = time.Hour
	DefaultSweepInterval = 5 * time.Minute
)

type RegistryConfig struct {
	MaxRooms      int
	TTL           time.Duration
	SweepInterval time.Duration
	Room          Options
	Sink          EventSink
	// OnResult receives the summary of every finished game, typically wired
	// to the history recorder. Called on its own goroutine.
	OnResult func(Summary)
}

func (c RegistryConfig) withDefaults() RegistryConfig {
	if c.MaxRooms <= 0 {
		c.MaxRooms = DefaultMaxRooms
	}
	if c.TTL <= 0 {
		c.TTL = DefaultRoomTTL
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = DefaultSweepInterval
	}
	return c
}

// Registry owns every active room, keyed by room ID. It is the only shared
// mutable structure across connections; each room serializes its own
// mutations, so registry operations never hold a lock across room calls.
type Registry struct {
	mu    sync.RWMutex
	cfg   RegistryConfig
	rooms map[string]*Room
	stop  chan struct{}
	once  sync.Once
}

func NewRegistry(cfg RegistryConfig) *Registry {
	return &Registry{
		cfg:   cfg.withDefaults(),
		rooms: make(map[string]*Room),
		stop:  make(chan struct{}),
	}
}

// SetSink wires the outbound event sink. Call before any rooms are created;
// the gateway and registry reference each other, so one side is wired late.
func (g *Registry) SetSink(s EventSink) {
	g.mu.Lock()
	g.cfg.Sink = s
	g.mu.Unlock()
}

// CreateRoom allocates a room with a fresh ID and the given host as its first
// member.
func (g *Registry) CreateRoom(cfg RoomConfig, hostID, hostName string, questions []Question) (*Room, error) {
	if cfg.MaxPlayers == 0 {
		cfg.MaxPlayers = DefaultMaxPlayers
	}
	if cfg.MaxPlayers < MinPlayers || cfg.MaxPlayers > MaxPlayersLimit {
		return nil, fmt.Errorf("%w: maxPlayers must be between %d and %d", ErrValidation, MinPlayers, MaxPlayersLimit)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: room needs at least one question", ErrValidation)
	}
	cfg.QuestionCount = len(questions)

	g.mu.Lock()
	if len(g.rooms) >= g.cfg.MaxRooms {
		g.mu.Unlock()
		return nil, ErrRegistryFull
	}
	id := newRoomID()
	for g.rooms[id] != nil {
		id = newRoomID()
	}
	r := newRoom(id, cfg, questions, g.cfg.Room)
	r.sink = g.cfg.Sink
	r.onTerminal = g.roomTerminated
	host := &Player{
		ID:       hostID,
		Name:     hostName,
		Status:   PlayerWaiting,
		IsHost:   true,
		JoinedAt: time.Now(),
	}
	r.players = append(r.players, host)
	r.hostID = hostID
	g.rooms[id] = r
	g.mu.Unlock()

	r.publish([]Event{{EventRoomCreated, r.State()}})
	log.Info().Str("room", id).Str("host", hostID).Str("topic", cfg.Topic).Msg("room created")
	return r, nil
}

func (g *Registry) Get(id string) (*Room, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r := g.rooms[id]
	if r == nil {
		return nil, ErrRoomNotFound
	}
	return r, nil
}

func (g *Registry) Remove(id string) {
	g.mu.Lock()
	delete(g.rooms, id)
	g.mu.Unlock()
}

func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}

// RoomSummary is the public listing shape served over HTTP.
type RoomSummary struct {
	RoomID     string     `json:"roomId"`
	Status     RoomStatus `json:"status"`
	Players    int        `json:"players"`
	MaxPlayers int        `json:"maxPlayers"`
	Topic      string     `json:"topic"`
}

func (g *Registry) Summaries() []RoomSummary {
	g.mu.RLock()
	rooms := make([]*Room, 0, len(g.rooms))
	for _, r := range g.rooms {
		rooms = append(rooms, r)
	}
	g.mu.RUnlock()

	out := make([]RoomSummary, 0, len(rooms))
	for _, r := range rooms {
		st := r.State()
		out = append(out, RoomSummary{
			RoomID:     st.RoomID,
			Status:     st.Status,
			Players:    len(st.Players),
			MaxPlayers: st.Config.MaxPlayers,
			Topic:      st.Config.Topic,
		})
	}
	return out
}

func (g *Registry) roomTerminated(r *Room, sum *Summary) {
	g.Remove(r.ID())
	log.Info().Str("room", r.ID()).Str("status", string(r.Status())).Msg("room removed")
	if sum != nil && g.cfg.OnResult != nil {
		go g.cfg.OnResult(*sum)
	}
}

// Start launches the periodic TTL sweep. Stop terminates it.
func (g *Registry) Start() {
	go func() {
		ticker := time.NewTicker(g.cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case now := <-ticker.C:
				g.Sweep(now)
			case <-g.stop:
				return
			}
		}
	}()
}

func (g *Registry) Stop() {
	g.once.Do(func() { close(g.stop) })
}

// Sweep expires rooms idle longer than the TTL. Expiry re-checks activity
// under each room's own lock, so an operation racing the sweep keeps its room.
func (g *Registry) Sweep(now time.Time) int {
	g.mu.RLock()
	rooms := make([]*Room, 0, len(g.rooms))
	for _, r := range g.rooms {
		rooms = append(rooms, r)
	}
	g.mu.RUnlock()

	cutoff := now.Add(-g.cfg.TTL)
	expired := 0
	for _, r := range rooms {
		if r.ExpireIfIdle(cutoff) {
			expired++
		}
	}
	if expired > 0 {
		log.Info().Int("expired", expired).Msg("room sweep")
	}
	return expired
}

const roomIDAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func newRoomID() string {
	b := make([]byte, 8)
	for i := range b {
		b[i] = roomIDAlphabet[rand.Intn(len(roomIDAlphabet))]
	}
	return string(b)
}
