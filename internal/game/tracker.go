package game

import "sync"

// Session ties a transport connection to the room and user it acts for.
type Session struct {
	RoomID string
	UserID string
}

// Tracker maps connection IDs to sessions so a disconnect can locate the
// affected room without scanning the registry.
type Tracker struct {
	mu     sync.RWMutex
	byConn map[string]Session
}

func NewTracker() *Tracker {
	return &Tracker{byConn: make(map[string]Session)}
}

func (t *Tracker) Bind(connID, roomID, userID string) {
	t.mu.Lock()
	t.byConn[connID] = Session{RoomID: roomID, UserID: userID}
	t.mu.Unlock()
}

func (t *Tracker) Lookup(connID string) (Session, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.byConn[connID]
	return s, ok
}

func (t *Tracker) Unbind(connID string) {
	t.mu.Lock()
	delete(t.byConn, connID)
	t.mu.Unlock()
}
