package ws

import (
	"net"
	"net/http"
	"net/url"
	"sync"
	"testing"

	"golang.org/x/time/rate"

	"triviarush/internal/game"
)

// fakeConn stands in for a socket.io connection so handlers can run without a
// live server.
type fakeConn struct {
	id  string
	ctx interface{}

	mu     sync.Mutex
	rooms  []string
	events []emitted
}

type emitted struct {
	name string
	args []interface{}
}

func (c *fakeConn) ID() string                { return c.id }
func (c *fakeConn) Close() error              { return nil }
func (c *fakeConn) Namespace() string         { return "/" }
func (c *fakeConn) URL() url.URL              { return url.URL{} }
func (c *fakeConn) LocalAddr() net.Addr       { return nil }
func (c *fakeConn) RemoteAddr() net.Addr      { return nil }
func (c *fakeConn) RemoteHeader() http.Header { return nil }
func (c *fakeConn) Context() interface{}      { return c.ctx }
func (c *fakeConn) SetContext(v interface{})  { c.ctx = v }
func (c *fakeConn) LeaveAll()                 {}

func (c *fakeConn) Join(room string) {
	c.mu.Lock()
	c.rooms = append(c.rooms, room)
	c.mu.Unlock()
}

func (c *fakeConn) Leave(room string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, r := range c.rooms {
		if r == room {
			c.rooms = append(c.rooms[:i], c.rooms[i+1:]...)
			return
		}
	}
}

func (c *fakeConn) Rooms() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.rooms...)
}

func (c *fakeConn) Emit(name string, v ...interface{}) {
	c.mu.Lock()
	c.events = append(c.events, emitted{name, v})
	c.mu.Unlock()
}

func (c *fakeConn) sawEvent(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ev := range c.events {
		if ev.name == name {
			return true
		}
	}
	return false
}

func testServer() *Server {
	return New(game.NewRegistry(game.RegistryConfig{}), game.NewTracker(), nil, "")
}

func authedConn(id, userID, name string) *fakeConn {
	return &fakeConn{id: id, ctx: &ConnCtx{
		UserID:  userID,
		Name:    name,
		limiter: rate.NewLimiter(100, 100),
	}}
}

func TestCreateRoomDeliversRoomCreatedToCreator(t *testing.T) {
	srv := testServer()
	c := authedConn("conn1", "u1", "Uma")

	ack := srv.createRoom(c, createRoomPayload{Topic: "science", QuestionCount: 2, MaxPlayers: 4})
	if ack == nil || ack["roomId"] == nil {
		t.Fatalf("create-room should ack with a room id, got %v", ack)
	}
	roomID := ack["roomId"].(string)
	if !roomIDPattern.MatchString(roomID) {
		t.Fatalf("room id %q does not match pattern", roomID)
	}

	joined := false
	for _, r := range c.Rooms() {
		if r == roomID {
			joined = true
		}
	}
	if !joined {
		t.Fatal("creator should be joined to the socket room")
	}
	// the broadcast at creation time predates the socket room membership, so
	// the creator must get the event on their own connection
	if !c.sawEvent(game.EventRoomCreated) {
		t.Fatal("creator should receive the room-created event")
	}
	if c.sawEvent("error") {
		t.Fatal("no error event expected on a valid create")
	}
}

func TestJoinRoomDeliversStateToJoiner(t *testing.T) {
	srv := testServer()
	host := authedConn("conn1", "u1", "Uma")
	ack := srv.createRoom(host, createRoomPayload{Topic: "science", QuestionCount: 1})
	roomID := ack["roomId"].(string)

	joiner := authedConn("conn2", "u2", "Vic")
	if ack := srv.joinRoom(joiner, roomPayload{RoomID: roomID}); ack == nil || ack["roomId"] != roomID {
		t.Fatalf("join-room should ack with the room id, got %v", ack)
	}
	if !joiner.sawEvent(game.EventRoomJoined) {
		t.Fatal("joiner should receive the room-joined event")
	}
}

func TestGateRejectsUnauthenticated(t *testing.T) {
	srv := testServer()
	c := &fakeConn{id: "conn1", ctx: &ConnCtx{limiter: rate.NewLimiter(100, 100)}}

	if ack := srv.createRoom(c, createRoomPayload{Topic: "science"}); ack != nil {
		t.Fatalf("unauthenticated create should not ack, got %v", ack)
	}
	if !c.sawEvent("error") {
		t.Fatal("unauthenticated event should emit an error event")
	}
}

func TestLookupRoomRejectsMalformedIDs(t *testing.T) {
	srv := testServer()
	for _, id := range []string{"", "short", "lowercase", "WAYTOOLONG", "ABCD-123"} {
		if _, err := srv.lookupRoom(id); err == nil {
			t.Fatalf("room id %q should be rejected", id)
		}
	}
}
