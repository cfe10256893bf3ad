package game

import (
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"
)

func TestCreateRoomGeneratesValidUniqueIDs(t *testing.T) {
	reg := NewRegistry(RegistryConfig{})
	pattern := regexp.MustCompile(`^[A-Z0-9]{8}$`)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		room, err := reg.CreateRoom(RoomConfig{}, fmt.Sprintf("u%d", i), "U", makeQuestions(1))
		if err != nil {
			t.Fatalf("create room %d: %v", i, err)
		}
		if !pattern.MatchString(room.ID()) {
			t.Fatalf("room id %q does not match pattern", room.ID())
		}
		if seen[room.ID()] {
			t.Fatalf("duplicate room id %q", room.ID())
		}
		seen[room.ID()] = true
	}
}

func TestRegistryCapacity(t *testing.T) {
	reg := NewRegistry(RegistryConfig{MaxRooms: 2})
	for i := 0; i < 2; i++ {
		if _, err := reg.CreateRoom(RoomConfig{}, fmt.Sprintf("u%d", i), "U", makeQuestions(1)); err != nil {
			t.Fatalf("create room %d: %v", i, err)
		}
	}
	if _, err := reg.CreateRoom(RoomConfig{}, "u3", "U", makeQuestions(1)); !errors.Is(err, ErrRegistryFull) {
		t.Fatalf("expected ErrRegistryFull, got %v", err)
	}
}

func TestCreateRoomValidatesConfig(t *testing.T) {
	reg := NewRegistry(RegistryConfig{})
	if _, err := reg.CreateRoom(RoomConfig{MaxPlayers: 9}, "u", "U", makeQuestions(1)); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for maxPlayers=9, got %v", err)
	}
	if _, err := reg.CreateRoom(RoomConfig{MaxPlayers: 1}, "u", "U", makeQuestions(1)); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for maxPlayers=1, got %v", err)
	}
	if _, err := reg.CreateRoom(RoomConfig{}, "u", "U", nil); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for empty question set, got %v", err)
	}
}

func TestGetMissingRoom(t *testing.T) {
	reg := NewRegistry(RegistryConfig{})
	if _, err := reg.Get("NOPENOPE"); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestSweepExpiresIdleRooms(t *testing.T) {
	reg := NewRegistry(RegistryConfig{TTL: 10 * time.Millisecond})
	room, err := reg.CreateRoom(RoomConfig{}, "u", "U", makeQuestions(1))
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	if expired := reg.Sweep(time.Now()); expired != 1 {
		t.Fatalf("expected 1 expired room, got %d", expired)
	}
	if _, err := reg.Get(room.ID()); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("late lookup should be ErrRoomNotFound, got %v", err)
	}
	if got := room.Status(); got != StatusCancelled {
		t.Fatalf("expired room should be cancelled, got %s", got)
	}
}

func TestSweepSkipsRecentlyActiveRooms(t *testing.T) {
	reg := NewRegistry(RegistryConfig{TTL: 10 * time.Millisecond})
	room, err := reg.CreateRoom(RoomConfig{}, "u", "U", makeQuestions(1))
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	room.Touch()
	if expired := reg.Sweep(time.Now()); expired != 0 {
		t.Fatalf("touched room must survive the sweep, expired %d", expired)
	}
	if _, err := reg.Get(room.ID()); err != nil {
		t.Fatalf("room should still be registered: %v", err)
	}
}

func TestFinishedGameReportsResult(t *testing.T) {
	results := make(chan Summary, 1)
	reg := NewRegistry(RegistryConfig{
		OnResult: func(sum Summary) { results <- sum },
	})
	room, err := reg.CreateRoom(RoomConfig{Topic: "history"}, "host", "H", makeQuestions(1))
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	if err := room.Join("p1", "P1"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := room.Ready("p1"); err != nil {
		t.Fatalf("ready: %v", err)
	}
	if err := room.Start("host"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := room.SubmitAnswer("host", "q1", 0, time.Second); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if err := room.SubmitAnswer("p1", "q1", 1, time.Second); err != nil {
		t.Fatalf("answer: %v", err)
	}

	select {
	case sum := <-results:
		if sum.RoomID != room.ID() || sum.Topic != "history" {
			t.Fatalf("unexpected summary: %+v", sum)
		}
		if len(sum.Standings) != 2 {
			t.Fatalf("expected 2 standings, got %d", len(sum.Standings))
		}
		if sum.Standings[0].PlayerID != "host" {
			t.Fatalf("correct answerer should rank first: %+v", sum.Standings)
		}
	case <-time.After(time.Second):
		t.Fatal("result callback should fire after the game finishes")
	}
}

func TestTracker(t *testing.T) {
	tr := NewTracker()
	tr.Bind("conn1", "ROOMCODE", "user1")
	sess, ok := tr.Lookup("conn1")
	if !ok || sess.RoomID != "ROOMCODE" || sess.UserID != "user1" {
		t.Fatalf("lookup mismatch: %+v ok=%v", sess, ok)
	}
	tr.Unbind("conn1")
	if _, ok := tr.Lookup("conn1"); ok {
		t.Fatal("unbound connection should not resolve")
	}
}
