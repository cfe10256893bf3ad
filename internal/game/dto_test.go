package game

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestRoomStateRoundTrip(t *testing.T) {
	_, room, _ := testRoom(t, 2, 3, Options{})
	readyAll(t, room)
	if err := room.Start("host"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := room.SubmitAnswer("p1", "q1", 0, time.Second); err != nil {
		t.Fatalf("answer: %v", err)
	}

	st := room.State()
	restored := FromState(st, makeQuestions(3), Options{})
	st2 := restored.State()

	if st2.RoomID != st.RoomID {
		t.Fatalf("roomId not preserved: %s vs %s", st2.RoomID, st.RoomID)
	}
	if st2.Status != st.Status {
		t.Fatalf("status not preserved: %s vs %s", st2.Status, st.Status)
	}
	if st2.CurrentQuestionIndex != st.CurrentQuestionIndex {
		t.Fatalf("question index not preserved: %d vs %d", st2.CurrentQuestionIndex, st.CurrentQuestionIndex)
	}
	if len(st2.Players) != len(st.Players) {
		t.Fatalf("player count not preserved: %d vs %d", len(st2.Players), len(st.Players))
	}
	for i := range st.Players {
		if st2.Players[i].ID != st.Players[i].ID {
			t.Fatalf("player %d identity not preserved: %s vs %s", i, st2.Players[i].ID, st.Players[i].ID)
		}
	}
}

func TestGameStateHidesCorrectIndex(t *testing.T) {
	_, room, _ := testRoom(t, 1, 1, Options{})
	readyAll(t, room)
	if err := room.Start("host"); err != nil {
		t.Fatalf("start: %v", err)
	}
	gs := room.GameState()
	if gs.Question == nil {
		t.Fatal("question should be active")
	}
	b, err := json.Marshal(gs)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(b), "correctIndex") {
		t.Fatal("client-facing game state must not expose the correct index")
	}
}

func TestStateIsACopy(t *testing.T) {
	_, room, _ := testRoom(t, 1, 1, Options{})
	st := room.State()
	st.Players[0].Score = 9999
	if room.State().Players[0].Score == 9999 {
		t.Fatal("mutating a snapshot must not affect room state")
	}
}
