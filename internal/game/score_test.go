package game

import (
	"testing"
	"time"
)

func TestDefaultScore(t *testing.T) {
	limit := 30 * time.Second
	if got := DefaultScore(false, time.Second, limit); got != 0 {
		t.Fatalf("wrong answer should score 0, got %d", got)
	}
	if got := DefaultScore(true, 0, limit); got != baseScore+maxSpeedBonus {
		t.Fatalf("instant correct answer should score %d, got %d", baseScore+maxSpeedBonus, got)
	}
	if got := DefaultScore(true, limit, limit); got != baseScore {
		t.Fatalf("slowest correct answer should score %d, got %d", baseScore, got)
	}
	if got := DefaultScore(true, 15*time.Second, limit); got != baseScore+maxSpeedBonus/2 {
		t.Fatalf("half-time answer should score %d, got %d", baseScore+maxSpeedBonus/2, got)
	}
	// out-of-range inputs are clamped, not rejected
	if got := DefaultScore(true, -time.Second, limit); got != baseScore+maxSpeedBonus {
		t.Fatalf("negative time should clamp to full bonus, got %d", got)
	}
	if got := DefaultScore(true, time.Minute, limit); got != baseScore {
		t.Fatalf("overlong time should clamp to base, got %d", got)
	}
}

func TestLeaderboardOrdering(t *testing.T) {
	base := time.Now()
	st := RoomState{
		RoomID: "ROOMCODE",
		HostID: "a",
		Status: StatusPlaying,
		Config: RoomConfig{MaxPlayers: 4},
		Players: []Player{
			{ID: "a", Name: "A", Score: 100, CorrectAnswers: 1, JoinedAt: base},
			{ID: "b", Name: "B", Score: 300, CorrectAnswers: 2, JoinedAt: base.Add(time.Second)},
			{ID: "c", Name: "C", Score: 100, CorrectAnswers: 2, JoinedAt: base.Add(2 * time.Second)},
			{ID: "d", Name: "D", Score: 100, CorrectAnswers: 1, JoinedAt: base.Add(3 * time.Second)},
		},
	}
	room := FromState(st, makeQuestions(1), Options{})
	lb := room.Leaderboard()

	want := []string{"b", "c", "a", "d"}
	if len(lb) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(lb))
	}
	for i, id := range want {
		if lb[i].PlayerID != id {
			t.Fatalf("rank %d: expected %s, got %s (full: %+v)", i+1, id, lb[i].PlayerID, lb)
		}
		if lb[i].Rank != i+1 {
			t.Fatalf("entry %d should carry rank %d, got %d", i, i+1, lb[i].Rank)
		}
	}
}

func TestCustomScoreFunc(t *testing.T) {
	flat := func(correct bool, _, _ time.Duration) int {
		if correct {
			return 10
		}
		return 0
	}
	_, room, _ := testRoom(t, 1, 1, Options{Score: flat})
	readyAll(t, room)
	if err := room.Start("host"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := room.SubmitAnswer("p1", "q1", 0, time.Second); err != nil {
		t.Fatalf("answer: %v", err)
	}
	for _, p := range room.State().Players {
		if p.ID == "p1" && p.Score != 10 {
			t.Fatalf("custom score func should apply, got %d", p.Score)
		}
	}
}
