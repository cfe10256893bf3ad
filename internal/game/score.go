package game

import (
	"sort"
	"time"
)

// ScoreFunc computes the points awarded for a single answer. The formula is
// pluggable; rooms fall back to DefaultScore when none is configured.
type ScoreFunc func(correct bool, timeSpent, limit time.Duration) int

const (
	baseScore     = 100
	maxSpeedBonus = 50
)

// DefaultScore awards a flat base per correct answer plus a speed bonus that
// scales linearly with the time remaining when the answer arrived. Wrong
// answers score zero.
func DefaultScore(correct bool, timeSpent, limit time.Duration) int {
	if !correct {
		return 0
	}
	if timeSpent < 0 {
		timeSpent = 0
	}
	if limit <= 0 || timeSpent >= limit {
		return baseScore
	}
	bonus := int(int64(maxSpeedBonus) * int64(limit-timeSpent) / int64(limit))
	return baseScore + bonus
}

type LeaderboardEntry struct {
	Rank             int    `json:"rank"`
	PlayerID         string `json:"playerId"`
	Name             string `json:"name"`
	Score            int    `json:"score"`
	CorrectAnswers   int    `json:"correctAnswers"`
	AnswersSubmitted int    `json:"answersSubmitted"`
}

// rankLocked produces the ranked standings for the room's current players:
// score descending, then correct answers descending, then join order. The
// caller must hold r.mu.
func (r *Room) rankLocked() []LeaderboardEntry {
	players := make([]*Player, len(r.players))
	copy(players, r.players)
	sort.SliceStable(players, func(i, j int) bool {
		if players[i].Score != players[j].Score {
			return players[i].Score > players[j].Score
		}
		if players[i].CorrectAnswers != players[j].CorrectAnswers {
			return players[i].CorrectAnswers > players[j].CorrectAnswers
		}
		return players[i].JoinedAt.Before(players[j].JoinedAt)
	})
	entries := make([]LeaderboardEntry, 0, len(players))
	for i, p := range players {
		entries = append(entries, LeaderboardEntry{
			Rank:             i + 1,
			PlayerID:         p.ID,
			Name:             p.Name,
			Score:            p.Score,
			CorrectAnswers:   p.CorrectAnswers,
			AnswersSubmitted: p.AnswersSubmitted,
		})
	}
	return entries
}
