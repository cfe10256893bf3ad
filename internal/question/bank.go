package question

import (
	"context"
	"errors"
	"math/rand"
	"strings"

	"github.com/google/uuid"

	"triviarush/internal/game"
)

// Bank serves questions from a built-in set so the server stays playable
// without an AI provider configured. Selection filters by topic and
// difficulty, falls back to the whole set when the filter comes up empty, and
// shuffles before taking count questions.
type Bank struct {
	entries []bankEntry
}

type bankEntry struct {
	Topic        string
	Difficulty   string
	Prompt       string
	Options      []string
	CorrectIndex int
}

func NewBank() *Bank {
	return &Bank{entries: defaultEntries}
}

func (b *Bank) Questions(_ context.Context, topic, difficulty string, count int) ([]game.Question, error) {
	if count <= 0 {
		return nil, errors.New("question count must be positive")
	}
	pool := b.filter(topic, difficulty)
	if len(pool) == 0 {
		pool = b.entries
	}
	idx := rand.Perm(len(pool))
	if count > len(pool) {
		count = len(pool)
	}
	out := make([]game.Question, 0, count)
	for _, i := range idx[:count] {
		e := pool[i]
		out = append(out, game.Question{
			ID:           uuid.NewString(),
			Prompt:       e.Prompt,
			Options:      append([]string(nil), e.Options...),
			CorrectIndex: e.CorrectIndex,
		})
	}
	return out, nil
}

func (b *Bank) filter(topic, difficulty string) []bankEntry {
	var out []bankEntry
	for _, e := range b.entries {
		if topic != "" && !strings.EqualFold(e.Topic, topic) {
			continue
		}
		if difficulty != "" && !strings.EqualFold(e.Difficulty, difficulty) {
			continue
		}
		out = append(out, e)
	}
	return out
}

var defaultEntries = []bankEntry{
	{"geography", DifficultyEasy, "What is the capital of France?",
		[]string{"Berlin", "Paris", "Madrid", "Rome"}, 1},
	{"geography", DifficultyEasy, "Which continent is Egypt part of?",
		[]string{"Asia", "Europe", "Africa", "South America"}, 2},
	{"geography", DifficultyMedium, "Which river is the longest in the world?",
		[]string{"Amazon", "Yangtze", "Mississippi", "Nile"}, 3},
	{"geography", DifficultyHard, "Which country has the most time zones?",
		[]string{"Russia", "USA", "France", "China"}, 2},
	{"science", DifficultyEasy, "What planet is known as the Red Planet?",
		[]string{"Venus", "Mars", "Jupiter", "Mercury"}, 1},
	{"science", DifficultyEasy, "What gas do plants absorb from the atmosphere?",
		[]string{"Oxygen", "Nitrogen", "Carbon dioxide", "Hydrogen"}, 2},
	{"science", DifficultyMedium, "What is the chemical symbol for gold?",
		[]string{"Go", "Gd", "Au", "Ag"}, 2},
	{"science", DifficultyMedium, "How many bones does an adult human body have?",
		[]string{"196", "206", "216", "226"}, 1},
	{"science", DifficultyHard, "What particle is exchanged in the electromagnetic force?",
		[]string{"Gluon", "Photon", "W boson", "Graviton"}, 1},
	{"history", DifficultyEasy, "In which year did World War II end?",
		[]string{"1943", "1944", "1945", "1946"}, 2},
	{"history", DifficultyMedium, "Who was the first president of the United States?",
		[]string{"Thomas Jefferson", "John Adams", "George Washington", "Benjamin Franklin"}, 2},
	{"history", DifficultyHard, "The Treaty of Westphalia was signed in which year?",
		[]string{"1618", "1648", "1688", "1715"}, 1},
	{"sports", DifficultyEasy, "How many players are on a soccer team on the field?",
		[]string{"9", "10", "11", "12"}, 2},
	{"sports", DifficultyMedium, "In which country were the first modern Olympic Games held?",
		[]string{"France", "Greece", "England", "Italy"}, 1},
	{"movies", DifficultyEasy, "Who directed the movie Jaws?",
		[]string{"George Lucas", "Steven Spielberg", "Martin Scorsese", "Francis Ford Coppola"}, 1},
	{"movies", DifficultyMedium, "Which film won the first Academy Award for Best Picture?",
		[]string{"Wings", "Sunrise", "Metropolis", "The Jazz Singer"}, 0},
	{"music", DifficultyEasy, "How many strings does a standard guitar have?",
		[]string{"4", "5", "6", "7"}, 2},
	{"music", DifficultyMedium, "Which composer wrote the Ninth Symphony while deaf?",
		[]string{"Mozart", "Bach", "Beethoven", "Brahms"}, 2},
}
