package question

import (
	"context"
	"testing"
)

func TestBankFiltersByTopicAndDifficulty(t *testing.T) {
	b := NewBank()
	qs, err := b.Questions(context.Background(), "science", DifficultyEasy, 2)
	if err != nil {
		t.Fatalf("bank should serve questions: %v", err)
	}
	if len(qs) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(qs))
	}
	for _, q := range qs {
		if q.ID == "" {
			t.Fatal("question should carry a generated id")
		}
		if len(q.Options) != 4 {
			t.Fatalf("expected 4 options, got %d", len(q.Options))
		}
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			t.Fatalf("correct index out of range: %d", q.CorrectIndex)
		}
	}
}

func TestBankClampsCount(t *testing.T) {
	b := NewBank()
	qs, err := b.Questions(context.Background(), "sports", "", 50)
	if err != nil {
		t.Fatalf("bank should serve questions: %v", err)
	}
	if len(qs) == 0 || len(qs) > 50 {
		t.Fatalf("count should be clamped to the pool size, got %d", len(qs))
	}
}

func TestBankFallsBackOnUnknownTopic(t *testing.T) {
	b := NewBank()
	qs, err := b.Questions(context.Background(), "quantum-basket-weaving", "", 3)
	if err != nil {
		t.Fatalf("unknown topic should fall back to the full set: %v", err)
	}
	if len(qs) != 3 {
		t.Fatalf("expected 3 questions from fallback pool, got %d", len(qs))
	}
}

func TestBankRejectsNonPositiveCount(t *testing.T) {
	b := NewBank()
	if _, err := b.Questions(context.Background(), "science", "", 0); err == nil {
		t.Fatal("zero count should be rejected")
	}
}
