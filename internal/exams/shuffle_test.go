package exams

import (
	"math/rand"
	"testing"

	"github.com/exam-analytics/backend/internal/analysis"
	"github.com/exam-analytics/backend/internal/models"
)

func sampleQuestions() []models.Question {
	return []models.Question{
		{
			ID:            1,
			Position:      0,
			Text:          "Pick one",
			Type:          models.QuestionMultipleChoice,
			CorrectAnswer: "Beta",
			Options:       []string{"Alpha", "Beta", "Gamma", "Delta"},
			Points:        2,
		},
		{
			ID:            2,
			Position:      1,
			Text:          "Yes or no",
			Type:          models.QuestionTrueFalse,
			CorrectAnswer: "False",
			Points:        1,
		},
	}
}

// The shuffler's output must round-trip through the analysis normalizer: the
// un-shuffled answer key has to land back on the canonical correct answers,
// for every seed.
func TestShuffleVariantRoundTrip(t *testing.T) {
	questions := sampleQuestions()

	for seed := int64(0); seed < 25; seed++ {
		rng := rand.New(rand.NewSource(seed))
		variant, err := shuffleVariant(rng, "A", questions)
		if err != nil {
			t.Fatalf("seed %d: shuffleVariant: %v", seed, err)
		}

		view := analysis.NormalizeVariant(questions, variant, nil)
		if len(view.Warnings) != 0 {
			t.Fatalf("seed %d: normalizer warnings: %v", seed, view.Warnings)
		}
		if got := view.AnswerKey[1]; got != "Beta" {
			t.Errorf("seed %d: AnswerKey[1] = %q, want \"Beta\"", seed, got)
		}
		if got := view.AnswerKey[2]; got != "False" {
			t.Errorf("seed %d: AnswerKey[2] = %q, want \"False\"", seed, got)
		}
		if len(view.Questions) != len(questions) {
			t.Errorf("seed %d: view has %d questions, want %d", seed, len(view.Questions), len(questions))
		}
	}
}

func TestShuffleVariantMappingMatchesPresentation(t *testing.T) {
	questions := sampleQuestions()
	rng := rand.New(rand.NewSource(42))

	variant, err := shuffleVariant(rng, "B", questions)
	if err != nil {
		t.Fatal(err)
	}
	view := analysis.NormalizeVariant(questions, variant, nil)

	// Shuffling the canonical options and un-shuffling them again must be
	// the identity, through the stored blob.
	mapping := view.Mapping(1, 4)
	canonical := questions[0].Options
	back := mapping.Unshuffle(mapping.Shuffle(canonical))
	for i := range canonical {
		if back[i] != canonical[i] {
			t.Fatalf("round trip mismatch at %d: %v != %v", i, back, canonical)
		}
	}
}

func TestVariantCode(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "A"},
		{1, "B"},
		{25, "Z"},
		{26, "A1"},
		{27, "B1"},
	}
	for _, tt := range tests {
		if got := variantCode(tt.n); got != tt.want {
			t.Errorf("variantCode(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
