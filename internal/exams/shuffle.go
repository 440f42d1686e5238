package exams

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"strconv"

	"github.com/exam-analytics/backend/internal/analysis"
	"github.com/exam-analytics/backend/internal/models"
)

// variantCode returns the short code for the nth variant of a generation:
// A..Z, then A1, B1, and so on.
func variantCode(n int) string {
	letter := string(rune('A' + n%26))
	if n < 26 {
		return letter
	}
	return letter + strconv.Itoa(n/26)
}

// shuffleVariant produces the stored metadata blobs for one shuffled
// presentation of an exam. The permutation convention is
// perm[variantPosition] = canonicalOptionIndex; the analysis normalizer
// inverts it when restoring canonical order. The answer key records each
// correct answer as the variant position it occupied, exercising the
// position-resolution path on the way back in.
func shuffleVariant(rng *rand.Rand, code string, questions []models.Question) (models.ExamVariant, error) {
	order := rng.Perm(len(questions))

	perms := make(map[string][]int, len(questions))
	key := make(map[string]string, len(questions))
	for _, q := range questions {
		options := q.Options
		if len(options) == 0 && q.Type == models.QuestionTrueFalse {
			options = []string{"True", "False"}
		}
		if len(options) == 0 {
			continue
		}
		perm := rng.Perm(len(options))
		perms[strconv.FormatInt(q.ID, 10)] = perm

		mapping, err := analysis.NewOptionMapping(perm)
		if err != nil {
			return models.ExamVariant{}, fmt.Errorf("variant %s question %d: %w", code, q.ID, err)
		}
		canonicalIdx := -1
		for i, opt := range options {
			if opt == q.CorrectAnswer {
				canonicalIdx = i
				break
			}
		}
		if canonicalIdx < 0 {
			// Correct answer is not one of the options (free-form grading);
			// record the value itself.
			key[strconv.FormatInt(q.ID, 10)] = q.CorrectAnswer
			continue
		}
		pos, _ := mapping.VariantPosition(canonicalIdx)
		key[strconv.FormatInt(q.ID, 10)] = strconv.Itoa(pos)
	}

	orderJSON, err := json.Marshal(order)
	if err != nil {
		return models.ExamVariant{}, fmt.Errorf("encode question order: %w", err)
	}
	permsJSON, err := json.Marshal(perms)
	if err != nil {
		return models.ExamVariant{}, fmt.Errorf("encode option permutations: %w", err)
	}
	keyJSON, err := json.Marshal(key)
	if err != nil {
		return models.ExamVariant{}, fmt.Errorf("encode answer key: %w", err)
	}

	return models.ExamVariant{
		Code:              code,
		QuestionOrder:     orderJSON,
		OptionPermutation: permsJSON,
		AnswerKey:         keyJSON,
	}, nil
}
