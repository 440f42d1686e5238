package analysis

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/exam-analytics/backend/internal/models"
)

// trueFalseOptions is the fixed option set synthesized for TRUE_FALSE
// questions stored without options.
var trueFalseOptions = []string{"True", "False"}

// VariantView is the normalized form of one exam variant: the canonical
// questions in the order the variant actually presented them, with options
// restored to canonical order and the answer key re-expressed as canonical
// option values. Warnings collect every recoverable defect found in the
// variant's metadata; a variant with malformed metadata degrades to the
// canonical presentation instead of failing the analysis.
type VariantView struct {
	Code      string
	Questions []models.Question
	Mappings  map[int64]*OptionMapping
	AnswerKey map[int64]string
	Warnings  []string
}

// Mapping returns the option mapping for a question, falling back to the
// identity mapping of the given size for questions the variant did not
// shuffle.
func (v *VariantView) Mapping(questionID int64, optionCount int) *OptionMapping {
	if m, ok := v.Mappings[questionID]; ok && m.Len() == optionCount {
		return m
	}
	return IdentityMapping(optionCount)
}

// NormalizeVariant reconstructs the canonical question list for one variant.
// points maps question id to the exam-specific point assignment; questions
// without an assignment keep their own default points.
func NormalizeVariant(questions []models.Question, variant models.ExamVariant, points map[int64]float64) *VariantView {
	view := &VariantView{
		Code:      variant.Code,
		Mappings:  make(map[int64]*OptionMapping),
		AnswerKey: make(map[int64]string),
	}

	order, warn := parseQuestionOrder(variant.QuestionOrder, len(questions))
	if warn != "" {
		view.Warnings = append(view.Warnings, warn)
	}

	perms, warns := parseOptionPermutations(variant.OptionPermutation)
	view.Warnings = append(view.Warnings, warns...)

	rawKey := parseAnswerKey(variant.AnswerKey)

	for _, idx := range order {
		if idx < 0 || idx >= len(questions) {
			view.Warnings = append(view.Warnings,
				fmt.Sprintf("variant %s: question index %d out of range, skipped", variant.Code, idx))
			continue
		}
		q := questions[idx]

		if len(q.Options) == 0 && q.Type == models.QuestionTrueFalse {
			q.Options = append([]string(nil), trueFalseOptions...)
		} else {
			q.Options = append([]string(nil), q.Options...)
		}
		if p, ok := points[q.ID]; ok {
			q.Points = p
		}

		mapping := IdentityMapping(len(q.Options))
		if perm, ok := perms[q.ID]; ok {
			if len(perm) != len(q.Options) {
				view.Warnings = append(view.Warnings,
					fmt.Sprintf("variant %s: permutation length %d != %d options for question %d, ignoring",
						variant.Code, len(perm), len(q.Options), q.ID))
			} else if m, err := NewOptionMapping(perm); err != nil {
				view.Warnings = append(view.Warnings,
					fmt.Sprintf("variant %s: invalid permutation for question %d: %v", variant.Code, q.ID, err))
			} else {
				mapping = m
			}
		}
		view.Mappings[q.ID] = mapping

		if raw, ok := rawKey[q.ID]; ok {
			q.CorrectAnswer = mapping.CanonicalAnswer(raw, q.Options)
		}
		view.AnswerKey[q.ID] = q.CorrectAnswer

		view.Questions = append(view.Questions, q)
	}

	return view
}

// parseQuestionOrder decodes the stored question order blob. Malformed or
// empty blobs fall back to the canonical order with a warning; the fallback
// is the most conservative presentation and never aborts the analysis.
func parseQuestionOrder(raw json.RawMessage, count int) ([]int, string) {
	canonical := make([]int, count)
	for i := range canonical {
		canonical[i] = i
	}
	if len(raw) == 0 {
		return canonical, ""
	}
	var order []int
	if err := json.Unmarshal(raw, &order); err != nil {
		return canonical, fmt.Sprintf("malformed question order (%v), using canonical order", err)
	}
	if len(order) == 0 {
		return canonical, "empty question order, using canonical order"
	}
	return order, ""
}

// parseOptionPermutations decodes the stored permutation blob: a JSON object
// keyed by question id with permutation arrays as values.
func parseOptionPermutations(raw json.RawMessage) (map[int64][]int, []string) {
	out := make(map[int64][]int)
	if len(raw) == 0 {
		return out, nil
	}
	var byID map[string][]int
	if err := json.Unmarshal(raw, &byID); err != nil {
		return out, []string{fmt.Sprintf("malformed option permutation (%v), options left unshuffled", err)}
	}
	var warns []string
	for key, perm := range byID {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			warns = append(warns, fmt.Sprintf("option permutation keyed by non-numeric question id %q, ignored", key))
			continue
		}
		out[id] = perm
	}
	return out, warns
}

// parseAnswerKey decodes the stored answer key blob. A missing or malformed
// key is not a warning on its own: the canonical correct answer is already
// the right fallback.
func parseAnswerKey(raw json.RawMessage) map[int64]string {
	out := make(map[int64]string)
	if len(raw) == 0 {
		return out
	}
	var byID map[string]string
	if err := json.Unmarshal(raw, &byID); err != nil {
		return out
	}
	for key, val := range byID {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			continue
		}
		out[id] = val
	}
	return out
}
