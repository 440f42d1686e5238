package analysis

import (
	"github.com/exam-analytics/backend/internal/models"
)

// Sentinels for raw rows with missing fields. Degrading beats dropping: a
// result with no variant code or no student record still carries responses
// worth aggregating.
const (
	DefaultVariantCode = "default"
	UnknownStudent     = "null"
)

// CollectResponses converts raw graded exam-result rows into the uniform
// StudentResponse form the engine consumes. Each recorded answer is tagged
// with its canonical option value using the variant views, so responses are
// comparable across differently shuffled variants.
//
// generationCodes scopes collection to a variant generation: nil means no
// scoping (all results for the exam), while a non-nil empty set yields an
// empty list rather than falling back to all results.
func CollectResponses(results []models.ExamResult, views map[string]*VariantView, questions []models.Question, generationCodes []string) []models.StudentResponse {
	var allowed map[string]bool
	if generationCodes != nil {
		allowed = make(map[string]bool, len(generationCodes))
		for _, code := range generationCodes {
			allowed[code] = true
		}
	}

	byID := make(map[int64]models.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	out := make([]models.StudentResponse, 0, len(results))
	for _, res := range results {
		code := DefaultVariantCode
		if res.VariantCode != nil && *res.VariantCode != "" {
			code = *res.VariantCode
		}
		if allowed != nil && !allowed[code] {
			continue
		}

		student := UnknownStudent
		if res.StudentName != nil && *res.StudentName != "" {
			student = *res.StudentName
		}

		view := views[code]
		responses := make([]models.QuestionResponse, 0, len(res.Answers))
		for _, ans := range res.Answers {
			responses = append(responses, models.QuestionResponse{
				QuestionID:      ans.QuestionID,
				Answer:          ans.Answer,
				CanonicalAnswer: canonicalizeAnswer(ans, byID, view),
				Correct:         ans.Correct,
				Points:          ans.PointsEarned,
				MaxPoints:       ans.PointsMax,
			})
		}

		sr := models.StudentResponse{
			StudentID:   student,
			InternalID:  res.ID,
			VariantCode: code,
			Responses:   responses,
			TotalScore:  res.Score,
			MaxScore:    res.TotalPoints,
			StartedAt:   res.CreatedAt,
			CompletedAt: res.UpdatedAt,
		}
		if minutes := int(res.UpdatedAt.Sub(res.CreatedAt).Minutes()); minutes > 0 {
			sr.CompletionMinutes = &minutes
		}
		out = append(out, sr)
	}
	return out
}

// canonicalizeAnswer maps one recorded answer to its canonical option
// value. Without a variant view the answer is resolved against the
// question's canonical options through the identity mapping, which covers
// both unshuffled variants and unknown variant codes.
func canonicalizeAnswer(ans models.ResultAnswer, byID map[int64]models.Question, view *VariantView) string {
	q, ok := byID[ans.QuestionID]
	if !ok {
		return ans.Answer
	}
	options := canonicalOptions(q)
	if view != nil {
		return view.Mapping(q.ID, len(options)).CanonicalAnswer(ans.Answer, options)
	}
	return IdentityMapping(len(options)).CanonicalAnswer(ans.Answer, options)
}

// canonicalOptions returns a question's canonical option values,
// synthesizing the fixed True/False pair for TRUE_FALSE questions stored
// without options.
func canonicalOptions(q models.Question) []string {
	if len(q.Options) == 0 && q.Type == models.QuestionTrueFalse {
		return trueFalseOptions
	}
	return q.Options
}

// FilterIncomplete drops attempts missing the fields required for
// aggregation (no responses or a non-positive maximum score) and reports
// how many were excluded.
func FilterIncomplete(responses []models.StudentResponse) (kept []models.StudentResponse, excluded int) {
	kept = make([]models.StudentResponse, 0, len(responses))
	for _, r := range responses {
		if len(r.Responses) == 0 || r.MaxScore <= 0 {
			excluded++
			continue
		}
		kept = append(kept, r)
	}
	return kept, excluded
}
