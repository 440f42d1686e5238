package analysis

import (
	"sort"
	"time"

	"github.com/exam-analytics/backend/internal/models"
)

// AnalyzeByVariant re-runs the engine once per variant code, restricted to
// the students who took that variant and to the question list as that
// variant presented it. This surfaces variants whose phrasing or option
// ordering behaved anomalously relative to the exam as a whole.
func AnalyzeByVariant(exam models.Exam, questions []models.Question, views map[string]*VariantView, responses []models.StudentResponse, engine *Engine) []models.BiPointAnalysisResult {
	groups := make(map[string][]models.StudentResponse)
	for _, r := range responses {
		groups[r.VariantCode] = append(groups[r.VariantCode], r)
	}

	codes := make([]string, 0, len(groups))
	for code := range groups {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	out := make([]models.BiPointAnalysisResult, 0, len(codes))
	for _, code := range codes {
		group := groups[code]

		variantQuestions := questions
		if view, ok := views[code]; ok {
			variantQuestions = view.Questions
		}

		items, summary := engine.Analyze(variantQuestions, group)
		out = append(out, models.BiPointAnalysisResult{
			ExamID:      exam.ID,
			ExamTitle:   exam.Title + " (" + code + ")",
			Config:      engine.Config(),
			Questions:   items,
			Summary:     summary,
			SampleSize:  len(group),
			GeneratedAt: time.Now().UTC(),
		})
	}
	return out
}
