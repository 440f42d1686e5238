package analysis

import (
	"fmt"
	"strings"
	"time"

	"github.com/exam-analytics/backend/internal/models"
)

// AnalyzeIntegrity computes the pairwise similarity matrices used to flag
// potential answer sharing. Student answers are compared on canonical
// question and option identity, so two students who answered identically on
// differently shuffled variants still register as matching. Both matrices
// are symmetric with a diagonal of exactly 1.0 and are keyed by labels
// meant for direct human review.
//
// Cost is O(students^2 x questions); for large cohorts this dominates the
// whole analysis run.
func AnalyzeIntegrity(examID int64, views map[string]*VariantView, responses []models.StudentResponse) models.IntegrityResult {
	return models.IntegrityResult{
		ExamID:            examID,
		StudentSimilarity: studentSimilarity(responses),
		VariantSimilarity: variantSimilarity(views),
		GeneratedAt:       time.Now().UTC(),
	}
}

// studentSimilarity scores every student pair by the fraction of canonical
// questions where both gave the same canonical answer, restricted to
// questions both attempted.
func studentSimilarity(responses []models.StudentResponse) map[string]map[string]float64 {
	labels := make([]string, len(responses))
	used := make(map[string]bool, len(responses))
	answers := make([]map[int64]string, len(responses))

	for i, r := range responses {
		label := fmt.Sprintf("%s (%s)", r.StudentID, r.VariantCode)
		if used[label] {
			label = fmt.Sprintf("%s #%d", label, r.InternalID)
		}
		used[label] = true
		labels[i] = label

		attempted := make(map[int64]string, len(r.Responses))
		for _, qr := range r.Responses {
			if strings.TrimSpace(qr.CanonicalAnswer) == "" {
				continue
			}
			attempted[qr.QuestionID] = qr.CanonicalAnswer
		}
		answers[i] = attempted
	}

	matrix := make(map[string]map[string]float64, len(responses))
	for i := range responses {
		matrix[labels[i]] = make(map[string]float64, len(responses))
		matrix[labels[i]][labels[i]] = 1.0
	}
	for i := 0; i < len(responses); i++ {
		for j := i + 1; j < len(responses); j++ {
			sim := agreement(answers[i], answers[j])
			matrix[labels[i]][labels[j]] = sim
			matrix[labels[j]][labels[i]] = sim
		}
	}
	return matrix
}

// agreement is the fraction of question ids present in both maps that carry
// the same canonical answer. No common questions means no evidence either
// way; that scores 0.
func agreement(a, b map[int64]string) float64 {
	common := 0
	matching := 0
	for qid, ans := range a {
		other, ok := b[qid]
		if !ok {
			continue
		}
		common++
		if ans == other {
			matching++
		}
	}
	if common == 0 {
		return 0
	}
	return float64(matching) / float64(common)
}

// variantSimilarity scores every variant pair by the fraction of canonical
// questions whose canonical correct answer is identical in both answer
// keys. Structurally similar variants are the easiest targets for
// cross-variant copying.
func variantSimilarity(views map[string]*VariantView) map[string]map[string]float64 {
	codes := make([]string, 0, len(views))
	for code := range views {
		codes = append(codes, code)
	}

	matrix := make(map[string]map[string]float64, len(codes))
	for _, code := range codes {
		matrix[code] = make(map[string]float64, len(codes))
		matrix[code][code] = 1.0
	}
	for i := 0; i < len(codes); i++ {
		for j := i + 1; j < len(codes); j++ {
			sim := agreement(views[codes[i]].AnswerKey, views[codes[j]].AnswerKey)
			matrix[codes[i]][codes[j]] = sim
			matrix[codes[j]][codes[i]] = sim
		}
	}
	return matrix
}

