package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/exam-analytics/backend/internal/models"
)

// Limits on what the prompt carries. The model sees the anomalies, not the
// full result set.
const (
	maxFlaggedItems    = 8
	maxSimilarityPairs = 5
	similarityFloor    = 0.8
)

func SystemPrompt() string {
	return `You are a psychometrician reviewing item-analysis results for a classroom exam.

You receive summary statistics plus the most anomalous items and, when available, the most similar student answer patterns. Write for an instructor, not a statistician: name the problem, say why it matters, and suggest one concrete action per finding.

Respond with ONLY a JSON object in this exact format:
{
  "summary": "two or three sentences on overall exam health",
  "findings": [
    {"severity": "info|warning|critical", "title": "short name", "detail": "what the numbers show and why it matters"}
  ],
  "recommendations": ["concrete action", "..."]
}

Rules:
- Base every finding on the numbers given. Do not invent statistics.
- Reserve "critical" for likely integrity violations or items that actively mismeasure.
- High similarity between students on DIFFERENT variants is stronger evidence than on the same variant.
- No markdown, no code fences, no text outside the JSON object.`
}

// BuildUserPrompt selects the anomalies worth narrating: hardest and least
// discriminating items, statistically significant ones, and the closest
// student pairs.
func BuildUserPrompt(analysis *models.BiPointAnalysisResult, integrity *models.IntegrityResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Exam: %s\n", analysis.ExamTitle)
	fmt.Fprintf(&b, "Attempts analyzed: %d (excluded: %d)\n", analysis.SampleSize, analysis.ExcludedCount)
	fmt.Fprintf(&b, "Mean difficulty: %.2f, mean discrimination: %.2f, mean point-biserial: %.2f\n",
		analysis.Summary.MeanDifficulty, analysis.Summary.MeanDiscrimination, analysis.Summary.MeanPointBiserial)
	dist := analysis.Summary.ScoreDistribution
	fmt.Fprintf(&b, "Scores: mean %.1f, median %.1f, sd %.1f, range [%.1f, %.1f]\n\n",
		dist.Mean, dist.Median, dist.StdDev, dist.Min, dist.Max)

	flagged := flagItems(analysis.Questions)
	if len(flagged) == 0 {
		b.WriteString("No items were flagged as anomalous.\n")
	} else {
		b.WriteString("Flagged items:\n")
		for _, q := range flagged {
			fmt.Fprintf(&b, "- Q%d (%.40s): difficulty %.2f, discrimination %.2f, point-biserial %.2f",
				q.QuestionID, q.QuestionText, q.DifficultyIndex, q.DiscriminationIndex, q.PointBiserialCorrelation)
			if q.Significance.IsSignificant {
				fmt.Fprintf(&b, ", chi-square %.2f (significant, p=%.3f)",
					q.Significance.TestStatistic, q.Significance.PValue)
			}
			if len(q.Warnings) > 0 {
				fmt.Fprintf(&b, " [%s]", strings.Join(q.Warnings, "; "))
			}
			b.WriteString("\n")
		}
	}

	if integrity != nil {
		pairs := topSimilarityPairs(integrity.StudentSimilarity)
		if len(pairs) > 0 {
			b.WriteString("\nHighest student answer similarity:\n")
			for _, p := range pairs {
				fmt.Fprintf(&b, "- %s and %s: %.0f%% of shared questions answered identically\n",
					p.a, p.b, p.score*100)
			}
		}
	}

	return b.String()
}

// flagItems picks the questions most worth the instructor's attention: very
// hard or very easy items, weak or negative discriminators, and items with
// significant upper/lower splits or warnings.
func flagItems(questions []models.QuestionAnalysisResult) []models.QuestionAnalysisResult {
	var flagged []models.QuestionAnalysisResult
	for _, q := range questions {
		if q.TotalResponses == 0 {
			continue
		}
		anomalous := q.DifficultyIndex < 0.2 || q.DifficultyIndex > 0.95 ||
			q.DiscriminationIndex < 0.1 ||
			q.PointBiserialCorrelation < 0.1 ||
			q.Significance.IsSignificant ||
			len(q.Warnings) > 0
		if anomalous {
			flagged = append(flagged, q)
		}
	}

	// Worst discriminators first.
	sort.Slice(flagged, func(i, j int) bool {
		return flagged[i].DiscriminationIndex < flagged[j].DiscriminationIndex
	})
	if len(flagged) > maxFlaggedItems {
		flagged = flagged[:maxFlaggedItems]
	}
	return flagged
}

type similarityPair struct {
	a, b  string
	score float64
}

func topSimilarityPairs(matrix map[string]map[string]float64) []similarityPair {
	var pairs []similarityPair
	for a, row := range matrix {
		for b, score := range row {
			// Each unordered pair once, diagonal excluded.
			if a >= b || score < similarityFloor {
				continue
			}
			pairs = append(pairs, similarityPair{a: a, b: b, score: score})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].score != pairs[j].score {
			return pairs[i].score > pairs[j].score
		}
		return pairs[i].a < pairs[j].a
	})
	if len(pairs) > maxSimilarityPairs {
		pairs = pairs[:maxSimilarityPairs]
	}
	return pairs
}
