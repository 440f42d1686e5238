package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/exam-analytics/backend/internal/models"
)

// Engine computes per-item statistics and the corpus summary for one set of
// canonical questions and student responses. An Engine is a pure function
// of its inputs: it holds only configuration, keeps no state between runs,
// and is safe to use concurrently for different exams.
type Engine struct {
	cfg models.AnalysisConfig
}

func NewEngine(cfg models.AnalysisConfig) *Engine {
	if cfg.MinSampleSize <= 0 {
		cfg.MinSampleSize = models.DefaultAnalysisConfig().MinSampleSize
	}
	if cfg.ConfidenceLevel <= 0 || cfg.ConfidenceLevel >= 1 {
		cfg.ConfidenceLevel = models.DefaultAnalysisConfig().ConfidenceLevel
	}
	return &Engine{cfg: cfg}
}

func (e *Engine) Config() models.AnalysisConfig { return e.cfg }

// cohort pre-indexes the student responses once so per-question passes are
// map lookups instead of nested scans.
type cohort struct {
	students []models.StudentResponse
	byQID    []map[int64]*models.QuestionResponse
	inUpper  []bool
	inLower  []bool
}

func newCohort(responses []models.StudentResponse) *cohort {
	c := &cohort{
		students: responses,
		byQID:    make([]map[int64]*models.QuestionResponse, len(responses)),
		inUpper:  make([]bool, len(responses)),
		inLower:  make([]bool, len(responses)),
	}
	for i := range responses {
		idx := make(map[int64]*models.QuestionResponse, len(responses[i].Responses))
		for j := range responses[i].Responses {
			r := &responses[i].Responses[j]
			if _, seen := idx[r.QuestionID]; !seen {
				idx[r.QuestionID] = r
			}
		}
		c.byQID[i] = idx
	}

	// Upper/lower groups: top and bottom ~27% by total score. Ties break on
	// internal id so repeated runs partition identically.
	order := make([]int, len(responses))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		ra, rb := responses[order[a]], responses[order[b]]
		if ra.TotalScore != rb.TotalScore {
			return ra.TotalScore > rb.TotalScore
		}
		return ra.InternalID < rb.InternalID
	})
	k := GroupSize(len(responses))
	for i := 0; i < k; i++ {
		c.inUpper[order[i]] = true
		c.inLower[order[len(order)-1-i]] = true
	}
	return c
}

// Analyze produces one QuestionAnalysisResult per canonical question, in
// canonical question order, plus the corpus-level summary.
func (e *Engine) Analyze(questions []models.Question, responses []models.StudentResponse) ([]models.QuestionAnalysisResult, models.AnalysisSummary) {
	c := newCohort(responses)

	results := make([]models.QuestionAnalysisResult, 0, len(questions))
	for _, q := range questions {
		results = append(results, e.analyzeQuestion(q, c))
	}

	return results, e.summarize(results, responses)
}

func (e *Engine) analyzeQuestion(q models.Question, c *cohort) models.QuestionAnalysisResult {
	res := models.QuestionAnalysisResult{
		QuestionID:   q.ID,
		QuestionText: q.Text,
		QuestionType: q.Type,
	}

	var (
		total, correct           int
		upperCorrect, upperTotal int
		lowerCorrect, lowerTotal int
		outcomes                 []bool
		scores                   []float64
		omitted                  int
	)
	selections := make(map[string]int)

	for i := range c.students {
		qr, ok := c.byQID[i][q.ID]
		if !ok {
			continue
		}
		total++
		if qr.Correct {
			correct++
		}
		if c.inUpper[i] {
			upperTotal++
			if qr.Correct {
				upperCorrect++
			}
		}
		if c.inLower[i] {
			lowerTotal++
			if qr.Correct {
				lowerCorrect++
			}
		}
		outcomes = append(outcomes, qr.Correct)
		// Exclude the item's own points from the criterion score to avoid
		// self-correlation inflation.
		scores = append(scores, c.students[i].TotalScore-qr.Points)

		if strings.TrimSpace(qr.CanonicalAnswer) == "" {
			omitted++
		} else {
			selections[qr.CanonicalAnswer]++
		}
	}

	res.TotalResponses = total
	res.CorrectResponses = correct

	if total == 0 {
		res.Warnings = append(res.Warnings, "no data: question received no responses")
		res.Significance = e.significance(q, c, 0, 0, 0, 0, 0, 0)
		if e.cfg.IncludeDistractorAnalysis {
			res.Distractors = &models.DistractorAnalysis{}
		}
		return res
	}

	if e.cfg.IncludeDifficultyIndex {
		res.DifficultyIndex = Difficulty(correct, total)
	}
	if e.cfg.IncludeDiscriminationIndex {
		res.DiscriminationIndex = Discrimination(upperCorrect, upperTotal, lowerCorrect, lowerTotal)
	}
	if e.cfg.IncludePointBiserial {
		res.PointBiserialCorrelation = PointBiserial(outcomes, scores)
		if correct == total {
			res.Warnings = append(res.Warnings, "all responses correct: point-biserial undefined, reported as 0")
		} else if correct == 0 {
			res.Warnings = append(res.Warnings, "no correct responses: point-biserial undefined, reported as 0")
		}
	}
	if e.cfg.IncludeDistractorAnalysis {
		res.Distractors = e.distractors(q, c, total, omitted, selections)
	}
	res.Significance = e.significance(q, c, total, correct,
		upperCorrect, upperTotal, lowerCorrect, lowerTotal)

	return res
}

// distractors builds the per-option table. Options appear in canonical
// order first, then any other selected values lexicographically, so output
// is deterministic across runs.
func (e *Engine) distractors(q models.Question, c *cohort, total, omitted int, selections map[string]int) *models.DistractorAnalysis {
	da := &models.DistractorAnalysis{
		OmittedResponses: omitted,
	}
	if total > 0 {
		da.OmittedPercentage = float64(omitted) / float64(total) * 100
	}

	ordered := make([]string, 0, len(selections))
	seen := make(map[string]bool, len(selections))
	for _, opt := range canonicalOptions(q) {
		if _, ok := selections[opt]; ok && !seen[opt] {
			ordered = append(ordered, opt)
			seen[opt] = true
		}
	}
	var extras []string
	for val := range selections {
		if !seen[val] {
			extras = append(extras, val)
		}
	}
	sort.Strings(extras)
	ordered = append(ordered, extras...)

	for _, val := range ordered {
		stat := e.optionStat(q.ID, val, selections[val], total, c)
		if val == q.CorrectAnswer {
			s := stat
			da.CorrectOption = &s
			continue
		}
		da.Options = append(da.Options, stat)
	}

	// The correct option is reported even when nobody selected it.
	if da.CorrectOption == nil && q.CorrectAnswer != "" {
		s := e.optionStat(q.ID, q.CorrectAnswer, 0, total, c)
		da.CorrectOption = &s
	}
	return da
}

// optionStat computes frequency plus discrimination and point-biserial for
// "selected this specific option" as the outcome variable.
func (e *Engine) optionStat(questionID int64, option string, freq, total int, c *cohort) models.OptionStat {
	stat := models.OptionStat{Option: option, Frequency: freq}
	if total > 0 {
		stat.Percentage = float64(freq) / float64(total) * 100
	}

	var (
		upperSel, upperTotal int
		lowerSel, lowerTotal int
		outcomes             []bool
		scores               []float64
	)
	for i := range c.students {
		qr, ok := c.byQID[i][questionID]
		if !ok {
			continue
		}
		selected := qr.CanonicalAnswer == option
		if c.inUpper[i] {
			upperTotal++
			if selected {
				upperSel++
			}
		}
		if c.inLower[i] {
			lowerTotal++
			if selected {
				lowerSel++
			}
		}
		outcomes = append(outcomes, selected)
		scores = append(scores, c.students[i].TotalScore-qr.Points)
	}
	stat.Discrimination = Discrimination(upperSel, upperTotal, lowerSel, lowerTotal)
	stat.PointBiserial = PointBiserial(outcomes, scores)
	return stat
}

func (e *Engine) significance(q models.Question, c *cohort, total, correct, upperCorrect, upperTotal, lowerCorrect, lowerTotal int) models.StatisticalSignificance {
	sig := models.StatisticalSignificance{
		DegreesOfFreedom: 1,
		CriticalValue:    ChiSquareCritical(e.cfg.ConfidenceLevel),
		PValue:           1,
	}

	if total > 0 {
		a := upperCorrect
		b := upperTotal - upperCorrect
		cc := lowerCorrect
		d := lowerTotal - lowerCorrect
		sig.TestStatistic = ChiSquare2x2(a, b, cc, d)
		sig.PValue = ChiSquarePValue(sig.TestStatistic)
		sig.IsSignificant = sig.TestStatistic > sig.CriticalValue

		p := Difficulty(correct, total)
		if lower, upper, ok := ProportionInterval(p, total, e.cfg.ConfidenceLevel); ok {
			sig.ConfidenceInterval = &models.ConfidenceInterval{Lower: lower, Upper: upper}
		}
	}

	if total < e.cfg.MinSampleSize {
		sig.Warnings = append(sig.Warnings,
			fmt.Sprintf("sample size %d below configured minimum %d; results may be unreliable", total, e.cfg.MinSampleSize))
	}
	return sig
}

// summarize aggregates corpus-wide means across questions and the score
// distribution across attempts.
func (e *Engine) summarize(results []models.QuestionAnalysisResult, responses []models.StudentResponse) models.AnalysisSummary {
	var sum models.AnalysisSummary

	if len(results) > 0 {
		var diff, disc, pbis float64
		for _, r := range results {
			diff += r.DifficultyIndex
			disc += r.DiscriminationIndex
			pbis += r.PointBiserialCorrelation
		}
		n := float64(len(results))
		sum.MeanDifficulty = diff / n
		sum.MeanDiscrimination = disc / n
		sum.MeanPointBiserial = pbis / n
	}

	if len(responses) > 0 {
		scores := make([]float64, len(responses))
		for i, r := range responses {
			scores[i] = r.TotalScore
		}
		sorted := sortedCopy(scores)
		sum.ScoreDistribution = models.ScoreDistribution{
			Mean:      Mean(scores),
			Median:    Median(scores),
			StdDev:    StdDev(scores),
			Skewness:  Skewness(scores),
			Kurtosis:  Kurtosis(scores),
			Min:       sorted[0],
			Max:       sorted[len(sorted)-1],
			Quartiles: Quartiles(scores),
		}
	}
	return sum
}
