package analysis

import (
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/exam-analytics/backend/internal/models"
)

// makeCohort builds ten students where the five highest scorers answer
// question 1 correctly ("Alpha") and the five lowest pick "Beta". Total
// scores run 10 down to 1.
func makeCohort() []models.StudentResponse {
	out := make([]models.StudentResponse, 0, 10)
	for i := 0; i < 10; i++ {
		correct := i < 5
		answer := "Beta"
		points := 0.0
		if correct {
			answer = "Alpha"
			points = 1
		}
		out = append(out, models.StudentResponse{
			StudentID:   string(rune('a' + i)),
			InternalID:  int64(i + 1),
			VariantCode: "A",
			TotalScore:  float64(10 - i),
			MaxScore:    10,
			Responses: []models.QuestionResponse{
				{QuestionID: 1, Answer: answer, CanonicalAnswer: answer, Correct: correct, Points: points, MaxPoints: 1},
			},
		})
	}
	return out
}

func TestEngineAnalyzeDiscriminatingItem(t *testing.T) {
	engine := NewEngine(models.DefaultAnalysisConfig())
	questions := testQuestions()[:1]

	results, summary := engine.Analyze(questions, makeCohort())
	if len(results) != 1 {
		t.Fatalf("got %d question results, want 1", len(results))
	}
	r := results[0]

	if r.TotalResponses != 10 || r.CorrectResponses != 5 {
		t.Errorf("responses = %d/%d, want 5/10", r.CorrectResponses, r.TotalResponses)
	}
	if r.DifficultyIndex != 0.5 {
		t.Errorf("DifficultyIndex = %f, want 0.5", r.DifficultyIndex)
	}
	// Top three all correct, bottom three all wrong.
	if r.DiscriminationIndex != 1 {
		t.Errorf("DiscriminationIndex = %f, want 1", r.DiscriminationIndex)
	}
	if r.PointBiserialCorrelation <= 0.5 {
		t.Errorf("PointBiserialCorrelation = %f, want strongly positive", r.PointBiserialCorrelation)
	}

	// Perfect upper/lower separation on six students: chi-square = 6.
	sig := r.Significance
	if math.Abs(sig.TestStatistic-6) > 1e-9 {
		t.Errorf("TestStatistic = %f, want 6", sig.TestStatistic)
	}
	if !sig.IsSignificant {
		t.Error("IsSignificant = false, want true")
	}
	if sig.CriticalValue != 3.841 || sig.DegreesOfFreedom != 1 {
		t.Errorf("critical value/df = %f/%d, want 3.841/1", sig.CriticalValue, sig.DegreesOfFreedom)
	}
	if sig.PValue >= 0.05 {
		t.Errorf("PValue = %f, want < 0.05", sig.PValue)
	}
	if sig.ConfidenceInterval == nil {
		t.Error("ConfidenceInterval = nil, want an interval")
	}

	// Ten students is below the default minimum of thirty.
	foundLowSample := false
	for _, w := range sig.Warnings {
		if strings.Contains(w, "below configured minimum") {
			foundLowSample = true
		}
	}
	if !foundLowSample {
		t.Errorf("expected low-sample warning, got %v", sig.Warnings)
	}

	if summary.MeanDifficulty != 0.5 {
		t.Errorf("MeanDifficulty = %f, want 0.5", summary.MeanDifficulty)
	}
	dist := summary.ScoreDistribution
	if dist.Mean != 5.5 || dist.Median != 5.5 || dist.Min != 1 || dist.Max != 10 {
		t.Errorf("score distribution = %+v, want mean/median 5.5 over [1,10]", dist)
	}
}

func TestEngineDistractors(t *testing.T) {
	engine := NewEngine(models.DefaultAnalysisConfig())
	responses := makeCohort()
	// One student omits instead of picking "Beta".
	responses[9].Responses[0].CanonicalAnswer = ""
	responses[9].Responses[0].Answer = ""

	results, _ := engine.Analyze(testQuestions()[:1], responses)
	da := results[0].Distractors
	if da == nil {
		t.Fatal("Distractors = nil")
	}

	if da.CorrectOption == nil || da.CorrectOption.Option != "Alpha" {
		t.Fatalf("CorrectOption = %+v, want Alpha", da.CorrectOption)
	}
	if da.CorrectOption.Frequency != 5 {
		t.Errorf("correct option frequency = %d, want 5", da.CorrectOption.Frequency)
	}
	if da.CorrectOption.Discrimination <= 0 {
		t.Errorf("correct option discrimination = %f, want positive", da.CorrectOption.Discrimination)
	}

	if len(da.Options) != 1 || da.Options[0].Option != "Beta" {
		t.Fatalf("Options = %+v, want just Beta", da.Options)
	}
	if da.Options[0].Frequency != 4 {
		t.Errorf("Beta frequency = %d, want 4", da.Options[0].Frequency)
	}
	// A distractor chosen by weak students should discriminate negatively.
	if da.Options[0].Discrimination >= 0 {
		t.Errorf("Beta discrimination = %f, want negative", da.Options[0].Discrimination)
	}

	if da.OmittedResponses != 1 {
		t.Errorf("OmittedResponses = %d, want 1", da.OmittedResponses)
	}
	if math.Abs(da.OmittedPercentage-10) > 1e-9 {
		t.Errorf("OmittedPercentage = %f, want 10", da.OmittedPercentage)
	}

	// Frequencies plus omissions account for every response.
	total := da.OmittedResponses + da.CorrectOption.Frequency
	for _, o := range da.Options {
		total += o.Frequency
	}
	if total != results[0].TotalResponses {
		t.Errorf("frequencies + omitted = %d, want %d", total, results[0].TotalResponses)
	}
}

func TestEngineCorrectOptionReportedWhenNeverSelected(t *testing.T) {
	engine := NewEngine(models.DefaultAnalysisConfig())
	responses := makeCohort()
	for i := range responses {
		responses[i].Responses[0].CanonicalAnswer = "Beta"
		responses[i].Responses[0].Correct = false
	}

	results, _ := engine.Analyze(testQuestions()[:1], responses)
	da := results[0].Distractors
	if da.CorrectOption == nil {
		t.Fatal("CorrectOption = nil, want zero-frequency entry")
	}
	if da.CorrectOption.Frequency != 0 {
		t.Errorf("CorrectOption.Frequency = %d, want 0", da.CorrectOption.Frequency)
	}
}

func TestEngineNoResponses(t *testing.T) {
	engine := NewEngine(models.DefaultAnalysisConfig())

	results, _ := engine.Analyze(testQuestions(), nil)
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	for _, r := range results {
		if r.TotalResponses != 0 {
			t.Errorf("question %d TotalResponses = %d, want 0", r.QuestionID, r.TotalResponses)
		}
		found := false
		for _, w := range r.Warnings {
			if strings.Contains(w, "no data") {
				found = true
			}
		}
		if !found {
			t.Errorf("question %d: expected no-data warning, got %v", r.QuestionID, r.Warnings)
		}
		// Degenerate inputs report zeros, never NaN.
		if math.IsNaN(r.DifficultyIndex) || math.IsNaN(r.PointBiserialCorrelation) {
			t.Errorf("question %d: NaN leaked into results", r.QuestionID)
		}
	}
}

func TestEngineUniformOutcomes(t *testing.T) {
	engine := NewEngine(models.DefaultAnalysisConfig())
	responses := makeCohort()
	for i := range responses {
		responses[i].Responses[0].Correct = true
		responses[i].Responses[0].CanonicalAnswer = "Alpha"
	}

	results, _ := engine.Analyze(testQuestions()[:1], responses)
	r := results[0]
	if r.DifficultyIndex != 1 {
		t.Errorf("DifficultyIndex = %f, want 1", r.DifficultyIndex)
	}
	if r.PointBiserialCorrelation != 0 {
		t.Errorf("PointBiserialCorrelation = %f, want 0", r.PointBiserialCorrelation)
	}
	found := false
	for _, w := range r.Warnings {
		if strings.Contains(w, "all responses correct") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected all-correct warning, got %v", r.Warnings)
	}
}

func TestEngineMetricToggles(t *testing.T) {
	cfg := models.DefaultAnalysisConfig()
	cfg.IncludeDistractorAnalysis = false
	cfg.IncludeDifficultyIndex = false
	engine := NewEngine(cfg)

	results, _ := engine.Analyze(testQuestions()[:1], makeCohort())
	if results[0].Distractors != nil {
		t.Error("Distractors reported despite being disabled")
	}
	if results[0].DifficultyIndex != 0 {
		t.Errorf("DifficultyIndex = %f, want 0 when disabled", results[0].DifficultyIndex)
	}
	// Discrimination stays enabled independently.
	if results[0].DiscriminationIndex != 1 {
		t.Errorf("DiscriminationIndex = %f, want 1", results[0].DiscriminationIndex)
	}
}

func TestEngineDeterministic(t *testing.T) {
	engine := NewEngine(models.DefaultAnalysisConfig())
	questions := testQuestions()

	first, firstSummary := engine.Analyze(questions, makeCohort())
	second, secondSummary := engine.Analyze(questions, makeCohort())
	if !reflect.DeepEqual(first, second) {
		t.Error("repeated runs produced different question results")
	}
	if !reflect.DeepEqual(firstSummary, secondSummary) {
		t.Error("repeated runs produced different summaries")
	}
}

func TestNewEngineSanitizesConfig(t *testing.T) {
	engine := NewEngine(models.AnalysisConfig{MinSampleSize: -1, ConfidenceLevel: 2})
	cfg := engine.Config()
	if cfg.MinSampleSize != 30 {
		t.Errorf("MinSampleSize = %d, want 30", cfg.MinSampleSize)
	}
	if cfg.ConfidenceLevel != 0.95 {
		t.Errorf("ConfidenceLevel = %f, want 0.95", cfg.ConfidenceLevel)
	}
}
