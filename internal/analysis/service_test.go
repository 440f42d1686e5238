package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/exam-analytics/backend/internal/models"
)

type fakeStore struct {
	exam     *models.Exam
	points   map[int64]float64
	variants []models.ExamVariant
	results  []models.ExamResult
	err      error
}

func (f *fakeStore) GetExam(ctx context.Context, examID int64) (*models.Exam, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.exam, nil
}

func (f *fakeStore) GetPointAssignments(ctx context.Context, examID int64) (map[int64]float64, error) {
	return f.points, nil
}

func (f *fakeStore) ListVariants(ctx context.Context, examID int64) ([]models.ExamVariant, error) {
	return f.variants, nil
}

func (f *fakeStore) ListGenerationVariantCodes(ctx context.Context, generationID int64) ([]string, error) {
	var codes []string
	for _, v := range f.variants {
		if v.GenerationID != nil && *v.GenerationID == generationID {
			codes = append(codes, v.Code)
		}
	}
	return codes, nil
}

func (f *fakeStore) ListResults(ctx context.Context, examID int64) ([]models.ExamResult, error) {
	return f.results, nil
}

func genPtr(id int64) *int64 { return &id }

func fixtureStore() *fakeStore {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return &fakeStore{
		exam: &models.Exam{ID: 1, Title: "Final", Questions: testQuestions()},
		variants: []models.ExamVariant{
			{ExamID: 1, Code: "A", GenerationID: genPtr(10)},
			{ExamID: 1, Code: "B", GenerationID: genPtr(10),
				OptionPermutation: json.RawMessage(`{"1": [3, 2, 0, 1]}`)},
			{ExamID: 1, Code: "old", GenerationID: genPtr(9)},
		},
		results: []models.ExamResult{
			{ID: 1, ExamID: 1, VariantCode: strPtr("A"), Score: 2, TotalPoints: 2,
				CreatedAt: now, UpdatedAt: now.Add(30 * time.Minute),
				Answers: []models.ResultAnswer{
					{QuestionID: 1, Answer: "Alpha", Correct: true, PointsEarned: 1, PointsMax: 1},
					{QuestionID: 2, Answer: "True", Correct: true, PointsEarned: 1, PointsMax: 1},
				}},
			{ID: 2, ExamID: 1, VariantCode: strPtr("B"), Score: 0, TotalPoints: 2,
				CreatedAt: now, UpdatedAt: now.Add(40 * time.Minute),
				Answers: []models.ResultAnswer{
					{QuestionID: 1, Answer: "0", PointsMax: 1},
					{QuestionID: 2, Answer: "False", PointsMax: 1},
				}},
			{ID: 3, ExamID: 1, VariantCode: strPtr("old"), Score: 1, TotalPoints: 2,
				CreatedAt: now, UpdatedAt: now.Add(20 * time.Minute),
				Answers: []models.ResultAnswer{
					{QuestionID: 1, Answer: "Alpha", Correct: true, PointsEarned: 1, PointsMax: 1},
				}},
			// Incomplete: submitted without any answers.
			{ID: 4, ExamID: 1, VariantCode: strPtr("A"), TotalPoints: 2,
				CreatedAt: now, UpdatedAt: now},
		},
	}
}

func TestServiceAnalyzeExam(t *testing.T) {
	svc := NewService(fixtureStore())

	result, err := svc.AnalyzeExam(context.Background(), 1, nil, models.DefaultAnalysisConfig(), true)
	if err != nil {
		t.Fatalf("AnalyzeExam returned error: %v", err)
	}

	if result.ExamID != 1 || result.ExamTitle != "Final" {
		t.Errorf("exam identity = %d %q, want 1 \"Final\"", result.ExamID, result.ExamTitle)
	}
	if result.SampleSize != 4 {
		t.Errorf("SampleSize = %d, want 4", result.SampleSize)
	}
	if len(result.Questions) != 2 {
		t.Fatalf("got %d question results, want 2", len(result.Questions))
	}

	// Student 2 answered variant position 0 on a shuffled variant; that is
	// canonical option "Delta", a distractor.
	q1 := result.Questions[0]
	if q1.QuestionID != 1 {
		t.Fatalf("first question = %d, want 1", q1.QuestionID)
	}
	foundDelta := false
	for _, o := range q1.Distractors.Options {
		if o.Option == "Delta" && o.Frequency == 1 {
			foundDelta = true
		}
	}
	if !foundDelta {
		t.Errorf("expected Delta distractor from shuffled variant, got %+v", q1.Distractors)
	}

	// Per-variant results cover the three codes that received attempts.
	if len(result.VariantResults) != 3 {
		t.Fatalf("got %d variant results, want 3", len(result.VariantResults))
	}
	if result.VariantResults[0].ExamTitle != "Final (A)" {
		t.Errorf("first variant title = %q, want \"Final (A)\"", result.VariantResults[0].ExamTitle)
	}
}

func TestServiceAnalyzeExamGenerationScoped(t *testing.T) {
	svc := NewService(fixtureStore())

	result, err := svc.AnalyzeExam(context.Background(), 1, genPtr(10), models.DefaultAnalysisConfig(), false)
	if err != nil {
		t.Fatalf("AnalyzeExam returned error: %v", err)
	}
	// The attempt on the previous generation's variant is excluded.
	if result.SampleSize != 3 {
		t.Errorf("SampleSize = %d, want 3", result.SampleSize)
	}
	for _, r := range result.Responses {
		if r.VariantCode == "old" {
			t.Error("generation scoping leaked an old-generation attempt")
		}
	}
}

func TestServiceAnalyzeExamEmptyGeneration(t *testing.T) {
	svc := NewService(fixtureStore())

	result, err := svc.AnalyzeExam(context.Background(), 1, genPtr(999), models.DefaultAnalysisConfig(), false)
	if err != nil {
		t.Fatalf("AnalyzeExam returned error: %v", err)
	}
	// An unknown generation matches nothing rather than everything.
	if result.SampleSize != 0 {
		t.Errorf("SampleSize = %d, want 0", result.SampleSize)
	}
}

func TestServiceAnalyzeExamExcludesIncomplete(t *testing.T) {
	svc := NewService(fixtureStore())
	cfg := models.DefaultAnalysisConfig()
	cfg.ExcludeIncompleteData = true

	result, err := svc.AnalyzeExam(context.Background(), 1, nil, cfg, false)
	if err != nil {
		t.Fatalf("AnalyzeExam returned error: %v", err)
	}
	if result.SampleSize != 3 || result.ExcludedCount != 1 {
		t.Errorf("sample/excluded = %d/%d, want 3/1", result.SampleSize, result.ExcludedCount)
	}
}

func TestServicePropagatesStoreErrors(t *testing.T) {
	sentinel := errors.New("connection refused")
	svc := NewService(&fakeStore{err: sentinel})

	if _, err := svc.AnalyzeExam(context.Background(), 1, nil, models.DefaultAnalysisConfig(), false); !errors.Is(err, sentinel) {
		t.Errorf("AnalyzeExam error = %v, want wrapped %v", err, sentinel)
	}
	if _, err := svc.AnalyzeIntegrity(context.Background(), 1, nil); !errors.Is(err, sentinel) {
		t.Errorf("AnalyzeIntegrity error = %v, want wrapped %v", err, sentinel)
	}
}

func TestServiceAnalyzeIntegrity(t *testing.T) {
	svc := NewService(fixtureStore())

	result, err := svc.AnalyzeIntegrity(context.Background(), 1, nil)
	if err != nil {
		t.Fatalf("AnalyzeIntegrity returned error: %v", err)
	}
	if len(result.VariantSimilarity) != 3 {
		t.Errorf("variant matrix has %d rows, want 3", len(result.VariantSimilarity))
	}
	// Identical answer keys across unshuffled variants score 1.
	if got := result.VariantSimilarity["A"]["old"]; got != 1 {
		t.Errorf("similarity(A, old) = %f, want 1", got)
	}
}
