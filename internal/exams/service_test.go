package exams

import (
	"math/rand"
	"strconv"
	"testing"

	"github.com/exam-analytics/backend/internal/analysis"
	"github.com/exam-analytics/backend/internal/models"
)

func TestGradeCanonicalSubmission(t *testing.T) {
	exam := &models.Exam{ID: 1, Questions: sampleQuestions()}
	req := models.SubmitResultRequest{
		Answers: []models.SubmitAnswerRequest{
			{QuestionID: 1, Answer: "Beta"},
			{QuestionID: 2, Answer: "true"},
		},
	}

	result := grade(exam, nil, req)
	if result.TotalPoints != 3 {
		t.Errorf("TotalPoints = %f, want 3", result.TotalPoints)
	}
	if result.Score != 2 {
		t.Errorf("Score = %f, want 2 (question 2 answered wrong)", result.Score)
	}
	if !result.Answers[0].Correct || result.Answers[0].PointsEarned != 2 {
		t.Errorf("answer 1 = %+v, want correct for 2 points", result.Answers[0])
	}
	if result.Answers[1].Correct {
		t.Error("answer 2 graded correct, want incorrect")
	}
}

func TestGradeShuffledSubmission(t *testing.T) {
	questions := sampleQuestions()
	exam := &models.Exam{ID: 1, Questions: questions}

	rng := rand.New(rand.NewSource(7))
	variant, err := shuffleVariant(rng, "C", questions)
	if err != nil {
		t.Fatal(err)
	}
	view := analysis.NormalizeVariant(questions, variant, nil)

	// Submit the variant position of the correct option for question 1.
	canonicalIdx := 1 // "Beta"
	pos, ok := view.Mapping(1, 4).VariantPosition(canonicalIdx)
	if !ok {
		t.Fatal("no variant position for canonical option 1")
	}

	req := models.SubmitResultRequest{
		VariantCode: &variant.Code,
		Answers: []models.SubmitAnswerRequest{
			{QuestionID: 1, Answer: strconv.Itoa(pos)},
		},
	}
	result := grade(exam, view, req)
	if !result.Answers[0].Correct {
		t.Errorf("position %d on shuffled variant graded incorrect, want correct", pos)
	}
	if result.Score != 2 {
		t.Errorf("Score = %f, want 2", result.Score)
	}

	// A different position must not grade as correct.
	req.Answers[0].Answer = strconv.Itoa((pos + 1) % 4)
	result = grade(exam, view, req)
	if result.Answers[0].Correct {
		t.Error("wrong position graded correct")
	}
}

func TestGradeIgnoresUnknownQuestions(t *testing.T) {
	exam := &models.Exam{ID: 1, Questions: sampleQuestions()}
	req := models.SubmitResultRequest{
		Answers: []models.SubmitAnswerRequest{
			{QuestionID: 99, Answer: "whatever"},
		},
	}
	result := grade(exam, nil, req)
	if len(result.Answers) != 0 {
		t.Errorf("got %d graded answers, want 0", len(result.Answers))
	}
	if result.TotalPoints != 3 {
		t.Errorf("TotalPoints = %f, want 3", result.TotalPoints)
	}
}

func TestGradeBlankAnswer(t *testing.T) {
	exam := &models.Exam{ID: 1, Questions: sampleQuestions()}
	req := models.SubmitResultRequest{
		Answers: []models.SubmitAnswerRequest{
			{QuestionID: 1, Answer: "  "},
		},
	}
	result := grade(exam, nil, req)
	if result.Answers[0].Correct {
		t.Error("blank answer graded correct")
	}
	if result.Answers[0].PointsEarned != 0 {
		t.Errorf("blank answer earned %f points", result.Answers[0].PointsEarned)
	}
}
