package exams

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/exam-analytics/backend/internal/analysis"
	"github.com/exam-analytics/backend/internal/models"
)

const maxVariantsPerGeneration = 52

type Service struct {
	store *Store
	rng   *rand.Rand
}

func NewService(store *Store) *Service {
	return &Service{
		store: store,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ── Exam Management ─────────────────────────────────────

func (s *Service) CreateExam(ctx context.Context, ownerID int64, req models.CreateExamRequest) (*models.Exam, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("title is required")
	}
	if len(req.Questions) == 0 {
		return nil, fmt.Errorf("at least one question is required")
	}
	for i, q := range req.Questions {
		if strings.TrimSpace(q.Text) == "" {
			return nil, fmt.Errorf("question %d: text is required", i+1)
		}
		if !models.ValidQuestionTypes[q.Type] {
			return nil, fmt.Errorf("question %d: invalid type %q", i+1, q.Type)
		}
		if q.Type == models.QuestionMultipleChoice {
			if len(q.Options) < 2 {
				return nil, fmt.Errorf("question %d: at least two options required", i+1)
			}
			found := false
			for _, opt := range q.Options {
				if opt == q.CorrectAnswer {
					found = true
					break
				}
			}
			if !found {
				return nil, fmt.Errorf("question %d: correct answer is not among the options", i+1)
			}
		}
		if q.Points < 0 {
			return nil, fmt.Errorf("question %d: points must not be negative", i+1)
		}
	}

	return s.store.CreateExam(ctx, ownerID, req)
}

func (s *Service) GetExam(ctx context.Context, examID int64) (*models.Exam, error) {
	return s.store.GetExam(ctx, examID)
}

func (s *Service) ListExams(ctx context.Context, ownerID int64) (*models.ExamListResponse, error) {
	exams, err := s.store.ListExams(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return &models.ExamListResponse{Exams: exams, Total: len(exams)}, nil
}

func (s *Service) PublishExam(ctx context.Context, examID int64) error {
	return s.store.UpdateExamStatus(ctx, examID, models.ExamPublished)
}

// ── Variant Generation ──────────────────────────────────

// GenerateVariants creates one generation of shuffled variants. Each variant
// gets a fresh question order and per-question option permutations; the
// stored blobs are exactly what the analysis normalizer un-shuffles later.
func (s *Service) GenerateVariants(ctx context.Context, examID int64, req models.GenerateVariantsRequest) (*models.GenerateVariantsResponse, error) {
	if req.Count <= 0 {
		req.Count = 1
	}
	if req.Count > maxVariantsPerGeneration {
		return nil, fmt.Errorf("at most %d variants per generation", maxVariantsPerGeneration)
	}

	exam, err := s.store.GetExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	if len(exam.Questions) == 0 {
		return nil, fmt.Errorf("exam %d has no questions", examID)
	}

	label := req.Label
	if label == "" {
		label = time.Now().UTC().Format("2006-01-02")
	}
	gen, err := s.store.CreateGeneration(ctx, examID, label)
	if err != nil {
		return nil, err
	}

	variants := make([]models.ExamVariant, 0, req.Count)
	for i := 0; i < req.Count; i++ {
		v, err := shuffleVariant(s.rng, variantCode(i), exam.Questions)
		if err != nil {
			return nil, err
		}
		v.ExamID = examID
		v.GenerationID = &gen.ID
		if err := s.store.CreateVariant(ctx, &v); err != nil {
			return nil, err
		}
		variants = append(variants, v)
	}

	log.Printf("Generated %d variants for exam %d (generation %d, label %q)",
		len(variants), examID, gen.ID, label)
	return &models.GenerateVariantsResponse{GenerationID: gen.ID, Variants: variants}, nil
}

func (s *Service) ListGenerations(ctx context.Context, examID int64) ([]models.VariantGeneration, error) {
	return s.store.ListGenerations(ctx, examID)
}

// ── Result Submission ───────────────────────────────────

// SubmitResult grades one attempt and stores it. Grading happens here, at
// submission time: each recorded answer is resolved to its canonical option
// value through the variant's mapping and compared against the canonical
// correct answer. The analysis side never regrades.
func (s *Service) SubmitResult(ctx context.Context, examID int64, req models.SubmitResultRequest) (*models.SubmitResultResponse, error) {
	exam, err := s.store.GetExam(ctx, examID)
	if err != nil {
		return nil, err
	}

	var view *analysis.VariantView
	if req.VariantCode != nil && *req.VariantCode != "" {
		variant, err := s.store.GetVariantByCode(ctx, examID, *req.VariantCode)
		if err != nil {
			return nil, err
		}
		view = analysis.NormalizeVariant(exam.Questions, *variant, nil)
		for _, w := range view.Warnings {
			log.Printf("WARN: grading against variant %s: %s", *req.VariantCode, w)
		}
	}

	result := grade(exam, view, req)
	if err := s.store.CreateResult(ctx, result); err != nil {
		return nil, err
	}

	return &models.SubmitResultResponse{
		ResultID:    result.ID,
		Score:       result.Score,
		TotalPoints: result.TotalPoints,
	}, nil
}

func (s *Service) ListResults(ctx context.Context, examID int64) ([]models.ExamResult, error) {
	return s.store.ListResults(ctx, examID)
}

// grade scores a submission against the canonical answer key. TotalPoints
// covers every exam question, answered or not, so omissions cost their full
// point value.
func grade(exam *models.Exam, view *analysis.VariantView, req models.SubmitResultRequest) *models.ExamResult {
	byID := make(map[int64]models.Question, len(exam.Questions))
	var totalPoints float64
	for _, q := range exam.Questions {
		byID[q.ID] = q
		totalPoints += q.Points
	}

	result := &models.ExamResult{
		ExamID:      exam.ID,
		UserID:      req.UserID,
		StudentName: req.StudentName,
		VariantCode: req.VariantCode,
		TotalPoints: totalPoints,
	}

	for _, ans := range req.Answers {
		q, ok := byID[ans.QuestionID]
		if !ok {
			continue
		}
		options := q.Options
		if len(options) == 0 && q.Type == models.QuestionTrueFalse {
			options = []string{"True", "False"}
		}

		mapping := analysis.IdentityMapping(len(options))
		correctAnswer := q.CorrectAnswer
		if view != nil {
			mapping = view.Mapping(q.ID, len(options))
			if key, ok := view.AnswerKey[q.ID]; ok {
				correctAnswer = key
			}
		}

		canonical := mapping.CanonicalAnswer(ans.Answer, options)
		correct := canonical != "" && strings.EqualFold(canonical, correctAnswer)

		ra := models.ResultAnswer{
			QuestionID: ans.QuestionID,
			Answer:     ans.Answer,
			Correct:    correct,
			PointsMax:  q.Points,
		}
		if correct {
			ra.PointsEarned = q.Points
			result.Score += q.Points
		}
		result.Answers = append(result.Answers, ra)
	}

	return result
}
