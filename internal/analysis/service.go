package analysis

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/exam-analytics/backend/internal/models"
)

// Store is the narrow data-access surface the analysis needs. The service
// performs no retries: upstream failures propagate unchanged to the caller,
// which owns presentation ("no data available") and timeouts.
type Store interface {
	GetExam(ctx context.Context, examID int64) (*models.Exam, error)
	GetPointAssignments(ctx context.Context, examID int64) (map[int64]float64, error)
	ListVariants(ctx context.Context, examID int64) ([]models.ExamVariant, error)
	ListGenerationVariantCodes(ctx context.Context, generationID int64) ([]string, error)
	ListResults(ctx context.Context, examID int64) ([]models.ExamResult, error)
}

// Service runs the full analysis pipeline: load, normalize variants,
// collect responses, compute item statistics, and optionally the
// variant-scoped and integrity passes. Each run is a pure function of the
// loaded data, so concurrent runs for different exams need no coordination.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// loaded bundles everything one analysis run reads from the store.
type loaded struct {
	exam            *models.Exam
	views           map[string]*VariantView
	responses       []models.StudentResponse
	generationCodes []string
}

func (s *Service) load(ctx context.Context, examID int64, generationID *int64) (*loaded, error) {
	exam, err := s.store.GetExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("load exam %d: %w", examID, err)
	}
	points, err := s.store.GetPointAssignments(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("load point assignments: %w", err)
	}
	variants, err := s.store.ListVariants(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("load variants: %w", err)
	}
	results, err := s.store.ListResults(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("load results: %w", err)
	}

	var generationCodes []string
	if generationID != nil {
		generationCodes, err = s.store.ListGenerationVariantCodes(ctx, *generationID)
		if err != nil {
			return nil, fmt.Errorf("load generation %d: %w", *generationID, err)
		}
		if generationCodes == nil {
			generationCodes = []string{}
		}
	}

	views := make(map[string]*VariantView, len(variants))
	for _, v := range variants {
		if generationID != nil && (v.GenerationID == nil || *v.GenerationID != *generationID) {
			continue
		}
		view := NormalizeVariant(exam.Questions, v, points)
		for _, w := range view.Warnings {
			log.Printf("WARN: exam %d variant %s: %s", examID, v.Code, w)
		}
		views[v.Code] = view
	}

	return &loaded{
		exam:            exam,
		views:           views,
		responses:       CollectResponses(results, views, exam.Questions, generationCodes),
		generationCodes: generationCodes,
	}, nil
}

// AnalyzeExam runs the item-statistics analysis for an exam, optionally
// scoped to one variant generation and optionally including the per-variant
// re-analysis.
func (s *Service) AnalyzeExam(ctx context.Context, examID int64, generationID *int64, cfg models.AnalysisConfig, perVariant bool) (*models.BiPointAnalysisResult, error) {
	data, err := s.load(ctx, examID, generationID)
	if err != nil {
		return nil, err
	}

	engine := NewEngine(cfg)
	responses := data.responses
	excluded := 0
	if cfg.ExcludeIncompleteData {
		responses, excluded = FilterIncomplete(responses)
	}

	items, summary := engine.Analyze(data.exam.Questions, responses)
	result := &models.BiPointAnalysisResult{
		ExamID:        examID,
		ExamTitle:     data.exam.Title,
		Config:        engine.Config(),
		Questions:     items,
		Summary:       summary,
		SampleSize:    len(responses),
		ExcludedCount: excluded,
		Responses:     responses,
		GeneratedAt:   time.Now().UTC(),
	}
	if perVariant {
		result.VariantResults = AnalyzeByVariant(*data.exam, data.exam.Questions, data.views, responses, engine)
	}
	return result, nil
}

// AnalyzeIntegrity computes the student and variant similarity matrices for
// an exam, optionally scoped to one variant generation.
func (s *Service) AnalyzeIntegrity(ctx context.Context, examID int64, generationID *int64) (*models.IntegrityResult, error) {
	data, err := s.load(ctx, examID, generationID)
	if err != nil {
		return nil, err
	}
	result := AnalyzeIntegrity(examID, data.views, data.responses)
	return &result, nil
}
