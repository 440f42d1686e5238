package models

import "time"

// ── Analysis Input Types ──────────────────────────────

// QuestionResponse is one student's answer to one canonical question.
// Answer is the raw recorded string; CanonicalAnswer is the same selection
// re-expressed as the canonical option value after variant un-shuffling
// (equal to Answer when the variant applied no option shuffle).
type QuestionResponse struct {
	QuestionID      int64   `json:"question_id"`
	Answer          string  `json:"answer"`
	CanonicalAnswer string  `json:"canonical_answer"`
	Correct         bool    `json:"correct"`
	Points          float64 `json:"points"`
	MaxPoints       float64 `json:"max_points"`
}

// StudentResponse is one graded attempt in uniform in-memory form. Built
// once per attempt and never mutated; re-analysis rebuilds from source data.
type StudentResponse struct {
	StudentID         string             `json:"student_id"`
	InternalID        int64              `json:"internal_id"`
	VariantCode       string             `json:"variant_code"`
	Responses         []QuestionResponse `json:"responses"`
	TotalScore        float64            `json:"total_score"`
	MaxScore          float64            `json:"max_score"`
	StartedAt         time.Time          `json:"started_at"`
	CompletedAt       time.Time          `json:"completed_at"`
	CompletionMinutes *int               `json:"completion_minutes,omitempty"`
}

// ── Configuration ─────────────────────────────────────

type AnalysisConfig struct {
	MinSampleSize              int     `json:"min_sample_size"`
	ConfidenceLevel            float64 `json:"confidence_level"`
	IncludeDifficultyIndex     bool    `json:"include_difficulty_index"`
	IncludeDiscriminationIndex bool    `json:"include_discrimination_index"`
	IncludePointBiserial       bool    `json:"include_point_biserial"`
	IncludeDistractorAnalysis  bool    `json:"include_distractor_analysis"`
	ExcludeIncompleteData      bool    `json:"exclude_incomplete_data"`
}

func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		MinSampleSize:              30,
		ConfidenceLevel:            0.95,
		IncludeDifficultyIndex:     true,
		IncludeDiscriminationIndex: true,
		IncludePointBiserial:       true,
		IncludeDistractorAnalysis:  true,
		ExcludeIncompleteData:      false,
	}
}

// ── Analysis Output Types ─────────────────────────────

type OptionStat struct {
	Option         string  `json:"option"`
	Frequency      int     `json:"frequency"`
	Percentage     float64 `json:"percentage"`
	Discrimination float64 `json:"discrimination"`
	PointBiserial  float64 `json:"point_biserial"`
}

type DistractorAnalysis struct {
	Options           []OptionStat `json:"options"`
	CorrectOption     *OptionStat  `json:"correct_option,omitempty"`
	OmittedResponses  int          `json:"omitted_responses"`
	OmittedPercentage float64      `json:"omitted_percentage"`
}

type ConfidenceInterval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

type StatisticalSignificance struct {
	IsSignificant      bool                `json:"is_significant"`
	PValue             float64             `json:"p_value"`
	TestStatistic      float64             `json:"test_statistic"`
	CriticalValue      float64             `json:"critical_value"`
	DegreesOfFreedom   int                 `json:"degrees_of_freedom"`
	ConfidenceInterval *ConfidenceInterval `json:"confidence_interval,omitempty"`
	Warnings           []string            `json:"warnings,omitempty"`
}

type QuestionAnalysisResult struct {
	QuestionID               int64                   `json:"question_id"`
	QuestionText             string                  `json:"question_text"`
	QuestionType             QuestionType            `json:"question_type"`
	TotalResponses           int                     `json:"total_responses"`
	CorrectResponses         int                     `json:"correct_responses"`
	DifficultyIndex          float64                 `json:"difficulty_index"`
	DiscriminationIndex      float64                 `json:"discrimination_index"`
	PointBiserialCorrelation float64                 `json:"point_biserial_correlation"`
	Distractors              *DistractorAnalysis     `json:"distractor_analysis,omitempty"`
	Significance             StatisticalSignificance `json:"statistical_significance"`
	Warnings                 []string                `json:"warnings,omitempty"`
}

// ScoreDistribution describes the distribution of total scores across all
// included attempts. Skewness and kurtosis are nil when the sample is too
// small to estimate higher moments safely.
type ScoreDistribution struct {
	Mean      float64    `json:"mean"`
	Median    float64    `json:"median"`
	StdDev    float64    `json:"std_dev"`
	Skewness  *float64   `json:"skewness"`
	Kurtosis  *float64   `json:"kurtosis"`
	Min       float64    `json:"min"`
	Max       float64    `json:"max"`
	Quartiles [3]float64 `json:"quartiles"`
}

type AnalysisSummary struct {
	MeanDifficulty     float64           `json:"mean_difficulty"`
	MeanDiscrimination float64           `json:"mean_discrimination"`
	MeanPointBiserial  float64           `json:"mean_point_biserial"`
	ScoreDistribution  ScoreDistribution `json:"score_distribution"`
}

// BiPointAnalysisResult is the top-level output of one analysis run.
type BiPointAnalysisResult struct {
	ExamID         int64                    `json:"exam_id"`
	ExamTitle      string                   `json:"exam_title"`
	Config         AnalysisConfig           `json:"config"`
	Questions      []QuestionAnalysisResult `json:"questions"`
	Summary        AnalysisSummary          `json:"summary"`
	SampleSize     int                      `json:"sample_size"`
	ExcludedCount  int                      `json:"excluded_count"`
	Responses      []StudentResponse        `json:"responses,omitempty"`
	VariantResults []BiPointAnalysisResult  `json:"variant_results,omitempty"`
	GeneratedAt    time.Time                `json:"generated_at"`
}

// IntegrityResult holds the pairwise similarity matrices used for
// collusion/leakage review. Both matrices are symmetric with unit diagonal
// and are keyed by human-readable labels rather than internal ids.
type IntegrityResult struct {
	ExamID            int64                         `json:"exam_id"`
	StudentSimilarity map[string]map[string]float64 `json:"student_similarity"`
	VariantSimilarity map[string]map[string]float64 `json:"variant_similarity"`
	GeneratedAt       time.Time                     `json:"generated_at"`
}
