package models

import (
	"encoding/json"
	"time"
)

type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "MULTIPLE_CHOICE"
	QuestionTrueFalse      QuestionType = "TRUE_FALSE"
)

var ValidQuestionTypes = map[QuestionType]bool{
	QuestionMultipleChoice: true,
	QuestionTrueFalse:      true,
}

type ExamStatus string

const (
	ExamDraft     ExamStatus = "draft"
	ExamPublished ExamStatus = "published"
	ExamClosed    ExamStatus = "closed"
)

// ── Core Structs ───────────────────────────────────────

type Exam struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	Status    ExamStatus `json:"status"`
	OwnerID   int64      `json:"owner_id"`
	Questions []Question `json:"questions,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Question is the canonical, variant-independent identity of an exam
// question: its options are in canonical order and CorrectAnswer holds the
// canonical option value. Immutable once the exam is published.
type Question struct {
	ID            int64        `json:"id"`
	ExamID        int64        `json:"exam_id"`
	Position      int          `json:"position"`
	Text          string       `json:"text"`
	Type          QuestionType `json:"type"`
	CorrectAnswer string       `json:"correct_answer"`
	Options       []string     `json:"options"`
	Points        float64      `json:"points"`
}

// ExamQuestionAssignment overrides a question's default point value for a
// specific exam. Absent assignments fall back to Question.Points.
type ExamQuestionAssignment struct {
	ExamID     int64    `json:"exam_id"`
	QuestionID int64    `json:"question_id"`
	Points     *float64 `json:"points,omitempty"`
}

// VariantGeneration groups the variants issued together for one sitting of
// an exam. Analysis scoped to a generation only considers results whose
// variant code belongs to it.
type VariantGeneration struct {
	ID        int64     `json:"id"`
	ExamID    int64     `json:"exam_id"`
	Label     string    `json:"label"`
	CreatedAt time.Time `json:"created_at"`
}

// ExamVariant is one shuffled presentation of an exam. The three metadata
// fields are stored as serialized blobs and may legitimately be absent or
// malformed; the analysis normalizer owns the fallback policy.
//
//   - QuestionOrder: JSON array of canonical question indices in the order
//     the variant presented them.
//   - OptionPermutation: JSON object mapping question id to a permutation
//     array where perm[variantPosition] = canonicalOptionIndex.
//   - AnswerKey: JSON object mapping question id to the correct answer as it
//     was presented in this variant (an option value or a variant position).
type ExamVariant struct {
	ID                int64           `json:"id"`
	ExamID            int64           `json:"exam_id"`
	Code              string          `json:"code"`
	GenerationID      *int64          `json:"generation_id,omitempty"`
	QuestionOrder     json.RawMessage `json:"question_order,omitempty"`
	OptionPermutation json.RawMessage `json:"option_permutation,omitempty"`
	AnswerKey         json.RawMessage `json:"answer_key,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

// ExamResult is one graded student attempt as stored. Correctness and points
// per answer are judged upstream at submission time; analysis never regrades.
type ExamResult struct {
	ID          int64          `json:"id"`
	ExamID      int64          `json:"exam_id"`
	UserID      *int64         `json:"user_id,omitempty"`
	StudentName *string        `json:"student_name,omitempty"`
	VariantCode *string        `json:"variant_code,omitempty"`
	Score       float64        `json:"score"`
	TotalPoints float64        `json:"total_points"`
	Answers     []ResultAnswer `json:"answers,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

type ResultAnswer struct {
	ID           int64   `json:"id"`
	ResultID     int64   `json:"result_id"`
	QuestionID   int64   `json:"question_id"`
	Answer       string  `json:"answer"`
	Correct      bool    `json:"correct"`
	PointsEarned float64 `json:"points_earned"`
	PointsMax    float64 `json:"points_max"`
}

// ── Request Types ─────────────────────────────────────

type CreateExamRequest struct {
	Title     string                  `json:"title"`
	Questions []CreateQuestionRequest `json:"questions"`
}

type CreateQuestionRequest struct {
	Text          string       `json:"text"`
	Type          QuestionType `json:"type"`
	CorrectAnswer string       `json:"correct_answer"`
	Options       []string     `json:"options"`
	Points        float64      `json:"points"`
}

type GenerateVariantsRequest struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

type SubmitResultRequest struct {
	VariantCode *string               `json:"variant_code,omitempty"`
	StudentName *string               `json:"student_name,omitempty"`
	UserID      *int64                `json:"user_id,omitempty"`
	Answers     []SubmitAnswerRequest `json:"answers"`
}

type SubmitAnswerRequest struct {
	QuestionID int64  `json:"question_id"`
	Answer     string `json:"answer"`
}

// ── Response Types ────────────────────────────────────

type GenerateVariantsResponse struct {
	GenerationID int64         `json:"generation_id"`
	Variants     []ExamVariant `json:"variants"`
}

type SubmitResultResponse struct {
	ResultID    int64   `json:"result_id"`
	Score       float64 `json:"score"`
	TotalPoints float64 `json:"total_points"`
}

type ExamListResponse struct {
	Exams []Exam `json:"exams"`
	Total int    `json:"total"`
}
