package exams

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/exam-analytics/backend/internal/models"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// ── Exams ───────────────────────────────────────────────

func (s *Store) CreateExam(ctx context.Context, ownerID int64, req models.CreateExamRequest) (*models.Exam, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var exam models.Exam
	err = tx.QueryRowContext(ctx,
		`INSERT INTO exams (title, status, owner_id)
		 VALUES ($1, $2, $3)
		 RETURNING id, title, status, owner_id, created_at, updated_at`,
		req.Title, models.ExamDraft, ownerID,
	).Scan(&exam.ID, &exam.Title, &exam.Status, &exam.OwnerID, &exam.CreatedAt, &exam.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create exam: %w", err)
	}

	for i, qr := range req.Questions {
		options, err := json.Marshal(qr.Options)
		if err != nil {
			return nil, fmt.Errorf("encode options: %w", err)
		}
		q := models.Question{
			ExamID:        exam.ID,
			Position:      i,
			Text:          qr.Text,
			Type:          qr.Type,
			CorrectAnswer: qr.CorrectAnswer,
			Options:       qr.Options,
			Points:        qr.Points,
		}
		err = tx.QueryRowContext(ctx,
			`INSERT INTO questions (exam_id, position, text, type, correct_answer, options, points)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 RETURNING id`,
			exam.ID, i, qr.Text, qr.Type, qr.CorrectAnswer, options, qr.Points,
		).Scan(&q.ID)
		if err != nil {
			return nil, fmt.Errorf("create question %d: %w", i, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO exam_questions (exam_id, question_id) VALUES ($1, $2)`,
			exam.ID, q.ID,
		)
		if err != nil {
			return nil, fmt.Errorf("assign question %d: %w", i, err)
		}
		exam.Questions = append(exam.Questions, q)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &exam, nil
}

func (s *Store) GetExam(ctx context.Context, examID int64) (*models.Exam, error) {
	var exam models.Exam
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, status, owner_id, created_at, updated_at
		 FROM exams WHERE id = $1`,
		examID,
	).Scan(&exam.ID, &exam.Title, &exam.Status, &exam.OwnerID, &exam.CreatedAt, &exam.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, exam_id, position, text, type, correct_answer, options, points
		 FROM questions WHERE exam_id = $1 ORDER BY position`,
		examID,
	)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var q models.Question
		var options []byte
		if err := rows.Scan(&q.ID, &q.ExamID, &q.Position, &q.Text, &q.Type,
			&q.CorrectAnswer, &options, &q.Points); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if len(options) > 0 {
			if err := json.Unmarshal(options, &q.Options); err != nil {
				return nil, fmt.Errorf("decode options for question %d: %w", q.ID, err)
			}
		}
		exam.Questions = append(exam.Questions, q)
	}
	return &exam, rows.Err()
}

func (s *Store) ListExams(ctx context.Context, ownerID int64) ([]models.Exam, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, status, owner_id, created_at, updated_at
		 FROM exams WHERE owner_id = $1 ORDER BY created_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	defer rows.Close()

	exams := []models.Exam{}
	for rows.Next() {
		var e models.Exam
		if err := rows.Scan(&e.ID, &e.Title, &e.Status, &e.OwnerID, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan exam: %w", err)
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

func (s *Store) UpdateExamStatus(ctx context.Context, examID int64, status models.ExamStatus) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE exams SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, examID,
	)
	return err
}

// ── Variants ────────────────────────────────────────────

func (s *Store) CreateGeneration(ctx context.Context, examID int64, label string) (*models.VariantGeneration, error) {
	var gen models.VariantGeneration
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO variant_generations (exam_id, label)
		 VALUES ($1, $2)
		 RETURNING id, exam_id, label, created_at`,
		examID, label,
	).Scan(&gen.ID, &gen.ExamID, &gen.Label, &gen.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create generation: %w", err)
	}
	return &gen, nil
}

func (s *Store) CreateVariant(ctx context.Context, v *models.ExamVariant) error {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO exam_variants (exam_id, generation_id, code, question_order, option_permutation, answer_key)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		v.ExamID, v.GenerationID, v.Code, []byte(v.QuestionOrder), []byte(v.OptionPermutation), []byte(v.AnswerKey),
	).Scan(&v.ID, &v.CreatedAt)
	if err != nil {
		return fmt.Errorf("create variant: %w", err)
	}
	return nil
}

func (s *Store) GetVariantByCode(ctx context.Context, examID int64, code string) (*models.ExamVariant, error) {
	var v models.ExamVariant
	err := s.db.QueryRowContext(ctx,
		`SELECT id, exam_id, generation_id, code, question_order, option_permutation, answer_key, created_at
		 FROM exam_variants WHERE exam_id = $1 AND code = $2
		 ORDER BY id DESC LIMIT 1`,
		examID, code,
	).Scan(&v.ID, &v.ExamID, &v.GenerationID, &v.Code,
		&v.QuestionOrder, &v.OptionPermutation, &v.AnswerKey, &v.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get variant %s: %w", code, err)
	}
	return &v, nil
}

func (s *Store) ListGenerations(ctx context.Context, examID int64) ([]models.VariantGeneration, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, exam_id, label, created_at
		 FROM variant_generations WHERE exam_id = $1 ORDER BY created_at DESC`,
		examID,
	)
	if err != nil {
		return nil, fmt.Errorf("list generations: %w", err)
	}
	defer rows.Close()

	gens := []models.VariantGeneration{}
	for rows.Next() {
		var g models.VariantGeneration
		if err := rows.Scan(&g.ID, &g.ExamID, &g.Label, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan generation: %w", err)
		}
		gens = append(gens, g)
	}
	return gens, rows.Err()
}

// ── Results ─────────────────────────────────────────────

func (s *Store) CreateResult(ctx context.Context, result *models.ExamResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx,
		`INSERT INTO exam_results (exam_id, user_id, student_name, variant_code, score, total_points)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		result.ExamID, result.UserID, result.StudentName, result.VariantCode,
		result.Score, result.TotalPoints,
	).Scan(&result.ID, &result.CreatedAt, &result.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create result: %w", err)
	}

	for i := range result.Answers {
		a := &result.Answers[i]
		a.ResultID = result.ID
		err = tx.QueryRowContext(ctx,
			`INSERT INTO result_answers (result_id, question_id, answer, correct, points_earned, points_max)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING id`,
			a.ResultID, a.QuestionID, a.Answer, a.Correct, a.PointsEarned, a.PointsMax,
		).Scan(&a.ID)
		if err != nil {
			return fmt.Errorf("create answer for question %d: %w", a.QuestionID, err)
		}
	}

	return tx.Commit()
}

// ListResults returns the graded attempts for an exam, without the
// per-answer rows; those belong to the analysis side.
func (s *Store) ListResults(ctx context.Context, examID int64) ([]models.ExamResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, exam_id, user_id, student_name, variant_code, score, total_points, created_at, updated_at
		 FROM exam_results WHERE exam_id = $1 ORDER BY created_at DESC`,
		examID,
	)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	results := []models.ExamResult{}
	for rows.Next() {
		var r models.ExamResult
		if err := rows.Scan(&r.ID, &r.ExamID, &r.UserID, &r.StudentName, &r.VariantCode,
			&r.Score, &r.TotalPoints, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
