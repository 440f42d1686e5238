package analysis

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/exam-analytics/backend/internal/models"
)

// SQLStore implements Store against PostgreSQL. All reads are plain
// single-statement queries; the analysis tolerates rows changing between
// statements, so no transaction is taken.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) GetExam(ctx context.Context, examID int64) (*models.Exam, error) {
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
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	return &exam, nil
}

func (s *SQLStore) GetPointAssignments(ctx context.Context, examID int64) (map[int64]float64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT question_id, points FROM exam_questions
		 WHERE exam_id = $1 AND points IS NOT NULL`,
		examID,
	)
	if err != nil {
		return nil, fmt.Errorf("list point assignments: %w", err)
	}
	defer rows.Close()

	points := make(map[int64]float64)
	for rows.Next() {
		var qid int64
		var pts float64
		if err := rows.Scan(&qid, &pts); err != nil {
			return nil, fmt.Errorf("scan point assignment: %w", err)
		}
		points[qid] = pts
	}
	return points, rows.Err()
}

func (s *SQLStore) ListVariants(ctx context.Context, examID int64) ([]models.ExamVariant, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, exam_id, generation_id, code, question_order, option_permutation, answer_key, created_at
		 FROM exam_variants WHERE exam_id = $1 ORDER BY code`,
		examID,
	)
	if err != nil {
		return nil, fmt.Errorf("list variants: %w", err)
	}
	defer rows.Close()

	var variants []models.ExamVariant
	for rows.Next() {
		var v models.ExamVariant
		if err := rows.Scan(&v.ID, &v.ExamID, &v.GenerationID, &v.Code,
			&v.QuestionOrder, &v.OptionPermutation, &v.AnswerKey, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan variant: %w", err)
		}
		variants = append(variants, v)
	}
	return variants, rows.Err()
}

func (s *SQLStore) ListGenerationVariantCodes(ctx context.Context, generationID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT code FROM exam_variants WHERE generation_id = $1 ORDER BY code`,
		generationID,
	)
	if err != nil {
		return nil, fmt.Errorf("list generation codes: %w", err)
	}
	defer rows.Close()

	codes := []string{}
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("scan generation code: %w", err)
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

func (s *SQLStore) ListResults(ctx context.Context, examID int64) ([]models.ExamResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.exam_id, r.user_id, r.student_name, r.variant_code,
		        r.score, r.total_points, r.created_at, r.updated_at, u.name
		 FROM exam_results r
		 LEFT JOIN users u ON u.id = r.user_id
		 WHERE r.exam_id = $1 ORDER BY r.id`,
		examID,
	)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var results []models.ExamResult
	index := make(map[int64]int)
	for rows.Next() {
		var r models.ExamResult
		var userName *string
		if err := rows.Scan(&r.ID, &r.ExamID, &r.UserID, &r.StudentName, &r.VariantCode,
			&r.Score, &r.TotalPoints, &r.CreatedAt, &r.UpdatedAt, &userName); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		// Registered users without a recorded name are labeled by their
		// account's short display name.
		if (r.StudentName == nil || *r.StudentName == "") && userName != nil && *userName != "" {
			display := models.User{Name: *userName}.DisplayName()
			r.StudentName = &display
		}
		index[r.ID] = len(results)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	if len(results) == 0 {
		return results, nil
	}

	// One pass over all answers for the exam instead of a query per result.
	answerRows, err := s.db.QueryContext(ctx,
		`SELECT a.result_id, a.question_id, a.answer, a.correct, a.points_earned, a.points_max
		 FROM result_answers a
		 JOIN exam_results r ON r.id = a.result_id
		 WHERE r.exam_id = $1
		 ORDER BY a.result_id, a.question_id`,
		examID,
	)
	if err != nil {
		return nil, fmt.Errorf("list result answers: %w", err)
	}
	defer answerRows.Close()

	for answerRows.Next() {
		var resultID int64
		var a models.ResultAnswer
		if err := answerRows.Scan(&resultID, &a.QuestionID, &a.Answer,
			&a.Correct, &a.PointsEarned, &a.PointsMax); err != nil {
			return nil, fmt.Errorf("scan result answer: %w", err)
		}
		if i, ok := index[resultID]; ok {
			results[i].Answers = append(results[i].Answers, a)
		}
	}
	return results, answerRows.Err()
}
