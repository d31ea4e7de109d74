package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/schoolhub-backend/internal/model"
)

// ExamRepository handles exam, question and session data access.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

const examColumns = `id, school_id, teacher_id, title, COALESCE(description, ''), subject, grade_level,
	difficulty_level, exam_type, duration_minutes, start_time, end_time, max_attempts,
	COALESCE(instructions, ''), is_published, total_questions, total_marks, passing_marks,
	created_at, updated_at`

func scanExam(row pgx.Row) (*model.Exam, error) {
	e := &model.Exam{}
	err := row.Scan(&e.ID, &e.SchoolID, &e.TeacherID, &e.Title, &e.Description, &e.Subject, &e.GradeLevel,
		&e.DifficultyLevel, &e.ExamType, &e.DurationMinutes, &e.StartTime, &e.EndTime, &e.MaxAttempts,
		&e.Instructions, &e.IsPublished, &e.TotalQuestions, &e.TotalMarks, &e.PassingMarks,
		&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return e, nil
}

// ListByTeacher returns a teacher's exams, newest first.
func (r *ExamRepository) ListByTeacher(ctx context.Context, schoolID, teacherID uuid.UUID) ([]model.Exam, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+examColumns+` FROM exams
		 WHERE school_id = $1 AND teacher_id = $2
		 ORDER BY created_at DESC`, schoolID, teacherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exams := make([]model.Exam, 0)
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, err
		}
		exams = append(exams, *e)
	}
	return exams, rows.Err()
}

// GetByID retrieves an exam with its questions.
func (r *ExamRepository) GetByID(ctx context.Context, schoolID, id uuid.UUID) (*model.Exam, error) {
	e, err := scanExam(r.pool.QueryRow(ctx,
		`SELECT `+examColumns+` FROM exams WHERE school_id = $1 AND id = $2`, schoolID, id))
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, question_text, question_type, marks, options, COALESCE(correct_answer, ''), order_num
		 FROM exam_questions WHERE exam_id = $1 ORDER BY order_num`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	e.Questions = make([]model.ExamQuestion, 0)
	for rows.Next() {
		var q model.ExamQuestion
		if err := rows.Scan(&q.ID, &q.QuestionText, &q.QuestionType, &q.Marks, &q.Options,
			&q.CorrectAnswer, &q.OrderNum); err != nil {
			return nil, err
		}
		e.Questions = append(e.Questions, q)
	}
	return e, rows.Err()
}

// Create inserts an exam and its questions in one transaction.
func (r *ExamRepository) Create(ctx context.Context, e *model.Exam) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO exams (school_id, teacher_id, title, description, subject, grade_level, difficulty_level,
		        exam_type, duration_minutes, start_time, end_time, max_attempts, instructions, is_published,
		        total_questions, total_marks, passing_marks)
		 VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9, $10, $11, $12, NULLIF($13, ''), $14, $15, $16, $17)
		 RETURNING id, created_at, updated_at`,
		e.SchoolID, e.TeacherID, e.Title, e.Description, e.Subject, e.GradeLevel, e.DifficultyLevel,
		e.ExamType, e.DurationMinutes, e.StartTime, e.EndTime, e.MaxAttempts, e.Instructions, e.IsPublished,
		e.TotalQuestions, e.TotalMarks, e.PassingMarks,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return translate(err)
	}

	if err := insertQuestions(ctx, tx, e.ID, e.Questions); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Update overwrites an exam and replaces its question set.
func (r *ExamRepository) Update(ctx context.Context, e *model.Exam) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`UPDATE exams SET title = $3, description = NULLIF($4, ''), subject = $5, grade_level = $6,
		        difficulty_level = $7, exam_type = $8, duration_minutes = $9, start_time = $10, end_time = $11,
		        max_attempts = $12, instructions = NULLIF($13, ''), total_questions = $14, total_marks = $15,
		        passing_marks = $16, updated_at = NOW()
		 WHERE school_id = $1 AND id = $2
		 RETURNING updated_at`,
		e.SchoolID, e.ID, e.Title, e.Description, e.Subject, e.GradeLevel, e.DifficultyLevel,
		e.ExamType, e.DurationMinutes, e.StartTime, e.EndTime, e.MaxAttempts, e.Instructions,
		e.TotalQuestions, e.TotalMarks, e.PassingMarks,
	).Scan(&e.UpdatedAt)
	if err != nil {
		return translate(err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM exam_questions WHERE exam_id = $1`, e.ID); err != nil {
		return err
	}
	if err := insertQuestions(ctx, tx, e.ID, e.Questions); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func insertQuestions(ctx context.Context, tx pgx.Tx, examID uuid.UUID, questions []model.ExamQuestion) error {
	if len(questions) == 0 {
		return nil
	}
	_, err := tx.CopyFrom(ctx,
		pgx.Identifier{"exam_questions"},
		[]string{"id", "exam_id", "question_text", "question_type", "marks", "options", "correct_answer", "order_num"},
		pgx.CopyFromSlice(len(questions), func(i int) ([]any, error) {
			q := questions[i]
			var options any
			if len(q.Options) > 0 {
				options = string(q.Options)
			}
			return []any{q.ID, examID, q.QuestionText, q.QuestionType, q.Marks, options, q.CorrectAnswer, q.OrderNum}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("insert questions: %w", err)
	}
	return nil
}

// SetPublished flips the publication flag.
func (r *ExamRepository) SetPublished(ctx context.Context, schoolID, id uuid.UUID, published bool) error {
	return expectOne(r.pool.Exec(ctx,
		`UPDATE exams SET is_published = $3, updated_at = NOW() WHERE school_id = $1 AND id = $2`,
		schoolID, id, published))
}

// Delete removes an exam; questions and sessions cascade.
func (r *ExamRepository) Delete(ctx context.Context, schoolID, id uuid.UUID) error {
	return expectOne(r.pool.Exec(ctx, `DELETE FROM exams WHERE school_id = $1 AND id = $2`, schoolID, id))
}

// SessionResults returns the session outcomes of the given exams keyed by exam id.
func (r *ExamRepository) SessionResults(ctx context.Context, examIDs []uuid.UUID) (map[uuid.UUID][]model.ExamSessionResult, error) {
	results := make(map[uuid.UUID][]model.ExamSessionResult, len(examIDs))
	if len(examIDs) == 0 {
		return results, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT exam_id, student_id, status, COALESCE(score, 0)
		 FROM exam_sessions WHERE exam_id = ANY($1)`, examIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var examID uuid.UUID
		var s model.ExamSessionResult
		if err := rows.Scan(&examID, &s.StudentID, &s.Status, &s.Score); err != nil {
			return nil, err
		}
		results[examID] = append(results[examID], s)
	}
	return results, rows.Err()
}
