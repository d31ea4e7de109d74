package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/schoolhub-backend/internal/model"
)

// ShoutOutRepository handles shout-out and template data access.
type ShoutOutRepository struct {
	pool *pgxpool.Pool
}

// NewShoutOutRepository creates a new ShoutOutRepository.
func NewShoutOutRepository(pool *pgxpool.Pool) *ShoutOutRepository {
	return &ShoutOutRepository{pool: pool}
}

// ListByTeacher returns a teacher's shout-outs newest first. An empty
// category returns all of them.
func (r *ShoutOutRepository) ListByTeacher(ctx context.Context, schoolID, teacherID uuid.UUID, category string) ([]model.ShoutOut, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT s.id, s.school_id, s.teacher_id, t.first_name || ' ' || t.last_name,
		        s.student_id, st.first_name || ' ' || st.last_name,
		        s.category, s.message, s.is_public, s.template_id, COALESCE(s.badge, ''), s.reactions, s.created_at
		 FROM shout_outs s
		 JOIN users t ON t.id = s.teacher_id
		 JOIN users st ON st.id = s.student_id
		 WHERE s.school_id = $1 AND s.teacher_id = $2 AND ($3 = '' OR s.category = $3)
		 ORDER BY s.created_at DESC`, schoolID, teacherID, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]model.ShoutOut, 0)
	for rows.Next() {
		var s model.ShoutOut
		if err := rows.Scan(&s.ID, &s.SchoolID, &s.TeacherID, &s.TeacherName, &s.StudentID, &s.StudentName,
			&s.Category, &s.Message, &s.IsPublic, &s.TemplateID, &s.Badge, &s.Reactions, &s.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// ListTemplates returns global templates plus the school's own.
func (r *ShoutOutRepository) ListTemplates(ctx context.Context, schoolID uuid.UUID) ([]model.ShoutOutTemplate, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, school_id, category, title, message, COALESCE(badge, ''), COALESCE(icon, '')
		 FROM shout_out_templates
		 WHERE school_id IS NULL OR school_id = $1
		 ORDER BY category, title`, schoolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]model.ShoutOutTemplate, 0)
	for rows.Next() {
		var t model.ShoutOutTemplate
		if err := rows.Scan(&t.ID, &t.SchoolID, &t.Category, &t.Title, &t.Message, &t.Badge, &t.Icon); err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// GetTemplate retrieves a template visible to the school.
func (r *ShoutOutRepository) GetTemplate(ctx context.Context, schoolID, id uuid.UUID) (*model.ShoutOutTemplate, error) {
	t := &model.ShoutOutTemplate{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, school_id, category, title, message, COALESCE(badge, ''), COALESCE(icon, '')
		 FROM shout_out_templates
		 WHERE id = $2 AND (school_id IS NULL OR school_id = $1)`, schoolID, id,
	).Scan(&t.ID, &t.SchoolID, &t.Category, &t.Title, &t.Message, &t.Badge, &t.Icon)
	if err != nil {
		return nil, translate(err)
	}
	return t, nil
}

// Create stores a shout-out and awards the student xp in one transaction.
func (r *ShoutOutRepository) Create(ctx context.Context, s *model.ShoutOut, xp int) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO shout_outs (school_id, teacher_id, student_id, category, message, is_public, template_id, badge)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''))
		 RETURNING id, created_at`,
		s.SchoolID, s.TeacherID, s.StudentID, s.Category, s.Message, s.IsPublic, s.TemplateID, s.Badge,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return translate(err)
	}

	if err := expectOne(tx.Exec(ctx,
		`UPDATE users SET xp = xp + $3, updated_at = NOW()
		 WHERE school_id = $1 AND id = $2 AND role = 'student'`, s.SchoolID, s.StudentID, xp)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ListStudents returns each of the school's students once, with their first
// class by name. When classID is non-nil only members of that class are returned.
func (r *ShoutOutRepository) ListStudents(ctx context.Context, schoolID uuid.UUID, classID *uuid.UUID, since time.Time) ([]model.ShoutOutStudent, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, first_name, last_name, grade_level, class_id, class_name, recent FROM (
		     SELECT DISTINCT ON (u.id)
		            u.id, u.first_name, u.last_name, COALESCE(u.grade_level, '') AS grade_level,
		            c.id AS class_id, c.class_name,
		            (SELECT COUNT(*) FROM shout_outs s WHERE s.student_id = u.id AND s.created_at >= $3) AS recent
		     FROM class_students cs
		     JOIN users u ON u.id = cs.student_id
		     JOIN classes c ON c.id = cs.class_id
		     WHERE c.school_id = $1 AND u.role = 'student' AND ($2::uuid IS NULL OR c.id = $2)
		     ORDER BY u.id, c.class_name
		 ) students
		 ORDER BY first_name, last_name`, schoolID, classID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]model.ShoutOutStudent, 0)
	for rows.Next() {
		var s model.ShoutOutStudent
		if err := rows.Scan(&s.ID, &s.FirstName, &s.LastName, &s.GradeLevel, &s.ClassID, &s.ClassName,
			&s.RecentShoutOuts); err != nil {
			return nil, err
		}
		s.Name = s.FirstName + " " + s.LastName
		list = append(list, s)
	}
	return list, rows.Err()
}
