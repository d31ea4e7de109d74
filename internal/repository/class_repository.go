package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/schoolhub-backend/internal/model"
)

// ClassRepository handles class and enrollment data access.
type ClassRepository struct {
	pool *pgxpool.Pool
}

// NewClassRepository creates a new ClassRepository.
func NewClassRepository(pool *pgxpool.Pool) *ClassRepository {
	return &ClassRepository{pool: pool}
}

const classColumns = `c.id, c.school_id, c.class_name, c.class_code, COALESCE(c.grade_level, ''),
	COALESCE(c.subject, ''), COALESCE(c.room_number, ''), c.created_at, c.updated_at`

func (r *ClassRepository) queryClasses(ctx context.Context, sql string, args ...any) ([]model.Class, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	classes := make([]model.Class, 0)
	for rows.Next() {
		var c model.Class
		if err := rows.Scan(&c.ID, &c.SchoolID, &c.ClassName, &c.ClassCode, &c.GradeLevel,
			&c.Subject, &c.RoomNumber, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		classes = append(classes, c)
	}
	return classes, rows.Err()
}

// GetByID retrieves a class of a school.
func (r *ClassRepository) GetByID(ctx context.Context, schoolID, id uuid.UUID) (*model.Class, error) {
	c := &model.Class{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+classColumns+` FROM classes c WHERE c.school_id = $1 AND c.id = $2`, schoolID, id,
	).Scan(&c.ID, &c.SchoolID, &c.ClassName, &c.ClassCode, &c.GradeLevel,
		&c.Subject, &c.RoomNumber, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return c, nil
}

// ListBySchool returns every class of a school.
func (r *ClassRepository) ListBySchool(ctx context.Context, schoolID uuid.UUID) ([]model.Class, error) {
	return r.queryClasses(ctx,
		`SELECT `+classColumns+` FROM classes c WHERE c.school_id = $1 ORDER BY c.class_name`, schoolID)
}

// ListForTeacher returns the classes a teacher is assigned to.
func (r *ClassRepository) ListForTeacher(ctx context.Context, schoolID, teacherID uuid.UUID) ([]model.Class, error) {
	return r.queryClasses(ctx,
		`SELECT `+classColumns+` FROM classes c
		 JOIN teacher_class_assignments ta ON ta.class_id = c.id
		 WHERE c.school_id = $1 AND ta.teacher_id = $2
		 ORDER BY ta.is_primary DESC, c.class_name`, schoolID, teacherID)
}

// IsTeacherAssigned reports whether the teacher teaches the class.
func (r *ClassRepository) IsTeacherAssigned(ctx context.Context, teacherID, classID uuid.UUID) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM teacher_class_assignments WHERE teacher_id = $1 AND class_id = $2)`,
		teacherID, classID).Scan(&ok)
	return ok, err
}

// ListRoster returns the students enrolled in a class ordered by name.
func (r *ClassRepository) ListRoster(ctx context.Context, classID uuid.UUID) ([]model.RosterEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT u.id, u.first_name, u.last_name, COALESCE(cs.student_number, '')
		 FROM class_students cs JOIN users u ON u.id = cs.student_id
		 WHERE cs.class_id = $1 AND u.role = 'student'
		 ORDER BY u.first_name, u.last_name`, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roster := make([]model.RosterEntry, 0)
	for rows.Next() {
		var e model.RosterEntry
		if err := rows.Scan(&e.StudentID, &e.FirstName, &e.LastName, &e.StudentNumber); err != nil {
			return nil, err
		}
		roster = append(roster, e)
	}
	return roster, rows.Err()
}

// RosterSizes returns the number of enrolled students per class of a school.
func (r *ClassRepository) RosterSizes(ctx context.Context, schoolID uuid.UUID) (map[uuid.UUID]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT cs.class_id, COUNT(*) FROM class_students cs
		 JOIN classes c ON c.id = cs.class_id
		 WHERE c.school_id = $1 GROUP BY cs.class_id`, schoolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sizes := make(map[uuid.UUID]int)
	for rows.Next() {
		var id uuid.UUID
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		sizes[id] = n
	}
	return sizes, rows.Err()
}

// PrimaryTeachers returns the display name of each class's primary teacher.
func (r *ClassRepository) PrimaryTeachers(ctx context.Context, schoolID uuid.UUID) (map[uuid.UUID]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT ON (ta.class_id) ta.class_id, u.first_name || ' ' || u.last_name
		 FROM teacher_class_assignments ta
		 JOIN users u ON u.id = ta.teacher_id
		 JOIN classes c ON c.id = ta.class_id
		 WHERE c.school_id = $1
		 ORDER BY ta.class_id, ta.is_primary DESC`, schoolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := make(map[uuid.UUID]string)
	for rows.Next() {
		var id uuid.UUID
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		names[id] = name
	}
	return names, rows.Err()
}

// Create inserts a class, reusing the row when the school already has one
// with the same class code.
func (r *ClassRepository) Create(ctx context.Context, c *model.Class) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO classes (school_id, class_name, class_code, grade_level, subject, room_number)
		 VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''))
		 ON CONFLICT (school_id, class_code) DO UPDATE SET class_name = EXCLUDED.class_name
		 RETURNING id, created_at, updated_at`,
		c.SchoolID, c.ClassName, c.ClassCode, c.GradeLevel, c.Subject, c.RoomNumber,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return translate(err)
}

// Enroll adds a student to a class. Enrolling twice is a no-op.
func (r *ClassRepository) Enroll(ctx context.Context, classID, studentID uuid.UUID, studentNumber string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO class_students (class_id, student_id, student_number)
		 VALUES ($1, $2, NULLIF($3, ''))
		 ON CONFLICT (class_id, student_id) DO NOTHING`,
		classID, studentID, studentNumber)
	return translate(err)
}

// AssignTeacher links a teacher to a class.
func (r *ClassRepository) AssignTeacher(ctx context.Context, classID, teacherID uuid.UUID, primary bool) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO teacher_class_assignments (class_id, teacher_id, is_primary)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (class_id, teacher_id) DO UPDATE SET is_primary = EXCLUDED.is_primary`,
		classID, teacherID, primary)
	return translate(err)
}
