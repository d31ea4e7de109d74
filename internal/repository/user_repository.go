package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/schoolhub-backend/internal/model"
)

// UserRepository handles user data access.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// class_name is the student's first enrolled class or the teacher's primary class.
const userColumns = `u.id, u.school_id, u.email, u.password_hash, u.first_name, u.last_name,
	u.role, u.status, COALESCE(u.grade_level, ''),
	COALESCE((SELECT c.class_name FROM class_students cs JOIN classes c ON c.id = cs.class_id
	           WHERE cs.student_id = u.id ORDER BY cs.enrolled_at LIMIT 1),
	         (SELECT c.class_name FROM teacher_class_assignments ta JOIN classes c ON c.id = ta.class_id
	           WHERE ta.teacher_id = u.id ORDER BY ta.is_primary DESC, c.class_name LIMIT 1),
	         ''),
	u.xp, u.level, u.gems, u.current_streak, COALESCE(u.phone, ''), u.date_of_birth,
	COALESCE(u.address, ''), COALESCE(u.emergency_contact, ''), COALESCE(u.avatar_url, ''),
	u.last_sign_in_at, u.created_at, u.updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(&u.ID, &u.SchoolID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.Role, &u.Status, &u.GradeLevel, &u.ClassName,
		&u.XP, &u.Level, &u.Gems, &u.CurrentStreak, &u.Phone, &u.DateOfBirth,
		&u.Address, &u.EmergencyContact, &u.AvatarURL,
		&u.LastSignInAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return u, nil
}

// GetByEmail retrieves a user by email for authentication.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users u WHERE lower(u.email) = lower($1)`, email))
}

// GetByID retrieves a user inside a school.
func (r *UserRepository) GetByID(ctx context.Context, schoolID, id uuid.UUID) (*model.User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users u WHERE u.school_id = $1 AND u.id = $2`, schoolID, id))
}

// ListBySchool returns every user of a school, newest first.
func (r *UserRepository) ListBySchool(ctx context.Context, schoolID uuid.UUID) ([]model.User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users u WHERE u.school_id = $1 ORDER BY u.created_at DESC`, schoolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (school_id, email, password_hash, first_name, last_name, role, status, grade_level)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''))
		 RETURNING id, created_at, updated_at`,
		u.SchoolID, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Role, u.Status, u.GradeLevel,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	return translate(err)
}

// Update writes the editable profile and gamification fields.
func (r *UserRepository) Update(ctx context.Context, u *model.User) error {
	return expectOne(r.pool.Exec(ctx,
		`UPDATE users SET email = $3, first_name = $4, last_name = $5, role = $6,
		        grade_level = NULLIF($7, ''), phone = NULLIF($8, ''), date_of_birth = $9,
		        address = NULLIF($10, ''), emergency_contact = NULLIF($11, ''), avatar_url = NULLIF($12, ''),
		        xp = $13, level = $14, gems = $15, updated_at = NOW()
		 WHERE school_id = $1 AND id = $2`,
		u.SchoolID, u.ID, u.Email, u.FirstName, u.LastName, u.Role,
		u.GradeLevel, u.Phone, u.DateOfBirth, u.Address, u.EmergencyContact, u.AvatarURL,
		u.XP, u.Level, u.Gems))
}

// SetStatus changes the account status.
func (r *UserRepository) SetStatus(ctx context.Context, schoolID, id uuid.UUID, status model.UserStatus) error {
	return expectOne(r.pool.Exec(ctx,
		`UPDATE users SET status = $3, updated_at = NOW() WHERE school_id = $1 AND id = $2`,
		schoolID, id, status))
}

// Delete removes a user from a school.
func (r *UserRepository) Delete(ctx context.Context, schoolID, id uuid.UUID) error {
	return expectOne(r.pool.Exec(ctx, `DELETE FROM users WHERE school_id = $1 AND id = $2`, schoolID, id))
}

// TouchSignIn records a successful login.
func (r *UserRepository) TouchSignIn(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET last_sign_in_at = $2 WHERE id = $1`, id, at)
	return err
}

// CreateSchool inserts a school and returns its id. Used by the admin bootstrap CLI.
func (r *UserRepository) CreateSchool(ctx context.Context, name string) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx,
		`INSERT INTO schools (name) VALUES ($1)
		 ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		 RETURNING id`, name).Scan(&id)
	return id, err
}
