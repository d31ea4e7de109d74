package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/schoolhub-backend/internal/model"
)

// AcademicEventRepository handles academic calendar data access.
type AcademicEventRepository struct {
	pool *pgxpool.Pool
}

// NewAcademicEventRepository creates a new AcademicEventRepository.
func NewAcademicEventRepository(pool *pgxpool.Pool) *AcademicEventRepository {
	return &AcademicEventRepository{pool: pool}
}

const eventColumns = `id, school_id, title, COALESCE(description, ''), event_type, start_date, end_date,
	all_day, target_audience, grade_levels, COALESCE(subject, ''), academic_year, COALESCE(term, ''),
	status, priority, COALESCE(location, ''), COALESCE(meeting_link, ''), send_notification,
	created_by, created_at, updated_at`

func scanEvent(row pgx.Row) (*model.AcademicEvent, error) {
	e := &model.AcademicEvent{}
	err := row.Scan(&e.ID, &e.SchoolID, &e.Title, &e.Description, &e.EventType, &e.StartDate, &e.EndDate,
		&e.AllDay, &e.TargetAudience, &e.GradeLevels, &e.Subject, &e.AcademicYear, &e.Term,
		&e.Status, &e.Priority, &e.Location, &e.MeetingLink, &e.SendNotification,
		&e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return e, nil
}

// ListBySchool returns the school's events ordered by start date.
func (r *AcademicEventRepository) ListBySchool(ctx context.Context, schoolID uuid.UUID) ([]model.AcademicEvent, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+eventColumns+` FROM academic_events
		 WHERE school_id = $1 ORDER BY start_date, created_at`, schoolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]model.AcademicEvent, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// GetByID retrieves one event of a school.
func (r *AcademicEventRepository) GetByID(ctx context.Context, schoolID, id uuid.UUID) (*model.AcademicEvent, error) {
	return scanEvent(r.pool.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM academic_events WHERE school_id = $1 AND id = $2`, schoolID, id))
}

// Create inserts a new event.
func (r *AcademicEventRepository) Create(ctx context.Context, e *model.AcademicEvent) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO academic_events (school_id, title, description, event_type, start_date, end_date, all_day,
		        target_audience, grade_levels, subject, academic_year, term, status, priority, location,
		        meeting_link, send_notification, created_by)
		 VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, NULLIF($10, ''), $11, NULLIF($12, ''),
		         $13, $14, NULLIF($15, ''), NULLIF($16, ''), $17, $18)
		 RETURNING id, created_at, updated_at`,
		e.SchoolID, e.Title, e.Description, e.EventType, e.StartDate, e.EndDate, e.AllDay,
		e.TargetAudience, e.GradeLevels, e.Subject, e.AcademicYear, e.Term, e.Status, e.Priority,
		e.Location, e.MeetingLink, e.SendNotification, e.CreatedBy,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	return translate(err)
}

// Update overwrites an existing event.
func (r *AcademicEventRepository) Update(ctx context.Context, e *model.AcademicEvent) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE academic_events SET title = $3, description = NULLIF($4, ''), event_type = $5,
		        start_date = $6, end_date = $7, all_day = $8, target_audience = $9, grade_levels = $10,
		        subject = NULLIF($11, ''), academic_year = $12, term = NULLIF($13, ''), status = $14,
		        priority = $15, location = NULLIF($16, ''), meeting_link = NULLIF($17, ''),
		        send_notification = $18, updated_at = NOW()
		 WHERE school_id = $1 AND id = $2
		 RETURNING created_by, created_at, updated_at`,
		e.SchoolID, e.ID, e.Title, e.Description, e.EventType, e.StartDate, e.EndDate, e.AllDay,
		e.TargetAudience, e.GradeLevels, e.Subject, e.AcademicYear, e.Term, e.Status, e.Priority,
		e.Location, e.MeetingLink, e.SendNotification,
	).Scan(&e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	return translate(err)
}

// Delete removes an event.
func (r *AcademicEventRepository) Delete(ctx context.Context, schoolID, id uuid.UUID) error {
	return expectOne(r.pool.Exec(ctx,
		`DELETE FROM academic_events WHERE school_id = $1 AND id = $2`, schoolID, id))
}
