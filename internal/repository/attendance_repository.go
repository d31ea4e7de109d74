package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/schoolhub-backend/internal/model"
)

// AttendanceRepository handles attendance data access.
type AttendanceRepository struct {
	pool *pgxpool.Pool
}

// NewAttendanceRepository creates a new AttendanceRepository.
func NewAttendanceRepository(pool *pgxpool.Pool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

const attendanceColumns = `a.id, a.school_id, a.class_id, a.student_id, a.date::text, a.status,
	COALESCE(a.notes, ''), a.marked_by, a.marked_at,
	u.first_name || ' ' || u.last_name, c.class_name`

func (r *AttendanceRepository) query(ctx context.Context, sql string, args ...any) ([]model.AttendanceRecord, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]model.AttendanceRecord, 0)
	for rows.Next() {
		var a model.AttendanceRecord
		if err := rows.Scan(&a.ID, &a.SchoolID, &a.ClassID, &a.StudentID, &a.Date, &a.Status,
			&a.Notes, &a.MarkedBy, &a.MarkedAt, &a.StudentName, &a.ClassName); err != nil {
			return nil, err
		}
		records = append(records, a)
	}
	return records, rows.Err()
}

// ListForClass returns a class's records on a date.
func (r *AttendanceRepository) ListForClass(ctx context.Context, classID uuid.UUID, date string) ([]model.AttendanceRecord, error) {
	return r.query(ctx,
		`SELECT `+attendanceColumns+` FROM attendance_records a
		 JOIN users u ON u.id = a.student_id
		 JOIN classes c ON c.id = a.class_id
		 WHERE a.class_id = $1 AND a.date = $2::date`, classID, date)
}

// ListForSchool returns every record of a school on a date.
func (r *AttendanceRepository) ListForSchool(ctx context.Context, schoolID uuid.UUID, date string) ([]model.AttendanceRecord, error) {
	return r.query(ctx,
		`SELECT `+attendanceColumns+` FROM attendance_records a
		 JOIN users u ON u.id = a.student_id
		 JOIN classes c ON c.id = a.class_id
		 WHERE a.school_id = $1 AND a.date = $2::date
		 ORDER BY c.class_name, u.first_name, u.last_name`, schoolID, date)
}

// ListForClassRange returns a class's records between two days inclusive.
func (r *AttendanceRepository) ListForClassRange(ctx context.Context, classID uuid.UUID, from, to string) ([]model.AttendanceRecord, error) {
	return r.query(ctx,
		`SELECT `+attendanceColumns+` FROM attendance_records a
		 JOIN users u ON u.id = a.student_id
		 JOIN classes c ON c.id = a.class_id
		 WHERE a.class_id = $1 AND a.date BETWEEN $2::date AND $3::date
		 ORDER BY a.date`, classID, from, to)
}

// Upsert writes all records in one transaction, keyed by (student, class, date).
func (r *AttendanceRepository) Upsert(ctx context.Context, records []model.AttendanceRecord) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, a := range records {
		batch.Queue(
			`INSERT INTO attendance_records (school_id, class_id, student_id, date, status, notes, marked_by, marked_at)
			 VALUES ($1, $2, $3, $4::date, $5, NULLIF($6, ''), $7, $8)
			 ON CONFLICT (student_id, class_id, date)
			 DO UPDATE SET status = EXCLUDED.status, notes = EXCLUDED.notes,
			               marked_by = EXCLUDED.marked_by, marked_at = EXCLUDED.marked_at`,
			a.SchoolID, a.ClassID, a.StudentID, a.Date, a.Status, a.Notes, a.MarkedBy, a.MarkedAt)
	}

	br := tx.SendBatch(ctx, batch)
	for range records {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("upsert attendance: %w", translate(err))
		}
	}
	if err := br.Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
