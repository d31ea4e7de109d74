package model

import (
	"time"

	"github.com/google/uuid"
)

// AttendanceStatus is the per-day mark a teacher gives a student.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"
	AttendanceExcused AttendanceStatus = "excused"
)

// AttendanceRecord is one student's status in one class on one day.
type AttendanceRecord struct {
	ID        uuid.UUID        `json:"id"`
	SchoolID  uuid.UUID        `json:"school_id"`
	ClassID   uuid.UUID        `json:"class_id"`
	StudentID uuid.UUID        `json:"student_id"`
	Date      string           `json:"date"`
	Status    AttendanceStatus `json:"status"`
	Notes     string           `json:"notes,omitempty"`
	MarkedBy  uuid.UUID        `json:"marked_by"`
	MarkedAt  time.Time        `json:"marked_at"`

	StudentName string `json:"student_name,omitempty"`
	ClassName   string `json:"class_name,omitempty"`
}

// RosterEntry pairs a class member with their record for the day; Attendance
// is nil while the student is unmarked.
type RosterEntry struct {
	StudentID     uuid.UUID         `json:"id"`
	FirstName     string            `json:"first_name"`
	LastName      string            `json:"last_name"`
	StudentNumber string            `json:"student_number,omitempty"`
	Attendance    *AttendanceRecord `json:"attendance"`
}

// AttendanceSummary aggregates a roster or a set of records.
type AttendanceSummary struct {
	TotalStudents  int `json:"total_students"`
	PresentCount   int `json:"present_count"`
	AbsentCount    int `json:"absent_count"`
	LateCount      int `json:"late_count"`
	ExcusedCount   int `json:"excused_count"`
	AttendanceRate int `json:"attendance_rate"`
}

// ClassAttendance is a class card on the teacher/admin overview.
type ClassAttendance struct {
	ClassID    uuid.UUID `json:"class_id"`
	ClassName  string    `json:"class_name"`
	GradeLevel string    `json:"grade_level"`
	Teacher    string    `json:"teacher,omitempty"`
	AttendanceSummary
}

// AttendanceMark is one row of a saved roster.
type AttendanceMark struct {
	StudentID uuid.UUID        `json:"student_id" binding:"required"`
	Status    AttendanceStatus `json:"status" binding:"required,oneof=present absent late excused"`
	Notes     string           `json:"notes" binding:"max=500"`
}

// SaveRosterRequest persists a whole day's roster in one call.
type SaveRosterRequest struct {
	ClassID uuid.UUID        `json:"class_id" binding:"required"`
	Date    string           `json:"date" binding:"required,ymd"`
	Records []AttendanceMark `json:"records" binding:"required,min=1,dive"`
}

// BulkAttendanceRequest applies one status to the selected students, or to
// the whole roster when StudentIDs is empty.
type BulkAttendanceRequest struct {
	ClassID    uuid.UUID        `json:"class_id" binding:"required"`
	Date       string           `json:"date" binding:"required,ymd"`
	Status     AttendanceStatus `json:"status" binding:"required,oneof=present absent late excused"`
	StudentIDs []uuid.UUID      `json:"student_ids"`
}

// HeatmapCell is one student's status on one day; Status is nil when unmarked.
type HeatmapCell struct {
	Date   string            `json:"date"`
	Status *AttendanceStatus `json:"status"`
}

// HeatmapRow is one student's line of the heatmap.
type HeatmapRow struct {
	ID         uuid.UUID     `json:"id"`
	Name       string        `json:"name"`
	Attendance []HeatmapCell `json:"attendance"`
}

// HeatmapSummary aggregates the grid. AverageAttendance is the share of
// marked cells that are present, in percent with one decimal.
type HeatmapSummary struct {
	TotalDays         int     `json:"total_days"`
	AverageAttendance float64 `json:"average_attendance"`
}

// AttendanceHeatmap is a student by date grid for one class.
type AttendanceHeatmap struct {
	ClassID   uuid.UUID      `json:"class_id"`
	ClassName string         `json:"class_name"`
	Dates     []string       `json:"dates"`
	Students  []HeatmapRow   `json:"students"`
	Summary   HeatmapSummary `json:"summary"`
}
