package model

import (
	"time"

	"github.com/google/uuid"
)

// EventType categorises an academic calendar entry.
type EventType string

const (
	EventTypeExam       EventType = "exam"
	EventTypeAssignment EventType = "assignment"
	EventTypeHoliday    EventType = "holiday"
	EventTypeEvent      EventType = "event"
	EventTypeDeadline   EventType = "deadline"
	EventTypeMeeting    EventType = "meeting"
	EventTypeSports     EventType = "sports"
	EventTypeCultural   EventType = "cultural"
)

// EventStatus is the lifecycle state of an academic event.
type EventStatus string

const (
	EventStatusActive    EventStatus = "active"
	EventStatusCancelled EventStatus = "cancelled"
	EventStatusCompleted EventStatus = "completed"
	EventStatusDraft     EventStatus = "draft"
)

// EventPriority orders events visually on the calendar.
type EventPriority string

const (
	PriorityLow    EventPriority = "low"
	PriorityNormal EventPriority = "normal"
	PriorityHigh   EventPriority = "high"
	PriorityUrgent EventPriority = "urgent"
)

// AcademicEvent is a calendar entry (exam, holiday, deadline, ...) scoped to
// a school year and optionally a term. EndDate is inclusive; nil means a
// single-day event.
type AcademicEvent struct {
	ID               uuid.UUID     `json:"id"`
	SchoolID         uuid.UUID     `json:"school_id"`
	Title            string        `json:"title"`
	Description      string        `json:"description,omitempty"`
	EventType        EventType     `json:"event_type"`
	StartDate        time.Time     `json:"start_date"`
	EndDate          *time.Time    `json:"end_date,omitempty"`
	AllDay           bool          `json:"all_day"`
	TargetAudience   []string      `json:"target_audience"`
	GradeLevels      []string      `json:"grade_levels"`
	Subject          string        `json:"subject,omitempty"`
	AcademicYear     string        `json:"academic_year"`
	Term             string        `json:"term,omitempty"`
	Status           EventStatus   `json:"status"`
	Priority         EventPriority `json:"priority"`
	Location         string        `json:"location,omitempty"`
	MeetingLink      string        `json:"meeting_link,omitempty"`
	SendNotification bool          `json:"send_notification"`
	CreatedBy        uuid.UUID     `json:"created_by"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// EventRequest is the create/update payload of the schedule dialog.
type EventRequest struct {
	Title            string        `json:"title" binding:"required,min=1,max=200"`
	Description      string        `json:"description" binding:"max=2000"`
	EventType        EventType     `json:"event_type" binding:"required,oneof=exam assignment holiday event deadline meeting sports cultural"`
	StartDate        string        `json:"start_date" binding:"required,ymd"`
	EndDate          string        `json:"end_date" binding:"omitempty,ymd"`
	AllDay           *bool         `json:"all_day"`
	TargetAudience   []string      `json:"target_audience" binding:"omitempty,dive,oneof=student teacher parent admin"`
	GradeLevels      []string      `json:"grade_levels" binding:"omitempty,dive,max=50"`
	Subject          string        `json:"subject" binding:"max=100"`
	AcademicYear     string        `json:"academic_year" binding:"required,max=20"`
	Term             string        `json:"term" binding:"max=50"`
	Status           EventStatus   `json:"status" binding:"omitempty,oneof=active cancelled completed draft"`
	Priority         EventPriority `json:"priority" binding:"omitempty,oneof=low normal high urgent"`
	Location         string        `json:"location" binding:"max=200"`
	MeetingLink      string        `json:"meeting_link" binding:"omitempty,url,max=500"`
	SendNotification *bool         `json:"send_notification"`
}
