package model

import (
	"time"

	"github.com/google/uuid"
)

// ShoutOutCategory groups positive-recognition messages.
type ShoutOutCategory string

const (
	CategoryAcademic   ShoutOutCategory = "academic"
	CategoryBehavior   ShoutOutCategory = "behavior"
	CategoryKindness   ShoutOutCategory = "kindness"
	CategoryEffort     ShoutOutCategory = "effort"
	CategoryLeadership ShoutOutCategory = "leadership"
	CategoryCreativity ShoutOutCategory = "creativity"
)

// ShoutOut is a positive-recognition message a teacher sends a student.
type ShoutOut struct {
	ID          uuid.UUID        `json:"id"`
	SchoolID    uuid.UUID        `json:"school_id"`
	TeacherID   uuid.UUID        `json:"teacher_id"`
	TeacherName string           `json:"teacher_name"`
	StudentID   uuid.UUID        `json:"student_id"`
	StudentName string           `json:"student_name"`
	Category    ShoutOutCategory `json:"category"`
	Message     string           `json:"message"`
	IsPublic    bool             `json:"is_public"`
	TemplateID  *uuid.UUID       `json:"template_id,omitempty"`
	Badge       string           `json:"badge,omitempty"`
	Reactions   int              `json:"reactions"`
	CreatedAt   time.Time        `json:"created_at"`
}

// ShoutOutTemplate is a reusable message. A nil SchoolID marks a global template.
type ShoutOutTemplate struct {
	ID       uuid.UUID        `json:"id"`
	SchoolID *uuid.UUID       `json:"school_id,omitempty"`
	Category ShoutOutCategory `json:"category"`
	Title    string           `json:"title"`
	Message  string           `json:"message"`
	Badge    string           `json:"badge"`
	Icon     string           `json:"icon"`
}

// SendShoutOutRequest is the payload of the shout-out modal.
type SendShoutOutRequest struct {
	StudentID  uuid.UUID        `json:"student_id" binding:"required"`
	TemplateID *uuid.UUID       `json:"template_id"`
	Category   ShoutOutCategory `json:"category" binding:"omitempty,oneof=academic behavior kindness effort leadership creativity"`
	Message    string           `json:"message" binding:"max=1000"`
	IsPublic   bool             `json:"is_public"`
}

// ShoutOutStudent is a recipient candidate with a recent shout-out count.
type ShoutOutStudent struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	GradeLevel      string    `json:"grade,omitempty"`
	ClassID         uuid.UUID `json:"class_id"`
	ClassName       string    `json:"class_name"`
	RecentShoutOuts int       `json:"recent_shout_outs"`
}
