package model

import (
	"time"

	"github.com/google/uuid"
)

// Class represents a school class group.
type Class struct {
	ID         uuid.UUID `json:"id"`
	SchoolID   uuid.UUID `json:"school_id"`
	ClassName  string    `json:"class_name"`
	ClassCode  string    `json:"class_code"`
	GradeLevel string    `json:"grade_level"`
	Subject    string    `json:"subject,omitempty"`
	RoomNumber string    `json:"room_number,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
