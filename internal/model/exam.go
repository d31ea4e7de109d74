package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Exam is a teacher-authored examination with its question set.
type Exam struct {
	ID              uuid.UUID      `json:"id"`
	SchoolID        uuid.UUID      `json:"school_id"`
	TeacherID       uuid.UUID      `json:"teacher_id"`
	Title           string         `json:"title"`
	Description     string         `json:"description,omitempty"`
	Subject         string         `json:"subject"`
	GradeLevel      string         `json:"grade_level"`
	DifficultyLevel string         `json:"difficulty_level"`
	ExamType        string         `json:"exam_type"`
	DurationMinutes int            `json:"duration_minutes"`
	StartTime       *time.Time     `json:"start_time,omitempty"`
	EndTime         *time.Time     `json:"end_time,omitempty"`
	MaxAttempts     int            `json:"max_attempts"`
	Instructions    string         `json:"instructions,omitempty"`
	IsPublished     bool           `json:"is_published"`
	TotalQuestions  int            `json:"total_questions"`
	TotalMarks      int            `json:"total_marks"`
	PassingMarks    int            `json:"passing_marks"`
	Questions       []ExamQuestion `json:"questions,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`

	StudentCount   int `json:"student_count"`
	CompletionRate int `json:"completion_rate"`
	AverageScore   int `json:"average_score"`
}

// ExamQuestion is a single question; Options is the raw option list.
type ExamQuestion struct {
	ID            uuid.UUID       `json:"id"`
	QuestionText  string          `json:"question_text" binding:"required,min=1"`
	QuestionType  string          `json:"question_type" binding:"required,oneof=multiple_choice true_false short_answer essay"`
	Marks         int             `json:"marks" binding:"min=0,max=1000"`
	Options       json.RawMessage `json:"options,omitempty"`
	CorrectAnswer string          `json:"correct_answer,omitempty"`
	OrderNum      int             `json:"order_num"`
}

// ExamSessionResult is the per-student outcome used for exam analytics.
type ExamSessionResult struct {
	StudentID uuid.UUID `json:"student_id"`
	Status    string    `json:"status"`
	Score     float64   `json:"score"`
}

// ExamRequest is the payload produced by the exam creation wizard.
type ExamRequest struct {
	Title           string         `json:"title" binding:"required,min=1,max=255"`
	Description     string         `json:"description" binding:"max=2000"`
	Subject         string         `json:"subject" binding:"required,max=100"`
	GradeLevel      string         `json:"grade_level" binding:"required,max=50"`
	DifficultyLevel string         `json:"difficulty_level" binding:"omitempty,oneof=easy medium hard expert"`
	ExamType        string         `json:"exam_type" binding:"omitempty,oneof=quiz test midterm final practice assignment"`
	DurationMinutes int            `json:"duration_minutes" binding:"required,min=1,max=480"`
	StartTime       *time.Time     `json:"start_time"`
	EndTime         *time.Time     `json:"end_time"`
	MaxAttempts     int            `json:"max_attempts" binding:"omitempty,min=1,max=20"`
	Instructions    string         `json:"instructions" binding:"max=5000"`
	Questions       []ExamQuestion `json:"questions" binding:"dive"`
}

// ExamStats is the header of the teacher examinations page.
type ExamStats struct {
	TotalExams     int `json:"total_exams"`
	PublishedExams int `json:"published_exams"`
	DraftExams     int `json:"draft_exams"`
}
