package service

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/schoolhub-backend/internal/model"
)

// passingRatio is the share of total marks required to pass.
const passingRatio = 0.6

// ExamStore is the persistence the examinations page needs.
type ExamStore interface {
	ListByTeacher(ctx context.Context, schoolID, teacherID uuid.UUID) ([]model.Exam, error)
	GetByID(ctx context.Context, schoolID, id uuid.UUID) (*model.Exam, error)
	Create(ctx context.Context, e *model.Exam) error
	Update(ctx context.Context, e *model.Exam) error
	SetPublished(ctx context.Context, schoolID, id uuid.UUID, published bool) error
	Delete(ctx context.Context, schoolID, id uuid.UUID) error
	SessionResults(ctx context.Context, examIDs []uuid.UUID) (map[uuid.UUID][]model.ExamSessionResult, error)
}

// ExamFilter narrows the teacher's exam list.
type ExamFilter struct {
	Search  string `form:"search" binding:"max=200"`
	Subject string `form:"subject" binding:"max=100"`
	Status  string `form:"status" binding:"omitempty,oneof=all published draft"`
}

// Match reports whether the exam passes the filter.
func (f ExamFilter) Match(e *model.Exam) bool {
	if !isAll(f.Subject) && e.Subject != f.Subject {
		return false
	}
	switch f.Status {
	case "published":
		if !e.IsPublished {
			return false
		}
	case "draft":
		if e.IsPublished {
			return false
		}
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		return strings.Contains(strings.ToLower(e.Title), q) || strings.Contains(strings.ToLower(e.Subject), q)
	}
	return true
}

// ExamList is the examinations page payload.
type ExamList struct {
	Exams    []model.Exam    `json:"exams"`
	Subjects []string        `json:"subjects"`
	Stats    model.ExamStats `json:"stats"`
}

// ExamTotals derives total and passing marks from the question set. Total
// marks never drop below one.
func ExamTotals(questions []model.ExamQuestion) (total, passing int) {
	for _, q := range questions {
		total += q.Marks
	}
	total = max(total, 1)
	passing = int(math.Floor(float64(total) * passingRatio))
	return total, passing
}

// ExamAnalytics summarises session results: distinct students, completion
// rate and average score of completed sessions, all rounded.
func ExamAnalytics(results []model.ExamSessionResult) (students, completionRate, averageScore int) {
	seen := make(map[uuid.UUID]struct{})
	completedStudents := make(map[uuid.UUID]struct{})
	var scoreSum float64
	var completed int
	for _, r := range results {
		seen[r.StudentID] = struct{}{}
		if r.Status == "completed" {
			completedStudents[r.StudentID] = struct{}{}
			scoreSum += r.Score
			completed++
		}
	}
	students = len(seen)
	if students > 0 {
		completionRate = int(math.Round(float64(len(completedStudents)) / float64(students) * 100))
	}
	if completed > 0 {
		averageScore = int(math.Round(scoreSum / float64(completed)))
	}
	return students, completionRate, averageScore
}

// ExamService handles teacher examinations.
type ExamService struct {
	exams ExamStore
	log   zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(exams ExamStore, log zerolog.Logger) *ExamService {
	return &ExamService{
		exams: exams,
		log:   log.With().Str("component", "exam_service").Logger(),
	}
}

// List returns the caller's exams with analytics, subjects and header stats.
// Subjects and stats describe the unfiltered set.
func (s *ExamService) List(ctx context.Context, actor Actor, f ExamFilter) (*ExamList, error) {
	exams, err := s.exams.ListByTeacher(ctx, actor.SchoolID, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}

	ids := make([]uuid.UUID, len(exams))
	for i := range exams {
		ids[i] = exams[i].ID
	}
	results, err := s.exams.SessionResults(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("session results: %w", err)
	}

	out := &ExamList{Exams: make([]model.Exam, 0, len(exams)), Subjects: make([]string, 0)}
	for i := range exams {
		e := &exams[i]
		e.StudentCount, e.CompletionRate, e.AverageScore = ExamAnalytics(results[e.ID])

		out.Stats.TotalExams++
		if e.IsPublished {
			out.Stats.PublishedExams++
		} else {
			out.Stats.DraftExams++
		}
		if e.Subject != "" && !slices.Contains(out.Subjects, e.Subject) {
			out.Subjects = append(out.Subjects, e.Subject)
		}
		if f.Match(e) {
			out.Exams = append(out.Exams, *e)
		}
	}
	slices.Sort(out.Subjects)
	return out, nil
}

// owned loads an exam the actor may manage.
func (s *ExamService) owned(ctx context.Context, actor Actor, id uuid.UUID) (*model.Exam, error) {
	e, err := s.exams.GetByID(ctx, actor.SchoolID, id)
	if err != nil {
		return nil, err
	}
	if e.TeacherID != actor.UserID && !actor.IsAdmin() {
		return nil, ErrNotExamAuthor
	}
	return e, nil
}

// Get returns one exam with questions and analytics.
func (s *ExamService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*model.Exam, error) {
	e, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	results, err := s.exams.SessionResults(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, fmt.Errorf("session results: %w", err)
	}
	e.StudentCount, e.CompletionRate, e.AverageScore = ExamAnalytics(results[id])
	return e, nil
}

func applyExamRequest(e *model.Exam, req *model.ExamRequest) error {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return ErrTitleRequired
	}
	if len(req.Questions) == 0 {
		return ErrNoQuestions
	}
	if req.StartTime != nil && req.EndTime != nil && !req.EndTime.After(*req.StartTime) {
		return ErrInvalidDateRange
	}
	e.Title = title
	e.Description = req.Description
	e.Subject = req.Subject
	e.GradeLevel = req.GradeLevel
	e.DifficultyLevel = req.DifficultyLevel
	if e.DifficultyLevel == "" {
		e.DifficultyLevel = "medium"
	}
	e.ExamType = req.ExamType
	if e.ExamType == "" {
		e.ExamType = "quiz"
	}
	e.DurationMinutes = req.DurationMinutes
	e.StartTime = req.StartTime
	e.EndTime = req.EndTime
	e.MaxAttempts = req.MaxAttempts
	if e.MaxAttempts == 0 {
		e.MaxAttempts = 1
	}
	e.Instructions = req.Instructions

	e.Questions = make([]model.ExamQuestion, len(req.Questions))
	for i, q := range req.Questions {
		q.ID = uuid.New()
		q.OrderNum = i + 1
		if q.Marks == 0 {
			q.Marks = 1
		}
		e.Questions[i] = q
	}
	e.TotalQuestions = len(e.Questions)
	e.TotalMarks, e.PassingMarks = ExamTotals(e.Questions)
	return nil
}

// Create saves a new draft exam.
func (s *ExamService) Create(ctx context.Context, actor Actor, req *model.ExamRequest) (*model.Exam, error) {
	e := &model.Exam{SchoolID: actor.SchoolID, TeacherID: actor.UserID}
	if err := applyExamRequest(e, req); err != nil {
		return nil, err
	}
	if err := s.exams.Create(ctx, e); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("exam_id", e.ID.String()).
		Str("teacher_id", actor.UserID.String()).
		Int("questions", e.TotalQuestions).
		Msg("Exam created")
	return e, nil
}

// Update replaces an exam's details and questions.
func (s *ExamService) Update(ctx context.Context, actor Actor, id uuid.UUID, req *model.ExamRequest) (*model.Exam, error) {
	e, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := applyExamRequest(e, req); err != nil {
		return nil, err
	}
	if err := s.exams.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Publish makes an exam visible to students.
func (s *ExamService) Publish(ctx context.Context, actor Actor, id uuid.UUID) (*model.Exam, error) {
	e, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if len(e.Questions) == 0 {
		return nil, ErrNoQuestions
	}
	if err := s.exams.SetPublished(ctx, actor.SchoolID, id, true); err != nil {
		return nil, err
	}
	e.IsPublished = true

	s.log.Info().Str("exam_id", id.String()).Msg("Exam published")
	return e, nil
}

// Delete removes an exam.
func (s *ExamService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	return s.exams.Delete(ctx, actor.SchoolID, id)
}
