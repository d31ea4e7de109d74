package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/schoolhub-backend/internal/model"
)

const (
	// ShoutOutXP is awarded to the student for each shout-out received.
	ShoutOutXP = 10
	// recentShoutOutWindow bounds the "recent shout-outs" counter.
	recentShoutOutWindow = 30 * 24 * time.Hour
)

// ShoutOutStore persists shout-outs and templates.
type ShoutOutStore interface {
	ListByTeacher(ctx context.Context, schoolID, teacherID uuid.UUID, category string) ([]model.ShoutOut, error)
	ListTemplates(ctx context.Context, schoolID uuid.UUID) ([]model.ShoutOutTemplate, error)
	GetTemplate(ctx context.Context, schoolID, id uuid.UUID) (*model.ShoutOutTemplate, error)
	Create(ctx context.Context, s *model.ShoutOut, xp int) error
	ListStudents(ctx context.Context, schoolID uuid.UUID, classID *uuid.UUID, since time.Time) ([]model.ShoutOutStudent, error)
}

// ResolveShoutOut fills the category, message and badge of a shout-out from
// the request, falling back to the template. Category defaults to effort.
func ResolveShoutOut(req *model.SendShoutOutRequest, tmpl *model.ShoutOutTemplate) (model.ShoutOutCategory, string, string, error) {
	message := strings.TrimSpace(req.Message)
	category := req.Category
	var badge string
	if tmpl != nil {
		if message == "" {
			message = tmpl.Message
		}
		if category == "" {
			category = tmpl.Category
		}
		badge = tmpl.Badge
	}
	if category == "" {
		category = model.CategoryEffort
	}
	if message == "" {
		return "", "", "", ErrMessageRequired
	}
	return category, message, badge, nil
}

// ShoutOutService handles teacher recognition messages.
type ShoutOutService struct {
	store ShoutOutStore
	log   zerolog.Logger
	now   func() time.Time
}

// NewShoutOutService creates a new ShoutOutService.
func NewShoutOutService(store ShoutOutStore, log zerolog.Logger) *ShoutOutService {
	return &ShoutOutService{
		store: store,
		log:   log.With().Str("component", "shout_out_service").Logger(),
		now:   time.Now,
	}
}

// List returns the teacher's shout-outs, optionally for one category.
func (s *ShoutOutService) List(ctx context.Context, actor Actor, category string) ([]model.ShoutOut, error) {
	if isAll(category) {
		category = ""
	}
	return s.store.ListByTeacher(ctx, actor.SchoolID, actor.UserID, category)
}

// Templates returns global and school templates.
func (s *ShoutOutService) Templates(ctx context.Context, actor Actor) ([]model.ShoutOutTemplate, error) {
	return s.store.ListTemplates(ctx, actor.SchoolID)
}

// Send records a shout-out and awards the student xp.
func (s *ShoutOutService) Send(ctx context.Context, actor Actor, req *model.SendShoutOutRequest) (*model.ShoutOut, error) {
	var tmpl *model.ShoutOutTemplate
	if req.TemplateID != nil {
		t, err := s.store.GetTemplate(ctx, actor.SchoolID, *req.TemplateID)
		if err != nil {
			return nil, err
		}
		tmpl = t
	}

	category, message, badge, err := ResolveShoutOut(req, tmpl)
	if err != nil {
		return nil, err
	}

	so := &model.ShoutOut{
		SchoolID:   actor.SchoolID,
		TeacherID:  actor.UserID,
		StudentID:  req.StudentID,
		Category:   category,
		Message:    message,
		IsPublic:   req.IsPublic,
		TemplateID: req.TemplateID,
		Badge:      badge,
	}
	if err := s.store.Create(ctx, so, ShoutOutXP); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("shout_out_id", so.ID.String()).
		Str("student_id", so.StudentID.String()).
		Str("category", string(category)).
		Msg("Shout-out sent")
	return so, nil
}

// Students lists recipient candidates with their recent shout-out counts.
func (s *ShoutOutService) Students(ctx context.Context, actor Actor, classID *uuid.UUID, search string) ([]model.ShoutOutStudent, error) {
	students, err := s.store.ListStudents(ctx, actor.SchoolID, classID, s.now().Add(-recentShoutOutWindow))
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(search))
	if q == "" {
		return students, nil
	}
	out := make([]model.ShoutOutStudent, 0, len(students))
	for _, st := range students {
		if strings.Contains(strings.ToLower(st.Name), q) || strings.Contains(strings.ToLower(st.ClassName), q) {
			out = append(out, st)
		}
	}
	return out, nil
}
