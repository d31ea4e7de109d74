package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/schoolhub-backend/internal/model"
	"github.com/stemsi/schoolhub-backend/internal/response"
	"github.com/stemsi/schoolhub-backend/internal/validator"
)

// ClassStore is the class and enrollment lookup attendance needs.
type ClassStore interface {
	GetByID(ctx context.Context, schoolID, id uuid.UUID) (*model.Class, error)
	ListBySchool(ctx context.Context, schoolID uuid.UUID) ([]model.Class, error)
	ListForTeacher(ctx context.Context, schoolID, teacherID uuid.UUID) ([]model.Class, error)
	IsTeacherAssigned(ctx context.Context, teacherID, classID uuid.UUID) (bool, error)
	ListRoster(ctx context.Context, classID uuid.UUID) ([]model.RosterEntry, error)
	RosterSizes(ctx context.Context, schoolID uuid.UUID) (map[uuid.UUID]int, error)
	PrimaryTeachers(ctx context.Context, schoolID uuid.UUID) (map[uuid.UUID]string, error)
}

// AttendanceStore persists attendance records.
type AttendanceStore interface {
	ListForClass(ctx context.Context, classID uuid.UUID, date string) ([]model.AttendanceRecord, error)
	ListForSchool(ctx context.Context, schoolID uuid.UUID, date string) ([]model.AttendanceRecord, error)
	ListForClassRange(ctx context.Context, classID uuid.UUID, from, to string) ([]model.AttendanceRecord, error)
	Upsert(ctx context.Context, records []model.AttendanceRecord) error
}

const (
	// heatmapDefaultSpan is how far back the heatmap reaches without a start date.
	heatmapDefaultSpan = 30
	// heatmapMaxDays bounds the heatmap width.
	heatmapMaxDays = 366
)

// Summarize counts statuses over a roster of total students. Students
// without a record count toward the total only.
func Summarize(total int, statuses []model.AttendanceStatus) model.AttendanceSummary {
	s := model.AttendanceSummary{TotalStudents: total}
	for _, st := range statuses {
		switch st {
		case model.AttendancePresent:
			s.PresentCount++
		case model.AttendanceAbsent:
			s.AbsentCount++
		case model.AttendanceLate:
			s.LateCount++
		case model.AttendanceExcused:
			s.ExcusedCount++
		}
	}
	if total > 0 {
		s.AttendanceRate = int(math.Round(float64(s.PresentCount+s.LateCount) / float64(total) * 100))
	}
	return s
}

func rosterStatuses(roster []model.RosterEntry) []model.AttendanceStatus {
	out := make([]model.AttendanceStatus, 0, len(roster))
	for _, e := range roster {
		if e.Attendance != nil {
			out = append(out, e.Attendance.Status)
		}
	}
	return out
}

// BulkTargets returns the roster students a bulk action applies to: the
// selected ids that belong to the roster, or everyone when none are selected.
func BulkTargets(roster []model.RosterEntry, selected []uuid.UUID) []uuid.UUID {
	if len(selected) == 0 {
		out := make([]uuid.UUID, len(roster))
		for i, e := range roster {
			out[i] = e.StudentID
		}
		return out
	}
	members := make(map[uuid.UUID]struct{}, len(roster))
	for _, e := range roster {
		members[e.StudentID] = struct{}{}
	}
	out := make([]uuid.UUID, 0, len(selected))
	seen := make(map[uuid.UUID]struct{}, len(selected))
	for _, id := range selected {
		if _, ok := members[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// RosterFilter narrows the roster of a class on a date.
type RosterFilter struct {
	Date   string `form:"date" binding:"omitempty,ymd"`
	Search string `form:"search" binding:"max=200"`
	Status string `form:"status" binding:"omitempty,oneof=all unmarked present absent late excused"`
}

func (f RosterFilter) match(e *model.RosterEntry) bool {
	switch {
	case isAll(f.Status):
	case f.Status == "unmarked":
		if e.Attendance != nil {
			return false
		}
	default:
		if e.Attendance == nil || string(e.Attendance.Status) != f.Status {
			return false
		}
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		name := strings.ToLower(e.FirstName + " " + e.LastName)
		return strings.Contains(name, q) || strings.Contains(strings.ToLower(e.StudentNumber), q)
	}
	return true
}

// RosterView is one class's attendance sheet for a day.
type RosterView struct {
	Class    model.Class             `json:"class"`
	Date     string                  `json:"date"`
	Students []model.RosterEntry     `json:"students"`
	Summary  model.AttendanceSummary `json:"summary"`
}

// AdminAttendanceFilter narrows the school-wide attendance view.
type AdminAttendanceFilter struct {
	Date    string `form:"date" binding:"omitempty,ymd"`
	ClassID string `form:"class_id" binding:"omitempty,uuid"`
	Status  string `form:"status" binding:"omitempty,oneof=all present absent late excused"`
	Search  string `form:"search" binding:"max=200"`
	Page    int    `form:"page" binding:"omitempty,min=1,max=100000"`
	Limit   int    `form:"limit" binding:"omitempty,min=1,max=500"`
}

// AdminAttendanceView is the school-wide attendance payload.
type AdminAttendanceView struct {
	Date       string                   `json:"date"`
	Records    []model.AttendanceRecord `json:"records"`
	Classes    []model.ClassAttendance  `json:"classes"`
	Summary    model.AttendanceSummary  `json:"summary"`
	Pagination *response.Pagination     `json:"-"`
}

// AttendanceService handles daily attendance marking.
type AttendanceService struct {
	classes ClassStore
	records AttendanceStore
	log     zerolog.Logger
	now     func() time.Time
}

// NewAttendanceService creates a new AttendanceService.
func NewAttendanceService(classes ClassStore, records AttendanceStore, log zerolog.Logger) *AttendanceService {
	return &AttendanceService{
		classes: classes,
		records: records,
		log:     log.With().Str("component", "attendance_service").Logger(),
		now:     time.Now,
	}
}

func (s *AttendanceService) today() string {
	return s.now().UTC().Format(validator.DateLayout)
}

// authorize loads a class the actor may mark.
func (s *AttendanceService) authorize(ctx context.Context, actor Actor, classID uuid.UUID) (*model.Class, error) {
	class, err := s.classes.GetByID(ctx, actor.SchoolID, classID)
	if err != nil {
		return nil, err
	}
	if actor.IsAdmin() {
		return class, nil
	}
	ok, err := s.classes.IsTeacherAssigned(ctx, actor.UserID, classID)
	if err != nil {
		return nil, fmt.Errorf("check assignment: %w", err)
	}
	if !ok {
		return nil, ErrClassAccessDenied
	}
	return class, nil
}

// roster joins the class members with their records for date.
func (s *AttendanceService) roster(ctx context.Context, classID uuid.UUID, date string) ([]model.RosterEntry, error) {
	roster, err := s.classes.ListRoster(ctx, classID)
	if err != nil {
		return nil, fmt.Errorf("list roster: %w", err)
	}
	records, err := s.records.ListForClass(ctx, classID, date)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	byStudent := make(map[uuid.UUID]*model.AttendanceRecord, len(records))
	for i := range records {
		byStudent[records[i].StudentID] = &records[i]
	}
	for i := range roster {
		roster[i].Attendance = byStudent[roster[i].StudentID]
	}
	return roster, nil
}

// TeacherClasses lists the actor's classes with today's summary. Admins see
// every class of the school.
func (s *AttendanceService) TeacherClasses(ctx context.Context, actor Actor) ([]model.ClassAttendance, error) {
	var (
		classes []model.Class
		err     error
	)
	if actor.IsAdmin() {
		classes, err = s.classes.ListBySchool(ctx, actor.SchoolID)
	} else {
		classes, err = s.classes.ListForTeacher(ctx, actor.SchoolID, actor.UserID)
	}
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return s.classSummaries(ctx, actor.SchoolID, classes, s.today())
}

func (s *AttendanceService) classSummaries(ctx context.Context, schoolID uuid.UUID, classes []model.Class, date string) ([]model.ClassAttendance, error) {
	sizes, err := s.classes.RosterSizes(ctx, schoolID)
	if err != nil {
		return nil, fmt.Errorf("roster sizes: %w", err)
	}
	teachers, err := s.classes.PrimaryTeachers(ctx, schoolID)
	if err != nil {
		return nil, fmt.Errorf("primary teachers: %w", err)
	}
	records, err := s.records.ListForSchool(ctx, schoolID, date)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	statuses := make(map[uuid.UUID][]model.AttendanceStatus)
	for _, r := range records {
		statuses[r.ClassID] = append(statuses[r.ClassID], r.Status)
	}

	out := make([]model.ClassAttendance, 0, len(classes))
	for _, c := range classes {
		out = append(out, model.ClassAttendance{
			ClassID:           c.ID,
			ClassName:         c.ClassName,
			GradeLevel:        c.GradeLevel,
			Teacher:           teachers[c.ID],
			AttendanceSummary: Summarize(sizes[c.ID], statuses[c.ID]),
		})
	}
	return out, nil
}

// Roster returns a class's filtered attendance sheet. The summary always
// covers the whole class.
func (s *AttendanceService) Roster(ctx context.Context, actor Actor, classID uuid.UUID, f RosterFilter) (*RosterView, error) {
	class, err := s.authorize(ctx, actor, classID)
	if err != nil {
		return nil, err
	}
	date := f.Date
	if date == "" {
		date = s.today()
	}

	roster, err := s.roster(ctx, classID, date)
	if err != nil {
		return nil, err
	}

	view := &RosterView{
		Class:    *class,
		Date:     date,
		Students: make([]model.RosterEntry, 0, len(roster)),
		Summary:  Summarize(len(roster), rosterStatuses(roster)),
	}
	for i := range roster {
		if f.match(&roster[i]) {
			view.Students = append(view.Students, roster[i])
		}
	}
	return view, nil
}

// SaveRoster upserts the submitted marks for one class and day in a single
// transaction. Students outside the class are rejected.
func (s *AttendanceService) SaveRoster(ctx context.Context, actor Actor, req *model.SaveRosterRequest) (int, error) {
	if _, err := s.authorize(ctx, actor, req.ClassID); err != nil {
		return 0, err
	}
	roster, err := s.classes.ListRoster(ctx, req.ClassID)
	if err != nil {
		return 0, fmt.Errorf("list roster: %w", err)
	}
	members := make(map[uuid.UUID]struct{}, len(roster))
	for _, e := range roster {
		members[e.StudentID] = struct{}{}
	}

	now := s.now()
	records := make([]model.AttendanceRecord, 0, len(req.Records))
	for _, m := range req.Records {
		if _, ok := members[m.StudentID]; !ok {
			return 0, fmt.Errorf("%w: student %s", ErrClassAccessDenied, m.StudentID)
		}
		records = append(records, model.AttendanceRecord{
			SchoolID:  actor.SchoolID,
			ClassID:   req.ClassID,
			StudentID: m.StudentID,
			Date:      req.Date,
			Status:    m.Status,
			Notes:     m.Notes,
			MarkedBy:  actor.UserID,
			MarkedAt:  now,
		})
	}
	if err := s.records.Upsert(ctx, records); err != nil {
		return 0, err
	}

	s.log.Info().
		Str("class_id", req.ClassID.String()).
		Str("date", req.Date).
		Int("records", len(records)).
		Msg("Attendance saved")
	return len(records), nil
}

// Bulk applies one status to the selected students (or the whole roster).
// Records of other students are left untouched.
func (s *AttendanceService) Bulk(ctx context.Context, actor Actor, req *model.BulkAttendanceRequest) ([]uuid.UUID, error) {
	if _, err := s.authorize(ctx, actor, req.ClassID); err != nil {
		return nil, err
	}
	roster, err := s.roster(ctx, req.ClassID, req.Date)
	if err != nil {
		return nil, err
	}

	existing := make(map[uuid.UUID]string, len(roster))
	for _, e := range roster {
		if e.Attendance != nil {
			existing[e.StudentID] = e.Attendance.Notes
		}
	}

	targets := BulkTargets(roster, req.StudentIDs)
	if len(targets) == 0 {
		return targets, nil
	}

	now := s.now()
	records := make([]model.AttendanceRecord, len(targets))
	for i, id := range targets {
		records[i] = model.AttendanceRecord{
			SchoolID:  actor.SchoolID,
			ClassID:   req.ClassID,
			StudentID: id,
			Date:      req.Date,
			Status:    req.Status,
			Notes:     existing[id],
			MarkedBy:  actor.UserID,
			MarkedAt:  now,
		}
	}
	if err := s.records.Upsert(ctx, records); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("class_id", req.ClassID.String()).
		Str("status", string(req.Status)).
		Int("students", len(targets)).
		Msg("Bulk attendance applied")
	return targets, nil
}

// SchoolOverview returns the school's records for a day with per-class and
// overall summaries.
func (s *AttendanceService) SchoolOverview(ctx context.Context, schoolID uuid.UUID, f AdminAttendanceFilter) (*AdminAttendanceView, error) {
	date := f.Date
	if date == "" {
		date = s.today()
	}

	classes, err := s.classes.ListBySchool(ctx, schoolID)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	if f.ClassID != "" {
		classID, err := uuid.Parse(f.ClassID)
		if err != nil {
			return nil, err
		}
		kept := classes[:0]
		for _, c := range classes {
			if c.ID == classID {
				kept = append(kept, c)
			}
		}
		classes = kept
	}

	summaries, err := s.classSummaries(ctx, schoolID, classes, date)
	if err != nil {
		return nil, err
	}

	records, err := s.records.ListForSchool(ctx, schoolID, date)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	inScope := make(map[uuid.UUID]struct{}, len(classes))
	for _, c := range classes {
		inScope[c.ID] = struct{}{}
	}

	q := strings.ToLower(strings.TrimSpace(f.Search))
	filtered := make([]model.AttendanceRecord, 0, len(records))
	var total int
	statuses := make([]model.AttendanceStatus, 0, len(records))
	for _, r := range records {
		if _, ok := inScope[r.ClassID]; !ok {
			continue
		}
		statuses = append(statuses, r.Status)
		if !isAll(f.Status) && string(r.Status) != f.Status {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(r.StudentName), q) {
			continue
		}
		filtered = append(filtered, r)
	}
	for _, c := range summaries {
		total += c.TotalStudents
	}

	page, limit := f.Page, f.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 100
	}
	start, end := pageBounds(page, limit, len(filtered))

	return &AdminAttendanceView{
		Date:       date,
		Records:    filtered[start:end],
		Classes:    summaries,
		Summary:    Summarize(total, statuses),
		Pagination: response.NewPagination(page, limit, len(filtered)),
	}, nil
}

// HeatmapFilter selects the class and inclusive day range of a heatmap.
type HeatmapFilter struct {
	ClassID   string `form:"class_id" binding:"required,uuid"`
	StartDate string `form:"start_date" binding:"omitempty,ymd"`
	EndDate   string `form:"end_date" binding:"omitempty,ymd"`
}

// heatmapRange resolves the filter's days. The end defaults to today and the
// start to heatmapDefaultSpan days before the end.
func (s *AttendanceService) heatmapRange(f HeatmapFilter) (DateRange, error) {
	end := civilDay(s.now())
	if f.EndDate != "" {
		d, err := ParseDay(f.EndDate)
		if err != nil {
			return DateRange{}, err
		}
		end = d
	}
	start := end.AddDate(0, 0, -heatmapDefaultSpan)
	if f.StartDate != "" {
		d, err := ParseDay(f.StartDate)
		if err != nil {
			return DateRange{}, err
		}
		start = d
	}
	if end.Before(start) || end.Sub(start) >= heatmapMaxDays*24*time.Hour {
		return DateRange{}, ErrInvalidDateRange
	}
	return DateRange{From: start, To: end}, nil
}

// Heatmap returns every roster student's status for each day of the range.
func (s *AttendanceService) Heatmap(ctx context.Context, schoolID uuid.UUID, f HeatmapFilter) (*model.AttendanceHeatmap, error) {
	classID, err := uuid.Parse(f.ClassID)
	if err != nil {
		return nil, err
	}
	span, err := s.heatmapRange(f)
	if err != nil {
		return nil, err
	}
	class, err := s.classes.GetByID(ctx, schoolID, classID)
	if err != nil {
		return nil, err
	}
	roster, err := s.classes.ListRoster(ctx, classID)
	if err != nil {
		return nil, fmt.Errorf("list roster: %w", err)
	}

	dates := span.Days()
	records, err := s.records.ListForClassRange(ctx, classID, dates[0], dates[len(dates)-1])
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	type cellKey struct {
		student uuid.UUID
		date    string
	}
	marks := make(map[cellKey]model.AttendanceStatus, len(records))
	for _, r := range records {
		marks[cellKey{r.StudentID, r.Date}] = r.Status
	}

	out := &model.AttendanceHeatmap{
		ClassID:   class.ID,
		ClassName: class.ClassName,
		Dates:     dates,
		Students:  make([]model.HeatmapRow, 0, len(roster)),
		Summary:   model.HeatmapSummary{TotalDays: len(dates)},
	}
	var marked, present int
	for _, e := range roster {
		row := model.HeatmapRow{
			ID:         e.StudentID,
			Name:       strings.TrimSpace(e.FirstName + " " + e.LastName),
			Attendance: make([]model.HeatmapCell, len(dates)),
		}
		for i, d := range dates {
			row.Attendance[i].Date = d
			if st, ok := marks[cellKey{e.StudentID, d}]; ok {
				row.Attendance[i].Status = &st
				marked++
				if st == model.AttendancePresent {
					present++
				}
			}
		}
		out.Students = append(out.Students, row)
	}
	if marked > 0 {
		out.Summary.AverageAttendance = math.Round(float64(present)/float64(marked)*1000) / 10
	}
	return out, nil
}
