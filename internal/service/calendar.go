package service

import (
	"fmt"
	"time"

	"github.com/stemsi/schoolhub-backend/internal/model"
	"github.com/stemsi/schoolhub-backend/internal/validator"
)

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Contains reports whether day falls inside the range.
func (r DateRange) Contains(day time.Time) bool {
	d := civilDay(day)
	return !d.Before(civilDay(r.From)) && !d.After(civilDay(r.To))
}

// Days lists every calendar day of the range as YYYY-MM-DD, in order.
func (r DateRange) Days() []string {
	from, to := civilDay(r.From), civilDay(r.To)
	out := make([]string, 0)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		out = append(out, d.Format(validator.DateLayout))
	}
	return out
}

// civilDay truncates t to midnight UTC of its calendar day.
func civilDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD string into a UTC calendar day.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(validator.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// MonthRange returns the first and last day of a YYYY-MM month.
func MonthRange(month string) (DateRange, error) {
	start, err := time.Parse("2006-01", month)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: %q", ErrInvalidDate, month)
	}
	return DateRange{From: start, To: start.AddDate(0, 1, -1)}, nil
}

// eventSpan returns the inclusive day span of an event. A missing or earlier
// end date yields a single-day span.
func eventSpan(e *model.AcademicEvent) DateRange {
	start := civilDay(e.StartDate)
	end := start
	if e.EndDate != nil {
		if d := civilDay(*e.EndDate); d.After(start) {
			end = d
		}
	}
	return DateRange{From: start, To: end}
}

// BucketByDay maps each YYYY-MM-DD key to the events occurring on that day.
// Every event appears under each day of its span and no other. When window is
// non-nil only days inside it are produced. Bucket contents keep input order.
func BucketByDay(events []model.AcademicEvent, window *DateRange) map[string][]model.AcademicEvent {
	days := make(map[string][]model.AcademicEvent)
	for i := range events {
		span := eventSpan(&events[i])
		if window != nil {
			if from := civilDay(window.From); span.From.Before(from) {
				span.From = from
			}
			if to := civilDay(window.To); span.To.After(to) {
				span.To = to
			}
		}
		for d := span.From; !d.After(span.To); d = d.AddDate(0, 0, 1) {
			key := d.Format(validator.DateLayout)
			days[key] = append(days[key], events[i])
		}
	}
	return days
}

// EventsOn returns the events whose span covers day, in input order.
func EventsOn(events []model.AcademicEvent, day time.Time) []model.AcademicEvent {
	out := make([]model.AcademicEvent, 0)
	for i := range events {
		if eventSpan(&events[i]).Contains(day) {
			out = append(out, events[i])
		}
	}
	return out
}
