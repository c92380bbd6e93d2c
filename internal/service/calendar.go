package service

import (
	"time"

	"github.com/mansoorceksport/workout-assistant/internal/domain"
)

// NormalizeDate turns M/D/YYYY (with or without zero padding) into
// YYYY-MM-DD. ISO dates pass through. Anything else, including impossible
// dates such as 02/30/2025, is returned unchanged.
func NormalizeDate(raw string) string {
	if _, err := time.Parse(dateLayout, raw); err == nil {
		return raw
	}
	if t, err := time.Parse("1/2/2006", raw); err == nil {
		return t.Format(dateLayout)
	}
	return raw
}

// parseSessionDate is the single parsing rule used for date arithmetic:
// normalize, then read as YYYY-MM-DD in loc.
func parseSessionDate(raw string, loc *time.Location) (time.Time, bool) {
	t, err := time.ParseInLocation(dateLayout, NormalizeDate(raw), loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// CalendarIndex is a date -> sessions view over one ledger snapshot. It is
// built fresh for every read and never mutates the sessions it holds.
type CalendarIndex struct {
	buckets map[string][]domain.WorkoutSession
	dates   []string // first-seen order
}

// NewCalendarIndex groups a snapshot by normalized date. Within a bucket
// sessions keep their snapshot order; malformed dates get their own bucket.
func NewCalendarIndex(sessions []domain.WorkoutSession) *CalendarIndex {
	idx := &CalendarIndex{buckets: make(map[string][]domain.WorkoutSession)}
	for _, s := range sessions {
		key := NormalizeDate(s.Date)
		if _, ok := idx.buckets[key]; !ok {
			idx.dates = append(idx.dates, key)
		}
		idx.buckets[key] = append(idx.buckets[key], s.Clone())
	}
	return idx
}

// GroupByDate returns the date buckets of a snapshot.
func GroupByDate(sessions []domain.WorkoutSession) map[string][]domain.WorkoutSession {
	return NewCalendarIndex(sessions).buckets
}

// Markers annotates every date bucket for the given reference month.
func Markers(sessions []domain.WorkoutSession, month time.Month, year int) map[string]domain.Marker {
	return NewCalendarIndex(sessions).Markers(month, year)
}

// Dates lists the bucket keys in first-seen snapshot order.
func (c *CalendarIndex) Dates() []string {
	return append([]string(nil), c.dates...)
}

// SessionsOn returns the sessions for a date (any accepted format). Dates
// with no sessions yield an empty slice.
func (c *CalendarIndex) SessionsOn(date string) []domain.WorkoutSession {
	bucket := c.buckets[NormalizeDate(date)]
	return domain.CloneSessions(append([]domain.WorkoutSession{}, bucket...))
}

func (c *CalendarIndex) Markers(month time.Month, year int) map[string]domain.Marker {
	markers := make(map[string]domain.Marker, len(c.buckets))
	for date, sessions := range c.buckets {
		markers[date] = domain.Marker{
			Marked:   true,
			Emphasis: inMonth(date, month, year),
			Count:    len(sessions),
		}
	}
	return markers
}

// Days returns every bucket with its marker, in first-seen order.
func (c *CalendarIndex) Days(month time.Month, year int) []domain.CalendarDay {
	days := make([]domain.CalendarDay, 0, len(c.dates))
	for _, date := range c.dates {
		sessions := c.buckets[date]
		days = append(days, domain.CalendarDay{
			Date:     date,
			Sessions: domain.CloneSessions(sessions),
			Marker: domain.Marker{
				Marked:   true,
				Emphasis: inMonth(date, month, year),
				Count:    len(sessions),
			},
		})
	}
	return days
}

func inMonth(date string, month time.Month, year int) bool {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return false
	}
	return t.Year() == year && t.Month() == month
}
