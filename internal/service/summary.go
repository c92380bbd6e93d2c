package service

import (
	"context"
	"time"

	"github.com/mansoorceksport/workout-assistant/internal/domain"
)

// SummaryWindowDays is the trailing window of the assistant context summary.
const SummaryWindowDays = 14

// SummaryProvider computes the workout summary handed to the assistant.
type SummaryProvider func(ctx context.Context) (domain.WorkoutSummary, error)

// SummarizeRecent keeps the sessions dated on or after local midnight
// `days` days before now. Sessions whose date cannot be parsed are left out.
func SummarizeRecent(sessions []domain.WorkoutSession, now time.Time, days int) domain.WorkoutSummary {
	y, m, d := now.Date()
	lower := time.Date(y, m, d, 0, 0, 0, 0, now.Location()).AddDate(0, 0, -days)

	recent := make([]domain.WorkoutSession, 0, len(sessions))
	for _, s := range sessions {
		date, ok := parseSessionDate(s.Date, now.Location())
		if !ok || date.Before(lower) {
			continue
		}
		recent = append(recent, s.Clone())
	}

	return domain.WorkoutSummary{
		TotalWorkouts: len(recent),
		Workouts:      recent,
	}
}

// RecentSummary summarizes the trailing SummaryWindowDays of the ledger.
func (l *Ledger) RecentSummary(ctx context.Context) (domain.WorkoutSummary, error) {
	sessions, err := l.snapshot(ctx)
	if err != nil {
		return domain.WorkoutSummary{}, err
	}
	return SummarizeRecent(sessions, l.now(), SummaryWindowDays), nil
}

// Calendar builds a calendar index over the current snapshot.
func (l *Ledger) Calendar(ctx context.Context) (*CalendarIndex, error) {
	sessions, err := l.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return NewCalendarIndex(sessions), nil
}
