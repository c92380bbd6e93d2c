package service

import (
	"context"
	"testing"
	"time"

	"github.com/mansoorceksport/workout-assistant/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeRecent(t *testing.T) {
	now := time.Date(2025, 3, 20, 18, 30, 0, 0, time.Local)
	day := func(offset int) string {
		return now.AddDate(0, 0, -offset).Format(dateLayout)
	}

	sessions := []domain.WorkoutSession{
		{ID: "today", Date: day(0)},
		{ID: "ten", Date: day(10)},
		{ID: "twenty", Date: day(20)},
	}

	summary := SummarizeRecent(sessions, now, SummaryWindowDays)
	assert.Equal(t, 2, summary.TotalWorkouts)
	require.Len(t, summary.Workouts, 2)
	assert.Equal(t, "today", summary.Workouts[0].ID)
	assert.Equal(t, "ten", summary.Workouts[1].ID)
}

func TestSummarizeRecent_Boundaries(t *testing.T) {
	now := time.Date(2025, 3, 20, 23, 59, 0, 0, time.Local)

	tests := []struct {
		name    string
		date    string
		include bool
	}{
		{name: "exactly fourteen days back", date: "2025-03-06", include: true},
		{name: "fifteen days back", date: "2025-03-05", include: false},
		{name: "US format inside window", date: "3/10/2025", include: true},
		{name: "future date", date: "2025-04-01", include: true},
		{name: "unparseable", date: "yesterday", include: false},
		{name: "impossible", date: "02/30/2025", include: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary := SummarizeRecent([]domain.WorkoutSession{{ID: "x", Date: tt.date}}, now, SummaryWindowDays)
			if tt.include {
				assert.Equal(t, 1, summary.TotalWorkouts)
			} else {
				assert.Equal(t, 0, summary.TotalWorkouts)
			}
		})
	}
}

func TestLedger_RecentSummary(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 20, 9, 0, 0, 0, time.Local)
	ledger := NewLedger(setupRedisStore(t), fixedClock(now))

	_, err := ledger.Create(ctx, domain.SessionPatch{})
	require.NoError(t, err)
	_, err = ledger.Create(ctx, domain.SessionPatch{Date: strPtr("01/02/2025")})
	require.NoError(t, err)

	summary, err := ledger.RecentSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalWorkouts)
	assert.Equal(t, "2025-03-20", summary.Workouts[0].Date)
}
