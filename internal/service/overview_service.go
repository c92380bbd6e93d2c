package service

import (
	"context"
	"fmt"
	"time"

	"github.com/mansoorceksport/workout-assistant/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Overview is the landing-screen aggregate.
type Overview struct {
	TotalWorkouts      int                        `json:"totalWorkouts"`
	RecentWorkouts     int                        `json:"recentWorkouts"`
	SavedConversations int                        `json:"savedConversations"`
	LatestSession      *domain.WorkoutSession     `json:"latestSession,omitempty"`
	Month              int                        `json:"month"`
	Year               int                        `json:"year"`
	Markers            map[string]domain.Marker   `json:"markers"`
	Conversations      []domain.TranscriptSummary `json:"conversations"`
}

// OverviewService aggregates the ledger and the chat log
type OverviewService struct {
	ledger *Ledger
	logs   *ChatLogStore
	now    func() time.Time
}

func NewOverviewService(ledger *Ledger, logs *ChatLogStore, now func() time.Time) *OverviewService {
	if now == nil {
		now = time.Now
	}
	return &OverviewService{ledger: ledger, logs: logs, now: now}
}

// Get loads sessions and transcript headers concurrently and marks the
// current month.
func (s *OverviewService) Get(ctx context.Context) (*Overview, error) {
	now := s.now()
	overview := &Overview{
		Month:         int(now.Month()),
		Year:          now.Year(),
		Markers:       map[string]domain.Marker{},
		Conversations: []domain.TranscriptSummary{},
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Ledger
	g.Go(func() error {
		sessions, err := s.ledger.List(gCtx)
		if err != nil {
			return fmt.Errorf("failed to load workouts: %w", err)
		}
		overview.TotalWorkouts = len(sessions)
		overview.RecentWorkouts = SummarizeRecent(sessions, now, SummaryWindowDays).TotalWorkouts
		overview.Markers = Markers(sessions, now.Month(), now.Year())
		if len(sessions) > 0 {
			latest := sessions[0]
			overview.LatestSession = &latest
		}
		return nil
	})

	// Chat log
	g.Go(func() error {
		summaries, err := s.logs.Summaries(gCtx)
		if err != nil {
			return fmt.Errorf("failed to load chat logs: %w", err)
		}
		overview.SavedConversations = len(summaries)
		overview.Conversations = summaries
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return overview, nil
}
