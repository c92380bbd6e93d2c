package service

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/mansoorceksport/workout-assistant/internal/domain"
	"github.com/sirupsen/logrus"
)

// ContextState tracks whether a conversation has received its workout summary.
type ContextState int

const (
	ContextPending ContextState = iota
	ContextSent
)

func (s ContextState) String() string {
	if s == ContextSent {
		return "CONTEXT_SENT"
	}
	return "CONTEXT_PENDING"
}

// ContextBuilder assembles assistant requests for one conversation. The
// workout summary is injected as a system entry into the first request only;
// every later request carries just the mapped message history. Use one
// builder per open conversation.
type ContextBuilder struct {
	mu    sync.Mutex
	state ContextState
}

func NewContextBuilder() *ContextBuilder {
	return &ContextBuilder{state: ContextPending}
}

func (b *ContextBuilder) State() ContextState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// BuildRequest assembles {message, history}. While pending it asks provider
// for the summary and prepends it. If the provider fails the request goes out
// without a summary and the builder stays pending, so the next request tries
// again.
func (b *ContextBuilder) BuildRequest(ctx context.Context, pending string, history []domain.ChatMessage, provider SummaryProvider) domain.ChatRequest {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries := make([]domain.HistoryEntry, 0, len(history)+1)

	if b.state == ContextPending && provider != nil {
		if entry, ok := summaryEntry(ctx, provider); ok {
			entries = append(entries, entry)
			b.state = ContextSent
		}
	}

	for _, m := range history {
		entries = append(entries, domain.HistoryEntry{
			Role:    m.Sender.Role(),
			Content: m.Text,
		})
	}

	return domain.ChatRequest{
		Message: pending,
		History: entries,
	}
}

func summaryEntry(ctx context.Context, provider SummaryProvider) (domain.HistoryEntry, bool) {
	summary, err := provider(ctx)
	if err != nil {
		logrus.WithError(err).Warn("workout summary unavailable, sending request without context")
		return domain.HistoryEntry{}, false
	}
	if summary.Workouts == nil {
		summary.Workouts = []domain.WorkoutSession{}
	}

	content, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		logrus.WithError(err).Warn("failed to encode workout summary")
		return domain.HistoryEntry{}, false
	}

	return domain.HistoryEntry{
		Role:    domain.RoleSystem,
		Content: string(content),
	}, true
}
