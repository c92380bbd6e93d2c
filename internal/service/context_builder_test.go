package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mansoorceksport/workout-assistant/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticSummary(summary domain.WorkoutSummary, calls *int) SummaryProvider {
	return func(ctx context.Context) (domain.WorkoutSummary, error) {
		*calls++
		return summary, nil
	}
}

func TestContextBuilder_SummaryOnlyOnFirstRequest(t *testing.T) {
	ctx := context.Background()
	builder := NewContextBuilder()
	calls := 0
	provider := staticSummary(domain.WorkoutSummary{
		TotalWorkouts: 1,
		Workouts:      []domain.WorkoutSession{{ID: "w1", Name: "Push", Date: "2025-03-07"}},
	}, &calls)

	history := []domain.ChatMessage{
		{ID: "1", Sender: domain.SenderAssistant, Text: "hello"},
		{ID: "2", Sender: domain.SenderUser, Text: "plan my week"},
	}

	first := builder.BuildRequest(ctx, "plan my week", history, provider)
	assert.Equal(t, "plan my week", first.Message)
	require.Len(t, first.History, 3)
	assert.Equal(t, domain.RoleSystem, first.History[0].Role)
	assert.Equal(t, ContextSent, builder.State())

	var decoded domain.WorkoutSummary
	require.NoError(t, json.Unmarshal([]byte(first.History[0].Content), &decoded))
	assert.Equal(t, 1, decoded.TotalWorkouts)
	assert.Contains(t, first.History[0].Content, "\n  \"totalWorkouts\": 1")

	history = append(history,
		domain.ChatMessage{ID: "3", Sender: domain.SenderBot, Text: "sure"},
		domain.ChatMessage{ID: "4", Sender: domain.SenderUser, Text: "thanks"},
	)
	second := builder.BuildRequest(ctx, "thanks", history, provider)
	require.Len(t, second.History, 4)
	for _, h := range second.History {
		assert.NotEqual(t, domain.RoleSystem, h.Role)
	}
	assert.Equal(t, 1, calls)
}

func TestContextBuilder_MapsRolesInOrder(t *testing.T) {
	builder := NewContextBuilder()
	history := []domain.ChatMessage{
		{Sender: domain.SenderUser, Text: "a"},
		{Sender: domain.SenderBot, Text: "b"},
		{Sender: domain.SenderAssistant, Text: "c"},
	}

	req := builder.BuildRequest(context.Background(), "next", history, nil)

	assert.Equal(t, []domain.HistoryEntry{
		{Role: domain.RoleUser, Content: "a"},
		{Role: domain.RoleAssistant, Content: "b"},
		{Role: domain.RoleAssistant, Content: "c"},
	}, req.History)
}

func TestContextBuilder_ProviderFailureStaysPending(t *testing.T) {
	ctx := context.Background()
	builder := NewContextBuilder()
	fail := true
	provider := func(ctx context.Context) (domain.WorkoutSummary, error) {
		if fail {
			return domain.WorkoutSummary{}, errors.New("boom")
		}
		return domain.WorkoutSummary{}, nil
	}
	history := []domain.ChatMessage{{Sender: domain.SenderUser, Text: "hi"}}

	req := builder.BuildRequest(ctx, "hi", history, provider)
	require.Len(t, req.History, 1)
	assert.Equal(t, ContextPending, builder.State())

	fail = false
	req = builder.BuildRequest(ctx, "hi", history, provider)
	require.Len(t, req.History, 2)
	assert.Equal(t, domain.RoleSystem, req.History[0].Role)
	assert.JSONEq(t, `{"totalWorkouts":0,"workouts":[]}`, req.History[0].Content)
	assert.Equal(t, ContextSent, builder.State())
}

func TestContextState_String(t *testing.T) {
	assert.Equal(t, "CONTEXT_PENDING", ContextPending.String())
	assert.Equal(t, "CONTEXT_SENT", ContextSent.String())
}
