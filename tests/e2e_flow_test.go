package tests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/workout-assistant/internal/config"
	"github.com/mansoorceksport/workout-assistant/internal/domain"
	"github.com/mansoorceksport/workout-assistant/internal/handler"
	"github.com/mansoorceksport/workout-assistant/internal/repository"
	"github.com/mansoorceksport/workout-assistant/internal/server"
	"github.com/mansoorceksport/workout-assistant/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testApp struct {
	t         *testing.T
	app       *fiber.App
	mr        *miniredis.Miniredis
	assistant *MockAssistant
}

func setupApp(t *testing.T) *testApp {
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	cfg := &config.Config{}
	cfg.Server.BodyLimitKB = 512
	cfg.Store.Backend = config.BackendRedis
	cfg.Store.KeyPrefix = "e2e:"
	cfg.Idempotency.Enabled = true
	cfg.Idempotency.TTL = time.Minute

	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.Local)
	assistant := NewMockAssistant("Great question!")

	app := server.NewApp(server.AppDependencies{
		Config:      cfg,
		Store:       repository.NewRedisKVStore(redisClient, cfg.Store.KeyPrefix),
		RedisClient: redisClient,
		Assistant:   assistant,
		Now:         func() time.Time { return now },
	})

	return &testApp{t: t, app: app, mr: mr, assistant: assistant}
}

// do sends a JSON request and decodes the JSON response into out (if non-nil).
func (a *testApp) do(method, path string, body interface{}, out interface{}, headers ...string) *http.Response {
	var bodyReader io.Reader
	if body != nil {
		jsonBytes, err := json.Marshal(body)
		require.NoError(a.t, err)
		bodyReader = bytes.NewReader(jsonBytes)
	}
	req, err := http.NewRequest(method, path, bodyReader)
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := a.app.Test(req, -1)
	require.NoError(a.t, err)
	if out != nil {
		require.NoError(a.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestWorkoutLedgerFlow(t *testing.T) {
	a := setupApp(t)

	// ==========================================
	// STEP 1: Create a session with defaults
	// ==========================================
	var session domain.WorkoutSession
	resp := a.do("POST", "/v1/workouts", map[string]string{"name": "Push day"}, &session)
	require.Equal(t, 201, resp.StatusCode)
	assert.Equal(t, "Push day", session.Name)
	assert.Equal(t, "2025-03-10", session.Date)
	require.Len(t, session.Exercises, 1)
	require.Len(t, session.Exercises[0].Sets, 1)

	exID := session.Exercises[0].ID
	setID := session.Exercises[0].Sets[0].ID
	base := fmt.Sprintf("/v1/workouts/%s/exercises/%s", session.ID, exID)

	// ==========================================
	// STEP 2: Edit exercises and sets
	// ==========================================
	resp = a.do("PATCH", base, map[string]string{"name": "Bench press"}, nil)
	assert.Equal(t, 200, resp.StatusCode)

	resp = a.do("PATCH", base+"/sets/"+setID, map[string]interface{}{"reps": "8", "weight": 135}, nil)
	assert.Equal(t, 200, resp.StatusCode)

	resp = a.do("PATCH", base+"/sets/"+setID, map[string]interface{}{"weight": "heavy"}, &session)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, domain.Set{ID: setID, Reps: 8, Weight: 0}, session.Exercises[0].Sets[0])

	resp = a.do("POST", base+"/sets", nil, nil)
	assert.Equal(t, 201, resp.StatusCode)

	resp = a.do("POST", "/v1/workouts/"+session.ID+"/exercises", map[string]string{"name": "Dips"}, nil)
	assert.Equal(t, 201, resp.StatusCode)

	// re-read by id, as the edit screen does
	resp = a.do("GET", "/v1/workouts/"+session.ID, nil, &session)
	require.Equal(t, 200, resp.StatusCode)
	require.Len(t, session.Exercises, 2)
	assert.Equal(t, "Bench press", session.Exercises[0].Name)
	assert.Len(t, session.Exercises[0].Sets, 2)
	assert.Equal(t, "Dips", session.Exercises[1].Name)

	resp = a.do("PATCH", "/v1/workouts/"+session.ID+"/exercises/ghost", map[string]string{"name": "x"}, nil)
	assert.Equal(t, 404, resp.StatusCode)

	// ==========================================
	// STEP 3: Calendar over mixed date formats
	// ==========================================
	a.do("POST", "/v1/workouts", map[string]string{"name": "Legs", "date": "03/07/2025"}, nil)
	a.do("POST", "/v1/workouts", map[string]string{"name": "Pull", "date": "3/7/2025"}, nil)
	a.do("POST", "/v1/workouts", map[string]string{"name": "Old", "date": "01/02/2025"}, nil)

	var cal struct {
		Days    []domain.CalendarDay     `json:"days"`
		Markers map[string]domain.Marker `json:"markers"`
	}
	resp = a.do("GET", "/v1/calendar?month=3&year=2025", nil, &cal)
	require.Equal(t, 200, resp.StatusCode)
	assert.Len(t, cal.Days, 3)
	assert.Equal(t, domain.Marker{Marked: true, Emphasis: true, Count: 2}, cal.Markers["2025-03-07"])
	assert.False(t, cal.Markers["2025-01-02"].Emphasis)

	var day struct {
		Date     string                  `json:"date"`
		Sessions []domain.WorkoutSession `json:"sessions"`
	}
	a.do("GET", "/v1/calendar/day?date="+url.QueryEscape("3/7/2025"), nil, &day)
	assert.Equal(t, "2025-03-07", day.Date)
	assert.Len(t, day.Sessions, 2)

	a.do("GET", "/v1/calendar/2025-02-14", nil, &day)
	assert.NotNil(t, day.Sessions)
	assert.Empty(t, day.Sessions)

	// ==========================================
	// STEP 4: 14-day summary
	// ==========================================
	var summary domain.WorkoutSummary
	a.do("GET", "/v1/summary", nil, &summary)
	assert.Equal(t, 3, summary.TotalWorkouts)

	// ==========================================
	// STEP 5: Remove and clear
	// ==========================================
	resp = a.do("DELETE", "/v1/workouts/"+session.ID, nil, nil)
	assert.Equal(t, 200, resp.StatusCode)
	resp = a.do("GET", "/v1/workouts/"+session.ID, nil, nil)
	assert.Equal(t, 404, resp.StatusCode)
	resp = a.do("DELETE", "/v1/workouts/"+session.ID, nil, nil)
	assert.Equal(t, 200, resp.StatusCode, "removing an absent id is a no-op")

	var sessions []domain.WorkoutSession
	a.do("GET", "/v1/workouts", nil, &sessions)
	assert.Len(t, sessions, 3)

	resp = a.do("DELETE", "/v1/workouts", nil, nil)
	assert.Equal(t, 200, resp.StatusCode)
	a.do("GET", "/v1/workouts", nil, &sessions)
	assert.Empty(t, sessions)
}

func TestConversationFlow(t *testing.T) {
	a := setupApp(t)
	a.do("POST", "/v1/workouts", map[string]string{"name": "Push day"}, nil)

	// ==========================================
	// STEP 1: Fresh conversation
	// ==========================================
	var conv service.Conversation
	a.do("GET", "/v1/conversation", nil, &conv)
	require.Len(t, conv.Messages, 1)
	assert.Equal(t, service.GreetingText, conv.Messages[0].Text)
	assert.Equal(t, "CONTEXT_PENDING", conv.ContextState)

	// ==========================================
	// STEP 2: Summary goes out with the first message only
	// ==========================================
	var sent struct {
		Reply        domain.ChatMessage   `json:"reply"`
		Conversation service.Conversation `json:"conversation"`
	}
	resp := a.do("POST", "/v1/conversation/messages", map[string]string{"text": "What next?"}, &sent)
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "Great question!", sent.Reply.Text)
	assert.Len(t, sent.Conversation.Messages, 3)

	first := a.assistant.LastRequest()
	require.NotEmpty(t, first.History)
	assert.Equal(t, domain.RoleSystem, first.History[0].Role)
	assert.Contains(t, first.History[0].Content, "Push day")

	a.do("POST", "/v1/conversation/messages", map[string]string{"text": "And then?"}, nil)
	for _, h := range a.assistant.LastRequest().History {
		assert.NotEqual(t, domain.RoleSystem, h.Role)
	}

	resp = a.do("POST", "/v1/conversation/messages", map[string]string{"text": ""}, nil)
	assert.Equal(t, 400, resp.StatusCode)

	// ==========================================
	// STEP 3: Save, list, delete transcripts
	// ==========================================
	var saved domain.ChatTranscript
	resp = a.do("POST", "/v1/conversation/save", nil, &saved)
	require.Equal(t, 201, resp.StatusCode)
	assert.Len(t, saved.Messages, 5)

	a.do("POST", "/v1/conversation/reset", nil, &conv)
	assert.Equal(t, "CONTEXT_PENDING", conv.ContextState)
	a.do("POST", "/v1/conversation/save", nil, nil)

	var summaries []domain.TranscriptSummary
	a.do("GET", "/v1/chat-logs", nil, &summaries)
	require.Len(t, summaries, 2)
	assert.Equal(t, saved.ID, summaries[1].ID)
	assert.Equal(t, "What next?", summaries[1].Title)

	var got domain.ChatTranscript
	resp = a.do("GET", "/v1/chat-logs/"+saved.ID, nil, &got)
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, saved.Messages, got.Messages)

	var remaining []domain.ChatTranscript
	resp = a.do("DELETE", "/v1/chat-logs/index/0", nil, &remaining)
	require.Equal(t, 200, resp.StatusCode)
	require.Len(t, remaining, 1)
	assert.Equal(t, saved.ID, remaining[0].ID)

	resp = a.do("DELETE", "/v1/chat-logs/"+saved.ID, nil, &remaining)
	require.Equal(t, 200, resp.StatusCode)
	assert.Empty(t, remaining)

	resp = a.do("DELETE", "/v1/chat-logs/index/0", nil, nil)
	assert.Equal(t, 404, resp.StatusCode)

	// ==========================================
	// STEP 4: Overview
	// ==========================================
	var overview service.Overview
	a.do("GET", "/v1/overview", nil, &overview)
	assert.Equal(t, 1, overview.TotalWorkouts)
	assert.Equal(t, 0, overview.SavedConversations)
}

func TestAssistantProxyFallbacks(t *testing.T) {
	a := setupApp(t)

	var out domain.ChatResponse
	resp := a.do("POST", "/v1/chat", domain.ChatRequest{Message: "hi"}, &out)
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "Great question!", out.Reply)

	a.assistant.Answer = ""
	a.do("POST", "/v1/chat", domain.ChatRequest{Message: "hi"}, &out)
	assert.Equal(t, service.FallbackNoReply, out.Reply)

	a.assistant.Err = fmt.Errorf("%w: connection refused", domain.ErrTransport)
	a.do("POST", "/v1/chat", domain.ChatRequest{Message: "hi"}, &out)
	assert.Equal(t, service.FallbackTransportError, out.Reply)
}

func TestIdempotentCreate(t *testing.T) {
	a := setupApp(t)

	var first, second domain.WorkoutSession
	a.do("POST", "/v1/workouts", map[string]string{"name": "Once"}, &first, "X-Correlation-ID", "req-1")
	resp := a.do("POST", "/v1/workouts", map[string]string{"name": "Once"}, &second, "X-Correlation-ID", "req-1")

	assert.Equal(t, 201, resp.StatusCode)
	assert.Equal(t, "true", resp.Header.Get("X-Idempotent-Replay"))
	assert.Equal(t, first.ID, second.ID)

	var sessions []domain.WorkoutSession
	a.do("GET", "/v1/workouts", nil, &sessions)
	assert.Len(t, sessions, 1)
}

func TestPersistenceFailureIsReportedNotFatal(t *testing.T) {
	a := setupApp(t)

	// warm the ledger cache so the failing write is the only store call
	a.do("GET", "/v1/workouts", nil, nil)

	a.mr.SetError("ERR simulated outage")
	var session domain.WorkoutSession
	resp := a.do("POST", "/v1/workouts", map[string]string{"name": "Offline"}, &session)
	assert.Equal(t, 201, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(handler.PersistenceWarningHeader))
	assert.Equal(t, "Offline", session.Name)

	// the change survives in memory and is flushed by the next write
	a.mr.SetError("")
	resp = a.do("PUT", "/v1/workouts/"+session.ID, map[string]string{"name": "Online"}, nil)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Empty(t, resp.Header.Get(handler.PersistenceWarningHeader))

	raw, err := a.mr.Get("e2e:" + domain.WorkoutsKey)
	require.NoError(t, err)
	assert.Contains(t, raw, "Online")
}
