package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mansoorceksport/workout-assistant/internal/domain"
	"github.com/sirupsen/logrus"
)

// ChatLogStore keeps saved conversation transcripts, most recent first,
// under domain.ChatLogsKey. It is independent of the ledger.
type ChatLogStore struct {
	store domain.KeyValueStore
	key   string
	now   func() time.Time
}

func NewChatLogStore(store domain.KeyValueStore, now func() time.Time) *ChatLogStore {
	if now == nil {
		now = time.Now
	}
	return &ChatLogStore{
		store: store,
		key:   domain.ChatLogsKey,
		now:   now,
	}
}

// Save snapshots messages into a new transcript and prepends it. Later edits
// to the caller's slice do not reach the saved copy.
func (c *ChatLogStore) Save(ctx context.Context, messages []domain.ChatMessage) (*domain.ChatTranscript, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("%w: no messages to save", domain.ErrInvalidInput)
	}

	transcript := domain.ChatTranscript{
		ID:       generateULID(),
		SavedAt:  c.now().UTC(),
		Messages: append([]domain.ChatMessage(nil), messages...),
	}

	mu := lockForKey(c.key)
	mu.Lock()
	defer mu.Unlock()

	logs, err := c.load(ctx)
	if err != nil {
		return nil, err
	}

	logs = append([]domain.ChatTranscript{transcript}, logs...)
	if err := c.persist(ctx, logs); err != nil {
		return nil, err
	}

	saved := cloneTranscript(transcript)
	return &saved, nil
}

// List returns every saved transcript, most recent first.
func (c *ChatLogStore) List(ctx context.Context) ([]domain.ChatTranscript, error) {
	return c.load(ctx)
}

// Get returns one transcript by id.
func (c *ChatLogStore) Get(ctx context.Context, id string) (*domain.ChatTranscript, error) {
	logs, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range logs {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrTranscriptNotFound, id)
}

// DeleteAt removes the transcript at a 0-based position of the current list.
// On failure it returns a nil list and an error, which callers can tell apart
// from an empty, non-nil list.
func (c *ChatLogStore) DeleteAt(ctx context.Context, index int) ([]domain.ChatTranscript, error) {
	return c.deleteWhere(ctx, func(logs []domain.ChatTranscript) (int, error) {
		if index < 0 || index >= len(logs) {
			return -1, fmt.Errorf("%w: %d", domain.ErrIndexOutOfRange, index)
		}
		return index, nil
	})
}

// DeleteByID removes a transcript by its stable id.
func (c *ChatLogStore) DeleteByID(ctx context.Context, id string) ([]domain.ChatTranscript, error) {
	return c.deleteWhere(ctx, func(logs []domain.ChatTranscript) (int, error) {
		for i := range logs {
			if logs[i].ID == id {
				return i, nil
			}
		}
		return -1, fmt.Errorf("%w: %s", domain.ErrTranscriptNotFound, id)
	})
}

// Summaries builds the list headers: the title is the first user message and
// the start time is decoded from the first message id.
func (c *ChatLogStore) Summaries(ctx context.Context) ([]domain.TranscriptSummary, error) {
	logs, err := c.load(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]domain.TranscriptSummary, 0, len(logs))
	for _, t := range logs {
		summaries = append(summaries, summarizeTranscript(t))
	}
	return summaries, nil
}

// Flush rewrites the stored list in canonical form, giving legacy bare-array
// transcripts their derived ids.
func (c *ChatLogStore) Flush(ctx context.Context) (int, error) {
	mu := lockForKey(c.key)
	mu.Lock()
	defer mu.Unlock()

	logs, err := c.load(ctx)
	if err != nil {
		return 0, err
	}
	if err := c.persist(ctx, logs); err != nil {
		return 0, err
	}
	return len(logs), nil
}

func summarizeTranscript(t domain.ChatTranscript) domain.TranscriptSummary {
	summary := domain.TranscriptSummary{
		ID:           t.ID,
		StartedAt:    t.SavedAt,
		MessageCount: len(t.Messages),
	}
	if len(t.Messages) == 0 {
		return summary
	}
	if started, ok := idTime(t.Messages[0].ID); ok {
		summary.StartedAt = started
	}
	for _, m := range t.Messages {
		if m.Sender == domain.SenderUser {
			summary.Title = m.Text
			break
		}
	}
	return summary
}

func (c *ChatLogStore) deleteWhere(ctx context.Context, pick func([]domain.ChatTranscript) (int, error)) ([]domain.ChatTranscript, error) {
	mu := lockForKey(c.key)
	mu.Lock()
	defer mu.Unlock()

	logs, err := c.load(ctx)
	if err != nil {
		return nil, err
	}

	i, err := pick(logs)
	if err != nil {
		return nil, err
	}

	updated := append(logs[:i:i], logs[i+1:]...)
	if err := c.persist(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

func (c *ChatLogStore) load(ctx context.Context) ([]domain.ChatTranscript, error) {
	raw, err := c.store.Get(ctx, c.key)
	if err != nil {
		if errors.Is(err, domain.ErrKeyNotFound) {
			return []domain.ChatTranscript{}, nil
		}
		return nil, c.reportFailure("get", err)
	}

	var logs []domain.ChatTranscript
	if err := json.Unmarshal([]byte(raw), &logs); err != nil {
		return nil, c.reportFailure("decode", err)
	}
	if logs == nil {
		logs = []domain.ChatTranscript{}
	}
	// Empty legacy arrays carry no message to derive an id from. The
	// position-based id is persisted by the next write.
	for i := range logs {
		if logs[i].ID == "" {
			logs[i].ID = fmt.Sprintf("legacy-empty-%d", i)
		}
	}
	return logs, nil
}

func (c *ChatLogStore) persist(ctx context.Context, logs []domain.ChatTranscript) error {
	data, err := json.Marshal(logs)
	if err != nil {
		return c.reportFailure("encode", err)
	}
	if err := c.store.Set(ctx, c.key, string(data)); err != nil {
		return c.reportFailure("set", err)
	}
	return nil
}

func (c *ChatLogStore) reportFailure(op string, err error) error {
	logrus.WithFields(logrus.Fields{
		"store.key": c.key,
		"op":        op,
	}).WithError(err).Warn("chat log persistence failed")
	return &domain.PersistenceError{Key: c.key, Op: op, Err: err}
}

func cloneTranscript(t domain.ChatTranscript) domain.ChatTranscript {
	t.Messages = append([]domain.ChatMessage(nil), t.Messages...)
	return t
}
