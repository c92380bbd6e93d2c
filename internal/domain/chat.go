package domain

import (
	"context"
	"encoding/json"
	"time"
)

type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
	SenderBot       Sender = "bot" // legacy spelling of SenderAssistant
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Role maps a message sender onto the assistant wire role.
func (s Sender) Role() Role {
	if s == SenderUser {
		return RoleUser
	}
	return RoleAssistant
}

// ChatMessage ids are ULIDs, so lexical order is creation order.
type ChatMessage struct {
	ID     string `json:"id"`
	Sender Sender `json:"sender"`
	Text   string `json:"text"`
}

// ChatTranscript is an immutable saved copy of a conversation.
type ChatTranscript struct {
	ID       string        `json:"id"`
	SavedAt  time.Time     `json:"savedAt"`
	Messages []ChatMessage `json:"messages"`
}

// UnmarshalJSON accepts both the object form and the bare message array
// older clients stored. Bare arrays get an id derived from their first message.
func (t *ChatTranscript) UnmarshalJSON(data []byte) error {
	var legacy []ChatMessage
	if err := json.Unmarshal(data, &legacy); err == nil {
		t.Messages = legacy
		if len(legacy) > 0 {
			t.ID = "legacy-" + legacy[0].ID
		}
		return nil
	}

	type plain ChatTranscript
	var aux plain
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*t = ChatTranscript(aux)
	return nil
}

// TranscriptSummary is the list header for a saved transcript.
type TranscriptSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	StartedAt    time.Time `json:"startedAt"`
	MessageCount int       `json:"messageCount"`
}

// HistoryEntry is one message as sent to the assistant.
type HistoryEntry struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the outbound assistant payload.
type ChatRequest struct {
	Message string         `json:"message"`
	History []HistoryEntry `json:"history"`
}

type ChatResponse struct {
	Reply string `json:"reply"`
}

// AssistantClient is the opaque boundary to the remote language model.
// An empty reply with a nil error means the model produced nothing.
type AssistantClient interface {
	Reply(ctx context.Context, req ChatRequest) (string, error)
}
