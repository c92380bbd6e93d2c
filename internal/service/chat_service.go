package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/mansoorceksport/workout-assistant/internal/domain"
)

// GreetingText opens every new conversation.
const GreetingText = "Hi there! I'm your Virtual Trainer! How can I assist you with your fitness journey today?"

// Conversation is the live chat as exposed to clients.
type Conversation struct {
	ID           string               `json:"id"`
	ContextState string               `json:"contextState"`
	Messages     []domain.ChatMessage `json:"messages"`
}

// ChatService owns the open conversation: its messages, its context builder
// and the hand-off to the assistant and the chat log.
type ChatService struct {
	assistant domain.AssistantClient
	summary   SummaryProvider
	logs      *ChatLogStore

	// sendMu serializes Send so replies land in request order.
	sendMu sync.Mutex

	mu       sync.Mutex
	id       string
	builder  *ContextBuilder
	messages []domain.ChatMessage
}

func NewChatService(assistant domain.AssistantClient, summary SummaryProvider, logs *ChatLogStore) *ChatService {
	s := &ChatService{
		assistant: assistant,
		summary:   summary,
		logs:      logs,
	}
	s.reset()
	return s
}

// Current returns a copy of the open conversation.
func (s *ChatService) Current() Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Conversation{
		ID:           s.id,
		ContextState: s.builder.State().String(),
		Messages:     append([]domain.ChatMessage(nil), s.messages...),
	}
}

// Send appends the user message, asks the assistant and appends its reply
// (or the fallback text). It returns the assistant message.
func (s *ChatService) Send(ctx context.Context, text string) (*domain.ChatMessage, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: message is empty", domain.ErrInvalidInput)
	}

	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	s.mu.Lock()
	s.messages = append(s.messages, domain.ChatMessage{
		ID:     generateULID(),
		Sender: domain.SenderUser,
		Text:   text,
	})
	history := append([]domain.ChatMessage(nil), s.messages...)
	builder := s.builder
	conversationID := s.id
	s.mu.Unlock()

	req := builder.BuildRequest(ctx, text, history, s.summary)
	reply := ReplyOrFallback(ctx, s.assistant, req)

	msg := domain.ChatMessage{
		ID:     generateULID(),
		Sender: domain.SenderAssistant,
		Text:   reply,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// A reset while the assistant was answering discards the reply.
	if s.id == conversationID {
		s.messages = append(s.messages, msg)
	}
	return &msg, nil
}

// Reset starts a fresh conversation with a new builder, so the next request
// carries the workout summary again.
func (s *ChatService) Reset() Conversation {
	s.mu.Lock()
	s.reset()
	s.mu.Unlock()
	return s.Current()
}

// SaveCurrent snapshots the open conversation into the chat log.
func (s *ChatService) SaveCurrent(ctx context.Context) (*domain.ChatTranscript, error) {
	s.mu.Lock()
	messages := append([]domain.ChatMessage(nil), s.messages...)
	s.mu.Unlock()

	return s.logs.Save(ctx, messages)
}

func (s *ChatService) reset() {
	s.id = generateULID()
	s.builder = NewContextBuilder()
	s.messages = []domain.ChatMessage{{
		ID:     generateULID(),
		Sender: domain.SenderAssistant,
		Text:   GreetingText,
	}}
}
