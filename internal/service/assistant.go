package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mansoorceksport/workout-assistant/internal/domain"
	"github.com/sirupsen/logrus"
)

// Literal replies shown to the user when the assistant cannot answer.
const (
	FallbackNoReply        = "No reply received."
	FallbackTransportError = "Error communicating with the server."
)

// OpenRouterAssistant implements domain.AssistantClient against an
// OpenAI-compatible chat-completions endpoint (OpenAI, OpenRouter).
type OpenRouterAssistant struct {
	endpoint     string
	apiKey       string
	model        string
	systemPrompt string
	httpClient   *http.Client
}

var _ domain.AssistantClient = (*OpenRouterAssistant)(nil)

// NewOpenRouterAssistant creates a new chat-completions client
func NewOpenRouterAssistant(endpoint, apiKey, model, systemPrompt string, timeout time.Duration) *OpenRouterAssistant {
	return &OpenRouterAssistant{
		endpoint:     endpoint,
		apiKey:       apiKey,
		model:        model,
		systemPrompt: systemPrompt,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

type completionMessage struct {
	Role    domain.Role `json:"role"`
	Content string      `json:"content"`
}

// Reply sends the trainer system prompt, the assembled history and the
// pending user message. It returns "" with a nil error when the model sent
// no choices.
func (a *OpenRouterAssistant) Reply(ctx context.Context, req domain.ChatRequest) (string, error) {
	messages := make([]completionMessage, 0, len(req.History)+2)
	messages = append(messages, completionMessage{Role: domain.RoleSystem, Content: a.systemPrompt})
	for _, h := range req.History {
		messages = append(messages, completionMessage{Role: h.Role, Content: h.Content})
	}
	messages = append(messages, completionMessage{Role: domain.RoleUser, Content: req.Message})

	payload, err := json.Marshal(map[string]interface{}{
		"model":    a.model,
		"messages": messages,
	})
	if err != nil {
		return "", fmt.Errorf("%w: failed to marshal request: %v", domain.ErrTransport, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: failed to create request: %v", domain.ErrTransport, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+a.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Title", "Workout Assistant")

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: failed to send request: %v", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read response: %v", domain.ErrTransport, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: api error (status %d): %s", domain.ErrTransport, resp.StatusCode, string(body))
	}

	var apiResponse struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Error *struct {
			Message string `json:"message"`
			Code    int    `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &apiResponse); err != nil {
		return "", fmt.Errorf("%w: failed to parse response: %v", domain.ErrTransport, err)
	}

	if apiResponse.Error != nil {
		return "", fmt.Errorf("%w: %s (code: %d)", domain.ErrTransport, apiResponse.Error.Message, apiResponse.Error.Code)
	}

	if len(apiResponse.Choices) == 0 {
		return "", nil
	}
	return apiResponse.Choices[0].Message.Content, nil
}

// ReplyOrFallback calls the assistant and never fails: transport errors and
// empty replies are replaced by the literal fallback texts.
func ReplyOrFallback(ctx context.Context, client domain.AssistantClient, req domain.ChatRequest) string {
	if client == nil {
		return FallbackTransportError
	}
	reply, err := client.Reply(ctx, req)
	if err != nil {
		logrus.WithError(err).Warn("assistant call failed")
		return FallbackTransportError
	}
	if strings.TrimSpace(reply) == "" {
		return FallbackNoReply
	}
	return reply
}
