package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/workout-assistant/internal/domain"
	"github.com/mansoorceksport/workout-assistant/internal/service"
	"github.com/mansoorceksport/workout-assistant/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

type ChatHandler struct {
	chat      *service.ChatService
	logs      *service.ChatLogStore
	assistant domain.AssistantClient
}

func NewChatHandler(chat *service.ChatService, logs *service.ChatLogStore, assistant domain.AssistantClient) *ChatHandler {
	return &ChatHandler{
		chat:      chat,
		logs:      logs,
		assistant: assistant,
	}
}

// --- Live conversation ---

// GetConversation GET /v1/conversation
func (h *ChatHandler) GetConversation(c *fiber.Ctx) error {
	return c.JSON(h.chat.Current())
}

// SendMessage POST /v1/conversation/messages
func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid body")
	}

	reply, err := h.chat.Send(c.UserContext(), req.Text)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"reply":        reply,
		"conversation": h.chat.Current(),
	})
}

// ResetConversation POST /v1/conversation/reset
func (h *ChatHandler) ResetConversation(c *fiber.Ctx) error {
	return c.JSON(h.chat.Reset())
}

// SaveConversation POST /v1/conversation/save
func (h *ChatHandler) SaveConversation(c *fiber.Ctx) error {
	transcript, err := h.chat.SaveCurrent(c.UserContext())
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(transcript)
}

// --- Saved transcripts ---

// ListLogs GET /v1/chat-logs
// Returns headers by default, full transcripts with ?full=true.
func (h *ChatHandler) ListLogs(c *fiber.Ctx) error {
	if c.QueryBool("full", false) {
		logs, err := h.logs.List(c.UserContext())
		if err != nil {
			return errorResponse(c, err)
		}
		return c.JSON(logs)
	}

	summaries, err := h.logs.Summaries(c.UserContext())
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(summaries)
}

// GetLog GET /v1/chat-logs/:id
func (h *ChatHandler) GetLog(c *fiber.Ctx) error {
	transcript, err := h.logs.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(transcript)
}

// DeleteLogAt DELETE /v1/chat-logs/index/:index
func (h *ChatHandler) DeleteLogAt(c *fiber.Ctx) error {
	index, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return badRequest(c, "index must be an integer")
	}
	logs, err := h.logs.DeleteAt(c.UserContext(), index)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(logs)
}

// DeleteLog DELETE /v1/chat-logs/:id
func (h *ChatHandler) DeleteLog(c *fiber.Ctx) error {
	logs, err := h.logs.DeleteByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(logs)
}

// --- Assistant proxy ---

// Chat POST /v1/chat
// Forwards {message, history} to the assistant. Always answers 200 with a
// reply; failures become the fallback text.
func (h *ChatHandler) Chat(c *fiber.Ctx) error {
	var req domain.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid body")
	}
	if req.Message == "" {
		return badRequest(c, "message is required")
	}

	reply := service.ReplyOrFallback(c.UserContext(), h.assistant, req)
	if reply == service.FallbackNoReply || reply == service.FallbackTransportError {
		telemetry.AddSpanEvent(c, "assistant.fallback", attribute.String("reply", reply))
	}
	return c.JSON(domain.ChatResponse{Reply: reply})
}
