package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"chatapi/internal/models"
	"chatapi/internal/services"
)

// Backing stores selectable via the history endpoint's source parameter
const (
	SourceMySQL   = "mysql"
	SourceMongoDB = "mongodb"
)

// ChatHandler handles chat and history HTTP requests
type ChatHandler struct {
	chat          *services.ChatService
	sessions      *services.SessionService
	messages      *services.MessageService
	conversations *services.ConversationService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chat *services.ChatService, sessions *services.SessionService, messages *services.MessageService, conversations *services.ConversationService) *ChatHandler {
	return &ChatHandler{
		chat:          chat,
		sessions:      sessions,
		messages:      messages,
		conversations: conversations,
	}
}

// Chat processes a chat message
// POST /chat
func (h *ChatHandler) Chat(c *fiber.Ctx) error {
	var req models.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	result, err := h.chat.HandleChat(c.Context(), &req)
	if err != nil {
		var validationErr *models.ValidationError
		if errors.As(err, &validationErr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": validationErr.Error(),
			})
		}

		var providerErr *models.ProviderError
		if errors.As(err, &providerErr) {
			log.Printf("❌ Completion call failed: %v", providerErr)
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error": "Failed to generate a response",
			})
		}

		log.Printf("❌ Unexpected error in chat endpoint: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "An unexpected error occurred",
		})
	}

	return c.JSON(models.ChatResponse{
		Response: result.Response,
		Success:  true,
	})
}

// Sessions returns a user's chat sessions with message counts
// GET /chat/sessions/:email
func (h *ChatHandler) Sessions(c *fiber.Ctx) error {
	userEmail := c.Params("email")
	if userEmail == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "User email is required",
		})
	}

	sessions := h.sessions.ListWithCounts(c.Context(), userEmail)
	return c.JSON(fiber.Map{"sessions": sessions})
}

// History returns a user's conversation history from the selected store
// GET /chat/history/:email?limit=20&source=mysql&session_id=
func (h *ChatHandler) History(c *fiber.Ctx) error {
	userEmail := c.Params("email")
	if userEmail == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "User email is required",
		})
	}

	limit := c.QueryInt("limit", services.DefaultHistoryLimit)
	source := c.Query("source", SourceMySQL)
	sessionID := c.Query("session_id")

	var conversations []models.ConversationRecord
	switch source {
	case SourceMongoDB:
		conversations = h.conversations.UserConversations(c.Context(), userEmail, limit, sessionID)
	case SourceMySQL:
		conversations = h.messages.History(c.Context(), userEmail, limit)
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "source must be mysql or mongodb",
		})
	}

	return c.JSON(fiber.Map{
		"conversations": conversations,
		"source":        source,
	})
}

// DeleteConversations removes every document-store record for a user.
// Administrative operation, cross-partition.
// DELETE /chat/conversations/:email
func (h *ChatHandler) DeleteConversations(c *fiber.Ctx) error {
	userEmail := c.Params("email")
	if userEmail == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "User email is required",
		})
	}

	deleted, err := h.conversations.DeleteUserConversations(c.Context(), userEmail)
	if err != nil {
		log.Printf("❌ Failed to delete conversations for %s: %v", userEmail, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete conversations",
		})
	}

	return c.JSON(fiber.Map{"deleted": deleted})
}
