package handlers

import (
	"github.com/gofiber/fiber/v2"

	"chatapi/internal/database"
)

// HealthHandler reports service and store health
type HealthHandler struct {
	db      *database.DB
	mongoDB *database.MongoDB
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *database.DB, mongoDB *database.MongoDB) *HealthHandler {
	return &HealthHandler{db: db, mongoDB: mongoDB}
}

// Handle returns the health status
// GET /health
func (h *HealthHandler) Handle(c *fiber.Ctx) error {
	status := fiber.Map{
		"status":  "healthy",
		"service": "chatbot-api",
	}

	if err := h.db.PingContext(c.Context()); err != nil {
		status["status"] = "degraded"
		status["mysql"] = "unreachable"
	}
	if err := h.mongoDB.Ping(c.Context()); err != nil {
		status["status"] = "degraded"
		status["mongodb"] = "unreachable"
	}

	return c.JSON(status)
}
