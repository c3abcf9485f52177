package middleware

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"chatapi/pkg/auth"
)

// Auth verifies bearer tokens against the configured issuer's key set.
// Verified identity is stored in the request context as user_email / user_id.
func Auth(verifier *auth.Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := auth.ExtractToken(c.Get("Authorization"))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing or invalid authorization token",
			})
		}

		claims, err := verifier.Verify(token)
		if err != nil {
			log.Printf("❌ Auth failed: %v", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		c.Locals("user_id", claims.Subject)
		c.Locals("user_email", claims.Email)

		return c.Next()
	}
}
