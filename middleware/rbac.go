package middleware

import (
	"chatter-service/database"

	"github.com/gofiber/fiber/v2"
)

func RBAC() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if database.Enforcer == nil {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"status":  "error",
				"message": "Unauthorized",
				"data":    nil,
			})
		}

		// Casbin enforces policy
		accepted, err := database.Enforcer.Enforce(UserID(c), c.Path(), c.Method())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"status":  "error",
				"message": "Internal server error",
				"data":    nil,
			})
		}

		if !accepted {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"status":  "error",
				"message": "Unauthorized",
				"data":    nil,
			})
		}

		return c.Next()
	}
}
