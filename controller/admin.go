package controller

import (
	"chatter-service/relay"

	"github.com/gofiber/fiber/v2"
)

// AdminPresence reports the relay's online set.
func AdminPresence(hub *relay.Relay) fiber.Handler {
	return func(c *fiber.Ctx) error {
		online := hub.Online()
		return success(c, fiber.StatusOK, fiber.Map{
			"online": online,
			"count":  len(online),
		})
	}
}

func Health(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"message": "pong",
		"data":    nil,
	})
}
