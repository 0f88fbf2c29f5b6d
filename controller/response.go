package controller

import (
	"chatter-service/config"
	"chatter-service/media"
	"chatter-service/model"

	"github.com/gofiber/fiber/v2"
)

var (
	// Media receives profile pictures and message images.
	Media media.Store
	// Images serves uploads kept by the database media store.
	Images *media.Database
)

func success(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(fiber.Map{
		"status":  "success",
		"message": nil,
		"data":    data,
	})
}

func failure(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"status":  "error",
		"message": message,
		"data":    nil,
	})
}

func internalError(c *fiber.Ctx) error {
	return failure(c, fiber.StatusInternalServerError, "Internal server error")
}

func mediaMaxBytes() int64 {
	return int64(config.Int("MEDIA_MAX_BYTES", 5<<20))
}

func userProfile(user *model.User) fiber.Map {
	return fiber.Map{
		"id":          model.FormatID(user.ID),
		"created":     user.CreatedAt.Unix(),
		"email":       user.Email,
		"full_name":   user.FullName,
		"profile_pic": user.ProfilePic,
		"role":        user.Role,
		"otp":         user.OtpEnabled,
	}
}
