package router

import (
	"time"

	"chatter-service/config"
	"chatter-service/controller"
	"chatter-service/metrics"
	"chatter-service/middleware"
	"chatter-service/relay"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func Rest(app *fiber.App, hub *relay.Relay) {
	app.Get("/", controller.Health)
	app.Get("/metrics", metrics.Handler())

	api := app.Group("/v1", logger.New())

	// Auth
	auth := api.Group("/auth")
	auth.Get("/ping", controller.Health)
	auth.Post("/signup", authLimiter(), controller.AuthSignup)
	auth.Post("/login", authLimiter(), controller.AuthLogin)
	auth.Post("/logout", controller.AuthLogout)
	auth.Post("/forgot-password", authLimiter(), controller.AuthForgotPassword)
	auth.Get("/check", middleware.JWT(), middleware.OTP(), controller.AuthCheck)
	auth.Put("/update-profile", middleware.JWT(), middleware.OTP(), controller.AuthUpdateProfile)
	auth.Post("/token/renew", controller.AuthTokenRenew)
	auth.Post("/2fa/secret", middleware.JWT(), middleware.OTP(), controller.AuthOtpSecret)
	auth.Post("/2fa/verify", middleware.JWT(), middleware.OTP(), controller.AuthOtpVerify)
	auth.Post("/2fa/validate", middleware.JWT(), controller.AuthOtpValidate)
	auth.Post("/2fa/disable", middleware.JWT(), middleware.OTP(), controller.AuthOtpDisable)

	// Messenger
	messenger := api.Group("/messenger")
	messenger.Get("/image/:id", controller.MessengerMessageImage)

	api.Get("/users", middleware.JWT(), middleware.OTP(), controller.MessengerUsers)

	conversations := api.Group("/conversations", middleware.JWT(), middleware.OTP())
	conversations.Get("/:id/messages", controller.MessengerConversation)
	conversations.Post("/:id/messages", controller.MessengerSend)

	// Admin
	admin := api.Group("/admin", middleware.JWT(), middleware.OTP(), middleware.RBAC())
	admin.Get("/presence", controller.AdminPresence(hub))
}

func authLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        config.Int("AUTH_RATE_MAX", 20),
		Expiration: config.Duration("AUTH_RATE_WINDOW", time.Minute),
	})
}
