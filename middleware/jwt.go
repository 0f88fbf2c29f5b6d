package middleware

import (
	"strings"

	"chatter-service/config"

	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// AuthCookie carries the access token for browser clients.
const AuthCookie = "jwt"

// JWT accepts the access token as a bearer header or the auth cookie.
func JWT() fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{
			JWTAlg: "HS512",
			Key:    []byte(config.Config("JWT_ACCESS_KEY")),
		},
		TokenLookup: "header:Authorization,cookie:" + AuthCookie,
		AuthScheme:  "Bearer",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if strings.EqualFold(err.Error(), "missing or malformed JWT") {
				return c.Status(fiber.StatusUnauthorized).
					JSON(fiber.Map{
						"status":  "error",
						"message": "Unauthorized - No Token provided",
						"data":    nil,
					})
			}
			return c.Status(fiber.StatusUnauthorized).
				JSON(fiber.Map{
					"status":  "error",
					"message": "Unauthorized - Invalid token",
					"data":    nil,
				})
		},
	})
}

// OTP rejects tokens issued before the second factor was validated.
func OTP() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if claims := Claims(c); claims["otp"] == true {
			return c.Status(fiber.StatusBadRequest).
				JSON(fiber.Map{
					"status":  "error",
					"message": "2FA required",
					"data":    nil,
				})
		}

		return c.Next()
	}
}

// Claims returns the verified token claims set by JWT.
func Claims(c *fiber.Ctx) jwt.MapClaims {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return jwt.MapClaims{}
	}
	claims, _ := token.Claims.(jwt.MapClaims)
	return claims
}

// UserID is the authenticated user's id claim.
func UserID(c *fiber.Ctx) string {
	id, _ := Claims(c)["id"].(string)
	return id
}
