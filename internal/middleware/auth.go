package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/username-escrow/backend/internal/auth"
	"github.com/username-escrow/backend/internal/config"
	"go.uber.org/zap"
)

const CtxAddress = "address"

// AuthMiddleware validates the bearer JWT and binds its wallet address to the
// request; services read it back through auth.ContextAuthorizer.
func AuthMiddleware(cfg *config.Config, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing authorization header"})
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenStr == authHeader {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid authorization format"})
		}

		claims, err := auth.ParseJWT(cfg.JWTSecret, tokenStr)
		if err != nil {
			log.Debug("jwt parse error", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid or expired token"})
		}

		c.Locals(CtxAddress, claims.Address)
		c.SetUserContext(auth.WithAddress(c.UserContext(), claims.Address))

		return c.Next()
	}
}

func GetAddress(c *fiber.Ctx) string {
	addr, _ := c.Locals(CtxAddress).(string)
	return addr
}
