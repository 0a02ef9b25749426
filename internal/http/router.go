package http

import (
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/username-escrow/backend/internal/config"
	"github.com/username-escrow/backend/internal/http/handlers"
	"github.com/username-escrow/backend/internal/middleware"
	"go.uber.org/zap"
)

// SetupRouter wires every route. rdb may be nil, which disables rate limiting.
func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	paymentHandler *handlers.PaymentHandler,
	wsHub *handlers.WSHub,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")

	// Лимит вешается на каждый маршрут, чтобы ключом был шаблон маршрута
	limited := func(h fiber.Handler) []fiber.Handler {
		if rdb == nil {
			return []fiber.Handler{h}
		}
		return []fiber.Handler{middleware.RateLimitMiddleware(rdb, cfg.RateLimitPerMinute, time.Minute), h}
	}

	// Auth (public)
	api.Post("/auth/ton-proof/payload", limited(authHandler.ProofPayload)...)
	api.Post("/auth/ton-proof", limited(authHandler.TonProofLogin)...)

	// Meta
	metaHandler := handlers.NewMetaHandler(cfg)
	api.Get("/meta/tokens", limited(metaHandler.GetTokens)...)

	// Public reads
	api.Get("/users/:username", limited(userHandler.GetProfile)...)
	api.Get("/users/:username/available", limited(userHandler.CheckUsername)...)
	api.Get("/users/:username/payments", limited(paymentHandler.ListUserPayments)...)
	api.Get("/addresses/:address/username", limited(userHandler.GetUsernameByAddress)...)
	api.Get("/payments/:id", limited(paymentHandler.GetPayment)...)

	// Protected endpoints
	protected := api.Group("", middleware.AuthMiddleware(cfg, log))

	protected.Get("/me", limited(userHandler.GetMe)...)
	protected.Get("/me/balances", limited(userHandler.GetBalances)...)
	protected.Post("/users", limited(userHandler.Register)...)
	protected.Post("/payments", limited(paymentHandler.CreatePayment)...)
	protected.Post("/payments/:id/claim", limited(paymentHandler.ClaimPayment)...)

	// WebSocket
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws", websocket.New(wsHub.HandleWS))
}
