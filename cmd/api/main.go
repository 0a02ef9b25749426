package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/username-escrow/backend/internal/auth"
	"github.com/username-escrow/backend/internal/config"
	"github.com/username-escrow/backend/internal/db"
	"github.com/username-escrow/backend/internal/escrow"
	"github.com/username-escrow/backend/internal/events"
	apphttp "github.com/username-escrow/backend/internal/http"
	"github.com/username-escrow/backend/internal/http/handlers"
	"github.com/username-escrow/backend/internal/registry"
	"github.com/username-escrow/backend/internal/services"
	"github.com/username-escrow/backend/internal/store"
	"github.com/username-escrow/backend/internal/tokens"
	"github.com/username-escrow/backend/internal/ton"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage
	var st store.Store
	switch cfg.StoreBackend {
	case config.StoreBackendMemory:
		log.Warn("using in-memory store, state is lost on restart")
		st = store.NewMemoryStore()
	default:
		pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
		if err != nil {
			log.Fatal("failed to connect to postgres", zap.Error(err))
		}
		defer pool.Close()

		if err := db.RunMigrations(ctx, pool, cfg.MigrationsDir, log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
		st = store.NewPostgresStore(pool, log)
	}

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Events
	publisher := events.NewRedisPublisher(rdb, log)
	subscriber := events.NewRedisSubscriber(rdb, log)

	// Services
	authz := auth.ContextAuthorizer{}
	ledger := tokens.NewLedger(cfg.SupportedTokens)
	reg := registry.New(st, authz, publisher, log)
	esc := escrow.New(st, ledger, authz, publisher, cfg.EscrowAccount, log)
	sessions := services.NewSessionService(auth.NewRedisNonceStore(rdb), walletKeys(ctx, cfg, log), cfg, log)

	// Handlers
	authHandler := handlers.NewAuthHandler(sessions, log)
	userHandler := handlers.NewUserHandler(reg, esc, cfg, log)
	paymentHandler := handlers.NewPaymentHandler(esc, log)
	wsHub := handlers.NewWSHub(cfg, subscriber, log)

	if err := wsHub.Start(ctx); err != nil {
		log.Fatal("failed to subscribe to ledger events", zap.Error(err))
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb, authHandler, userHandler, paymentHandler, wsHub)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server",
		zap.String("addr", addr),
		zap.String("store", cfg.StoreBackend),
		zap.Strings("tokens", cfg.SupportedTokens),
	)
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}

// walletKeys connects to the TON network for get_public_key lookups on
// deployed wallets. Without it logins must carry state_init.
func walletKeys(ctx context.Context, cfg *config.Config, log *zap.Logger) services.KeyResolver {
	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	api, err := ton.Connect(connectCtx, ton.LiteServerConfig{
		Network: cfg.TONNetwork,
		Host:    cfg.LiteServerHost,
		Port:    cfg.LiteServerPort,
		Key:     cfg.LiteServerKey,
	}, log)
	if err != nil {
		log.Warn("TON network unavailable, wallet key lookup disabled", zap.Error(err))
		return nil
	}
	return ton.NewChainKeys(api)
}
