package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/username-escrow/backend/internal/auth"
	"github.com/username-escrow/backend/internal/config"
	"github.com/username-escrow/backend/internal/db"
	"github.com/username-escrow/backend/internal/escrow"
	"github.com/username-escrow/backend/internal/events"
	"github.com/username-escrow/backend/internal/indexer"
	"github.com/username-escrow/backend/internal/store"
	"github.com/username-escrow/backend/internal/ton"
	"github.com/username-escrow/backend/internal/tokens"
	"go.uber.org/zap"
)

const pollInterval = 5 * time.Second

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.TONHotWalletAddress == "" {
		log.Fatal("TON_HOT_WALLET_ADDRESS is required")
	}
	if cfg.StoreBackend == config.StoreBackendMemory {
		log.Fatal("ton-indexer needs a shared store, STORE_BACKEND=memory is not supported")
	}

	hotWallet, err := ton.ParseAddress(cfg.TONHotWalletAddress)
	if err != nil {
		log.Fatal("invalid TON_HOT_WALLET_ADDRESS", zap.String("addr", cfg.TONHotWalletAddress), zap.Error(err))
	}

	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool, cfg.MigrationsDir, log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Deposits do not go through the per-request authorizer.
	esc := escrow.New(
		store.NewPostgresStore(pool, log),
		tokens.NewLedger(cfg.SupportedTokens),
		auth.ContextAuthorizer{},
		events.NewRedisPublisher(rdb, log),
		cfg.EscrowAccount,
		log,
	)

	tonAPI, err := ton.Connect(ctx, ton.LiteServerConfig{
		Network: cfg.TONNetwork,
		Host:    cfg.LiteServerHost,
		Port:    cfg.LiteServerPort,
		Key:     cfg.LiteServerKey,
	}, log)
	if err != nil {
		log.Fatal("failed to connect to TON network", zap.Error(err))
	}

	ix := indexer.New(tonAPI, hotWallet, esc, rdb, log)

	log.Info("TON indexer started",
		zap.String("hot_wallet", hotWallet.String()),
		zap.String("network", cfg.TONNetwork),
	)

	ix.InitCursor(ctx)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			if err := ix.Poll(ctx); err != nil {
				log.Error("poll cycle failed", zap.Error(err))
			}
		case <-sigCh:
			log.Info("shutting down TON indexer")
			cancel()
			return
		case <-ctx.Done():
			return
		}
	}
}
