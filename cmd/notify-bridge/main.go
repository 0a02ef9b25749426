package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/username-escrow/backend/internal/config"
	"github.com/username-escrow/backend/internal/db"
	"github.com/username-escrow/backend/internal/events"
	"github.com/username-escrow/backend/internal/notify"
	"go.uber.org/zap"
)

// Notify bridge: subscribes to ledger events in Redis and forwards them to
// RabbitMQ and/or an HTTP webhook.

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	var sinks []notify.Sink
	if cfg.AMQPURL != "" {
		amqpPub, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPQueue, log)
		if err != nil {
			log.Fatal("failed to connect to rabbitmq", zap.Error(err))
		}
		defer amqpPub.Close()
		sinks = append(sinks, notify.Sink{Name: "amqp", Publisher: amqpPub})
	}
	if cfg.NotifyWebhookURL != "" {
		sinks = append(sinks, notify.Sink{
			Name:      "webhook",
			Publisher: notify.NewWebhookClient(cfg.NotifyWebhookURL, cfg.NotifyTimeout, log),
		})
	}
	if len(sinks) == 0 {
		log.Fatal("nothing to forward to: set AMQP_URL and/or NOTIFY_WEBHOOK_URL")
	}

	bridge := notify.NewBridge(log, sinks...)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down notify-bridge")
		cancel()
	}()

	log.Info("notify-bridge started", zap.Int("sinks", len(sinks)))
	if err := bridge.Run(ctx, events.NewRedisSubscriber(rdb, log)); err != nil {
		log.Fatal("failed to subscribe to ledger events", zap.Error(err))
	}
}
