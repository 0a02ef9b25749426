// Package notify forwards ledger events from Redis pub/sub to durable or
// external sinks (RabbitMQ queue, HTTP webhook).
package notify

import (
	"context"
	"errors"

	"github.com/username-escrow/backend/internal/events"
	"go.uber.org/zap"
)

type Sink struct {
	Name      string
	Publisher events.Publisher
}

type Bridge struct {
	sinks []Sink
	log   *zap.Logger
}

func NewBridge(log *zap.Logger, sinks ...Sink) *Bridge {
	return &Bridge{sinks: sinks, log: log}
}

// Forward delivers event to every sink. A failing sink does not stop the
// others; all failures are returned joined.
func (b *Bridge) Forward(ctx context.Context, event events.Event) error {
	var errs []error
	for _, s := range b.sinks {
		if err := s.Publisher.Publish(ctx, events.ChannelLedger, event); err != nil {
			b.log.Warn("failed to forward event",
				zap.String("sink", s.Name),
				zap.String("type", event.Type),
				zap.Error(err),
			)
			errs = append(errs, err)
			continue
		}
		b.log.Debug("event forwarded", zap.String("sink", s.Name), zap.String("type", event.Type))
	}
	return errors.Join(errs...)
}

// Run subscribes to the ledger channel and forwards until ctx is done.
func (b *Bridge) Run(ctx context.Context, sub events.Subscriber) error {
	if err := sub.Subscribe(ctx, events.ChannelLedger, func(event events.Event) {
		_ = b.Forward(ctx, event)
	}); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}
