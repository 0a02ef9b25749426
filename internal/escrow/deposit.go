package escrow

import (
	"context"
	"fmt"

	"github.com/username-escrow/backend/internal/events"
	"github.com/username-escrow/backend/internal/store"
	"go.uber.org/zap"
)

// Deposit is value that arrived from outside the ledger, e.g. an on-chain
// transfer to the hot wallet.
type Deposit struct {
	Ref    string `json:"ref"` // external reference (tx hash/lt), used for deduplication
	To     string `json:"to"`
	Token  string `json:"token"`
	Amount int64  `json:"amount"`
}

// CreditDeposit credits d.To once per d.Ref. Repeated calls with the same Ref
// return false and change nothing.
func (e *Escrow) CreditDeposit(ctx context.Context, d Deposit) (bool, error) {
	if d.Ref == "" {
		return false, fmt.Errorf("deposit without reference")
	}

	var credited bool
	err := e.store.Update(ctx, func(tx store.Tx) error {
		credited = false

		refKey := store.NewKey(store.NSDeposit, d.Ref)
		seen, err := tx.Has(ctx, refKey)
		if err != nil || seen {
			return err
		}
		if err := e.ledger.Deposit(ctx, tx, d.To, d.Token, d.Amount); err != nil {
			return transferError(err)
		}
		if err := tx.Set(ctx, refKey, d); err != nil {
			return err
		}
		credited = true
		return nil
	})
	if err != nil || !credited {
		return false, err
	}

	events.Notify(ctx, e.publisher, e.log, events.Event{
		Type: events.EventDepositReceived,
		Payload: map[string]any{
			"address": d.To,
			"token":   d.Token,
			"amount":  d.Amount,
			"ref":     d.Ref,
		},
	})

	e.log.Info("deposit credited",
		zap.String("ref", d.Ref),
		zap.String("to", d.To),
		zap.String("token", d.Token),
		zap.Int64("amount", d.Amount),
	)
	return true, nil
}
