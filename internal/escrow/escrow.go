// Package escrow locks funds addressed to a username and releases them once
// to the address that owns the username at claim time.
package escrow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/username-escrow/backend/internal/auth"
	"github.com/username-escrow/backend/internal/events"
	"github.com/username-escrow/backend/internal/models"
	"github.com/username-escrow/backend/internal/registry"
	"github.com/username-escrow/backend/internal/store"
	"github.com/username-escrow/backend/internal/tokens"
	"go.uber.org/zap"
)

const paymentSequence = "payment"

type Escrow struct {
	store     store.Store
	ledger    *tokens.Ledger
	authz     auth.Authorizer
	publisher events.Publisher
	custody   string
	log       *zap.Logger
	now       func() time.Time
}

// New builds the escrow. custody is the ledger account holding locked funds.
func New(
	st store.Store,
	ledger *tokens.Ledger,
	authz auth.Authorizer,
	publisher events.Publisher,
	custody string,
	log *zap.Logger,
) *Escrow {
	return &Escrow{
		store:     st,
		ledger:    ledger,
		authz:     authz,
		publisher: publisher,
		custody:   custody,
		log:       log,
		now:       time.Now,
	}
}

type CreatePaymentInput struct {
	Sender            string
	RecipientUsername string
	Token             string
	Amount            int64
	Message           string
}

// CreatePayment debits the sender into custody and records the payment. The
// recipient username does not have to be registered yet.
func (e *Escrow) CreatePayment(ctx context.Context, in CreatePaymentInput) (uint64, error) {
	if err := e.authz.Require(ctx, in.Sender); err != nil {
		return 0, err
	}
	if in.Amount <= 0 {
		return 0, fmt.Errorf("%w: %d", models.ErrInvalidAmount, in.Amount)
	}
	if err := models.ValidateUsername(in.RecipientUsername); err != nil {
		return 0, err
	}
	if err := models.ValidateMessage(in.Message); err != nil {
		return 0, err
	}

	var payment models.Payment
	err := e.store.Update(ctx, func(tx store.Tx) error {
		if err := e.ledger.Transfer(ctx, tx, in.Sender, e.custody, in.Token, in.Amount); err != nil {
			return transferError(err)
		}

		id, err := store.NextSequence(ctx, tx, paymentSequence)
		if err != nil {
			return err
		}

		payment = models.Payment{
			ID:                id,
			RecipientUsername: in.RecipientUsername,
			Sender:            in.Sender,
			Token:             in.Token,
			Amount:            in.Amount,
			Message:           in.Message,
			CreatedAt:         e.now().UTC(),
		}
		if err := tx.Set(ctx, store.Uint64Key(store.NSPayment, id), payment); err != nil {
			return err
		}

		indexKey := store.NewKey(store.NSUserPayments, in.RecipientUsername)
		var ids []uint64
		if _, err := tx.Get(ctx, indexKey, &ids); err != nil {
			return err
		}
		return tx.Set(ctx, indexKey, append(ids, id))
	})
	if err != nil {
		return 0, err
	}

	events.Notify(ctx, e.publisher, e.log, events.Event{
		Type: events.EventPaymentCreated,
		Payload: map[string]any{
			"payment_id":         payment.ID,
			"amount":             payment.Amount,
			"token":              payment.Token,
			"recipient_username": payment.RecipientUsername,
		},
	})

	e.log.Info("payment created",
		zap.Uint64("payment_id", payment.ID),
		zap.String("recipient", payment.RecipientUsername),
		zap.String("token", payment.Token),
		zap.Int64("amount", payment.Amount),
	)

	return payment.ID, nil
}

// ClaimPayment releases a payment to recipient, who must own the payment's
// username right now. Unknown or already claimed payments are a silent no-op;
// the returned bool reports whether funds were disbursed.
func (e *Escrow) ClaimPayment(ctx context.Context, recipient string, paymentID uint64) (bool, error) {
	if err := e.authz.Require(ctx, recipient); err != nil {
		return false, err
	}

	var claimed *models.Payment
	err := e.store.Update(ctx, func(tx store.Tx) error {
		claimed = nil

		key := store.Uint64Key(store.NSPayment, paymentID)
		var p models.Payment
		found, err := tx.Get(ctx, key, &p)
		if err != nil {
			return err
		}
		if !found || !p.IsClaimable() {
			return nil
		}

		owner, err := registry.LookupProfile(ctx, tx, p.RecipientUsername)
		if err != nil {
			return err
		}
		if owner == nil || owner.Address != recipient {
			return models.ErrNotRecipient
		}

		if err := e.ledger.Transfer(ctx, tx, e.custody, recipient, p.Token, p.Amount); err != nil {
			return transferError(err)
		}

		now := e.now().UTC()
		p.Claimed = true
		p.ClaimedAt = &now
		p.ClaimedBy = &recipient
		if err := tx.Set(ctx, key, p); err != nil {
			return err
		}
		claimed = &p
		return nil
	})
	if err != nil {
		return false, err
	}

	if claimed == nil {
		e.log.Debug("claim ignored: payment missing or already claimed", zap.Uint64("payment_id", paymentID))
		return false, nil
	}

	events.Notify(ctx, e.publisher, e.log, events.Event{
		Type:    events.EventPaymentClaimed,
		Payload: map[string]any{"payment_id": claimed.ID},
	})

	e.log.Info("payment claimed",
		zap.Uint64("payment_id", claimed.ID),
		zap.String("recipient", recipient),
		zap.Int64("amount", claimed.Amount),
	)

	return true, nil
}

// Payment returns nil when the id is unknown.
func (e *Escrow) Payment(ctx context.Context, paymentID uint64) (*models.Payment, error) {
	var payment *models.Payment
	err := e.store.View(ctx, func(tx store.Tx) error {
		var p models.Payment
		found, err := tx.Get(ctx, store.Uint64Key(store.NSPayment, paymentID), &p)
		if err != nil || !found {
			return err
		}
		payment = &p
		return nil
	})
	return payment, err
}

// UserPayments lists payment ids addressed to username in creation order.
func (e *Escrow) UserPayments(ctx context.Context, username string) ([]uint64, error) {
	ids := []uint64{}
	err := e.store.View(ctx, func(tx store.Tx) error {
		_, err := tx.Get(ctx, store.NewKey(store.NSUserPayments, username), &ids)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// PaymentsFor resolves the username index to full payment records.
func (e *Escrow) PaymentsFor(ctx context.Context, username string) ([]models.Payment, error) {
	payments := []models.Payment{}
	err := e.store.View(ctx, func(tx store.Tx) error {
		var ids []uint64
		if _, err := tx.Get(ctx, store.NewKey(store.NSUserPayments, username), &ids); err != nil {
			return err
		}
		for _, id := range ids {
			var p models.Payment
			found, err := tx.Get(ctx, store.Uint64Key(store.NSPayment, id), &p)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("payment %d listed for %s is missing", id, username)
			}
			payments = append(payments, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payments, nil
}

// Balance returns the ledger balance of account in token.
func (e *Escrow) Balance(ctx context.Context, account, token string) (int64, error) {
	var bal int64
	err := e.store.View(ctx, func(tx store.Tx) error {
		var err error
		bal, err = e.ledger.Balance(ctx, tx, account, token)
		return err
	})
	if errors.Is(err, tokens.ErrUnknownToken) {
		return 0, fmt.Errorf("%w: %w", models.ErrNotFound, err)
	}
	return bal, err
}

func transferError(err error) error {
	switch {
	case errors.Is(err, tokens.ErrInsufficientFunds),
		errors.Is(err, tokens.ErrUnknownToken),
		errors.Is(err, tokens.ErrNonPositiveAmount),
		errors.Is(err, tokens.ErrBalanceOverflow):
		return fmt.Errorf("%w: %w", models.ErrTransferFailed, err)
	}
	return err
}
