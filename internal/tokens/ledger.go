// Package tokens moves fungible token balances between accounts. All
// movements happen inside the caller's store transaction, so a transfer and
// the records written next to it commit or roll back together.
package tokens

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/username-escrow/backend/internal/store"
)

var (
	ErrUnknownToken      = errors.New("unknown token")
	ErrInsufficientFunds = errors.New("insufficient balance")
	ErrNonPositiveAmount = errors.New("amount must be positive")
	ErrBalanceOverflow   = errors.New("balance overflow")
)

type Ledger struct {
	tokens map[string]struct{}
}

func NewLedger(supported []string) *Ledger {
	l := &Ledger{tokens: make(map[string]struct{}, len(supported))}
	for _, t := range supported {
		l.tokens[t] = struct{}{}
	}
	return l
}

func (l *Ledger) IsSupported(token string) bool {
	_, ok := l.tokens[token]
	return ok
}

// Transfer moves amount of token from one account to another.
func (l *Ledger) Transfer(ctx context.Context, tx store.Tx, from, to, token string, amount int64) error {
	if err := l.check(token, amount); err != nil {
		return err
	}

	fromBal, err := l.balance(ctx, tx, token, from)
	if err != nil {
		return err
	}
	if fromBal < amount {
		return fmt.Errorf("%w: %s has %d %s, needs %d", ErrInsufficientFunds, from, fromBal, token, amount)
	}

	if from == to {
		return nil
	}

	toBal, err := l.balance(ctx, tx, token, to)
	if err != nil {
		return err
	}
	if toBal > math.MaxInt64-amount {
		return ErrBalanceOverflow
	}

	if err := tx.Set(ctx, balanceKey(token, from), fromBal-amount); err != nil {
		return err
	}
	return tx.Set(ctx, balanceKey(token, to), toBal+amount)
}

// Deposit credits an account with value arriving from outside the ledger.
func (l *Ledger) Deposit(ctx context.Context, tx store.Tx, to, token string, amount int64) error {
	if err := l.check(token, amount); err != nil {
		return err
	}

	bal, err := l.balance(ctx, tx, token, to)
	if err != nil {
		return err
	}
	if bal > math.MaxInt64-amount {
		return ErrBalanceOverflow
	}
	return tx.Set(ctx, balanceKey(token, to), bal+amount)
}

func (l *Ledger) Balance(ctx context.Context, tx store.Tx, account, token string) (int64, error) {
	if !l.IsSupported(token) {
		return 0, fmt.Errorf("%w: %s", ErrUnknownToken, token)
	}
	return l.balance(ctx, tx, token, account)
}

func (l *Ledger) check(token string, amount int64) error {
	if !l.IsSupported(token) {
		return fmt.Errorf("%w: %s", ErrUnknownToken, token)
	}
	if amount <= 0 {
		return ErrNonPositiveAmount
	}
	return nil
}

func (l *Ledger) balance(ctx context.Context, tx store.Tx, token, account string) (int64, error) {
	var bal int64
	if _, err := tx.Get(ctx, balanceKey(token, account), &bal); err != nil {
		return 0, err
	}
	return bal, nil
}

func balanceKey(token, account string) store.Key {
	return store.NewKey(store.NSBalance, token+"/"+account)
}
