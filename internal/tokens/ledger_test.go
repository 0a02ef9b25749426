package tokens

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/username-escrow/backend/internal/store"
)

func setup(t *testing.T) (*Ledger, *store.MemoryStore) {
	t.Helper()
	return NewLedger([]string{"TON", "USDT"}), store.NewMemoryStore()
}

func balanceOf(t *testing.T, l *Ledger, s store.Store, account, token string) int64 {
	t.Helper()
	var bal int64
	err := s.View(context.Background(), func(tx store.Tx) error {
		var err error
		bal, err = l.Balance(context.Background(), tx, account, token)
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	return bal
}

func TestLedger_DepositAndTransfer(t *testing.T) {
	ctx := context.Background()
	l, s := setup(t)

	err := s.Update(ctx, func(tx store.Tx) error {
		if err := l.Deposit(ctx, tx, "alice", "TON", 500); err != nil {
			return err
		}
		return l.Transfer(ctx, tx, "alice", "bob", "TON", 200)
	})
	if err != nil {
		t.Fatal(err)
	}

	if got := balanceOf(t, l, s, "alice", "TON"); got != 300 {
		t.Errorf("alice = %d, want 300", got)
	}
	if got := balanceOf(t, l, s, "bob", "TON"); got != 200 {
		t.Errorf("bob = %d, want 200", got)
	}
	if got := balanceOf(t, l, s, "bob", "USDT"); got != 0 {
		t.Errorf("bob USDT = %d, want 0", got)
	}
}

func TestLedger_TransferErrors(t *testing.T) {
	ctx := context.Background()
	l, s := setup(t)
	_ = s.Update(ctx, func(tx store.Tx) error {
		return l.Deposit(ctx, tx, "alice", "TON", 100)
	})

	tests := []struct {
		name   string
		token  string
		amount int64
		want   error
	}{
		{"insufficient", "TON", 101, ErrInsufficientFunds},
		{"unknown token", "BTC", 1, ErrUnknownToken},
		{"zero", "TON", 0, ErrNonPositiveAmount},
		{"negative", "TON", -5, ErrNonPositiveAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Update(ctx, func(tx store.Tx) error {
				return l.Transfer(ctx, tx, "alice", "bob", tt.token, tt.amount)
			})
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if got := balanceOf(t, l, s, "alice", "TON"); got != 100 {
				t.Errorf("alice balance changed to %d", got)
			}
		})
	}
}

func TestLedger_DepositOverflow(t *testing.T) {
	ctx := context.Background()
	l, s := setup(t)

	err := s.Update(ctx, func(tx store.Tx) error {
		if err := l.Deposit(ctx, tx, "alice", "TON", math.MaxInt64); err != nil {
			return err
		}
		return l.Deposit(ctx, tx, "alice", "TON", 1)
	})
	if !errors.Is(err, ErrBalanceOverflow) {
		t.Fatalf("err = %v, want ErrBalanceOverflow", err)
	}
}

func TestLedger_SelfTransferKeepsBalance(t *testing.T) {
	ctx := context.Background()
	l, s := setup(t)

	err := s.Update(ctx, func(tx store.Tx) error {
		if err := l.Deposit(ctx, tx, "alice", "TON", 50); err != nil {
			return err
		}
		return l.Transfer(ctx, tx, "alice", "alice", "TON", 50)
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := balanceOf(t, l, s, "alice", "TON"); got != 50 {
		t.Errorf("alice = %d, want 50", got)
	}
}
