package models

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		valid    bool
	}{
		{"simple", "alice", true},
		{"with digits", "bob_42", true},
		{"min length", "abc", true},
		{"max length", strings.Repeat("a", MaxUsernameLength), true},
		{"mixed case", "Alice_B", true},
		{"too short", "ab", false},
		{"too long", strings.Repeat("a", MaxUsernameLength+1), false},
		{"empty", "", false},
		{"space", "alice bob", false},
		{"dash", "alice-bob", false},
		{"unicode", "алиса", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.valid && err != nil {
				t.Fatalf("expected valid, got error: %v", err)
			}
			if !tt.valid {
				if err == nil {
					t.Fatal("expected error for invalid username")
				}
				if !errors.Is(err, ErrInvalidUsername) {
					t.Errorf("error = %v, want ErrInvalidUsername", err)
				}
			}
		})
	}
}

func TestValidateMessage(t *testing.T) {
	if err := ValidateMessage(""); err != nil {
		t.Errorf("empty message: %v", err)
	}
	if err := ValidateMessage(strings.Repeat("ж", MaxMessageLength)); err != nil {
		t.Errorf("message at limit (multibyte): %v", err)
	}
	if err := ValidateMessage(strings.Repeat("x", MaxMessageLength+1)); !errors.Is(err, ErrMessageTooLong) {
		t.Errorf("error = %v, want ErrMessageTooLong", err)
	}
}

func TestErrNotRecipientIsUnauthorized(t *testing.T) {
	if !errors.Is(ErrNotRecipient, ErrUnauthorized) {
		t.Fatal("ErrNotRecipient must wrap ErrUnauthorized")
	}
	if errors.Is(ErrUnauthorized, ErrNotRecipient) {
		t.Fatal("ErrUnauthorized must not match ErrNotRecipient")
	}
}

func TestPaymentIsClaimable(t *testing.T) {
	var nilPayment *Payment
	if nilPayment.IsClaimable() {
		t.Error("nil payment must not be claimable")
	}
	p := &Payment{ID: 1, Amount: 100}
	if !p.IsClaimable() {
		t.Error("fresh payment must be claimable")
	}
	p.Claimed = true
	if p.IsClaimable() {
		t.Error("claimed payment must not be claimable")
	}
}
