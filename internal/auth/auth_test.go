package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/username-escrow/backend/internal/models"
)

const testAddr = "0:0101010101010101010101010101010101010101010101010101010101010101"

func TestJWT_RoundTrip(t *testing.T) {
	token, err := GenerateJWT("secret", testAddr, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	claims, err := ParseJWT("secret", token)
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if claims.Address != testAddr {
		t.Errorf("address = %q, want %q", claims.Address, testAddr)
	}
	if claims.Subject != testAddr {
		t.Errorf("subject = %q, want %q", claims.Subject, testAddr)
	}
}

func TestJWT_WrongSecret(t *testing.T) {
	token, _ := GenerateJWT("secret", testAddr, time.Hour)
	if _, err := ParseJWT("other", token); err == nil {
		t.Fatal("expected error for wrong secret")
	}
}

func TestJWT_Expired(t *testing.T) {
	token, _ := GenerateJWT("secret", testAddr, -time.Hour)
	// expiration <= 0 falls back to 24h
	if _, err := ParseJWT("secret", token); err != nil {
		t.Fatalf("default expiration should apply, got: %v", err)
	}
}

func TestJWT_Garbage(t *testing.T) {
	if _, err := ParseJWT("secret", "not.a.token"); err == nil {
		t.Fatal("expected error for garbage token")
	}
}

func TestContextAuthorizer(t *testing.T) {
	var a ContextAuthorizer

	tests := []struct {
		name    string
		ctx     context.Context
		address string
		ok      bool
	}{
		{"matching", WithAddress(context.Background(), testAddr), testAddr, true},
		{"no session", context.Background(), testAddr, false},
		{"other address", WithAddress(context.Background(), "0:ff"), testAddr, false},
		{"empty asserted", WithAddress(context.Background(), testAddr), "", false},
		{"empty session", WithAddress(context.Background(), ""), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := a.Require(tt.ctx, tt.address)
			if tt.ok && err != nil {
				t.Fatalf("expected success, got %v", err)
			}
			if !tt.ok && !errors.Is(err, models.ErrUnauthorized) {
				t.Fatalf("err = %v, want ErrUnauthorized", err)
			}
		})
	}
}

func TestGenerateNonce(t *testing.T) {
	a, b := generateNonce(32), generateNonce(32)
	if len(a) != 64 {
		t.Errorf("nonce length = %d, want 64", len(a))
	}
	if a == b {
		t.Error("nonces must differ")
	}
}
