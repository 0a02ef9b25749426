package config

import (
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("SUPPORTED_TOKENS", "")
	t.Setenv("JWT_EXPIRATION_HOURS", "")
	t.Setenv("AMQP_URL", "")
	t.Setenv("AMQP_QUEUE", "")

	cfg := Load()
	if cfg.StoreBackend != StoreBackendPostgres {
		t.Errorf("StoreBackend = %q", cfg.StoreBackend)
	}
	if !reflect.DeepEqual(cfg.SupportedTokens, []string{"TON"}) {
		t.Errorf("SupportedTokens = %v", cfg.SupportedTokens)
	}
	if cfg.JWTExpiration != 24*time.Hour {
		t.Errorf("JWTExpiration = %v", cfg.JWTExpiration)
	}
	if cfg.EscrowAccount == "" {
		t.Error("EscrowAccount must have a default")
	}
	if cfg.AMQPURL != "" || cfg.AMQPQueue != "ledger-events" {
		t.Errorf("AMQP defaults = %q/%q", cfg.AMQPURL, cfg.AMQPQueue)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("STORE_BACKEND", "Memory")
	t.Setenv("SUPPORTED_TOKENS", " TON , USDT,, ")
	t.Setenv("LITE_SERVER_PORT", "not-a-number")
	t.Setenv("TON_PROOF_ALLOWED_DOMAINS", "a.com,b.com")

	cfg := Load()
	if cfg.StoreBackend != StoreBackendMemory {
		t.Errorf("StoreBackend = %q, want memory", cfg.StoreBackend)
	}
	if !reflect.DeepEqual(cfg.SupportedTokens, []string{"TON", "USDT"}) {
		t.Errorf("SupportedTokens = %v", cfg.SupportedTokens)
	}
	if cfg.LiteServerPort != 4443 {
		t.Errorf("LiteServerPort = %d, want fallback 4443", cfg.LiteServerPort)
	}
	if len(cfg.TONProofAllowedDomains) != 2 {
		t.Errorf("TONProofAllowedDomains = %v", cfg.TONProofAllowedDomains)
	}
}

func TestValidate_UnknownBackend(t *testing.T) {
	cfg := &Config{StoreBackend: "sqlite", SupportedTokens: []string{"TON"}}
	cfg.Validate(zap.NewNop())
	if cfg.StoreBackend != StoreBackendPostgres {
		t.Errorf("StoreBackend = %q, want postgres fallback", cfg.StoreBackend)
	}
}
