package services

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/username-escrow/backend/internal/auth"
	"github.com/username-escrow/backend/internal/config"
	"github.com/username-escrow/backend/internal/ton"
	"github.com/xssnick/tonutils-go/address"
	"go.uber.org/zap"
)

// TON Connect network ids
const (
	NetworkMainnetID = "-239"
	NetworkTestnetID = "-3"
)

// KeyResolver returns the public key a deployed wallet contract reports.
type KeyResolver interface {
	PublicKey(ctx context.Context, addr *address.Address) (ed25519.PublicKey, error)
}

var ErrStateInitRequired = errors.New("state_init is required to bind the public key to the address")

type SessionService struct {
	nonces auth.NonceStore
	keys   KeyResolver // nil: только state_init
	cfg    *config.Config
	log    *zap.Logger
	now    func() time.Time
}

func NewSessionService(nonces auth.NonceStore, keys KeyResolver, cfg *config.Config, log *zap.Logger) *SessionService {
	return &SessionService{
		nonces: nonces,
		keys:   keys,
		cfg:    cfg,
		log:    log,
		now:    time.Now,
	}
}

// GeneratePayload создаёт nonce для TON Proof.
// Клиент передаёт его в tonconnect при подключении кошелька.
func (s *SessionService) GeneratePayload(ctx context.Context) (string, error) {
	payload, err := s.nonces.Issue(ctx, s.cfg.ProofPayloadTTL)
	if err != nil {
		return "", fmt.Errorf("failed to create proof payload: %w", err)
	}
	return payload, nil
}

type LoginRequest struct {
	Address   string    `json:"address"` // raw "0:abc…" or friendly
	Network   string    `json:"network"` // "-239" / "-3" / "mainnet" / "testnet"
	PublicKey string    `json:"public_key"`
	StateInit string    `json:"state_init,omitempty"` // base64 BOC
	Proof     ton.Proof `json:"proof"`
}

type Session struct {
	Token   string `json:"token"`
	Address string `json:"address"`
}

// Login verifies a TON Proof and issues a JWT bound to the proven address.
func (s *SessionService) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	// 1. Network
	if net := normalizeNetwork(req.Network); net != "" && net != normalizeNetwork(s.cfg.TONNetwork) {
		return nil, fmt.Errorf("network mismatch: expected %s, got %s", s.cfg.TONNetwork, req.Network)
	}

	// 2. Адрес
	addr, err := ton.ParseAddress(req.Address)
	if err != nil {
		return nil, fmt.Errorf("invalid TON address: %w", err)
	}

	// 3. Consume payload (nonce), защита от replay
	if err := s.nonces.Consume(ctx, req.Proof.Payload); err != nil {
		return nil, err
	}

	// 4. Ключ должен принадлежать кошельку по адресу
	if err := s.bindKey(ctx, addr, req); err != nil {
		return nil, fmt.Errorf("TON Proof verification failed: %w", err)
	}

	// 5. Подпись
	if err := ton.VerifyProof(req.PublicKey, addr, req.Proof, s.cfg.TONProofAllowedDomains, s.now()); err != nil {
		return nil, fmt.Errorf("TON Proof verification failed: %w", err)
	}

	raw := addr.StringRaw()
	token, err := auth.GenerateJWT(s.cfg.JWTSecret, raw, s.cfg.JWTExpiration)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.log.Info("wallet session opened", zap.String("address", raw))
	return &Session{Token: token, Address: raw}, nil
}

// bindKey checks the public key against the address: through the state init
// the address was derived from, or through get_public_key on a deployed wallet.
func (s *SessionService) bindKey(ctx context.Context, addr *address.Address, req LoginRequest) error {
	pubKey, err := ton.DecodePublicKey(req.PublicKey)
	if err != nil {
		return err
	}

	if req.StateInit != "" {
		return ton.VerifyStateInit(addr, req.StateInit, pubKey)
	}
	if s.keys == nil {
		return ErrStateInitRequired
	}

	onChain, err := s.keys.PublicKey(ctx, addr)
	if err != nil {
		s.log.Warn("wallet public key lookup failed", zap.String("address", addr.StringRaw()), zap.Error(err))
		return fmt.Errorf("resolve wallet public key: %w", err)
	}
	if !bytes.Equal(onChain, pubKey) {
		return ton.ErrWalletKeyMismatch
	}
	return nil
}

func normalizeNetwork(n string) string {
	switch n {
	case NetworkMainnetID, "mainnet":
		return "mainnet"
	case NetworkTestnetID, "testnet":
		return "testnet"
	}
	return n
}
