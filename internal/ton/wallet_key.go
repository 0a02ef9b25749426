package ton

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tlb"
	liteapi "github.com/xssnick/tonutils-go/ton"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

var ErrWalletKeyMismatch = errors.New("public key does not belong to the wallet")

// Смещения публичного ключа в data стандартных кошельков:
// v3/v4: seqno(32) subwallet(32); v5r1: flag(1) seqno(32) wallet_id(32); v2: seqno(32);
// highload v2: subwallet(32) last_cleaned(64); v5 beta: seqno(33) wallet_id(80); highload v3: ключ первым.
var walletKeyOffsets = []uint{64, 65, 32, 96, 113, 0}

func DecodePublicKey(pubKeyHex string) (ed25519.PublicKey, error) {
	pubKey, err := hex.DecodeString(pubKeyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid public key hex: %w", err)
	}
	if len(pubKey) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("invalid public key size: %d", len(pubKey))
	}
	return pubKey, nil
}

// VerifyStateInit checks that stateInitBOC (base64) is the state init the
// address was derived from and that its data carries pubKey.
func VerifyStateInit(addr *address.Address, stateInitBOC string, pubKey ed25519.PublicKey) error {
	raw, err := base64.StdEncoding.DecodeString(stateInitBOC)
	if err != nil {
		return fmt.Errorf("invalid state_init encoding: %w", err)
	}
	root, err := cell.FromBOC(raw)
	if err != nil {
		return fmt.Errorf("invalid state_init boc: %w", err)
	}

	if !bytes.Equal(root.Hash(), addr.Data()) {
		return fmt.Errorf("%w: state_init does not match address %s", ErrWalletKeyMismatch, addr.StringRaw())
	}

	var si tlb.StateInit
	if err := tlb.LoadFromCell(&si, root.BeginParse()); err != nil {
		return fmt.Errorf("invalid state_init: %w", err)
	}
	if si.Data == nil {
		return fmt.Errorf("%w: state_init has no data", ErrWalletKeyMismatch)
	}

	for _, off := range walletKeyOffsets {
		if key, ok := keyAt(si.Data, off); ok && bytes.Equal(key, pubKey) {
			return nil
		}
	}
	return ErrWalletKeyMismatch
}

func keyAt(data *cell.Cell, offset uint) ([]byte, bool) {
	s := data.BeginParse()
	if s.BitsLeft() < offset+256 {
		return nil, false
	}
	if offset > 0 {
		if _, err := s.LoadSlice(offset); err != nil {
			return nil, false
		}
	}
	key, err := s.LoadSlice(256)
	if err != nil {
		return nil, false
	}
	return key, true
}

// ChainKeys reads wallet public keys from deployed contracts via get_public_key.
type ChainKeys struct {
	api liteapi.APIClientWrapped
}

func NewChainKeys(api liteapi.APIClientWrapped) *ChainKeys {
	return &ChainKeys{api: api}
}

func (k *ChainKeys) PublicKey(ctx context.Context, addr *address.Address) (ed25519.PublicKey, error) {
	block, err := k.api.CurrentMasterchainInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("get master block: %w", err)
	}

	res, err := k.api.RunGetMethod(ctx, block, addr, "get_public_key")
	if err != nil {
		return nil, fmt.Errorf("get_public_key on %s: %w", addr.StringRaw(), err)
	}
	n, err := res.Int(0)
	if err != nil {
		return nil, fmt.Errorf("get_public_key result: %w", err)
	}
	if n.Sign() < 0 || n.BitLen() > 256 {
		return nil, fmt.Errorf("get_public_key returned out-of-range value")
	}
	return ed25519.PublicKey(n.FillBytes(make([]byte, ed25519.PublicKeySize))), nil
}
