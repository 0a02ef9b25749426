package ton

import (
	"fmt"
	"strings"

	"github.com/xssnick/tonutils-go/address"
)

// ParseAddress принимает raw ("0:<hex>") или user-friendly ("EQ…"/"UQ…") форму.
func ParseAddress(s string) (*address.Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty address")
	}
	if strings.Contains(s, ":") {
		addr, err := address.ParseRawAddr(s)
		if err != nil {
			return nil, fmt.Errorf("invalid raw address %q: %w", s, err)
		}
		return addr, nil
	}
	addr, err := address.ParseAddr(s)
	if err != nil {
		return nil, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return addr, nil
}

// NormalizeAddress returns the raw "wc:hex" form used as the account key
// everywhere in the ledger.
func NormalizeAddress(s string) (string, error) {
	addr, err := ParseAddress(s)
	if err != nil {
		return "", err
	}
	return addr.StringRaw(), nil
}
