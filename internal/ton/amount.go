package ton

import (
	"fmt"
	"math/big"

	"github.com/xssnick/tonutils-go/tlb"
)

// ParseTON converts a decimal TON string ("5.5") to nanoTON.
func ParseTON(s string) (int64, error) {
	coins, err := tlb.FromTON(s)
	if err != nil {
		return 0, fmt.Errorf("invalid TON amount %q: %w", s, err)
	}
	nano := coins.Nano()
	if !nano.IsInt64() {
		return 0, fmt.Errorf("TON amount %q out of range", s)
	}
	return nano.Int64(), nil
}

// FormatNano renders nanoTON as a decimal TON string.
func FormatNano(nano int64) string {
	return tlb.FromNanoTON(big.NewInt(nano)).String()
}
