package domain

import (
	"fmt"

	"github.com/holiman/uint256"
)

// BpsDenominator is the basis-point scale: 10000 bps = 100%.
const BpsDenominator = 10_000

// ParseAmount reads a base-10 token amount.
func ParseAmount(s string) (*uint256.Int, error) {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("amount %q: %w", s, err)
	}
	return v, nil
}

// Zero returns a fresh zero amount.
func Zero() *uint256.Int {
	return new(uint256.Int)
}

// AmountOrZero never returns nil.
func AmountOrZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return Zero()
	}
	return v.Clone()
}

// SplitFee returns (fee, remainder) for price at feeBps, truncating the fee.
// price*feeBps/10000 cannot overflow the intermediate because MulDivOverflow
// works on a 512-bit product.
func SplitFee(price *uint256.Int, feeBps uint32) (fee, remainder *uint256.Int) {
	fee, _ = new(uint256.Int).MulDivOverflow(price, uint256.NewInt(uint64(feeBps)), uint256.NewInt(BpsDenominator))
	remainder = new(uint256.Int).Sub(price, fee)
	return fee, remainder
}

// AmountString renders v as a decimal string; nil is "0".
func AmountString(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}
