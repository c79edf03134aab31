package types

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// Decimals is the number of fractional digits of both the coin and the token.
const Decimals = 8

// tokenAmountSize is the length of the little-endian u128 prefix of token cell data.
const tokenAmountSize = 16

// TokenAmount decodes the token amount stored in the first 16 bytes of a token cell.
func TokenAmount(data []byte) (uint256.Int, error) {
	var amount uint256.Int
	if len(data) < tokenAmountSize {
		return amount, fmt.Errorf("token data too short: %d bytes", len(data))
	}

	be := make([]byte, tokenAmountSize)
	for i := 0; i < tokenAmountSize; i++ {
		be[i] = data[tokenAmountSize-1-i]
	}
	amount.SetBytes(be)

	return amount, nil
}

// EncodeTokenAmount is the inverse of TokenAmount.
func EncodeTokenAmount(amount *uint256.Int) []byte {
	be := amount.Bytes32()
	out := make([]byte, tokenAmountSize)
	for i := 0; i < tokenAmountSize; i++ {
		out[i] = be[31-i]
	}
	return out
}

// FormatAmount renders an amount in whole units, e.g. "1234.5".
func FormatAmount(amount *uint256.Int) string {
	return decimal.NewFromBigInt(amount.ToBig(), -Decimals).String()
}

// ParseAmount parses a non-negative decimal string in whole units, e.g. "1234.5",
// into base units. More than Decimals fractional digits is an error.
func ParseAmount(s string) (uint256.Int, error) {
	var out uint256.Int

	d, err := decimal.NewFromString(s)
	if err != nil {
		return out, fmt.Errorf("parse amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return out, fmt.Errorf("amount %q is negative", s)
	}

	shifted := d.Shift(Decimals)
	if !shifted.IsInteger() {
		return out, fmt.Errorf("amount %q has more than %d decimals", s, Decimals)
	}
	if out.SetFromBig(shifted.BigInt()) {
		return out, fmt.Errorf("amount %q overflows", s)
	}
	return out, nil
}
