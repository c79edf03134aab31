package types

import (
	"errors"
	"fmt"
)

// ErrInsufficientFunds is returned by strict funding when inputs cannot cover outputs and fees.
var ErrInsufficientFunds = errors.New("insufficient funds")

// InvariantError reports a broken balance invariant. It is a defect, never a business condition.
type InvariantError struct {
	Asset  Asset
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("balance invariant violated for %s: %s", e.Asset, e.Detail)
}

// IsInvariantViolation reports whether err wraps an InvariantError.
func IsInvariantViolation(err error) bool {
	var inv *InvariantError
	return errors.As(err, &inv)
}
