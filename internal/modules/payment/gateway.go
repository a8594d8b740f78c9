// README: Payment gateways used to charge a passenger's share before joining.
package payment

import (
	"errors"
)

var (
	ErrUnknownOrder   = errors.New("unknown payment order")
	ErrInvalidAmount  = errors.New("payment amount must be positive")
	ErrMissingKey     = errors.New("payment gateway key missing")
	ErrAlreadyCharged = errors.New("payment order already used")
	ErrBadSignature   = errors.New("payment signature does not match")
	ErrNotPaid        = errors.New("payment order not paid")
	ErrOrderMismatch  = errors.New("payment order was opened for another ride, payer or amount")
)
