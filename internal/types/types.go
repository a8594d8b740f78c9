// README: Shared value types (IDs, coordinates, money).
package types

import "github.com/google/uuid"

type ID string

func NewID() ID {
	return ID(uuid.NewString())
}

type Point struct {
	Lat float64
	Lng float64
}

// Money is an amount in the currency's minor unit (paise, cents).
type Money struct {
	Amount   int64
	Currency string
}

// PaymentOrder is what a payment order was opened for. A payment only
// counts toward the same ride, payer and amount.
type PaymentOrder struct {
	RideID  ID
	PayerID ID
	Amount  Money
}
