// README: Signed-order payment gateway for development and tests.
package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/google/uuid"

	"ridepool/internal/types"
)

// HMAC is a self-contained gateway. An order is paid once the client presents
// Sign(orderRef); each order verifies once.
type HMAC struct {
	secret []byte
	mu     sync.Mutex
	orders map[string]*hmacOrder
}

type hmacOrder struct {
	order types.PaymentOrder
	used  bool
}

func NewHMAC(secret string) *HMAC {
	return &HMAC{secret: []byte(secret), orders: make(map[string]*hmacOrder)}
}

func (g *HMAC) CreateOrder(_ context.Context, order types.PaymentOrder) (string, error) {
	if order.Amount.Amount <= 0 {
		return "", ErrInvalidAmount
	}
	ref := "order_" + uuid.NewString()
	g.mu.Lock()
	g.orders[ref] = &hmacOrder{order: order}
	g.mu.Unlock()
	return ref, nil
}

// Sign returns the signature a payer would receive for orderRef.
func (g *HMAC) Sign(orderRef string) string {
	mac := hmac.New(sha256.New, g.secret)
	mac.Write([]byte(orderRef))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyPayment consumes orderRef. A mismatched order is left unused so its
// rightful payer can still redeem it.
func (g *HMAC) VerifyPayment(_ context.Context, orderRef, signature string, want types.PaymentOrder) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	o, ok := g.orders[orderRef]
	if !ok {
		return ErrUnknownOrder
	}
	if !hmac.Equal([]byte(g.Sign(orderRef)), []byte(signature)) {
		return ErrBadSignature
	}
	if o.order != want {
		return ErrOrderMismatch
	}
	if o.used {
		return ErrAlreadyCharged
	}
	o.used = true
	return nil
}
