// README: Stripe PaymentIntent gateway; intents are bound to one ride and payer and redeem once.
package payment

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"

	stripe "github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"

	"ridepool/internal/types"
)

const (
	metaRideID   = "ride_id"
	metaPayerID  = "payer_id"
	metaRedeemed = "redeemed"
)

// Stripe charges through PaymentIntents. The order reference is the intent
// ID and the client proves payment by echoing the intent's client secret.
type Stripe struct {
	intents *paymentintent.Client
}

func NewStripe(key string) (*Stripe, error) {
	if key == "" {
		return nil, ErrMissingKey
	}
	return &Stripe{intents: &paymentintent.Client{B: stripe.GetBackend(stripe.APIBackend), Key: key}}, nil
}

func (s *Stripe) CreateOrder(ctx context.Context, order types.PaymentOrder) (string, error) {
	if order.Amount.Amount <= 0 {
		return "", ErrInvalidAmount
	}
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(order.Amount.Amount),
		Currency: stripe.String(strings.ToLower(order.Amount.Currency)),
	}
	params.Context = ctx
	params.AddMetadata(metaRideID, string(order.RideID))
	params.AddMetadata(metaPayerID, string(order.PayerID))
	pi, err := s.intents.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe create intent: %w", err)
	}
	return pi.ID, nil
}

// VerifyPayment checks the intent and marks it redeemed in its metadata.
// Joins on one ride are serialized and an intent names a single ride, so the
// read and the mark cannot interleave with another redemption.
func (s *Stripe) VerifyPayment(ctx context.Context, orderRef, signature string, want types.PaymentOrder) error {
	if orderRef == "" || signature == "" {
		return ErrBadSignature
	}
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := s.intents.Get(orderRef, params)
	if err != nil {
		return fmt.Errorf("stripe get intent: %w", err)
	}
	if err := checkIntent(pi, signature, want); err != nil {
		return err
	}
	mark := &stripe.PaymentIntentParams{}
	mark.Context = ctx
	mark.AddMetadata(metaRedeemed, "true")
	if _, err := s.intents.Update(orderRef, mark); err != nil {
		return fmt.Errorf("stripe redeem intent %s: %w", orderRef, err)
	}
	return nil
}

// checkIntent accepts a paid (or authorised for manual capture) intent whose
// client secret matches and which was opened for want and never redeemed.
func checkIntent(pi *stripe.PaymentIntent, signature string, want types.PaymentOrder) error {
	if subtle.ConstantTimeCompare([]byte(pi.ClientSecret), []byte(signature)) != 1 {
		return ErrBadSignature
	}
	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded, stripe.PaymentIntentStatusRequiresCapture:
	default:
		return fmt.Errorf("%w: intent status %s", ErrNotPaid, pi.Status)
	}
	if intentOrder(pi) != want {
		return ErrOrderMismatch
	}
	if pi.Metadata[metaRedeemed] != "" {
		return ErrAlreadyCharged
	}
	return nil
}

func intentOrder(pi *stripe.PaymentIntent) types.PaymentOrder {
	return types.PaymentOrder{
		RideID:  types.ID(pi.Metadata[metaRideID]),
		PayerID: types.ID(pi.Metadata[metaPayerID]),
		Amount: types.Money{
			Amount:   pi.Amount,
			Currency: strings.ToUpper(string(pi.Currency)),
		},
	}
}
