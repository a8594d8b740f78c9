package payment

import (
	"context"
	"errors"
	"testing"

	stripe "github.com/stripe/stripe-go/v74"

	"ridepool/internal/types"
)

func order(ride, payer string, amount int64) types.PaymentOrder {
	return types.PaymentOrder{
		RideID:  types.ID(ride),
		PayerID: types.ID(payer),
		Amount:  types.Money{Amount: amount, Currency: "INR"},
	}
}

func TestHMAC_OrderLifecycle(t *testing.T) {
	g := NewHMAC("test-secret")
	ctx := context.Background()
	want := order("ride-1", "alice", 12500)

	ref, err := g.CreateOrder(ctx, want)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if err := g.VerifyPayment(ctx, ref, "bogus", want); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("bad signature: expected ErrBadSignature, got %v", err)
	}
	if err := g.VerifyPayment(ctx, ref, g.Sign(ref), want); err != nil {
		t.Fatalf("valid signature: %v", err)
	}
	if err := g.VerifyPayment(ctx, ref, g.Sign(ref), want); !errors.Is(err, ErrAlreadyCharged) {
		t.Fatalf("reuse: expected ErrAlreadyCharged, got %v", err)
	}
}

func TestHMAC_BoundToOrder(t *testing.T) {
	g := NewHMAC("test-secret")
	ctx := context.Background()
	paid := order("cheap-ride", "alice", 125)
	ref, err := g.CreateOrder(ctx, paid)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	tests := []struct {
		name string
		want types.PaymentOrder
	}{
		{"other ride", order("pricey-ride", "alice", 125)},
		{"other payer", order("cheap-ride", "bob", 125)},
		{"other amount", order("cheap-ride", "alice", 12500)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := g.VerifyPayment(ctx, ref, g.Sign(ref), tc.want); !errors.Is(err, ErrOrderMismatch) {
				t.Fatalf("expected ErrOrderMismatch, got %v", err)
			}
		})
	}

	// Mismatches must not burn the order for its rightful payer.
	if err := g.VerifyPayment(ctx, ref, g.Sign(ref), paid); err != nil {
		t.Fatalf("rightful payer rejected after mismatches: %v", err)
	}
}

func TestHMAC_Rejects(t *testing.T) {
	g := NewHMAC("s")
	ctx := context.Background()

	if _, err := g.CreateOrder(ctx, order("r", "p", 0)); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("zero amount: expected ErrInvalidAmount, got %v", err)
	}
	if err := g.VerifyPayment(ctx, "order_missing", "x", order("r", "p", 1)); !errors.Is(err, ErrUnknownOrder) {
		t.Errorf("unknown order: expected ErrUnknownOrder, got %v", err)
	}
	other := NewHMAC("other")
	want := order("r", "p", 100)
	ref, _ := g.CreateOrder(ctx, want)
	if err := g.VerifyPayment(ctx, ref, other.Sign(ref), want); !errors.Is(err, ErrBadSignature) {
		t.Errorf("signature from a different secret: expected ErrBadSignature, got %v", err)
	}
}

func TestNewStripe_RequiresKey(t *testing.T) {
	if _, err := NewStripe(""); !errors.Is(err, ErrMissingKey) {
		t.Fatalf("expected ErrMissingKey, got %v", err)
	}
	s, err := NewStripe("sk_test_dummy")
	if err != nil {
		t.Fatalf("NewStripe: %v", err)
	}
	if _, err := s.CreateOrder(context.Background(), order("r", "p", -1)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if err := s.VerifyPayment(context.Background(), "", "", order("r", "p", 1)); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("empty ref: expected ErrBadSignature, got %v", err)
	}
}

func intent(status stripe.PaymentIntentStatus, meta map[string]string) *stripe.PaymentIntent {
	return &stripe.PaymentIntent{
		ID:           "pi_1",
		Amount:       12500,
		Currency:     "inr",
		ClientSecret: "pi_1_secret",
		Status:       status,
		Metadata:     meta,
	}
}

func TestCheckIntent(t *testing.T) {
	want := order("ride-1", "alice", 12500)
	bound := func() map[string]string {
		return map[string]string{metaRideID: "ride-1", metaPayerID: "alice"}
	}

	tests := []struct {
		name    string
		pi      *stripe.PaymentIntent
		sig     string
		want    types.PaymentOrder
		wantErr error
	}{
		{"paid", intent(stripe.PaymentIntentStatusSucceeded, bound()), "pi_1_secret", want, nil},
		{"authorised", intent(stripe.PaymentIntentStatusRequiresCapture, bound()), "pi_1_secret", want, nil},
		{"wrong secret", intent(stripe.PaymentIntentStatusSucceeded, bound()), "nope", want, ErrBadSignature},
		{"unpaid", intent(stripe.PaymentIntentStatusRequiresPaymentMethod, bound()), "pi_1_secret", want, ErrNotPaid},
		{"other ride", intent(stripe.PaymentIntentStatusSucceeded, bound()), "pi_1_secret", order("ride-2", "alice", 12500), ErrOrderMismatch},
		{"other payer", intent(stripe.PaymentIntentStatusSucceeded, bound()), "pi_1_secret", order("ride-1", "bob", 12500), ErrOrderMismatch},
		{"other amount", intent(stripe.PaymentIntentStatusSucceeded, bound()), "pi_1_secret", order("ride-1", "alice", 99999), ErrOrderMismatch},
		{"no metadata", intent(stripe.PaymentIntentStatusSucceeded, nil), "pi_1_secret", want, ErrOrderMismatch},
		{"redeemed", intent(stripe.PaymentIntentStatusSucceeded, map[string]string{
			metaRideID: "ride-1", metaPayerID: "alice", metaRedeemed: "true",
		}), "pi_1_secret", want, ErrAlreadyCharged},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := checkIntent(tc.pi, tc.sig, tc.want)
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}
