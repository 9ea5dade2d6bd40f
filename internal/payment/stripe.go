package payment

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	"ticket-ledger/internal/logger"
)

var (
	ErrStripeAPIError         = errors.New("stripe API error")
	ErrStripeClientInitFailed = errors.New("failed to initialize Stripe client")
)

// StripePayer settles payouts through Stripe transfers. Payee identities are
// connected account ids; the payout reference becomes the transfer group so
// reconciliation can tie a transfer back to the ledger call that caused it.
type StripePayer struct {
	client   *client.API
	currency string
	log      *logger.Logger
}

func NewStripePayer(log *logger.Logger) (*StripePayer, error) {
	stripeKey := os.Getenv("STRIPE_SECRET_KEY")
	if stripeKey == "" {
		log.Error("STRIPE", "STRIPE_SECRET_KEY environment variable not set")
		return nil, ErrStripeClientInitFailed
	}

	currency := os.Getenv("STRIPE_CURRENCY")
	if currency == "" {
		currency = "usd"
	}

	sc := client.New(stripeKey, nil)
	if sc == nil {
		log.Error("STRIPE", "Failed to initialize Stripe client")
		return nil, ErrStripeClientInitFailed
	}

	log.Info("STRIPE", "Stripe client initialized successfully")
	return &StripePayer{
		client:   sc,
		currency: currency,
		log:      log,
	}, nil
}

func (s *StripePayer) Pay(ctx context.Context, to string, amount int64, reference string) error {
	params := &stripe.TransferParams{
		Amount:        stripe.Int64(amount),
		Currency:      stripe.String(s.currency),
		Destination:   stripe.String(to),
		TransferGroup: stripe.String(reference),
	}
	params.Context = ctx

	tr, err := s.client.Transfers.New(params)
	if err != nil {
		s.log.Error("STRIPE", fmt.Sprintf("transfer of %d to %s failed: %v", amount, to, err))
		return fmt.Errorf("%w: %v", ErrStripeAPIError, err)
	}

	s.log.LogPayment(to, amount, fmt.Sprintf("stripe transfer %s settled", tr.ID))
	return nil
}
