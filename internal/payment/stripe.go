// Package payment implements the checkout.Provider contract on top of
// Stripe Checkout Sessions.
package payment

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	stripe "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"

	"github.com/evermart/storefront/internal/domain/checkout"
)

// Sessions are created in one-time-payment mode accepting cards and SEPA
// direct debit.
var paymentMethodTypes = []string{"card", "sepa_debit"}

var _ checkout.Provider = (*StripeProvider)(nil)

// StripeProvider creates hosted checkout sessions via the Stripe API.
//
// The underlying API handle is built lazily on first use and reused for the
// lifetime of the process; the sync.Once guards concurrent first
// initialization. The provider itself is an explicit dependency injected
// into the components that need it.
type StripeProvider struct {
	secretKey string

	once sync.Once
	api  *client.API
}

// NewStripe creates a provider that authenticates with the given secret key.
func NewStripe(secretKey string) *StripeProvider {
	return &StripeProvider{secretKey: secretKey}
}

func (p *StripeProvider) client() *client.API {
	p.once.Do(func() {
		api := &client.API{}
		api.Init(p.secretKey, nil)
		p.api = api
	})
	return p.api
}

// CreateSession requests a new checkout session. Stripe rejections (invalid
// amounts, outages) propagate as errors with no session created.
func (p *StripeProvider) CreateSession(ctx context.Context, req checkout.SessionRequest) (*checkout.Session, error) {
	sess, err := p.client().CheckoutSessions.New(sessionParams(ctx, req))
	if err != nil {
		return nil, errors.Wrap(err, "create checkout session")
	}
	return &checkout.Session{ID: sess.ID, URL: sess.URL}, nil
}

// GetSession resolves an existing session by ID.
func (p *StripeProvider) GetSession(ctx context.Context, id string) (*checkout.Session, error) {
	sess, err := p.client().CheckoutSessions.Get(id, &stripe.CheckoutSessionParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "get checkout session %s", id)
	}
	return &checkout.Session{ID: sess.ID, URL: sess.URL}, nil
}

// sessionParams maps a provider-agnostic session request to Stripe's params.
func sessionParams(ctx context.Context, req checkout.SessionRequest) *stripe.CheckoutSessionParams {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, len(req.LineItems))
	for i, item := range req.LineItems {
		li := &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(item.Quantity),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(req.Currency),
				UnitAmount: stripe.Int64(item.UnitAmount),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:   stripe.String(item.Name),
					Images: stripe.StringSlice(item.Images),
				},
			},
		}
		if item.AdjustableQuantity {
			li.AdjustableQuantity = &stripe.CheckoutSessionLineItemAdjustableQuantityParams{
				Enabled: stripe.Bool(true),
				Minimum: stripe.Int64(item.MinQuantity),
			}
		}
		lineItems[i] = li
	}

	shippingOptions := make([]*stripe.CheckoutSessionShippingOptionParams, len(req.Shipping.Options))
	for i, opt := range req.Shipping.Options {
		shippingOptions[i] = &stripe.CheckoutSessionShippingOptionParams{
			ShippingRateData: &stripe.CheckoutSessionShippingOptionShippingRateDataParams{
				Type:        stripe.String("fixed_amount"),
				DisplayName: stripe.String(opt.DisplayName),
				FixedAmount: &stripe.CheckoutSessionShippingOptionShippingRateDataFixedAmountParams{
					Amount:   stripe.Int64(opt.Amount),
					Currency: stripe.String(req.Currency),
				},
				DeliveryEstimate: &stripe.CheckoutSessionShippingOptionShippingRateDataDeliveryEstimateParams{
					Minimum: &stripe.CheckoutSessionShippingOptionShippingRateDataDeliveryEstimateMinimumParams{
						Unit:  stripe.String("business_day"),
						Value: stripe.Int64(opt.Estimate.MinBusinessDays),
					},
					Maximum: &stripe.CheckoutSessionShippingOptionShippingRateDataDeliveryEstimateMaximumParams{
						Unit:  stripe.String("business_day"),
						Value: stripe.Int64(opt.Estimate.MaxBusinessDays),
					},
				},
			},
		}
	}

	return &stripe.CheckoutSessionParams{
		Params:             stripe.Params{Context: ctx},
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice(paymentMethodTypes),
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
		LineItems:          lineItems,
		ShippingAddressCollection: &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice(req.Shipping.AllowedCountries),
		},
		ShippingOptions: shippingOptions,
	}
}
