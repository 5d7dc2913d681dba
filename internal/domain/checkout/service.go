package checkout

import (
	"context"
	"slices"

	"github.com/go-faster/errors"

	"github.com/evermart/storefront/internal/domain/product"
)

// Currency for all line items and shipping amounts.
const Currency = "eur"

// DefaultShipping is the fixed shipping policy attached to every session:
// one allowed destination country and two flat-rate tiers.
func DefaultShipping() ShippingPolicy {
	return ShippingPolicy{
		AllowedCountries: []string{"KR"},
		Options: []ShippingOption{
			{
				DisplayName: "Free Shipping",
				Amount:      0,
				Estimate:    DeliveryEstimate{MinBusinessDays: 3, MaxBusinessDays: 5},
			},
			{
				DisplayName: "Next day air",
				Amount:      499,
				Estimate:    DeliveryEstimate{MinBusinessDays: 1, MaxBusinessDays: 1},
			},
		},
	}
}

// Config holds the static session parameters of a Service.
type Config struct {
	// SuccessURL and CancelURL are the fixed redirect destinations the
	// provider sends the shopper to after the hosted flow.
	SuccessURL string
	CancelURL  string
	// Shipping overrides DefaultShipping when non-zero.
	Shipping ShippingPolicy
}

// Service builds payment sessions for client-submitted carts. It holds no
// state between requests; all authoritative data is re-fetched per call, so
// concurrent invocations are safe without coordination.
type Service struct {
	catalog  product.Gateway
	provider Provider
	cfg      Config
}

// NewService creates a checkout Service.
func NewService(catalog product.Gateway, provider Provider, cfg Config) *Service {
	if len(cfg.Shipping.Options) == 0 {
		cfg.Shipping = DefaultShipping()
	}
	return &Service{
		catalog:  catalog,
		provider: provider,
		cfg:      cfg,
	}
}

// Checkout re-prices the cart from the catalog, builds line items, and
// requests a hosted payment session. The cart supplies only product IDs and
// quantities; every price comes from the catalog fetch inside this call.
func (s *Service) Checkout(ctx context.Context, items map[string]int) (*Session, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	ids := make([]string, 0, len(items))
	for id, qty := range items {
		if qty <= 0 {
			return nil, &InvalidQuantityError{ProductID: id}
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)

	fetched, err := s.catalog.ByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}

	byID := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}

	// Every cart entry must resolve; a deleted or renamed product rejects
	// the whole checkout instead of silently shrinking the order.
	lineItems := make([]LineItem, 0, len(ids))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			return nil, &ProductNotFoundError{ProductID: id}
		}

		images := make([]string, 0, len(p.Images))
		for _, img := range p.Images {
			images = append(images, img.URL)
		}

		lineItems = append(lineItems, LineItem{
			Name:               p.Name,
			Images:             images,
			UnitAmount:         p.Price,
			Quantity:           int64(items[id]),
			AdjustableQuantity: true,
			MinQuantity:        1,
		})
	}

	session, err := s.provider.CreateSession(ctx, SessionRequest{
		Currency:   Currency,
		LineItems:  lineItems,
		Shipping:   s.cfg.Shipping,
		SuccessURL: s.cfg.SuccessURL,
		CancelURL:  s.cfg.CancelURL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create payment session")
	}
	return session, nil
}

// Resolve looks up an existing session so the shopper can be handed off to
// its hosted payment page.
func (s *Service) Resolve(ctx context.Context, sessionID string) (*Session, error) {
	session, err := s.provider.GetSession(ctx, sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "get payment session")
	}
	return session, nil
}
