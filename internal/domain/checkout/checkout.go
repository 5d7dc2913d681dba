// Package checkout builds hosted payment sessions from client-submitted
// carts. The client supplies which products and how many; prices always come
// from the catalog, never from the request.
package checkout

import (
	"context"
	"fmt"
)

// LineItem is one product entry within a payment session request.
type LineItem struct {
	Name string
	// Images holds the product image URLs shown on the hosted payment page.
	Images []string
	// UnitAmount is the authoritative per-unit price in minor currency units.
	UnitAmount int64
	Quantity   int64
	// AdjustableQuantity lets the shopper change the quantity on the hosted
	// page, with a minimum of MinQuantity.
	AdjustableQuantity bool
	MinQuantity        int64
}

// DeliveryEstimate bounds the expected delivery time in business days.
type DeliveryEstimate struct {
	MinBusinessDays int64
	MaxBusinessDays int64
}

// ShippingOption is one fixed-amount shipping tier offered at checkout.
type ShippingOption struct {
	DisplayName string
	// Amount is the shipping cost in minor currency units.
	Amount   int64
	Estimate DeliveryEstimate
}

// ShippingPolicy is static configuration attached to every session; it is
// never derived from cart contents.
type ShippingPolicy struct {
	AllowedCountries []string
	Options          []ShippingOption
}

// SessionRequest is a fully priced, provider-agnostic description of one
// payment session.
type SessionRequest struct {
	Currency   string
	LineItems  []LineItem
	Shipping   ShippingPolicy
	SuccessURL string
	CancelURL  string
}

// Session is the ephemeral record the payment provider creates for one
// payment attempt. The provider owns it; the storefront only forwards the
// identifier and the hosted page URL.
type Session struct {
	ID  string
	URL string
}

// Provider creates and resolves hosted payment sessions.
type Provider interface {
	// CreateSession requests a new one-time-payment session. Provider
	// rejections propagate as errors with no session created.
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)

	// GetSession resolves an existing session by ID, for handing the shopper
	// off to its hosted page.
	GetSession(ctx context.Context, id string) (*Session, error)
}

// ErrEmptyCart is returned when a checkout is requested for an empty cart.
var ErrEmptyCart = fmt.Errorf("cart is empty")

// ProductNotFoundError indicates the cart references a product the catalog
// no longer knows. The whole checkout is rejected rather than silently
// charging for a reduced set of items.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// InvalidQuantityError indicates a cart entry with a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s", e.ProductID)
}
