package checkout

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evermart/storefront/internal/domain/product"
)

// --- Mock implementations ---

type mockGateway struct {
	products []product.Product
	err      error
}

func (m *mockGateway) All(_ context.Context) ([]product.Product, error) {
	return m.products, m.err
}

func (m *mockGateway) ByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	matched := make([]product.Product, 0, len(ids))
	for _, p := range m.products {
		for _, id := range ids {
			if p.ID == id {
				matched = append(matched, p)
			}
		}
	}
	return matched, nil
}

func (m *mockGateway) BySlug(_ context.Context, slug string) (*product.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, p := range m.products {
		if p.Slug == slug {
			return &p, nil
		}
	}
	return nil, product.ErrNotFound
}

type mockProvider struct {
	session *Session
	err     error

	lastRequest *SessionRequest
}

func (m *mockProvider) CreateSession(_ context.Context, req SessionRequest) (*Session, error) {
	m.lastRequest = &req
	return m.session, m.err
}

func (m *mockProvider) GetSession(_ context.Context, _ string) (*Session, error) {
	return m.session, m.err
}

// --- Helpers ---

func newTestProduct(id string, price int64) product.Product {
	return product.Product{
		ID:    id,
		Name:  "Product " + id,
		Slug:  "product-" + id,
		Price: price,
		Images: []product.Image{
			{ID: id + "-img", URL: "https://cdn.example.com/" + id + ".jpg"},
		},
	}
}

func newTestService(gw *mockGateway, provider *mockProvider) *Service {
	return NewService(gw, provider, Config{
		SuccessURL: "http://localhost:3000/success",
		CancelURL:  "http://localhost:3000/cancel",
	})
}

// --- Tests ---

func TestCheckout_EmptyCart(t *testing.T) {
	svc := newTestService(&mockGateway{}, &mockProvider{})

	_, err := svc.Checkout(context.Background(), nil)
	require.ErrorIs(t, err, ErrEmptyCart)

	_, err = svc.Checkout(context.Background(), map[string]int{})
	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestCheckout_InvalidQuantity(t *testing.T) {
	gw := &mockGateway{products: []product.Product{newTestProduct("p1", 1000)}}
	svc := newTestService(gw, &mockProvider{})

	_, err := svc.Checkout(context.Background(), map[string]int{"p1": 0})

	var iqErr *InvalidQuantityError
	require.ErrorAs(t, err, &iqErr)
	assert.Equal(t, "p1", iqErr.ProductID)
}

func TestCheckout_BuildsAuthoritativeLineItems(t *testing.T) {
	gw := &mockGateway{products: []product.Product{
		newTestProduct("A", 1000),
		newTestProduct("B", 500),
	}}
	provider := &mockProvider{session: &Session{ID: "cs_123", URL: "https://pay.example.com/cs_123"}}
	svc := newTestService(gw, provider)

	session, err := svc.Checkout(context.Background(), map[string]int{"A": 2, "B": 1})
	require.NoError(t, err)
	assert.Equal(t, "cs_123", session.ID)

	req := provider.lastRequest
	require.NotNil(t, req)
	require.Len(t, req.LineItems, 2)

	// IDs are sorted, so A comes first.
	a, b := req.LineItems[0], req.LineItems[1]
	assert.Equal(t, int64(1000), a.UnitAmount)
	assert.Equal(t, int64(2), a.Quantity)
	assert.Equal(t, "Product A", a.Name)
	assert.Equal(t, []string{"https://cdn.example.com/A.jpg"}, a.Images)
	assert.True(t, a.AdjustableQuantity)
	assert.Equal(t, int64(1), a.MinQuantity)

	assert.Equal(t, int64(500), b.UnitAmount)
	assert.Equal(t, int64(1), b.Quantity)

	// Total before shipping: 2*1000 + 1*500 minor units.
	var subtotal int64
	for _, item := range req.LineItems {
		subtotal += item.UnitAmount * item.Quantity
	}
	assert.Equal(t, int64(2500), subtotal)

	assert.Equal(t, "eur", req.Currency)
	assert.Equal(t, "http://localhost:3000/success", req.SuccessURL)
	assert.Equal(t, "http://localhost:3000/cancel", req.CancelURL)
}

func TestCheckout_FixedShippingPolicy(t *testing.T) {
	gw := &mockGateway{products: []product.Product{
		newTestProduct("A", 1000),
		newTestProduct("B", 500),
	}}
	provider := &mockProvider{session: &Session{ID: "cs_1"}}
	svc := newTestService(gw, provider)

	// Shipping tiers are static configuration, identical for any cart.
	for _, items := range []map[string]int{
		{"A": 1},
		{"A": 7, "B": 3},
	} {
		_, err := svc.Checkout(context.Background(), items)
		require.NoError(t, err)

		shipping := provider.lastRequest.Shipping
		assert.Equal(t, []string{"KR"}, shipping.AllowedCountries)
		require.Len(t, shipping.Options, 2)

		free, air := shipping.Options[0], shipping.Options[1]
		assert.Equal(t, "Free Shipping", free.DisplayName)
		assert.Equal(t, int64(0), free.Amount)
		assert.Equal(t, DeliveryEstimate{MinBusinessDays: 3, MaxBusinessDays: 5}, free.Estimate)

		assert.Equal(t, "Next day air", air.DisplayName)
		assert.Equal(t, int64(499), air.Amount)
		assert.Equal(t, DeliveryEstimate{MinBusinessDays: 1, MaxBusinessDays: 1}, air.Estimate)
	}
}

func TestCheckout_UnknownProductRejectsWholeCheckout(t *testing.T) {
	gw := &mockGateway{products: []product.Product{newTestProduct("A", 1000)}}
	provider := &mockProvider{session: &Session{ID: "cs_1"}}
	svc := newTestService(gw, provider)

	_, err := svc.Checkout(context.Background(), map[string]int{"A": 1, "deleted": 2})

	var pnfErr *ProductNotFoundError
	require.ErrorAs(t, err, &pnfErr)
	assert.Equal(t, "deleted", pnfErr.ProductID)
	assert.Nil(t, provider.lastRequest, "no session may be requested for an unresolvable cart")
}

func TestCheckout_CatalogErrorPropagates(t *testing.T) {
	gw := &mockGateway{err: errors.New("catalog down")}
	provider := &mockProvider{}
	svc := newTestService(gw, provider)

	_, err := svc.Checkout(context.Background(), map[string]int{"A": 1})
	require.Error(t, err)
	assert.Nil(t, provider.lastRequest)
}

func TestCheckout_ProviderErrorPropagates(t *testing.T) {
	gw := &mockGateway{products: []product.Product{newTestProduct("A", 1000)}}
	provider := &mockProvider{err: errors.New("provider rejected")}
	svc := newTestService(gw, provider)

	session, err := svc.Checkout(context.Background(), map[string]int{"A": 1})
	require.Error(t, err)
	assert.Nil(t, session, "no session on provider failure")
}

func TestResolve(t *testing.T) {
	provider := &mockProvider{session: &Session{ID: "cs_9", URL: "https://pay.example.com/cs_9"}}
	svc := newTestService(&mockGateway{}, provider)

	session, err := svc.Resolve(context.Background(), "cs_9")
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example.com/cs_9", session.URL)
}

func TestResolve_Error(t *testing.T) {
	provider := &mockProvider{err: errors.New("no such session")}
	svc := newTestService(&mockGateway{}, provider)

	_, err := svc.Resolve(context.Background(), "cs_missing")
	require.Error(t, err)
}
