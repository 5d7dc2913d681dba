// Package handler exposes the storefront JSON API: catalog reads and the
// cart-to-checkout pipeline.
package handler

import (
	"github.com/go-chi/chi/v5"

	"github.com/evermart/storefront/internal/domain/checkout"
	"github.com/evermart/storefront/internal/domain/product"
)

// Handler maps HTTP requests onto the catalog gateway and checkout service.
type Handler struct {
	products product.Gateway
	checkout *checkout.Service
}

// New constructs a Handler with the required domain dependencies.
func New(products product.Gateway, checkoutSvc *checkout.Service) *Handler {
	return &Handler{
		products: products,
		checkout: checkoutSvc,
	}
}

// Routes returns the API router, intended to be mounted under /api.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/products", h.ListProducts)
	r.Get("/products/{slug}", h.GetProduct)
	r.Post("/checkout", h.CreateCheckout)
	r.Get("/checkout/{sessionID}", h.RedirectToCheckout)
	return r
}
