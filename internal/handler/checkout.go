package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"

	"github.com/evermart/storefront/internal/domain/checkout"
)

// CheckoutRequest carries the client's cart: product ID to desired quantity.
// It never carries prices; those are re-fetched from the catalog.
type CheckoutRequest struct {
	Items map[string]int `json:"items"`
}

// SessionResponse is the created payment session, nested under the key the
// storefront client expects.
type SessionResponse struct {
	StripeSession SessionBody `json:"stripeSession"`
}

type SessionBody struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CreateCheckout builds a hosted payment session for the submitted cart and
// responds 201 with its identifier and hosted page URL.
func (h *Handler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	session, err := h.checkout.Checkout(r.Context(), req.Items)
	if err != nil {
		h.respondCheckoutError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, SessionResponse{
		StripeSession: SessionBody{ID: session.ID, URL: session.URL},
	})
}

// RedirectToCheckout resolves a created session and hands the shopper off to
// the provider's hosted payment page.
func (h *Handler) RedirectToCheckout(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.checkout.Resolve(r.Context(), sessionID)
	if err != nil || session.URL == "" {
		if err != nil {
			logError(r, "resolve payment session", err)
		}
		respondError(w, http.StatusBadGateway, "payment unavailable")
		return
	}

	http.Redirect(w, r, session.URL, http.StatusSeeOther)
}

func (h *Handler) respondCheckoutError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		pnfErr *checkout.ProductNotFoundError
		iqErr  *checkout.InvalidQuantityError
	)
	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &pnfErr), errors.As(err, &iqErr):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		// Catalog or provider failure: the checkout failed, nothing was
		// created or persisted.
		logError(r, "create checkout", err)
		respondError(w, http.StatusBadGateway, "checkout failed")
	}
}
