package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"

	"github.com/evermart/storefront/internal/domain/product"
)

// ProductResponse is the wire shape of one catalog record.
type ProductResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Price       int64           `json:"price"`
	Description string          `json:"description"`
	Images      []ImageResponse `json:"images"`
}

type ImageResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type productsResponse struct {
	Products []ProductResponse `json:"products"`
}

// ListProducts returns the whole catalog, or the subset matching the
// comma-separated ids filter. Unknown ids are silently omitted, matching the
// catalog contract.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	var (
		products []product.Product
		err      error
	)
	if raw := r.URL.Query().Get("ids"); raw != "" {
		products, err = h.products.ByIDs(r.Context(), splitIDs(raw))
	} else {
		products, err = h.products.All(r.Context())
	}
	if err != nil {
		logError(r, "fetch products", err)
		respondError(w, http.StatusBadGateway, "catalog unavailable")
		return
	}

	resp := productsResponse{Products: make([]ProductResponse, len(products))}
	for i, p := range products {
		resp.Products[i] = toProductResponse(p)
	}
	respondJSON(w, http.StatusOK, resp)
}

// GetProduct returns the detail record for one product by its URL slug.
// Images may be narrowed to the first image on this path.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	p, err := h.products.BySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			respondError(w, http.StatusNotFound, "product not found")
			return
		}
		logError(r, "fetch product", err)
		respondError(w, http.StatusBadGateway, "catalog unavailable")
		return
	}
	respondJSON(w, http.StatusOK, toProductResponse(*p))
}

func toProductResponse(p product.Product) ProductResponse {
	images := make([]ImageResponse, len(p.Images))
	for i, img := range p.Images {
		images[i] = ImageResponse{ID: img.ID, URL: img.URL}
	}
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Slug:        p.Slug,
		Price:       p.Price,
		Description: p.Description,
		Images:      images,
	}
}

func splitIDs(raw string) []string {
	parts := strings.Split(raw, ",")
	ids := make([]string, 0, len(parts))
	for _, part := range parts {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
