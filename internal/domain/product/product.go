package product

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for purchase. Products are
// sourced entirely from the external catalog and are immutable once fetched;
// the storefront never writes them back.
type Product struct {
	ID          string
	Name        string
	Slug        string
	Price       int64 // minor currency units (cents)
	Description string
	Images      []Image
}

// Image is a single product image in catalog order.
type Image struct {
	ID  string
	URL string
}

// Gateway defines read operations against the external product catalog.
// Every call is a single best-effort attempt; transport and query errors
// propagate to the caller without retry.
type Gateway interface {
	// All returns the full catalog.
	All(ctx context.Context) ([]Product, error)

	// ByIDs returns every product matching one of the given IDs. IDs with no
	// matching product are silently omitted; callers that need every ID
	// resolved must verify the result themselves.
	ByIDs(ctx context.Context, ids []string) ([]Product, error)

	// BySlug returns the product with the given URL slug, or ErrNotFound.
	// Implementations may narrow Images to the first image only; callers must
	// not assume more than one is present from this path.
	BySlug(ctx context.Context, slug string) (*Product, error)
}
