// Package graphcms implements the product catalog gateway against the
// external GraphQL content API.
package graphcms

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/machinebox/graphql"

	"github.com/evermart/storefront/internal/domain/product"
)

const (
	allProductsQuery = `
		query getAllProducts {
			products {
				id
				name
				price
				slug
				description
				images {
					id
					url
				}
			}
		}`

	productsByIDsQuery = `
		query getProductsByIDs($ids: [ID!]) {
			products(where: { id_in: $ids }) {
				id
				name
				price
				slug
				description
				images {
					id
					url
				}
			}
		}`

	// Detail pages need at most one image; fetching the rest is wasted
	// bandwidth on this path.
	productsBySlugQuery = `
		query getProductsBySlug($slug: String!) {
			products(where: { slug: $slug }) {
				id
				name
				price
				slug
				description
				images(first: 1) {
					id
					url
				}
			}
		}`

	pingQuery = `{ __typename }`
)

var _ product.Gateway = (*Client)(nil)

// Client is a product.Gateway backed by the catalog's GraphQL API. Requests
// are single attempts; any transport or query error propagates to the caller.
type Client struct {
	gql   *graphql.Client
	token string
}

// New creates a catalog client for the given endpoint. When token is
// non-empty it is sent as a Bearer credential on every request. A nil
// httpClient falls back to one with a 10s timeout.
func New(endpoint, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		gql:   graphql.NewClient(endpoint, graphql.WithHTTPClient(httpClient)),
		token: token,
	}
}

// productRecord mirrors the catalog's wire shape for a product.
type productRecord struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Price       int64  `json:"price"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Images      []struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	} `json:"images"`
}

// All returns the full catalog.
func (c *Client) All(ctx context.Context) ([]product.Product, error) {
	records, err := c.query(ctx, graphql.NewRequest(allProductsQuery))
	if err != nil {
		return nil, errors.Wrap(err, "get all products")
	}
	return toProducts(records), nil
}

// ByIDs returns the products matching any of the given IDs. Unknown IDs are
// absent from the result without error.
func (c *Client) ByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	req := graphql.NewRequest(productsByIDsQuery)
	req.Var("ids", ids)

	records, err := c.query(ctx, req)
	if err != nil {
		return nil, errors.Wrap(err, "get products by ids")
	}
	return toProducts(records), nil
}

// BySlug returns the product with the given slug, with images narrowed to
// the first image, or product.ErrNotFound.
func (c *Client) BySlug(ctx context.Context, slug string) (*product.Product, error) {
	req := graphql.NewRequest(productsBySlugQuery)
	req.Var("slug", slug)

	records, err := c.query(ctx, req)
	if err != nil {
		return nil, errors.Wrapf(err, "get product %q", slug)
	}
	if len(records) == 0 {
		return nil, product.ErrNotFound
	}

	p := toProducts(records[:1])[0]
	return &p, nil
}

// Ping issues a minimal query to verify the catalog is reachable. Used by
// the readiness probe.
func (c *Client) Ping(ctx context.Context) error {
	req := graphql.NewRequest(pingQuery)
	c.authorize(req)

	var resp struct {
		Typename string `json:"__typename"`
	}
	if err := c.gql.Run(ctx, req, &resp); err != nil {
		return errors.Wrap(err, "ping catalog")
	}
	return nil
}

func (c *Client) query(ctx context.Context, req *graphql.Request) ([]productRecord, error) {
	c.authorize(req)

	var resp struct {
		Products []productRecord `json:"products"`
	}
	if err := c.gql.Run(ctx, req, &resp); err != nil {
		return nil, err
	}
	return resp.Products, nil
}

func (c *Client) authorize(req *graphql.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func toProducts(records []productRecord) []product.Product {
	products := make([]product.Product, len(records))
	for i, r := range records {
		images := make([]product.Image, len(r.Images))
		for j, img := range r.Images {
			images[j] = product.Image{ID: img.ID, URL: img.URL}
		}
		products[i] = product.Product{
			ID:          r.ID,
			Name:        r.Name,
			Slug:        r.Slug,
			Price:       r.Price,
			Description: r.Description,
			Images:      images,
		}
	}
	return products
}
