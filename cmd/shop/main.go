// Command shop is a terminal storefront client: it browses the catalog,
// keeps a session-local cart, and starts a hosted payment flow through the
// storefront API.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/evermart/storefront/internal/domain/cart"
	"github.com/evermart/storefront/internal/domain/product"
	"github.com/evermart/storefront/internal/handler"
)

const usage = `usage: shop [-api URL] <command>

commands:
  products              list the catalog
  product <slug>        show one product
  buy <slug>[=qty] ...  put products in the cart and check out`

func main() {
	var apiBase string
	flag.StringVar(&apiBase, "api", "http://localhost:8080", "storefront API base URL (or SHOP_API env)")
	flag.Parse()

	if v := os.Getenv("SHOP_API"); v != "" && apiBase == "http://localhost:8080" {
		apiBase = v
	}

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	client := &storeClient{
		base: strings.TrimRight(apiBase, "/"),
		hc:   &http.Client{Timeout: 15 * time.Second},
	}

	var err error
	switch args[0] {
	case "products":
		err = listProducts(ctx, client)
	case "product":
		if len(args) != 2 {
			fmt.Fprintln(os.Stderr, usage)
			os.Exit(2)
		}
		err = showProduct(ctx, client, args[1])
	case "buy":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, usage)
			os.Exit(2)
		}
		err = buy(ctx, client, args[1:])
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		slog.Error("shop failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func listProducts(ctx context.Context, client *storeClient) error {
	products, err := client.products(ctx, nil)
	if err != nil {
		return err
	}
	for _, p := range products {
		fmt.Printf("%-24s €%s  %s\n", p.Slug, majorUnits(p.Price), p.Name)
	}
	return nil
}

func showProduct(ctx context.Context, client *storeClient, slug string) error {
	p, err := client.productBySlug(ctx, slug)
	if err != nil {
		return err
	}
	fmt.Printf("%s\n€%s\n\n%s\n", p.Name, majorUnits(p.Price), p.Description)
	for _, img := range p.Images {
		fmt.Println(img.URL)
	}
	return nil
}

// buy resolves each slug to a product, funnels the picks into one cart, and
// checks the cart out. The per-product fetches run concurrently and resolve
// in arbitrary order, so every cart write goes through Update with a
// function of the previous state.
func buy(ctx context.Context, client *storeClient, picks []string) error {
	store := cart.NewStore()

	g, gctx := errgroup.WithContext(ctx)
	for _, pick := range picks {
		slug, qty, err := parsePick(pick)
		if err != nil {
			return err
		}
		g.Go(func() error {
			p, err := client.productBySlug(gctx, slug)
			if err != nil {
				return err
			}
			store.Update(func(items cart.Items) cart.Items {
				items[p.ID] = items[p.ID] + qty
				return items
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	items := store.Items()

	// Re-fetch by IDs for display, the way the cart page does. The server
	// recomputes the charge from the catalog; this total is advisory only.
	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fetched, err := client.products(ctx, ids)
	if err != nil {
		return err
	}

	products := make([]product.Product, len(fetched))
	byID := make(map[string]handler.ProductResponse, len(fetched))
	for i, p := range fetched {
		products[i] = product.Product{ID: p.ID, Name: p.Name, Slug: p.Slug, Price: p.Price}
		byID[p.ID] = p
	}

	total, err := cart.Total(items, products)
	if err != nil {
		return errors.Wrap(err, "price cart")
	}

	fmt.Printf("Cart (%d items)\n", store.Count())
	for _, id := range ids {
		p := byID[id]
		line := decimal.NewFromInt(p.Price).Mul(decimal.NewFromInt(int64(items[id]))).Div(decimal.NewFromInt(100))
		fmt.Printf("  %s x%d  €%s\n", p.Name, items[id], line.Round(2).StringFixed(2))
	}
	fmt.Printf("Total: €%s\n\n", total.StringFixed(2))

	session, err := client.checkout(ctx, items)
	if err != nil {
		return err
	}
	if session.URL == "" {
		return errors.New("payment unavailable: session has no hosted page")
	}

	fmt.Printf("Pay here:\n%s\n", session.URL)
	return nil
}

func parsePick(pick string) (slug string, qty int, err error) {
	slug, rawQty, found := strings.Cut(pick, "=")
	if !found {
		return slug, 1, nil
	}
	qty, err = strconv.Atoi(rawQty)
	if err != nil || qty < 1 {
		return "", 0, errors.Errorf("invalid quantity in %q", pick)
	}
	return slug, qty, nil
}

func majorUnits(minor int64) string {
	return decimal.NewFromInt(minor).Div(decimal.NewFromInt(100)).StringFixed(2)
}

// storeClient is a thin JSON client for the storefront API.
type storeClient struct {
	base string
	hc   *http.Client
}

func (c *storeClient) products(ctx context.Context, ids []string) ([]handler.ProductResponse, error) {
	url := c.base + "/api/products"
	if len(ids) > 0 {
		url += "?ids=" + strings.Join(ids, ",")
	}

	var resp struct {
		Products []handler.ProductResponse `json:"products"`
	}
	if err := c.get(ctx, url, &resp); err != nil {
		return nil, err
	}
	return resp.Products, nil
}

func (c *storeClient) productBySlug(ctx context.Context, slug string) (*handler.ProductResponse, error) {
	var p handler.ProductResponse
	if err := c.get(ctx, c.base+"/api/products/"+slug, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *storeClient) checkout(ctx context.Context, items cart.Items) (*handler.SessionBody, error) {
	body, err := json.Marshal(handler.CheckoutRequest{Items: items})
	if err != nil {
		return nil, errors.Wrap(err, "marshal checkout request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/checkout", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build checkout request")
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.hc.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "payment unavailable")
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusCreated {
		return nil, apiError(res)
	}

	var resp handler.SessionResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return nil, errors.Wrap(err, "decode checkout response")
	}
	return &resp.StripeSession, nil
}

func (c *storeClient) get(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrap(err, "build request")
	}

	res, err := c.hc.Do(req)
	if err != nil {
		return errors.Wrapf(err, "GET %s", url)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		return apiError(res)
	}
	return errors.Wrap(json.NewDecoder(res.Body).Decode(out), "decode response")
}

func apiError(res *http.Response) error {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err == nil && body.Message != "" {
		return errors.Errorf("%s: %s", res.Status, body.Message)
	}
	return errors.Errorf("unexpected status %s", res.Status)
}
