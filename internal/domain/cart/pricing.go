package cart

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/evermart/storefront/internal/domain/product"
)

// minorUnitScale converts catalog prices (cents) to major currency units.
var minorUnitScale = decimal.NewFromInt(100)

// MissingProductError indicates the cart references a product absent from
// the supplied product set. Skipping such an item would misrepresent the
// total, so the calculation fails instead.
type MissingProductError struct {
	ProductID string
}

func (e *MissingProductError) Error() string {
	return fmt.Sprintf("cart references unknown product %s", e.ProductID)
}

// Total computes the display total for the cart in major currency units,
// rounded to two decimal places.
//
// An empty product set yields zero: it means the catalog data has not loaded
// yet, and a momentarily-wrong total is worse than none. Once products are
// supplied, every cart entry must resolve or Total returns a
// *MissingProductError.
func Total(items Items, products []product.Product) (decimal.Decimal, error) {
	if len(products) == 0 {
		return decimal.Zero, nil
	}

	byID := make(map[string]product.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	sum := decimal.Zero
	for id, qty := range items {
		p, ok := byID[id]
		if !ok {
			return decimal.Zero, &MissingProductError{ProductID: id}
		}
		line := decimal.NewFromInt(p.Price).Mul(decimal.NewFromInt(int64(qty)))
		sum = sum.Add(line)
	}

	return sum.Div(minorUnitScale).Round(2), nil
}
