package pages

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// enumerate counts the matching elements now and wraps each one by index.
func enumerate[T any](r Region, selector string, wrap func(Region) T) ([]T, error) {
	locator := r.Find(selector)
	n, err := locator.Count()
	if err != nil {
		return nil, fmt.Errorf("counting %s: %w", selector, err)
	}
	items := make([]T, n)
	for i := range n {
		items[i] = wrap(Region{root: locator.Nth(i)})
	}
	return items, nil
}

// ProductGrid is the inventory list on the products screen.
type ProductGrid struct {
	Region
}

func (g ProductGrid) Items() ([]ProductItem, error) {
	return enumerate(g.Region, selItem, func(r Region) ProductItem {
		return ProductItem{itemDetails{r}}
	})
}

func (g ProductGrid) Count() (int, error) {
	return g.Find(selItem).Count()
}

// ItemByName looks a product up by name, case-insensitively.
func (g ProductGrid) ItemByName(name string) (ProductItem, bool, error) {
	items, err := g.Items()
	if err != nil {
		return ProductItem{}, false, err
	}
	return findByName(items, name)
}

func (g ProductGrid) Names() ([]string, error) {
	items, err := g.Items()
	if err != nil {
		return nil, err
	}
	return namesOf(items)
}

// Prices returns the prices in display order.
func (g ProductGrid) Prices() ([]decimal.Decimal, error) {
	items, err := g.Items()
	if err != nil {
		return nil, err
	}
	prices := make([]decimal.Decimal, 0, len(items))
	for _, it := range items {
		p, err := it.Price()
		if err != nil {
			return nil, err
		}
		prices = append(prices, p)
	}
	return prices, nil
}

// CartList is the list of cart lines on the cart and checkout overview screens.
type CartList struct {
	Region
}

func (c CartList) Items() ([]CartItem, error) {
	return enumerate(c.Region, selItem, func(r Region) CartItem {
		return CartItem{itemDetails{r}}
	})
}

func (c CartList) Count() (int, error) {
	return c.Find(selItem).Count()
}

// ItemByName looks a cart line up by product name, case-insensitively.
func (c CartList) ItemByName(name string) (CartItem, bool, error) {
	items, err := c.Items()
	if err != nil {
		return CartItem{}, false, err
	}
	return findByName(items, name)
}

// RemoveByName removes the named product. A missing product is an error.
func (c CartList) RemoveByName(name string) error {
	item, found, err := c.ItemByName(name)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w in cart: %q", ErrProductNotFound, name)
	}
	return item.Remove()
}

func (c CartList) Names() ([]string, error) {
	items, err := c.Items()
	if err != nil {
		return nil, err
	}
	return namesOf(items)
}

// TotalPrice sums price times quantity over all lines.
func (c CartList) TotalPrice() (decimal.Decimal, error) {
	items, err := c.Items()
	if err != nil {
		return decimal.Zero, err
	}
	totals := make([]decimal.Decimal, 0, len(items))
	for _, it := range items {
		total, err := it.LineTotal()
		if err != nil {
			return decimal.Zero, err
		}
		totals = append(totals, total)
	}
	return lo.Reduce(totals, func(sum decimal.Decimal, d decimal.Decimal, _ int) decimal.Decimal {
		return sum.Add(d)
	}, decimal.Zero), nil
}
