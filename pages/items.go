package pages

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	selItem            = "[data-test='inventory-item']"
	selItemName        = "[data-test='inventory-item-name']"
	selItemDescription = "[data-test='inventory-item-desc']"
	selItemPrice       = "[data-test='inventory-item-price']"
	selItemImage       = ".inventory_item_img a img"
	selAddToCart       = "button[data-test^='add-to-cart']"
	selRemove          = "button[data-test^='remove']"
	selItemQuantity    = "[data-test='item-quantity']"
)

var (
	// ErrProductNotFound is returned by page level conveniences when no product has the given name.
	ErrProductNotFound = errors.New("product not found")
	// ErrIndexOutOfRange is returned when a product index is outside the grid.
	ErrIndexOutOfRange = errors.New("product index out of range")
)

// itemDetails is shared by grid items and cart lines.
type itemDetails struct {
	Region
}

func (d itemDetails) Name() (string, error)        { return d.Text(selItemName) }
func (d itemDetails) Description() (string, error) { return d.Text(selItemDescription) }

// Price returns the parsed item price. Unparsable text yields zero.
func (d itemDetails) Price() (decimal.Decimal, error) {
	text, err := d.Text(selItemPrice)
	if err != nil {
		return decimal.Zero, err
	}
	return ParsePrice(text), nil
}

// ClickName opens the item's detail view.
func (d itemDetails) ClickName() error {
	return d.Click(selItemName)
}

// ProductItem is one product card in the inventory grid.
type ProductItem struct {
	itemDetails
}

func (p ProductItem) ImageSrc() (string, error) {
	return p.Find(selItemImage).First().GetAttribute("src")
}

func (p ProductItem) AddToCart() error { return p.Click(selAddToCart) }
func (p ProductItem) Remove() error    { return p.Click(selRemove) }

// IsInCart reports whether the product shows a remove button instead of add to cart.
func (p ProductItem) IsInCart() (bool, error) {
	return p.Find(selRemove).First().IsVisible()
}

// CartItem is one line in the cart or checkout overview.
type CartItem struct {
	itemDetails
}

// Quantity returns the line quantity, or 0 when it cannot be read.
func (c CartItem) Quantity() int {
	text, err := c.Text(selItemQuantity)
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0
	}
	return n
}

func (c CartItem) Remove() error { return c.Click(selRemove) }

// LineTotal is price times quantity.
func (c CartItem) LineTotal() (decimal.Decimal, error) {
	price, err := c.Price()
	if err != nil {
		return decimal.Zero, err
	}
	return price.Mul(decimal.NewFromInt(int64(c.Quantity()))), nil
}

type named interface {
	Name() (string, error)
}

// findByName returns the first item whose name matches case-insensitively.
// found is false when no item matches.
func findByName[T named](items []T, name string) (item T, found bool, err error) {
	want := strings.TrimSpace(name)
	for _, it := range items {
		got, err := it.Name()
		if err != nil {
			return item, false, fmt.Errorf("reading item name: %w", err)
		}
		if strings.EqualFold(strings.TrimSpace(got), want) {
			return it, true, nil
		}
	}
	return item, false, nil
}

func namesOf[T named](items []T) ([]string, error) {
	names := make([]string, 0, len(items))
	for _, it := range items {
		name, err := it.Name()
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}
