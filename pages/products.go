package pages

import (
	"fmt"

	"github.com/playwright-community/playwright-go"

	"github.com/networkteam/shopcheck/config"
)

const (
	selInventoryList = "[data-test='inventory-list']"
	selTitle         = "[data-test='title']"
)

// ProductsPage is the inventory screen shown after login.
type ProductsPage struct {
	screen
}

// NewProductsPage binds to a page that already shows the inventory.
func NewProductsPage(page playwright.Page, ui config.UISettings) *ProductsPage {
	return &ProductsPage{screen: newScreen(page, ui)}
}

func (p *ProductsPage) WaitForLoad() error { return p.waitForURL(patternInventory) }

func (p *ProductsPage) Title() (string, error) { return p.region("body").Text(selTitle) }

func (p *ProductsPage) Header() Header   { return Header{Region: p.region(selHeader), s: p.screen} }
func (p *ProductsPage) Sidebar() Sidebar { return Sidebar{Region: p.region(selSidebar), s: p.screen} }
func (p *ProductsPage) Sort() SortSelect {
	return SortSelect{Region: p.region(selSortContainer), s: p.screen}
}
func (p *ProductsPage) Grid() ProductGrid {
	return ProductGrid{Region: p.region(selInventoryList)}
}

// AddToCartByName adds the named product. A name not in the grid is an error.
func (p *ProductsPage) AddToCartByName(name string) error {
	item, found, err := p.Grid().ItemByName(name)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %q", ErrProductNotFound, name)
	}
	return item.AddToCart()
}

// AddToCartByIndex adds the product at the zero-based grid position.
func (p *ProductsPage) AddToCartByIndex(index int) error {
	items, err := p.Grid().Items()
	if err != nil {
		return err
	}
	if index < 0 || index >= len(items) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, len(items))
	}
	return items[index].AddToCart()
}

// RemoveFromCartByName removes the named product from the cart while staying on the grid.
func (p *ProductsPage) RemoveFromCartByName(name string) error {
	item, found, err := p.Grid().ItemByName(name)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %q", ErrProductNotFound, name)
	}
	return item.Remove()
}

func (p *ProductsPage) OpenCart() (*CartPage, error) {
	return p.Header().OpenCart()
}
