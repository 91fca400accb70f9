package pages

const (
	selCartList         = "[data-test='cart-list']"
	selCheckout         = "[data-test='checkout']"
	selContinueShopping = "[data-test='continue-shopping']"
)

// CartPage lists the cart contents.
type CartPage struct {
	screen
}

func (p *CartPage) Header() Header     { return Header{Region: p.region(selHeader), s: p.screen} }
func (p *CartPage) CartList() CartList { return CartList{Region: p.region(selCartList)} }

// Checkout starts the checkout flow.
func (p *CartPage) Checkout() (*CheckoutInfoPage, error) {
	if err := p.clickAndWait(selCheckout, patternStepOne); err != nil {
		return nil, err
	}
	return &CheckoutInfoPage{screen: p.screen}, nil
}

// ContinueShopping returns to the products screen.
func (p *CartPage) ContinueShopping() (*ProductsPage, error) {
	if err := p.clickAndWait(selContinueShopping, patternInventory); err != nil {
		return nil, err
	}
	return &ProductsPage{screen: p.screen}, nil
}

// IsCheckoutEnabled reports whether the checkout button can be used. Any error counts as disabled.
func (p *CartPage) IsCheckoutEnabled() bool {
	button := p.page.Locator(selCheckout)
	visible, err := button.IsVisible()
	if err != nil || !visible {
		return false
	}
	enabled, err := button.IsEnabled()
	if err != nil || !enabled {
		return false
	}
	disabled, err := button.IsDisabled()
	return err == nil && !disabled
}
