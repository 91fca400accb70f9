package pages

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	selFirstName     = "[data-test='firstName']"
	selLastName      = "[data-test='lastName']"
	selPostalCode    = "[data-test='postalCode']"
	selContinue      = "[data-test='continue']"
	selCancel        = "[data-test='cancel']"
	selCheckoutError = "[data-test='error']"

	selFinish       = "[data-test='finish']"
	selPaymentInfo  = "[data-test='payment-info-value']"
	selShippingInfo = "[data-test='shipping-info-value']"
	selSubtotal     = "[data-test='subtotal-label']"
	selTax          = "[data-test='tax-label']"
	selTotal        = "[data-test='total-label']"

	selCompleteHeader = "[data-test='complete-header']"
	selCompleteText   = "[data-test='complete-text']"
	selBackToProducts = "[data-test='back-to-products']"
)

// CheckoutInfoPage collects the buyer's name and postal code.
type CheckoutInfoPage struct {
	screen
}

func (p *CheckoutInfoPage) fill(selector, value string) error {
	if err := p.page.Locator(selector).Fill(value); err != nil {
		return fmt.Errorf("filling %s: %w", selector, err)
	}
	return nil
}

func (p *CheckoutInfoPage) FillFirstName(name string) error  { return p.fill(selFirstName, name) }
func (p *CheckoutInfoPage) FillLastName(name string) error   { return p.fill(selLastName, name) }
func (p *CheckoutInfoPage) FillPostalCode(code string) error { return p.fill(selPostalCode, code) }

// FillForm fills all three fields.
func (p *CheckoutInfoPage) FillForm(firstName, lastName, postalCode string) error {
	if err := p.FillFirstName(firstName); err != nil {
		return err
	}
	if err := p.FillLastName(lastName); err != nil {
		return err
	}
	return p.FillPostalCode(postalCode)
}

// Continue submits the form and waits for the overview.
func (p *CheckoutInfoPage) Continue() (*CheckoutSummaryPage, error) {
	if err := p.clickAndWait(selContinue, patternStepTwo); err != nil {
		return nil, err
	}
	return &CheckoutSummaryPage{screen: p.screen}, nil
}

// Cancel abandons checkout and returns to the cart.
func (p *CheckoutInfoPage) Cancel() (*CartPage, error) {
	if err := p.clickAndWait(selCancel, patternCart); err != nil {
		return nil, err
	}
	return &CartPage{screen: p.screen}, nil
}

func (p *CheckoutInfoPage) ErrorMessage() (string, error) {
	return p.region("body").Text(selCheckoutError)
}

// CheckoutSummaryPage is the order overview before finishing.
type CheckoutSummaryPage struct {
	screen
}

func (p *CheckoutSummaryPage) CartList() CartList { return CartList{Region: p.region(selCartList)} }

func (p *CheckoutSummaryPage) PaymentInfo() (string, error) {
	return p.region("body").Text(selPaymentInfo)
}

func (p *CheckoutSummaryPage) ShippingInfo() (string, error) {
	return p.region("body").Text(selShippingInfo)
}

func (p *CheckoutSummaryPage) amount(selector string) (decimal.Decimal, error) {
	text, err := p.region("body").Text(selector)
	if err != nil {
		return decimal.Zero, err
	}
	return ParsePrice(text), nil
}

func (p *CheckoutSummaryPage) Subtotal() (decimal.Decimal, error) { return p.amount(selSubtotal) }
func (p *CheckoutSummaryPage) Tax() (decimal.Decimal, error)      { return p.amount(selTax) }
func (p *CheckoutSummaryPage) Total() (decimal.Decimal, error)    { return p.amount(selTotal) }

// Finish places the order.
func (p *CheckoutSummaryPage) Finish() (*CheckoutCompletePage, error) {
	if err := p.clickAndWait(selFinish, patternCompletion); err != nil {
		return nil, err
	}
	return &CheckoutCompletePage{screen: p.screen}, nil
}

// CheckoutCompletePage confirms the order.
type CheckoutCompletePage struct {
	screen
}

func (p *CheckoutCompletePage) Header() Header {
	return Header{Region: p.region(selHeader), s: p.screen}
}
func (p *CheckoutCompletePage) Sidebar() Sidebar {
	return Sidebar{Region: p.region(selSidebar), s: p.screen}
}

func (p *CheckoutCompletePage) Title() (string, error) {
	return p.region("body").Text(selCompleteHeader)
}

func (p *CheckoutCompletePage) Text() (string, error) {
	return p.region("body").Text(selCompleteText)
}

// BackHome returns to the products screen.
func (p *CheckoutCompletePage) BackHome() (*ProductsPage, error) {
	if err := p.clickAndWait(selBackToProducts, patternInventory); err != nil {
		return nil, err
	}
	return &ProductsPage{screen: p.screen}, nil
}
