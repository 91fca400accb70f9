package pages

import (
	"fmt"
	"strconv"

	"github.com/playwright-community/playwright-go"
)

const (
	selHeader         = "[data-test='primary-header']"
	selMenuButton     = "#react-burger-menu-btn"
	selCartLink       = "[data-test='shopping-cart-link']"
	selCartBadge      = "[data-test='shopping-cart-badge']"
	selSidebar        = ".bm-menu-wrap"
	selSidebarAll     = "[data-test='inventory-sidebar-link']"
	selSidebarLogout  = "[data-test='logout-sidebar-link']"
	selSidebarClose   = ".bm-cross-button"
	selSortContainer  = "[data-test='product-sort-container']"
	selSortActive     = "[data-test='active-option']"
	patternInventory  = "**/inventory.html"
	patternCart       = "**/cart.html"
	patternStepOne    = "**/checkout-step-one.html"
	patternStepTwo    = "**/checkout-step-two.html"
	patternCompletion = "**/checkout-complete.html"
)

// Header is the top bar with the menu button and the cart link.
type Header struct {
	Region
	s screen
}

func (h Header) OpenMenu() (Sidebar, error) {
	if err := h.Click(selMenuButton); err != nil {
		return Sidebar{}, err
	}
	sidebar := Sidebar{Region: h.s.region(selSidebar), s: h.s}
	if err := sidebar.Find(selSidebarLogout).WaitFor(playwright.LocatorWaitForOptions{
		State: playwright.WaitForSelectorStateVisible,
	}); err != nil {
		return Sidebar{}, fmt.Errorf("waiting for menu: %w", err)
	}
	return sidebar, nil
}

// OpenCart follows the cart link.
func (h Header) OpenCart() (*CartPage, error) {
	if err := h.Click(selCartLink); err != nil {
		return nil, err
	}
	if err := h.s.waitForURL(patternCart); err != nil {
		return nil, err
	}
	return &CartPage{screen: h.s}, nil
}

// BadgeCount returns the number on the cart badge. A hidden or unparsable badge counts as 0.
func (h Header) BadgeCount() (int, error) {
	badge := h.Find(selCartBadge)
	visible, err := badge.IsVisible()
	if err != nil {
		return 0, fmt.Errorf("checking cart badge: %w", err)
	}
	if !visible {
		return 0, nil
	}
	text, err := badge.TextContent()
	if err != nil {
		return 0, fmt.Errorf("reading cart badge: %w", err)
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0, nil
	}
	return n, nil
}

// Sidebar is the slide-in navigation menu.
type Sidebar struct {
	Region
	s screen
}

func (sb Sidebar) AllItems() (*ProductsPage, error) {
	if err := sb.Click(selSidebarAll); err != nil {
		return nil, err
	}
	if err := sb.s.waitForURL(patternInventory); err != nil {
		return nil, err
	}
	return &ProductsPage{screen: sb.s}, nil
}

// Logout ends the session and returns to the login screen.
func (sb Sidebar) Logout() (*LoginPage, error) {
	if err := sb.Click(selSidebarLogout); err != nil {
		return nil, err
	}
	login := &LoginPage{screen: sb.s}
	if err := login.waitForLoad(); err != nil {
		return nil, err
	}
	return login, nil
}

func (sb Sidebar) Close() error {
	return sb.Click(selSidebarClose)
}

// SortOrder is one of the four sort options of the products screen.
type SortOrder int

const (
	SortNameAsc SortOrder = iota
	SortNameDesc
	SortPriceAsc
	SortPriceDesc
)

// Value is the option value used by the sort widget.
func (o SortOrder) Value() string {
	switch o {
	case SortNameDesc:
		return "za"
	case SortPriceAsc:
		return "lohi"
	case SortPriceDesc:
		return "hilo"
	default:
		return "az"
	}
}

func (o SortOrder) String() string {
	switch o {
	case SortNameDesc:
		return "Name (Z to A)"
	case SortPriceAsc:
		return "Price (low to high)"
	case SortPriceDesc:
		return "Price (high to low)"
	default:
		return "Name (A to Z)"
	}
}

// SortSelect is the product sort dropdown.
type SortSelect struct {
	Region
	s screen
}

func (ss SortSelect) Select(order SortOrder) error {
	_, err := ss.Root().SelectOption(playwright.SelectOptionValues{
		Values: playwright.StringSlice(order.Value()),
	})
	if err != nil {
		return fmt.Errorf("selecting sort %q: %w", order.Value(), err)
	}
	return nil
}

// Active returns the label of the selected option.
func (ss SortSelect) Active() (string, error) {
	return ss.s.region("body").Text(selSortActive)
}
