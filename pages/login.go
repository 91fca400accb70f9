package pages

import (
	"fmt"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/networkteam/shopcheck/config"
)

const (
	selUsername       = "[data-test='username']"
	selPassword       = "[data-test='password']"
	selLoginButton    = "[data-test='login-button']"
	selLoginError     = "[data-test='error']"
	selLoginUsernames = "[data-test='login-credentials']"
	selLoginPasswords = "[data-test='login-password']"
)

// LoginPage is the entry screen.
type LoginPage struct {
	screen
}

func NewLoginPage(page playwright.Page, ui config.UISettings) *LoginPage {
	return &LoginPage{screen: newScreen(page, ui)}
}

// Open navigates to the base URL and waits for the login screen.
func (p *LoginPage) Open() error {
	if err := p.navigate("/"); err != nil {
		return err
	}
	return p.waitForLoad()
}

func (p *LoginPage) waitForLoad() error {
	return p.waitForURL(strings.TrimRight(p.baseURL, "/") + "/")
}

func (p *LoginPage) fillCredentials(username, password string) error {
	if err := p.page.Locator(selUsername).Fill(username); err != nil {
		return fmt.Errorf("filling username: %w", err)
	}
	if err := p.page.Locator(selPassword).Fill(password); err != nil {
		return fmt.Errorf("filling password: %w", err)
	}
	return p.region("body").Click(selLoginButton)
}

// Login signs in and waits for the products screen.
func (p *LoginPage) Login(username, password string) (*ProductsPage, error) {
	if err := p.fillCredentials(username, password); err != nil {
		return nil, err
	}
	if err := p.waitForURL(patternInventory); err != nil {
		return nil, err
	}
	return &ProductsPage{screen: p.screen}, nil
}

// TryLogin submits credentials and stays on the login screen, e.g. to read the error message.
func (p *LoginPage) TryLogin(username, password string) error {
	return p.fillCredentials(username, password)
}

func (p *LoginPage) ErrorMessage() (string, error) {
	return p.region("body").Text(selLoginError)
}

// AreCredentialsVisible reports whether both the user name and the password hints are shown.
func (p *LoginPage) AreCredentialsVisible() (bool, error) {
	users, err := p.page.Locator(selLoginUsernames).IsVisible()
	if err != nil {
		return false, err
	}
	passwords, err := p.page.Locator(selLoginPasswords).IsVisible()
	if err != nil {
		return false, err
	}
	return users && passwords, nil
}

// FirstUsername returns the first accepted user name listed on the page.
func (p *LoginPage) FirstUsername() (string, error) {
	return p.firstHint(selLoginUsernames)
}

// FirstPassword returns the password listed on the page.
func (p *LoginPage) FirstPassword() (string, error) {
	return p.firstHint(selLoginPasswords)
}

func (p *LoginPage) firstHint(selector string) (string, error) {
	text, err := p.page.Locator(selector).InnerText()
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", selector, err)
	}
	return FirstLineAfterHeader(text), nil
}
