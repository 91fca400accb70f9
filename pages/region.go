package pages

import (
	"fmt"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/networkteam/shopcheck/config"
)

// Region is a scoped handle to one part of the rendered page. Regions own nothing: the page owns
// the underlying element, and a Region is created fresh on every access.
type Region struct {
	root playwright.Locator
}

func NewRegion(root playwright.Locator) Region {
	return Region{root: root}
}

func (r Region) Root() playwright.Locator { return r.root }

// Find locates elements within the region.
func (r Region) Find(selector string) playwright.Locator {
	return r.root.Locator(selector)
}

func (r Region) IsVisible() (bool, error) {
	return r.root.IsVisible()
}

// Text returns the trimmed text content of the first element matching selector.
func (r Region) Text(selector string) (string, error) {
	text, err := r.Find(selector).First().TextContent()
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", selector, err)
	}
	return strings.TrimSpace(text), nil
}

func (r Region) Click(selector string) error {
	if err := r.Find(selector).First().Click(); err != nil {
		return fmt.Errorf("clicking %s: %w", selector, err)
	}
	return nil
}

// screen holds what every page object needs: the live page and the base URL.
type screen struct {
	page    playwright.Page
	baseURL string
}

func newScreen(page playwright.Page, ui config.UISettings) screen {
	return screen{page: page, baseURL: ui.BaseURL}
}

func (s screen) region(selector string) Region {
	return Region{root: s.page.Locator(selector)}
}

func (s screen) navigate(path string) error {
	url := JoinURL(s.baseURL, path)
	if _, err := s.page.Goto(url); err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	return nil
}

func (s screen) waitForURL(pattern string) error {
	if err := s.page.WaitForURL(pattern); err != nil {
		return fmt.Errorf("waiting for %s: %w", pattern, err)
	}
	return nil
}

// clickAndWait performs a transition: click selector, then wait for the next screen's URL.
func (s screen) clickAndWait(selector, pattern string) error {
	if err := s.region("body").Click(selector); err != nil {
		return err
	}
	return s.waitForURL(pattern)
}

// JoinURL joins a base URL and a relative path with exactly one slash between them.
func JoinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
