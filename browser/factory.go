package browser

import (
	"fmt"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/networkteam/shopcheck/config"
)

// Kind is a supported browser flavour.
type Kind string

const (
	Chromium Kind = "chromium"
	Chrome   Kind = "chrome"
	Edge     Kind = "msedge"
	Firefox  Kind = "firefox"
	WebKit   Kind = "webkit"
)

// ParseKind maps a configured browser name to a Kind. Unknown names fall back to Chromium.
func ParseKind(name string) Kind {
	switch Kind(strings.ToLower(strings.TrimSpace(name))) {
	case Chrome:
		return Chrome
	case Edge, "edge":
		return Edge
	case Firefox:
		return Firefox
	case WebKit, "safari":
		return WebKit
	default:
		return Chromium
	}
}

// Channel returns the branded channel for Chromium based kinds.
func (k Kind) Channel() string {
	switch k {
	case Chrome, Edge:
		return string(k)
	}
	return ""
}

// LaunchOptions returns the browser kind and launch options for the UI settings.
func LaunchOptions(ui config.UISettings) (Kind, playwright.BrowserTypeLaunchOptions) {
	kind := ParseKind(ui.Browser)
	opts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(ui.Headless),
	}
	if ui.SlowMo > 0 {
		opts.SlowMo = playwright.Float(float64(ui.SlowMo.Milliseconds()))
	}
	if channel := kind.Channel(); channel != "" {
		opts.Channel = playwright.String(channel)
	}
	return kind, opts
}

// ContextOptions sizes the context to the resolved viewport and records video into videoDir
// unless video capture is off.
func ContextOptions(ui config.UISettings, videoDir string) playwright.BrowserNewContextOptions {
	width, height := ui.Viewport()
	opts := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{Width: width, Height: height},
	}
	if ui.Video.Enabled() && videoDir != "" {
		opts.RecordVideo = &playwright.RecordVideo{
			Dir:  videoDir,
			Size: &playwright.Size{Width: width, Height: height},
		}
	}
	return opts
}

// Factory creates browsers and pages configured from UI settings.
type Factory struct {
	pw       *playwright.Playwright
	ui       config.UISettings
	videoDir string
}

func NewFactory(pw *playwright.Playwright, ui config.UISettings, videoDir string) *Factory {
	return &Factory{pw: pw, ui: ui, videoDir: videoDir}
}

// CreateBrowser launches the configured browser kind.
func (f *Factory) CreateBrowser() (playwright.Browser, error) {
	kind, opts := LaunchOptions(f.ui)

	var browserType playwright.BrowserType
	switch kind {
	case Firefox:
		browserType = f.pw.Firefox
	case WebKit:
		browserType = f.pw.WebKit
	default:
		browserType = f.pw.Chromium
	}

	browser, err := browserType.Launch(opts)
	if err != nil {
		return nil, fmt.Errorf("launching %s: %w", kind, err)
	}
	return browser, nil
}

// CreatePage opens a new context and page in browser. Tracing is started unless disabled.
func (f *Factory) CreatePage(browser playwright.Browser) (playwright.BrowserContext, playwright.Page, error) {
	bctx, err := browser.NewContext(ContextOptions(f.ui, f.videoDir))
	if err != nil {
		return nil, nil, fmt.Errorf("creating browser context: %w", err)
	}

	if f.ui.Trace.Enabled() {
		err = bctx.Tracing().Start(playwright.TracingStartOptions{
			Screenshots: playwright.Bool(true),
			Snapshots:   playwright.Bool(true),
			Sources:     playwright.Bool(true),
		})
		if err != nil {
			_ = bctx.Close()
			return nil, nil, fmt.Errorf("starting trace: %w", err)
		}
	}

	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		return nil, nil, fmt.Errorf("opening page: %w", err)
	}
	page.SetDefaultTimeout(float64(f.ui.Timeout.Milliseconds()))

	return bctx, page, nil
}
