package browser

import (
	"errors"
	"fmt"
	"sync"

	"github.com/playwright-community/playwright-go"
)

// ErrNotTracing is returned by StopTracing when no trace is being recorded.
var ErrNotTracing = errors.New("no trace recording")

// PageContext owns the browser, context and page of a single test.
type PageContext struct {
	factory *Factory

	mu        sync.Mutex
	browser   playwright.Browser
	context   playwright.BrowserContext
	page      playwright.Page
	tracing   bool
	recording bool
	closed    bool
}

func NewPageContext(factory *Factory) *PageContext {
	return &PageContext{factory: factory}
}

// Initialize launches the browser and opens the page.
func (pc *PageContext) Initialize() error {
	browser, err := pc.factory.CreateBrowser()
	if err != nil {
		return err
	}
	bctx, page, err := pc.factory.CreatePage(browser)
	if err != nil {
		_ = browser.Close()
		return err
	}

	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.browser = browser
	pc.context = bctx
	pc.page = page
	pc.tracing = pc.factory.ui.Trace.Enabled()
	pc.recording = pc.factory.ui.Video.Enabled() && pc.factory.videoDir != ""
	return nil
}

func (pc *PageContext) Page() playwright.Page              { return pc.page }
func (pc *PageContext) Context() playwright.BrowserContext { return pc.context }
func (pc *PageContext) Browser() playwright.Browser        { return pc.browser }

// Screenshot writes a full page screenshot to path.
func (pc *PageContext) Screenshot(path string) error {
	if pc.page == nil {
		return errors.New("page not initialized")
	}
	_, err := pc.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	})
	return err
}

// StopTracing stops a running trace and saves it to path. An empty path discards the trace.
// It returns ErrNotTracing when tracing was never started or already stopped; nothing is written then.
func (pc *PageContext) StopTracing(path string) error {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if !pc.tracing || pc.context == nil {
		return ErrNotTracing
	}
	pc.tracing = false

	if path == "" {
		return pc.context.Tracing().Stop()
	}
	if err := pc.context.Tracing().Stop(path); err != nil {
		return fmt.Errorf("saving trace: %w", err)
	}
	return nil
}

// Finish closes the context, which finalizes the video, and returns the recorded video path.
// It returns "" when nothing was recorded.
func (pc *PageContext) Finish() (string, error) {
	var video playwright.Video
	if pc.page != nil && pc.recording {
		video = pc.page.Video()
	}

	closeErr := pc.Cleanup()
	if video == nil {
		return "", closeErr
	}

	path, err := video.Path()
	if err != nil {
		return "", errors.Join(closeErr, fmt.Errorf("resolving video path: %w", err))
	}
	return path, closeErr
}

// Cleanup closes the context and then the browser. Only the first call has an effect.
func (pc *PageContext) Cleanup() error {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if pc.closed {
		return nil
	}
	pc.closed = true

	var errs []error
	if pc.context != nil {
		if err := pc.context.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing context: %w", err))
		}
	}
	if pc.browser != nil {
		if err := pc.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing browser: %w", err))
		}
	}
	return errors.Join(errs...)
}
