package shopcheck

import (
	"errors"
	"fmt"
	"html"
	"io/fs"
	"log/slog"
	"os"
	"testing"

	"github.com/playwright-community/playwright-go"

	"github.com/networkteam/shopcheck/artifacts"
	"github.com/networkteam/shopcheck/browser"
	"github.com/networkteam/shopcheck/config"
	"github.com/networkteam/shopcheck/pages"
	"github.com/networkteam/shopcheck/report"
)

// UITest is the fixture of a browser test. Each test gets its own browser, context and page.
type UITest struct {
	fixture
	ui      config.UISettings
	session *browser.PageContext
}

// UI starts a browser for t and registers the teardown that persists artifacts and closes it.
func (i *Instance) UI(t testing.TB, options ...TestOption) *UITest {
	t.Helper()

	u := &UITest{fixture: i.newFixture(t, options), ui: i.settings.UI}
	if u.config.baseURL != "" {
		u.ui.BaseURL = u.config.baseURL
	}
	t.Cleanup(u.teardown)

	pw, err := i.Playwright()
	u.Require().NoError(err, "starting the browser driver")

	u.session = browser.NewPageContext(browser.NewFactory(pw, u.ui, i.artifacts.VideosDir()))
	u.Require().NoError(u.session.Initialize(), "initializing browser and page")
	return u
}

func (u *UITest) teardown() {
	if u.session == nil {
		recordOutcome(u.test, u.failed(), u.failureMessage())
		u.test.End()
		return
	}
	teardownUI(uiTeardown{
		ui:        u.ui,
		artifacts: u.instance.artifacts,
		test:      u.test,
		logger:    u.logger,
		session:   u.session,
	}, u.tb.Name(), u.failed(), u.failureMessage())
}

func (u *UITest) Page() playwright.Page { return u.session.Page() }

func (u *UITest) LoginPage() *pages.LoginPage {
	return pages.NewLoginPage(u.Page(), u.ui)
}

func (u *UITest) ProductsPage() *pages.ProductsPage {
	return pages.NewProductsPage(u.Page(), u.ui)
}

// Screenshot captures the page now and attaches it to the report.
func (u *UITest) Screenshot(name string) error {
	path := u.instance.artifacts.ScreenshotPath(name, "Manual")
	if err := u.session.Screenshot(path); err != nil {
		return fmt.Errorf("taking screenshot: %w", err)
	}
	u.test.AddScreenshot(report.StatusInfo, u.instance.artifacts.Rel(path), name)
	return nil
}

// uiSession is the part of browser.PageContext used during teardown.
type uiSession interface {
	Screenshot(path string) error
	StopTracing(path string) error
	Finish() (string, error)
	Cleanup() error
}

type uiTeardown struct {
	ui        config.UISettings
	artifacts *artifacts.Manager
	test      *report.Test
	logger    *slog.Logger
	session   uiSession
}

// teardownUI records the outcome and persists or discards screenshots, traces and videos
// according to the capture modes. Artifact errors are reported as warnings and never change
// the outcome. The session is always cleaned up.
func teardownUI(td uiTeardown, name string, failed bool, message string) {
	defer td.test.End()
	defer func() {
		if err := td.session.Cleanup(); err != nil {
			td.logger.Debug("Cleanup after teardown failed", slog.Any("err", err))
		}
	}()

	recordOutcome(td.test, failed, message)
	if failed {
		if td.ui.Screenshot.Enabled() {
			td.screenshot(name, "Failed", report.StatusFail)
		}
		if td.ui.Trace.Enabled() {
			td.saveTrace(name)
		}
	} else {
		if td.ui.Screenshot == config.CaptureOn {
			td.screenshot(name, "Passed", report.StatusPass)
		}
		switch {
		case td.ui.Trace == config.CaptureOn:
			td.saveTrace(name)
		case td.ui.Trace.Enabled():
			if err := td.session.StopTracing(""); err != nil && !errors.Is(err, browser.ErrNotTracing) {
				td.logger.Debug("Discarding trace failed", slog.Any("err", err))
			}
		}
	}

	if td.ui.Video.Enabled() {
		td.video(name, failed)
	}
}

func recordOutcome(test *report.Test, failed bool, message string) {
	if failed {
		test.Fail(message)
	} else {
		test.Pass("Test passed")
	}
}

func (td uiTeardown) warn(what string, err error) {
	td.logger.Warn(what+" failed", slog.Any("err", err))
	td.test.Warning(fmt.Sprintf("%s failed: %v", what, err))
}

func (td uiTeardown) screenshot(name, suffix string, status report.Status) {
	path := td.artifacts.ScreenshotPath(name, suffix)
	if err := td.session.Screenshot(path); err != nil {
		td.warn("Screenshot capture", err)
		return
	}
	td.test.AddScreenshot(status, td.artifacts.Rel(path), suffix+" screenshot")
	td.logger.Info("Screenshot saved", slog.String("path", path))
}

func (td uiTeardown) saveTrace(name string) {
	path := td.artifacts.TracePath(name)
	err := td.session.StopTracing(path)
	if errors.Is(err, browser.ErrNotTracing) {
		td.logger.Debug("No trace recorded", slog.String("path", path))
		return
	}
	if err != nil {
		td.warn("Trace capture", err)
		return
	}
	td.test.AddHTML(report.StatusInfo, fmt.Sprintf(
		"<a href='%s' download>Download Playwright trace (.zip)</a>",
		html.EscapeString(td.artifacts.Rel(path)),
	))
	td.logger.Info("Trace saved", slog.String("path", path))
}

func (td uiTeardown) video(name string, failed bool) {
	path, err := td.session.Finish()
	if errors.Is(err, playwright.ErrTargetClosed) {
		td.logger.Debug("Video finish: context already closed", slog.Any("err", err))
	} else if err != nil {
		td.warn("Video handling", err)
	}
	if path == "" {
		return
	}

	if !td.ui.Video.Keep(failed) {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			td.warn("Deleting video", err)
		}
		return
	}

	suffix := "Passed"
	if failed {
		suffix = "Failed"
	}
	final := td.artifacts.RenameVideo(path, name, suffix)
	if final == "" {
		td.logger.Debug("No video file written", slog.String("path", path))
		return
	}
	rel := html.EscapeString(td.artifacts.Rel(final))
	td.test.AddHTML(report.StatusInfo, fmt.Sprintf(
		"<video width='800' controls><source src='%s' type='video/webm'>Your browser does not support the video tag.</video><br/><a href='%s' target='_blank'>Open video in new tab</a>",
		rel, rel,
	))
	td.logger.Info("Video saved", slog.String("path", final))
}
