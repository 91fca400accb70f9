package shopcheck

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/networkteam/shopcheck/artifacts"
	"github.com/networkteam/shopcheck/browser"
	"github.com/networkteam/shopcheck/config"
	"github.com/networkteam/shopcheck/report"
)

type fakeSession struct {
	screenshotErr error
	traceErr      error
	finishErr     error
	cleanupErr    error
	// video is the file Finish reports. It is created on disk by newTeardown.
	video string

	screenshots []string
	traces      []string
	finished    int
	cleaned     int
}

func (s *fakeSession) Screenshot(path string) error {
	s.screenshots = append(s.screenshots, path)
	return s.screenshotErr
}

func (s *fakeSession) StopTracing(path string) error {
	s.traces = append(s.traces, path)
	return s.traceErr
}

func (s *fakeSession) Finish() (string, error) {
	s.finished++
	return s.video, s.finishErr
}

func (s *fakeSession) Cleanup() error {
	s.cleaned++
	return s.cleanupErr
}

func newTeardown(t *testing.T, ui config.UISettings, session *fakeSession) (uiTeardown, *artifacts.Manager) {
	t.Helper()

	manager := artifacts.New(t.TempDir(), "TestReports")
	manager.RenameDelay = 0
	manager.Now = func() time.Time { return time.Date(2026, 10, 19, 14, 30, 5, 0, time.UTC) }
	require.NoError(t, manager.EnsureDirs())

	if session.video != "" {
		session.video = filepath.Join(manager.VideosDir(), session.video)
		require.NoError(t, os.WriteFile(session.video, []byte("webm"), 0o644))
	}

	return uiTeardown{
		ui:        ui,
		artifacts: manager,
		test:      report.New(report.Options{}).CreateTest("TestCheckout", ""),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		session:   session,
	}, manager
}

func captureModes(screenshot, trace, video config.CaptureMode) config.UISettings {
	return config.UISettings{Screenshot: screenshot, Trace: trace, Video: video}
}

func entriesOfKind(test *report.Test, kind report.EntryKind) []report.Entry {
	return lo.Filter(test.Entries(), func(e report.Entry, _ int) bool { return e.Kind == kind })
}

func TestTeardownUI_FailedKeepsEverything(t *testing.T) {
	session := &fakeSession{video: "page@1234.webm"}
	td, manager := newTeardown(t, captureModes(config.CaptureOnlyOnFailure, config.CaptureRetainOnFailure, config.CaptureRetainOnFailure), session)

	teardownUI(td, "TestCheckout", true, "expected 2 items")

	assert.Equal(t, report.StatusFail, td.test.Status())
	assert.Equal(t, "expected 2 items", td.test.Entries()[0].Message)

	require.Len(t, session.screenshots, 1)
	assert.Equal(t, "TestCheckout_Failed_20261019_143005.png", filepath.Base(session.screenshots[0]))
	screenshots := entriesOfKind(td.test, report.KindScreenshot)
	require.Len(t, screenshots, 1)
	assert.Equal(t, "screenshots/TestCheckout_Failed_20261019_143005.png", screenshots[0].Path)
	assert.Equal(t, report.StatusFail, screenshots[0].Status)

	require.Len(t, session.traces, 1)
	assert.Equal(t, filepath.Join(manager.TracesDir(), "TestCheckout_trace_20261019_143005.zip"), session.traces[0])

	renamed := filepath.Join(manager.VideosDir(), "TestCheckout_Failed_20261019_143005.webm")
	assert.FileExists(t, renamed)
	assert.NoFileExists(t, session.video)

	htmlEntries := entriesOfKind(td.test, report.KindHTML)
	require.Len(t, htmlEntries, 2)
	assert.Contains(t, htmlEntries[0].HTML, "traces/TestCheckout_trace_20261019_143005.zip")
	assert.Contains(t, htmlEntries[0].HTML, "Download Playwright trace (.zip)")
	assert.Contains(t, htmlEntries[1].HTML, "<video")
	assert.Contains(t, htmlEntries[1].HTML, "videos/TestCheckout_Failed_20261019_143005.webm")

	assert.Equal(t, 1, session.cleaned)
}

func TestTeardownUI_PassedDiscardsFailureArtifacts(t *testing.T) {
	session := &fakeSession{video: "page@1234.webm"}
	td, manager := newTeardown(t, captureModes(config.CaptureOnlyOnFailure, config.CaptureRetainOnFailure, config.CaptureRetainOnFailure), session)

	teardownUI(td, "TestCheckout", false, DefaultFailureMessage)

	assert.Equal(t, report.StatusPass, td.test.Status())
	assert.Equal(t, "Test passed", td.test.Entries()[0].Message)

	assert.Empty(t, session.screenshots)
	// Tracing is stopped without writing a file.
	assert.Equal(t, []string{""}, session.traces)

	assert.NoFileExists(t, session.video)
	entries, err := os.ReadDir(manager.VideosDir())
	require.NoError(t, err)
	assert.Empty(t, entries)

	assert.Empty(t, entriesOfKind(td.test, report.KindHTML))
	assert.Equal(t, 1, session.cleaned)
}

func TestTeardownUI_PassedWithCaptureOn(t *testing.T) {
	session := &fakeSession{video: "page@1234.webm"}
	td, manager := newTeardown(t, captureModes(config.CaptureOn, config.CaptureOn, config.CaptureOn), session)

	teardownUI(td, "TestSorting", false, "")

	assert.Equal(t, report.StatusPass, td.test.Status())

	require.Len(t, session.screenshots, 1)
	assert.Equal(t, "TestSorting_Passed_20261019_143005.png", filepath.Base(session.screenshots[0]))
	screenshots := entriesOfKind(td.test, report.KindScreenshot)
	require.Len(t, screenshots, 1)
	assert.Equal(t, report.StatusPass, screenshots[0].Status)

	require.Len(t, session.traces, 1)
	assert.NotEmpty(t, session.traces[0])

	assert.FileExists(t, filepath.Join(manager.VideosDir(), "TestSorting_Passed_20261019_143005.webm"))
	assert.Len(t, entriesOfKind(td.test, report.KindHTML), 2)
}

func TestTeardownUI_CaptureOff(t *testing.T) {
	session := &fakeSession{video: "page@1234.webm"}
	td, _ := newTeardown(t, captureModes(config.CaptureOff, config.CaptureOff, config.CaptureOff), session)

	teardownUI(td, "TestCheckout", true, "boom")

	assert.Empty(t, session.screenshots)
	assert.Empty(t, session.traces)
	assert.Zero(t, session.finished)
	// The video file stays untouched when recording is off.
	assert.FileExists(t, session.video)
	assert.Equal(t, 1, session.cleaned)
	assert.Len(t, td.test.Entries(), 1)
}

func TestTeardownUI_ArtifactErrorsAreWarnings(t *testing.T) {
	session := &fakeSession{
		screenshotErr: errors.New("page crashed"),
		traceErr:      errors.New("tracing not started"),
		finishErr:     errors.New("disk full"),
		cleanupErr:    errors.New("already closed"),
	}
	td, _ := newTeardown(t, captureModes(config.CaptureOn, config.CaptureOn, config.CaptureOn), session)

	teardownUI(td, "TestCheckout", false, "")

	messages := lo.FilterMap(td.test.Entries(), func(e report.Entry, _ int) (string, bool) {
		return e.Message, e.Status == report.StatusWarning
	})
	assert.Equal(t, []string{
		"Screenshot capture failed: page crashed",
		"Trace capture failed: tracing not started",
		"Video handling failed: disk full",
	}, messages)
	// A passed test stays passed apart from the warnings.
	assert.Equal(t, report.StatusWarning, td.test.Status())
	assert.Equal(t, 1, session.cleaned)
}

func TestTeardownUI_ClosedContextIsNotAWarning(t *testing.T) {
	session := &fakeSession{finishErr: fmt.Errorf("video: %w", playwright.ErrTargetClosed)}
	td, _ := newTeardown(t, captureModes(config.CaptureOff, config.CaptureOff, config.CaptureOn), session)

	teardownUI(td, "TestCheckout", false, "")

	assert.Equal(t, 1, session.finished)
	assert.Equal(t, report.StatusPass, td.test.Status())
	assert.Equal(t, 1, session.cleaned)
}

func TestTeardownUI_MissingVideoFile(t *testing.T) {
	session := &fakeSession{}
	td, manager := newTeardown(t, captureModes(config.CaptureOff, config.CaptureOff, config.CaptureOn), session)
	session.video = filepath.Join(manager.VideosDir(), "gone.webm")

	teardownUI(td, "TestCheckout", true, "boom")

	assert.Empty(t, entriesOfKind(td.test, report.KindHTML))
	assert.Equal(t, report.StatusFail, td.test.Status())
}

func TestTeardownUI_UninitializedSessionLinksNoTrace(t *testing.T) {
	td, manager := newTeardown(t, captureModes(config.CaptureOff, config.CaptureRetainOnFailure, config.CaptureRetainOnFailure), &fakeSession{})
	td.session = browser.NewPageContext(nil)

	teardownUI(td, "TestCheckout", true, "initializing browser and page")

	assert.Equal(t, report.StatusFail, td.test.Status())
	assert.Empty(t, entriesOfKind(td.test, report.KindHTML))
	entries, err := os.ReadDir(manager.TracesDir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestTeardownUI_PassedWithoutRunningTrace(t *testing.T) {
	session := &fakeSession{traceErr: fmt.Errorf("stop: %w", browser.ErrNotTracing)}
	td, _ := newTeardown(t, captureModes(config.CaptureOff, config.CaptureOn, config.CaptureOff), session)

	teardownUI(td, "TestSorting", false, "")

	assert.Equal(t, report.StatusPass, td.test.Status())
	assert.Empty(t, entriesOfKind(td.test, report.KindHTML))
	require.Len(t, session.traces, 1)
}

func TestRecorder_FailureMessage(t *testing.T) {
	rec := &recorder{tb: &fakeTB{name: "TestRecorder"}}
	assert.Equal(t, DefaultFailureMessage, rec.failureMessage())

	rec.Errorf("  first: %d  \n", 1)
	rec.Errorf("second")
	assert.Equal(t, "first: 1\n\nsecond", rec.failureMessage())
	assert.True(t, rec.tb.Failed())
}

func TestTestOptions(t *testing.T) {
	var cfg testConfig
	for _, option := range []TestOption{Categories("UI"), Categories("Smoke", "HighPriority"), Description("Checkout flow"), BaseURL("http://localhost:8080/")} {
		option(&cfg)
	}
	assert.Equal(t, []string{"UI", "Smoke", "HighPriority"}, cfg.categories)
	assert.Equal(t, "Checkout flow", cfg.description)
	assert.Equal(t, "http://localhost:8080/", cfg.baseURL)
}
