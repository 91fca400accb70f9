package report_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"

	"github.com/networkteam/shopcheck/report"
)

func TestMain(m *testing.M) {
	// chroma's regexp engine keeps a clock goroutine for match timeouts.
	goleak.VerifyTestMain(m, goleak.IgnoreAnyFunction("github.com/dlclark/regexp2.runClock"))
}

func TestCreateTest_BeforeInit(t *testing.T) {
	report.Reset()
	t.Cleanup(report.Reset)

	_, err := report.CreateTest("TestSomething", "")
	assert.ErrorIs(t, err, report.ErrNotInitialized)

	_, err = report.Current()
	assert.ErrorIs(t, err, report.ErrNotInitialized)

	assert.NoError(t, report.Flush())
}

func TestInit_ConcurrentFirstCallsCreateOneReporter(t *testing.T) {
	report.Reset()
	t.Cleanup(report.Reset)

	const callers = 32
	reporters := make([]*report.Reporter, callers)

	var start sync.WaitGroup
	start.Add(1)
	var g errgroup.Group
	for i := range callers {
		g.Go(func() error {
			start.Wait()
			reporters[i] = report.Init(report.Options{Title: "Concurrent"})
			return nil
		})
	}
	start.Done()
	require.NoError(t, g.Wait())

	for _, r := range reporters {
		assert.Same(t, reporters[0], r)
	}

	current, err := report.Current()
	require.NoError(t, err)
	assert.Same(t, reporters[0], current)
}

func TestInit_LaterOptionsAreIgnored(t *testing.T) {
	report.Reset()
	t.Cleanup(report.Reset)

	first := report.Init(report.Options{Path: "first.html"})
	second := report.Init(report.Options{Path: "second.html"})

	assert.Same(t, first, second)
	assert.Equal(t, "first.html", second.Path())
}

func TestTest_StatusRollUp(t *testing.T) {
	r := report.New(report.Options{})
	tt := r.CreateTest("TestRollUp", "")

	assert.Equal(t, report.StatusInfo, tt.Status())

	tt.Info("Test started")
	tt.Pass("Test passed")
	assert.Equal(t, report.StatusPass, tt.Status())

	tt.Warning("Could not capture screenshot")
	assert.Equal(t, report.StatusWarning, tt.Status())

	tt.Fail("expected 2, got 1")
	tt.Pass("late pass does not hide the failure")
	assert.Equal(t, report.StatusFail, tt.Status())
}

func TestTest_AssignCategory(t *testing.T) {
	tt := report.New(report.Options{}).CreateTest("TestCategories", "")

	tt.AssignCategory("UI", "Checkout")
	tt.AssignCategory("UI", "", "Smoke")

	assert.Equal(t, []string{"UI", "Checkout", "Smoke"}, tt.Categories())
}

func TestReporter_Results(t *testing.T) {
	r := report.New(report.Options{})
	a := r.CreateTest("TestA", "")
	a.Pass("ok")
	a.End()
	b := r.CreateTest("TestB", "")
	b.Fail("boom")
	b.AssignCategory("API")
	b.End()

	results := r.Results()
	require.Len(t, results, 2)
	assert.Equal(t, "TestA", results[0].Name)
	assert.Equal(t, report.StatusPass, results[0].Status)
	assert.Equal(t, "TestB", results[1].Name)
	assert.Equal(t, report.StatusFail, results[1].Status)
	assert.Equal(t, []string{"API"}, results[1].Categories)
}

func TestReporter_ConcurrentTests(t *testing.T) {
	r := report.New(report.Options{})

	var g errgroup.Group
	for range 20 {
		g.Go(func() error {
			tt := r.CreateTest("TestParallel", "")
			for range 10 {
				tt.Info("step")
			}
			tt.Pass("done")
			return nil
		})
	}
	require.NoError(t, g.Wait())

	tests := r.Tests()
	require.Len(t, tests, 20)
	for _, tt := range tests {
		assert.Len(t, tt.Entries(), 11)
	}
}

func TestReporter_Flush(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "AutomationReport_20260101_000000.html")
	r := report.New(report.Options{
		Title: "Test Automation Report",
		Name:  "AutomationReport",
		Path:  path,
		SystemInfo: []report.KeyValue{
			{Key: "Environment", Value: "dev"},
			{Key: "Browser", Value: "chrome"},
		},
	})

	passed := r.CreateTest("TestPassed", "adds items")
	passed.AssignCategory("UI")
	passed.Pass("Test passed")
	passed.End()

	failed := r.CreateTest("TestFailed", "")
	failed.Fail("expected <2>, got <1>")
	failed.AddScreenshot(report.StatusFail, "screenshots/TestFailed_Failed_20260101_000000.png", "Screenshot on failure")
	failed.AddHTML(report.StatusInfo, "<a href='traces/t.zip' download>Download Playwright trace (.zip)</a>")
	failed.AddCode(report.StatusInfo, "GET /api/users/1 -> 200", `{"data":{"id":1}}`, "application/json")
	failed.End()

	require.NoError(t, r.Flush())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(data)

	assert.Contains(t, html, "<title>AutomationReport</title>")
	assert.Contains(t, html, "Test Automation Report")
	assert.Contains(t, html, "<th>Browser</th><td>chrome</td>")
	assert.Contains(t, html, "TestPassed")
	assert.Contains(t, html, `class="test status-fail"`)
	assert.Contains(t, html, "expected &lt;2&gt;, got &lt;1&gt;")
	assert.Contains(t, html, `src="screenshots/TestFailed_Failed_20260101_000000.png"`)
	assert.Contains(t, html, "<a href='traces/t.zip' download>")
	assert.Contains(t, html, `class="chroma"`)

	// A second flush replaces the file.
	r.CreateTest("TestLate", "").Pass("ok")
	require.NoError(t, r.Flush())
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "TestLate")
}

func TestReporter_FlushWithoutPath(t *testing.T) {
	assert.Error(t, report.New(report.Options{}).Flush())
}

func TestSlogHandler(t *testing.T) {
	r := report.New(report.Options{})
	tt := r.CreateTest("TestLogging", "")

	logger := slog.New(report.NewSlogHandler(report.SlogHandlerOptions{Level: slog.LevelInfo})).
		With("browser", "chromium").
		WithGroup("cart")

	ctx := report.ContextWithTest(context.Background(), tt)
	logger.InfoContext(ctx, "item added", "count", 2)
	logger.DebugContext(ctx, "below level")
	logger.WarnContext(ctx, "badge not visible")
	logger.InfoContext(context.Background(), "no test bound")

	entries := tt.Entries()
	require.Len(t, entries, 2)

	assert.Equal(t, report.KindLog, entries[0].Kind)
	assert.Equal(t, "item added", entries[0].Message)
	assert.Equal(t, report.StatusInfo, entries[0].Status)

	attrs := map[string]slog.Value{}
	entries[0].Record.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value
		return true
	})
	assert.Equal(t, "chromium", attrs["browser"].String())
	require.Equal(t, slog.KindGroup, attrs["cart"].Kind())
	assert.Equal(t, "count", attrs["cart"].Group()[0].Key)

	assert.Equal(t, report.StatusWarning, entries[1].Status)
	assert.Equal(t, report.StatusWarning, tt.Status())
}

func TestTestFromContext(t *testing.T) {
	_, ok := report.TestFromContext(context.Background())
	assert.False(t, ok)

	tt := report.New(report.Options{}).CreateTest("TestCtx", "")
	got, ok := report.TestFromContext(report.ContextWithTest(context.Background(), tt))
	assert.True(t, ok)
	assert.Same(t, tt, got)
}

func TestParseStatus(t *testing.T) {
	for _, s := range []report.Status{report.StatusInfo, report.StatusPass, report.StatusSkip, report.StatusWarning, report.StatusFail} {
		assert.Equal(t, s, report.ParseStatus(s.String()))
	}
	assert.Equal(t, report.StatusInfo, report.ParseStatus("unknown"))
}
