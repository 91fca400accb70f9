package shopcheck

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/networkteam/shopcheck/config"
	"github.com/networkteam/shopcheck/report"
)

// DefaultFailureMessage is reported for failed tests that recorded no assertion message.
const DefaultFailureMessage = "test failed"

type testConfig struct {
	categories  []string
	description string
	baseURL     string
}

// TestOption configures the report entry of a fixture.
type TestOption func(*testConfig)

// Categories tags the report entry, e.g. "UI", "Smoke", "HighPriority".
func Categories(categories ...string) TestOption {
	return func(c *testConfig) {
		c.categories = append(c.categories, categories...)
	}
}

func Description(description string) TestOption {
	return func(c *testConfig) {
		c.description = description
	}
}

// BaseURL points the fixture at another deployment: the shop for UI tests, the API for API tests.
func BaseURL(url string) TestOption {
	return func(c *testConfig) {
		c.baseURL = url
	}
}

// recorder forwards to the test and remembers assertion messages for the report.
type recorder struct {
	tb testing.TB

	mu       sync.Mutex
	messages []string
}

func (r *recorder) Errorf(format string, args ...any) {
	r.tb.Helper()
	msg := strings.TrimSpace(fmt.Sprintf(format, args...))
	r.mu.Lock()
	r.messages = append(r.messages, msg)
	r.mu.Unlock()
	r.tb.Errorf("%s", msg)
}

func (r *recorder) FailNow() {
	r.tb.Helper()
	r.tb.FailNow()
}

func (r *recorder) Helper() {
	r.tb.Helper()
}

func (r *recorder) failureMessage() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return DefaultFailureMessage
	}
	return strings.Join(r.messages, "\n\n")
}

// fixture is what UI and API tests have in common: the report entry, a logger and assertions.
type fixture struct {
	tb       testing.TB
	instance *Instance
	config   testConfig
	test     *report.Test
	rec      *recorder
	logger   *slog.Logger
	ctx      context.Context
}

func (i *Instance) newFixture(tb testing.TB, options []TestOption) fixture {
	tb.Helper()

	var cfg testConfig
	for _, option := range options {
		option(&cfg)
	}

	test := i.reporter.CreateTest(tb.Name(), cfg.description)
	test.AssignCategory(cfg.categories...)
	test.Info("Test started at: " + time.Now().Format(time.DateTime))

	ctx, cancel := context.WithCancel(report.ContextWithTest(context.Background(), test))
	tb.Cleanup(cancel)

	return fixture{
		tb:       tb,
		instance: i,
		config:   cfg,
		test:     test,
		rec:      &recorder{tb: tb},
		logger:   i.logger.With(slog.String("test", tb.Name())),
		ctx:      ctx,
	}
}

func (f *fixture) Settings() *config.Settings { return f.instance.settings }

// Report returns the test's report entry.
func (f *fixture) Report() *report.Test { return f.test }

// Context carries the report entry; log records and HTTP exchanges made with it are attached to the report.
func (f *fixture) Context() context.Context { return f.ctx }

func (f *fixture) Log() *slog.Logger { return f.logger }

// Logf logs at info level to the console and to the report.
func (f *fixture) Logf(format string, args ...any) {
	f.logger.InfoContext(f.ctx, fmt.Sprintf(format, args...))
}

// Info adds a step to the report only.
func (f *fixture) Info(msg string) { f.test.Info(msg) }

// Pass records a passed check in the report.
func (f *fixture) Pass(msg string) { f.test.Pass(msg) }

// Assert returns assertions whose failure messages end up in the report.
func (f *fixture) Assert() *assert.Assertions { return assert.New(f.rec) }

// Require is like Assert but stops the test on the first failure.
func (f *fixture) Require() *require.Assertions { return require.New(f.rec) }

func (f *fixture) failed() bool { return f.tb.Failed() }

func (f *fixture) failureMessage() string { return f.rec.failureMessage() }
