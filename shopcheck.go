// Package shopcheck wires configuration, browsers, the API client, artifacts and the HTML report
// into per-test fixtures for end-to-end suites.
//
// A suite creates one Instance in TestMain, hands out fixtures with UI and API, and closes the
// Instance after m.Run to write the report.
package shopcheck

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/playwright-community/playwright-go"
	"github.com/samber/lo"

	"github.com/networkteam/shopcheck/artifacts"
	"github.com/networkteam/shopcheck/browser"
	"github.com/networkteam/shopcheck/config"
	"github.com/networkteam/shopcheck/history"
	"github.com/networkteam/shopcheck/internal/logging"
	"github.com/networkteam/shopcheck/report"
)

type Instance struct {
	settings  *config.Settings
	artifacts *artifacts.Manager
	reporter  *report.Reporter
	logger    *slog.Logger
	logCloser io.Closer
	history   *history.Store
	started   time.Time

	runPlaywright func() (*playwright.Playwright, error)
	pwMu          sync.Mutex
	pw            *playwright.Playwright

	closeOnce sync.Once
	closeErr  error
}

type Options struct {
	// Settings are used instead of the process-wide settings from config.Get.
	// Default: nil
	Settings *config.Settings
	// Root is the project root that artifact paths are resolved against.
	// Default: artifacts.ProjectRoot()
	Root string
	// Console receives human readable log output.
	// Default: os.Stderr
	Console io.Writer
	// RunPlaywright starts the driver the first time a UI test needs it.
	// Default: playwright.Run
	RunPlaywright func() (*playwright.Playwright, error)
	// DisableHistory skips the run history database even if one is configured.
	DisableHistory bool
}

// New creates an instance with default options.
func New() (*Instance, error) {
	return NewWithOptions(Options{})
}

// NewWithOptions creates an instance. The process-wide report is initialized on the first call;
// later instances share it.
func NewWithOptions(options Options) (*Instance, error) {
	settings := options.Settings
	if settings == nil {
		var err error
		if settings, err = config.Get(); err != nil {
			return nil, fmt.Errorf("loading settings: %w", err)
		}
	}

	root := options.Root
	if root == "" {
		root = artifacts.ProjectRoot()
	}
	manager := artifacts.New(root, settings.Reporting.OutputPath)
	if err := manager.EnsureDirs(); err != nil {
		return nil, err
	}

	var logFile string
	if settings.Logging.File != "" {
		logFile = underDir(manager.ReportsDir(), settings.Logging.File)
	}
	logger, logCloser := logging.New(logging.Options{
		Level:      settings.Logging.SlogLevel(),
		Console:    options.Console,
		File:       logFile,
		MaxSizeMB:  settings.Logging.MaxSizeMB,
		MaxBackups: settings.Logging.MaxBackups,
	}, report.NewSlogHandler(report.SlogHandlerOptions{Level: slog.LevelInfo}))

	width, height := settings.UI.Viewport()
	reporter := report.Init(report.Options{
		Title: settings.Reporting.ReportTitle,
		Name:  strings.TrimSuffix(settings.Reporting.ReportName, filepath.Ext(settings.Reporting.ReportName)),
		Path:  manager.ReportPath(settings.Reporting.ReportName),
		SystemInfo: []report.KeyValue{
			{Key: "Environment", Value: settings.Environment},
			{Key: "Browser", Value: string(browser.ParseKind(settings.UI.Browser))},
			{Key: "Base URL", Value: settings.UI.BaseURL},
			{Key: "API URL", Value: settings.API.BaseURL},
			{Key: "Viewport", Value: strconv.Itoa(width) + "x" + strconv.Itoa(height)},
		},
	})

	runPlaywright := options.RunPlaywright
	if runPlaywright == nil {
		runPlaywright = func() (*playwright.Playwright, error) { return playwright.Run() }
	}

	instance := &Instance{
		settings:      settings,
		artifacts:     manager,
		reporter:      reporter,
		logger:        logger,
		logCloser:     logCloser,
		started:       time.Now(),
		runPlaywright: runPlaywright,
	}

	if !options.DisableHistory && settings.Reporting.HistoryDB != "" {
		store, err := history.Open(underDir(manager.ReportsDir(), settings.Reporting.HistoryDB), history.Options{Logger: logger})
		if err != nil {
			logger.Warn("Run history disabled", slog.Any("err", err))
		} else {
			instance.history = store
		}
	}

	logger.Debug("Suite started",
		slog.String("environment", settings.Environment),
		slog.String("reports", manager.ReportsDir()),
	)
	return instance, nil
}

func (i *Instance) Settings() *config.Settings      { return i.settings }
func (i *Instance) Artifacts() *artifacts.Manager   { return i.artifacts }
func (i *Instance) Reporter() *report.Reporter      { return i.reporter }
func (i *Instance) Logger() *slog.Logger            { return i.logger }
func (i *Instance) History() (*history.Store, bool) { return i.history, i.history != nil }

// Playwright returns the driver, starting it on first use. A failed start is retried on the next call.
func (i *Instance) Playwright() (*playwright.Playwright, error) {
	i.pwMu.Lock()
	defer i.pwMu.Unlock()

	if i.pw != nil {
		return i.pw, nil
	}
	pw, err := i.runPlaywright()
	if err != nil {
		return nil, fmt.Errorf("starting playwright: %w", err)
	}
	i.pw = pw
	return pw, nil
}

// Close writes the report, records the run history, stops the driver and closes the log file.
// Only the first call has an effect; later calls return the same error.
func (i *Instance) Close() error {
	i.closeOnce.Do(func() {
		var errs []error

		if err := i.reporter.Flush(); err != nil {
			errs = append(errs, fmt.Errorf("writing report: %w", err))
		} else {
			i.logger.Info("Report written", slog.String("path", i.reporter.Path()))
		}

		if i.history != nil {
			if err := i.history.RecordRun(context.Background(), i.run()); err != nil {
				errs = append(errs, fmt.Errorf("recording run history: %w", err))
			}
			if err := i.history.Close(); err != nil {
				errs = append(errs, fmt.Errorf("closing run history: %w", err))
			}
		}

		i.pwMu.Lock()
		if i.pw != nil {
			if err := i.pw.Stop(); err != nil {
				errs = append(errs, fmt.Errorf("stopping playwright: %w", err))
			}
			i.pw = nil
		}
		i.pwMu.Unlock()

		if err := i.logCloser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing log file: %w", err))
		}
		i.closeErr = errors.Join(errs...)
	})
	return i.closeErr
}

func (i *Instance) run() history.Run {
	return history.Run{
		ID:          uuid.Must(uuid.NewV7()),
		Environment: i.settings.Environment,
		Started:     i.started,
		Ended:       time.Now(),
		Results: lo.Map(i.reporter.Results(), func(r report.Result, _ int) history.Outcome {
			return history.Outcome{
				Name:       r.Name,
				Status:     r.Status.String(),
				Categories: r.Categories,
				Duration:   r.Duration,
			}
		}),
	}
}

// Install downloads the driver and the browser used by the given UI settings.
func Install(ui config.UISettings) error {
	kind, _ := browser.LaunchOptions(ui)
	return playwright.Install(&playwright.RunOptions{Browsers: []string{string(kind)}})
}

func underDir(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
