package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// CaptureMode controls when a screenshot, video or trace is kept.
type CaptureMode string

const (
	CaptureOn              CaptureMode = "on"
	CaptureOff             CaptureMode = "off"
	CaptureRetainOnFailure CaptureMode = "retain-on-failure"
	CaptureOnlyOnFailure   CaptureMode = "only-on-failure"
)

// Enabled reports whether anything is captured at all.
func (m CaptureMode) Enabled() bool {
	return m != CaptureOff
}

// Keep reports whether an artifact captured during a test with the given outcome is persisted.
func (m CaptureMode) Keep(failed bool) bool {
	switch m {
	case CaptureOn:
		return true
	case CaptureRetainOnFailure, CaptureOnlyOnFailure:
		return failed
	default:
		return false
	}
}

func (m CaptureMode) valid() bool {
	switch m {
	case CaptureOn, CaptureOff, CaptureRetainOnFailure, CaptureOnlyOnFailure:
		return true
	}
	return false
}

// Settings is the complete, validated suite configuration. Treat it as read-only after Load.
type Settings struct {
	Environment string            `mapstructure:"environment" yaml:"environment"`
	UI          UISettings        `mapstructure:"ui" yaml:"ui"`
	API         APISettings       `mapstructure:"api" yaml:"api"`
	Reporting   ReportingSettings `mapstructure:"reporting" yaml:"reporting"`
	Logging     LoggingSettings   `mapstructure:"logging" yaml:"logging"`
}

type UISettings struct {
	BaseURL  string        `mapstructure:"base_url" yaml:"base_url"`
	Browser  string        `mapstructure:"browser" yaml:"browser"`
	Headless bool          `mapstructure:"headless" yaml:"headless"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
	SlowMo   time.Duration `mapstructure:"slow_mo" yaml:"slow_mo"`

	// Profile names a ViewportProfile. Custom uses ViewportWidth and ViewportHeight.
	Profile        string `mapstructure:"profile" yaml:"profile"`
	ViewportWidth  int    `mapstructure:"viewport_width" yaml:"viewport_width"`
	ViewportHeight int    `mapstructure:"viewport_height" yaml:"viewport_height"`

	Screenshot CaptureMode `mapstructure:"screenshot" yaml:"screenshot"`
	Video      CaptureMode `mapstructure:"video" yaml:"video"`
	Trace      CaptureMode `mapstructure:"trace" yaml:"trace"`
}

// Viewport returns the resolved viewport size.
func (u UISettings) Viewport() (width, height int) {
	return ResolveViewport(u.Profile, u.ViewportWidth, u.ViewportHeight)
}

type APISettings struct {
	BaseURL string            `mapstructure:"base_url" yaml:"base_url"`
	Timeout time.Duration     `mapstructure:"timeout" yaml:"timeout"`
	Headers map[string]string `mapstructure:"headers" yaml:"headers"`
}

type ReportingSettings struct {
	// OutputPath is the reports directory, relative to the project root unless absolute.
	OutputPath  string `mapstructure:"output_path" yaml:"output_path"`
	ReportTitle string `mapstructure:"report_title" yaml:"report_title"`
	ReportName  string `mapstructure:"report_name" yaml:"report_name"`
	// HistoryDB is the run history database, relative to OutputPath. Empty disables history.
	HistoryDB string `mapstructure:"history_db" yaml:"history_db"`
}

type LoggingSettings struct {
	Level string `mapstructure:"level" yaml:"level"`
	// File is the rotating JSON log file, relative to OutputPath. Empty disables it.
	File       string `mapstructure:"file" yaml:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
}

// SlogLevel parses Level, defaulting to info.
func (l LoggingSettings) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// SetDefaults registers every key with its default value.
func SetDefaults(v *viper.Viper, environment string) {
	v.SetDefault("environment", environment)

	v.SetDefault("ui.base_url", "")
	v.SetDefault("ui.browser", "chrome")
	v.SetDefault("ui.headless", false)
	v.SetDefault("ui.timeout", 30*time.Second)
	v.SetDefault("ui.slow_mo", time.Duration(0))
	v.SetDefault("ui.profile", ProfileCustom.String())
	v.SetDefault("ui.viewport_width", 1920)
	v.SetDefault("ui.viewport_height", 1080)
	v.SetDefault("ui.screenshot", string(CaptureOnlyOnFailure))
	v.SetDefault("ui.video", string(CaptureOn))
	v.SetDefault("ui.trace", string(CaptureRetainOnFailure))

	v.SetDefault("api.base_url", "")
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("api.headers", map[string]string{})

	v.SetDefault("reporting.output_path", "TestReports")
	v.SetDefault("reporting.report_title", "Test Automation Report")
	v.SetDefault("reporting.report_name", "AutomationReport.html")
	v.SetDefault("reporting.history_db", "history.db")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", "logs/shopcheck.log")
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 3)
}

// Validate checks the settings for consistency.
func (s *Settings) Validate() error {
	var errs []error

	width, height := s.UI.Viewport()
	if width <= 0 || height <= 0 {
		errs = append(errs, fmt.Errorf("ui viewport must be positive, got %dx%d (profile %q)", width, height, s.UI.Profile))
	}
	if s.UI.Timeout <= 0 {
		errs = append(errs, errors.New("ui.timeout must be positive"))
	}
	if s.UI.SlowMo < 0 {
		errs = append(errs, errors.New("ui.slow_mo must not be negative"))
	}
	if s.API.Timeout <= 0 {
		errs = append(errs, errors.New("api.timeout must be positive"))
	}
	for key, mode := range map[string]CaptureMode{
		"ui.screenshot": s.UI.Screenshot,
		"ui.video":      s.UI.Video,
		"ui.trace":      s.UI.Trace,
	} {
		if !mode.valid() {
			errs = append(errs, fmt.Errorf("%s: unknown capture mode %q", key, mode))
		}
	}
	if strings.TrimSpace(s.Reporting.OutputPath) == "" {
		errs = append(errs, errors.New("reporting.output_path must not be empty"))
	}

	return errors.Join(errs...)
}
