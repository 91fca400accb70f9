package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/networkteam/shopcheck/config"
)

const baseSettings = `
ui:
  base_url: https://shop.example.com/
  browser: chromium
  headless: true
  timeout: 20s
  profile: Custom
  viewport_width: 1600
  viewport_height: 900
api:
  base_url: https://api.example.com/api/
  headers:
    x-api-key: base-key
reporting:
  report_title: Nightly
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func envMap(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func load(t *testing.T, dir string, env map[string]string) (*config.Settings, error) {
	t.Helper()
	return config.Load(config.LoadOptions{
		Dir:         dir,
		SecretsFile: filepath.Join(dir, "no-secrets.yaml"),
		LookupEnv:   envMap(env),
	})
}

func TestLoad_BaseFileAndDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "settings.yaml", baseSettings)

	s, err := load(t, dir, nil)
	require.NoError(t, err)

	assert.Equal(t, "dev", s.Environment)
	assert.Equal(t, "https://shop.example.com/", s.UI.BaseURL)
	assert.Equal(t, "chromium", s.UI.Browser)
	assert.True(t, s.UI.Headless)
	assert.Equal(t, 20*time.Second, s.UI.Timeout)
	assert.Equal(t, config.CaptureOnlyOnFailure, s.UI.Screenshot)
	assert.Equal(t, config.CaptureOn, s.UI.Video)
	assert.Equal(t, config.CaptureRetainOnFailure, s.UI.Trace)
	assert.Equal(t, 30*time.Second, s.API.Timeout)
	assert.Equal(t, map[string]string{"x-api-key": "base-key"}, s.API.Headers)
	assert.Equal(t, "TestReports", s.Reporting.OutputPath)
	assert.Equal(t, "Nightly", s.Reporting.ReportTitle)
	assert.Equal(t, "AutomationReport.html", s.Reporting.ReportName)

	w, h := s.UI.Viewport()
	assert.Equal(t, 1600, w)
	assert.Equal(t, 900, h)
}

func TestLoad_MissingBaseFile(t *testing.T) {
	_, err := load(t, t.TempDir(), nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrBaseConfigMissing)
}

func TestLoad_EnvironmentFileOverridesBase(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "settings.yaml", baseSettings)
	writeFile(t, dir, "settings.staging.yaml", "ui:\n  base_url: https://staging.example.com/\n")

	s, err := load(t, dir, map[string]string{"TEST_ENVIRONMENT": "staging"})
	require.NoError(t, err)

	assert.Equal(t, "staging", s.Environment)
	assert.Equal(t, "https://staging.example.com/", s.UI.BaseURL)
	assert.Equal(t, "chromium", s.UI.Browser)
}

func TestLoad_MalformedEnvironmentFileFails(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "settings.yaml", baseSettings)
	writeFile(t, dir, "settings.dev.yaml", "ui: [unclosed\n")

	_, err := load(t, dir, nil)
	assert.Error(t, err)
}

func TestLoad_SecretsOverlay(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "settings.yaml", baseSettings)
	secrets := writeFile(t, dir, "secrets.yaml", "api:\n  headers:\n    x-api-key: my-key\n")

	s, err := config.Load(config.LoadOptions{Dir: dir, SecretsFile: secrets, LookupEnv: envMap(nil)})
	require.NoError(t, err)

	assert.Equal(t, "my-key", s.API.Headers["x-api-key"])
}

func TestLoad_UnusableSecretsOverlayIsIgnored(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "settings.yaml", baseSettings)
	broken := writeFile(t, dir, "secrets.yaml", "api: [unclosed\n")

	for name, path := range map[string]string{
		"missing":   filepath.Join(dir, "absent.yaml"),
		"malformed": broken,
	} {
		t.Run(name, func(t *testing.T) {
			s, err := config.Load(config.LoadOptions{Dir: dir, SecretsFile: path, LookupEnv: envMap(nil)})
			require.NoError(t, err)
			assert.Equal(t, "base-key", s.API.Headers["x-api-key"])
		})
	}
}

func TestLoad_EnvironmentVariablesWin(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "settings.yaml", baseSettings)

	s, err := load(t, dir, map[string]string{
		"UI__BASE_URL": "https://env.example.com/",
		"UI__HEADLESS": "false",
		"UI__TIMEOUT":  "45s",
		"UI__VIDEO":    "off",
		"API__TIMEOUT": "5s",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://env.example.com/", s.UI.BaseURL)
	assert.False(t, s.UI.Headless)
	assert.Equal(t, 45*time.Second, s.UI.Timeout)
	assert.Equal(t, config.CaptureOff, s.UI.Video)
	assert.Equal(t, 5*time.Second, s.API.Timeout)
}

func TestLoad_ViewportOverrides(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "settings.yaml", baseSettings)

	s, err := load(t, dir, map[string]string{
		"UI__VIEWPORT_WIDTH":  "1024",
		"UI__VIEWPORT_HEIGHT": "not-a-number",
	})
	require.NoError(t, err)
	assert.Equal(t, 1024, s.UI.ViewportWidth)
	assert.Equal(t, 900, s.UI.ViewportHeight)

	s, err = load(t, dir, map[string]string{"UI__PROFILE": "mobile-small"})
	require.NoError(t, err)
	w, h := s.UI.Viewport()
	assert.Equal(t, 320, w)
	assert.Equal(t, 568, h)
}

func TestLoad_InvalidSettings(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "settings.yaml", baseSettings)

	_, err := load(t, dir, map[string]string{"UI__TRACE": "sometimes"})
	assert.ErrorContains(t, err, "unknown capture mode")

	_, err = load(t, dir, map[string]string{"UI__VIEWPORT_WIDTH": "0"})
	assert.ErrorContains(t, err, "viewport must be positive")
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "UI__BASE_URL", config.EnvName("ui.base_url"))
	assert.Equal(t, "REPORTING__OUTPUT_PATH", config.EnvName("reporting.output_path"))
}

func TestGetAndReset(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "settings.yaml", baseSettings)
	t.Setenv(config.ConfigDirVariable, dir)
	t.Setenv(config.SecretsFileVariable, filepath.Join(dir, "none.yaml"))
	config.Reset()
	t.Cleanup(config.Reset)

	first, err := config.Get()
	require.NoError(t, err)
	second, err := config.Get()
	require.NoError(t, err)
	assert.Same(t, first, second)

	writeFile(t, dir, "settings.yaml", "ui:\n  base_url: https://changed.example.com/\n")
	cached, err := config.Get()
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example.com/", cached.UI.BaseURL)

	config.Reset()
	reloaded, err := config.Get()
	require.NoError(t, err)
	assert.NotSame(t, first, reloaded)
	assert.Equal(t, "https://changed.example.com/", reloaded.UI.BaseURL)
}

func TestLoad_HeaderOverridesFromEnviron(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "settings.yaml", baseSettings)

	s, err := config.Load(config.LoadOptions{
		Dir:         dir,
		SecretsFile: filepath.Join(dir, "no-secrets.yaml"),
		LookupEnv:   envMap(nil),
		Environ: func() []string {
			return []string{
				"PATH=/usr/bin",
				"API__HEADERS__X_API_KEY=env-key",
				"API__HEADERS__AUTHORIZATION=Bearer token=abc",
				"API__HEADERS__=ignored",
			}
		},
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"x-api-key":     "env-key",
		"authorization": "Bearer token=abc",
	}, s.API.Headers)
}

func TestLoad_InjectedLookupIgnoresProcessEnviron(t *testing.T) {
	t.Setenv("API__HEADERS__X_LEAKED", "from-process")
	dir := t.TempDir()
	writeFile(t, dir, "settings.yaml", baseSettings)

	s, err := load(t, dir, nil)
	require.NoError(t, err)
	assert.NotContains(t, s.API.Headers, "x-leaked")
}
