package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/networkteam/shopcheck/artifacts"
)

const (
	// EnvironmentVariable selects the environment specific settings file.
	EnvironmentVariable = "TEST_ENVIRONMENT"
	// DefaultEnvironment is used when EnvironmentVariable is unset.
	DefaultEnvironment = "dev"
	// ConfigDirVariable overrides the directory holding the settings files.
	ConfigDirVariable = "SHOPCHECK_CONFIG_DIR"
	// SecretsFileVariable overrides the location of the per-developer secrets overlay.
	SecretsFileVariable = "SHOPCHECK_SECRETS_FILE"

	baseFileName = "settings.yaml"

	envProfile        = "UI__PROFILE"
	envViewportWidth  = "UI__VIEWPORT_WIDTH"
	envViewportHeight = "UI__VIEWPORT_HEIGHT"
)

// ErrBaseConfigMissing is returned when the required base settings file does not exist.
var ErrBaseConfigMissing = errors.New("base settings file missing")

// LoadOptions controls where settings are read from. The zero value reads from the process environment.
type LoadOptions struct {
	// Dir holds settings.yaml and settings.<env>.yaml.
	// Default: $SHOPCHECK_CONFIG_DIR, then the project root.
	Dir string
	// Environment selects settings.<env>.yaml.
	// Default: $TEST_ENVIRONMENT, then "dev".
	Environment string
	// SecretsFile is an optional overlay with per-developer values.
	// Default: $SHOPCHECK_SECRETS_FILE, then <user config dir>/shopcheck/secrets.yaml.
	SecretsFile string
	// LookupEnv reads environment variables. Default: os.LookupEnv
	LookupEnv func(key string) (string, bool)
	// Environ lists environment variables as KEY=value for API__HEADERS__* overrides.
	// Default: os.Environ if LookupEnv is not set, otherwise none.
	Environ func() []string
}

func (o LoadOptions) withDefaults() LoadOptions {
	if o.LookupEnv == nil {
		o.LookupEnv = os.LookupEnv
		if o.Environ == nil {
			o.Environ = os.Environ
		}
	}
	if o.Environ == nil {
		o.Environ = func() []string { return nil }
	}
	if o.Dir == "" {
		if dir, ok := o.LookupEnv(ConfigDirVariable); ok && dir != "" {
			o.Dir = dir
		} else {
			o.Dir = artifacts.ProjectRoot()
		}
	}
	if o.Environment == "" {
		if env, ok := o.LookupEnv(EnvironmentVariable); ok && env != "" {
			o.Environment = env
		} else {
			o.Environment = DefaultEnvironment
		}
	}
	if o.SecretsFile == "" {
		if path, ok := o.LookupEnv(SecretsFileVariable); ok && path != "" {
			o.SecretsFile = path
		} else if dir, err := os.UserConfigDir(); err == nil {
			o.SecretsFile = filepath.Join(dir, "shopcheck", "secrets.yaml")
		}
	}
	return o
}

// Load builds settings from, in increasing precedence: defaults, the required base file,
// the optional environment file, the optional secrets overlay and environment variables.
func Load(opts LoadOptions) (*Settings, error) {
	opts = opts.withDefaults()

	v := viper.New()
	v.SetConfigType("yaml")
	SetDefaults(v, opts.Environment)

	basePath := filepath.Join(opts.Dir, baseFileName)
	if err := mergeConfigFile(v, basePath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrBaseConfigMissing, basePath)
		}
		return nil, err
	}

	envPath := filepath.Join(opts.Dir, fmt.Sprintf("settings.%s.yaml", opts.Environment))
	if err := mergeConfigFile(v, envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	if err := mergeConfigFile(v, opts.SecretsFile); err != nil && !overlayUnavailable(err) {
		return nil, err
	}

	applyEnvOverrides(v, opts.LookupEnv)
	applyHeaderOverrides(v, opts.Environ())
	applyViewportOverrides(v, opts.LookupEnv)

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("decoding settings: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return settings, nil
}

func mergeConfigFile(v *viper.Viper, path string) error {
	if path == "" {
		return fmt.Errorf("no config path: %w", fs.ErrNotExist)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := v.MergeConfig(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("merging config %s: %w", path, err)
	}
	return nil
}

// overlayUnavailable reports whether an overlay could not be used at all: it is missing,
// unreadable or not parseable. Other failures are real errors.
func overlayUnavailable(err error) bool {
	var parseErr viper.ConfigParseError
	return errors.Is(err, fs.ErrNotExist) ||
		errors.Is(err, fs.ErrPermission) ||
		errors.As(err, &parseErr)
}

// EnvName returns the environment variable overriding a settings key, e.g. ui.base_url -> UI__BASE_URL.
func EnvName(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, ".", "__"))
}

func applyEnvOverrides(v *viper.Viper, lookup func(string) (string, bool)) {
	for _, key := range v.AllKeys() {
		switch key {
		case "ui.profile", "ui.viewport_width", "ui.viewport_height":
			continue
		}
		if val, ok := lookup(EnvName(key)); ok {
			v.Set(key, val)
		}
	}
}

// HeaderEnvPrefix starts variables that set API headers. Underscores in the rest of the name
// become hyphens: API__HEADERS__X_API_KEY sets the x-api-key header.
const HeaderEnvPrefix = "API__HEADERS__"

// applyHeaderOverrides sets headers from HeaderEnvPrefix variables, including headers no settings file names.
func applyHeaderOverrides(v *viper.Viper, environ []string) {
	for _, kv := range environ {
		key, val, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, HeaderEnvPrefix) {
			continue
		}
		name := strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(key, HeaderEnvPrefix), "_", "-"))
		if name == "" {
			continue
		}
		v.Set("api.headers."+name, val)
	}
}

// applyViewportOverrides applies the explicit viewport variables. Width and height are
// ignored unless they parse as integers.
func applyViewportOverrides(v *viper.Viper, lookup func(string) (string, bool)) {
	if profile, ok := lookup(envProfile); ok && profile != "" {
		v.Set("ui.profile", profile)
	}
	if width, ok := lookupInt(lookup, envViewportWidth); ok {
		v.Set("ui.viewport_width", width)
	}
	if height, ok := lookupInt(lookup, envViewportHeight); ok {
		v.Set("ui.viewport_height", height)
	}
}

func lookupInt(lookup func(string) (string, bool), key string) (int, bool) {
	raw, ok := lookup(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	return n, true
}
