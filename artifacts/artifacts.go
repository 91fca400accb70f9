package artifacts

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// TimestampLayout is embedded in every artifact file name (second granularity).
const TimestampLayout = "20060102_150405"

const (
	screenshotsDir = "screenshots"
	videosDir      = "videos"
	tracesDir      = "traces"

	// DefaultRenameDelay gives the recorder time to finish writing a video before it is moved.
	DefaultRenameDelay = 500 * time.Millisecond
)

// Manager computes artifact locations below a project root.
type Manager struct {
	// Root is the project root all relative paths are resolved against.
	Root string
	// OutputPath is the reports directory, relative to Root unless absolute.
	OutputPath string
	// RenameDelay is waited before a recorded video is moved.
	// Default: DefaultRenameDelay when created with New.
	RenameDelay time.Duration
	// Now returns the current time. Default: time.Now
	Now func() time.Time
}

// New creates a manager for the given project root and reports output path.
func New(root, outputPath string) *Manager {
	return &Manager{
		Root:        root,
		OutputPath:  outputPath,
		RenameDelay: DefaultRenameDelay,
	}
}

// ProjectRoot returns SHOPCHECK_ROOT if set, otherwise the nearest ancestor of the working
// directory containing a go.mod, falling back to the working directory itself.
func ProjectRoot() string {
	if root := os.Getenv("SHOPCHECK_ROOT"); root != "" {
		return root
	}

	wd, err := os.Getwd()
	if err != nil {
		return "."
	}

	for dir := wd; ; {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return wd
		}
		dir = parent
	}
}

func (m *Manager) ReportsDir() string {
	if filepath.IsAbs(m.OutputPath) {
		return m.OutputPath
	}
	return filepath.Join(m.Root, m.OutputPath)
}

func (m *Manager) ScreenshotsDir() string { return filepath.Join(m.ReportsDir(), screenshotsDir) }
func (m *Manager) VideosDir() string      { return filepath.Join(m.ReportsDir(), videosDir) }
func (m *Manager) TracesDir() string      { return filepath.Join(m.ReportsDir(), tracesDir) }

// EnsureDirs creates the reports directory and all artifact subdirectories.
// It is safe to call repeatedly.
func (m *Manager) EnsureDirs() error {
	for _, dir := range []string{m.ReportsDir(), m.ScreenshotsDir(), m.VideosDir(), m.TracesDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating artifact directory %s: %w", dir, err)
		}
	}
	return nil
}

// ReportPath returns {base}_{timestamp}.html in the reports directory.
// The extension of reportName is replaced.
func (m *Manager) ReportPath(reportName string) string {
	base := strings.TrimSuffix(reportName, filepath.Ext(reportName))
	if base == "" {
		base = "report"
	}
	return filepath.Join(m.ReportsDir(), fmt.Sprintf("%s_%s.html", base, m.timestamp()))
}

// ScreenshotPath returns {name}_{suffix}_{timestamp}.png, suffix defaults to Failed.
func (m *Manager) ScreenshotPath(testName, suffix string) string {
	if suffix == "" {
		suffix = "Failed"
	}
	return filepath.Join(m.ScreenshotsDir(), fmt.Sprintf("%s_%s_%s.png", Sanitize(testName), suffix, m.timestamp()))
}

// TracePath returns {name}_trace_{timestamp}.zip.
func (m *Manager) TracePath(testName string) string {
	return filepath.Join(m.TracesDir(), fmt.Sprintf("%s_trace_%s.zip", Sanitize(testName), m.timestamp()))
}

// VideoPath returns {name}[_suffix]_{timestamp}.webm.
func (m *Manager) VideoPath(testName, suffix string) string {
	name := Sanitize(testName)
	if suffix != "" {
		name += "_" + suffix
	}
	return filepath.Join(m.VideosDir(), fmt.Sprintf("%s_%s.webm", name, m.timestamp()))
}

// Rel returns path relative to the reports directory with forward slashes, as used in report links.
func (m *Manager) Rel(path string) string {
	rel, err := filepath.Rel(m.ReportsDir(), path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// RenameVideo moves a recorded video to its final name and returns the new path.
// An empty or missing source yields "". Any failure to move returns the original path.
func (m *Manager) RenameVideo(current, testName, suffix string) string {
	if current == "" {
		return ""
	}
	if _, err := os.Stat(current); errors.Is(err, fs.ErrNotExist) {
		return ""
	}

	if m.RenameDelay > 0 {
		time.Sleep(m.RenameDelay)
	}

	target := m.VideoPath(testName, suffix)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return current
	}
	// os.Rename replaces an existing target on all supported platforms
	if err := os.Rename(current, target); err != nil {
		return current
	}
	return target
}

func (m *Manager) timestamp() string {
	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	return now().Format(TimestampLayout)
}

// Sanitize makes a test name safe for use in a file name. It splits on characters that are invalid
// in file names, drops empty parts and joins the rest with underscores.
func Sanitize(name string) string {
	parts := strings.FieldsFunc(name, isInvalidFileRune)
	if len(parts) == 0 {
		return "unnamed"
	}
	return strings.Join(parts, "_")
}

func isInvalidFileRune(r rune) bool {
	if r < 32 || r == 127 {
		return true
	}
	switch r {
	case '<', '>', ':', '"', '/', '\\', '|', '?', '*':
		return true
	}
	return false
}
