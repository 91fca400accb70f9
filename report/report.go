package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samber/lo"

	"github.com/networkteam/shopcheck/report/views"
)

// ErrNotInitialized is returned when tests are created before Init.
var ErrNotInitialized = errors.New("report not initialized")

// Options configures a Reporter.
type Options struct {
	// Title is shown as the document heading.
	Title string
	// Name is shown in the browser tab.
	Name string
	// Path is the HTML file written by Flush.
	Path string
	// SystemInfo is rendered as key/value pairs in the report header, in the given order.
	SystemInfo []KeyValue
}

type KeyValue struct {
	Key   string
	Value string
}

// Reporter accumulates tests and writes them as one HTML document.
type Reporter struct {
	options Options
	created time.Time

	mu    sync.RWMutex
	tests []*Test
}

// New creates a standalone reporter. Most callers use Init for the process-wide one.
func New(options Options) *Reporter {
	return &Reporter{
		options: options,
		created: time.Now(),
	}
}

func (r *Reporter) Path() string { return r.options.Path }

// CreateTest appends a new test entry.
func (r *Reporter) CreateTest(name, description string) *Test {
	t := newTest(name, description)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tests = append(r.tests, t)
	return t
}

func (r *Reporter) Tests() []*Test {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Test(nil), r.tests...)
}

// Result summarises a finished test.
type Result struct {
	Name       string
	Status     Status
	Categories []string
	Duration   time.Duration
}

func (r *Reporter) Results() []Result {
	return lo.Map(r.Tests(), func(t *Test, _ int) Result {
		return Result{
			Name:       t.Name,
			Status:     t.Status(),
			Categories: t.Categories(),
			Duration:   t.Duration(),
		}
	})
}

// Flush renders the report to its path, replacing an earlier flush.
func (r *Reporter) Flush() error {
	if r.options.Path == "" {
		return errors.New("report path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(r.options.Path), 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}

	f, err := os.Create(r.options.Path)
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	defer f.Close()

	if err := views.Report(r.viewData()).Render(context.Background(), f); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	return f.Close()
}

func (r *Reporter) viewData() views.ReportData {
	tests := r.Tests()
	data := views.ReportData{
		Title:     r.options.Title,
		Name:      r.options.Name,
		Generated: time.Now(),
		Started:   r.created,
		Counts:    map[string]int{},
		SystemInfo: lo.Map(r.options.SystemInfo, func(kv KeyValue, _ int) views.KeyValue {
			return views.KeyValue{Key: kv.Key, Value: kv.Value}
		}),
	}

	for _, t := range tests {
		status := t.Status()
		data.Counts[status.String()]++
		data.Tests = append(data.Tests, views.TestData{
			ID:          t.ID.String(),
			Name:        t.Name,
			Description: t.Description,
			Categories:  t.Categories(),
			Status:      status.String(),
			Duration:    t.Duration(),
			Entries: lo.Map(t.Entries(), func(e Entry, _ int) views.EntryData {
				return views.EntryData{
					Time:        e.Time,
					Status:      e.Status.String(),
					Kind:        views.EntryKind(e.Kind),
					Message:     e.Message,
					HTML:        e.HTML,
					Code:        e.Code,
					ContentType: e.ContentType,
					Path:        e.Path,
					Record:      e.Record,
				}
			}),
		})
	}
	return data
}

var (
	initMu sync.Mutex
	shared atomic.Pointer[Reporter]
)

// Init returns the process-wide reporter, creating it from options on the first call.
// Concurrent first calls create exactly one reporter; later options are ignored.
func Init(options Options) *Reporter {
	if r := shared.Load(); r != nil {
		return r
	}

	initMu.Lock()
	defer initMu.Unlock()

	if r := shared.Load(); r != nil {
		return r
	}
	r := New(options)
	shared.Store(r)
	return r
}

// Current returns the process-wide reporter or ErrNotInitialized.
func Current() (*Reporter, error) {
	if r := shared.Load(); r != nil {
		return r, nil
	}
	return nil, ErrNotInitialized
}

// CreateTest creates a test on the process-wide reporter.
func CreateTest(name, description string) (*Test, error) {
	r, err := Current()
	if err != nil {
		return nil, err
	}
	return r.CreateTest(name, description), nil
}

// Flush writes the process-wide reporter. It is a no-op before Init.
func Flush() error {
	r, err := Current()
	if err != nil {
		return nil
	}
	return r.Flush()
}

// Reset forgets the process-wide reporter without flushing it.
func Reset() {
	initMu.Lock()
	defer initMu.Unlock()
	shared.Store(nil)
}
