package report

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/samber/lo"
)

// Status of a report entry or test. Higher values win when a test's status is derived.
type Status int

const (
	StatusInfo Status = iota
	StatusPass
	StatusSkip
	StatusWarning
	StatusFail
)

func (s Status) String() string {
	switch s {
	case StatusPass:
		return "pass"
	case StatusSkip:
		return "skip"
	case StatusWarning:
		return "warning"
	case StatusFail:
		return "fail"
	default:
		return "info"
	}
}

// ParseStatus is the inverse of Status.String. Unknown values map to StatusInfo.
func ParseStatus(s string) Status {
	for _, status := range []Status{StatusPass, StatusSkip, StatusWarning, StatusFail} {
		if status.String() == s {
			return status
		}
	}
	return StatusInfo
}

// EntryKind tells the renderer how to present an entry.
type EntryKind int

const (
	KindText EntryKind = iota
	KindHTML
	KindCode
	KindScreenshot
	KindLog
)

// Entry is a single line in a test's log.
type Entry struct {
	Time    time.Time
	Status  Status
	Kind    EntryKind
	Message string

	// HTML is trusted markup for KindHTML.
	HTML string
	// Code and ContentType are set for KindCode.
	Code        string
	ContentType string
	// Path is the screenshot location relative to the report for KindScreenshot.
	Path string
	// Record is set for KindLog.
	Record *slog.Record
}

// Test collects the entries of one test. All methods are safe for concurrent use.
type Test struct {
	ID          uuid.UUID
	Name        string
	Description string

	mu         sync.RWMutex
	categories []string
	entries    []Entry
	started    time.Time
	ended      time.Time
}

func newTest(name, description string) *Test {
	return &Test{
		ID:          uuid.Must(uuid.NewV7()),
		Name:        name,
		Description: description,
		started:     time.Now(),
	}
}

func (t *Test) add(e Entry) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, e)
}

func (t *Test) Info(msg string)    { t.add(Entry{Status: StatusInfo, Message: msg}) }
func (t *Test) Pass(msg string)    { t.add(Entry{Status: StatusPass, Message: msg}) }
func (t *Test) Fail(msg string)    { t.add(Entry{Status: StatusFail, Message: msg}) }
func (t *Test) Warning(msg string) { t.add(Entry{Status: StatusWarning, Message: msg}) }
func (t *Test) Skip(msg string)    { t.add(Entry{Status: StatusSkip, Message: msg}) }

// AddHTML appends trusted markup, e.g. a trace download link or an embedded video.
func (t *Test) AddHTML(status Status, html string) {
	t.add(Entry{Status: status, Kind: KindHTML, HTML: html})
}

// AddCode appends a highlighted code block such as a captured HTTP body.
func (t *Test) AddCode(status Status, title, code, contentType string) {
	t.add(Entry{Status: status, Kind: KindCode, Message: title, Code: code, ContentType: contentType})
}

// AddScreenshot attaches an image; relPath is relative to the report file.
func (t *Test) AddScreenshot(status Status, relPath, title string) {
	t.add(Entry{Status: status, Kind: KindScreenshot, Message: title, Path: relPath})
}

// AddLog appends a structured log record. Records at warn level or above count as warnings.
func (t *Test) AddLog(record slog.Record) {
	status := StatusInfo
	if record.Level >= slog.LevelWarn {
		status = StatusWarning
	}
	t.add(Entry{Time: record.Time, Status: status, Kind: KindLog, Message: record.Message, Record: &record})
}

// AssignCategory tags the test. Duplicates are ignored.
func (t *Test) AssignCategory(categories ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.categories = lo.Uniq(append(t.categories, lo.Compact(categories)...))
}

// End marks the test as finished. Only the first call has an effect.
func (t *Test) End() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ended.IsZero() {
		t.ended = time.Now()
	}
}

// Status derives the test status from its entries: the most severe entry wins.
func (t *Test) Status() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return statusOf(t.entries)
}

func (t *Test) Categories() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.categories)
}

func (t *Test) Entries() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.entries)
}

// Duration is the time between creation and End, or until now while running.
func (t *Test) Duration() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.ended.IsZero() {
		return time.Since(t.started)
	}
	return t.ended.Sub(t.started)
}

func statusOf(entries []Entry) Status {
	status := StatusInfo
	for _, e := range entries {
		if e.Status > status {
			status = e.Status
		}
	}
	return status
}
