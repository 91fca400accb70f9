package views

import (
	"log/slog"
	"time"
)

type KeyValue struct {
	Key   string
	Value string
}

// ReportData is everything rendered into one report document.
type ReportData struct {
	Title      string
	Name       string
	Started    time.Time
	Generated  time.Time
	SystemInfo []KeyValue
	// Counts maps a status name to the number of tests with that status.
	Counts map[string]int
	Tests  []TestData
}

type TestData struct {
	ID          string
	Name        string
	Description string
	Categories  []string
	Status      string
	Duration    time.Duration
	Entries     []EntryData
}

// EntryKind mirrors report.EntryKind.
type EntryKind int

const (
	EntryText EntryKind = iota
	EntryHTML
	EntryCode
	EntryScreenshot
	EntryLog
)

type EntryData struct {
	Time        time.Time
	Status      string
	Kind        EntryKind
	Message     string
	HTML        string
	Code        string
	ContentType string
	Path        string
	Record      *slog.Record
}
