package views

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBadgeClasses(t *testing.T) {
	assert.Equal(t, "badge badge-success", badgeClasses(BadgeProps{Variant: statusVariant("pass")}))
	assert.Equal(t, "badge badge-error", badgeClasses(BadgeProps{Variant: statusVariant("fail")}))
	assert.Equal(t, "badge badge-warning extra", badgeClasses(BadgeProps{Variant: statusVariant("warning"), Class: "extra"}))
	assert.Equal(t, "badge badge-secondary", badgeClasses(BadgeProps{Variant: statusVariant("info")}))
	assert.Equal(t, "badge badge-default", badgeClasses(BadgeProps{}))
}

func TestHighlightContent(t *testing.T) {
	var buf bytes.Buffer
	err := highlightContent(`{"name":"Horen"}`, "application/json; charset=utf-8").Render(context.Background(), &buf)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), `class="chroma"`)
	assert.Contains(t, buf.String(), "Horen")
}

func TestRecordAttrs(t *testing.T) {
	record := slog.NewRecord(time.Now(), slog.LevelInfo, "msg", 0)
	record.AddAttrs(slog.String("a", "1"), slog.Group("g", slog.Int("b", 2)))

	assert.Equal(t, []KeyValue{{Key: "a", Value: "1"}, {Key: "g.b", Value: "2"}}, recordAttrs(record))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0s", formatDuration(0))
	assert.Equal(t, "250ms", formatDuration(250*time.Millisecond))
	assert.Equal(t, "1.5s", formatDuration(1500*time.Millisecond))
	assert.Equal(t, "2m3s", formatDuration(2*time.Minute+3*time.Second+400*time.Millisecond))
}

func TestReport_EscapesUserText(t *testing.T) {
	var buf bytes.Buffer
	err := Report(ReportData{
		Title:  "<Suite>",
		Counts: map[string]int{"fail": 1},
		Tests: []TestData{{
			ID:     "1",
			Name:   "Test<script>",
			Status: "fail",
			Entries: []EntryData{
				{Status: "fail", Kind: EntryText, Message: "<b>not bold</b>"},
				{Status: "info", Kind: EntryHTML, HTML: "<video controls></video>"},
			},
		}},
	}).Render(context.Background(), &buf)
	require.NoError(t, err)

	html := buf.String()
	assert.Contains(t, html, "&lt;Suite&gt;")
	assert.Contains(t, html, "Test&lt;script&gt;")
	assert.Contains(t, html, "&lt;b&gt;not bold&lt;/b&gt;")
	assert.Contains(t, html, "<video controls></video>")
	assert.Contains(t, html, " open>")
}

func TestStatusCounts(t *testing.T) {
	assert.Equal(t, []KeyValue{
		{Key: "pass", Value: "pass 3"},
		{Key: "fail", Value: "fail 1"},
	}, statusCounts(map[string]int{"fail": 1, "pass": 3, "skip": 0}))
	assert.Empty(t, statusCounts(nil))
}

func TestReport_Entries(t *testing.T) {
	record := slog.NewRecord(time.Date(2026, 10, 19, 14, 30, 5, 0, time.UTC), slog.LevelWarn, "Slow response", 0)
	record.AddAttrs(slog.String("url", "/api/users"))

	var buf bytes.Buffer
	err := Report(ReportData{
		Title:      "Suite",
		SystemInfo: []KeyValue{{Key: "Browser", Value: "chrome"}},
		Counts:     map[string]int{"pass": 1},
		Tests: []TestData{{
			ID:         "42",
			Name:       "TestUsers",
			Status:     "pass",
			Categories: []string{"API"},
			Entries: []EntryData{
				{Status: "info", Kind: EntryLog, Record: &record},
				{Status: "info", Kind: EntryCode, Message: "Users", Code: `{"id":1}`, ContentType: "application/json"},
				{Status: "pass", Kind: EntryScreenshot, Path: "screenshots/a.png"},
			},
		}},
	}).Render(context.Background(), &buf)
	require.NoError(t, err)

	html := buf.String()
	assert.Contains(t, html, `<th>Browser</th><td>chrome</td>`)
	assert.Contains(t, html, `<span class="badge badge-success">pass 1</span>`)
	assert.Contains(t, html, `<span class="badge badge-outline category">API</span>`)
	assert.Contains(t, html, `id="test-42"`)
	assert.Contains(t, html, `class="test status-pass"`)
	assert.NotContains(t, html, " open>")
	assert.Contains(t, html, `<span class="log level-warn">Slow response</span>`)
	assert.Contains(t, html, `<b>url</b>=/api/users`)
	assert.Contains(t, html, `<div class="code-title">Users</div>`)
	assert.Contains(t, html, `src="screenshots/a.png"`)
}
