package report

import (
	"context"
	"log/slog"
	"slices"

	"github.com/samber/lo"
)

type SlogHandlerOptions struct {
	// Level is the minimum level of records added to tests.
	Level slog.Leveler
}

// SlogHandler adds log records to the test bound to the record's context.
// Records logged without a bound test are dropped. Combine it with a console handler
// through slogmulti.Fanout.
type SlogHandler struct {
	options SlogHandlerOptions

	attrs  []slog.Attr
	groups []string
}

func NewSlogHandler(options SlogHandlerOptions) *SlogHandler {
	if options.Level == nil {
		options.Level = slog.LevelInfo
	}
	return &SlogHandler{options: options}
}

func (h *SlogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.options.Level.Level() <= level
}

func (h *SlogHandler) Handle(ctx context.Context, record slog.Record) error {
	test, ok := TestFromContext(ctx)
	if !ok {
		return nil
	}

	// Handler attributes come before the record's own, grouped like the record's.
	newRecord := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	newRecord.AddAttrs(h.attrs...)

	var attrs []slog.Attr
	record.Attrs(func(attr slog.Attr) bool {
		attrs = append(attrs, attr)
		return true
	})
	for i := len(h.groups) - 1; i >= 0; i-- {
		attrs = []slog.Attr{slog.Group(h.groups[i], lo.ToAnySlice(attrs)...)}
	}
	newRecord.AddAttrs(attrs...)

	test.AddLog(newRecord)
	return nil
}

func (h *SlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &SlogHandler{
		options: h.options,
		attrs:   appendAttrsToGroup(h.groups, h.attrs, attrs...),
		groups:  h.groups,
	}
}

func (h *SlogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &SlogHandler{
		options: h.options,
		attrs:   h.attrs,
		groups:  append(slices.Clone(h.groups), name),
	}
}

func appendAttrsToGroup(groups []string, actual []slog.Attr, added ...slog.Attr) []slog.Attr {
	actual = slices.Clone(actual)

	if len(groups) == 0 {
		return append(actual, added...)
	}

	for i, attr := range actual {
		if attr.Key == groups[0] && attr.Value.Kind() == slog.KindGroup {
			actual[i] = slog.Group(groups[0], lo.ToAnySlice(appendAttrsToGroup(groups[1:], attr.Value.Group(), added...))...)
			return actual
		}
	}

	return append(actual, slog.Group(groups[0], lo.ToAnySlice(appendAttrsToGroup(groups[1:], nil, added...))...))
}
