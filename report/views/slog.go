package views

import (
	"iter"
	"log/slog"
	"strings"
)

func iterSlogAttrs(record slog.Record) iter.Seq[slog.Attr] {
	return func(yield func(attr slog.Attr) bool) {
		record.Attrs(func(attr slog.Attr) bool {
			return yield(attr)
		})
	}
}

// flattenAttr renders group attributes as dotted keys.
func flattenAttr(prefix string, attr slog.Attr, out *[]KeyValue) {
	attr.Value = attr.Value.Resolve()
	key := attr.Key
	if prefix != "" {
		key = prefix + "." + key
	}
	if attr.Value.Kind() == slog.KindGroup {
		for _, a := range attr.Value.Group() {
			flattenAttr(key, a, out)
		}
		return
	}
	*out = append(*out, KeyValue{Key: key, Value: attr.Value.String()})
}

func recordAttrs(record slog.Record) []KeyValue {
	var out []KeyValue
	for attr := range iterSlogAttrs(record) {
		flattenAttr("", attr, &out)
	}
	return out
}

func levelClass(level slog.Level) string {
	return "level-" + strings.ToLower(level.String())
}
