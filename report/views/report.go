//go:generate go run github.com/a-h/templ/cmd/templ@v0.3.865 generate

package views

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

const timeLayout = "2006-01-02 15:04:05"

var summaryStatuses = []string{"pass", "fail", "warning", "skip", "info"}

func firstNonEmpty(name, title string) string {
	if name != "" {
		return name
	}
	return title
}

// statusCounts returns badge labels like "pass 3" for every status with at least one test.
func statusCounts(counts map[string]int) []KeyValue {
	var out []KeyValue
	for _, status := range summaryStatuses {
		if n := counts[status]; n > 0 {
			out = append(out, KeyValue{Key: status, Value: fmt.Sprintf("%s %d", status, n)})
		}
	}
	return out
}

func screenshotLink(path string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		src := templ.EscapeString(path)
		_, err := fmt.Fprintf(w, `<a href="%[1]s" target="_blank"><img class="screenshot" src="%[1]s" alt="screenshot"></a>`, src)
		return err
	})
}

const baseStyles = `<style>
body { font-family: -apple-system, "Segoe UI", Roboto, sans-serif; margin: 0; color: #1f2328; background: #f6f8fa; }
header { background: #fff; padding: 16px 24px; border-bottom: 1px solid #d0d7de; }
h1 { margin: 0 0 4px; font-size: 22px; }
main { padding: 16px 24px; }
.muted { color: #656d76; font-size: 13px; }
.summary { display: flex; gap: 8px; align-items: center; margin: 8px 0; }
.sysinfo th { text-align: left; padding-right: 16px; font-weight: 600; }
.sysinfo td, .sysinfo th { font-size: 13px; padding: 2px 16px 2px 0; }
details.test { background: #fff; border: 1px solid #d0d7de; border-radius: 6px; margin-bottom: 8px; }
details.test > summary { cursor: pointer; padding: 8px 12px; }
details.status-fail { border-left: 4px solid #cf222e; }
details.status-pass { border-left: 4px solid #1a7f37; }
details.status-warning { border-left: 4px solid #bf8700; }
.test-name { font-weight: 600; margin: 0 4px; }
.description { margin: 0 12px 8px; color: #656d76; }
table.entries { width: 100%; border-collapse: collapse; }
table.entries td { border-top: 1px solid #eaeef2; padding: 6px 12px; vertical-align: top; font-size: 13px; }
td.time { white-space: nowrap; color: #656d76; width: 70px; }
td.status { width: 80px; }
pre.message { margin: 0; white-space: pre-wrap; font-family: inherit; }
img.screenshot { max-width: 480px; border: 1px solid #d0d7de; }
video { max-width: 640px; }
.code-title { font-family: monospace; margin-bottom: 4px; }
.log.level-warn { color: #9a6700; }
.log.level-error { color: #cf222e; }
.attr { font-family: monospace; color: #656d76; }
.badge { display: inline-flex; align-items: center; border-radius: 999px; border: 1px solid transparent; padding: 1px 8px; font-size: 11px; font-weight: 600; font-family: monospace; }
.badge-default { background: #1f2328; color: #fff; }
.badge-secondary { background: #eaeef2; color: #1f2328; }
.badge-success { background: #1a7f37; color: #fff; }
.badge-warning { background: #d4a72c; color: #fff; }
.badge-error { background: #cf222e; color: #fff; }
.badge-outline { border-color: #d0d7de; color: #1f2328; }
</style>`
