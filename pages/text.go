package pages

import "strings"

// FirstLineAfterHeader returns the first value below a heading line, e.g. the first user name
// in "Accepted usernames are:\nstandard_user\nlocked_out_user". Blank lines are ignored.
// With a single line that line is returned.
func FirstLineAfterHeader(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	switch len(lines) {
	case 0:
		return ""
	case 1:
		return lines[0]
	default:
		return lines[1]
	}
}
