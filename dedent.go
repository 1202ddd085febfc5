package mdplugin

import "strings"

// Dedent removes leading and trailing blank lines and the indentation shared by
// all non-blank lines, so markdown indented to match the surrounding HTML isn't
// read as an indented code block.
func Dedent(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	lines := strings.Split(s, "\n")

	start, end := 0, len(lines)
	for start < end && isBlank(lines[start]) {
		start++
	}
	for end > start && isBlank(lines[end-1]) {
		end--
	}
	lines = lines[start:end]
	if len(lines) == 0 {
		return ""
	}

	indent := -1
	for _, line := range lines {
		if isBlank(line) {
			continue
		}
		n := indentWidth(line)
		if indent < 0 || n < indent {
			indent = n
		}
	}

	for i, line := range lines {
		cut := indent
		if w := indentWidth(line); w < cut {
			cut = w
		}
		lines[i] = line[cut:]
	}
	return strings.Join(lines, "\n")
}

func isBlank(line string) bool {
	return strings.TrimLeft(line, " \t") == ""
}

// indentWidth counts leading spaces and tabs. Both are one byte wide.
func indentWidth(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}
