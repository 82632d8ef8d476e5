package testhelper

import (
	"regexp"
	"strings"
	"testing"
)

var leadingSpaces = regexp.MustCompile(`^[ \t]*`)

// CSV turns an indented raw string literal into fixture text. The first line
// (normally empty, right after the opening backquote) is dropped, the indent
// of the second line is removed from every line, and a trailing line holding
// only indentation is discarded.
//
//	input := testhelper.CSV(t, `
//		Name,Wage
//		Ann,"1,000"
//		`)
func CSV(t *testing.T, src string) string {
	t.Helper()

	lines := strings.Split(src, "\n")
	if len(lines) < 2 {
		return src
	}
	lines = lines[1:]

	indent := leadingSpaces.FindString(lines[0])
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, indent)
	}

	if last := len(lines) - 1; strings.TrimLeft(lines[last], " \t") == "" {
		lines[last] = ""
	}
	return strings.Join(lines, "\n")
}
