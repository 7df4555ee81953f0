package migration

import (
	"regexp"
	"strconv"
	"strings"
)

var hunkHeaderPattern = regexp.MustCompile(`@@ -(\d+)(?:,\d+)? \+\d+(?:,\d+)? @@`)

// parseHunkStartLine extracts the starting line number from the unified-diff
// hunk header of a review comment's diff context. The old-side header value is
// used as-is; the comment's position inside the hunk is not added to it.
func parseHunkStartLine(diffHunk string) (int, bool) {
	for _, hunkLine := range strings.Split(diffHunk, "\n") {
		headerMatch := hunkHeaderPattern.FindStringSubmatch(hunkLine)
		if headerMatch == nil {
			continue
		}

		startLine, parseError := strconv.Atoi(headerMatch[1])
		if parseError != nil {
			return 0, false
		}
		return startLine, true
	}
	return 0, false
}
