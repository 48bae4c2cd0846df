// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package vision

import (
	"regexp"
	"strings"
)

// thinkingPatterns match reasoning lines some vision models leak into their
// output ("Wait, no...", "Let me check...", "So final Markdown:"). Each
// matched line is collapsed to a newline.
var thinkingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\n*Wait,\s*no[^\n]*\n`),
	regexp.MustCompile(`(?i)\n*Let me[^\n]*\n`),
	regexp.MustCompile(`(?i)\n*So final [Mm]arkdown:[^\n]*\n`),
	regexp.MustCompile(`(?i)\n*Actually,[^\n]*\n`),
	regexp.MustCompile(`(?i)\n*I notice[^\n]*\n`),
	regexp.MustCompile(`(?i)\n*Looking at[^\n]*\n`),
}

var (
	fenceOpenRE  = regexp.MustCompile("^```(?:markdown)?[ \t]*\n")
	fenceCloseRE = regexp.MustCompile("\n```[ \t]*$")
	blankRunsRE  = regexp.MustCompile(`\n{3,}`)
)

// CleanTranscript strips model reasoning noise and code-fence wrappers from
// raw vision output and collapses runs of blank lines. Models sometimes
// wrap the whole page in a ```markdown fence; that wrapper is not page
// content.
func CleanTranscript(s string) string {
	for _, re := range thinkingPatterns {
		s = re.ReplaceAllString(s, "\n")
	}
	s = fenceOpenRE.ReplaceAllString(s, "")
	s = fenceCloseRE.ReplaceAllString(s, "")
	s = blankRunsRE.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
