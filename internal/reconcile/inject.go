// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reconcile

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pdiddy/pagemill/pkg/types"
)

// bracketLookback is how far the injector scans backward from a candidate
// occurrence when deciding whether it already sits inside link anchor text.
// Link labels are short in practice; anchor text longer than this window
// could false-negative, which is why the window is a named constant rather
// than a literal.
const bracketLookback = 50

// InjectLinks rewrites plain-text occurrences of each link's anchor text
// into Markdown link syntax. Occurrences already inside existing link
// syntax are left untouched, so a second pass over already-injected text is
// a no-op. Links are applied in resolver-output order; regions converted by
// an earlier link now contain bracket syntax and are naturally skipped by
// later ones.
func InjectLinks(text string, links []types.ResolvedLink) string {
	for _, l := range links {
		text = injectOne(text, l)
	}
	return text
}

// injectOne converts every qualifying occurrence of one anchor text. All
// context checks run against the text as it stood before this link's pass;
// within a single pass an earlier replacement never changes the verdict on
// a later occurrence.
func injectOne(text string, link types.ResolvedLink) string {
	pattern := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(link.Text))
	replacement := "[" + link.Text + "](" + link.Target + ")"

	var b strings.Builder
	last := 0
	for _, m := range pattern.FindAllStringIndex(text, -1) {
		start, end := m[0], m[1]
		if start < last {
			continue
		}
		if !atWordEdges(text, start, end) ||
			insideLinkText(text, start) ||
			beforeLinkDelimiter(text, end) {
			continue
		}
		b.WriteString(text[last:start])
		b.WriteString(replacement)
		last = end
	}
	b.WriteString(text[last:])
	return b.String()
}

// atWordEdges reports whether the occurrence is bounded by word edges: not
// preceded by a word character or an opening bracket, and not followed by a
// word character or a closing bracket.
func atWordEdges(text string, start, end int) bool {
	if r, size := utf8.DecodeLastRuneInString(text[:start]); size > 0 {
		if isWordRune(r) || r == '[' {
			return false
		}
	}
	if r, size := utf8.DecodeRuneInString(text[end:]); size > 0 {
		if isWordRune(r) || r == ']' {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// insideLinkText scans backward from start over a bounded window, tracking
// balanced bracket pairs. An unmatched opening bracket means the occurrence
// is already the anchor text of an existing Markdown link. This is a local
// context check, not a Markdown parser — sufficient because link spans are
// short.
func insideLinkText(text string, start int) bool {
	from := start - bracketLookback
	if from < 0 {
		from = 0
	}
	depth := 0
	for i := start - 1; i >= from; i-- {
		switch text[i] {
		case ']':
			depth++
		case '[':
			if depth > 0 {
				depth--
			} else {
				return true
			}
		}
	}
	return false
}

// beforeLinkDelimiter reports whether the occurrence is immediately
// followed, after optional whitespace, by "](" — the tail of an existing
// link's anchor text rather than new prose.
func beforeLinkDelimiter(text string, end int) bool {
	rest := strings.TrimLeft(text[end:], " \t\r\n")
	return strings.HasPrefix(rest, "](")
}
