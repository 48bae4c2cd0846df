// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package reconcile merges the three per-page signals — the vision-model
// transcription, the extracted embedded images, and the extracted hyperlink
// annotations — into a single well-formed Markdown page. Substitution is
// targeted and textual; the transcription is never parsed into a Markdown
// AST.
package reconcile

import (
	"fmt"
	"strings"

	"github.com/pdiddy/pagemill/pkg/types"
)

// minAnchorLen is the shortest anchor text worth injecting. Shorter anchors
// (single letters, punctuation) produce false-positive substitutions in
// running prose.
const minAnchorLen = 3

// ResolveLinks normalizes raw link annotations into (anchor text, target)
// pairs. Annotations with blank or too-short anchor text, an empty target,
// or an unresolvable destination page carry no actionable information and
// are dropped. The resolver does not deduplicate; re-matching at injection
// time is idempotent.
func ResolveLinks(raw []types.RawLink) []types.ResolvedLink {
	var out []types.ResolvedLink
	for _, l := range raw {
		text := strings.Join(strings.Fields(l.Text), " ")
		if len([]rune(text)) < minAnchorLen {
			continue
		}

		var target string
		switch l.Kind {
		case types.LinkURI:
			target = l.URI
		case types.LinkGoToPage:
			if l.TargetPage < 0 {
				continue
			}
			target = fmt.Sprintf("#page-%d", l.TargetPage+1)
		case types.LinkNamed:
			target = l.Name
		}
		if target == "" {
			continue
		}

		out = append(out, types.ResolvedLink{Text: text, Target: target})
	}
	return out
}
