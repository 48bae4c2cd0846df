// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reconcile

import "github.com/pdiddy/pagemill/pkg/types"

// PageInput bundles the three reconciliation signals for one page.
type PageInput struct {
	// Transcription is the raw Markdown produced by the vision model.
	Transcription string

	// Images are the persisted embedded images, in extraction order.
	Images []types.ImageRef

	// Links are the raw link annotations extracted from the page.
	Links []types.RawLink
}

// Page produces the final Markdown for one page: placeholders resolved or
// removed first, then qualifying anchor text converted to link syntax.
// The merge runs before injection so injected links are never scanned for
// placeholders and vice versa. Deterministic: identical inputs produce
// identical output.
func Page(in PageInput) string {
	text := MergePlaceholders(in.Transcription, in.Images)
	return InjectLinks(text, ResolveLinks(in.Links))
}
