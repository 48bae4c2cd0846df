// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared data model for the conversion pipeline:
// pages, embedded images, link annotations, configuration, and the error
// taxonomy.
package types

// EmbeddedImage is a raster image embedded in a page. Once persisted, its
// backing file is always fully opaque: transparency is composited onto a
// white background before writing, because dark-themed Markdown viewers
// render untouched transparency as black.
type EmbeddedImage struct {
	// Data is the decoded image stream (PNG or JPEG bytes).
	Data []byte

	// Mask is an optional single-channel soft mask (PNG bytes). Its
	// dimensions may differ from Data and are resampled before use.
	Mask []byte
}

// ImageRef pairs a persisted image path with its caption. The path is
// relative to the Markdown output directory and slash-separated.
type ImageRef struct {
	Path    string
	Caption string
}

// LinkKind classifies a raw link annotation's destination.
type LinkKind string

const (
	// LinkURI is an external URI action.
	LinkURI LinkKind = "uri"
	// LinkGoToPage is an internal jump to another page of the document.
	LinkGoToPage LinkKind = "goto"
	// LinkNamed is a named destination.
	LinkNamed LinkKind = "named"
)

// Rect is a region on a page in PDF user space. Y grows upward; (Llx, Lly)
// is the lower-left corner and (Urx, Ury) the upper-right.
type Rect struct {
	Llx, Lly, Urx, Ury float64
}

// Contains reports whether the point (x, y) lies inside the rectangle,
// inclusive of its edges.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.Llx && x <= r.Urx && y >= r.Lly && y <= r.Ury
}

// RawLink is a hyperlink annotation as extracted from a page, before
// normalization. Exactly one of URI, TargetPage, or Name carries the
// destination, selected by Kind.
type RawLink struct {
	// Rect is the annotation region on the page.
	Rect Rect

	// Kind is the destination classification.
	Kind LinkKind

	// URI is the external target for LinkURI links.
	URI string

	// TargetPage is the 0-based destination page for LinkGoToPage links;
	// -1 when the destination could not be resolved.
	TargetPage int

	// Name is the destination name for LinkNamed links.
	Name string

	// Text is the anchor text extracted from the text layer inside Rect.
	// May be empty.
	Text string
}

// ResolvedLink is a normalized (anchor text, target reference) pair ready
// for injection into Markdown. Text is whitespace-normalized and at least
// three characters long; Target is a URI, a #page-<N> fragment (1-based),
// or a named destination, always non-empty.
type ResolvedLink struct {
	Text   string
	Target string
}
