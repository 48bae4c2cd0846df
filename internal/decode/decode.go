// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package decode reads paginated documents: page enumeration, page
// rasterization, embedded image extraction, and link annotation
// extraction. It is the pipeline's view of the underlying PDF machinery;
// everything it returns is plain data from pkg/types.
package decode

import (
	"context"

	"github.com/pdiddy/pagemill/pkg/types"
)

// Document is one open paginated document. Page access is read-only and
// safe for concurrent use across pages; Close releases the underlying
// file handles.
type Document interface {
	// PageCount returns the number of pages.
	PageCount() int

	// RenderPage rasterizes the 0-based page to PNG at the given DPI.
	RenderPage(ctx context.Context, pageIndex, dpi int) ([]byte, error)

	// ExtractImages returns the page's embedded raster images in
	// extraction order. File naming is the caller's concern.
	ExtractImages(pageIndex int) ([]types.EmbeddedImage, error)

	// ExtractLinks returns the page's raw hyperlink annotations with
	// anchor text filled from the text layer.
	ExtractLinks(pageIndex int) ([]types.RawLink, error)

	// Close releases the document.
	Close() error
}
