// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package assemble orchestrates the conversion of a document: pages are
// rendered, transcribed, and reconciled with the document's embedded
// images and link annotations, then joined into a single Markdown file.
package assemble

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/pdiddy/pagemill/internal/composite"
	"github.com/pdiddy/pagemill/internal/decode"
	"github.com/pdiddy/pagemill/internal/reconcile"
	"github.com/pdiddy/pagemill/internal/vision"
	"github.com/pdiddy/pagemill/pkg/types"
)

// pageSeparator joins page transcriptions in the final document. There is
// no trailing separator after the last page.
const pageSeparator = "\n\n---\n\n"

// DefaultWorkers is the per-document page concurrency. Page work is bound
// by vision calls, not CPU.
const DefaultWorkers = 4

// Assembler converts open documents to Markdown.
type Assembler struct {
	Vision vision.Client
	Model  string // recorded in manifests
	Log    zerolog.Logger
}

// pageResult is one page's outcome inside the worker pool.
type pageResult struct {
	markdown string
	images   int
	err      error
}

// ConvertDocument converts doc to a single Markdown string. Composited
// page images are written under imagesDir with names derived from stem;
// their Markdown references are relative to refDir (the directory the
// Markdown output will live in). It returns the Markdown, the number of
// pages converted, and the number of images written. The first page
// error, in page order, is fatal.
func (a *Assembler) ConvertDocument(ctx context.Context, doc decode.Document, stem, imagesDir, refDir string, cfg types.ConvertConfig) (string, int, int, error) {
	first, last := clampRange(cfg.PageFirst, cfg.PageLast, doc.PageCount())
	if first > last {
		return "", 0, 0, nil
	}
	n := last - first + 1

	workers := cfg.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	results := make([]pageResult, n)
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			if err := ctx.Err(); err != nil {
				results[slot] = pageResult{err: err}
				return
			}
			results[slot] = a.convertPage(ctx, doc, first+slot, stem, imagesDir, refDir, cfg.DPI)
		}(i)
	}
	wg.Wait()

	parts := make([]string, n)
	images := 0
	for i, r := range results {
		if r.err != nil {
			return "", 0, 0, fmt.Errorf("page %d: %w", first+i+1, r.err)
		}
		parts[i] = r.markdown
		images += r.images
	}
	return strings.Join(parts, pageSeparator), n, images, nil
}

// convertPage runs the full per-page pipeline: rasterize, transcribe,
// persist composited images, resolve links, reconcile.
func (a *Assembler) convertPage(ctx context.Context, doc decode.Document, pageIndex int, stem, imagesDir, refDir string, dpi int) pageResult {
	log := a.Log.With().Int("page", pageIndex+1).Logger()

	refs, written, err := a.persistImages(ctx, doc, pageIndex, stem, imagesDir, refDir, log)
	if err != nil {
		return pageResult{err: err}
	}

	raster, err := doc.RenderPage(ctx, pageIndex, dpi)
	if err != nil {
		return pageResult{err: err}
	}
	transcript, err := a.Vision.TranscribePage(ctx, raster)
	if err != nil {
		return pageResult{err: err}
	}

	// Link extraction failure degrades to a page without links; the
	// transcription is still worth keeping.
	links, err := doc.ExtractLinks(pageIndex)
	if err != nil {
		log.Warn().Err(err).Msg("link extraction failed, continuing without links")
		links = nil
	}

	md := reconcile.Page(reconcile.PageInput{
		Transcription: transcript,
		Images:        refs,
		Links:         links,
	})
	log.Info().Int("images", written).Int("links", len(links)).Msg("page converted")
	return pageResult{markdown: md, images: written}
}

// persistImages composites and writes the page's embedded images, then
// captions each one. Caption failures fall back to a positional caption
// instead of failing the page.
func (a *Assembler) persistImages(ctx context.Context, doc decode.Document, pageIndex int, stem, imagesDir, refDir string, log zerolog.Logger) ([]types.ImageRef, int, error) {
	imgs, err := doc.ExtractImages(pageIndex)
	if err != nil {
		log.Warn().Err(err).Msg("image extraction failed, continuing without images")
		return nil, 0, nil
	}
	if len(imgs) == 0 {
		return nil, 0, nil
	}
	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		return nil, 0, fmt.Errorf("create images dir: %w", err)
	}

	rel, err := filepath.Rel(refDir, imagesDir)
	if err != nil {
		rel = imagesDir
	}

	var refs []types.ImageRef
	for ord, img := range imgs {
		flat := composite.Flatten(img.Data, img.Mask, log)
		name := imageFileName(stem, pageIndex, ord)
		if err := os.WriteFile(filepath.Join(imagesDir, name), flat, 0o644); err != nil {
			return nil, 0, fmt.Errorf("write image %s: %w", name, err)
		}

		caption, err := a.Vision.CaptionImage(ctx, flat)
		if err != nil || strings.TrimSpace(caption) == "" {
			if err != nil {
				log.Warn().Err(err).Str("image", name).Msg("caption failed, using fallback")
			}
			caption = fmt.Sprintf("Image from page %d", pageIndex+1)
		}

		refs = append(refs, types.ImageRef{
			Path:    filepath.ToSlash(filepath.Join(rel, name)),
			Caption: caption,
		})
	}
	return refs, len(refs), nil
}

// clampRange normalizes a 0-based inclusive page range to the document.
// A negative last means "through the final page".
func clampRange(first, last, pageCount int) (int, int) {
	if first < 0 {
		first = 0
	}
	if last < 0 || last > pageCount-1 {
		last = pageCount - 1
	}
	return first, last
}

// ListPDFs returns the PDF files directly under dir, sorted by name.
func ListPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}
