// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package assemble

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pdiddy/pagemill/internal/decode"
	"github.com/pdiddy/pagemill/pkg/types"
)

// OpenFunc opens a document for conversion. Production code uses
// decode.Open; tests substitute fakes.
type OpenFunc func(path string) (decode.Document, error)

// ConvertFile converts one PDF, writing the Markdown output, its images
// directory, and a manifest. If the Markdown output already exists the
// document is skipped. Per-file status goes to w.
func (a *Assembler) ConvertFile(ctx context.Context, open OpenFunc, pdfPath, stem string, cfg types.ConvertConfig, w io.Writer) types.DocumentResult {
	start := time.Now()

	outPath := cfg.OutputPath
	if outPath == "" {
		outPath = filepath.Join(filepath.Dir(pdfPath), stem+".md")
	}
	refDir := filepath.Dir(outPath)
	imagesDir := cfg.ImagesDir
	if imagesDir == "" {
		imagesDir = filepath.Join(refDir, stem+"_images")
	}

	result := types.DocumentResult{Source: pdfPath}

	if _, err := os.Stat(outPath); err == nil {
		fmt.Fprintf(w, "skipped: %s (already exists)\n", stem)
		result.Status = types.DocumentSkipped
		result.Output = outPath
		return result
	}

	fail := func(err error) types.DocumentResult {
		fmt.Fprintf(w, "failed:  %s (%v)\n", stem, err)
		result.Status = types.DocumentFailed
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}

	doc, err := open(pdfPath)
	if err != nil {
		return fail(err)
	}
	defer doc.Close()

	markdown, pages, images, err := a.ConvertDocument(ctx, doc, stem, imagesDir, refDir, cfg)
	if err != nil {
		return fail(err)
	}

	if err := os.MkdirAll(refDir, 0o755); err != nil {
		return fail(err)
	}
	if err := os.WriteFile(outPath, []byte(markdown), 0o644); err != nil {
		return fail(err)
	}

	duration := time.Since(start)
	manifest := Manifest{
		Source:      pdfPath,
		Output:      outPath,
		Model:       a.Model,
		Pages:       pages,
		Images:      images,
		Duration:    duration.Round(time.Millisecond).String(),
		ConvertedAt: time.Now().UTC(),
	}
	if err := WriteManifest(filepath.Join(refDir, stem+".manifest.yaml"), manifest); err != nil {
		a.Log.Warn().Err(err).Str("doc", stem).Msg("manifest write failed")
	}

	fmt.Fprintf(w, "converted: %s (%d pages, %d images)\n", stem, pages, images)
	result.Status = types.DocumentConverted
	result.Output = outPath
	result.Pages = pages
	result.Images = images
	result.Duration = duration
	return result
}

// ConvertBatch converts every PDF directly under dir, isolating per-file
// failures, printing per-file status and a summary to w.
func (a *Assembler) ConvertBatch(ctx context.Context, open OpenFunc, dir string, cfg types.BatchConfig, w io.Writer) (types.BatchResult, error) {
	pdfs, err := ListPDFs(dir)
	if err != nil {
		return types.BatchResult{}, err
	}
	if len(pdfs) == 0 {
		return types.BatchResult{}, fmt.Errorf("no PDF files in %s", dir)
	}

	outDir := cfg.OutputDir
	if outDir == "" {
		outDir = dir
	}

	stems := uniqueStems(pdfs)
	var result types.BatchResult
	for _, pdfPath := range pdfs {
		stem := stems[pdfPath]
		docCfg := cfg.ConvertConfig
		docCfg.OutputPath = filepath.Join(outDir, stem+".md")
		docCfg.ImagesDir = filepath.Join(outDir, stem+"_images")

		doc := a.ConvertFile(ctx, open, pdfPath, stem, docCfg, w)
		result.Documents = append(result.Documents, doc)
		switch doc.Status {
		case types.DocumentConverted:
			result.Converted++
		case types.DocumentSkipped:
			result.Skipped++
		case types.DocumentFailed:
			result.Failed++
		}
	}
	fmt.Fprintf(w, "\nBatch summary: %d converted, %d skipped, %d failed (total: %d)\n",
		result.Converted, result.Skipped, result.Failed, result.Total())
	return result, nil
}
