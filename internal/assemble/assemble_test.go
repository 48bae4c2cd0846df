// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package assemble

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/pagemill/internal/decode"
	"github.com/pdiddy/pagemill/pkg/types"
)

// fakeDocument serves synthetic pages. Render output encodes the page
// index so fake transcriptions can echo it back.
type fakeDocument struct {
	pages     int
	images    map[int][]types.EmbeddedImage
	links     map[int][]types.RawLink
	renderErr map[int]error
	closed    bool
}

func (d *fakeDocument) PageCount() int { return d.pages }

func (d *fakeDocument) RenderPage(_ context.Context, pageIndex, _ int) ([]byte, error) {
	if err := d.renderErr[pageIndex]; err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("raster-%d", pageIndex)), nil
}

func (d *fakeDocument) ExtractImages(pageIndex int) ([]types.EmbeddedImage, error) {
	return d.images[pageIndex], nil
}

func (d *fakeDocument) ExtractLinks(pageIndex int) ([]types.RawLink, error) {
	return d.links[pageIndex], nil
}

func (d *fakeDocument) Close() error {
	d.closed = true
	return nil
}

// fakeVision echoes page rasters as transcriptions and serves canned
// captions.
type fakeVision struct {
	transcribeErr error
	captionErr    error
	caption       string
	slowPage      string        // raster content that sleeps before returning
	slowBy        time.Duration //
	calls         atomic.Int32
}

func (v *fakeVision) TranscribePage(_ context.Context, png []byte) (string, error) {
	v.calls.Add(1)
	if v.transcribeErr != nil {
		return "", v.transcribeErr
	}
	if v.slowPage != "" && string(png) == v.slowPage {
		time.Sleep(v.slowBy)
	}
	return "transcript of " + string(png), nil
}

func (v *fakeVision) CaptionImage(_ context.Context, _ []byte) (string, error) {
	if v.captionErr != nil {
		return "", v.captionErr
	}
	return v.caption, nil
}

func newAssembler(v *fakeVision) *Assembler {
	return &Assembler{Vision: v, Model: "qwen3-vl", Log: zerolog.Nop()}
}

func TestStem(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"docs/report.pdf", "report"},
		{"a_very_long_document_name_indeed.pdf", "a_very_long_document"},
		{"no-ext", "no-ext"},
	}
	for _, tt := range tests {
		if got := Stem(tt.path); got != tt.want {
			t.Errorf("Stem(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestImageFileName(t *testing.T) {
	if got := imageFileName("report", 2, 0); got != "report_p3_img1.png" {
		t.Errorf("imageFileName() = %q", got)
	}
}

func TestUniqueStems(t *testing.T) {
	paths := []string{
		"a/the_same_truncated_stem_one.pdf",
		"a/the_same_truncated_stem_two.pdf",
		"a/other.pdf",
	}
	stems := uniqueStems(paths)
	if stems[paths[0]] == stems[paths[1]] {
		t.Errorf("colliding stems not disambiguated: %q", stems[paths[0]])
	}
	if stems[paths[2]] != "other" {
		t.Errorf("stems[other] = %q", stems[paths[2]])
	}
}

func TestUniqueStems_SuffixAvoidsGenuineStem(t *testing.T) {
	tests := []struct {
		name  string
		paths []string
	}{
		{
			name:  "generated suffix yields to a later genuine doc-2",
			paths: []string{"a/doc.pdf", "b/doc.pdf", "c/doc-2.pdf"},
		},
		{
			name:  "earlier genuine doc-2 pushes the suffix past it",
			paths: []string{"c/doc-2.pdf", "a/doc.pdf", "b/doc.pdf"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stems := uniqueStems(tt.paths)
			used := make(map[string]string, len(stems))
			for path, stem := range stems {
				if prev, ok := used[stem]; ok {
					t.Errorf("stem %q assigned to both %s and %s", stem, prev, path)
				}
				used[stem] = path
			}
		})
	}
}

func TestClampRange(t *testing.T) {
	tests := []struct {
		name                string
		first, last, count  int
		wantFirst, wantLast int
	}{
		{"full range", 0, -1, 5, 0, 4},
		{"explicit range", 1, 3, 5, 1, 3},
		{"last past end clamped", 2, 99, 5, 2, 4},
		{"negative first clamped", -3, 2, 5, 0, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, last := clampRange(tt.first, tt.last, tt.count)
			if first != tt.wantFirst || last != tt.wantLast {
				t.Errorf("clampRange() = (%d, %d), want (%d, %d)", first, last, tt.wantFirst, tt.wantLast)
			}
		})
	}
}

func TestConvertDocument_PagesInOrderDespiteSlowPage(t *testing.T) {
	v := &fakeVision{slowPage: "raster-2", slowBy: 50 * time.Millisecond}
	a := newAssembler(v)
	doc := &fakeDocument{pages: 5}

	md, pages, _, err := a.ConvertDocument(context.Background(), doc, "doc", t.TempDir(), t.TempDir(),
		types.ConvertConfig{PageFirst: 0, PageLast: -1, Workers: 3})
	if err != nil {
		t.Fatalf("ConvertDocument() error = %v", err)
	}
	if pages != 5 {
		t.Errorf("pages = %d, want 5", pages)
	}
	want := strings.Join([]string{
		"transcript of raster-0",
		"transcript of raster-1",
		"transcript of raster-2",
		"transcript of raster-3",
		"transcript of raster-4",
	}, "\n\n---\n\n")
	if md != want {
		t.Errorf("document out of page order:\n%s", md)
	}
	if got := v.calls.Load(); got != 5 {
		t.Errorf("transcription calls = %d, want one per page", got)
	}
}

func TestConvertDocument_NoTrailingSeparator(t *testing.T) {
	a := newAssembler(&fakeVision{})
	doc := &fakeDocument{pages: 2}
	md, _, _, err := a.ConvertDocument(context.Background(), doc, "doc", t.TempDir(), t.TempDir(),
		types.ConvertConfig{PageLast: -1})
	if err != nil {
		t.Fatalf("ConvertDocument() error = %v", err)
	}
	if strings.HasSuffix(md, "---\n\n") || strings.HasSuffix(md, "\n\n") {
		t.Errorf("trailing separator in %q", md)
	}
}

func TestConvertDocument_PageErrorIsFatal(t *testing.T) {
	a := newAssembler(&fakeVision{})
	doc := &fakeDocument{pages: 3, renderErr: map[int]error{1: errors.New("render boom")}}
	_, _, _, err := a.ConvertDocument(context.Background(), doc, "doc", t.TempDir(), t.TempDir(),
		types.ConvertConfig{PageLast: -1})
	if err == nil {
		t.Fatal("ConvertDocument() error = nil, want page failure")
	}
	if !strings.Contains(err.Error(), "page 2") {
		t.Errorf("error %q missing 1-based page number", err)
	}
}

func TestConvertDocument_EmptyRange(t *testing.T) {
	a := newAssembler(&fakeVision{})
	doc := &fakeDocument{pages: 3}
	md, pages, _, err := a.ConvertDocument(context.Background(), doc, "doc", t.TempDir(), t.TempDir(),
		types.ConvertConfig{PageFirst: 5, PageLast: -1})
	if err != nil {
		t.Fatalf("ConvertDocument() error = %v", err)
	}
	if md != "" || pages != 0 {
		t.Errorf("empty range produced output: %q, %d pages", md, pages)
	}
}

func TestConvertDocument_ImagesWrittenAndReferenced(t *testing.T) {
	v := &fakeVision{caption: "A chart"}
	a := newAssembler(v)
	doc := &fakeDocument{
		pages: 1,
		images: map[int][]types.EmbeddedImage{
			0: {{Data: []byte("not-a-real-png")}},
		},
	}
	outDir := t.TempDir()
	imagesDir := filepath.Join(outDir, "doc_images")

	md, _, images, err := a.ConvertDocument(context.Background(), doc, "doc", imagesDir, outDir,
		types.ConvertConfig{PageLast: -1})
	if err != nil {
		t.Fatalf("ConvertDocument() error = %v", err)
	}
	if images != 1 {
		t.Errorf("images = %d, want 1", images)
	}
	written, err := os.ReadFile(filepath.Join(imagesDir, "doc_p1_img1.png"))
	if err != nil {
		t.Fatalf("image file not written: %v", err)
	}
	// Undecodable data passes through compositing unchanged.
	if string(written) != "not-a-real-png" {
		t.Errorf("image content = %q", written)
	}
	if !strings.Contains(md, "![A chart](doc_images/doc_p1_img1.png)") {
		t.Errorf("markdown missing image reference:\n%s", md)
	}
}

func TestConvertDocument_CaptionFallback(t *testing.T) {
	v := &fakeVision{captionErr: errors.New("model offline")}
	a := newAssembler(v)
	doc := &fakeDocument{
		pages:  1,
		images: map[int][]types.EmbeddedImage{0: {{Data: []byte("img")}}},
	}
	outDir := t.TempDir()

	md, _, _, err := a.ConvertDocument(context.Background(), doc, "doc",
		filepath.Join(outDir, "imgs"), outDir, types.ConvertConfig{PageLast: -1})
	if err != nil {
		t.Fatalf("ConvertDocument() error = %v", err)
	}
	if !strings.Contains(md, "![Image from page 1](") {
		t.Errorf("fallback caption missing:\n%s", md)
	}
}

func openFake(doc *fakeDocument) OpenFunc {
	return func(string) (decode.Document, error) { return doc, nil }
}

func TestConvertFile_WritesOutputAndManifest(t *testing.T) {
	a := newAssembler(&fakeVision{})
	doc := &fakeDocument{pages: 2}
	outDir := t.TempDir()
	cfg := types.ConvertConfig{OutputPath: filepath.Join(outDir, "report.md"), PageLast: -1}
	var buf strings.Builder

	res := a.ConvertFile(context.Background(), openFake(doc), "in/report.pdf", "report", cfg, &buf)
	if res.Status != types.DocumentConverted {
		t.Fatalf("status = %q (err %v)", res.Status, res.Err)
	}
	if res.Pages != 2 {
		t.Errorf("pages = %d, want 2", res.Pages)
	}
	if !doc.closed {
		t.Error("document not closed")
	}
	if _, err := os.Stat(cfg.OutputPath); err != nil {
		t.Errorf("markdown not written: %v", err)
	}
	m, err := ReadManifest(filepath.Join(outDir, "report.manifest.yaml"))
	if err != nil {
		t.Fatalf("manifest: %v", err)
	}
	if m.Model != "qwen3-vl" || m.Pages != 2 {
		t.Errorf("manifest = %+v", m)
	}
	if !strings.Contains(buf.String(), "converted: report") {
		t.Errorf("status line missing: %q", buf.String())
	}
}

func TestConvertFile_SkipsExistingOutput(t *testing.T) {
	a := newAssembler(&fakeVision{})
	outDir := t.TempDir()
	outPath := filepath.Join(outDir, "report.md")
	if err := os.WriteFile(outPath, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	var buf strings.Builder

	res := a.ConvertFile(context.Background(), openFake(&fakeDocument{pages: 1}),
		"in/report.pdf", "report", types.ConvertConfig{OutputPath: outPath, PageLast: -1}, &buf)
	if res.Status != types.DocumentSkipped {
		t.Errorf("status = %q, want skipped", res.Status)
	}
	if !strings.Contains(buf.String(), "skipped: report (already exists)") {
		t.Errorf("status line = %q", buf.String())
	}
}

func TestConvertFile_OpenFailure(t *testing.T) {
	a := newAssembler(&fakeVision{})
	open := func(string) (decode.Document, error) { return nil, errors.New("bad pdf") }
	var buf strings.Builder

	res := a.ConvertFile(context.Background(), open, "in/report.pdf", "report",
		types.ConvertConfig{OutputPath: filepath.Join(t.TempDir(), "report.md"), PageLast: -1}, &buf)
	if res.Status != types.DocumentFailed {
		t.Errorf("status = %q, want failed", res.Status)
	}
	if !strings.Contains(buf.String(), "failed:  report (bad pdf)") {
		t.Errorf("status line = %q", buf.String())
	}
}

func TestConvertBatch_IsolatesFailuresAndSummarizes(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()
	for _, name := range []string{"a.pdf", "b.pdf", "c.pdf"} {
		if err := os.WriteFile(filepath.Join(inDir, name), []byte("%PDF"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	// b already converted.
	if err := os.WriteFile(filepath.Join(outDir, "b.md"), []byte("done"), 0o644); err != nil {
		t.Fatal(err)
	}

	a := newAssembler(&fakeVision{})
	open := func(path string) (decode.Document, error) {
		if filepath.Base(path) == "c.pdf" {
			return nil, errors.New("corrupt")
		}
		return &fakeDocument{pages: 1}, nil
	}
	var buf strings.Builder

	res, err := a.ConvertBatch(context.Background(), open, inDir,
		types.BatchConfig{ConvertConfig: types.ConvertConfig{PageLast: -1}, OutputDir: outDir}, &buf)
	if err != nil {
		t.Fatalf("ConvertBatch() error = %v", err)
	}
	if res.Converted != 1 || res.Skipped != 1 || res.Failed != 1 {
		t.Errorf("result = %d/%d/%d, want 1/1/1", res.Converted, res.Skipped, res.Failed)
	}
	if res.Total() != 3 || !res.HasFailures() {
		t.Errorf("Total() = %d, HasFailures() = %v", res.Total(), res.HasFailures())
	}
	if !strings.Contains(buf.String(), "Batch summary: 1 converted, 1 skipped, 1 failed (total: 3)") {
		t.Errorf("summary line missing: %q", buf.String())
	}
}

func TestConvertBatch_EmptyDir(t *testing.T) {
	a := newAssembler(&fakeVision{})
	_, err := a.ConvertBatch(context.Background(), openFake(&fakeDocument{}), t.TempDir(),
		types.BatchConfig{}, &strings.Builder{})
	if err == nil || !strings.Contains(err.Error(), "no PDF files") {
		t.Errorf("error = %v, want no-PDFs failure", err)
	}
}

func TestListPDFs_SortedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.pdf", "a.PDF", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	got, err := ListPDFs(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || filepath.Base(got[0]) != "a.PDF" || filepath.Base(got[1]) != "b.pdf" {
		t.Errorf("ListPDFs() = %v", got)
	}
}

func TestManifestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.manifest.yaml")
	in := Manifest{
		Source:      "in/doc.pdf",
		Output:      "out/doc.md",
		Model:       "qwen3-vl",
		Pages:       7,
		Images:      3,
		Duration:    "42s",
		ConvertedAt: time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC),
	}
	if err := WriteManifest(path, in); err != nil {
		t.Fatal(err)
	}
	out, err := ReadManifest(path)
	if err != nil {
		t.Fatal(err)
	}
	if out != in {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}
