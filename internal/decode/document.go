// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package decode

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"sync"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/pdiddy/pagemill/pkg/types"
)

// PDFDocument is the production Document. Page structure and embedded
// images come from pdfcpu, link annotations and the text layer from the
// text-layer reader, and rasterization from pdftoppm. Soft masks are
// applied by pdfcpu during extraction, so EmbeddedImage.Mask is always
// nil here and transparency arrives as PNG alpha.
type PDFDocument struct {
	path      string
	pageCount int

	// mu serializes access to file. pdfcpu parses with seek+read cycles
	// on the handle, so interleaved extractions from concurrent page
	// workers would corrupt each other's offsets.
	mu   sync.Mutex
	file *os.File

	textFile *os.File
	reader   *pdf.Reader
	render   *Renderer
}

// Open opens the PDF at path.
func Open(path string) (*PDFDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &types.DecodeError{Path: path, Err: err}
	}
	count, err := api.PageCount(f, nil)
	if err != nil {
		f.Close()
		return nil, &types.DecodeError{Path: path, Err: fmt.Errorf("page count: %w", err)}
	}
	tf, reader, err := pdf.Open(path)
	if err != nil {
		f.Close()
		return nil, &types.DecodeError{Path: path, Err: fmt.Errorf("open text layer: %w", err)}
	}
	return &PDFDocument{
		path:      path,
		pageCount: count,
		file:      f,
		textFile:  tf,
		reader:    reader,
		render:    NewRenderer(),
	}, nil
}

func (d *PDFDocument) PageCount() int { return d.pageCount }

func (d *PDFDocument) RenderPage(ctx context.Context, pageIndex, dpi int) ([]byte, error) {
	return d.render.Render(ctx, d.path, pageIndex, dpi)
}

func (d *PDFDocument) ExtractImages(pageIndex int) ([]types.EmbeddedImage, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := d.file.Seek(0, io.SeekStart); err != nil {
		return nil, &types.DecodeError{Path: d.path, Err: err}
	}
	selected := []string{strconv.Itoa(pageIndex + 1)}
	pages, err := api.ExtractImagesRaw(d.file, selected, nil)
	if err != nil {
		return nil, &types.DecodeError{
			Path: d.path,
			Err:  fmt.Errorf("extract images page %d: %w", pageIndex+1, err),
		}
	}

	var out []types.EmbeddedImage
	for _, byObj := range pages {
		// Map iteration order is random; sort by object number so
		// extraction order is stable run to run.
		objNrs := make([]int, 0, len(byObj))
		for objNr := range byObj {
			objNrs = append(objNrs, objNr)
		}
		sort.Ints(objNrs)
		for _, objNr := range objNrs {
			img := byObj[objNr]
			data, err := readImage(img)
			if err != nil {
				return nil, &types.DecodeError{
					Path: d.path,
					Err:  fmt.Errorf("read image obj %d page %d: %w", objNr, pageIndex+1, err),
				}
			}
			out = append(out, types.EmbeddedImage{Data: data})
		}
	}
	return out, nil
}

func readImage(img model.Image) ([]byte, error) {
	if img.Reader == nil {
		return nil, fmt.Errorf("image %q has no data", img.Name)
	}
	return io.ReadAll(img)
}

func (d *PDFDocument) ExtractLinks(pageIndex int) (links []types.RawLink, err error) {
	// The text-layer reader panics on some malformed content streams
	// instead of returning an error.
	defer func() {
		if r := recover(); r != nil {
			links = nil
			err = &types.DecodeError{
				Path: d.path,
				Err:  fmt.Errorf("extract links page %d: %v", pageIndex+1, r),
			}
		}
	}()

	page := d.reader.Page(pageIndex + 1)
	if page.V.IsNull() {
		return nil, &types.DecodeError{
			Path: d.path,
			Err:  fmt.Errorf("page %d not found", pageIndex+1),
		}
	}
	return linkAnnotations(page), nil
}

func (d *PDFDocument) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	err := d.file.Close()
	if terr := d.textFile.Close(); err == nil {
		err = terr
	}
	return err
}
