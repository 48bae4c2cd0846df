// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package decode

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/pdiddy/pagemill/pkg/types"
)

const binPdftoppm = "pdftoppm"

// DefaultDPI is the rasterization resolution used when the caller does
// not specify one.
const DefaultDPI = 150

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	RunCapture(ctx context.Context, name string, args ...string) ([]byte, error)
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) RunCapture(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Renderer rasterizes single pages by shelling out to pdftoppm. The tool
// writes its output to a file prefix, so each render goes through a
// temporary directory that is removed before returning.
type Renderer struct {
	exec executor
}

// NewRenderer returns a Renderer backed by the local pdftoppm binary.
func NewRenderer() *Renderer {
	return &Renderer{exec: &osExecutor{}}
}

// Available reports whether pdftoppm exists on PATH.
func (r *Renderer) Available() bool {
	_, err := r.exec.LookPath(binPdftoppm)
	return err == nil
}

// Render rasterizes the 0-based page of pdfPath to PNG at the given DPI.
func (r *Renderer) Render(ctx context.Context, pdfPath string, pageIndex, dpi int) ([]byte, error) {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	tmpDir, err := os.MkdirTemp("", "pagemill-render-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	page := strconv.Itoa(pageIndex + 1)
	out, err := r.exec.RunCapture(ctx, binPdftoppm,
		"-png",
		"-f", page,
		"-l", page,
		"-r", strconv.Itoa(dpi),
		"-singlefile",
		pdfPath,
		prefix,
	)
	if err != nil {
		return nil, &types.DecodeError{
			Path: pdfPath,
			Err:  fmt.Errorf("pdftoppm page %s: %w: %s", page, err, out),
		}
	}

	data, err := os.ReadFile(prefix + ".png")
	if err != nil {
		return nil, &types.DecodeError{
			Path: pdfPath,
			Err:  fmt.Errorf("pdftoppm page %s produced no output: %w", page, err),
		}
	}
	return data, nil
}
