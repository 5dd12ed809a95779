package ocr

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
)

// Rasterizer renders one PDF page to an image suitable for OCR.
type Rasterizer interface {
	Render(ctx context.Context, pdfPath string, page int, dpi int) ([]byte, error)
}

// Pdftoppm shells out to poppler's pdftoppm, the same backend the usual
// Python pdf2image stack wraps. Each call renders a single page to a
// grayscale PNG in a temporary directory.
type Pdftoppm struct {
	Binary string
}

func NewPdftoppm() *Pdftoppm {
	return &Pdftoppm{Binary: "pdftoppm"}
}

func (p *Pdftoppm) Render(ctx context.Context, pdfPath string, page int, dpi int) ([]byte, error) {
	tmp, err := os.MkdirTemp("", "page-render-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	prefix := filepath.Join(tmp, "page")
	cmd := exec.CommandContext(ctx, p.Binary,
		"-png", "-gray",
		"-r", strconv.Itoa(dpi),
		"-f", strconv.Itoa(page),
		"-l", strconv.Itoa(page),
		pdfPath, prefix,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("pdftoppm page %d of %s: %w (%s)", page, pdfPath, err, out)
	}

	matches, err := filepath.Glob(prefix + "*.png")
	if err != nil || len(matches) == 0 {
		return nil, fmt.Errorf("pdftoppm produced no output for page %d of %s", page, pdfPath)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		return nil, fmt.Errorf("reading rendered page: %w", err)
	}
	return data, nil
}
