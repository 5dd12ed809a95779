//go:build !ocr
// +build !ocr

package ocr

import (
	"context"
	"errors"
)

// Available reports whether a real OCR engine was compiled in.
const Available = false

// Tesseract is the fallback engine used when the binary was built without
// the "ocr" tag. Recognize always fails so callers fall back to direct text
// extraction.
type Tesseract struct{}

func NewTesseract() *Tesseract {
	return &Tesseract{}
}

func (t *Tesseract) Recognize(ctx context.Context, image []byte, languages string) (string, error) {
	return "", errors.New("OCR requires a build with the ocr tag and Tesseract installed")
}
