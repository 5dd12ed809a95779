//go:build ocr
// +build ocr

package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Available reports whether a real OCR engine was compiled in.
const Available = true

// Tesseract recognizes text through gosseract. A fresh client is created per
// call; gosseract clients are not safe for concurrent use.
type Tesseract struct {
	PageSegMode gosseract.PageSegMode
}

func NewTesseract() *Tesseract {
	return &Tesseract{PageSegMode: gosseract.PSM_AUTO}
}

func (t *Tesseract) Recognize(ctx context.Context, image []byte, languages string) (string, error) {
	if len(image) == 0 {
		return "", nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if languages == "" {
		languages = "spa+eng"
	}
	if err := client.SetLanguage(strings.Split(languages, "+")...); err != nil {
		return "", fmt.Errorf("setting OCR languages %q: %w", languages, err)
	}
	if err := client.SetPageSegMode(t.PageSegMode); err != nil {
		return "", fmt.Errorf("setting page segmentation mode: %w", err)
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("loading image for OCR: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("running OCR: %w", err)
	}
	return strings.TrimSpace(text), nil
}
