// Package ocr defines the collaborator contracts the loader needs to read
// image content: an OCR engine for embedded text and a captioner for
// diagrams without extractable text. The Tesseract engine is compiled in
// with the "ocr" build tag; without it, Available reports false and the
// loader stays in direct-extraction mode.
package ocr

import "context"

// Engine extracts text from a rasterized page or image region. An image with
// no text yields an empty string, not an error.
type Engine interface {
	Recognize(ctx context.Context, image []byte, languages string) (string, error)
}

// Captioner produces a best-effort semantic description of an image. A single
// string, possibly empty.
type Captioner interface {
	Caption(ctx context.Context, image []byte) (string, error)
}
