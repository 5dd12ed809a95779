// Package loader reads corpus files into Documents. Plain text and LaTeX are
// read as-is; PDFs go through per-page text extraction, optionally merged
// with OCR output into one continuous reading-order stream.
package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/CTepedino/deep-learning-tp2/internal/metadata"
	"github.com/CTepedino/deep-learning-tp2/internal/models"
	"github.com/CTepedino/deep-learning-tp2/internal/ocr"
)

// duplicateThreshold is the word-set Jaccard similarity above which OCR text
// is considered a re-capture of the page's direct text and dropped.
const duplicateThreshold = 0.5

// LoadError marks a file that could not be turned into a Document. The batch
// loader records it and moves on to the next file.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Options configures a Loader. Engine, Rasterizer and Captioner are optional;
// continuous-flow OCR merging needs both Engine and Rasterizer.
type Options struct {
	OCRLanguages string
	DPI          int
	PageJoin     string
	OCRWorkers   int

	Engine     ocr.Engine
	Rasterizer ocr.Rasterizer
	Captioner  ocr.Captioner
}

type Loader struct {
	extractor *metadata.Extractor
	opts      Options
	logger    zerolog.Logger
}

func New(extractor *metadata.Extractor, opts Options) *Loader {
	if opts.OCRLanguages == "" {
		opts.OCRLanguages = "spa+eng"
	}
	if opts.DPI <= 0 {
		opts.DPI = 300
	}
	if opts.PageJoin == "" {
		opts.PageJoin = "\n\n"
	}
	if opts.OCRWorkers <= 0 {
		opts.OCRWorkers = 4
	}
	return &Loader{
		extractor: extractor,
		opts:      opts,
		logger:    log.With().Str("component", "loader").Logger(),
	}
}

var supportedExts = map[string]string{
	".txt": "txt",
	".tex": "tex",
	".pdf": "pdf",
}

// Load reads one file into a Document with its path-derived metadata
// attached. Unsupported extensions, unreadable files and PDFs yielding no
// text all fail with a LoadError.
func (l *Loader) Load(ctx context.Context, path string) (models.Document, error) {
	fileType, ok := supportedExts[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return models.Document{}, &LoadError{Path: path, Err: fmt.Errorf("unsupported extension %q", filepath.Ext(path))}
	}

	var content string
	var err error
	switch fileType {
	case "pdf":
		content, err = l.loadPDF(ctx, path)
	default:
		content, err = readTextFile(path)
	}
	if err != nil {
		return models.Document{}, &LoadError{Path: path, Err: err}
	}

	if strings.TrimSpace(content) == "" {
		if info, statErr := os.Stat(path); statErr == nil && info.Size() > 0 {
			return models.Document{}, &LoadError{Path: path, Err: fmt.Errorf("no text extracted")}
		}
	}

	res := l.extractor.Extract(path)
	md := res.Metadata
	md.FileType = fileType
	if res.Fallback {
		l.logger.Debug().Str("path", path).Msg("metadata extracted via fallback heuristics")
	}

	return models.Document{Source: path, Content: content, Metadata: md}, nil
}

func readTextFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading file: %w", err)
	}
	return string(data), nil
}

// loadPDF extracts each page's direct text, then, when an OCR engine and a
// rasterizer are configured, merges OCR output into the page's flow. OCR runs
// across pages on a bounded worker pool but pages are reassembled strictly in
// page order.
func (l *Loader) loadPDF(ctx context.Context, path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening PDF: %w", err)
	}
	defer f.Close()

	total := r.NumPage()
	direct := make([]string, total)
	for i := 1; i <= total; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			l.logger.Warn().Str("path", path).Int("page", i).Err(err).Msg("direct text extraction failed for page")
			continue
		}
		direct[i-1] = strings.TrimSpace(text)
	}

	pages := direct
	if l.opts.Engine != nil && l.opts.Rasterizer != nil {
		pages, err = l.mergeOCR(ctx, path, direct)
		if err != nil {
			return "", err
		}
	}

	var nonEmpty []string
	for _, p := range pages {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, l.opts.PageJoin), nil
}

// mergeOCR runs OCR per page and appends whatever the direct pass missed.
func (l *Loader) mergeOCR(ctx context.Context, path string, direct []string) ([]string, error) {
	merged := make([]string, len(direct))
	sem := make(chan struct{}, l.opts.OCRWorkers)
	var wg sync.WaitGroup

	for i := range direct {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			merged[idx] = l.mergePage(ctx, path, idx+1, direct[idx])
		}(i)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return merged, nil
}

func (l *Loader) mergePage(ctx context.Context, path string, pageNum int, direct string) string {
	image, err := l.opts.Rasterizer.Render(ctx, path, pageNum, l.opts.DPI)
	if err != nil {
		l.logger.Warn().Str("path", path).Int("page", pageNum).Err(err).Msg("page rasterization failed, keeping direct text")
		return direct
	}

	ocrText, err := l.opts.Engine.Recognize(ctx, image, l.opts.OCRLanguages)
	if err != nil {
		l.logger.Warn().Str("path", path).Int("page", pageNum).Err(err).Msg("OCR failed, keeping direct text")
		return direct
	}
	ocrText = strings.TrimSpace(ocrText)

	switch {
	case ocrText == "":
		// Nothing readable on the rendered page. A diagram may still carry
		// meaning, so ask the captioner when one is wired.
		if l.opts.Captioner != nil {
			if caption, err := l.opts.Captioner.Caption(ctx, image); err == nil && strings.TrimSpace(caption) != "" {
				return appendBlock(direct, fmt.Sprintf("[Descripción de la imagen: %s]", strings.TrimSpace(caption)))
			}
		}
		return direct
	case jaccard(direct, ocrText) >= duplicateThreshold:
		// OCR mostly re-read the embedded text; count it once.
		return direct
	default:
		return appendBlock(direct, fmt.Sprintf("[Transcripción de la imagen: %s]", ocrText))
	}
}

func appendBlock(text, block string) string {
	if text == "" {
		return block
	}
	return text + "\n\n" + block
}

// jaccard computes word-set Jaccard similarity between two texts.
func jaccard(a, b string) float64 {
	wa := wordSet(a)
	wb := wordSet(b)
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}
	inter := 0
	for w := range wa {
		if wb[w] {
			inter++
		}
	}
	return float64(inter) / float64(len(wa)+len(wb)-inter)
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(s)) {
		w = strings.Trim(w, ".,;:!?()[]¡¿\"'")
		if w != "" {
			set[w] = true
		}
	}
	return set
}
