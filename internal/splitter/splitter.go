// Package splitter partitions document text into bounded, overlapping chunks.
// Two strategies exist: a recursive separator-ladder split for prose, and a
// math-aware split that never cuts inside a delimited math region.
package splitter

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/CTepedino/deep-learning-tp2/internal/models"
)

// Strategy selects how chunk boundaries are chosen.
type Strategy string

const (
	StrategyRecursive Strategy = "recursive"
	StrategyMath      Strategy = "math"
)

// ErrBadConfig marks an invalid splitter configuration. It is rejected at
// construction, before any ingestion work starts.
var ErrBadConfig = errors.New("invalid splitter configuration")

// separators is the boundary ladder, coarse to fine: paragraph, line,
// sentence, word, and finally a hard character cut.
var separators = []string{"\n\n", "\n", ". ", " ", ""}

type Config struct {
	ChunkSize    int
	ChunkOverlap int
	Strategy     Strategy
}

type Splitter struct {
	cfg Config
}

func New(cfg Config) (*Splitter, error) {
	if cfg.ChunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", ErrBadConfig, cfg.ChunkSize)
	}
	if cfg.ChunkOverlap < 0 {
		return nil, fmt.Errorf("%w: chunk overlap must not be negative, got %d", ErrBadConfig, cfg.ChunkOverlap)
	}
	if cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("%w: chunk overlap %d must be smaller than chunk size %d", ErrBadConfig, cfg.ChunkOverlap, cfg.ChunkSize)
	}
	if cfg.Strategy == "" {
		cfg.Strategy = StrategyRecursive
	}
	return &Splitter{cfg: cfg}, nil
}

// ForDocument picks the strategy for a document: math-aware for LaTeX
// sources and for content that carries math delimiters, recursive otherwise.
func ForDocument(doc models.Document) Strategy {
	if doc.Metadata.FileType == "tex" || hasMathDelimiters(doc.Content) {
		return StrategyMath
	}
	return StrategyRecursive
}

// Split partitions the document into ordered chunks. Every chunk carries the
// parent metadata verbatim plus its index and start offset; consecutive
// chunks overlap by the configured amount except where a boundary adjustment
// shortens the overlap.
func (s *Splitter) Split(doc models.Document) []models.Chunk {
	strategy := s.cfg.Strategy
	if strategy == StrategyRecursive && ForDocument(doc) == StrategyMath {
		strategy = StrategyMath
	}

	var regions []region
	if strategy == StrategyMath {
		regions = mathRegions(doc.Content)
	}

	spans := s.spans(doc.Content, regions)
	chunks := make([]models.Chunk, 0, len(spans))
	for i, sp := range spans {
		chunks = append(chunks, models.Chunk{
			Source:      doc.Source,
			ChunkIndex:  i,
			StartOffset: sp.start,
			Content:     doc.Content[sp.start:sp.end],
			Metadata:    doc.Metadata,
		})
	}
	return chunks
}

type span struct{ start, end int }

// spans walks the content emitting [start,end) ranges. The tentative end of
// each chunk is pulled back to the best boundary the separator ladder offers,
// and never lands inside a math region.
func (s *Splitter) spans(content string, regions []region) []span {
	n := len(content)
	if n == 0 {
		return nil
	}
	if n <= s.cfg.ChunkSize {
		return []span{{0, n}}
	}

	var spans []span
	pos := 0
	for pos < n {
		end := pos + s.cfg.ChunkSize
		if end >= n {
			spans = append(spans, span{pos, n})
			break
		}

		if r, ok := regionContaining(regions, end); ok {
			if r.start > pos {
				end = r.start
			} else {
				// The region spans the whole chunk; keep it atomic even if
				// the chunk exceeds the configured size.
				end = r.end
			}
		} else {
			end = adjustToSeparator(content, pos, end)
			if r, ok := regionContaining(regions, end); ok && r.start > pos {
				end = r.start
			}
		}
		if end >= n {
			spans = append(spans, span{pos, n})
			break
		}
		spans = append(spans, span{pos, end})

		next := end - s.cfg.ChunkOverlap
		if r, ok := regionContaining(regions, next); ok {
			// Never start a chunk mid-region; widen or drop the overlap.
			if r.start > pos {
				next = r.start
			} else {
				next = end
			}
		}
		if next <= pos {
			next = end
		}
		pos = next
	}
	return spans
}

// adjustToSeparator pulls the cut point at end back to the last separator in
// (pos, end], walking the ladder coarse to fine. The empty separator is the
// hard cut, only nudged off a multi-byte rune boundary.
func adjustToSeparator(content string, pos, end int) int {
	window := content[pos:end]
	for _, sep := range separators {
		if sep == "" {
			break
		}
		if idx := strings.LastIndex(window, sep); idx > 0 {
			return pos + idx + len(sep)
		}
	}
	for end > pos+1 && !utf8.RuneStart(content[end]) {
		end--
	}
	return end
}
