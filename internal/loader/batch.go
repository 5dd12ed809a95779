package loader

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/CTepedino/deep-learning-tp2/internal/models"
)

// Failure records one file the batch loader gave up on.
type Failure struct {
	Path string
	Err  error
}

// Batch is the outcome of a directory load: every Document that loaded, every
// file that didn't, and the aggregate counts.
type Batch struct {
	Documents []models.Document
	Failures  []Failure
	Loaded    int
	Failed    int
}

// LoadDirectory walks root, loads every supported file and attaches metadata.
// A file that fails to load is recorded and skipped; one bad scan must never
// abort the run. Files are visited in sorted path order so repeated runs
// produce identical batches.
func (l *Loader) LoadDirectory(ctx context.Context, root string) (*Batch, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		if _, ok := supportedExts[strings.ToLower(filepath.Ext(path))]; ok {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, &LoadError{Path: root, Err: err}
	}
	sort.Strings(paths)

	batch := &Batch{}
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := l.Load(ctx, path)
		if err != nil {
			l.logger.Warn().Str("path", path).Err(err).Msg("skipping file")
			batch.Failures = append(batch.Failures, Failure{Path: path, Err: err})
			batch.Failed++
			continue
		}
		batch.Documents = append(batch.Documents, doc)
		batch.Loaded++
	}

	l.logger.Info().Int("loaded", batch.Loaded).Int("failed", batch.Failed).Str("root", root).Msg("directory load finished")
	return batch, nil
}
