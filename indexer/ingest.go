package indexer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hupe1980/docent/logging"
)

// IngestorOptions configures an Ingestor.
type IngestorOptions struct {
	// Chunker splits documents; defaults to NewChunker().
	Chunker *Chunker
	// Logger receives progress messages.
	Logger logging.Logger
}

// Ingestor loads markdown files from a docs directory into an Index.
type Ingestor struct {
	index   *Index
	chunker *Chunker
	logger  logging.Logger
}

// NewIngestor creates an Ingestor writing to index.
func NewIngestor(index *Index, optFns ...func(o *IngestorOptions)) *Ingestor {
	opts := IngestorOptions{
		Chunker: NewChunker(),
		Logger:  logging.NewNoOpLogger(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Ingestor{
		index:   index,
		chunker: opts.Chunker,
		logger:  opts.Logger,
	}
}

// Ingest walks docsDir for markdown files, chunks them and indexes the
// result in one batch. A populated index is left untouched unless force is
// set; a docs directory without any markdown file is an error. Returns the
// number of chunks written.
func (in *Ingestor) Ingest(ctx context.Context, docsDir string, force bool) (int, error) {
	count, err := in.index.Count()
	if err != nil {
		return 0, fmt.Errorf("read index count: %w", err)
	}
	if count > 0 && !force {
		in.logger.Info("index already populated, skipping ingestion", "chunks", count)
		return 0, nil
	}

	var chunks []Chunk
	files := 0

	err = filepath.WalkDir(docsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}

		rel, relErr := filepath.Rel(docsDir, path)
		if relErr != nil {
			rel = path
		}

		content, readErr := os.ReadFile(path)
		if readErr != nil {
			return fmt.Errorf("read %s: %w", path, readErr)
		}

		files++
		chunks = append(chunks, in.chunker.Chunk(rel, content)...)
		return nil
	})
	if err != nil {
		return 0, err
	}
	if files == 0 {
		return 0, fmt.Errorf("no markdown documents found in %s", docsDir)
	}

	if err := in.index.Add(chunks); err != nil {
		return 0, fmt.Errorf("index documents: %w", err)
	}

	in.logger.Info("ingestion complete", "files", files, "chunks", len(chunks))
	return len(chunks), nil
}

// IngestFile replaces the indexed chunks of a single markdown file. relPath
// is relative to docsDir.
func (in *Ingestor) IngestFile(ctx context.Context, docsDir, relPath string) (int, error) {
	if _, err := in.index.DeleteBySource(ctx, relPath); err != nil {
		return 0, err
	}

	content, err := os.ReadFile(filepath.Join(docsDir, relPath))
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", relPath, err)
	}

	chunks := in.chunker.Chunk(relPath, content)
	if err := in.index.Add(chunks); err != nil {
		return 0, fmt.Errorf("index %s: %w", relPath, err)
	}

	return len(chunks), nil
}

// Remove drops every chunk of a source that no longer exists on disk.
func (in *Ingestor) Remove(ctx context.Context, relPath string) error {
	_, err := in.index.DeleteBySource(ctx, relPath)
	return err
}

// Watch re-ingests markdown files as they change under docsDir until ctx is
// cancelled.
func (in *Ingestor) Watch(ctx context.Context, docsDir string) error {
	watcher, err := NewWatcher(docsDir, func(paths []string) {
		for _, rel := range paths {
			if _, statErr := os.Stat(filepath.Join(docsDir, rel)); errors.Is(statErr, fs.ErrNotExist) {
				if rmErr := in.Remove(ctx, rel); rmErr != nil {
					in.logger.Warn("failed to drop removed document", "source", rel, "error", rmErr)
				} else {
					in.logger.Info("document removed from index", "source", rel)
				}
				continue
			}

			n, ingErr := in.IngestFile(ctx, docsDir, rel)
			if ingErr != nil {
				in.logger.Warn("failed to re-ingest document", "source", rel, "error", ingErr)
				continue
			}
			in.logger.Info("document re-ingested", "source", rel, "chunks", n)
		}
	}, func(o *WatcherOptions) {
		o.Logger = in.logger
	})
	if err != nil {
		return err
	}

	if err := watcher.Start(); err != nil {
		return err
	}
	defer watcher.Stop()

	<-ctx.Done()
	return nil
}
