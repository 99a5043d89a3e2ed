package indexer

import (
	"context"
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/hupe1980/docent/logging"
	"github.com/hupe1980/docent/retrieval"
)

// Options configures an Index.
type Options struct {
	// TopK is the number of documents returned per query.
	TopK int
	// Logger receives lifecycle messages.
	Logger logging.Logger
}

// Index is a bleve-backed documentation index implementing
// retrieval.Retriever.
type Index struct {
	index bleve.Index
	path  string
	opts  Options
}

// Interface compliance (compile-time assertion)
var _ retrieval.Retriever = (*Index)(nil)

// Open opens the index at path, creating it when absent. An existing index
// that cannot be opened is removed and recreated rather than failing hard.
func Open(path string, optFns ...func(o *Options)) (*Index, error) {
	opts := Options{
		TopK:   retrieval.DefaultTopK,
		Logger: logging.NewNoOpLogger(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	index, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		index, err = bleve.New(path, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index at %s: %w", path, err)
		}
		opts.Logger.Info("search index created", "path", path)
	} else if err != nil {
		opts.Logger.Warn("search index unreadable, recreating", "path", path, "error", err)
		if index != nil {
			index.Close()
		}
		if rmErr := os.RemoveAll(path); rmErr != nil {
			return nil, fmt.Errorf("remove unreadable index at %s: %w", path, rmErr)
		}
		index, err = bleve.New(path, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("recreate index at %s: %w", path, err)
		}
	}

	return &Index{index: index, path: path, opts: opts}, nil
}

// buildIndexMapping maps chunk fields: the source path is a single keyword
// term so it can be filtered exactly, section and content are analyzed for
// full-text matching. All fields are stored so hits can be returned without
// a secondary document store.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()

	chunkMapping := bleve.NewDocumentMapping()

	sourceField := bleve.NewTextFieldMapping()
	sourceField.Analyzer = keyword.Name
	sourceField.Store = true
	sourceField.Index = true
	chunkMapping.AddFieldMappingsAt("source", sourceField)

	sectionField := bleve.NewTextFieldMapping()
	sectionField.Analyzer = standard.Name
	sectionField.Store = true
	sectionField.Index = true
	chunkMapping.AddFieldMappingsAt("section", sectionField)

	contentField := bleve.NewTextFieldMapping()
	contentField.Analyzer = standard.Name
	contentField.Store = true
	contentField.Index = true
	chunkMapping.AddFieldMappingsAt("content", contentField)

	indexMapping.DefaultMapping = chunkMapping

	return indexMapping
}

// Add indexes chunks in a single batch. Re-adding a chunk ID overwrites the
// previous version.
func (ix *Index) Add(chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	batch := ix.index.NewBatch()
	for _, chunk := range chunks {
		doc := map[string]interface{}{
			"source":  chunk.Source,
			"section": chunk.Section,
			"content": chunk.Content,
		}
		if err := batch.Index(chunk.ID, doc); err != nil {
			return fmt.Errorf("add chunk %s to batch: %w", chunk.ID, err)
		}
	}

	return ix.index.Batch(batch)
}

// Retrieve implements retrieval.Retriever: a match query over the indexed
// fields returning the TopK best hits. No hits is a normal empty result.
func (ix *Index) Retrieve(ctx context.Context, query string) ([]retrieval.Document, error) {
	req := bleve.NewSearchRequest(bleve.NewMatchQuery(query))
	req.Size = ix.opts.TopK
	req.Fields = []string{"source", "content"}

	res, err := ix.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	docs := make([]retrieval.Document, 0, len(res.Hits))
	for _, hit := range res.Hits {
		doc := retrieval.Document{ID: hit.ID, Score: hit.Score}
		if source, ok := hit.Fields["source"].(string); ok {
			doc.Source = source
		}
		if content, ok := hit.Fields["content"].(string); ok {
			doc.Content = content
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

// DeleteBySource removes every chunk indexed from the given source path and
// returns how many were deleted.
func (ix *Index) DeleteBySource(ctx context.Context, source string) (int, error) {
	term := bleve.NewTermQuery(source)
	term.SetField("source")

	deleted := 0
	for {
		req := bleve.NewSearchRequest(term)
		req.Size = 500

		res, err := ix.index.SearchInContext(ctx, req)
		if err != nil {
			return deleted, fmt.Errorf("lookup chunks for %s: %w", source, err)
		}
		if len(res.Hits) == 0 {
			return deleted, nil
		}

		batch := ix.index.NewBatch()
		for _, hit := range res.Hits {
			batch.Delete(hit.ID)
		}
		if err := ix.index.Batch(batch); err != nil {
			return deleted, fmt.Errorf("delete chunks for %s: %w", source, err)
		}
		deleted += len(res.Hits)
	}
}

// Count returns the number of indexed chunks.
func (ix *Index) Count() (uint64, error) {
	return ix.index.DocCount()
}

// Path returns the filesystem path of the index.
func (ix *Index) Path() string {
	return ix.path
}

// Close releases the underlying bleve index.
func (ix *Index) Close() error {
	return ix.index.Close()
}
