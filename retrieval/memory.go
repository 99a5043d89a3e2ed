package retrieval

import (
	"context"
	"strings"
	"sync"
)

// DefaultTopK is how many documents a retriever returns per query.
const DefaultTopK = 5

// MemoryOptions configures the in-memory retriever.
type MemoryOptions struct {
	// TopK caps the number of returned documents.
	TopK int
}

// Memory is a naive process-local Retriever: a linear scan with
// case-insensitive substring matching over added documents, every hit scored
// 1.0, insertion order preserved. Suitable for tests and offline development;
// the bleve index is the production implementation.
//
// Concurrency: protected by RWMutex.
type Memory struct {
	mu   sync.RWMutex
	docs []Document
	opts MemoryOptions
}

// NewMemory creates an empty in-memory retriever.
func NewMemory(optFns ...func(o *MemoryOptions)) *Memory {
	opts := MemoryOptions{TopK: DefaultTopK}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Memory{opts: opts}
}

// Add appends documents to the corpus.
func (m *Memory) Add(docs ...Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = append(m.docs, docs...)
}

// Len returns the number of stored documents.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

// Retrieve returns up to TopK documents whose content contains the query,
// compared case-insensitively. An empty query matches everything.
func (m *Memory) Retrieve(ctx context.Context, query string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	needle := strings.ToLower(query)
	results := make([]Document, 0, m.opts.TopK)
	for _, doc := range m.docs {
		if len(results) >= m.opts.TopK {
			break
		}
		if needle == "" || strings.Contains(strings.ToLower(doc.Content), needle) {
			hit := doc
			hit.Score = 1.0
			results = append(results, hit)
		}
	}
	return results, nil
}
