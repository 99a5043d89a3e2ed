// Package indexer maintains the on-disk bleve search index behind the
// documentation retriever. It chunks markdown files into heading-scoped,
// size-bounded pieces, writes them in batches, answers top-k match queries
// through the retrieval.Retriever interface, and can watch the docs
// directory to re-index files as they change.
package indexer
