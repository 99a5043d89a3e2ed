// Package retrieval defines the document retrieval contract consumed by the
// documentation search tool. The Retriever interface abstracts over the
// concrete index (bleve on disk, in-memory substring matching for tests) and
// the Formatter renders retrieved documents into the bounded snippet text the
// model sees. "No results" is a normal return expressed through the
// EmptyResult sentinel, never an error.
package retrieval
