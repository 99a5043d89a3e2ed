package retrieval

import "context"

// EmptyResult is the sentinel observation returned when a search matched
// nothing. It is a normal tool result the model is instructed to recognize,
// and it is never written to the cache so a later identical query hits the
// backend again.
const EmptyResult = "DOCUMENTATION_SEARCH_RESULT: EMPTY"

// Document is a retrieved chunk of documentation with its provenance.
type Document struct {
	ID      string  `json:"id"`
	Source  string  `json:"source"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// Retriever returns the documents most relevant to a query, best first.
// An empty slice means "no results" and must not be reported as an error.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]Document, error)
}
