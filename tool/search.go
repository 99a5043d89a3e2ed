package tool

import (
	"fmt"

	"github.com/hupe1980/docent/core"
	"github.com/hupe1980/docent/retrieval"
)

// SearchToolName is the function name declared to the model for
// documentation retrieval.
const SearchToolName = "search_documentation"

// SearchToolOptions configures a SearchTool.
type SearchToolOptions struct {
	// Formatter renders retrieved documents into observation text; defaults
	// to retrieval.NewFormatter().
	Formatter *retrieval.Formatter
}

// SearchTool exposes a retrieval.Retriever as the documentation search
// capability. It formats hits into numbered, source-attributed snippet
// blocks; an empty result yields the retrieval.EmptyResult sentinel so
// "nothing found" stays distinguishable from "not yet executed".
type SearchTool struct {
	retriever retrieval.Retriever
	formatter *retrieval.Formatter
}

// NewSearchTool creates the documentation search tool over retriever.
func NewSearchTool(retriever retrieval.Retriever, optFns ...func(o *SearchToolOptions)) *SearchTool {
	opts := SearchToolOptions{
		Formatter: retrieval.NewFormatter(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &SearchTool{retriever: retriever, formatter: opts.Formatter}
}

// Name implements Tool.
func (t *SearchTool) Name() string { return SearchToolName }

// Description implements Tool.
func (t *SearchTool) Description() string {
	return "Search the project documentation for passages relevant to a query. " +
		"Returns numbered snippets with their source files, or a sentinel when nothing matches."
}

// Parameters implements Tool.
func (t *SearchTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "Natural language search query over the documentation",
			},
		},
		"required": []string{"query"},
	}
}

// Call retrieves documents for the query and renders them as observation
// text. A retrieval backend error is returned as-is so the dispatcher's
// retry budget applies.
func (t *SearchTool) Call(toolCtx *core.ToolContext, args map[string]interface{}) (interface{}, error) {
	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, NewToolError(SearchToolName, "missing required argument: query", "VALIDATION_ERROR")
	}

	docs, err := t.retriever.Retrieve(toolCtx.Context(), query)
	if err != nil {
		return nil, fmt.Errorf("retrieve %q: %w", query, err)
	}

	toolCtx.Logger().Debug("documentation search finished", "query", query, "hits", len(docs))

	return t.formatter.Format(docs), nil
}
