package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/docent/retrieval"
)

type failingRetriever struct{ err error }

func (f failingRetriever) Retrieve(context.Context, string) ([]retrieval.Document, error) {
	return nil, f.err
}

func TestSearchTool_FormatsHits(t *testing.T) {
	mem := retrieval.NewMemory()
	mem.Add(retrieval.Document{
		ID:      "1",
		Source:  "getting-started.md",
		Content: "Install the CLI with `go install`.",
	})

	search := NewSearchTool(mem)
	result, err := search.Call(newToolContext(t), map[string]any{"query": "install"})
	require.NoError(t, err)

	text, ok := result.(string)
	require.True(t, ok)
	assert.Contains(t, text, "[1] SOURCE: getting-started.md")
	assert.Contains(t, text, "go install")
}

func TestSearchTool_EmptyResultSentinel(t *testing.T) {
	search := NewSearchTool(retrieval.NewMemory())

	result, err := search.Call(newToolContext(t), map[string]any{"query": "anything"})
	require.NoError(t, err)
	assert.Equal(t, retrieval.EmptyResult, result)
}

func TestSearchTool_MissingQuery(t *testing.T) {
	search := NewSearchTool(retrieval.NewMemory())

	_, err := search.Call(newToolContext(t), map[string]any{})
	require.Error(t, err)

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "VALIDATION_ERROR", toolErr.Code)
}

func TestSearchTool_BackendErrorPropagates(t *testing.T) {
	backendErr := errors.New("index unavailable")
	search := NewSearchTool(failingRetriever{err: backendErr})

	_, err := search.Call(newToolContext(t), map[string]any{"query": "install"})
	require.Error(t, err)
	assert.ErrorIs(t, err, backendErr)
}

func TestSearchTool_Declaration(t *testing.T) {
	search := NewSearchTool(retrieval.NewMemory())

	assert.Equal(t, SearchToolName, search.Name())
	assert.NotEmpty(t, search.Description())

	params := search.Parameters()
	props, ok := params["properties"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, props, "query")
}
