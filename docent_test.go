package docent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/docent/core"
	"github.com/hupe1980/docent/model"
	"github.com/hupe1980/docent/retrieval"
)

func TestAskSync_DirectAnswer(t *testing.T) {
	llm := model.NewMockModel("mock", "mock")
	llm.AddResponse("What is it?", "The answer.")

	d := New(llm, func(o *Options) {
		o.EnableStreaming = false
	})

	res, err := d.AskSync(context.Background(), "s1", "What is it?")
	require.NoError(t, err)

	assert.Equal(t, core.ExitCompleted, res.Final.ExitReason)
	assert.Equal(t, "The answer.", res.Final.Answer)
	assert.Equal(t, 1, res.Final.Turns)

	require.NotEmpty(t, res.Events)
	assert.Equal(t, core.EventFinal, res.Events[len(res.Events)-1].Kind)
}

func TestAskSync_EmptyInput(t *testing.T) {
	llm := model.NewMockModel("mock", "mock")

	d := New(llm, func(o *Options) {
		o.EnableStreaming = false
	})

	res, err := d.AskSync(context.Background(), "s1", "   ")
	require.NoError(t, err)

	assert.Equal(t, core.ExitEmptyInput, res.Final.ExitReason)
	assert.Zero(t, res.Final.Turns)
	assert.Zero(t, llm.Calls())
}

func TestAskSync_HistoryPersistsAcrossRuns(t *testing.T) {
	llm := model.NewMockModel("mock", "mock")
	llm.AddResponse("first", "one")
	llm.AddResponse("second", "two")

	d := New(llm, func(o *Options) {
		o.EnableStreaming = false
	})

	_, err := d.AskSync(context.Background(), "s1", "first")
	require.NoError(t, err)

	res, err := d.AskSync(context.Background(), "s1", "second")
	require.NoError(t, err)
	assert.Equal(t, "two", res.Final.Answer)

	sess, err := d.opts.SessionStore.Get("s1")
	require.NoError(t, err)
	assert.Len(t, sess.GetConversationHistory(), 4)
}

func TestNew_RegistersSearchToolWithRetriever(t *testing.T) {
	llm := model.NewMockModel("mock", "mock")

	d := New(llm, func(o *Options) {
		o.Retriever = retrieval.NewMemory()
	})
	assert.True(t, d.agent.HasTool("search_documentation"))

	bare := New(llm)
	assert.False(t, bare.agent.HasTool("search_documentation"))
}
