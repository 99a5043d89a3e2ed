package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/docent"
	"github.com/hupe1980/docent/model"
)

// failingModel always fails generation so runs terminate with an error exit.
type failingModel struct{}

func (failingModel) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	respCh := make(chan model.Response)
	errCh := make(chan error, 1)
	errCh <- errors.New("backend down")
	close(respCh)
	close(errCh)
	return respCh, errCh
}

func (failingModel) Info() model.Info {
	return model.Info{Name: "failing", Provider: "test"}
}

func newTestServer(t *testing.T, llm model.Model) *httptest.Server {
	t.Helper()

	bot := docent.New(llm, func(o *docent.Options) {
		o.EnableStreaming = true
	})
	ts := httptest.NewServer(New(bot).Handler())
	t.Cleanup(ts.Close)
	return ts
}

type streamEvent struct {
	Type       string `json:"type"`
	Delta      string `json:"delta"`
	Detail     string `json:"detail"`
	ExitReason string `json:"exit_reason"`
}

func readStream(t *testing.T, resp *http.Response) []streamEvent {
	t.Helper()

	var events []streamEvent
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev streamEvent
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev))
		events = append(events, ev)
	}
	require.NoError(t, scanner.Err())
	return events
}

func postChat(t *testing.T, ts *httptest.Server, body string) *http.Response {
	t.Helper()

	resp, err := http.Post(ts.URL+"/api/chat/stream", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestChatStream_TokensThenFinalReason(t *testing.T) {
	llm := model.NewMockModel("mock", "mock")
	llm.AddResponse("hi", "hello")
	ts := newTestServer(t, llm)

	resp := postChat(t, ts, `{"query":"hi","session_id":"s1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := readStream(t, resp)
	require.NotEmpty(t, events)

	var answer strings.Builder
	for _, ev := range events {
		assert.NotEqual(t, "final", ev.Type)
		assert.NotEqual(t, "error", ev.Type)
		if ev.Type == "token" {
			answer.WriteString(ev.Delta)
		}
	}
	assert.Equal(t, "hello", answer.String())

	last := events[len(events)-1]
	assert.Equal(t, "final_reason", last.Type)
	assert.Equal(t, "COMPLETED", last.ExitReason)
}

func TestChatStream_EmptyQueryRejectedBeforeStream(t *testing.T) {
	ts := newTestServer(t, model.NewMockModel("mock", "mock"))

	resp := postChat(t, ts, `{"query":"   "}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var detail struct {
		Detail string `json:"detail"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&detail))
	assert.Equal(t, "EMPTY_INPUT", detail.Detail)
}

func TestChatStream_ErrorExitEmitsErrorEvent(t *testing.T) {
	bot := docent.New(failingModel{})
	ts := httptest.NewServer(New(bot).Handler())
	t.Cleanup(ts.Close)

	resp := postChat(t, ts, `{"query":"hi"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	events := readStream(t, resp)
	require.GreaterOrEqual(t, len(events), 2)

	errEvent := events[len(events)-2]
	assert.Equal(t, "error", errEvent.Type)
	assert.Equal(t, "LLM_ERROR", errEvent.Detail)

	last := events[len(events)-1]
	assert.Equal(t, "final_reason", last.Type)
	assert.Equal(t, "LLM_ERROR", last.ExitReason)
}

func TestChatStream_InvalidBody(t *testing.T) {
	ts := newTestServer(t, model.NewMockModel("mock", "mock"))

	resp := postChat(t, ts, `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChatStream_MethodNotAllowed(t *testing.T) {
	ts := newTestServer(t, model.NewMockModel("mock", "mock"))

	resp, err := http.Get(ts.URL + "/api/chat/stream")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, model.NewMockModel("mock", "mock"))

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, "ok", status.Status)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, model.NewMockModel("mock", "mock"))

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
