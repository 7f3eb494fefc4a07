package agentic_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/dgwartney/agentic-app-cli/sdk/agentic"
)

const (
	testAppID   = "app-123"
	testEnvName = "production"
	testAPIKey  = "aa-12345678-abcd-ef00-1234-567890abcdef"
)

// platformServer is a mock Agentic App Platform for client testing.
type platformServer struct {
	server *httptest.Server
	mu     sync.Mutex

	executeHandler http.HandlerFunc
	statusHandler  http.HandlerFunc

	executeCalls int
	statusCalls  int
	lastBody     []byte
	lastAPIKey   string
}

func newPlatformServer() *platformServer {
	ps := &platformServer{}

	mux := http.NewServeMux()
	executePath := fmt.Sprintf("/apps/%s/environments/%s/runs/execute", testAppID, testEnvName)
	statusPath := fmt.Sprintf("/apps/%s/environments/%s/runs/", testAppID, testEnvName)

	mux.HandleFunc(executePath, func(w http.ResponseWriter, r *http.Request) {
		ps.mu.Lock()
		ps.executeCalls++
		ps.lastBody, _ = io.ReadAll(r.Body)
		ps.lastAPIKey = r.Header.Get("x-api-key")
		handler := ps.executeHandler
		ps.mu.Unlock()

		if handler != nil {
			handler(w, r)
			return
		}
		http.Error(w, "no execute handler", http.StatusInternalServerError)
	})
	mux.HandleFunc(statusPath, func(w http.ResponseWriter, r *http.Request) {
		ps.mu.Lock()
		ps.statusCalls++
		ps.lastAPIKey = r.Header.Get("x-api-key")
		handler := ps.statusHandler
		ps.mu.Unlock()

		if handler != nil {
			handler(w, r)
			return
		}
		http.Error(w, "no status handler", http.StatusInternalServerError)
	})

	ps.server = httptest.NewServer(mux)
	return ps
}

func (ps *platformServer) Close() {
	ps.server.Close()
}

func (ps *platformServer) client(opts ...agentic.ClientOption) *agentic.Client {
	return agentic.NewClient(ps.server.URL, testAppID, testEnvName, testAPIKey, opts...)
}

func jsonResponse(statusCode int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		fmt.Fprint(w, body)
	}
}

func sseResponse(lines ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming not supported", http.StatusInternalServerError)
			return
		}
		for _, line := range lines {
			fmt.Fprintf(w, "%s\n", line)
			flusher.Flush()
		}
	}
}

func TestNewClient(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		client := agentic.NewClient("", testAppID, testEnvName, testAPIKey)
		require.NotNil(t, client)
	})

	t.Run("with options", func(t *testing.T) {
		client := agentic.NewClient("http://localhost:9000/", testAppID, testEnvName, testAPIKey,
			agentic.WithHTTPClient(&http.Client{Timeout: 5 * time.Second}),
			agentic.WithTimeout(10*time.Second),
			agentic.WithLogger(agentic.NewLogger(agentic.LevelOff, io.Discard)),
		)
		require.NotNil(t, client)
	})
}

func TestExecuteRunValidation(t *testing.T) {
	client := agentic.NewClient("http://localhost:1", testAppID, testEnvName, testAPIKey)
	ctx := context.Background()

	cases := []struct {
		name string
		opts agentic.ExecuteOptions
	}{
		{"empty query", agentic.ExecuteOptions{SessionReference: "s1"}},
		{"blank query", agentic.ExecuteOptions{Query: "   ", SessionReference: "s1"}},
		{"empty session", agentic.ExecuteOptions{Query: "hi"}},
		{"bad stream mode", agentic.ExecuteOptions{Query: "hi", SessionReference: "s1", StreamMode: "words"}},
		{"bad debug mode", agentic.ExecuteOptions{Query: "hi", SessionReference: "s1", DebugMode: "everything"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := client.ExecuteRun(ctx, tc.opts)
			require.Error(t, err)
			assert.ErrorIs(t, err, agentic.ErrValidation)
		})
	}
}

func TestExecuteRunSync(t *testing.T) {
	ps := newPlatformServer()
	defer ps.Close()

	ps.executeHandler = jsonResponse(http.StatusOK,
		`{"output":[{"type":"text","content":"The weather is sunny"}],"sessionInfo":{"runId":"run-1","status":"success"}}`)

	client := ps.client()
	result, err := client.ExecuteRun(context.Background(), agentic.ExecuteOptions{
		Query:            "What is the weather?",
		SessionReference: "sess-1",
		UserReference:    "user-1",
	})
	require.NoError(t, err)

	assert.Equal(t, "The weather is sunny", result.Text())
	require.NotNil(t, result.SessionInfo)
	assert.Equal(t, "run-1", result.SessionInfo.RunID)
	assert.False(t, result.Streaming)
	assert.NotEmpty(t, result.Raw)

	assert.Equal(t, testAPIKey, ps.lastAPIKey)

	body := gjson.ParseBytes(ps.lastBody)
	assert.Equal(t, "userReference", body.Get("sessionIdentity.0.type").String())
	assert.Equal(t, "user-1", body.Get("sessionIdentity.0.value").String())
	assert.Equal(t, "sessionReference", body.Get("sessionIdentity.1.type").String())
	assert.Equal(t, "sess-1", body.Get("sessionIdentity.1.value").String())
	assert.Equal(t, "What is the weather?", body.Get("input.0.content").String())
	assert.False(t, body.Get("stream").Exists())
	assert.False(t, body.Get("debug").Exists())
}

func TestExecuteRunDefaultsUserToSession(t *testing.T) {
	ps := newPlatformServer()
	defer ps.Close()

	ps.executeHandler = jsonResponse(http.StatusOK, `{"output":[]}`)

	_, err := ps.client().ExecuteRun(context.Background(), agentic.ExecuteOptions{
		Query:            "hi",
		SessionReference: "sess-2",
	})
	require.NoError(t, err)

	body := gjson.ParseBytes(ps.lastBody)
	assert.Equal(t, "sess-2", body.Get("sessionIdentity.0.value").String())
	assert.Equal(t, "sess-2", body.Get("sessionIdentity.1.value").String())
}

func TestExecuteRunWithDebugAndMetadata(t *testing.T) {
	ps := newPlatformServer()
	defer ps.Close()

	ps.executeHandler = jsonResponse(http.StatusOK, `{"output":[]}`)

	_, err := ps.client().ExecuteRun(context.Background(), agentic.ExecuteOptions{
		Query:            "hi",
		SessionReference: "sess-3",
		DebugEnabled:     true,
		DebugMode:        agentic.DebugThoughts,
		Metadata:         map[string]any{"channel": "cli", "attempt": float64(2)},
	})
	require.NoError(t, err)

	body := gjson.ParseBytes(ps.lastBody)
	assert.True(t, body.Get("debug.enable").Bool())
	assert.Equal(t, agentic.DebugThoughts, body.Get("debug.debugMode").String())
	assert.Equal(t, "cli", body.Get("metaData.channel").String())
	assert.Equal(t, int64(2), body.Get("metaData.attempt").Int())
}

func TestExecuteRunStreaming(t *testing.T) {
	ps := newPlatformServer()
	defer ps.Close()

	ps.executeHandler = sseResponse(
		"event: run_status",
		`data: {"eventIndex":0,"output":[{"type":"text","content":"Hel"}]}`,
		"",
		`data: {"eventIndex":1,"output":[{"type":"text","content":"lo"}]}`,
		"",
		"data: [DONE]",
	)

	result, err := ps.client().ExecuteRun(context.Background(), agentic.ExecuteOptions{
		Query:            "hi",
		SessionReference: "sess-4",
		StreamEnabled:    true,
		StreamMode:       agentic.StreamTokens,
	})
	require.NoError(t, err)

	assert.Equal(t, "Hello", result.Text())
	assert.True(t, result.Streaming)

	body := gjson.ParseBytes(ps.lastBody)
	assert.True(t, body.Get("stream.enable").Bool())
	assert.Equal(t, agentic.StreamTokens, body.Get("stream.streamMode").String())
	assert.Zero(t, ps.statusCalls)
}

func TestExecuteRunStreamingFallback(t *testing.T) {
	ps := newPlatformServer()
	defer ps.Close()

	ps.executeHandler = sseResponse(
		`data: {"sessionInfo":{"runId":"run-9","sessionReference":"sess-5","status":"running"}}`,
		"",
		`data: {"sessionInfo":{"runId":"run-9","sessionReference":"sess-5","status":"success"},"isLastEvent":true}`,
	)
	ps.statusHandler = func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		identity := gjson.GetBytes(body, "sessionIdentity")
		assert.True(t, identity.Exists(), "fallback lookup must be scoped to the session")
		assert.Equal(t, "sess-5", identity.Get("0.value").String())

		jsonResponse(http.StatusOK,
			`{"run":{"status":"success","kwargs":{"output":[{"type":"text","content":"finally"}]}}}`)(w, r)
	}

	result, err := ps.client().ExecuteRun(context.Background(), agentic.ExecuteOptions{
		Query:            "hi",
		SessionReference: "sess-5",
		StreamEnabled:    true,
	})
	require.NoError(t, err)

	assert.Equal(t, "finally", result.Text())
	assert.Equal(t, 1, ps.statusCalls)
	require.NotNil(t, result.SessionInfo)
	assert.Equal(t, "run-9", result.SessionInfo.RunID)
}

func TestExecuteRunErrorMapping(t *testing.T) {
	ps := newPlatformServer()
	defer ps.Close()

	client := ps.client()
	ctx := context.Background()
	opts := agentic.ExecuteOptions{Query: "hi", SessionReference: "s1"}

	t.Run("401 authentication", func(t *testing.T) {
		ps.executeHandler = jsonResponse(http.StatusUnauthorized, `{"error":{"message":"bad key"}}`)
		_, err := client.ExecuteRun(ctx, opts)
		require.Error(t, err)
		assert.ErrorIs(t, err, agentic.ErrAuthentication)
	})

	t.Run("404 names app and environment", func(t *testing.T) {
		ps.executeHandler = jsonResponse(http.StatusNotFound, `{}`)
		_, err := client.ExecuteRun(ctx, opts)
		require.Error(t, err)
		assert.ErrorIs(t, err, agentic.ErrRequest)
		assert.Contains(t, err.Error(), testAppID)
		assert.Contains(t, err.Error(), testEnvName)
	})

	t.Run("429 rate limit", func(t *testing.T) {
		ps.executeHandler = jsonResponse(http.StatusTooManyRequests, `{}`)
		_, err := client.ExecuteRun(ctx, opts)
		require.Error(t, err)
		assert.ErrorIs(t, err, agentic.ErrRequest)
		assert.Contains(t, err.Error(), "rate limit")
	})

	t.Run("500 uses error message from body", func(t *testing.T) {
		ps.executeHandler = jsonResponse(http.StatusInternalServerError, `{"error":{"message":"agent crashed"}}`)
		_, err := client.ExecuteRun(ctx, opts)
		require.Error(t, err)
		assert.ErrorIs(t, err, agentic.ErrResponse)
		assert.Contains(t, err.Error(), "agent crashed")

		apiErr, ok := agentic.AsError(err)
		require.True(t, ok)
		assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	})
}

func TestGetRunStatus(t *testing.T) {
	ps := newPlatformServer()
	defer ps.Close()

	client := ps.client()
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		ps.statusHandler = jsonResponse(http.StatusOK, `{"status":"success","response":"done"}`)
		status, err := client.GetRunStatus(ctx, "run-1", nil)
		require.NoError(t, err)
		assert.Equal(t, "run-1", status.RunID)
		assert.Equal(t, agentic.StatusSuccess, status.Status)
		assert.Equal(t, "done", status.Response())
	})

	t.Run("nested run status", func(t *testing.T) {
		ps.statusHandler = jsonResponse(http.StatusOK, `{"run":{"status":"running"}}`)
		status, err := client.GetRunStatus(ctx, "run-2", nil)
		require.NoError(t, err)
		assert.Equal(t, agentic.StatusRunning, status.Status)
	})

	t.Run("empty run id", func(t *testing.T) {
		_, err := client.GetRunStatus(ctx, "  ", nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, agentic.ErrValidation)
	})

	t.Run("unknown run", func(t *testing.T) {
		ps.statusHandler = jsonResponse(http.StatusNotFound, `{}`)
		_, err := client.GetRunStatus(ctx, "run-missing", nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, agentic.ErrRunNotFound)
		assert.Contains(t, err.Error(), "run-missing")
	})
}

func TestPollRunStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("pending then success", func(t *testing.T) {
		ps := newPlatformServer()
		defer ps.Close()

		var calls int
		ps.statusHandler = func(w http.ResponseWriter, r *http.Request) {
			calls++
			if calls < 3 {
				jsonResponse(http.StatusOK, `{"status":"pending"}`)(w, r)
				return
			}
			jsonResponse(http.StatusOK, `{"status":"success"}`)(w, r)
		}

		status, err := ps.client().PollRunStatus(ctx, "run-1", 5, 10*time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, agentic.StatusSuccess, status.Status)
		assert.Equal(t, 3, calls)
	})

	t.Run("failed run", func(t *testing.T) {
		ps := newPlatformServer()
		defer ps.Close()

		ps.statusHandler = jsonResponse(http.StatusOK, `{"status":"failed","error":{"message":"tool exploded"}}`)

		_, err := ps.client().PollRunStatus(ctx, "run-2", 5, 10*time.Millisecond)
		require.Error(t, err)
		assert.ErrorIs(t, err, agentic.ErrResponse)
		assert.Contains(t, err.Error(), "tool exploded")
	})

	t.Run("never completes", func(t *testing.T) {
		ps := newPlatformServer()
		defer ps.Close()

		ps.statusHandler = jsonResponse(http.StatusOK, `{"status":"running"}`)

		_, err := ps.client().PollRunStatus(ctx, "run-3", 3, time.Millisecond)
		require.Error(t, err)
		assert.ErrorIs(t, err, agentic.ErrTimeout)
	})

	t.Run("unknown status", func(t *testing.T) {
		ps := newPlatformServer()
		defer ps.Close()

		ps.statusHandler = jsonResponse(http.StatusOK, `{"status":"paused"}`)

		_, err := ps.client().PollRunStatus(ctx, "run-4", 3, time.Millisecond)
		require.Error(t, err)
		assert.ErrorIs(t, err, agentic.ErrResponse)
		assert.Contains(t, err.Error(), "paused")
	})
}

func TestStatusResultRunOutput(t *testing.T) {
	ps := newPlatformServer()
	defer ps.Close()

	ps.statusHandler = jsonResponse(http.StatusOK,
		`{"run":{"status":"success","kwargs":{"output":[{"type":"text","content":"a"},{"type":"text","content":"b"}]}}}`)

	status, err := ps.client().GetRunStatus(context.Background(), "run-1", nil)
	require.NoError(t, err)

	assert.True(t, status.HasRunOutput())
	items, err := status.RunOutput()
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].Content)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(status.Raw, &decoded))
}
