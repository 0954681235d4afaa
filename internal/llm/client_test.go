package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, WithRetryDelay(time.Millisecond))
}

func TestGenerate_Success(t *testing.T) {
	var gotReq GenerateRequest
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(GenerateResponse{Model: "m", Response: `{"ok":true}`, Done: true})
	})

	resp, err := client.Generate(context.Background(), GenerateRequest{
		Model:       "m",
		Prompt:      "hello",
		Temperature: 0.3,
		Format:      "json",
	})
	require.NoError(t, err)

	assert.Equal(t, `{"ok":true}`, resp.Response)
	assert.True(t, resp.Done)
	// Streaming stays off; responses are consumed whole.
	assert.False(t, gotReq.Stream)
	assert.Equal(t, "json", gotReq.Format)
}

func TestGenerate_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(GenerateResponse{Response: "{}", Done: true})
	})

	resp, err := client.Generate(context.Background(), GenerateRequest{Model: "m", Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "{}", resp.Response)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGenerate_ExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.Generate(context.Background(), GenerateRequest{Model: "m", Prompt: "p"})
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())

	var llmErr *Error
	assert.ErrorAs(t, err, &llmErr)
}

func TestGenerate_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"model not found"}`))
	})

	_, err := client.Generate(context.Background(), GenerateRequest{Model: "missing", Prompt: "p"})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.Contains(t, err.Error(), "404")
}

func TestGenerate_MalformedBodyNotRetried(t *testing.T) {
	var calls atomic.Int32
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte("not json at all"))
	})

	_, err := client.Generate(context.Background(), GenerateRequest{Model: "m", Prompt: "p"})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestParseJSONResponse(t *testing.T) {
	tests := []struct {
		name     string
		response string
		wantKey  string
		wantErr  bool
	}{
		{
			name:     "direct JSON",
			response: `{"title":"t"}`,
			wantKey:  "title",
		},
		{
			name:     "fenced json block",
			response: "Here you go:\n```json\n{\"title\":\"t\"}\n```\nDone.",
			wantKey:  "title",
		},
		{
			name:     "plain fenced block",
			response: "```\n{\"title\":\"t\"}\n```",
			wantKey:  "title",
		},
		{
			name:     "outer braces fallback",
			response: `The answer is {"title":"t"} hope that helps`,
			wantKey:  "title",
		},
		{
			name:     "no JSON at all",
			response: "sorry, I cannot help",
			wantErr:  true,
		},
		{
			name:     "empty response",
			response: "",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := ParseJSONResponse(&GenerateResponse{Response: tt.response})
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, parsed, tt.wantKey)
		})
	}
}

func TestParseJSONResponse_Nil(t *testing.T) {
	_, err := ParseJSONResponse(nil)
	assert.Error(t, err)
}

func TestCheckHealth(t *testing.T) {
	healthy := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		w.Write([]byte(`{"models":[]}`))
	})
	assert.True(t, healthy.CheckHealth(context.Background()))

	down := NewClient("http://127.0.0.1:1")
	assert.False(t, down.CheckHealth(context.Background()))
}

func TestListModels(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"models":[{"name":"idea-summarizer:latest"},{"name":"idea-grouper:latest"}]}`))
	})

	models, err := client.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"idea-summarizer:latest", "idea-grouper:latest"}, models)
}

func TestModelExists(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"models":[{"name":"idea-grouper:latest"}]}`))
	})

	assert.True(t, client.ModelExists(context.Background(), "idea-grouper:latest"))
	assert.False(t, client.ModelExists(context.Background(), "idea-summarizer:latest"))
}
