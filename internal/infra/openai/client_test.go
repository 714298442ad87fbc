package openai

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

func TestComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		var req CompletionRequest
		require.NoError(t, json.Unmarshal(body, &req))
		require.Equal(t, "gpt-test", req.Model)
		require.Len(t, req.Messages, 1)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hello"}}],"usage":{"prompt_tokens":3,"completion_tokens":1,"total_tokens":4}}`))
	}))
	defer srv.Close()

	client := NewClient(Options{APIKey: "secret", BaseURL: srv.URL + "/v1/", Timeout: time.Second})
	resp, err := client.Complete(context.Background(), CompletionRequest{
		Model:    "gpt-test",
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	content, ok := resp.Text()
	require.True(t, ok)
	require.Equal(t, "hello", content)
}

func TestCompleteAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down"}}`))
	}))
	defer srv.Close()

	_, err := NewClient(Options{APIKey: "secret", BaseURL: srv.URL}).Complete(context.Background(), CompletionRequest{Model: "m"})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.True(t, apiErr.RateLimited())
	require.Contains(t, apiErr.Error(), "slow down")
}

func TestCompleteRequiresKey(t *testing.T) {
	_, err := NewClient(Options{BaseURL: "http://127.0.0.1:1"}).Complete(context.Background(), CompletionRequest{})
	require.ErrorIs(t, err, errNoAPIKey)
}

func TestTextEmpty(t *testing.T) {
	_, ok := Completion{}.Text()
	require.False(t, ok)
}

func TestCompleteDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	_, err := NewClient(Options{APIKey: "k", BaseURL: srv.URL, HTTPClient: srv.Client()}).Complete(context.Background(), CompletionRequest{Model: "m"})
	require.ErrorContains(t, err, "decode response")
}
