package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/papermint/papermint/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewClient("test-key", "test-model", srv.URL, 2*time.Second)
	require.NoError(t, err)
	return srv, client
}

func TestGenerateReturnsText(t *testing.T) {
	var gotAuth string
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "  generated text  "}},
			},
		})
	})

	text, err := client.Generate(context.Background(), llm.Request{Prompt: "hello", Temperature: 0.3})
	require.NoError(t, err)
	assert.Equal(t, "generated text", text)
	assert.Equal(t, "Bearer test-key", gotAuth)
}

func TestGenerateEmptyResponse(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "   "}},
			},
		})
	})

	_, err := client.Generate(context.Background(), llm.Request{Prompt: "hello"})
	assert.ErrorIs(t, err, llm.ErrEmptyResponse)
}

func TestGenerateHTTPError(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.Generate(context.Background(), llm.Request{Prompt: "hello"})
	assert.ErrorIs(t, err, llm.ErrTransport)
}

func TestGenerateTimeout(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Generate(ctx, llm.Request{Prompt: "hello"})
	assert.ErrorIs(t, err, llm.ErrTimeout)
	assert.True(t, llm.IsTransportError(err))
}

func TestGenerateSystemInstructionFirst(t *testing.T) {
	var got chatRequest
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "ok"}},
			},
		})
	})

	_, err := client.Generate(context.Background(), llm.Request{
		SystemInstruction: "STRICT JSON ONLY",
		Prompt:            "hello",
	})
	require.NoError(t, err)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "STRICT JSON ONLY", got.Messages[0].Content)
}
