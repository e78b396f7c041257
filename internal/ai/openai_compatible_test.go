package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComplete_SendsModelAndMessages(t *testing.T) {
	var got struct {
		Model    string        `json:"model"`
		Messages []ChatMessage `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"hello there"}}]}`))
	}))
	defer srv.Close()

	client := NewOpenAICompatibleClientWithHTTP(srv.Client())
	reply, err := client.Complete(context.Background(), ChatConfig{
		BaseURL: srv.URL + "/v1/",
		APIKey:  "sk-test",
		Model:   "gpt-4o-mini",
	}, []ChatMessage{
		{Role: RoleSystem, Content: "be nice"},
		{Role: RoleUser, Content: "hi"},
	})

	require.NoError(t, err)
	assert.Equal(t, "hello there", reply)
	assert.Equal(t, "gpt-4o-mini", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, RoleSystem, got.Messages[0].Role)
}

func TestComplete_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"slow down"}`))
	}))
	defer srv.Close()

	client := NewOpenAICompatibleClientWithHTTP(srv.Client())
	_, err := client.Complete(context.Background(), ChatConfig{BaseURL: srv.URL}, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestComplete_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	client := NewOpenAICompatibleClientWithHTTP(srv.Client())
	_, err := client.Complete(context.Background(), ChatConfig{BaseURL: srv.URL}, nil)

	assert.ErrorIs(t, err, ErrEmptyChoices)
}

func TestEmbedder_ValidatesDimension(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "text-embedding-3-small", body["model"])
		assert.Equal(t, "query text", body["input"])
		_, _ = w.Write([]byte(`{"data":[{"embedding":[0.1,0.2,0.3]}]}`))
	}))
	defer srv.Close()

	client := NewOpenAICompatibleClientWithHTTP(srv.Client())

	ok := NewEmbedder(client, EmbeddingConfig{BaseURL: srv.URL, Model: "text-embedding-3-small", Dimension: 3})
	vec, err := ok.Embed(context.Background(), "  query text ")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
	assert.Equal(t, 3, ok.Dimension())

	strict := NewEmbedder(client, EmbeddingConfig{BaseURL: srv.URL, Model: "text-embedding-3-small"})
	_, err = strict.Embed(context.Background(), "query text")
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestEmbed_EmptyInput(t *testing.T) {
	client := NewOpenAICompatibleClient(0)

	_, err := client.Embed(context.Background(), EmbeddingConfig{}, "   ")

	assert.ErrorIs(t, err, ErrEmptyInput)
}
