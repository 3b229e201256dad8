package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-audit-insights/internal/rag"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Model    string        `json:"model"`
			Messages []chatMessage `json:"messages"`
			Stream   bool          `json:"stream"`
			Options  struct {
				Temperature float64 `json:"temperature"`
				NumPredict  int     `json:"num_predict"`
			} `json:"options"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "llama3", body.Model)
		assert.False(t, body.Stream)
		assert.Equal(t, 512, body.Options.NumPredict)
		if assert.Len(t, body.Messages, 2) {
			assert.Equal(t, "system", body.Messages[0].Role)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]string{"role": "assistant", "content": "  The answer.\n"},
		})
	})
	mux.HandleFunc("/api/embeddings", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["prompt"] == "empty" {
			_, _ = w.Write([]byte(`{"embedding":[]}`))
			return
		}
		assert.Equal(t, "nomic-embed-text", body["model"])
		_, _ = w.Write([]byte(`{"embedding":[0.1,0.2,0.3]}`))
	})
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"models":[{"name":"llama3:latest"},{"name":"nomic-embed-text:latest"}]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Generate(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient(srv.URL+"/", "llama3", "nomic-embed-text", 2*time.Second)

	out, err := c.Generate(context.Background(), "prompt", rag.GenerateOptions{MaxTokens: 512})
	require.NoError(t, err)
	assert.Equal(t, "The answer.", out)
}

func TestClient_Embed(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient(srv.URL, "llama3", "nomic-embed-text", 2*time.Second)

	vec, err := c.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)

	_, err = c.Embed(context.Background(), "empty")
	require.ErrorIs(t, err, ErrEmptyEmbedding)
}

func TestClient_Available(t *testing.T) {
	srv := newTestServer(t)

	assert.True(t, NewClient(srv.URL, "llama3", "", time.Second).Available(context.Background()))
	assert.False(t, NewClient(srv.URL, "mistral", "", time.Second).Available(context.Background()))
	assert.False(t, NewClient("", "llama3", "", time.Second).Available(context.Background()))
}

func TestClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "llama3", "x", time.Second).Generate(context.Background(), "p", rag.GenerateOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=404")
}
