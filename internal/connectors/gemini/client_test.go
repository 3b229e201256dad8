package gemini

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-audit-insights/internal/rag"
)

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), " ", "", "")
	require.Error(t, err)
}

func TestNewClient_Defaults(t *testing.T) {
	c, err := NewClient(context.Background(), "test-key", "", "")
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.0-flash", c.Model())
	assert.Equal(t, "gemini-embedding-001", c.EmbedModel())
}

func TestClient_GenerateAndEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
  "candidates": [{"content": {"role": "model", "parts": [{"text": "Total is 1500. "}]}}],
  "embeddings": [{"values": [0.5, 0.25]}]
}`))
	}))
	defer srv.Close()

	c, err := NewClient(context.Background(), "test-key", "gemini-test", "embed-test", WithBaseURL(srv.URL+"/"))
	require.NoError(t, err)

	out, err := c.Generate(context.Background(), "prompt", rag.GenerateOptions{MaxTokens: 64})
	require.NoError(t, err)
	assert.Equal(t, "Total is 1500.", out)

	vec, err := c.Embed(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.25}, vec)
}
