package providers

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-audit-insights/internal/config"
	"go-audit-insights/internal/connectors/ollama"
	"go-audit-insights/internal/connectors/vecsqlite"
)

func baseConfig(t *testing.T) config.Config {
	return config.Config{
		LLMProvider:     ProviderOllama,
		EmbedProvider:   ProviderOllama,
		OllamaURL:       "http://127.0.0.1:1",
		OllamaModel:     "llama2:7b",
		OllamaEmbed:     "all-minilm",
		OllamaTimeout:   time.Second,
		VectorBackend:   BackendSQLite,
		VectorSQLite:    filepath.Join(t.TempDir(), "vectors.db"),
		RAGTopK:         6,
		RAGContextChars: 2000,
		RAGMaxTokens:    512,
		RAGVerify:       true,
	}
}

func TestOpen_DefaultsToOllamaAndSQLite(t *testing.T) {
	set, err := Open(context.Background(), baseConfig(t))
	require.NoError(t, err)
	defer set.Close()

	assert.Equal(t, BackendSQLite, set.Backend)
	assert.IsType(t, &ollama.Client{}, set.LLM)
	assert.IsType(t, &ollama.Client{}, set.Embedder)
	assert.IsType(t, &vecsqlite.Store{}, set.Vectors)
	assert.Nil(t, set.ES)
	assert.NotNil(t, set.Pipeline(baseConfig(t), zap.NewNop()))

	n, err := set.Vectors.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOpen_RejectsMisconfiguration(t *testing.T) {
	cases := map[string]func(*config.Config){
		"unknown llm":         func(c *config.Config) { c.LLMProvider = "openai" },
		"unknown embedder":    func(c *config.Config) { c.EmbedProvider = "bert" },
		"unknown backend":     func(c *config.Config) { c.VectorBackend = "qdrant" },
		"es without endpoint": func(c *config.Config) { c.VectorBackend = BackendElasticsearch; c.ESEndpoint = "" },
		"gemini without key":  func(c *config.Config) { c.LLMProvider = ProviderGemini; c.GeminiAPIKey = "" },
		"sqlite without path": func(c *config.Config) { c.VectorSQLite = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := baseConfig(t)
			mutate(&cfg)
			_, err := Open(context.Background(), cfg)
			assert.Error(t, err)
		})
	}
}

func TestOpen_Elasticsearch(t *testing.T) {
	cfg := baseConfig(t)
	cfg.VectorBackend = BackendElasticsearch
	cfg.ESEndpoint = "http://127.0.0.1:9200"
	cfg.ESIndex = "audit_documents"

	set, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, BackendElasticsearch, set.Backend)
	require.NotNil(t, set.ES)
	assert.Equal(t, "audit_documents", set.ES.Index())
	assert.NoError(t, set.Close())
}
