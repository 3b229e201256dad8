// Package providers opens the language model, embedding and vector store backends
// selected in config and assembles them into a question-answering pipeline.
package providers

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"go-audit-insights/internal/config"
	esstore "go-audit-insights/internal/connectors/es"
	"go-audit-insights/internal/connectors/gemini"
	"go-audit-insights/internal/connectors/ollama"
	"go-audit-insights/internal/connectors/vecsqlite"
	"go-audit-insights/internal/rag"
)

const (
	BackendSQLite        = "sqlite"
	BackendElasticsearch = "elasticsearch"

	ProviderOllama = "ollama"
	ProviderGemini = "gemini"

	// Collection names the SQLite collection holding ingested audit documents.
	Collection = "audit_documents"
)

// LLM answers prompts and can report whether its model is reachable.
type LLM interface {
	rag.Generator
	Available(ctx context.Context) bool
	Model() string
}

// EmbeddingModel turns text into vectors.
type EmbeddingModel interface {
	rag.Embedder
	EmbedModel() string
}

// VectorStore is a searchable, writable document index.
type VectorStore interface {
	rag.Retriever
	Upsert(ctx context.Context, docs []rag.Document) (int, error)
	Count(ctx context.Context) (int64, error)
}

// Set is the opened backends.
type Set struct {
	LLM      LLM
	Embedder EmbeddingModel
	Vectors  VectorStore
	Backend  string

	// ES is set when the vector backend is Elasticsearch.
	ES *esstore.Client

	closers []func() error
}

// Open connects every backend named in cfg. Nothing is contacted except the SQLite
// file and the Gemini client constructor; availability is checked later.
func Open(ctx context.Context, cfg config.Config) (*Set, error) {
	s := &Set{}

	var gem *gemini.Client
	if cfg.LLMProvider == ProviderGemini || cfg.EmbedProvider == ProviderGemini {
		c, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiEmbed)
		if err != nil {
			return nil, err
		}
		gem = c
	}
	oll := ollama.NewClient(cfg.OllamaURL, cfg.OllamaModel, cfg.OllamaEmbed, cfg.OllamaTimeout)

	switch cfg.LLMProvider {
	case ProviderGemini:
		s.LLM = gem
	case ProviderOllama, "":
		s.LLM = oll
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
	}
	switch cfg.EmbedProvider {
	case ProviderGemini:
		s.Embedder = gem
	case ProviderOllama, "":
		s.Embedder = oll
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.EmbedProvider)
	}

	switch cfg.VectorBackend {
	case BackendElasticsearch, "es":
		client, err := esstore.NewClient(esstore.Config{
			Endpoint: cfg.ESEndpoint,
			Username: cfg.ESUsername,
			Password: cfg.ESPassword,
			Index:    cfg.ESIndex,
			Timeout:  cfg.ESTimeout,
		})
		if err != nil {
			return nil, err
		}
		if client == nil {
			return nil, errors.New("elasticsearch vector backend selected but APP_ES_ENDPOINT is empty")
		}
		s.Vectors = client
		s.ES = client
		s.Backend = BackendElasticsearch
	case BackendSQLite, "":
		store, err := vecsqlite.NewStore(cfg.VectorSQLite, Collection)
		if err != nil {
			return nil, fmt.Errorf("open vector store: %w", err)
		}
		s.Vectors = store
		s.Backend = BackendSQLite
		s.closers = append(s.closers, store.Close)
	default:
		return nil, fmt.Errorf("unknown vector backend %q", cfg.VectorBackend)
	}
	return s, nil
}

// Pipeline builds the answering pipeline over the opened backends.
func (s *Set) Pipeline(cfg config.Config, logger *zap.Logger) *rag.Pipeline {
	return rag.New(s.Embedder, s.Vectors, s.LLM,
		rag.WithLogger(logger),
		rag.WithDefaultK(cfg.RAGTopK),
		rag.WithContextChars(cfg.RAGContextChars),
		rag.WithMaxTokens(cfg.RAGMaxTokens),
		rag.WithVerifyNumbers(cfg.RAGVerify),
	)
}

// Close releases every backend that holds resources.
func (s *Set) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
