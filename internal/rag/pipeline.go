// Package rag answers questions about audit data by retrieving the most similar
// indexed documents and asking a language model to answer from them only.
package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrEmptyQuery is returned for blank questions.
var ErrEmptyQuery = errors.New("query cannot be empty")

const (
	noHitsAnswer = "I couldn't find any relevant information in the database to answer your query. " +
		"Please try rephrasing your question or check if the data has been ingested."
	emptyGenerationAnswer = "I couldn't generate a response based on the retrieved context. " +
		"Please try rephrasing your question."
)

// Hit is one retrieved document.
type Hit struct {
	ID      string         `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

// Document is one embedded record as written to a vector store.
type Document struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Retriever returns the k nearest documents to vector. Filter keys must match payload values exactly.
type Retriever interface {
	Search(ctx context.Context, vector []float32, k int, filter map[string]any) ([]Hit, error)
}

// GenerateOptions tune one completion.
type GenerateOptions struct {
	MaxTokens   int
	Temperature float64
}

// Generator completes a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}

// Request is one question.
type Request struct {
	Query         string         `json:"query"`
	K             int            `json:"k,omitempty"`
	VerifyNumbers *bool          `json:"verify_numbers,omitempty"`
	Filter        map[string]any `json:"filter,omitempty"`
	TenantID      string         `json:"tenant_id,omitempty"`
}

// Answer is the pipeline result.
type Answer struct {
	Answer         string   `json:"answer"`
	Sources        []string `json:"sources"`
	Hits           []Hit    `json:"hits"`
	RetrievalCount int      `json:"retrieval_count"`
	Query          string   `json:"query"`
	Error          string   `json:"error,omitempty"`
}

// Pipeline wires embedding, retrieval and generation together.
type Pipeline struct {
	embedder     Embedder
	retriever    Retriever
	generator    Generator
	logger       *zap.Logger
	defaultK     int
	contextChars int
	maxTokens    int
	verify       bool
}

// Option customises a Pipeline.
type Option func(*Pipeline)

func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

func WithDefaultK(k int) Option {
	return func(p *Pipeline) {
		if k > 0 {
			p.defaultK = k
		}
	}
}

func WithContextChars(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.contextChars = n
		}
	}
}

func WithMaxTokens(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxTokens = n
		}
	}
}

// WithVerifyNumbers sets the default used when a request does not say.
func WithVerifyNumbers(v bool) Option {
	return func(p *Pipeline) { p.verify = v }
}

func New(embedder Embedder, retriever Retriever, generator Generator, opts ...Option) *Pipeline {
	p := &Pipeline{
		embedder:     embedder,
		retriever:    retriever,
		generator:    generator,
		logger:       zap.NewNop(),
		defaultK:     6,
		contextChars: 2000,
		maxTokens:    512,
		verify:       true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Retrieve embeds query and returns the top k hits.
func (p *Pipeline) Retrieve(ctx context.Context, query string, k int, filter map[string]any) ([]Hit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if k <= 0 {
		k = p.defaultK
	}
	vector, err := p.embedder.Embed(ctx, query)
	if err != nil {
		return nil, &StageError{Stage: StageEmbedding, Err: err}
	}
	hits, err := p.retriever.Search(ctx, vector, k, filter)
	if err != nil {
		return nil, &StageError{Stage: StageRetrieval, Err: err}
	}
	p.logger.Info("retrieved documents", zap.Int("count", len(hits)), zap.String("query", truncate(query, 50)))
	return hits, nil
}

// Answer runs retrieval, prompt building, generation and optional numeric verification.
// Only a blank query is returned as an error; every other failure is described in the Answer.
func (p *Pipeline) Answer(ctx context.Context, req Request) (Answer, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return Answer{}, ErrEmptyQuery
	}
	start := time.Now()
	out := Answer{Query: query, Sources: []string{}, Hits: []Hit{}}

	hits, err := p.Retrieve(ctx, query, req.K, req.Filter)
	if err != nil {
		p.logger.Error("rag retrieval failed", zap.Error(err))
		out.Answer = "I encountered an error while processing your query: " + userMessage(err)
		out.Error = err.Error()
		return out, nil
	}
	if len(hits) == 0 {
		out.Answer = noHitsAnswer
		return out, nil
	}

	prompt := BuildPrompt(query, hits, p.contextChars)
	answer, err := p.generator.Generate(ctx, prompt, GenerateOptions{MaxTokens: p.maxTokens, Temperature: 0})
	switch {
	case err != nil:
		p.logger.Error("llm generation failed", zap.Error(err))
		answer = fmt.Sprintf("I encountered an error while generating a response: %v. "+
			"However, I found %d relevant document(s) that might help answer your question.", err, len(hits))
	case strings.TrimSpace(answer) == "":
		p.logger.Warn("llm returned empty response, using fallback")
		answer = emptyGenerationAnswer
	}

	verify := p.verify
	if req.VerifyNumbers != nil {
		verify = *req.VerifyNumbers
	}
	if verify && err == nil {
		if ok, warning := VerifyNumericClaims(answer, hits); !ok {
			answer += warning
		}
	}

	out.Answer = answer
	out.Hits = hits
	out.RetrievalCount = len(hits)
	for _, h := range hits {
		out.Sources = append(out.Sources, h.ID)
	}
	p.logger.Info("rag query completed",
		zap.Int("retrieval_count", len(hits)),
		zap.Duration("duration", time.Since(start)),
	)
	return out, nil
}

// Stage names the pipeline step that failed.
type Stage string

const (
	StageEmbedding Stage = "embedding"
	StageRetrieval Stage = "retrieval"
)

// StageError wraps a failure with the step it happened in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return string(e.Stage) + ": " + e.Err.Error() }
func (e *StageError) Unwrap() error { return e.Err }

func userMessage(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		switch se.Stage {
		case StageRetrieval:
			return "I couldn't connect to the vector database. Please ensure it is running and accessible."
		case StageEmbedding:
			return "I couldn't compute an embedding for your query. Please ensure the embedding model is available and try again."
		}
	}
	return "Please try again."
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
