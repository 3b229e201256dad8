// Package gemini provides chat completion and embeddings backed by the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"go-audit-insights/internal/rag"
)

// Client wraps a genai client with the models used for answering and embedding.
type Client struct {
	client     *genai.Client
	model      string
	embedModel string
	taskType   string
}

// Option customises a Client.
type Option func(*genai.ClientConfig)

// WithBaseURL points the client at a different API host.
func WithBaseURL(u string) Option {
	return func(cfg *genai.ClientConfig) { cfg.HTTPOptions.BaseURL = u }
}

func NewClient(ctx context.Context, apiKey, model, embedModel string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini api key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	if embedModel == "" {
		embedModel = "gemini-embedding-001"
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Client{
		client:     client,
		model:      model,
		embedModel: embedModel,
		taskType:   "SEMANTIC_SIMILARITY",
	}, nil
}

func (c *Client) Model() string      { return c.model }
func (c *Client) EmbedModel() string { return c.embedModel }

// Generate runs one completion with the audit assistant system instruction.
func (c *Client) Generate(ctx context.Context, prompt string, opts rag.GenerateOptions) (string, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(rag.SystemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr(float32(opts.Temperature)),
	}
	if opts.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(opts.MaxTokens)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return strings.TrimSpace(resp.Text()), nil
}

// Embed returns the embedding vector for text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}
	result, err := c.client.Models.EmbedContent(ctx, c.embedModel, contents, &genai.EmbedContentConfig{
		TaskType: c.taskType,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini embed: %w", err)
	}
	if len(result.Embeddings) == 0 || len(result.Embeddings[0].Values) == 0 {
		return nil, errors.New("gemini returned no embeddings")
	}
	return result.Embeddings[0].Values, nil
}

// Available reports whether the configured chat model can be described by the API.
func (c *Client) Available(ctx context.Context) bool {
	_, err := c.client.Models.Get(ctx, c.model, nil)
	return err == nil
}
