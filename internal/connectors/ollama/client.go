// Package ollama talks to a local Ollama server for chat completions and embeddings.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go-audit-insights/internal/rag"
)

// ErrEmptyEmbedding is returned when the server answers without a vector.
var ErrEmptyEmbedding = errors.New("ollama returned an empty embedding")

// Client calls the Ollama REST API.
type Client struct {
	endpoint   string
	model      string
	embedModel string
	system     string
	http       *http.Client
}

func NewClient(endpoint, model, embedModel string, timeout time.Duration) *Client {
	return &Client{
		endpoint:   strings.TrimRight(strings.TrimSpace(endpoint), "/"),
		model:      model,
		embedModel: embedModel,
		system:     rag.SystemPrompt,
		http:       &http.Client{Timeout: timeout},
	}
}

func (c *Client) Enabled() bool {
	return c != nil && c.endpoint != ""
}

func (c *Client) Model() string      { return c.model }
func (c *Client) EmbedModel() string { return c.embedModel }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Generate runs one non-streaming chat completion.
func (c *Client) Generate(ctx context.Context, prompt string, opts rag.GenerateOptions) (string, error) {
	if !c.Enabled() {
		return "", errors.New("ollama endpoint not configured")
	}
	body := map[string]any{
		"model": c.model,
		"messages": []chatMessage{
			{Role: "system", Content: c.system},
			{Role: "user", Content: prompt},
		},
		"stream": false,
		"options": map[string]any{
			"temperature": opts.Temperature,
			"num_predict": opts.MaxTokens,
		},
	}

	var raw struct {
		Message chatMessage `json:"message"`
	}
	if err := c.postJSON(ctx, "/api/chat", body, &raw); err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}
	return strings.TrimSpace(raw.Message.Content), nil
}

// Embed returns the embedding vector for text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if !c.Enabled() {
		return nil, errors.New("ollama endpoint not configured")
	}
	var raw struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := c.postJSON(ctx, "/api/embeddings", map[string]any{"model": c.embedModel, "prompt": text}, &raw); err != nil {
		return nil, fmt.Errorf("ollama embeddings: %w", err)
	}
	if len(raw.Embedding) == 0 {
		return nil, ErrEmptyEmbedding
	}
	return raw.Embedding, nil
}

// Available reports whether the server answers and has the chat model pulled.
func (c *Client) Available(ctx context.Context) bool {
	models, err := c.Models(ctx)
	if err != nil {
		return false
	}
	for _, m := range models {
		if m == c.model || strings.TrimSuffix(m, ":latest") == c.model {
			return true
		}
	}
	return false
}

// Models lists the locally available model names.
func (c *Client) Models(ctx context.Context) ([]string, error) {
	if !c.Enabled() {
		return nil, errors.New("ollama endpoint not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/api/tags", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var raw struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(raw.Models))
	for _, m := range raw.Models {
		out = append(out, m.Name)
	}
	return out, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body any, dst any) error {
	blob, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(blob))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return err
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		blob, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ollama status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(blob)))
	}
	return nil
}
