package selftest

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-audit-insights/internal/rag"
)

type stubEmbedder struct{ err error }

func (s stubEmbedder) Embed(context.Context, string) ([]float32, error) {
	return []float32{0.1, 0.2, 0.3}, s.err
}

type stubStore struct {
	hits []rag.Hit
	err  error
}

func (s stubStore) Search(context.Context, []float32, int, map[string]any) ([]rag.Hit, error) {
	return s.hits, s.err
}

func (s stubStore) Count(context.Context) (int64, error) { return int64(len(s.hits)), s.err }

type stubLLM struct {
	up     bool
	answer string
}

func (s stubLLM) Available(context.Context) bool { return s.up }

func (s stubLLM) Generate(context.Context, string, rag.GenerateOptions) (string, error) {
	if !s.up {
		return "", errors.New("connection refused")
	}
	return s.answer, nil
}

func deps(emb stubEmbedder, store stubStore, llm stubLLM) Deps {
	return Deps{
		Embedder: emb,
		Vectors:  store,
		LLM:      llm,
		Pipeline: rag.New(emb, store, llm),
	}
}

func TestRun_AllPass(t *testing.T) {
	store := stubStore{hits: []rag.Hit{{ID: "payments:1", Score: 0.9, Payload: map[string]any{"text": "wire"}}}}
	res := Run(context.Background(), deps(stubEmbedder{}, store, stubLLM{up: true, answer: "One payment."}))

	require.Len(t, res, 5)
	assert.True(t, res.OK())
	assert.Equal(t, "dimension 3", res[0].Detail)
	assert.Equal(t, "1 documents", res[1].Detail)
	assert.Contains(t, res[3].Detail, "payments:1")

	var buf bytes.Buffer
	Print(&buf, res)
	assert.Contains(t, buf.String(), "All checks passed.")
	assert.Contains(t, buf.String(), "End-to-End Pipeline")
}

func TestRun_ReportsEachFailure(t *testing.T) {
	store := stubStore{hits: []rag.Hit{{ID: "payments:1", Payload: map[string]any{"text": "wire"}}}}
	res := Run(context.Background(), deps(stubEmbedder{}, store, stubLLM{up: false}))

	assert.False(t, res.OK())
	assert.True(t, res[0].Passed)
	assert.False(t, res[2].Passed, "llm unavailable")
	assert.True(t, res[3].Passed)
	assert.True(t, res[4].Passed, "generation errors are reported inside the answer")

	broken := Run(context.Background(), deps(stubEmbedder{err: errors.New("model missing")}, stubStore{}, stubLLM{up: true}))
	assert.False(t, broken[0].Passed)
	assert.Equal(t, "model missing", broken[0].Detail)
	assert.False(t, broken[3].Passed)
	assert.False(t, broken[4].Passed)

	var buf bytes.Buffer
	Print(&buf, broken)
	assert.Contains(t, buf.String(), "FAIL")
	assert.Contains(t, buf.String(), "Some checks failed.")
}

func TestResult_EmptyIsNotOK(t *testing.T) {
	assert.False(t, Result{}.OK())
}
