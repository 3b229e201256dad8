package ingest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-audit-insights/internal/rag"
)

type fakeSource struct {
	tables map[string][]map[string]any
	fail   map[string]error
}

func (f *fakeSource) ScanTable(_ context.Context, table string, fn func(map[string]any) error) error {
	if err := f.fail[table]; err != nil {
		return err
	}
	for _, row := range f.tables[table] {
		if err := fn(row); err != nil {
			return err
		}
	}
	return nil
}

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if strings.Contains(text, "poison") {
		return nil, errors.New("cannot embed")
	}
	return []float32{float32(len(text)), 1}, nil
}

type fakeWriter struct {
	mu      sync.Mutex
	batches [][]rag.Document
	dims    []int
}

func (w *fakeWriter) Upsert(_ context.Context, docs []rag.Document) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.batches = append(w.batches, append([]rag.Document(nil), docs...))
	return len(docs), nil
}

func (w *fakeWriter) EnsureIndex(_ context.Context, dims int) error {
	w.dims = append(w.dims, dims)
	return nil
}

func rows(n int, prefix string) []map[string]any {
	out := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, map[string]any{"id": i + 1, "narration": prefix})
	}
	return out
}

func TestRun_BatchesAndContinuesAfterTableError(t *testing.T) {
	src := &fakeSource{
		tables: map[string][]map[string]any{
			"journal_entries": rows(250, "entry"),
			"payments":        append(rows(3, "payment"), map[string]any{"id": 99, "narration": "poison"}),
		},
		fail: map[string]error{"trades": errors.New("table missing")},
	}
	w := &fakeWriter{}
	ing := New(src, fakeEmbedder{}, w)

	sum := ing.Run(context.Background(), []string{"journal_entries", "trades", "payments"})

	require.Len(t, sum.Tables, 3)
	assert.Equal(t, 250, sum.Tables[0].Indexed)
	assert.Error(t, sum.Tables[1].Err)
	assert.Equal(t, 3, sum.Tables[2].Indexed)
	assert.Equal(t, 1, sum.Tables[2].Skipped)
	assert.Equal(t, 253, sum.Total)

	require.Len(t, w.batches, 4)
	assert.Len(t, w.batches[0], 100)
	assert.Len(t, w.batches[1], 100)
	assert.Len(t, w.batches[2], 50)
	assert.Equal(t, []int{2}, w.dims, "index is prepared once")
	assert.Equal(t, "journal_entries:1", w.batches[0][0].ID)
}

func TestRun_DefaultTables(t *testing.T) {
	w := &fakeWriter{}
	sum := New(&fakeSource{}, fakeEmbedder{}, w).Run(context.Background(), nil)
	require.Len(t, sum.Tables, len(DefaultTables))
	assert.Zero(t, sum.Total)
	assert.Empty(t, w.batches)
}

func TestExtractText(t *testing.T) {
	text := ExtractText(map[string]any{
		"narration":      "Wire to vendor",
		"title":          "",
		"amount":         1500.5,
		"date":           "2024-03-01",
		"account_id":     "ACC-1",
		"transaction_id": "TX-9",
	})
	assert.Equal(t, "Wire to vendor amount 1500.5 date 2024-03-01 account ACC-1 transaction TX-9", text)

	fallback := ExtractText(map[string]any{"code": strings.Repeat("z", 600)})
	assert.True(t, strings.HasPrefix(fallback, `{"code":"zzz`))
	assert.Len(t, []rune(fallback), 500)
}

func TestPayloadAndDocumentID(t *testing.T) {
	at := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
	row := map[string]any{"id": int64(7), "amount": 10.0, "status": "posted", "secret": "x"}

	p := Payload("payments", row, "text", at)
	assert.Equal(t, "payments", p["collection"])
	assert.Equal(t, "7", p["original_id"])
	assert.Equal(t, "2026-10-19T10:00:00Z", p["ingested_at"])
	assert.Equal(t, "posted", p["status"])
	assert.NotContains(t, p, "secret")

	assert.Equal(t, "payments:7", DocumentID("payments", row))

	noID := map[string]any{"memo": "x"}
	assert.Equal(t, DocumentID("vendors", noID), DocumentID("vendors", noID))
	assert.NotEqual(t, DocumentID("vendors", noID), DocumentID("customers", noID))
}
