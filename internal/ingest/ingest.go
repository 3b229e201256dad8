// Package ingest copies audit database rows into the vector index used by the
// chat assistant.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"go-audit-insights/internal/rag"
)

// DefaultTables are the audit tables indexed when none are named.
var DefaultTables = []string{
	"journal_entries",
	"payments",
	"trades",
	"regulatory_filings",
	"audit_reports",
	"exception_logs",
	"customers",
	"vendors",
}

const DefaultBatchSize = 100

var textFields = []string{
	"narration", "description", "notes", "comment", "remarks",
	"text", "content", "summary", "details", "name", "title",
}

var payloadFields = []string{
	"amount", "date", "account_id", "transaction_id", "narration",
	"description", "status", "type", "name", "title",
}

// Source streams rows of one table.
type Source interface {
	ScanTable(ctx context.Context, table string, fn func(row map[string]any) error) error
}

// Writer persists embedded documents.
type Writer interface {
	Upsert(ctx context.Context, docs []rag.Document) (int, error)
}

type indexPreparer interface {
	EnsureIndex(ctx context.Context, dims int) error
}

// TableResult summarises one table.
type TableResult struct {
	Table   string `json:"table"`
	Read    int    `json:"read"`
	Indexed int    `json:"indexed"`
	Skipped int    `json:"skipped"`
	Err     error  `json:"-"`
}

// Summary is the outcome of a run.
type Summary struct {
	Tables []TableResult `json:"tables"`
	Total  int           `json:"total"`
}

// Ingester embeds rows and writes them in batches.
type Ingester struct {
	source      Source
	embedder    rag.Embedder
	writer      Writer
	logger      *zap.Logger
	batchSize   int
	concurrency int
	now         func() time.Time

	prepareOnce sync.Once
	prepareErr  error
}

// Option customises an Ingester.
type Option func(*Ingester)

func WithLogger(l *zap.Logger) Option {
	return func(i *Ingester) {
		if l != nil {
			i.logger = l
		}
	}
}

func WithBatchSize(n int) Option {
	return func(i *Ingester) {
		if n > 0 {
			i.batchSize = n
		}
	}
}

// WithConcurrency bounds parallel embedding calls within a batch.
func WithConcurrency(n int) Option {
	return func(i *Ingester) {
		if n > 0 {
			i.concurrency = n
		}
	}
}

func New(source Source, embedder rag.Embedder, writer Writer, opts ...Option) *Ingester {
	i := &Ingester{
		source:      source,
		embedder:    embedder,
		writer:      writer,
		logger:      zap.NewNop(),
		batchSize:   DefaultBatchSize,
		concurrency: 4,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Run ingests tables in order. A failing table is logged and the run continues.
func (i *Ingester) Run(ctx context.Context, tables []string) Summary {
	if len(tables) == 0 {
		tables = DefaultTables
	}
	out := Summary{Tables: make([]TableResult, 0, len(tables))}
	for _, table := range tables {
		if ctx.Err() != nil {
			break
		}
		res := i.Table(ctx, table)
		if res.Err != nil {
			i.logger.Error("ingest table failed", zap.String("table", table), zap.Error(res.Err))
		}
		out.Tables = append(out.Tables, res)
		out.Total += res.Indexed
	}
	i.logger.Info("ingestion complete", zap.Int("total", out.Total))
	return out
}

// Table ingests one table. Rows that cannot be embedded are skipped.
func (i *Ingester) Table(ctx context.Context, table string) TableResult {
	res := TableResult{Table: table}
	batch := make([]map[string]any, 0, i.batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		docs := i.embedBatch(ctx, table, batch)
		res.Skipped += len(batch) - len(docs)
		batch = batch[:0]
		if len(docs) == 0 {
			return nil
		}
		if err := i.prepare(ctx, len(docs[0].Vector)); err != nil {
			return fmt.Errorf("prepare index: %w", err)
		}
		n, err := i.writer.Upsert(ctx, docs)
		if err != nil {
			return fmt.Errorf("upsert %s: %w", table, err)
		}
		res.Indexed += n
		res.Skipped += len(docs) - n
		i.logger.Info("ingested batch", zap.String("table", table), zap.Int("indexed", res.Indexed), zap.Int("read", res.Read))
		return nil
	}

	err := i.source.ScanTable(ctx, table, func(row map[string]any) error {
		res.Read++
		batch = append(batch, row)
		if len(batch) >= i.batchSize {
			return flush()
		}
		return nil
	})
	if err == nil {
		err = flush()
	}
	res.Err = err
	if res.Read == 0 && err == nil {
		i.logger.Warn("table is empty, skipping", zap.String("table", table))
	}
	return res
}

func (i *Ingester) prepare(ctx context.Context, dims int) error {
	p, ok := i.writer.(indexPreparer)
	if !ok {
		return nil
	}
	i.prepareOnce.Do(func() { i.prepareErr = p.EnsureIndex(ctx, dims) })
	return i.prepareErr
}

func (i *Ingester) embedBatch(ctx context.Context, table string, rows []map[string]any) []rag.Document {
	docs := make([]*rag.Document, len(rows))
	ingestedAt := i.now().UTC()

	var g errgroup.Group
	g.SetLimit(i.concurrency)
	for idx, row := range rows {
		g.Go(func() error {
			text := ExtractText(row)
			vec, err := i.embedder.Embed(ctx, text)
			if err != nil {
				i.logger.Error("error processing document",
					zap.String("table", table), zap.String("id", originalID(row)), zap.Error(err))
				return nil
			}
			docs[idx] = &rag.Document{
				ID:      DocumentID(table, row),
				Vector:  vec,
				Payload: Payload(table, row, text, ingestedAt),
			}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]rag.Document, 0, len(rows))
	for _, d := range docs {
		if d != nil {
			out = append(out, *d)
		}
	}
	return out
}

// ExtractText builds the searchable text of a row: descriptive fields first, then
// amount, date, account and transaction markers, else a truncated JSON dump.
func ExtractText(row map[string]any) string {
	parts := make([]string, 0, 8)
	for _, f := range textFields {
		if v, ok := row[f]; ok && truthy(v) {
			parts = append(parts, fmt.Sprint(v))
		}
	}
	for _, m := range []struct{ key, label string }{
		{"amount", "amount"},
		{"date", "date"},
		{"account_id", "account"},
		{"transaction_id", "transaction"},
	} {
		if v, ok := row[m.key]; ok && v != nil {
			parts = append(parts, m.label+" "+fmt.Sprint(v))
		}
	}
	if len(parts) == 0 {
		blob, _ := json.Marshal(row)
		r := []rune(string(blob))
		if len(r) > 500 {
			r = r[:500]
		}
		return string(r)
	}
	return strings.Join(parts, " ")
}

// Payload is the document metadata stored next to the vector.
func Payload(table string, row map[string]any, text string, ingestedAt time.Time) map[string]any {
	p := map[string]any{
		"collection":  table,
		"text":        text,
		"original_id": originalID(row),
		"ingested_at": ingestedAt.UTC().Format(time.RFC3339),
	}
	for _, f := range payloadFields {
		if v, ok := row[f]; ok {
			p[f] = v
		}
	}
	return p
}

// DocumentID is stable across runs so re-ingesting replaces documents.
func DocumentID(table string, row map[string]any) string {
	if id := originalID(row); id != "" {
		return table + ":" + id
	}
	blob, _ := json.Marshal(row)
	return table + ":" + uuid.NewSHA1(uuid.NameSpaceOID, append([]byte(table+":"), blob...)).String()
}

func originalID(row map[string]any) string {
	for _, key := range []string{"id", "_id", "uuid"} {
		if v, ok := row[key]; ok && v != nil {
			if s := fmt.Sprint(v); s != "" {
				return s
			}
		}
	}
	return ""
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case int:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0
	default:
		return true
	}
}
