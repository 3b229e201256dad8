// Package vecsqlite keeps embedded audit documents in a local SQLite file and
// answers nearest-neighbour queries by cosine similarity.
package vecsqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"go-audit-insights/internal/rag"
)

// Store manages vector documents for one collection in SQLite.
type Store struct {
	db         *sql.DB
	collection string
}

func NewStore(path, collection string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sqlite path required")
	}
	collection = strings.TrimSpace(collection)
	if collection == "" {
		return nil, errors.New("collection name required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{db: db, collection: collection}
	if err := s.EnsureCollection(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// EnsureCollection creates the backing table when missing.
func (s *Store) EnsureCollection(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS vector_documents (
  collection TEXT NOT NULL,
  id TEXT NOT NULL,
  dims INTEGER NOT NULL,
  vector_json TEXT NOT NULL,
  payload_json TEXT NOT NULL DEFAULT '{}',
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY (collection, id)
);
`); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_vd_collection ON vector_documents(collection);`)
	return err
}

// Upsert writes docs in one transaction, replacing documents with the same id.
func (s *Store) Upsert(ctx context.Context, docs []rag.Document) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO vector_documents (collection, id, dims, vector_json, payload_json, updated_at)
VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(collection, id) DO UPDATE SET
  dims = excluded.dims,
  vector_json = excluded.vector_json,
  payload_json = excluded.payload_json,
  updated_at = CURRENT_TIMESTAMP;
`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, d := range docs {
		id := strings.TrimSpace(d.ID)
		if id == "" {
			return 0, errors.New("document id required")
		}
		if len(d.Vector) == 0 {
			return 0, fmt.Errorf("document %s has no vector", id)
		}
		vec, err := json.Marshal(d.Vector)
		if err != nil {
			return 0, err
		}
		payload := d.Payload
		if payload == nil {
			payload = map[string]any{}
		}
		pj, err := json.Marshal(payload)
		if err != nil {
			return 0, fmt.Errorf("document %s payload: %w", id, err)
		}
		if _, err := stmt.ExecContext(ctx, s.collection, id, len(d.Vector), string(vec), string(pj)); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(docs), nil
}

// Search scores every document of matching dimension and returns the k best.
// filter keys must equal the payload value for a document to be considered.
func (s *Store) Search(ctx context.Context, vector []float32, k int, filter map[string]any) ([]rag.Hit, error) {
	if k <= 0 {
		return []rag.Hit{}, nil
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, vector_json, payload_json
FROM vector_documents
WHERE collection = ? AND dims = ?;
`, s.collection, len(vector))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]rag.Hit, 0, k)
	for rows.Next() {
		var id, vj, pj string
		if err := rows.Scan(&id, &vj, &pj); err != nil {
			return nil, err
		}
		payload := map[string]any{}
		if err := json.Unmarshal([]byte(pj), &payload); err != nil {
			continue
		}
		if !matches(payload, filter) {
			continue
		}
		var vec []float32
		if err := json.Unmarshal([]byte(vj), &vec); err != nil {
			continue
		}
		out = append(out, rag.Hit{ID: id, Score: Cosine(vector, vec), Payload: payload})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

// Count returns the number of documents in the collection.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vector_documents WHERE collection = ?`, s.collection).Scan(&n)
	return n, err
}

// Cosine returns the cosine similarity of a and b, or 0 when either is zero or lengths differ.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func matches(payload, filter map[string]any) bool {
	for k, want := range filter {
		got, ok := payload[k]
		if !ok || fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}
