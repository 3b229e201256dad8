package es

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-audit-insights/internal/rag"
)

func newFakeCluster(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{Endpoint: srv.URL, Index: "audit_test"})
	require.NoError(t, err)
	require.True(t, c.Enabled())
	return c
}

func TestNewClient_DisabledWithoutEndpoint(t *testing.T) {
	c, err := NewClient(Config{})
	require.NoError(t, err)
	assert.False(t, c.Enabled())
}

func TestClient_Search(t *testing.T) {
	var body map[string]any
	c := newFakeCluster(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/audit_test/_search"), r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = io.WriteString(w, `{"hits":{"hits":[
  {"_id":"payments:7","_score":0.93,"_source":{"payload":{"collection":"payments","amount":1500}}},
  {"_id":"payments:9","_score":0.81,"_source":{}}
]}}`)
	})

	hits, err := c.Search(context.Background(), []float32{0.1, 0.2}, 3, map[string]any{"collection": "payments"})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, rag.Hit{ID: "payments:7", Score: 0.93, Payload: map[string]any{"collection": "payments", "amount": 1500.0}}, hits[0])
	assert.NotNil(t, hits[1].Payload)

	knn, ok := body["knn"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 3, knn["k"])
	assert.EqualValues(t, 100, knn["num_candidates"])
	assert.Contains(t, knn, "filter")
}

func TestClient_UpsertReportsPartialFailure(t *testing.T) {
	c := newFakeCluster(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/_bulk"), r.URL.Path)
		_, _ = io.WriteString(w, `{"errors":true,"items":[
  {"index":{"_id":"a","status":201}},
  {"index":{"_id":"b","status":400,"error":{"reason":"bad vector"}}}
]}`)
	})

	n, err := c.Upsert(context.Background(), []rag.Document{
		{ID: "a", Vector: []float32{1}},
		{ID: "b", Vector: []float32{1}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestClient_UpsertAllFailed(t *testing.T) {
	c := newFakeCluster(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"errors":true,"items":[{"index":{"_id":"a","status":400,"error":{"reason":"mapper_parsing_exception"}}}]}`)
	})

	_, err := c.Upsert(context.Background(), []rag.Document{{ID: "a", Vector: []float32{1}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mapper_parsing_exception")
}

func TestClient_SearchErrorStatus(t *testing.T) {
	c := newFakeCluster(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":{"type":"index_not_found_exception"}}`)
	})

	_, err := c.Search(context.Background(), []float32{1}, 1, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=404")
}

func TestAsFloat(t *testing.T) {
	assert.Equal(t, 3.0, asFloat(json.Number("3")))
	assert.Equal(t, 2.5, asFloat(" 2.5 "))
	assert.Zero(t, asFloat("n/a"))
	assert.Zero(t, asFloat(nil))
}
