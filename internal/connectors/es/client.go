// Package es stores and searches embedded audit documents in an Elasticsearch
// dense_vector index.
package es

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"go-audit-insights/internal/rag"
)

// ServiceStats holds lightweight cluster health and uptime data.
type ServiceStats struct {
	PingMS            int64    `json:"ping_ms"`
	Version           string   `json:"version"`
	ClusterName       string   `json:"cluster_name"`
	ClusterStatus     string   `json:"cluster_status"`
	NodeCount         int      `json:"node_count"`
	DataNodeCount     int      `json:"data_node_count"`
	ActiveShards      int      `json:"active_shards"`
	UnassignedShards  int      `json:"unassigned_shards"`
	PendingTasks      int      `json:"pending_tasks"`
	NodeUptimeSeconds int64    `json:"node_uptime_seconds"`
	NodeNames         []string `json:"node_names"`
}

// Config selects the cluster and index.
type Config struct {
	Endpoint string
	Username string
	Password string
	Index    string
	Timeout  time.Duration
}

// Client performs vector index operations against one index.
type Client struct {
	es    *elasticsearch.Client
	index string
}

func NewClient(cfg Config) (*Client, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint == "" {
		return nil, nil
	}
	index := strings.TrimSpace(cfg.Index)
	if index == "" {
		index = "audit_docs"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{endpoint},
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: &http.Transport{ResponseHeaderTimeout: timeout},
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	return &Client{es: client, index: index}, nil
}

func (c *Client) Enabled() bool {
	return c != nil && c.es != nil
}

func (c *Client) Index() string { return c.index }

// EnsureIndex creates the index with a dense_vector mapping of dims when missing.
func (c *Client) EnsureIndex(ctx context.Context, dims int) error {
	res, err := c.es.Indices.Exists([]string{c.index}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return err
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	mapping := map[string]any{
		"mappings": map[string]any{
			"dynamic_templates": []any{
				map[string]any{"payload_strings": map[string]any{
					"path_match":         "payload.*",
					"match_mapping_type": "string",
					"mapping":            map[string]any{"type": "keyword", "ignore_above": 1024},
				}},
			},
			"properties": map[string]any{
				"vector": map[string]any{
					"type":       "dense_vector",
					"dims":       dims,
					"index":      true,
					"similarity": "cosine",
				},
				"payload": map[string]any{"type": "object"},
			},
		},
	}
	body, err := json.Marshal(mapping)
	if err != nil {
		return err
	}
	res, err = c.es.Indices.Create(c.index,
		c.es.Indices.Create.WithContext(ctx),
		c.es.Indices.Create.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError(res)
	}
	return nil
}

// Upsert bulk-indexes docs, replacing documents with the same id.
func (c *Client) Upsert(ctx context.Context, docs []rag.Document) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, d := range docs {
		if strings.TrimSpace(d.ID) == "" {
			return 0, errors.New("document id required")
		}
		if err := enc.Encode(map[string]any{"index": map[string]any{"_index": c.index, "_id": d.ID}}); err != nil {
			return 0, err
		}
		payload := d.Payload
		if payload == nil {
			payload = map[string]any{}
		}
		if err := enc.Encode(map[string]any{"vector": d.Vector, "payload": payload}); err != nil {
			return 0, fmt.Errorf("document %s: %w", d.ID, err)
		}
	}

	res, err := c.es.Bulk(&buf,
		c.es.Bulk.WithContext(ctx),
		c.es.Bulk.WithIndex(c.index),
		c.es.Bulk.WithRefresh("true"),
	)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, responseError(res)
	}

	var raw struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			ID     string `json:"_id"`
			Status int    `json:"status"`
			Error  *struct {
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&raw); err != nil {
		return 0, err
	}
	ok := 0
	var firstErr string
	for _, item := range raw.Items {
		for _, r := range item {
			if r.Error != nil || r.Status >= 300 {
				if firstErr == "" && r.Error != nil {
					firstErr = r.ID + ": " + r.Error.Reason
				}
				continue
			}
			ok++
		}
	}
	if raw.Errors && ok == 0 {
		return 0, fmt.Errorf("elasticsearch bulk failed: %s", firstErr)
	}
	return ok, nil
}

// Search runs an approximate kNN query; filter values must match payload fields exactly.
func (c *Client) Search(ctx context.Context, vector []float32, k int, filter map[string]any) ([]rag.Hit, error) {
	if k <= 0 {
		return []rag.Hit{}, nil
	}
	knn := map[string]any{
		"field":          "vector",
		"query_vector":   vector,
		"k":              k,
		"num_candidates": max(k*10, 100),
	}
	if len(filter) > 0 {
		keys := make([]string, 0, len(filter))
		for key := range filter {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		terms := make([]any, 0, len(keys))
		for _, key := range keys {
			terms = append(terms, map[string]any{"term": map[string]any{"payload." + key: filter[key]}})
		}
		knn["filter"] = map[string]any{"bool": map[string]any{"filter": terms}}
	}
	body, err := json.Marshal(map[string]any{
		"knn":     knn,
		"size":    k,
		"_source": []string{"payload"},
	})
	if err != nil {
		return nil, err
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, responseError(res)
	}

	var raw struct {
		Hits struct {
			Hits []struct {
				ID     string  `json:"_id"`
				Score  float64 `json:"_score"`
				Source struct {
					Payload map[string]any `json:"payload"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&raw); err != nil {
		return nil, err
	}

	out := make([]rag.Hit, 0, len(raw.Hits.Hits))
	for _, h := range raw.Hits.Hits {
		payload := h.Source.Payload
		if payload == nil {
			payload = map[string]any{}
		}
		out = append(out, rag.Hit{ID: h.ID, Score: h.Score, Payload: payload})
	}
	return out, nil
}

// Count returns the number of indexed documents.
func (c *Client) Count(ctx context.Context) (int64, error) {
	res, err := c.es.Count(c.es.Count.WithContext(ctx), c.es.Count.WithIndex(c.index))
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, responseError(res)
	}
	var raw struct {
		Count int64 `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&raw); err != nil {
		return 0, err
	}
	return raw.Count, nil
}

// ServiceStats returns ES reachability, cluster health and node uptime summary.
func (c *Client) ServiceStats(ctx context.Context) (*ServiceStats, error) {
	if !c.Enabled() {
		return nil, nil
	}

	start := time.Now()
	root, err := decodeMap(c.es.Info(c.es.Info.WithContext(ctx)))
	if err != nil {
		return nil, err
	}
	pingMS := time.Since(start).Milliseconds()

	health, err := decodeMap(c.es.Cluster.Health(c.es.Cluster.Health.WithContext(ctx)))
	if err != nil {
		return nil, err
	}

	nodes, err := decodeMap(c.es.Nodes.Stats(c.es.Nodes.Stats.WithContext(ctx), c.es.Nodes.Stats.WithMetric("jvm")))
	if err != nil {
		return nil, err
	}

	out := &ServiceStats{
		PingMS:           pingMS,
		Version:          nestedString(root, "version", "number"),
		ClusterName:      asString(health["cluster_name"]),
		ClusterStatus:    asString(health["status"]),
		NodeCount:        int(asFloat(health["number_of_nodes"])),
		DataNodeCount:    int(asFloat(health["number_of_data_nodes"])),
		ActiveShards:     int(asFloat(health["active_shards"])),
		UnassignedShards: int(asFloat(health["unassigned_shards"])),
		PendingTasks:     int(asFloat(health["number_of_pending_tasks"])),
	}

	nodeNames := make([]string, 0)
	maxUptime := int64(0)
	if rawNodes, ok := nodes["nodes"].(map[string]any); ok {
		for _, rv := range rawNodes {
			node, ok := rv.(map[string]any)
			if !ok {
				continue
			}
			if name := asString(node["name"]); name != "" {
				nodeNames = append(nodeNames, name)
			}
			uptimeMS := int64(asFloat(nestedAny(node, "jvm", "uptime_in_millis")))
			if uptimeMS > maxUptime {
				maxUptime = uptimeMS
			}
		}
	}
	sort.Strings(nodeNames)
	out.NodeNames = nodeNames
	out.NodeUptimeSeconds = maxUptime / 1000

	return out, nil
}

func decodeMap(res *esapi.Response, err error) (map[string]any, error) {
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, responseError(res)
	}
	out := map[string]any{}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func responseError(res *esapi.Response) error {
	blob, _ := io.ReadAll(io.LimitReader(res.Body, 2048))
	return fmt.Errorf("elasticsearch status=%d body=%s", res.StatusCode, strings.TrimSpace(string(blob)))
}

func nestedAny(m map[string]any, keys ...string) any {
	cur := any(m)
	for _, k := range keys {
		nextMap, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = nextMap[k]
	}
	return cur
}

func nestedString(m map[string]any, keys ...string) string {
	return asString(nestedAny(m, keys...))
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asFloat(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case json.Number:
		f, _ := x.Float64()
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
