package http

import (
	"context"
	nethttp "net/http"
	"time"

	esstore "go-audit-insights/internal/connectors/es"
	mysqlstore "go-audit-insights/internal/connectors/mysql"
)

type availability interface {
	Available(ctx context.Context) bool
	Model() string
}

type docCounter interface {
	Count(ctx context.Context) (int64, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

// statusDeps are the integrations reported by the status endpoints. Any may be nil.
type statusDeps struct {
	store         *mysqlstore.Store
	esClient      *esstore.Client
	vectors       docCounter
	vectorBackend string
	llm           availability
	embedModel    string
	cache         pinger
	dataOrigin    string
}

func servicesStatusHandler(d statusDeps) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
		defer cancel()

		services := map[string]any{
			"mysql":        mysqlStatus(ctx, d.store),
			"vector_store": vectorStatus(ctx, d),
			"llm":          llmStatus(ctx, d.llm),
			"last_good":    cacheStatus(ctx, d.cache),
			"data_origin":  map[string]any{"enabled": d.dataOrigin != "", "url": d.dataOrigin},
		}
		if d.esClient != nil {
			services["elasticsearch"] = esStatus(ctx, d.esClient)
		}
		writeJSON(w, nethttp.StatusOK, map[string]any{
			"generated_at": time.Now().UTC(),
			"services":     services,
		})
	}
}

// healthHandler reports whether the assistant can answer questions.
func healthHandler(d statusDeps) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		llmOK := d.llm != nil && d.llm.Available(ctx)
		vectorsOK := false
		if d.vectors != nil {
			_, err := d.vectors.Count(ctx)
			vectorsOK = err == nil
		}

		status := "healthy"
		if !llmOK || !vectorsOK {
			status = "degraded"
		}
		writeJSON(w, nethttp.StatusOK, map[string]any{
			"status":                 status,
			"llm_available":          llmOK,
			"vector_store_available": vectorsOK,
			"embedding_model":        d.embedModel,
			"time":                   time.Now().UTC(),
		})
	}
}

func readyHandler(w nethttp.ResponseWriter, _ *nethttp.Request) {
	writeJSON(w, nethttp.StatusOK, map[string]any{
		"status": "ready",
	})
}

func mysqlStatus(ctx context.Context, store *mysqlstore.Store) map[string]any {
	if store == nil {
		return map[string]any{"enabled": false, "ok": false, "error": "database integration disabled"}
	}

	start := time.Now()
	stats, err := store.ServiceStats(ctx)
	recordDBQuery("audit", "ServiceStats", time.Since(start).Seconds(), err)
	if err != nil {
		return map[string]any{"enabled": true, "ok": false, "error": err.Error()}
	}
	return map[string]any{"enabled": true, "ok": true, "stats": stats}
}

func esStatus(ctx context.Context, esClient *esstore.Client) map[string]any {
	if esClient == nil || !esClient.Enabled() {
		return map[string]any{"enabled": false, "ok": false, "error": "elasticsearch integration disabled"}
	}

	start := time.Now()
	stats, err := esClient.ServiceStats(ctx)
	recordExternalProbe("elasticsearch", "ServiceStats", time.Since(start).Seconds(), err)
	if err != nil {
		return map[string]any{"enabled": true, "ok": false, "error": err.Error()}
	}
	return map[string]any{"enabled": true, "ok": true, "stats": stats}
}

func vectorStatus(ctx context.Context, d statusDeps) map[string]any {
	if d.vectors == nil {
		return map[string]any{"enabled": false, "ok": false, "error": "vector store disabled"}
	}

	start := time.Now()
	n, err := d.vectors.Count(ctx)
	recordExternalProbe("vector_store", "Count", time.Since(start).Seconds(), err)
	if err != nil {
		return map[string]any{"enabled": true, "ok": false, "backend": d.vectorBackend, "error": err.Error()}
	}
	return map[string]any{"enabled": true, "ok": true, "backend": d.vectorBackend, "documents": n}
}

func llmStatus(ctx context.Context, llm availability) map[string]any {
	if llm == nil {
		return map[string]any{"enabled": false, "ok": false, "error": "llm disabled"}
	}

	start := time.Now()
	ok := llm.Available(ctx)
	recordExternalProbe("llm", "Available", time.Since(start).Seconds(), nil)
	return map[string]any{"enabled": true, "ok": ok, "model": llm.Model()}
}

func cacheStatus(ctx context.Context, cache pinger) map[string]any {
	if cache == nil {
		return map[string]any{"enabled": false, "ok": true, "mode": "memory"}
	}

	start := time.Now()
	err := cache.Ping(ctx)
	recordExternalProbe("redis", "Ping", time.Since(start).Seconds(), err)
	if err != nil {
		return map[string]any{"enabled": true, "ok": false, "mode": "redis", "error": err.Error()}
	}
	return map[string]any{"enabled": true, "ok": true, "mode": "redis"}
}
