package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"go-audit-insights/internal/dashboard"
	"go-audit-insights/internal/events"
	"go-audit-insights/internal/rag"
	"go-audit-insights/internal/reveal"
)

const (
	maxChatBodyBytes  = 64 << 10
	chatDisabledError = "chat assistant disabled"
)

// answerer is the question-answering backend of the chat page.
type answerer interface {
	Answer(ctx context.Context, req rag.Request) (rag.Answer, error)
	Retrieve(ctx context.Context, query string, k int, filter map[string]any) ([]rag.Hit, error)
}

type chatResponse struct {
	rag.Answer
	Message dashboard.ChatMessage `json:"message"`
}

type chatService struct {
	pipeline       answerer
	emitter        events.Emitter
	logger         *zap.Logger
	revealInterval time.Duration
}

// ask answers one question and records its chat event. Failures become an
// assistant message flagged as an error.
func (c *chatService) ask(ctx context.Context, req rag.Request) (chatResponse, error) {
	if strings.TrimSpace(req.TenantID) == "" {
		req.TenantID = "default"
	}
	start := time.Now()
	ans, err := c.pipeline.Answer(ctx, req)
	if err != nil {
		return chatResponse{}, err
	}
	latency := time.Since(start)
	failed := ans.Error != ""

	result := "ok"
	if failed {
		result = "error"
	}
	recordRAGQuery(result, latency.Seconds())

	if c.emitter != nil {
		ev := events.NewChatEvent(req.TenantID, len([]rune(ans.Query)), ans.RetrievalCount, latency, failed)
		if err := c.emitter.Emit(ctx, ev); err != nil {
			c.logger.Warn("chat event not recorded", zap.Error(err))
		}
	}

	return chatResponse{
		Answer: ans,
		Message: dashboard.ChatMessage{
			ID:        uuid.NewString(),
			Text:      ans.Answer,
			Author:    dashboard.AuthorAssistant,
			Timestamp: time.Now().UTC(),
			Error:     failed,
		},
	}, nil
}

func errorMessage(text string) dashboard.ChatMessage {
	return dashboard.ChatMessage{
		ID:        uuid.NewString(),
		Text:      text,
		Author:    dashboard.AuthorAssistant,
		Timestamp: time.Now().UTC(),
		Error:     true,
	}
}

func chatHandler(c *chatService) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if c.pipeline == nil {
			writeJSON(w, nethttp.StatusServiceUnavailable, map[string]any{
				"error":   chatDisabledError,
				"message": errorMessage("The assistant is not available right now: " + chatDisabledError),
			})
			return
		}

		var req rag.Request
		if err := json.NewDecoder(io.LimitReader(r.Body, maxChatBodyBytes)).Decode(&req); err != nil {
			writeJSON(w, nethttp.StatusBadRequest, map[string]any{"error": "invalid JSON body"})
			return
		}
		resp, err := c.ask(r.Context(), req)
		if err != nil {
			writeChatError(w, err)
			return
		}
		writeJSON(w, nethttp.StatusOK, resp)
	}
}

// chatStreamHandler answers ?query= as server-sent events: a loading message, one
// frame per revealed character, then the final message. A disabled assistant is
// reported as a single done event carrying the error message.
func chatStreamHandler(c *chatService) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		flusher, ok := w.(nethttp.Flusher)
		if !ok {
			writeJSON(w, nethttp.StatusInternalServerError, map[string]any{"error": "streaming unsupported"})
			return
		}

		q := r.URL.Query()
		req := rag.Request{Query: q.Get("query"), TenantID: q.Get("tenant_id")}
		if k, err := strconv.Atoi(q.Get("k")); err == nil && k > 0 {
			req.K = k
		}
		if c.pipeline != nil && strings.TrimSpace(req.Query) == "" {
			writeChatError(w, rag.ErrEmptyQuery)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(nethttp.StatusOK)

		if c.pipeline == nil {
			writeEvent(w, flusher, "done", chatResponse{
				Answer:  rag.Answer{Query: req.Query, Sources: []string{}, Hits: []rag.Hit{}, Error: chatDisabledError},
				Message: errorMessage("The assistant is not available right now: " + chatDisabledError),
			})
			return
		}

		ctx := r.Context()
		pending := dashboard.ChatMessage{
			ID:        uuid.NewString(),
			Author:    dashboard.AuthorAssistant,
			Timestamp: time.Now().UTC(),
			Loading:   true,
		}
		writeEvent(w, flusher, "loading", pending)

		resp, err := c.ask(ctx, req)
		if err != nil {
			resp = chatResponse{Message: errorMessage(err.Error())}
		}
		resp.Message.ID = pending.ID

		// The reveal can outlast the server's write timeout.
		_ = nethttp.NewResponseController(w).SetWriteDeadline(time.Now().Add(reveal.Duration(resp.Message.Text, c.revealInterval) + 30*time.Second))

		for frame := range reveal.Reveal(ctx, resp.Message.Text, c.revealInterval) {
			writeEvent(w, flusher, "frame", map[string]string{"id": resp.Message.ID, "text": frame})
		}
		if ctx.Err() != nil {
			return
		}
		writeEvent(w, flusher, "done", resp)
	}
}

func searchHandler(pipeline answerer, defaultK int) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if pipeline == nil {
			writeJSON(w, nethttp.StatusServiceUnavailable, map[string]any{"error": chatDisabledError})
			return
		}
		query := r.URL.Query().Get("query")
		k := defaultK
		if raw := r.URL.Query().Get("k"); raw != "" {
			if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
				k = parsed
			}
		}

		start := time.Now()
		hits, err := pipeline.Retrieve(r.Context(), query, k, nil)
		recordExternalProbe("vector_store", "Search", time.Since(start).Seconds(), err)
		if err != nil {
			writeChatError(w, err)
			return
		}
		writeJSON(w, nethttp.StatusOK, map[string]any{
			"query":   query,
			"results": hits,
			"count":   len(hits),
		})
	}
}

func writeChatError(w nethttp.ResponseWriter, err error) {
	if errors.Is(err, rag.ErrEmptyQuery) {
		writeJSON(w, nethttp.StatusBadRequest, map[string]any{"error": "Query cannot be empty"})
		return
	}
	writeJSON(w, nethttp.StatusInternalServerError, map[string]any{"error": "Failed to process query: " + err.Error()})
}

func writeEvent(w io.Writer, flusher nethttp.Flusher, event string, payload any) {
	blob, err := json.Marshal(payload)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, blob)
	flusher.Flush()
}
