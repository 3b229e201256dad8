package http

import (
	nethttp "net/http"

	"go-audit-insights/internal/config"
	"go-audit-insights/internal/providers"
)

// assistantSettingsHandler exposes the non-secret question-answering settings.
func assistantSettingsHandler(cfg config.Config) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		model, embedModel := cfg.OllamaModel, cfg.OllamaEmbed
		if cfg.LLMProvider == providers.ProviderGemini {
			model = cfg.GeminiModel
		}
		if cfg.EmbedProvider == providers.ProviderGemini {
			embedModel = cfg.GeminiEmbed
		}
		writeJSON(w, nethttp.StatusOK, map[string]any{
			"data": map[string]any{
				"llm_provider":       cfg.LLMProvider,
				"llm_model":          model,
				"embed_provider":     cfg.EmbedProvider,
				"embed_model":        embedModel,
				"vector_backend":     cfg.VectorBackend,
				"top_k":              cfg.RAGTopK,
				"context_chars":      cfg.RAGContextChars,
				"max_tokens":         cfg.RAGMaxTokens,
				"verify_numbers":     cfg.RAGVerify,
				"reveal_interval_ms": cfg.RevealInterval.Milliseconds(),
				"chat_events_kafka":  len(cfg.KafkaBrokers) > 0,
			},
		})
	}
}
