package http

import (
	"context"
	"encoding/json"
	"errors"
	nethttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"go-audit-insights/internal/config"
	mysqlstore "go-audit-insights/internal/connectors/mysql"
	"go-audit-insights/internal/dashboard"
	"go-audit-insights/internal/events"
	"go-audit-insights/internal/providers"
	"go-audit-insights/internal/series"
)

// Server wraps an HTTP server and the integrations its handlers use.
type Server struct {
	httpServer *nethttp.Server
	logger     *zap.Logger
	mysqlStore *mysqlstore.Store
	backends   *providers.Set
	lastGood   *series.RedisStore
	emitter    events.Emitter
}

// routes collects everything the router needs. Nil integrations disable their endpoints.
type routes struct {
	cfg         config.Config
	logger      *zap.Logger
	corsOrigins []string
	store       *mysqlstore.Store
	loader      viewLoader
	data        dataDefaults
	view        viewDefaults
	chat        *chatService
	defaultK    int
	status      statusDeps
}

// NewServer creates a configured HTTP server with v1 endpoints.
func NewServer(cfg config.Config, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{logger: logger}

	if cfg.DBEnabled {
		store, err := mysqlstore.NewStore(cfg)
		if err != nil {
			return nil, err
		}
		s.mysqlStore = store
	}

	var lastGood series.Store = series.NewMemoryStore(cfg.LastGoodTTL)
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisStore, err := series.NewRedisStore(ctx, cfg.RedisURL, cfg.LastGoodTTL, logger.Named("last_good"))
		cancel()
		if err != nil {
			s.closeIntegrations()
			return nil, err
		}
		s.lastGood = redisStore
		lastGood = redisStore
	}
	fetcher := series.NewFetcher(cfg.DataOrigin, cfg.DataTimeout,
		series.WithStore(lastGood),
		series.WithLogger(logger.Named("series")),
		series.WithObserver(observeSeries),
	)

	emitters := events.MultiEmitter{events.NewLogEmitter(logger.Named("chat_events"))}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaEmitter, err := events.NewKafkaEmitter(cfg.KafkaBrokers, cfg.KafkaTopic, logger.Named("chat_events"))
		if err != nil {
			s.closeIntegrations()
			return nil, err
		}
		emitters = append(emitters, kafkaEmitter)
	}
	s.emitter = emitters

	chat := &chatService{emitter: s.emitter, logger: logger.Named("chat"), revealInterval: cfg.RevealInterval}
	status := statusDeps{store: s.mysqlStore, dataOrigin: fetcher.Origin()}
	if s.lastGood != nil {
		status.cache = s.lastGood
	}

	// The dashboards work without the assistant, so a backend that cannot be opened
	// only disables chat.
	backends, err := providers.Open(context.Background(), cfg)
	if err != nil {
		logger.Warn("chat assistant disabled", zap.Error(err))
	} else {
		s.backends = backends
		chat.pipeline = backends.Pipeline(cfg, logger.Named("rag"))
		status.esClient = backends.ES
		status.vectors = backends.Vectors
		status.vectorBackend = backends.Backend
		status.llm = backends.LLM
		status.embedModel = backends.Embedder.EmbedModel()
	}

	router := newRouter(routes{
		cfg:         cfg,
		logger:      logger,
		corsOrigins: cfg.CORSOrigins,
		store:       s.mysqlStore,
		loader:      dashboard.NewLoader(fetcher),
		data:        dataDefaults{Limit: cfg.DefaultLimit, Months: cfg.DefaultTrendMonths},
		view: viewDefaults{
			Environment: cfg.DataEnvironment,
			Limit:       cfg.DefaultLimit,
			Months:      cfg.DefaultTrendMonths,
		},
		chat:     chat,
		defaultK: cfg.RAGTopK,
		status:   status,
	})

	s.httpServer = &nethttp.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s, nil
}

func newRouter(d routes) chi.Router {
	if d.logger == nil {
		d.logger = zap.NewNop()
	}
	if d.chat == nil {
		d.chat = &chatService{logger: d.logger}
	}
	origins := d.corsOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLogMiddleware(d.logger))
	r.Use(middleware.Recoverer)
	r.Use(observabilityMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/", func(w nethttp.ResponseWriter, req *nethttp.Request) {
		nethttp.Redirect(w, req, "/"+dashboard.PageCompliance, nethttp.StatusFound)
	})
	r.Get("/favicon.ico", faviconHandler)
	r.Get("/compliance", pageHandler(d.loader, d.view, dashboard.PageCompliance, d.logger))
	r.Get("/risk", pageHandler(d.loader, d.view, dashboard.PageRisk, d.logger))
	r.Get("/chat", chatPageHandler(d.logger))
	r.Method(nethttp.MethodGet, "/metrics", metricsHandler())
	r.Get("/health", healthHandler(d.status))
	r.Get("/ready", readyHandler)

	r.Route("/api/v1", func(r chi.Router) {
		mountDataRoutes(r, d.store, d.data)
		r.Get("/dashboards/{page}", dashboardViewHandler(d.loader, d.view))
		r.Get("/reports/{page}/download", reportDownloadHandler(d.loader, d.view, d.logger))
		r.Post("/chat", chatHandler(d.chat))
		r.Get("/chat/stream", chatStreamHandler(d.chat))
		r.Get("/search", searchHandler(d.chat.pipeline, d.defaultK))
		r.Get("/status/services", servicesStatusHandler(d.status))
		r.Get("/settings/assistant", assistantSettingsHandler(d.cfg))
	})

	r.NotFound(func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		writeJSON(w, nethttp.StatusNotFound, map[string]any{"error": "endpoint not found"})
	})
	r.MethodNotAllowed(func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		writeJSON(w, nethttp.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
	})
	return r
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() nethttp.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", zap.String("addr", s.httpServer.Addr))
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, nethttp.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the HTTP server and releases integrations.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	s.closeIntegrations()
	return err
}

func (s *Server) closeIntegrations() {
	if s.mysqlStore != nil {
		_ = s.mysqlStore.Close()
	}
	if s.lastGood != nil {
		_ = s.lastGood.Close()
	}
	if s.backends != nil {
		_ = s.backends.Close()
	}
	if s.emitter != nil {
		if err := s.emitter.Close(); err != nil {
			s.logger.Warn("closing chat event emitters", zap.Error(err))
		}
	}
}

func accessLogMiddleware(logger *zap.Logger) func(nethttp.Handler) nethttp.Handler {
	return func(next nethttp.Handler) nethttp.Handler {
		return nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			defer func() {
				logger.Info("http request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Duration("duration", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.String("remote_addr", r.RemoteAddr),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

func writeJSON(w nethttp.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
