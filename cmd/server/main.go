package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/cobaltwave/deepresearch/internal/activities"
	"github.com/cobaltwave/deepresearch/internal/audit"
	"github.com/cobaltwave/deepresearch/internal/config"
	"github.com/cobaltwave/deepresearch/internal/httpapi"
	"github.com/cobaltwave/deepresearch/internal/policy"
	"github.com/cobaltwave/deepresearch/internal/streaming"
	rtemporal "github.com/cobaltwave/deepresearch/internal/temporal"
	"github.com/cobaltwave/deepresearch/internal/tracing"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	if err := tracing.Initialize(tracing.Config{
		Enabled:     cfg.Observability.Tracing.Enabled,
		SampleRatio: cfg.Observability.Tracing.SampleRatio,
	}, logger); err != nil {
		logger.Fatal("failed to initialize tracing", zap.Error(err))
	}

	activities.SetStopwords(cfg.Stopwords)

	configDir := filepath.Dir(config.Path())
	policyOverridePath := filepath.Join(configDir, "url_filter.rego")

	urlFilter, err := policy.NewURLFilter(context.Background(), policyOverridePath, cfg.URLBlocklist, logger)
	if err != nil {
		logger.Fatal("failed to compile URL filter policy", zap.Error(err))
	}

	cfgManager, err := config.NewConfigManager(configDir, logger)
	if err != nil {
		logger.Fatal("failed to create config manager", zap.Error(err))
	}
	cfgManager.RegisterHandler("research.yaml", func(evt config.ChangeEvent) error {
		if raw, ok := evt.Config["url_blocklist"]; ok {
			urlFilter.SetBlocklist(toStringSlice(raw))
		}
		if raw, ok := evt.Config["stopwords"]; ok {
			activities.SetStopwords(toStringSlice(raw))
		}
		return nil
	})
	cfgManager.RegisterPolicyHandler(func() error {
		return urlFilter.Reload(context.Background())
	})
	if err := cfgManager.Start(context.Background()); err != nil {
		logger.Fatal("failed to start config manager", zap.Error(err))
	}
	defer cfgManager.Stop()

	streamManager := streaming.NewManager(0)

	var durable *streaming.RedisDurability
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			logger.Fatal("failed to parse REDIS_URL", zap.Error(err))
		}
		redisClient := redis.NewClient(opts)
		if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
			logger.Warn("redis unavailable, continuing without durable replay", zap.Error(err))
		} else {
			durable = streaming.NewRedisDurability(redisClient, 24*time.Hour, logger)
		}
	}

	var auditStore *audit.Store
	if cfg.Audit.Enabled {
		auditStore, err = audit.Open(cfg.Audit.DSN)
		if err != nil {
			logger.Fatal("failed to open audit store", zap.Error(err))
		}
		defer auditStore.Close()
	}

	search := activities.NewFirecrawlClient(35 * time.Second)
	llm := activities.NewHTTPLLMClient()
	acts := activities.NewActivities(search, search, search, llm, urlFilter, streamManager, logger)

	w, temporalClient, err := rtemporal.NewWorker(rtemporal.WorkerConfig{
		HostPort:  getEnvOrDefault("TEMPORAL_HOST_PORT", "localhost:7233"),
		Namespace: getEnvOrDefault("TEMPORAL_NAMESPACE", "default"),
		Logger:    logger,
	}, acts)
	if err != nil {
		logger.Fatal("failed to create temporal worker", zap.Error(err))
	}
	defer temporalClient.Close()

	if err := w.Start(); err != nil {
		logger.Fatal("failed to start temporal worker", zap.Error(err))
	}
	defer w.Stop()

	handler := &httpapi.Handler{
		Temporal: temporalClient,
		Stream:   streamManager,
		Durable:  durable,
		Config:   cfg,
		Audit:    auditStore,
		Logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chat/completions", handler.ServeHTTP)
	mux.HandleFunc("GET /v1/stream/ws", handler.ServeWebSocket)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	port := getEnvOrDefaultInt("PORT", 8080)
	server := &http.Server{
		Addr:         ":" + strconv.Itoa(port),
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // no write timeout: SSE/WebSocket streams stay open
		IdleTimeout:  300 * time.Second,
	}

	go func() {
		logger.Info("deepresearch server starting", zap.Int("port", port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("deepresearch server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
	logger.Info("deepresearch server stopped")
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvOrDefaultInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if iv, err := strconv.Atoi(v); err == nil {
			return iv
		}
	}
	return defaultValue
}

// toStringSlice converts a raw YAML-decoded list (config.ChangeEvent.Config
// values come through as map[string]interface{}, untyped by mapstructure)
// into a []string, dropping any non-string entries.
func toStringSlice(raw interface{}) []string {
	list, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
