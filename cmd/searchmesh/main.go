package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchmesh/internal/config"
	dbRedis "github.com/kailas-cloud/searchmesh/internal/db/redis"
	"github.com/kailas-cloud/searchmesh/internal/domain/tier"
	logpkg "github.com/kailas-cloud/searchmesh/internal/logger"
	"github.com/kailas-cloud/searchmesh/internal/metrics"
	"github.com/kailas-cloud/searchmesh/internal/repository/analytics"
	cacherepo "github.com/kailas-cloud/searchmesh/internal/repository/cache"
	"github.com/kailas-cloud/searchmesh/internal/repository/fulltext"
	targetrepo "github.com/kailas-cloud/searchmesh/internal/repository/target"
	chiTransport "github.com/kailas-cloud/searchmesh/internal/transport/chi"
	openaiEnh "github.com/kailas-cloud/searchmesh/internal/transport/openai"
	healthuc "github.com/kailas-cloud/searchmesh/internal/usecase/health"
	"github.com/kailas-cloud/searchmesh/internal/usecase/ratelimit"
	searchuc "github.com/kailas-cloud/searchmesh/internal/usecase/search"
	"github.com/kailas-cloud/searchmesh/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting searchmesh API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Int("databases", len(cfg.Databases)),
		zap.Strings("cache_addrs", cfg.Cache.Addrs),
	)

	// Cache store (Redis or Valkey, rueidis speaks to both)
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Cache.Addrs,
		Password: cfg.Cache.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create cache store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Cache store not ready", zap.Error(err))
	}
	logger.Info("Connected to cache store")

	// Register search metrics explicitly (no init())
	metrics.RegisterSearchMetrics()

	// Federated database targets
	provider, err := targetrepo.NewProvider(cfg.Databases, cfg.Callers, logger)
	if err != nil {
		logger.Fatal("Failed to open database targets", zap.Error(err))
	}
	defer provider.Close()

	// Fan-out executor over the full-text repository
	executor, err := searchuc.NewExecutor(
		fulltext.New(provider),
		cfg.Search.MaxConcurrentTargets,
		time.Duration(cfg.Search.TargetTimeoutMs)*time.Millisecond,
	)
	if err != nil {
		logger.Fatal("Failed to create fan-out executor", zap.Error(err))
	}
	defer executor.Close()

	// Response cache and analytics sink share the KV store
	respCache := cacherepo.New(
		store,
		time.Duration(cfg.Cache.TTLSec)*time.Second,
		cfg.Cache.KeyPrefix,
		metrics.CacheTotal,
		logger,
	)
	sink := analytics.New(store, cfg.Cache.KeyPrefix, logger)

	// Pass nil interface (not typed nil pointer!) when enhancement is disabled.
	var enhancer searchuc.Enhancer
	if cfg.Enhancer.Enabled && cfg.Enhancer.APIKey != "" {
		enhancer = openaiEnh.NewEnhancer(&openaiEnh.Config{
			APIKey:  cfg.Enhancer.APIKey,
			BaseURL: cfg.Enhancer.BaseURL,
			Model:   cfg.Enhancer.Model,
			Timeout: time.Duration(cfg.Enhancer.TimeoutSec) * time.Second,
			Logger:  logger,
		})
		logger.Info("Query enhancer enabled", zap.String("model", cfg.Enhancer.Model))
	}

	searchSvc := searchuc.NewService(provider, executor, enhancer, respCache, sink).
		WithSuggestionCount(cfg.Search.SuggestionCount)
	healthSvc := healthuc.New(store, provider)
	limiter := ratelimit.New()

	server := chiTransport.NewServer(searchSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(callerIdentities(cfg)))
	r.Use(chiTransport.RateLimitMiddleware(limiter))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// callerIdentities maps configured API keys to caller identities with their
// resolved tiers.
func callerIdentities(cfg config.Config) map[string]chiTransport.Identity {
	out := make(map[string]chiTransport.Identity, len(cfg.Callers))
	for _, c := range cfg.Callers {
		out[c.APIKey] = chiTransport.Identity{
			ID:   c.ID,
			Tier: resolveTier(cfg, c.Tier),
		}
	}
	return out
}

// resolveTier returns the caller's tier, preferring a configured override of
// the built-in quota table.
func resolveTier(cfg config.Config, name string) tier.Tier {
	if tc, ok := cfg.RateLimit.Tiers[name]; ok {
		return tier.New(name, tc.RequestsPerWindow, tc.Burst,
			time.Duration(tc.BlockDurationSec)*time.Second)
	}
	return tier.ByName(name)
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "INTERNAL_ERROR",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
