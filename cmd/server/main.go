package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/yourorg/projecthub/internal/handler"
	"github.com/yourorg/projecthub/internal/infrastructure/logger"
	"github.com/yourorg/projecthub/internal/infrastructure/redis"
	"github.com/yourorg/projecthub/internal/observability/metrics"
	"github.com/yourorg/projecthub/internal/observability/tracing"
	"github.com/yourorg/projecthub/internal/reliability/retry"
	"github.com/yourorg/projecthub/internal/repository"
	"github.com/yourorg/projecthub/internal/service"
	"github.com/yourorg/projecthub/internal/tenant"
	"github.com/yourorg/projecthub/pkg/config"
	"github.com/yourorg/projecthub/pkg/database"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting ProjectHub server", slog.String("environment", cfg.Environment))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Initialize tracing
	shutdownTracing, err := tracing.Init(ctx, log, "projecthub", cfg.Environment)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Connect to Postgres (with startup retry) and run migrations
	retryCfg := retry.DefaultConfig()
	pool, err := retry.Do(ctx, retryCfg, log, "postgres connect", func(ctx context.Context) (*database.ConnectionPool, error) {
		return database.NewConnectionPool(ctx, database.FromAppConfig(
			cfg.DatabaseHost, cfg.DatabasePort, cfg.DatabaseUser,
			cfg.DatabasePassword, cfg.DatabaseName, cfg.DatabaseSSLMode,
		), log)
	})
	if err != nil {
		log.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 5. Connect to Redis when configured; the stats cache degrades
	// gracefully without it
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = retry.Do(ctx, retryCfg, log, "redis connect", func(ctx context.Context) (*redis.Client, error) {
			return redis.NewClient(cfg.RedisURL)
		})
		if err != nil {
			log.Error("failed to connect to redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer redisClient.Close()
	} else {
		log.Info("stats cache disabled: REDIS_URL not set")
	}

	// 6. Initialize repositories
	db := pool.GetDB()
	orgRepo := repository.NewPostgresOrganizationRepository(db, log)
	projectRepo := repository.NewPostgresProjectRepository(db, log)
	taskRepo := repository.NewPostgresTaskRepository(db, log)
	commentRepo := repository.NewPostgresCommentRepository(db, log)

	// 7. Initialize services
	queryService := service.NewQueryService(orgRepo, projectRepo, taskRepo, commentRepo, log)
	statsService := service.NewStatsService(projectRepo, taskRepo, redisClient, cfg.StatsCacheTTL, log)
	mutationService := service.NewMutationService(orgRepo, projectRepo, taskRepo, commentRepo, statsService, log)

	// 8. Initialize handlers and tenant resolver
	queryHandler := handler.NewQueryHandler(queryService, statsService, mutationService, log)
	healthHandler := handler.NewHealthHandler(pool, redisClient, log)
	resolver := tenant.NewResolver(orgRepo, cfg.TenantCacheTTL, log)

	// 9. Setup HTTP routes
	mux := http.NewServeMux()
	mux.Handle("POST /api/query", queryHandler)
	mux.HandleFunc("GET /healthz", healthHandler.Health)
	mux.HandleFunc("GET /readyz", healthHandler.Ready)
	mux.Handle("/metrics", promhttp.Handler())

	// CORS middleware honoring configured origins
	handlerWithCORS := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if originAllowed(cfg.CORSAllowedOrigins, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		} else if len(cfg.CORSAllowedOrigins) > 0 {
			w.Header().Set("Access-Control-Allow-Origin", cfg.CORSAllowedOrigins[0])
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, "+tenant.SlugHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		mux.ServeHTTP(w, r)
	})

	// Chain middleware: request ID -> metrics -> tenant resolution -> CORS -> mux
	rootHandler := withRequestID(
		metrics.HTTPMetricsMiddleware(
			resolver.Middleware(handlerWithCORS),
		),
		log,
	)

	// 10. Start HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      otelhttp.NewHandler(rootHandler, "projecthub"),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting", slog.Int("port", cfg.ServerPort))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.String("error", err.Error()))
		}
	}()

	<-sigChan
	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown error", slog.String("error", err.Error()))
	}
	log.Info("server stopped")
}

type requestIDKey struct{}

// withRequestID attaches a request ID to the context and response headers for traceability
func withRequestID(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := generateRequestID()
		w.Header().Set("X-Request-ID", reqID)

		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		start := time.Now()

		next.ServeHTTP(w, r.WithContext(ctx))

		log.Info("request completed",
			slog.String("request_id", reqID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("duration_ms", time.Since(start)),
		)
	})
}

func originAllowed(allowed []string, origin string) bool {
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}

func generateRequestID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err == nil {
		return hex.EncodeToString(buf)
	}
	return fmt.Sprintf("req-%d", time.Now().UnixNano())
}
