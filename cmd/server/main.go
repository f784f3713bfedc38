package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/graphql-go/handler"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/yourorg/taskboard/internal/environment"
	"github.com/yourorg/taskboard/internal/featureflags"
	gqlschema "github.com/yourorg/taskboard/internal/graphql"
	taskhandler "github.com/yourorg/taskboard/internal/handler"
	"github.com/yourorg/taskboard/internal/infrastructure/logger"
	"github.com/yourorg/taskboard/internal/infrastructure/redis"
	"github.com/yourorg/taskboard/internal/observability/metrics"
	"github.com/yourorg/taskboard/internal/observability/tracing"
	"github.com/yourorg/taskboard/internal/repository"
	"github.com/yourorg/taskboard/internal/security/audit"
	"github.com/yourorg/taskboard/internal/security/auth"
	"github.com/yourorg/taskboard/internal/security/middleware"
	"github.com/yourorg/taskboard/internal/security/ratelimit"
	"github.com/yourorg/taskboard/internal/service"
	"github.com/yourorg/taskboard/internal/worker"
	"github.com/yourorg/taskboard/pkg/cache"
	"github.com/yourorg/taskboard/pkg/config"
	"github.com/yourorg/taskboard/pkg/database"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting taskboard server", slog.String("environment", cfg.Environment))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, log, "taskboard", cfg.Environment)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer shutdownTracing(context.Background())

	pool, err := database.NewConnectionPool(ctx, cfg.DatabaseURL, log)
	if err != nil {
		log.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// Redis backs the task-counts cache; the service degrades gracefully
	// without it, so a missing Redis is a warning rather than a fatal.
	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Warn("redis unavailable, task counts cache disabled", slog.String("error", err.Error()))
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	userRepo := repository.NewPostgresUserRepository(pool.GetDB(), log)
	taskRepo := repository.NewPostgresTaskRepository(pool.GetDB(), log)

	tokenManager := auth.NewTokenManager(cfg.JWTSecret, "taskboard", cfg.TokenTTL)
	userService := service.NewUserService(userRepo, tokenManager, log)

	countsCache := service.NewCountsCache(redisClient, cfg.CountsCacheTTL, log)
	taskEvents := service.NewTaskEvents()
	taskService := service.NewTaskService(taskRepo, countsCache, taskEvents, log)

	auditLogger := audit.NewLogger(log)

	schema, err := gqlschema.NewSchema(&gqlschema.Resolvers{
		Users:  userService,
		Tasks:  taskService,
		Audit:  auditLogger,
		Logger: log,
	})
	if err != nil {
		log.Error("failed to build schema", slog.String("error", err.Error()))
		os.Exit(1)
	}

	graphqlHandler := handler.New(&handler.Config{
		Schema:   &schema,
		Pretty:   true,
		GraphiQL: featureflags.Enabled("graphiql") || !environment.IsProduction(),
	})

	healthHandler := taskhandler.NewHealthHandler(pool, redisClient, log)
	feedHandler := taskhandler.NewTaskFeedHandler(tokenManager, userService, taskEvents, log, cfg.CORSAllowedOrigins)

	mux := http.NewServeMux()
	mux.Handle("/graphql", graphqlHandler)
	mux.HandleFunc("/health", healthHandler.Health)
	mux.HandleFunc("/ready", healthHandler.Ready)
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("GET /ws/tasks", feedHandler)

	// CORS honoring configured origins
	handlerWithCORS := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if originAllowed(cfg.CORSAllowedOrigins, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		} else if len(cfg.CORSAllowedOrigins) > 0 {
			w.Header().Set("Access-Control-Allow-Origin", cfg.CORSAllowedOrigins[0])
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		mux.ServeHTTP(w, r)
	})

	identityCache := cache.New()
	rateLimiter := ratelimit.NewLimiter(cfg.RateLimitPerMinute, time.Minute)
	defer rateLimiter.Stop()

	// Chain: request id -> identity -> rate limit -> metrics -> CORS -> mux
	var root http.Handler = handlerWithCORS
	root = metrics.HTTPMetricsMiddleware(root)
	root = middleware.RateLimitMiddleware(rateLimiter, log)(root)
	root = middleware.IdentityMiddleware(tokenManager, userService, identityCache, cfg.IdentityCacheTTL, log)(root)
	root = middleware.RequestIDMiddleware(root)
	root = otelhttp.NewHandler(root, "taskboard")

	if featureflags.Enabled("retention") {
		retention := time.Duration(cfg.ArchivedRetentionDays) * 24 * time.Hour
		retentionWorker := worker.NewRetentionWorker(taskRepo, log, cfg.RetentionInterval, retention)
		go retentionWorker.Start(ctx)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           root,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server ready",
			slog.Int("port", cfg.ServerPort),
			slog.String("graphql", "/graphql"),
			slog.String("health", "/health"),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", slog.String("error", err.Error()))
	}
}

func originAllowed(allowed []string, origin string) bool {
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		if a == origin {
			return true
		}
	}
	return false
}
