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

	// Drivers
	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"

	// Instrumentation
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"

	// Interne
	"github.com/ginaqueenval/alina-mvp/config"
	"github.com/ginaqueenval/alina-mvp/internal/adapters/primary/events"
	"github.com/ginaqueenval/alina-mvp/internal/adapters/primary/httpapi"
	"github.com/ginaqueenval/alina-mvp/internal/adapters/secondary/eventbroker"
	"github.com/ginaqueenval/alina-mvp/internal/adapters/secondary/repository"
	"github.com/ginaqueenval/alina-mvp/internal/adapters/secondary/security"
	"github.com/ginaqueenval/alina-mvp/internal/core/services"
)

func main() {
	// 1. Config & Logger (.env optionnel en local)
	_ = godotenv.Load()
	cfg := config.Load()
	initLogger(cfg)
	slog.Info("🚀 Starting Alina backend", "env", cfg.Env, "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Télémétrie (Tracing)
	tp, err := initTracer(ctx, cfg)
	if err != nil {
		slog.Error("Failed to init tracer", "error", err)
	} else {
		defer func() { _ = tp.Shutdown(context.Background()) }()
	}

	// 3. Infrastructure : Postgres (Source of Truth)
	pgCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		slog.Error("Invalid DATABASE_URL", "error", err)
		os.Exit(1)
	}
	pgCfg.ConnConfig.Tracer = otelpgx.NewTracer()

	pool, err := pgxpool.NewWithConfig(ctx, pgCfg)
	if err != nil {
		slog.Error("Unable to create Postgres pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		slog.Error("Unable to connect to Postgres", "error", err)
		os.Exit(1)
	}
	slog.Info("✅ Connected to Postgres")

	postRepo := repository.NewPostgresPostRepo(pool)
	userRepo := repository.NewPostgresUserRepo(pool)

	// 4. Infrastructure : Redis (cache des posts récents)
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisotel.InstrumentTracing(rdb); err != nil {
		panic(err)
	}
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Error("Unable to connect to Redis", "error", err)
		os.Exit(1)
	}
	slog.Info("✅ Connected to Redis")

	recentCache := repository.NewRedisRecentCache(rdb)

	// 5. Infrastructure : NATS (canal push des inserts)
	nc, err := nats.Connect(cfg.NatsURL)
	if err != nil {
		slog.Error("Unable to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer nc.Close()
	slog.Info("✅ Connected to NATS")

	// 6. Sécurité (hashing + tokens de session)
	hasher := security.NewArgon2Hasher(nil)
	tokens, err := security.NewJWTProvider(cfg.JWTSecret)
	if err != nil {
		slog.Error("Unable to init JWT provider", "error", err)
		os.Exit(1)
	}

	// 7. Coeur
	accountService := services.NewAccountService(userRepo, hasher, tokens)
	postService := services.NewPostService(postRepo, eventbroker.NewNatsPublisher(nc))
	feedManager := services.NewFeedManager(postRepo, recentCache)

	// 8. Consumer NATS (Driving Adapter - Async). Un échec d'abonnement
	// dégrade en "pas de live updates", il ne fait pas tomber le serveur.
	handler := events.NewEventHandler(feedManager)
	sub, err := nc.Subscribe(eventbroker.SubjectPostCreated, handler.HandlePostCreated)
	if err != nil {
		slog.Error("⚠️ Live updates disabled (subscribe failed)", "error", err)
	} else {
		defer func() { _ = sub.Unsubscribe() }()
		slog.Info("👂 Listening for insert events (NATS)")
	}

	// 9. Surface HTTP : gate → CORS → OTEL → mux
	server := httpapi.NewServer(accountService, postService, feedManager, cfg.SessionCookie, cfg.Env == "prod")
	gate := httpapi.NewGate(cfg.ProtectedPrefixes, cfg.SessionCookie)

	var h http.Handler = server.Routes()
	h = gate.Middleware(h)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", httpapi.ViewHeader},
		AllowCredentials: true,
	})
	h = c.Handler(h)

	h = otelhttp.NewHandler(h, "alina-backend", otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
		return fmt.Sprintf("HTTP %s %s", r.Method, r.URL.Path)
	}))

	// 10. Démarrage Graceful
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: h,
	}

	go func() {
		slog.Info("📡 HTTP listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("🛑 Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("👋 Server exited")
}

// --- Helpers ---

func initLogger(cfg config.Config) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.Env == "local" {
		opts.Level = slog.LevelDebug
	}
	var handler slog.Handler
	if cfg.Env == "local" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func initTracer(ctx context.Context, cfg config.Config) (*sdktrace.TracerProvider, error) {
	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.OtelEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res, _ := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String("alina-backend"),
			semconv.DeploymentEnvironmentKey.String(cfg.Env),
		),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return tp, nil
}
