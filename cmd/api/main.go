package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"github.com/ndiayelabs/boutique-api/internal/auth"
	"github.com/ndiayelabs/boutique-api/internal/config"
	"github.com/ndiayelabs/boutique-api/internal/database"
	idempostgres "github.com/ndiayelabs/boutique-api/internal/idempotency/postgres"
	idemredis "github.com/ndiayelabs/boutique-api/internal/idempotency/redis"
	"github.com/ndiayelabs/boutique-api/internal/invoices"
	"github.com/ndiayelabs/boutique-api/internal/notify"
	"github.com/ndiayelabs/boutique-api/internal/orders/adapters"
	httpadapter "github.com/ndiayelabs/boutique-api/internal/orders/adapters/http"
	orderspostgres "github.com/ndiayelabs/boutique-api/internal/orders/adapters/postgres"
	ordersapp "github.com/ndiayelabs/boutique-api/internal/orders/app"
	ordersmetrics "github.com/ndiayelabs/boutique-api/internal/orders/metrics"
	"github.com/ndiayelabs/boutique-api/internal/orders/ports"
	"github.com/ndiayelabs/boutique-api/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := telemetry.NewLogger(parseLogLevel(cfg.Telemetry.LogLevel))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.OTelEndpoint != "" {
		tel, err := telemetry.Initialize(ctx, telemetry.Config{
			ServiceName:    cfg.Service.Name,
			ServiceVersion: cfg.Service.Version,
			Environment:    cfg.Service.Environment,
			OTLPEndpoint:   cfg.Telemetry.OTelEndpoint,
			EnableTracing:  cfg.Telemetry.EnableTracing,
			EnableMetrics:  cfg.Telemetry.EnableMetrics,
			SampleRate:     cfg.Telemetry.SampleRate,
		})
		if err != nil {
			logger.Error("failed to initialize telemetry", "error", err)
			os.Exit(1)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tel.Shutdown(shutdownCtx); err != nil {
				logger.Error("telemetry shutdown failed", "error", err)
			}
		}()
	}

	pool, err := database.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		logger.Info("running database migrations", "path", cfg.Database.MigrationsPath)
		if err := database.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsPath); err != nil {
			logger.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		logger.Info("migrations completed successfully")
	}

	meter := otel.Meter(cfg.Service.Name)

	dbMetrics, err := database.NewMetrics(meter)
	if err != nil {
		logger.Error("failed to create database metrics", "error", err)
		os.Exit(1)
	}
	httpMetrics, err := httpadapter.NewMetrics(meter)
	if err != nil {
		logger.Error("failed to create http metrics", "error", err)
		os.Exit(1)
	}
	orderMetrics, err := ordersmetrics.NewMetrics(meter)
	if err != nil {
		logger.Error("failed to create order metrics", "error", err)
		os.Exit(1)
	}

	repo := orderspostgres.NewRepository(pool)
	observedRepo := adapters.NewObservableRepository(repo, dbMetrics)

	invoiceStore, err := buildInvoiceStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build invoice store", "error", err)
		os.Exit(1)
	}

	var notifier ports.Notifier
	if len(cfg.Notify.KafkaBrokers) > 0 {
		notifyMetrics, err := notify.NewMetrics(meter)
		if err != nil {
			logger.Error("failed to create notification metrics", "error", err)
			os.Exit(1)
		}
		kafkaNotifier := notify.NewKafkaNotifier(cfg.Notify.KafkaBrokers, cfg.Notify.KafkaTopic, notifyMetrics)
		defer kafkaNotifier.Close()
		notifier = kafkaNotifier
		logger.Info("using kafka notifier", "topic", cfg.Notify.KafkaTopic)
	} else {
		notifier = notify.NewLogNotifier()
		logger.Info("kafka brokers not configured, notifications are log-only")
	}

	var idemStore ports.IdempotencyStore
	if cfg.Redis.Addr != "" {
		idemStore = idemredis.NewStore(redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr}))
		logger.Info("using redis idempotency store", "addr", cfg.Redis.Addr)
	} else {
		idemStore = idempostgres.NewStore(pool)
	}

	service := ordersapp.NewService(observedRepo, repo, invoiceStore, notifier, idemStore, logger, orderMetrics)
	ordersHandler := httpadapter.NewHandler(service)

	authenticator := auth.NewAuthenticator([]byte(cfg.Auth.JWTSecret))

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID, chimiddleware.RealIP)
	r.Use(withLogging)
	r.Use(chimiddleware.Recoverer)
	r.Use(httpadapter.WithMetrics(httpMetrics))
	r.Use(authenticator.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		if err := database.CheckHealth(req.Context(), pool); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready", "error": err.Error()})
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	if cfg.Invoices.Bucket == "" {
		// Locally stored invoices are served straight from disk.
		fs := http.StripPrefix("/factures/", http.FileServer(http.Dir(cfg.Invoices.LocalDir)))
		r.Get("/factures/*", fs.ServeHTTP)
	}

	ordersHandler.Register(r)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "port", cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownGrace)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	} else {
		logger.Info("http server stopped")
	}
}

func buildInvoiceStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ports.InvoiceStore, error) {
	if cfg.Invoices.Bucket != "" {
		client, err := gcs.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("create storage client: %w", err)
		}
		logger.Info("using cloud storage invoice store", "bucket", cfg.Invoices.Bucket)
		return invoices.NewGCSStore(client, cfg.Invoices.Bucket), nil
	}

	logger.Info("invoice bucket not configured, storing invoices locally", "dir", cfg.Invoices.LocalDir)
	return invoices.NewLocalStore(cfg.Invoices.LocalDir, cfg.Invoices.LocalBaseURL)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		slog.Info("http request", "method", r.Method, "path", r.URL.Path, "status", rw.status, "duration", time.Since(start))
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
