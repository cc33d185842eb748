package main

import (
	"context"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/medireservas/medireservas/db/migrations"
	"github.com/medireservas/medireservas/internal/booking"
	"github.com/medireservas/medireservas/internal/handlers"
	"github.com/medireservas/medireservas/internal/notify"
	"github.com/medireservas/medireservas/internal/storage"
	"github.com/medireservas/medireservas/libs/auth"
	"github.com/medireservas/medireservas/libs/config"
	"github.com/medireservas/medireservas/libs/db"
	"github.com/medireservas/medireservas/libs/httpx"
	"github.com/medireservas/medireservas/libs/kafkax"
	otelx "github.com/medireservas/medireservas/libs/otel"
	"github.com/medireservas/medireservas/libs/runtime"
)

func main() {
	_ = godotenv.Load()

	service := config.String("SERVICE_NAME", "medireservas")
	port, err := config.Port("PORT", "3001")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	// DATABASE_URL selects the persistent store; without it the server runs
	// on the seeded in-memory demo dataset.
	var (
		store storage.Store
		pool  *db.Pool
	)
	if dbURL := config.String("DATABASE_URL", ""); dbURL != "" {
		pool, err = db.Open(ctx, dbURL)
		if err != nil {
			logger.Error("db connection failed", "err", err)
			panic(err)
		}
		defer pool.Close()
		if config.Bool("DB_AUTO_MIGRATE", true) {
			if _, err := pool.Exec(ctx, migrations.Init); err != nil {
				logger.Error("db migration failed", "err", err)
				panic(err)
			}
		}
		store = storage.NewPostgres(pool)
		logger.Info("using postgres store")
	} else {
		store = storage.NewSeededMemory()
		logger.Info("using in-memory demo store with seed data")
	}

	kafkaBrokers := config.String("KAFKA_BROKERS", "")
	var notifier notify.Dispatcher
	if kafkaBrokers != "" {
		kd := notify.NewKafkaDispatcher(kafkaBrokers, logger)
		defer func() { _ = kd.Close() }()
		notifier = kd
		logger.Info("notifications via kafka", "brokers", kafkaBrokers)
	} else {
		notifier = notify.NewLogDispatcher(logger)
	}

	signer := auth.NewSigner(
		config.String("JWT_SECRET", "medireservas-dev-secret"),
		config.Duration("JWT_TTL", 24*time.Hour),
	)
	bookingSvc := booking.New(store, notifier, logger)

	var rateLimit httpx.Middleware
	if redisAddr := config.String("REDIS_ADDR", ""); redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
		defer func() { _ = rdb.Close() }()
		limiter := httpx.NewRedisRateLimiter(rdb,
			config.Int("RATE_LIMIT", 120), time.Minute, service)
		rateLimit = limiter.Middleware(logger, config.Bool("RATE_LIMIT_FAIL_OPEN", true))
		logger.Info("rate limiting via redis", "addr", redisAddr)
	} else {
		limiter := httpx.NewRateLimiter(config.Int("RATE_LIMIT", 120), time.Minute)
		rateLimit = limiter.Middleware()
	}

	// Only configured dependencies gate readiness; the demo mode has none.
	var checks []runtime.ReadyCheck
	if pool != nil {
		checks = append(checks, runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)})
	}
	if kafkaBrokers != "" {
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(kafkaBrokers)})
	}
	mux := runtime.NewBaseMux(checks...)
	handlers.Register(mux, handlers.Deps{
		Signer:  signer,
		Store:   store,
		Service: bookingSvc,
		Logger:  logger,
	})

	httpHandler := httpx.Chain(mux,
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins:   config.List("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           10 * time.Minute,
		}),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		rateLimit,
		httpx.WithBodyLimit(1<<20),
		httpx.WithTimeout(15*time.Second),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, service)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
