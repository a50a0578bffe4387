package main

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jpcarranza/clinicagenda/libs/config"
	"github.com/jpcarranza/clinicagenda/libs/db"
	"github.com/jpcarranza/clinicagenda/libs/httpx"
	"github.com/jpcarranza/clinicagenda/libs/kafkax"
	otelx "github.com/jpcarranza/clinicagenda/libs/otel"
	"github.com/jpcarranza/clinicagenda/libs/runtime"
	"github.com/jpcarranza/clinicagenda/services/clinic-api/internal/analytics"
	"github.com/jpcarranza/clinicagenda/services/clinic-api/internal/handlers"
	"github.com/jpcarranza/clinicagenda/services/clinic-api/internal/notify"
	"github.com/jpcarranza/clinicagenda/services/clinic-api/internal/outbox"
	"github.com/jpcarranza/clinicagenda/services/clinic-api/internal/scheduling"
	"github.com/jpcarranza/clinicagenda/services/clinic-api/internal/storage"
	"github.com/jpcarranza/clinicagenda/services/clinic-api/internal/webhook"
)

func main() {
	service := config.String("SERVICE_NAME", "clinic-api")
	port, err := config.Port("PORT", "8080")
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

	clinicTZ, err := config.Location("CLINIC_TIMEZONE", "America/Lima")
	if err != nil {
		panic(err)
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	jwtSecret, err := config.RequiredString("JWT_SECRET")
	if err != nil {
		panic(err)
	}

	appointments := storage.NewAppointmentRepository(pool)
	catalog := storage.NewCatalogRepository(pool)
	admins := storage.NewAdminRepository(pool)
	outboxRepo := outbox.NewRepository(pool)

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	mailer := notify.NewOutboxMailer(outboxRepo, logger)
	hooks := webhook.NewDispatcher(config.String("WEBHOOK_URL", ""), nil, logger)

	slots := scheduling.NewCalculator(catalog, catalog, appointments, clinicTZ)
	engine := scheduling.NewEngine(catalog, appointments, slots, hooks, clinicTZ, logger)
	lifecycle := scheduling.NewManager(appointments, catalog, slots, mailer, hooks, clinicTZ, logger)

	tokenTTL := time.Duration(config.Int("JWT_TTL_MINUTES", 480)) * time.Minute

	mux := runtime.NewBaseMux(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)
	handlers.Routes{
		Public:      handlers.NewPublicHandler(slots, engine, lifecycle, catalog, appointments, logger),
		Auth:        handlers.NewAuthHandler(admins, jwtSecret, tokenTTL, logger),
		Appointment: handlers.NewAppointmentHandler(appointments, lifecycle, logger),
		Catalog:     handlers.NewCatalogHandler(catalog, logger),
		Analytics:   handlers.NewAnalyticsHandler(analytics.NewRepository(pool), clinicTZ, logger),
		Guard:       handlers.NewAdminGuard(jwtSecret, admins, logger),
	}.Register(mux)

	rateLimit := config.Int("RATE_LIMIT_PER_MINUTE", 120)
	var limiter httpx.Middleware
	if redisAddr := config.String("REDIS_ADDR", ""); redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: redisAddr, Password: config.String("REDIS_PASSWORD", "")})
		defer rdb.Close()
		limiter = httpx.NewRedisRateLimiter(rdb, rateLimit, time.Minute, service).Middleware(logger, true)
	} else {
		limiter = httpx.NewRateLimiter(rateLimit, time.Minute).Middleware()
	}

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithCORS(config.String("CORS_ALLOWED_ORIGINS", "*")),
		httpx.WithBodyLimit(1<<20),
		httpx.WithTimeout(time.Duration(config.Int("REQUEST_TIMEOUT_SECONDS", 30))*time.Second),
		limiter,
		httpx.WithAccessLog(logger),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "clinic-api")

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
