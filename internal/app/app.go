package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/insightmart/insightmart/internal/auth"
	"github.com/insightmart/insightmart/internal/config"
	"github.com/insightmart/insightmart/internal/event"
	handler "github.com/insightmart/insightmart/internal/handler/http"
	"github.com/insightmart/insightmart/internal/repository/postgres"
	redisrepo "github.com/insightmart/insightmart/internal/repository/redis"
	"github.com/insightmart/insightmart/internal/service"
	"github.com/insightmart/insightmart/migrations"
	"github.com/insightmart/insightmart/pkg/database"
	"github.com/insightmart/insightmart/pkg/health"
	"github.com/insightmart/insightmart/pkg/httpclient"
	pkgkafka "github.com/insightmart/insightmart/pkg/kafka"
	"github.com/insightmart/insightmart/pkg/tracing"
)

const (
	serviceName    = "insightmart"
	consumerGroup  = "insightmart-analytics-cache"
	idempotencyTTL = 24 * time.Hour
)

// App wires together all dependencies and runs the InsightMart API.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *redis.Client
	producer       *pkgkafka.Producer
	dlq            *pkgkafka.DLQ
	consumers      []*pkgkafka.Consumer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: handler.Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)

	registry := prometheus.NewRegistry()
	if err := database.RegisterPoolMetrics(registry, pool, serviceName); err != nil {
		pool.Close()
		return nil, fmt.Errorf("register pool metrics: %w", err)
	}

	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	if cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, logger)
	}

	redisClient, err := database.NewRedisClient(ctx, cfg.Redis(), logger)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	// Publisher stays a nil interface when Kafka is off so the event
	// producer turns into a no-op.
	var (
		producer  *pkgkafka.Producer
		publisher event.Publisher
	)
	if cfg.KafkaEnabled {
		producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		if err := pingKafkaWithRetry(ctx, producer, logger); err != nil {
			logger.Warn("kafka producer ping failed after retries, continuing in degraded mode",
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
		}
		publisher = producer
	} else {
		logger.Info("kafka disabled, domain events will not be published")
	}

	// Repositories
	users := postgres.NewUserRepository(pool)
	products := postgres.NewProductRepository(pool)
	orders := postgres.NewOrderRepository(pool)
	reviews := postgres.NewReviewRepository(pool)
	analyticsRepo := postgres.NewAnalyticsRepository(pool)
	tx := postgres.NewTransactor(pool)
	carts := redisrepo.NewCartRepository(redisClient, cfg.CartTTL)
	analyticsCache := redisrepo.NewAnalyticsCache(redisClient, cfg.AnalyticsCacheTTL)

	// Services
	tokens := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessTTL)
	events := event.NewProducer(publisher, logger)
	catalogService := service.NewCatalogService(products, events, analyticsCache, logger)
	cartService := service.NewCartService(carts, products, logger)
	orderService := service.NewOrderService(tx, orders, products, cartService, events, analyticsCache, logger)
	reviewService := service.NewReviewService(tx, reviews, logger)
	analyticsService := service.NewAnalyticsService(analyticsRepo, orders, analyticsCache, logger)
	authService := service.NewAuthService(users, tokens, logger)

	services := handler.Services{
		Auth:      authService,
		Catalog:   catalogService,
		Cart:      cartService,
		Orders:    orderService,
		Reviews:   reviewService,
		Analytics: analyticsService,
	}
	if cfg.GoogleEnabled() {
		client := httpclient.NewBreakerClient(
			httpclient.New(httpclient.DefaultConfig()),
			httpclient.DefaultBreakerConfig("google"),
			logger,
		)
		services.Google = service.NewGoogleAuthService(service.GoogleConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
		}, client, users, tokens, logger)
		logger.Info("google sign-in enabled")
	}

	// Kafka consumers keep the analytics cache fresh.
	var (
		dlq       *pkgkafka.DLQ
		consumers []*pkgkafka.Consumer
	)
	if cfg.KafkaEnabled {
		dlq = pkgkafka.NewDLQ(pkgkafka.NewDLQWriter(cfg.KafkaBrokers), logger)
		store := pkgkafka.NewRedisIdempotencyStore(redisClient, "insightmart:events", idempotencyTTL)
		eventConsumer := event.NewConsumer(analyticsCache, logger)

		handlers := map[string]pkgkafka.Handler{
			event.TopicOrderPlaced:    eventConsumer.HandleOrderPlaced,
			event.TopicProductCreated: eventConsumer.HandleProductChanged,
			event.TopicProductUpdated: eventConsumer.HandleProductChanged,
			event.TopicProductDeleted: eventConsumer.HandleProductChanged,
		}
		for topic, h := range handlers {
			consumers = append(consumers, pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
				Brokers: cfg.KafkaBrokers,
				GroupID: consumerGroup + "." + topic,
				Topic:   topic,
			}, pkgkafka.IdempotentHandler(store, h, logger), dlq, logger))
		}
	}

	// Health checks
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.RegisterCritical("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	if producer != nil {
		healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
			return producer.Ping(ctx)
		})
	}

	router := handler.NewRouter(handler.RouterConfig{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		PprofAllowedCIDRs:  cfg.PprofAllowedCIDRs,
		FrontendURL:        cfg.FrontendURL,
		Tokens:             tokens.Validator(),
		AuthRateLimitRPS:   cfg.AuthRateLimitRPS,
		AuthRateLimitBurst: cfg.AuthRateLimitBurst,
		Registry:           registry,
	}, services, healthHandler, logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redis:          redisClient,
		producer:       producer,
		dlq:            dlq,
		consumers:      consumers,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Run starts the HTTP server and Kafka consumers, then blocks until the
// context is canceled or one of them fails.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1+len(a.consumers))

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
			slog.String("environment", a.cfg.Environment),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	for _, c := range a.consumers {
		go func(c *pkgkafka.Consumer) {
			if err := c.Start(ctx); err != nil {
				errCh <- fmt.Errorf("kafka consumer: %w", err)
			}
		}(c)
	}

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.logger.Error("component failed, shutting down", slog.String("error", err.Error()))
		return errors.Join(err, a.Shutdown())
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in order:
// 1. HTTP server (drain in-flight requests)
// 2. Tracer (flush spans of drained requests)
// 3. Kafka consumers, producer and dead-letter writer
// 4. Redis client
// 5. PostgreSQL pool
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	for _, c := range a.consumers {
		if err := c.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.dlq != nil {
		if err := a.dlq.Close(); err != nil {
			a.logger.Error("kafka dlq close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if err := a.redis.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// pingKafkaWithRetry pings the Kafka brokers with exponential backoff
// (3 attempts, 1s/2s with ±25% jitter between them).
func pingKafkaWithRetry(ctx context.Context, producer *pkgkafka.Producer, logger *slog.Logger) error {
	const attempts = 3

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		lastErr = producer.Ping(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt == attempts-1 {
			break
		}

		base := time.Duration(1<<uint(attempt)) * time.Second
		jitter := time.Duration(float64(base) * 0.25 * (2*rand.Float64() - 1)) // #nosec G404 -- non-cryptographic jitter
		wait := base + jitter
		logger.Warn("kafka producer ping failed, retrying",
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", attempts),
			slog.Duration("backoff", wait),
			slog.String("error", lastErr.Error()),
		)
		select {
		case <-ctx.Done():
			return fmt.Errorf("kafka ping: context canceled during retry: %w", ctx.Err())
		case <-time.After(wait):
		}
	}
	return fmt.Errorf("kafka producer ping failed after %d attempts: %w", attempts, lastErr)
}
