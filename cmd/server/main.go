package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"portfolio-tracker/internal/bot"
	"portfolio-tracker/internal/cache"
	"portfolio-tracker/internal/config"
	"portfolio-tracker/internal/db"
	"portfolio-tracker/internal/domain"
	"portfolio-tracker/internal/handler"
	"portfolio-tracker/internal/job"
	"portfolio-tracker/internal/provider"
	"portfolio-tracker/internal/repository"
	"portfolio-tracker/internal/service"
	"portfolio-tracker/pkg/logging"
	"portfolio-tracker/pkg/tracing"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "portfolio-tracker/docs"
)

// storePool is what the server needs from the Postgres pool.
type storePool interface {
	db.Migrator
	Close()
}

var (
	loadEnvFunc    = godotenv.Load
	loadConfigFunc = config.Load
	newLoggerFunc  = logging.New
	initTracerFunc = tracing.InitTracer
	openStoreFunc  = func(ctx context.Context, url string) (storePool, error) {
		pool, err := db.InitPostgres(ctx, url)
		if err != nil {
			return nil, err
		}
		return pool, nil
	}
	migrateFunc = func(ctx context.Context, pool storePool) (int, error) {
		return db.MigrateUp(ctx, pool)
	}
	newCacheBackendFunc    = cache.NewBackend
	startBotFunc           = bot.Start
	newRouterFunc          = gin.New
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           Portfolio Tracker API
// @version         1.0
// @description     Portfolio valuation and pricing service.

// @host      localhost:8080
// @BasePath  /
func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run() error {
	_ = loadEnvFunc()

	cfg := loadConfigFunc()
	logger := newLoggerFunc(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, tracer, err := initTracerFunc(ctx, tracingConfig(cfg))
	if err != nil {
		return fmt.Errorf("initialize tracer: %w", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("error shutting down tracer provider")
		}
	}()

	pool, err := openStoreFunc(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer pool.Close()

	applied, err := migrateFunc(ctx, pool)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	logger.Info().Int("applied", applied).Msg("migrations up to date")

	backend, err := newCacheBackendFunc(cfg.CacheBackend, cache.BackendOptions{
		RedisURL:  cfg.RedisURL,
		RESTURL:   cfg.UpstashRESTURL,
		RESTToken: cfg.UpstashRESTToken,
		Timeout:   time.Duration(cfg.HTTPTimeoutSecs) * time.Second,
	}, logger)
	if err != nil {
		return fmt.Errorf("cache backend: %w", err)
	}
	quoteCache := cache.New(backend, logger)
	defer quoteCache.Close()

	timeout := time.Duration(cfg.HTTPTimeoutSecs) * time.Second
	coingecko := provider.NewCoinGeckoProvider(tracer, cfg.CoinGeckoAPIURL, timeout)
	iex := provider.NewIEXCloudProvider(tracer, cfg.IEXCloudAPIURL, cfg.IEXCloudAPIKey, timeout)
	resolver := service.NewResolver(tracer, coingecko, iex)

	quotes := service.NewQuoteService(tracer, resolver, quoteCache, time.Duration(cfg.QuoteTTLSecs)*time.Second, logger)
	history := service.NewHistoryService(tracer, resolver, quoteCache, time.Duration(cfg.HistoryTTLSecs)*time.Second, logger)

	portfolios := repository.NewPortfolioRepository(pool, tracer)
	valuations := repository.NewValuationRepository(pool, tracer)
	engine := service.NewValuationEngine(tracer, quotes, valuations, cfg.ValuationConcurrency, logger)
	evaluator := service.NewNotificationEvaluator(cfg.AlertLossPct, cfg.AlertGainPct)

	dispatcher := job.NewDispatcher(tracer, cfg.WorkerCount, cfg.QueueSize, logger)
	dispatcher.Handle(domain.JobValuation, job.NewValuationJob(tracer, portfolios, engine, logger))
	dispatcher.Handle(domain.JobHistoricalRefresh, job.NewHistoricalRefreshJob(tracer, portfolios, history, logger))
	dispatcher.Handle(domain.JobNotificationSweep, job.NewNotificationSweepJob(
		tracer, portfolios, valuations, evaluator, job.NewLogNotifier(logger), logger))
	dispatcher.Start(ctx)

	scheduler, err := job.NewScheduler(dispatcher, scheduleFromConfig(cfg), logger)
	if err != nil {
		dispatcher.Stop()
		return fmt.Errorf("scheduler: %w", err)
	}
	scheduler.Start()

	stopBot, err := startBotFunc(cfg.TelegramBotToken, bot.NewCommands(quotes, valuations, scheduler), logger)
	if err != nil {
		logger.Error().Err(err).Msg("telegram bot disabled")
		stopBot = func() {}
	}

	h := handler.New(tracer, handler.Deps{
		Quotes:     quotes,
		History:    history,
		Portfolios: portfolios,
		Valuations: valuations,
		Trigger:    scheduler,
		Jobs:       dispatcher,
	}, logger)

	r := newRouterFunc()
	r.Use(gin.Recovery())
	r.Use(handler.RequestLogger(logger))
	r.Use(otelgin.Middleware(tracing.ServiceName))
	r.Use(cors.New(corsConfig(cfg.FrontendURL)))

	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(cfg.Port),
		Handler: r,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := startHTTPServerFunc(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	logger.Info().Msg("shutting down server")

	stopBot()
	shutdown(srv, scheduler, dispatcher, logger)
	logger.Info().Msg("server exiting")
	return nil
}

// shutdown stops intake first, then drains queued jobs.
func shutdown(srv *http.Server, scheduler *job.Scheduler, dispatcher *job.Dispatcher, logger zerolog.Logger) {
	scheduler.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	dispatcher.Stop()
}

func scheduleFromConfig(cfg *config.Config) job.Schedule {
	s := job.DefaultSchedule(cfg.DailyValuationHourUTC)
	if cfg.HourlyCron != "" {
		s.Hourly = cfg.HourlyCron
	}
	if cfg.HistoricalCron != "" {
		s.Historical = cfg.HistoricalCron
	}
	if cfg.NotificationCron != "" {
		s.Notification = cfg.NotificationCron
	}
	return s
}

func tracingConfig(cfg *config.Config) tracing.Config {
	return tracing.Config{
		Enabled:     cfg.TracingEnabled,
		Endpoint:    cfg.OTLPEndpoint,
		Insecure:    cfg.OTLPInsecure,
		SampleRatio: cfg.TraceSampleRatio,
		Version:     cfg.ServiceVersion,
	}
}

func corsConfig(frontendURL string) cors.Config {
	return cors.Config{
		AllowOrigins:     []string{frontendURL},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}
