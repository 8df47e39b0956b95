package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/shenikar/bantaybayan/internal/config"
	v1 "github.com/shenikar/bantaybayan/internal/handler/http/v1"
	"github.com/shenikar/bantaybayan/internal/jobs"
	"github.com/shenikar/bantaybayan/internal/observability"
	"github.com/shenikar/bantaybayan/internal/proximity"
	"github.com/shenikar/bantaybayan/internal/repository"
	"github.com/shenikar/bantaybayan/internal/scenario"
	"github.com/shenikar/bantaybayan/internal/service"
	"github.com/shenikar/bantaybayan/internal/weather"
	"github.com/shenikar/bantaybayan/internal/webhook"
	"github.com/shenikar/bantaybayan/pkg/logger"
	"github.com/shenikar/bantaybayan/pkg/postgres"
	redisclient "github.com/shenikar/bantaybayan/pkg/redis"

	_ "github.com/shenikar/bantaybayan/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const (
	indexWarmupTimeout = 30 * time.Second
	indexResyncTimeout = time.Minute
)

// @title BantayBayan API
// @version 1.0
// @description Community flood reporting backend: resident reports, incident clustering, weather and storm scenarios.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
func runMigrations(cfg *config.Config, log *logrus.Logger) error {
	log.Info("Running database migrations...")

	migrationURL := cfg.DatabaseURL
	if !strings.HasPrefix(migrationURL, "pgx5://") {
		migrationURL = strings.Replace(migrationURL, "postgres://", "pgx5://", 1)
		migrationURL = strings.Replace(migrationURL, "postgresql://", "pgx5://", 1)
	}

	m, err := migrate.New(
		"file://migrations",
		migrationURL,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("Database migrations applied successfully")
	return nil
}

// corsConfig разрешает все источники, если в списке есть "*"
func corsConfig(cfg *config.Config) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-API-Key"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 || slices.Contains(cfg.AllowedOrigins, "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = cfg.AllowedOrigins
		c.AllowCredentials = true
	}
	return c
}

func main() {
	// Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	log := logger.New(cfg.LogLevel)

	// Контекст для graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Запуск миграций
	if err := runMigrations(cfg, log); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	// Подключение к PostgreSQL
	dbpool, err := postgres.NewPostgresDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer dbpool.Close()
	log.Info("Successfully connected to PostgreSQL")

	// Инициализация Redis клиента
	redisClient, err := redisclient.NewRedisClient(ctx, redisclient.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Info("Successfully connected to Redis")

	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	// Очередь вебхуков: издатель для сервиса и источник для воркера
	webhookQueue := webhook.NewRedisQueue(redisClient)
	webhookWorker := webhook.NewWebhookWorker(webhookQueue, log, cfg, metrics)
	webhookWorker.Start(ctx)
	defer webhookWorker.Stop()

	// Инициализация репозиториев
	incidentRepo := repository.NewIncidentRepository(dbpool, redisClient, cfg.IncidentCacheTTL)
	reportRepo := repository.NewReportRepository(dbpool)

	// Стратегия поиска ближайших отчетов
	var (
		finder proximity.Finder
		index  service.ReportIndex
	)
	switch cfg.ProximityStrategy {
	case config.ProximityStrategyS2:
		cellIndex := proximity.NewCellIndex(cfg.ProximityCellLevel)
		finder, index = cellIndex, cellIndex
	default:
		finder = proximity.NewScanFinder(reportRepo)
	}
	log.WithField("strategy", cfg.ProximityStrategy).Info("Proximity strategy selected")

	// Инициализация сервисов
	incidentService := service.NewIncidentService(incidentRepo, log, cfg, webhookQueue, metrics, clock)
	reportService := service.NewReportService(reportRepo, finder, index, incidentService, log, cfg, metrics, clock)

	if index != nil {
		warmupCtx, warmupCancel := context.WithTimeout(ctx, indexWarmupTimeout)
		if err := reportService.RebuildIndex(warmupCtx); err != nil {
			log.Fatalf("Failed to build proximity index: %v", err)
		}
		warmupCancel()

		scheduler := jobs.NewScheduler(log)
		if err := scheduler.ScheduleIndexResync(cfg.IndexResyncSchedule, reportService, indexResyncTimeout); err != nil {
			log.Fatalf("Failed to schedule index resync: %v", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	weatherProvider := weather.NewCachedProvider(
		weather.NewClient(cfg.WeatherBaseURL, cfg.WeatherTimeout),
		redisClient,
		cfg.WeatherCacheTTL,
		log,
		metrics,
	)

	seed := uint64(clock.Now().UnixNano())
	simulator := scenario.NewSimulator(clock, rand.New(rand.NewPCG(seed, seed>>1)))

	// Инициализация хэндлеров
	handler := v1.NewHandler(incidentService, reportService, weatherProvider, simulator, log, cfg)

	// Настройка Gin роутера
	router := gin.Default()
	router.Use(cors.New(corsConfig(cfg)))
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Добавление маршрута для Swagger UI
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Запуск HTTP-сервера
	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)

	srv := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Запуск сервера в горутине
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Error starting HTTP server: %v", err)
		}
	}()
	log.Infof("HTTP server started on port %s", cfg.HTTPPort)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Received shutdown signal, shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}
	cancel()

	log.Info("Server gracefully stopped")
}
