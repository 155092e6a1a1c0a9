package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"autoreply/internal/app/autoreply/config"
	"autoreply/internal/app/autoreply/handler"
	"autoreply/internal/app/autoreply/infrastructure/messaging"
	"autoreply/internal/app/autoreply/processor"
	"autoreply/internal/app/autoreply/provider"
	"autoreply/internal/app/autoreply/repository"
	"autoreply/internal/app/autoreply/service"
	"autoreply/internal/app/autoreply/settings"
	applogger "autoreply/pkg/logger"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	log.Println("Starting Autoreply Service...")

	// === ИНИЦИАЛИЗАЦИЯ КОНФИГУРАЦИИ ===
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	applogger.Init("autoreply-service", logLevel)

	logstashAddr := os.Getenv("LOGSTASH_ADDR")
	if logstashAddr != "" {
		if err := applogger.InitLogstash(logstashAddr, "autoreply-service", logLevel); err != nil {
			log.Printf("Failed to connect to Logstash, using stdout only: %v", err)
		}
	}

	// Создаем основной контекст приложения
	ctx := context.Background()

	// === ПОДКЛЮЧЕНИЕ К POSTGRESQL ===
	// Ответы, журнал аудита, оценки и настройки
	db, err := connectDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Successfully connected to PostgreSQL")

	if err := repository.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations applied")

	// === ПОДКЛЮЧЕНИЕ К MONGODB ===
	// Отзывы и опубликованные ответы лежат в базе Reviews Service
	mongoClient, err := connectMongoDB(cfg.MongoDB)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(disconnectCtx); err != nil {
			log.Printf("Error disconnecting from MongoDB: %v", err)
		}
	}()
	log.Println("Successfully connected to MongoDB")

	mongoDB := mongoClient.Database(cfg.MongoDB.Database)

	// === ПОДКЛЮЧЕНИЕ К REDIS ===
	// Очередь отзывов, маркеры обработки и кэш описаний товаров
	redisClient, err := connectRedis(ctx, cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Successfully connected to Redis")

	// === ИНИЦИАЛИЗАЦИЯ KAFKA PRODUCER ===
	kafkaProducer := messaging.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.NotificationsTopic)
	defer kafkaProducer.Close()
	log.Printf("Kafka producer initialized (topic: %s)", cfg.Kafka.NotificationsTopic)

	// === ИНИЦИАЛИЗАЦИЯ РЕПОЗИТОРИЕВ ===
	auditLogRepo := repository.NewAuditLogRepository(db)
	responseRepo := repository.NewResponseRepository(db, auditLogRepo)
	feedbackRepo := repository.NewFeedbackRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	queueRepo := repository.NewQueueRepository(redisClient, cfg.Redis.QueueTTL)
	reviewRepo := repository.NewReviewRepository(mongoDB)
	productRepo := repository.NewProductRepository(db, redisClient)
	log.Println("Repositories initialized")

	// === ИНИЦИАЛИЗАЦИЯ НАСТРОЕК ===
	settingsStore := settings.NewStore(settingsRepo)

	// === ИНИЦИАЛИЗАЦИЯ AI ПРОВАЙДЕРОВ ===
	providerManager := provider.NewManager(
		settingsStore,
		auditLogRepo,
		provider.NewOpenAIProvider(settingsStore),
		provider.NewGeminiProvider(settingsStore),
		provider.NewOpenRouterProvider(settingsStore, cfg.Store.URL, cfg.Store.Name),
	)
	log.Println("AI provider manager initialized")

	// === ИНИЦИАЛИЗАЦИЯ СЕРВИСОВ ===
	reviewFilter := service.NewReviewFilter(settingsStore)
	promptBuilder := service.NewPromptBuilder(settingsStore, productRepo, reviewRepo)

	responseSvc := service.NewResponseService(
		responseRepo,
		reviewRepo,
		feedbackRepo,
		auditLogRepo,
		settingsStore,
		providerManager,
		reviewFilter,
		promptBuilder,
		cfg.Store.Name,
	)

	queueSvc := service.NewQueueService(
		queueRepo,
		auditLogRepo,
		settingsStore,
		responseSvc,
	)

	notificationSvc := service.NewNotificationService(
		responseRepo,
		auditLogRepo,
		settingsStore,
		kafkaProducer,
	)
	log.Println("Services initialized")

	// === ИНИЦИАЛИЗАЦИЯ KAFKA CONSUMER ===
	kafkaConsumer := processor.NewKafkaConsumer(
		cfg.Kafka.Brokers,
		cfg.Kafka.ReviewsTopic,
		cfg.Kafka.GroupID,
		cfg.Kafka.MinBytes,
		cfg.Kafka.MaxBytes,
		settingsStore,
		queueRepo,
		reviewRepo,
		responseSvc,
		queueSvc,
	)

	kafkaConsumer.Start(ctx)
	defer kafkaConsumer.Stop()
	log.Printf("Kafka consumer started (topic: %s, group: %s)", cfg.Kafka.ReviewsTopic, cfg.Kafka.GroupID)

	// === ИНИЦИАЛИЗАЦИЯ CRON SCHEDULER ===
	cronScheduler := processor.NewCronScheduler(queueSvc, notificationSvc)
	if err := cronScheduler.Start(ctx, cfg.Cron.QueueDrain, cfg.Cron.Cleanup, cfg.Cron.Notifications); err != nil {
		log.Fatalf("Failed to start cron scheduler: %v", err)
	}
	defer cronScheduler.Stop()

	// === ИНИЦИАЛИЗАЦИЯ HTTP СЕРВЕРА ===
	authMiddleware := handler.NewAuthMiddleware(cfg.JWT.Secret)
	responseHandler := handler.NewResponseHandler(responseSvc, queueSvc, settingsStore)
	router := handler.SetupRoutes(responseHandler, authMiddleware)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting HTTP server on %s...", cfg.Server.Address())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// === ЗАПУСК ЗАВЕРШЕН ===
	log.Println("Autoreply Service is running")
	log.Printf("Waiting for review events from Kafka (topic: %s)...", cfg.Kafka.ReviewsTopic)

	// === GRACEFUL SHUTDOWN ===
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down Autoreply Service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Autoreply Service stopped gracefully")
}

// connectDB устанавливает соединение с PostgreSQL используя GORM
func connectDB(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		cfg.Host, cfg.User, cfg.Password, cfg.DBName, cfg.Port, cfg.SSLMode,
	)

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	}

	// Retry logic для устойчивости при запуске в Docker
	var db *gorm.DB
	var err error

	for i := 0; i < 10; i++ {
		db, err = gorm.Open(postgres.Open(dsn), gormConfig)
		if err == nil {
			sqlDB, sqlErr := db.DB()
			if sqlErr != nil {
				err = sqlErr
			} else {
				if pingErr := sqlDB.Ping(); pingErr != nil {
					err = pingErr
				} else {
					// Настраиваем connection pool
					sqlDB.SetMaxOpenConns(10)
					sqlDB.SetMaxIdleConns(5)
					sqlDB.SetConnMaxLifetime(5 * time.Minute)
					sqlDB.SetConnMaxIdleTime(1 * time.Minute)
					return db, nil
				}
			}
		}
		log.Printf("Failed to connect to database (attempt %d/10): %v", i+1, err)
		time.Sleep(3 * time.Second)
	}

	return nil, fmt.Errorf("failed to connect after 10 attempts: %w", err)
}

// connectMongoDB устанавливает соединение с MongoDB
func connectMongoDB(cfg config.MongoDBConfig) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(cfg.URI)

	var client *mongo.Client
	var err error

	for i := 0; i < 10; i++ {
		connectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		client, err = mongo.Connect(connectCtx, clientOptions)
		cancel()

		if err == nil {
			pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
			err = client.Ping(pingCtx, nil)
			pingCancel()
			if err == nil {
				return client, nil
			}
		}

		log.Printf("Failed to connect to MongoDB (attempt %d/10): %v", i+1, err)
		time.Sleep(3 * time.Second)
	}

	return nil, fmt.Errorf("failed to connect to MongoDB after 10 attempts: %w", err)
}

// connectRedis устанавливает соединение с Redis
func connectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	// Проверяем соединение с retry logic
	for i := 0; i < 10; i++ {
		if err := client.Ping(ctx).Err(); err == nil {
			return client, nil
		}
		log.Printf("Failed to connect to Redis (attempt %d/10)", i+1)
		time.Sleep(3 * time.Second)
	}

	return nil, fmt.Errorf("failed to connect to Redis after 10 attempts")
}
