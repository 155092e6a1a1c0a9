package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	MongoDB  MongoDBConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	JWT      JWTConfig
	Store    StoreConfig
	Cron     CronConfig
}

type ServerConfig struct {
	Host string // Адрес хоста (по умолчанию 0.0.0.0)
	Port string // Порт сервера (по умолчанию 8086)
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type MongoDBConfig struct {
	URI      string // URI подключения к MongoDB (отзывы и ответы на них)
	Database string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	QueueTTL time.Duration // TTL очереди отзывов
}

type KafkaConfig struct {
	Brokers            []string
	ReviewsTopic       string // топик событий отзывов (consumer)
	NotificationsTopic string // топик уведомлений администратору (producer)
	GroupID            string
	MinBytes           int
	MaxBytes           int
}

type JWTConfig struct {
	Secret string // Должен совпадать с Auth Service
}

// StoreConfig - идентификация магазина для внешних AI API
type StoreConfig struct {
	URL  string // передаётся в HTTP-Referer для OpenRouter
	Name string
}

type CronConfig struct {
	QueueDrain    string // расписание обработки очереди
	Cleanup       string // расписание очистки старых данных
	Notifications string // расписание проверки уведомлений
}

func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("SERVER_PORT", "8086"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "autoreply_service"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		MongoDB: MongoDBConfig{
			URI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGODB_DATABASE", "reviews_service"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			QueueTTL: time.Duration(getEnvInt("QUEUE_TTL_MINUTES", 60)) * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:            []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			ReviewsTopic:       getEnv("KAFKA_REVIEWS_TOPIC", "review_events"),
			NotificationsTopic: getEnv("KAFKA_NOTIFICATIONS_TOPIC", "admin_notifications"),
			GroupID:            getEnv("KAFKA_GROUP_ID", "autoreply-service"),
			MinBytes:           getEnvInt("KAFKA_MIN_BYTES", 1),
			MaxBytes:           getEnvInt("KAFKA_MAX_BYTES", 10e6),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your-secret-key-change-this-in-production"),
		},
		Store: StoreConfig{
			URL:  getEnv("STORE_URL", "https://augustberries.ru"),
			Name: getEnv("STORE_NAME", "August Berries"),
		},
		Cron: CronConfig{
			QueueDrain:    getEnv("CRON_QUEUE_DRAIN", "*/5 * * * *"),
			Cleanup:       getEnv("CRON_CLEANUP", "0 3 * * *"),
			Notifications: getEnv("CRON_NOTIFICATIONS", "0 * * * *"),
		},
	}, nil
}

func (c *ServerConfig) Address() string {
	return c.Host + ":" + c.Port
}

func (c *RedisConfig) Address() string {
	return c.Host + ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
