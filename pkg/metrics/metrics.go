package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// HTTP Метрики
// =============================================================================

// HttpRequestsTotal - счётчик всех HTTP запросов
// Labels: service, method, path, status
// Пример запроса PromQL: rate(http_requests_total{service="autoreply"}[5m])
var HttpRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	},
	[]string{"service", "method", "path", "status"},
)

// HttpRequestDuration - гистограмма времени ответа
// Пример: histogram_quantile(0.95, rate(http_request_duration_seconds_bucket[5m]))
var HttpRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	},
	[]string{"service", "method", "path"},
)

// HttpRequestsInFlight - текущее количество обрабатываемых запросов
var HttpRequestsInFlight = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "http_requests_in_flight",
		Help: "Current number of HTTP requests being processed",
	},
	[]string{"service"},
)

// =============================================================================
// Database Метрики
// =============================================================================

// DbQueryDuration - время выполнения SQL запросов
var DbQueryDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	},
	[]string{"service", "operation", "table"},
)

// DbErrors - счётчик ошибок базы данных
var DbErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "db_errors_total",
		Help: "Total number of database errors",
	},
	[]string{"service", "operation"},
)

// =============================================================================
// Redis Метрики
// =============================================================================

// RedisCacheHits - попадания в кеш
var RedisCacheHits = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "redis_cache_hits_total",
		Help: "Total number of Redis cache hits",
	},
	[]string{"service", "key_prefix"},
)

// RedisCacheMisses - промахи кеша
var RedisCacheMisses = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "redis_cache_misses_total",
		Help: "Total number of Redis cache misses",
	},
	[]string{"service", "key_prefix"},
)

// RedisOperationDuration - время операций Redis
var RedisOperationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "redis_operation_duration_seconds",
		Help:    "Duration of Redis operations in seconds",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	},
	[]string{"service", "operation"},
)

// RedisErrors - ошибки Redis
var RedisErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "redis_errors_total",
		Help: "Total number of Redis errors",
	},
	[]string{"service", "operation"},
)

// =============================================================================
// Kafka Метрики
// =============================================================================

// KafkaMessagesProduced - отправленные сообщения
var KafkaMessagesProduced = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_messages_produced_total",
		Help: "Total number of Kafka messages produced",
	},
	[]string{"service", "topic"},
)

// KafkaMessagesConsumed - полученные сообщения
var KafkaMessagesConsumed = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_messages_consumed_total",
		Help: "Total number of Kafka messages consumed",
	},
	[]string{"service", "topic", "group"},
)

// KafkaProduceDuration - время отправки сообщения
var KafkaProduceDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "kafka_produce_duration_seconds",
		Help:    "Duration of Kafka produce operations",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	},
	[]string{"service", "topic"},
)

// KafkaConsumeDuration - время обработки сообщения
var KafkaConsumeDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "kafka_consume_duration_seconds",
		Help:    "Duration of Kafka message processing",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
	},
	[]string{"service", "topic"},
)

// KafkaErrors - ошибки Kafka
var KafkaErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_errors_total",
		Help: "Total number of Kafka errors",
	},
	[]string{"service", "topic", "operation"}, // operation: produce, consume
)

// =============================================================================
// Business Метрики (генерация ответов на отзывы)
// =============================================================================

// ResponsesGenerated - сгенерированные ответы по провайдерам
// Label provider включает специальное значение "fallback" для шаблонных ответов
var ResponsesGenerated = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "autoreply_responses_generated_total",
		Help: "Total number of AI responses generated",
	},
	[]string{"provider"},
)

// ResponsesPublished - опубликованные ответы
var ResponsesPublished = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "autoreply_responses_published_total",
		Help: "Total number of responses published as review replies",
	},
	[]string{"mode"}, // auto, manual
)

// ProviderErrors - ошибки AI провайдеров
var ProviderErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "autoreply_provider_errors_total",
		Help: "Total number of AI provider errors",
	},
	[]string{"provider"},
)

// ProviderGenerationDuration - время генерации ответа провайдером
var ProviderGenerationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "autoreply_provider_generation_duration_seconds",
		Help:    "Duration of AI provider generation calls",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30},
	},
	[]string{"provider"},
)

// ReviewsFiltered - отзывы, отклонённые фильтром
var ReviewsFiltered = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "autoreply_reviews_filtered_total",
		Help: "Total number of reviews rejected by the review filter",
	},
	[]string{"reason"}, // rating_range, spam, negative_only, question
)

// QueueDepth - текущая глубина очереди отзывов
var QueueDepth = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "autoreply_queue_depth",
		Help: "Current number of reviews waiting in the processing queue",
	},
)

// QueueRetries - повторные попытки обработки из очереди
var QueueRetries = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "autoreply_queue_retries_total",
		Help: "Total number of queue processing retries",
	},
)

// QueueDropped - элементы очереди, отброшенные после максимума попыток
var QueueDropped = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "autoreply_queue_dropped_total",
		Help: "Total number of queue items dropped after max attempts",
	},
)

// NotificationsSent - отправленные уведомления администратору
var NotificationsSent = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "autoreply_notifications_sent_total",
		Help: "Total number of admin notifications sent",
	},
	[]string{"type"}, // high_volume, errors
)
