package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"autoreply/internal/app/autoreply/entity"
	"autoreply/internal/app/autoreply/repository"
	"autoreply/internal/app/autoreply/service"
	"autoreply/internal/app/autoreply/settings"
	"autoreply/pkg/metrics"

	"github.com/segmentio/kafka-go"
)

// KafkaConsumer обрабатывает события отзывов из топика review_events
// События могут дублироваться, защита строится на маркерах обработки
// и проверке уже существующих ответов
type KafkaConsumer struct {
	reader      *kafka.Reader
	topic       string
	groupID     string
	settings    *settings.Store
	queueRepo   repository.QueueRepository
	reviews     repository.ReviewRepository
	responseSvc service.ResponseServiceInterface
	queueSvc    service.QueueServiceInterface
	stopChan    chan struct{}
	doneChan    chan struct{}
}

// NewKafkaConsumer создает новый Kafka consumer
func NewKafkaConsumer(
	brokers []string,
	topic string,
	groupID string,
	minBytes int,
	maxBytes int,
	store *settings.Store,
	queueRepo repository.QueueRepository,
	reviews repository.ReviewRepository,
	responseSvc service.ResponseServiceInterface,
	queueSvc service.QueueServiceInterface,
) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		GroupID:     groupID,
		MinBytes:    minBytes,
		MaxBytes:    maxBytes,
		StartOffset: kafka.LastOffset,
		// Настройки для автоматического коммита offset
		CommitInterval: time.Second,
		// Таймауты
		ReadBackoffMin: 100 * time.Millisecond,
		ReadBackoffMax: 1 * time.Second,
	})

	return &KafkaConsumer{
		reader:      reader,
		topic:       topic,
		groupID:     groupID,
		settings:    store,
		queueRepo:   queueRepo,
		reviews:     reviews,
		responseSvc: responseSvc,
		queueSvc:    queueSvc,
		stopChan:    make(chan struct{}),
		doneChan:    make(chan struct{}),
	}
}

// Start запускает consumer в отдельной горутине
func (c *KafkaConsumer) Start(ctx context.Context) {
	log.Println("Starting Kafka consumer...")
	go c.consume(ctx)
}

// Stop останавливает consumer
func (c *KafkaConsumer) Stop() {
	log.Println("Stopping Kafka consumer...")
	close(c.stopChan)
	<-c.doneChan
	c.reader.Close()
	log.Println("Kafka consumer stopped")
}

// consume читает и обрабатывает сообщения из Kafka
func (c *KafkaConsumer) consume(ctx context.Context) {
	defer close(c.doneChan)

	for {
		select {
		case <-c.stopChan:
			return
		default:
			readCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			message, err := c.reader.FetchMessage(readCtx)
			cancel()

			if err != nil {
				if ctx.Err() != nil {
					return
				}

				log.Printf("Error fetching message: %v", err)
				time.Sleep(time.Second)
				continue
			}

			start := time.Now()
			if err := c.processMessage(ctx, message); err != nil {
				log.Printf("Error processing message: %v", err)
				metrics.RecordKafkaError("autoreply-service", c.topic, "consume")
				// Не коммитим offset при ошибке - сообщение будет повторно обработано
			} else {
				metrics.RecordKafkaMessageConsumed("autoreply-service", c.topic, c.groupID, time.Since(start))
				if err := c.reader.CommitMessages(ctx, message); err != nil {
					log.Printf("Error committing message: %v", err)
				}
			}
		}
	}
}

// processMessage обрабатывает одно сообщение из Kafka
func (c *KafkaConsumer) processMessage(ctx context.Context, message kafka.Message) error {
	var event entity.ReviewEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		// Нечитаемое сообщение повтором не вылечить, пропускаем
		log.Printf("Skipping malformed message (offset %d): %v", message.Offset, err)
		return nil
	}

	log.Printf("Received %s event for review %s (offset: %d, partition: %d)",
		event.EventType, event.ReviewID, message.Offset, message.Partition)

	switch event.EventType {
	case entity.EventReviewCreated, entity.EventReviewApproved:
		return c.handleReviewEvent(ctx, &event)
	default:
		log.Printf("Unknown event type: %s for review %s", event.EventType, event.ReviewID)
		return nil
	}
}

// handleReviewEvent решает судьбу отзыва: немедленная генерация,
// очередь или пропуск. Возврат ошибки оставляет offset незакоммиченным
// только для временных сбоев
func (c *KafkaConsumer) handleReviewEvent(ctx context.Context, event *entity.ReviewEvent) error {
	if !c.settings.IsAutomationEnabled(ctx) {
		log.Printf("Automation is disabled, skipping review %s", event.ReviewID)
		return nil
	}

	processing, err := c.queueRepo.HasProcessingMarker(ctx, event.ReviewID)
	if err != nil {
		return fmt.Errorf("failed to check processing marker: %w", err)
	}
	if processing {
		log.Printf("Review %s is already being processed, skipping", event.ReviewID)
		return nil
	}

	review, err := c.reviews.GetByID(ctx, event.ReviewID)
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			log.Printf("Review %s not found, skipping", event.ReviewID)
			return nil
		}
		return fmt.Errorf("failed to get review: %w", err)
	}

	workflowMode := c.settings.WorkflowMode(ctx)

	// Неодобренные отзывы обрабатываются в auto и semi_auto всегда,
	// в draft - только если это разрешено настройкой
	if !review.Approved && workflowMode == entity.WorkflowDraft {
		processUnapproved, _ := c.settings.Get(ctx, "advanced_settings.process_unapproved_reviews", true).(bool)
		if !processUnapproved {
			log.Printf("Review %s is not approved and unapproved processing is disabled, skipping", event.ReviewID)
			return nil
		}
	}

	hasResponse, err := c.responseSvc.HasResponse(ctx, event.ReviewID)
	if err != nil {
		return fmt.Errorf("failed to check existing response: %w", err)
	}
	if hasResponse {
		log.Printf("Response already exists for review %s, skipping", event.ReviewID)
		return nil
	}

	acquired, err := c.queueRepo.SetProcessingMarker(ctx, event.ReviewID)
	if err != nil {
		// Маркер не критичен, дубликат отсечётся проверкой ответа
		log.Printf("Failed to set processing marker for review %s: %v", event.ReviewID, err)
	} else if !acquired {
		log.Printf("Review %s was claimed concurrently, skipping", event.ReviewID)
		return nil
	}

	// В auto режиме пробуем немедленную генерацию, очередь - запасной путь
	if workflowMode == entity.WorkflowAuto {
		if _, err := c.responseSvc.Generate(ctx, event.ReviewID); err == nil {
			log.Printf("Immediate processing successful for review %s", event.ReviewID)
			return nil
		} else {
			log.Printf("Immediate processing failed for review %s: %v", event.ReviewID, err)
		}
	}

	if err := c.queueSvc.Enqueue(ctx, event.ReviewID); err != nil {
		return fmt.Errorf("failed to enqueue review: %w", err)
	}

	return nil
}

// GetStats возвращает статистику consumer
func (c *KafkaConsumer) GetStats() kafka.ReaderStats {
	return c.reader.Stats()
}
