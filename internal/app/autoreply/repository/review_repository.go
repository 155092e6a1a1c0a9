package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"autoreply/internal/app/autoreply/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// reviewRepository работает с коллекциями отзывов и ответов в MongoDB
// Отзывы пайплайн только читает, ответы (replies) создаёт и публикует
type reviewRepository struct {
	reviews *mongo.Collection
	replies *mongo.Collection
}

// NewReviewRepository создает новый репозиторий отзывов
// Автоматически создает индексы для выборок пайплайна
func NewReviewRepository(db *mongo.Database) ReviewRepository {
	reviews := db.Collection("reviews")
	replies := db.Collection("replies")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Индекс по product_id для выборки недавних отзывов товара
	_, err := reviews.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "product_id", Value: 1}},
		Options: options.Index().SetName("product_id_idx"),
	})
	if err != nil {
		// Логируем ошибку, но не прерываем работу - индекс может уже существовать
		fmt.Printf("Warning: failed to create index on product_id: %v\n", err)
	}

	// Индексы ответов: поиск по родительскому отзыву и по ID ответа в PostgreSQL
	_, err = replies.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "parent_review_id", Value: 1}},
		Options: options.Index().SetName("parent_review_id_idx"),
	})
	if err != nil {
		fmt.Printf("Warning: failed to create index on parent_review_id: %v\n", err)
	}

	_, err = replies.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "response_id", Value: 1}},
		Options: options.Index().SetName("response_id_idx"),
	})
	if err != nil {
		fmt.Printf("Warning: failed to create index on response_id: %v\n", err)
	}

	return &reviewRepository{
		reviews: reviews,
		replies: replies,
	}
}

// GetByID получает отзыв по ID
func (r *reviewRepository) GetByID(ctx context.Context, id string) (*entity.Review, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid review ID: %w", err)
	}

	var review entity.Review
	err = r.reviews.FindOne(ctx, bson.M{"_id": objectID}).Decode(&review)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}

	return &review, nil
}

// GetRecentByProduct получает последние отзывы товара для контекста промпта
func (r *reviewRepository) GetRecentByProduct(ctx context.Context, productID string, limit int) ([]entity.Review, error) {
	filter := bson.M{"product_id": productID}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.reviews.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find reviews: %w", err)
	}
	defer cursor.Close(ctx)

	var reviews []entity.Review
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, fmt.Errorf("failed to decode reviews: %w", err)
	}

	return reviews, nil
}

// CreateReply создает ответ магазина на отзыв
func (r *reviewRepository) CreateReply(ctx context.Context, reply *entity.Reply) error {
	reply.CreatedAt = time.Now()
	reply.UpdatedAt = time.Now()

	result, err := r.replies.InsertOne(ctx, reply)
	if err != nil {
		return fmt.Errorf("failed to create reply: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		reply.ID = oid
	}

	return nil
}

// SetReplyApproved переключает видимость ответа
// approved=false означает, что ответ создан, но ждёт модерации
func (r *reviewRepository) SetReplyApproved(ctx context.Context, replyID string, approved bool) error {
	objectID, err := primitive.ObjectIDFromHex(replyID)
	if err != nil {
		return fmt.Errorf("invalid reply ID: %w", err)
	}

	update := bson.M{
		"$set": bson.M{
			"approved":   approved,
			"updated_at": time.Now(),
		},
	}

	result, err := r.replies.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update reply: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrReplyNotFound
	}

	return nil
}

// FindReplyByResponseID находит ответ, созданный из сгенерированного ответа
func (r *reviewRepository) FindReplyByResponseID(ctx context.Context, responseID uint) (*entity.Reply, error) {
	var reply entity.Reply
	err := r.replies.FindOne(ctx, bson.M{"response_id": responseID}).Decode(&reply)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrReplyNotFound
		}
		return nil, fmt.Errorf("failed to find reply: %w", err)
	}

	return &reply, nil
}
